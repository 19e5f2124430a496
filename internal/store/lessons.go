package store

import (
	"context"
	"strings"
)

// CreateParams carries the author-supplied fields for a new lesson.
type CreateParams struct {
	Title          string
	Status         string
	Summary        string
	Subject        string
	Level          string
	RequiresLogin  *bool
	ExerciseConfig ExerciseConfig
}

// Create allocates a fresh lesson with every taxonomy section initialized
// to its default body at version 1, writes the aggregate, and appends a
// listing entry.
func (s *Store) Create(ctx context.Context, email string, params CreateParams) (*Lesson, error) {
	account := SanitizeAccount(email)
	now := nowISO()

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadIndex(ctx, account)
	if err != nil {
		return nil, err
	}
	lessonID, err := s.generateID(entries)
	if err != nil {
		return nil, err
	}

	sections := NewSectionMap()
	meta := map[string]SectionMeta{}
	for _, key := range s.tax.Keys() {
		sections.Set(key, sectionFilename(key))
		meta[key] = SectionMeta{Key: key, UpdatedAt: now, Version: 1, ContentLength: 0}
	}

	lesson := &Lesson{
		ID:             lessonID,
		Title:          params.Title,
		Status:         params.Status,
		Subject:        params.Subject,
		Level:          params.Level,
		RequiresLogin:  params.RequiresLogin,
		Summary:        params.Summary,
		ExerciseConfig: params.ExerciseConfig,
		CreatedAt:      now,
		UpdatedAt:      now,
		Sections:       sections,
		SectionsMeta:   meta,
	}
	if err := s.writeAggregate(ctx, account, lesson); err != nil {
		return nil, err
	}
	for _, key := range sections.Keys() {
		filename, _ := sections.Get(key)
		objectKey := s.sectionObjectKey(account, lessonID, filename)
		if err := s.backend.PutObject(ctx, objectKey, sectionDefaultBody(key), sectionContentType(key)); err != nil {
			return nil, err
		}
	}
	entries = append(entries, ListingEntry{
		ID:             lessonID,
		Title:          params.Title,
		Status:         params.Status,
		Subject:        params.Subject,
		Level:          params.Level,
		RequiresLogin:  params.RequiresLogin,
		ExerciseConfig: params.ExerciseConfig,
		UpdatedAt:      now,
	})
	if err := s.saveIndex(ctx, account, entries); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Get returns the lesson aggregate, or (nil, nil) when absent.
func (s *Store) Get(ctx context.Context, email, lessonID string) (*Lesson, error) {
	return s.getAggregate(ctx, SanitizeAccount(email), lessonID)
}

// GetByAccount is Get for an already-sanitized account token; used by the
// cross-account catalog scan.
func (s *Store) GetByAccount(ctx context.Context, account, lessonID string) (*Lesson, error) {
	return s.getAggregate(ctx, account, lessonID)
}

func (s *Store) List(ctx context.Context, email string) ([]ListingEntry, error) {
	account := SanitizeAccount(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIndex(ctx, account)
}

func (s *Store) ListByAccount(ctx context.Context, account string) ([]ListingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIndex(ctx, account)
}

func (s *Store) ListByStatus(ctx context.Context, email, status string) ([]ListingEntry, error) {
	account := SanitizeAccount(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.loadIndex(ctx, account)
	if err != nil {
		return nil, err
	}
	filtered := []ListingEntry{}
	for _, entry := range entries {
		if entry.Status == status {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// UpdateParams carries partial lesson fields; nil pointers leave the
// current value untouched.
type UpdateParams struct {
	Title          *string
	Status         *string
	Summary        *string
	Subject        *string
	Level          *string
	RequiresLogin  *bool
	ExerciseConfig ExerciseConfig
}

// Update applies the provided fields, bumps updatedAt, and rewrites both
// the aggregate and the matching listing entry. A missing listing entry is
// re-inserted rather than treated as corruption.
func (s *Store) Update(ctx context.Context, email, lessonID string, params UpdateParams) (*Lesson, error) {
	account := SanitizeAccount(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, err := s.getAggregate(ctx, account, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, nil
	}
	if params.Title != nil {
		lesson.Title = *params.Title
	}
	if params.Status != nil {
		lesson.Status = *params.Status
	}
	if params.Summary != nil {
		lesson.Summary = *params.Summary
	}
	if params.Subject != nil {
		lesson.Subject = *params.Subject
	}
	if params.Level != nil {
		lesson.Level = *params.Level
	}
	if params.RequiresLogin != nil {
		lesson.RequiresLogin = params.RequiresLogin
	}
	if params.ExerciseConfig != nil {
		lesson.ExerciseConfig = params.ExerciseConfig
	}
	lesson.UpdatedAt = nowISO()
	if err := s.writeAggregate(ctx, account, lesson); err != nil {
		return nil, err
	}

	entries, err := s.loadIndex(ctx, account)
	if err != nil {
		return nil, err
	}
	updated := false
	for i := range entries {
		if entries[i].ID != lessonID {
			continue
		}
		if params.Title != nil {
			entries[i].Title = *params.Title
		}
		if params.Status != nil {
			entries[i].Status = *params.Status
		}
		if params.Subject != nil {
			entries[i].Subject = *params.Subject
		}
		if params.Level != nil {
			entries[i].Level = *params.Level
		}
		if params.RequiresLogin != nil {
			entries[i].RequiresLogin = params.RequiresLogin
		}
		if params.ExerciseConfig != nil {
			entries[i].ExerciseConfig = params.ExerciseConfig
		}
		entries[i].UpdatedAt = lesson.UpdatedAt
		updated = true
		break
	}
	if !updated {
		entries = append(entries, ListingEntry{
			ID:            lessonID,
			Title:         lesson.Title,
			Status:        lesson.Status,
			Subject:       lesson.Subject,
			Level:         lesson.Level,
			RequiresLogin: lesson.RequiresLogin,
			UpdatedAt:     lesson.UpdatedAt,
		})
	}
	if err := s.saveIndex(ctx, account, entries); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Delete removes the listing entry and every backend object (including
// version history) under the lesson prefix. Returns false when neither a
// listing entry nor any backend object existed.
func (s *Store) Delete(ctx context.Context, email, lessonID string) (bool, error) {
	account := SanitizeAccount(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadIndex(ctx, account)
	if err != nil {
		return false, err
	}
	remaining := entries[:0:0]
	for _, entry := range entries {
		if entry.ID != lessonID {
			remaining = append(remaining, entry)
		}
	}
	prefix := s.lessonPrefix(account, lessonID)
	keys, err := s.backend.ListKeys(ctx, prefix)
	if err != nil {
		return false, err
	}
	exists := len(keys) > 0
	if len(remaining) == len(entries) && !exists {
		return false, nil
	}
	if len(remaining) != len(entries) {
		if err := s.saveIndex(ctx, account, remaining); err != nil {
			return false, err
		}
	}
	if err := s.backend.DeletePrefix(ctx, prefix); err != nil {
		return false, err
	}
	return true, nil
}

// Duplicate clones a lesson under a new id: "(Copy)"-suffixed title, draft
// status, every section blob copied (default body when the source blob is
// missing), fresh per-section version 1.
func (s *Store) Duplicate(ctx context.Context, email, lessonID string) (*Lesson, error) {
	account := SanitizeAccount(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	source, err := s.getAggregate(ctx, account, lessonID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, nil
	}
	entries, err := s.loadIndex(ctx, account)
	if err != nil {
		return nil, err
	}
	newID, err := s.generateID(entries)
	if err != nil {
		return nil, err
	}
	now := nowISO()

	title := source.Title
	if title == "" {
		title = "Untitled lesson"
	}
	if !strings.HasSuffix(strings.ToLower(title), "(copy)") {
		title = title + " (Copy)"
	}

	sections := source.Sections
	if sections.Len() == 0 {
		sections = NewSectionMap()
		for _, key := range s.tax.Keys() {
			sections.Set(key, sectionFilename(key))
		}
	}
	meta := map[string]SectionMeta{}
	for _, key := range sections.Keys() {
		meta[key] = SectionMeta{Key: key, UpdatedAt: now, Version: 1}
	}

	clone := &Lesson{
		ID:            newID,
		Title:         title,
		Status:        "draft",
		Subject:       source.Subject,
		Level:         source.Level,
		RequiresLogin: source.RequiresLogin,
		Summary:       source.Summary,
		IconURL:       source.IconURL,
		CreatedAt:     now,
		UpdatedAt:     now,
		Sections:      sections,
		SectionsMeta:  meta,
	}
	if err := s.writeAggregate(ctx, account, clone); err != nil {
		return nil, err
	}
	for _, key := range sections.Keys() {
		filename, _ := sections.Get(key)
		srcKey := s.sectionObjectKey(account, lessonID, filename)
		dstKey := s.sectionObjectKey(account, newID, filename)
		if err := s.backend.CopyObject(ctx, srcKey, dstKey, sectionContentType(key)); err != nil {
			if !isAbsent(err) {
				return nil, err
			}
			if err := s.backend.PutObject(ctx, dstKey, sectionDefaultBody(key), sectionContentType(key)); err != nil {
				return nil, err
			}
		}
	}
	entries = append(entries, ListingEntry{
		ID:            newID,
		Title:         title,
		Status:        "draft",
		Subject:       source.Subject,
		Level:         source.Level,
		RequiresLogin: source.RequiresLogin,
		IconURL:       source.IconURL,
		UpdatedAt:     now,
	})
	if err := s.saveIndex(ctx, account, entries); err != nil {
		return nil, err
	}
	return clone, nil
}

// PutIcon stores the icon blob for collaborators (upload validation stays
// with the caller) and returns the object key.
func (s *Store) PutIcon(ctx context.Context, email, lessonID string, payload []byte, contentType, extension string) (string, error) {
	account := SanitizeAccount(email)
	key := s.iconObjectKey(account, lessonID, extension)
	if err := s.backend.PutObject(ctx, key, payload, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// UpdateIconURL writes the icon URL through to the aggregate and the
// listing entry.
func (s *Store) UpdateIconURL(ctx context.Context, email, lessonID, iconURL string) (bool, error) {
	account := SanitizeAccount(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, err := s.getAggregate(ctx, account, lessonID)
	if err != nil {
		return false, err
	}
	if lesson == nil {
		return false, nil
	}
	lesson.IconURL = iconURL
	lesson.UpdatedAt = nowISO()
	if err := s.writeAggregate(ctx, account, lesson); err != nil {
		return false, err
	}
	entries, err := s.loadIndex(ctx, account)
	if err != nil {
		return false, err
	}
	for i := range entries {
		if entries[i].ID == lessonID {
			entries[i].IconURL = iconURL
			entries[i].UpdatedAt = lesson.UpdatedAt
			break
		}
	}
	if err := s.saveIndex(ctx, account, entries); err != nil {
		return false, err
	}
	return true, nil
}
