package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgerr "github.com/yungbote/lessonforge-backend/internal/pkg/errors"
)

// GetSectionsIndex returns the lesson's section-key-to-filename mapping in
// canonical order, or nil when the lesson is absent.
func (s *Store) GetSectionsIndex(ctx context.Context, email, lessonID string) (*SectionMap, error) {
	lesson, err := s.Get(ctx, email, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	return lesson.Sections, nil
}

func sectionResult(sectionKey, content string) (*Section, error) {
	if isExercisesKey(sectionKey) {
		items := []any{}
		if strings.TrimSpace(content) != "" {
			if err := json.Unmarshal([]byte(content), &items); err != nil {
				return nil, fmt.Errorf("decode exercises payload for %q: %w", sectionKey, err)
			}
		}
		return &Section{Key: sectionKey, Content: items}, nil
	}
	return &Section{Key: sectionKey, ContentHTML: content}, nil
}

// GetSection reads a section's content blob; (nil, nil) when the lesson,
// the mapping entry, or the blob is absent.
func (s *Store) GetSection(ctx context.Context, email, lessonID, sectionKey string) (*Section, error) {
	return s.GetSectionByAccount(ctx, SanitizeAccount(email), lessonID, sectionKey)
}

func (s *Store) GetSectionByAccount(ctx context.Context, account, lessonID, sectionKey string) (*Section, error) {
	lesson, err := s.getAggregate(ctx, account, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	filename, ok := lesson.Sections.Get(sectionKey)
	if !ok || filename == "" {
		return nil, nil
	}
	if isExercisesKey(sectionKey) && filename == generatorFilename {
		// Generator mode: there is no static item array to return.
		return &Section{Key: sectionKey, Content: []any{}}, nil
	}
	raw, err := s.backend.GetObject(ctx, s.sectionObjectKey(account, lessonID, filename))
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	return sectionResult(sectionKey, string(raw))
}

// GetSectionMeta returns the version/length metadata for a section, or
// (nil, nil) when the lesson or the meta entry is absent.
func (s *Store) GetSectionMeta(ctx context.Context, email, lessonID, sectionKey string) (*SectionMeta, error) {
	lesson, err := s.Get(ctx, email, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	meta, ok := lesson.SectionsMeta[sectionKey]
	if !ok {
		return nil, nil
	}
	return &meta, nil
}

// PutSection writes section content. Without allowCreate the target blob
// must already exist; presence is probed against the backend, not trusted
// from the aggregate's mapping. Every successful write bumps the section
// version, recomputes contentLength, re-derives ordering and readiness,
// and rewrites the aggregate.
func (s *Store) PutSection(ctx context.Context, email, lessonID, sectionKey, content string, allowCreate bool) (*Section, error) {
	account := SanitizeAccount(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, err := s.getAggregate(ctx, account, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	filename, ok := lesson.Sections.Get(sectionKey)
	if !ok || filename == "" {
		if !allowCreate {
			return nil, nil
		}
		base := BaseKey(sectionKey)
		if !s.tax.Contains(base) {
			return nil, nil
		}
		if base != sectionKey && !s.tax.IsMulti(base) {
			return nil, nil
		}
		filename = sectionFilename(sectionKey)
		lesson.Sections.Set(sectionKey, filename)
		lesson.Sections = s.orderSections(lesson.Sections)
	}
	objectKey := s.sectionObjectKey(account, lessonID, filename)
	exists, err := s.backend.StatObject(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	if !exists && !allowCreate {
		return nil, nil
	}
	if isExercisesKey(sectionKey) && filename == generatorFilename {
		// Static content replaces generator mode; repoint at the JSON
		// blob before writing so clearGenerator doesn't delete it.
		filename = sectionFilename(sectionKey)
		lesson.Sections.Set(sectionKey, filename)
		objectKey = s.sectionObjectKey(account, lessonID, filename)
	}
	if err := s.backend.PutObject(ctx, objectKey, []byte(content), sectionContentType(sectionKey)); err != nil {
		return nil, err
	}

	now := nowISO()
	prev := lesson.SectionsMeta[sectionKey]
	lesson.SectionsMeta[sectionKey] = SectionMeta{
		Key:           sectionKey,
		UpdatedAt:     now,
		Version:       prev.Version + 1,
		ContentLength: len(strings.TrimSpace(content)),
	}
	lesson.UpdatedAt = now
	if isExercisesKey(sectionKey) {
		if err := s.clearGenerator(ctx, account, lessonID, lesson, "json"); err != nil {
			return nil, err
		}
	}
	lesson.Sections = s.orderSections(lesson.Sections)
	if err := s.syncReadyStatus(ctx, account, lesson); err != nil {
		return nil, err
	}
	if err := s.writeAggregate(ctx, account, lesson); err != nil {
		return nil, err
	}
	return sectionResult(sectionKey, content)
}

// CreateSectionInstance adds the next free instance of a multi-instance
// base key ("lesson" exists => creates "lesson-2", then "lesson-3").
// Returns (nil, nil) for unknown/non-multi bases or absent lessons.
func (s *Store) CreateSectionInstance(ctx context.Context, email, lessonID, baseKey, content string) (*Section, error) {
	account := SanitizeAccount(email)
	if !s.tax.Contains(baseKey) || !s.tax.IsMulti(baseKey) {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, err := s.getAggregate(ctx, account, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	nextIndex := 1
	for _, key := range lesson.Sections.Keys() {
		if BaseKey(key) != baseKey {
			continue
		}
		if idx := InstanceIndex(key); idx >= nextIndex {
			nextIndex = idx + 1
		}
	}
	newKey := baseKey
	if nextIndex > 1 {
		newKey = fmt.Sprintf("%s-%d", baseKey, nextIndex)
	}
	if _, exists := lesson.Sections.Get(newKey); exists {
		return nil, nil
	}
	filename := sectionFilename(newKey)
	lesson.Sections.Set(newKey, filename)
	lesson.Sections = s.orderSections(lesson.Sections)

	objectKey := s.sectionObjectKey(account, lessonID, filename)
	if err := s.backend.PutObject(ctx, objectKey, []byte(content), sectionContentType(newKey)); err != nil {
		return nil, err
	}
	now := nowISO()
	lesson.SectionsMeta[newKey] = SectionMeta{
		Key:           newKey,
		UpdatedAt:     now,
		Version:       1,
		ContentLength: len(strings.TrimSpace(content)),
	}
	lesson.UpdatedAt = now
	if baseKey == exercisesBaseKey {
		if err := s.clearGenerator(ctx, account, lessonID, lesson, "json"); err != nil {
			return nil, err
		}
	}
	lesson.Sections = s.orderSections(lesson.Sections)
	if err := s.syncReadyStatus(ctx, account, lesson); err != nil {
		return nil, err
	}
	if err := s.writeAggregate(ctx, account, lesson); err != nil {
		return nil, err
	}
	return sectionResult(newKey, content)
}

// AppendExercises concatenates items onto an exercises-family array
// section. An absent blob reads as an empty array; a stored payload that
// is not a JSON array is a validation error.
func (s *Store) AppendExercises(ctx context.Context, email, lessonID string, items []any, sectionKey string) (*AppendResult, error) {
	account := SanitizeAccount(email)
	if sectionKey == "" {
		sectionKey = exercisesBaseKey
	}
	if !isExercisesKey(sectionKey) {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, err := s.getAggregate(ctx, account, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	filename, ok := lesson.Sections.Get(sectionKey)
	if !ok || filename == "" {
		return nil, nil
	}
	if filename == generatorFilename {
		// Appending static items replaces generator mode; the generator
		// blob is not a JSON array, so start over from the static blob.
		filename = sectionFilename(sectionKey)
		lesson.Sections.Set(sectionKey, filename)
	}
	objectKey := s.sectionObjectKey(account, lessonID, filename)
	raw, err := s.backend.GetObject(ctx, objectKey)
	if err != nil {
		if !isAbsent(err) {
			return nil, err
		}
		raw = nil
	}
	existing := []any{}
	if strings.TrimSpace(string(raw)) != "" {
		var payload any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode exercises payload for %q: %w", sectionKey, err)
		}
		arr, ok := payload.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: exercises payload must be a JSON array", pkgerr.ErrInvalidArgument)
		}
		existing = arr
	}
	existing = append(existing, items...)
	updated, err := marshalIndent(existing)
	if err != nil {
		return nil, fmt.Errorf("encode exercises payload for %q: %w", sectionKey, err)
	}
	if err := s.backend.PutObject(ctx, objectKey, updated, sectionContentType(sectionKey)); err != nil {
		return nil, err
	}
	now := nowISO()
	prev := lesson.SectionsMeta[sectionKey]
	lesson.SectionsMeta[sectionKey] = SectionMeta{
		Key:           sectionKey,
		UpdatedAt:     now,
		Version:       prev.Version + 1,
		ContentLength: len(strings.TrimSpace(string(updated))),
	}
	lesson.UpdatedAt = now
	if err := s.clearGenerator(ctx, account, lessonID, lesson, "json"); err != nil {
		return nil, err
	}
	if err := s.syncReadyStatus(ctx, account, lesson); err != nil {
		return nil, err
	}
	if err := s.writeAggregate(ctx, account, lesson); err != nil {
		return nil, err
	}
	return &AppendResult{Key: sectionKey, Appended: len(items), Total: len(existing)}, nil
}

// DeleteSection removes a section's blob, mapping entry, and metadata,
// then re-derives ordering and readiness.
func (s *Store) DeleteSection(ctx context.Context, email, lessonID, sectionKey string) (bool, error) {
	account := SanitizeAccount(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, err := s.getAggregate(ctx, account, lessonID)
	if err != nil || lesson == nil {
		return false, err
	}
	filename, ok := lesson.Sections.Get(sectionKey)
	if !ok || filename == "" {
		return false, nil
	}
	if err := s.backend.DeleteObject(ctx, s.sectionObjectKey(account, lessonID, filename)); err != nil {
		return false, err
	}
	lesson.Sections.Delete(sectionKey)
	lesson.Sections = s.orderSections(lesson.Sections)
	delete(lesson.SectionsMeta, sectionKey)
	lesson.UpdatedAt = nowISO()
	if err := s.syncReadyStatus(ctx, account, lesson); err != nil {
		return false, err
	}
	if err := s.writeAggregate(ctx, account, lesson); err != nil {
		return false, err
	}
	return true, nil
}
