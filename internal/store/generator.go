package store

import (
	"context"
)

const generatorFilename = "exercise.js"
const generatorContentType = "application/javascript"

// GeneratorContent is a generator-code read result.
type GeneratorContent struct {
	Content     []byte           `json:"content"`
	ContentType string           `json:"contentType"`
	Meta        GeneratorBinding `json:"meta"`
}

// clearGenerator deletes the generator code blob and unbinds it from the
// aggregate. Static exercises content and generator code are mutually
// exclusive; nextMode records which representation now holds. Caller
// holds the lock and writes the aggregate afterwards.
func (s *Store) clearGenerator(ctx context.Context, account, lessonID string, lesson *Lesson, nextMode string) error {
	if lesson.Generator != nil {
		filename := lesson.Generator.Filename
		if filename == "" {
			filename = generatorFilename
		}
		if err := s.backend.DeleteObject(ctx, s.sectionObjectKey(account, lessonID, filename)); err != nil {
			return err
		}
	}
	lesson.Generator = nil
	if nextMode != "" {
		lesson.ExerciseMode = nextMode
	}
	return nil
}

// PutExerciseGenerator stores generator code, points the exercises section
// at it, deletes any static exercises content (bumping that section's
// version with contentLength 0), and records the binding.
func (s *Store) PutExerciseGenerator(ctx context.Context, email, lessonID, code string) (*GeneratorBinding, error) {
	account := SanitizeAccount(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	lesson, err := s.getAggregate(ctx, account, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	if lesson.Generator != nil && lesson.Generator.Filename != "" && lesson.Generator.Filename != generatorFilename {
		if err := s.clearGenerator(ctx, account, lessonID, lesson, ""); err != nil {
			return nil, err
		}
	}
	objectKey := s.sectionObjectKey(account, lessonID, generatorFilename)
	if err := s.backend.PutObject(ctx, objectKey, []byte(code), generatorContentType); err != nil {
		return nil, err
	}

	now := nowISO()
	// Repoint the exercises mapping at the generator file and drop the
	// static JSON blob it previously addressed.
	staticFilename, hadStatic := lesson.Sections.Get(exercisesBaseKey)
	lesson.Sections.Set(exercisesBaseKey, generatorFilename)
	if hadStatic && staticFilename != "" && staticFilename != generatorFilename {
		if err := s.backend.DeleteObject(ctx, s.sectionObjectKey(account, lessonID, staticFilename)); err != nil {
			return nil, err
		}
	}
	prev := lesson.SectionsMeta[exercisesBaseKey]
	lesson.SectionsMeta[exercisesBaseKey] = SectionMeta{
		Key:           exercisesBaseKey,
		UpdatedAt:     now,
		Version:       prev.Version + 1,
		ContentLength: 0,
	}
	meta := &GeneratorBinding{
		Filename:      generatorFilename,
		UpdatedAt:     now,
		ContentLength: len(code),
	}
	lesson.Generator = meta
	lesson.ExerciseMode = "generator"
	lesson.UpdatedAt = now
	if err := s.writeAggregate(ctx, account, lesson); err != nil {
		return nil, err
	}

	entries, err := s.loadIndex(ctx, account)
	if err != nil {
		return nil, err
	}
	updated := false
	for i := range entries {
		if entries[i].ID == lessonID {
			entries[i].UpdatedAt = now
			updated = true
			break
		}
	}
	if !updated {
		entries = append(entries, ListingEntry{
			ID:            lessonID,
			Title:         lesson.Title,
			Status:        lesson.Status,
			Subject:       lesson.Subject,
			Level:         lesson.Level,
			RequiresLogin: lesson.RequiresLogin,
			UpdatedAt:     now,
		})
	}
	if err := s.saveIndex(ctx, account, entries); err != nil {
		return nil, err
	}
	return meta, nil
}

// GetExerciseGeneratorMeta returns the generator binding, or (nil, nil)
// when the lesson has none.
func (s *Store) GetExerciseGeneratorMeta(ctx context.Context, email, lessonID string) (*GeneratorBinding, error) {
	return s.GetExerciseGeneratorMetaByAccount(ctx, SanitizeAccount(email), lessonID)
}

func (s *Store) GetExerciseGeneratorMetaByAccount(ctx context.Context, account, lessonID string) (*GeneratorBinding, error) {
	lesson, err := s.getAggregate(ctx, account, lessonID)
	if err != nil || lesson == nil {
		return nil, err
	}
	return lesson.Generator, nil
}

// GetExerciseGenerator reads the generator code blob plus its binding.
func (s *Store) GetExerciseGenerator(ctx context.Context, email, lessonID string) (*GeneratorContent, error) {
	return s.GetExerciseGeneratorByAccount(ctx, SanitizeAccount(email), lessonID)
}

func (s *Store) GetExerciseGeneratorByAccount(ctx context.Context, account, lessonID string) (*GeneratorContent, error) {
	meta, err := s.GetExerciseGeneratorMetaByAccount(ctx, account, lessonID)
	if err != nil || meta == nil {
		return nil, err
	}
	filename := meta.Filename
	if filename == "" {
		filename = generatorFilename
	}
	raw, err := s.backend.GetObject(ctx, s.sectionObjectKey(account, lessonID, filename))
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	return &GeneratorContent{Content: raw, ContentType: generatorContentType, Meta: *meta}, nil
}
