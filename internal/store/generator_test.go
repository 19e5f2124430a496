package store

import (
	"context"
	"testing"
)

func TestGeneratorReplacesStaticExercises(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t)

	lesson, err := s.Create(ctx, testEmail, CreateParams{Title: "Gen", Status: "draft"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.AppendExercises(ctx, testEmail, lesson.ID, []any{map[string]any{"q": "static"}}, ""); err != nil {
		t.Fatalf("AppendExercises: %v", err)
	}

	meta, err := s.PutExerciseGenerator(ctx, testEmail, lesson.ID, "export function generate() {}")
	if err != nil {
		t.Fatalf("PutExerciseGenerator: %v", err)
	}
	if meta.Filename != "exercise.js" {
		t.Fatalf("generator filename = %q", meta.Filename)
	}
	if meta.ContentLength != len("export function generate() {}") {
		t.Fatalf("generator contentLength = %d", meta.ContentLength)
	}

	current, err := s.Get(ctx, testEmail, lesson.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if current.ExerciseMode != "generator" {
		t.Fatalf("exerciseMode = %q, want generator", current.ExerciseMode)
	}
	if current.Generator == nil {
		t.Fatalf("generator binding missing")
	}
	if filename, _ := current.Sections.Get("exercises"); filename != "exercise.js" {
		t.Fatalf("exercises mapping = %q, want exercise.js", filename)
	}
	exMeta := current.SectionsMeta["exercises"]
	if exMeta.ContentLength != 0 {
		t.Fatalf("exercises contentLength = %d, want 0 in generator mode", exMeta.ContentLength)
	}

	// The static JSON blob is gone; the generator blob is present.
	account := SanitizeAccount(testEmail)
	if exists, _ := backend.StatObject(ctx, s.sectionObjectKey(account, lesson.ID, "exercises.json")); exists {
		t.Fatalf("static exercises blob survived generator write")
	}
	if ct := backend.ContentType(s.sectionObjectKey(account, lesson.ID, "exercise.js")); ct != "application/javascript" {
		t.Fatalf("stored generator content type = %q", ct)
	}
	content, err := s.GetExerciseGenerator(ctx, testEmail, lesson.ID)
	if err != nil {
		t.Fatalf("GetExerciseGenerator: %v", err)
	}
	if string(content.Content) != "export function generate() {}" {
		t.Fatalf("generator content = %q", content.Content)
	}
	if content.ContentType != "application/javascript" {
		t.Fatalf("generator content type = %q", content.ContentType)
	}
}

func TestStaticWriteClearsGenerator(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t)

	lesson, err := s.Create(ctx, testEmail, CreateParams{Title: "Back", Status: "draft"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.PutExerciseGenerator(ctx, testEmail, lesson.ID, "code"); err != nil {
		t.Fatalf("PutExerciseGenerator: %v", err)
	}

	section, err := s.PutSection(ctx, testEmail, lesson.ID, "exercises", `[{"q":"back to static"}]`, false)
	if err != nil {
		t.Fatalf("PutSection: %v", err)
	}
	if section == nil || len(section.Content) != 1 {
		t.Fatalf("section = %+v", section)
	}

	current, err := s.Get(ctx, testEmail, lesson.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if current.Generator != nil {
		t.Fatalf("generator binding survived static write")
	}
	if current.ExerciseMode != "json" {
		t.Fatalf("exerciseMode = %q, want json", current.ExerciseMode)
	}
	if filename, _ := current.Sections.Get("exercises"); filename != "exercises.json" {
		t.Fatalf("exercises mapping = %q, want exercises.json", filename)
	}
	account := SanitizeAccount(testEmail)
	if exists, _ := backend.StatObject(ctx, s.sectionObjectKey(account, lesson.ID, "exercise.js")); exists {
		t.Fatalf("generator blob survived static write")
	}
	raw, err := backend.GetObject(ctx, s.sectionObjectKey(account, lesson.ID, "exercises.json"))
	if err != nil {
		t.Fatalf("static blob missing after write: %v", err)
	}
	if string(raw) != `[{"q":"back to static"}]` {
		t.Fatalf("static blob = %q", raw)
	}

	generator, err := s.GetExerciseGenerator(ctx, testEmail, lesson.ID)
	if err != nil {
		t.Fatalf("GetExerciseGenerator: %v", err)
	}
	if generator != nil {
		t.Fatalf("generator read should be nil after clearing")
	}
}

func TestAppendClearsGenerator(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	lesson, err := s.Create(ctx, testEmail, CreateParams{Title: "AppendBack", Status: "draft"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.PutExerciseGenerator(ctx, testEmail, lesson.ID, "code"); err != nil {
		t.Fatalf("PutExerciseGenerator: %v", err)
	}

	result, err := s.AppendExercises(ctx, testEmail, lesson.ID, []any{map[string]any{"q": "fresh"}}, "")
	if err != nil {
		t.Fatalf("AppendExercises: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("append after generator mode: total = %d, want 1 (fresh array)", result.Total)
	}
	current, err := s.Get(ctx, testEmail, lesson.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if current.Generator != nil || current.ExerciseMode != "json" {
		t.Fatalf("generator not cleared by append: mode=%q binding=%+v", current.ExerciseMode, current.Generator)
	}
}
