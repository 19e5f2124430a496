package store

import (
	"context"
	"strings"
	"testing"
)

const testEmail = "teacher@example.com"

func TestCreateInitializesEverySection(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t)

	lesson, err := s.Create(ctx, testEmail, CreateParams{Title: "Fractions", Status: "draft"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(lesson.ID) != 6 {
		t.Fatalf("lesson id %q is not 6 digits", lesson.ID)
	}
	wantKeys := DefaultTaxonomy().Keys()
	gotKeys := lesson.Sections.Keys()
	if len(gotKeys) != len(wantKeys) {
		t.Fatalf("sections = %v, want %v", gotKeys, wantKeys)
	}
	for i, key := range wantKeys {
		if gotKeys[i] != key {
			t.Fatalf("sections = %v, want %v", gotKeys, wantKeys)
		}
		meta := lesson.SectionsMeta[key]
		if meta.Version != 1 || meta.ContentLength != 0 {
			t.Fatalf("meta for %q = %+v, want version 1 length 0", key, meta)
		}
	}

	// Every section blob exists with its default body.
	account := SanitizeAccount(testEmail)
	raw, err := backend.GetObject(ctx, s.sectionObjectKey(account, lesson.ID, "exercises.json"))
	if err != nil {
		t.Fatalf("exercises blob missing: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("exercises default body = %q, want []", raw)
	}
	if _, err := backend.GetObject(ctx, s.sectionObjectKey(account, lesson.ID, "concepts.html")); err != nil {
		t.Fatalf("concepts blob missing: %v", err)
	}

	entries, err := s.List(ctx, testEmail)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != lesson.ID || entries[0].Title != "Fractions" {
		t.Fatalf("listing = %+v", entries)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	lesson, err := s.Create(ctx, testEmail, CreateParams{Title: "Before", Status: "draft", Subject: "math"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "After"
	updated, err := s.Update(ctx, testEmail, lesson.ID, UpdateParams{Title: &title})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "After" || updated.Subject != "math" {
		t.Fatalf("partial update touched other fields: %+v", updated)
	}
	if updated.UpdatedAt == lesson.UpdatedAt && updated.UpdatedAt == "" {
		t.Fatalf("updatedAt not set")
	}

	entries, err := s.List(ctx, testEmail)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries[0].Title != "After" {
		t.Fatalf("listing title not synced: %+v", entries[0])
	}

	missing, err := s.Update(ctx, testEmail, "999999", UpdateParams{Title: &title})
	if err != nil {
		t.Fatalf("Update absent: %v", err)
	}
	if missing != nil {
		t.Fatalf("updating an absent lesson should return nil")
	}
}

func TestDeleteRemovesEverything(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t)

	lesson, err := s.Create(ctx, testEmail, CreateParams{Title: "Doomed", Status: "draft"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	deleted, err := s.Delete(ctx, testEmail, lesson.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatalf("Delete returned false for an existing lesson")
	}
	account := SanitizeAccount(testEmail)
	keys, err := backend.ListKeys(ctx, s.lessonPrefix(account, lesson.ID))
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("objects survived delete: %v", keys)
	}
	entries, err := s.List(ctx, testEmail)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("listing survived delete: %+v", entries)
	}

	again, err := s.Delete(ctx, testEmail, lesson.ID)
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if again {
		t.Fatalf("deleting an absent lesson should return false")
	}
}

func TestDuplicate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	lesson, err := s.Create(ctx, testEmail, CreateParams{Title: "Original", Status: "published"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.PutSection(ctx, testEmail, lesson.ID, "concepts", "<p>theory</p>", false); err != nil {
		t.Fatalf("PutSection: %v", err)
	}

	clone, err := s.Duplicate(ctx, testEmail, lesson.ID)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if clone.ID == lesson.ID {
		t.Fatalf("clone reused the source id")
	}
	if clone.Title != "Original (Copy)" {
		t.Fatalf("clone title = %q", clone.Title)
	}
	if clone.Status != "draft" {
		t.Fatalf("clone status = %q, want draft", clone.Status)
	}
	for key, meta := range clone.SectionsMeta {
		if meta.Version != 1 {
			t.Fatalf("clone meta for %q = %+v, want version 1", key, meta)
		}
	}
	section, err := s.GetSection(ctx, testEmail, clone.ID, "concepts")
	if err != nil {
		t.Fatalf("GetSection on clone: %v", err)
	}
	if section == nil || section.ContentHTML != "<p>theory</p>" {
		t.Fatalf("clone content = %+v", section)
	}

	// Duplicating the copy does not stack suffixes.
	second, err := s.Duplicate(ctx, testEmail, clone.ID)
	if err != nil {
		t.Fatalf("second Duplicate: %v", err)
	}
	if !strings.HasSuffix(second.Title, "(Copy)") || strings.Count(second.Title, "(Copy)") != 1 {
		t.Fatalf("second clone title = %q", second.Title)
	}

	missing, err := s.Duplicate(ctx, testEmail, "999999")
	if err != nil {
		t.Fatalf("Duplicate absent: %v", err)
	}
	if missing != nil {
		t.Fatalf("duplicating an absent lesson should return nil")
	}
}

func TestListByStatus(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, err := s.Create(ctx, testEmail, CreateParams{Title: "A", Status: "draft"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, testEmail, CreateParams{Title: "B", Status: "published"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	published, err := s.ListByStatus(ctx, testEmail, "published")
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(published) != 1 || published[0].Title != "B" {
		t.Fatalf("published = %+v", published)
	}
}
