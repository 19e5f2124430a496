package store

import (
	"context"
	"testing"
)

func TestListPublishedCatalog(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	published, err := s.Create(ctx, "alice@example.com", CreateParams{Title: "Shared", Status: "published", Summary: "A shared lesson"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "alice@example.com", CreateParams{Title: "Private", Status: "draft"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "bob@example.com", CreateParams{Title: "Also shared", Status: "Published "}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	entries, err := s.ListPublishedCatalog(ctx)
	if err != nil {
		t.Fatalf("ListPublishedCatalog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("catalog has %d entries, want 2: %+v", len(entries), entries)
	}
	byID := map[string]CatalogEntry{}
	for _, entry := range entries {
		byID[entry.ID] = entry
	}
	shared, ok := byID[published.ID]
	if !ok {
		t.Fatalf("published lesson missing from catalog: %+v", entries)
	}
	if shared.Teacher != "alice_at_example_dot_com" {
		t.Fatalf("teacher = %q", shared.Teacher)
	}
	if shared.Summary != "A shared lesson" {
		t.Fatalf("summary not enriched from aggregate: %+v", shared)
	}
}

func TestListAccounts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, err := s.Create(ctx, "alice@example.com", CreateParams{Title: "A", Status: "draft"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "bob@example.com", CreateParams{Title: "B", Status: "draft"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("accounts = %v", accounts)
	}
}
