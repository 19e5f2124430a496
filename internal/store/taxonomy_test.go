package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBaseKeyAndInstanceIndex(t *testing.T) {
	cases := []struct {
		key   string
		base  string
		index int
	}{
		{"lesson", "lesson", 1},
		{"lesson-2", "lesson", 2},
		{"lesson-10", "lesson", 10},
		{"exercises-3", "exercises", 3},
		{"warm-up", "warm-up", 1},
		{"warm-up-2", "warm-up", 2},
	}
	for _, tc := range cases {
		if got := BaseKey(tc.key); got != tc.base {
			t.Fatalf("BaseKey(%q) = %q, want %q", tc.key, got, tc.base)
		}
		if got := InstanceIndex(tc.key); got != tc.index {
			t.Fatalf("InstanceIndex(%q) = %d, want %d", tc.key, got, tc.index)
		}
	}
}

func TestIsValidSectionKey(t *testing.T) {
	tax := DefaultTaxonomy()
	valid := []string{"assessment", "concepts", "lesson", "lesson-2", "exercises", "exercises-7"}
	for _, key := range valid {
		if !tax.IsValidSectionKey(key) {
			t.Fatalf("%q should be valid", key)
		}
	}
	invalid := []string{"", "unknown", "concepts-2", "assessment-3", "lesson-0"}
	for _, key := range invalid {
		if tax.IsValidSectionKey(key) {
			t.Fatalf("%q should be invalid", key)
		}
	}
}

func TestSectionFileShapes(t *testing.T) {
	if got := sectionFilename("concepts"); got != "concepts.html" {
		t.Fatalf("sectionFilename(concepts) = %q", got)
	}
	if got := sectionFilename("exercises-2"); got != "exercises-2.json" {
		t.Fatalf("sectionFilename(exercises-2) = %q", got)
	}
	if got := sectionContentType("exercises"); got != "application/json" {
		t.Fatalf("sectionContentType(exercises) = %q", got)
	}
	if got := string(sectionDefaultBody("exercises")); got != "[]" {
		t.Fatalf("sectionDefaultBody(exercises) = %q", got)
	}
	if got := string(sectionDefaultBody("lesson")); got != "" {
		t.Fatalf("sectionDefaultBody(lesson) = %q", got)
	}
}

func TestLoadTaxonomyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.yaml")
	payload := []byte(`
sections: [intro, drills, review]
multi: [drills]
hidden: [review]
descriptions:
  intro: "Opening material"
`)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write taxonomy file: %v", err)
	}

	tax := LoadTaxonomy(path)
	keys := tax.Keys()
	if len(keys) != 3 || keys[0] != "intro" || keys[1] != "drills" || keys[2] != "review" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if !tax.IsMulti("drills") || tax.IsMulti("intro") {
		t.Fatalf("multi flags wrong")
	}
	if !tax.IsHidden("review") {
		t.Fatalf("hidden flags wrong")
	}
	if tax.Descriptions()["intro"] != "Opening material" {
		t.Fatalf("descriptions wrong: %v", tax.Descriptions())
	}
}

func TestLoadTaxonomyFallsBack(t *testing.T) {
	tax := LoadTaxonomy("")
	if len(tax.Keys()) == 0 {
		t.Fatalf("empty path should fall back to default taxonomy")
	}
	tax = LoadTaxonomy(filepath.Join(t.TempDir(), "missing.yaml"))
	if len(tax.Keys()) == 0 {
		t.Fatalf("missing file should fall back to default taxonomy")
	}
}
