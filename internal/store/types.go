package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ExerciseConfig is a small map of exercise counts (e.g. per difficulty).
type ExerciseConfig map[string]int

// SectionMeta tracks per-section versioning state inside the aggregate.
type SectionMeta struct {
	Key           string `json:"key"`
	UpdatedAt     string `json:"updatedAt"`
	Version       int    `json:"version"`
	ContentLength int    `json:"contentLength"`
}

// GeneratorBinding describes the exercise-generator code blob that, when
// present, supersedes static exercises content.
type GeneratorBinding struct {
	Filename      string `json:"filename"`
	UpdatedAt     string `json:"updatedAt"`
	ContentLength int    `json:"contentLength"`
}

// Lesson is the aggregate root, stored as one JSON document per lesson.
type Lesson struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Status         string                 `json:"status"`
	Subject        string                 `json:"subject,omitempty"`
	Level          string                 `json:"level,omitempty"`
	RequiresLogin  *bool                  `json:"requires_login,omitempty"`
	Summary        string                 `json:"summary,omitempty"`
	ExerciseConfig ExerciseConfig         `json:"exerciseConfig,omitempty"`
	IconURL        string                 `json:"iconUrl,omitempty"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
	Sections       *SectionMap            `json:"sections"`
	SectionsMeta   map[string]SectionMeta `json:"sectionsMeta"`
	Generator      *GeneratorBinding      `json:"exerciseGenerator,omitempty"`
	ExerciseMode   string                 `json:"exerciseMode,omitempty"`
}

// ListingEntry is the denormalized per-account catalog row kept in the
// listing index.
type ListingEntry struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Status         string         `json:"status"`
	Subject        string         `json:"subject,omitempty"`
	Level          string         `json:"level,omitempty"`
	RequiresLogin  *bool          `json:"requires_login,omitempty"`
	ExerciseConfig ExerciseConfig `json:"exerciseConfig,omitempty"`
	IconURL        string         `json:"iconUrl,omitempty"`
	UpdatedAt      string         `json:"updated_at"`
}

// CatalogEntry is the cross-account projection of a published lesson.
type CatalogEntry struct {
	ListingEntry
	Summary      string            `json:"summary,omitempty"`
	Generator    *GeneratorBinding `json:"exerciseGenerator,omitempty"`
	ExerciseMode string            `json:"exerciseMode,omitempty"`
	Teacher      string            `json:"teacher"`
}

// Section is the content result returned by section reads and writes.
// Exactly one of ContentHTML / Content is populated, depending on whether
// the key belongs to the exercises family.
type Section struct {
	Key         string `json:"key"`
	ContentHTML string `json:"contentHtml,omitempty"`
	Content     []any  `json:"content,omitempty"`
}

// AppendResult reports the outcome of an array-section append.
type AppendResult struct {
	Key      string `json:"key"`
	Appended int    `json:"appended"`
	Total    int    `json:"total"`
}

// Profile is the author profile blob stored alongside the lessons.
type Profile struct {
	Name   string `json:"name"`
	School string `json:"school"`
}

// SectionMap is an insertion-ordered string-to-string mapping. The lesson
// document persists sections as a JSON object whose member order is the
// canonical section order, so a plain Go map cannot represent it.
type SectionMap struct {
	keys   []string
	values map[string]string
}

func NewSectionMap() *SectionMap {
	return &SectionMap{values: make(map[string]string)}
}

func (m *SectionMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *SectionMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *SectionMap) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *SectionMap) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *SectionMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *SectionMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *SectionMap) UnmarshalJSON(data []byte) error {
	m.keys = nil
	m.values = make(map[string]string)
	// Older aggregates may carry a null mapping; treat it as empty.
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sections: expected JSON object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("sections: expected string key, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		m.Set(key, value)
	}
	_, err = dec.Token()
	return err
}
