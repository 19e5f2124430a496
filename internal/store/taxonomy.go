package store

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Taxonomy is the configured set of section base keys, in declaration
// order. Multi-instance bases may appear more than once per lesson as
// "base-N" keys; hidden bases are ignored by readiness derivation.
type Taxonomy struct {
	keys         []string
	descriptions map[string]string
	multi        map[string]bool
	hidden       map[string]bool
}

const exercisesBaseKey = "exercises"

func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		keys:         []string{"assessment", "concepts", "background", "lesson", "exercises"},
		descriptions: map[string]string{},
		multi:        map[string]bool{"lesson": true, "exercises": true},
		hidden:       map[string]bool{"samples": true, "references": true},
	}
}

type taxonomyFile struct {
	Sections     []string          `yaml:"sections"`
	Multi        []string          `yaml:"multi"`
	Hidden       []string          `yaml:"hidden"`
	Descriptions map[string]string `yaml:"descriptions"`
}

// LoadTaxonomy reads the section taxonomy from a YAML file. A missing or
// unreadable file falls back to the default taxonomy.
func LoadTaxonomy(path string) *Taxonomy {
	if strings.TrimSpace(path) == "" {
		return DefaultTaxonomy()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultTaxonomy()
	}
	var parsed taxonomyFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return DefaultTaxonomy()
	}
	tax := DefaultTaxonomy()
	keys := make([]string, 0, len(parsed.Sections))
	for _, item := range parsed.Sections {
		cleaned := strings.ToLower(strings.TrimSpace(item))
		if cleaned != "" {
			keys = append(keys, cleaned)
		}
	}
	if len(keys) > 0 {
		tax.keys = keys
	}
	if len(parsed.Multi) > 0 {
		tax.multi = map[string]bool{}
		for _, item := range parsed.Multi {
			cleaned := strings.ToLower(strings.TrimSpace(item))
			if cleaned != "" {
				tax.multi[cleaned] = true
			}
		}
	}
	if len(parsed.Hidden) > 0 {
		tax.hidden = map[string]bool{}
		for _, item := range parsed.Hidden {
			cleaned := strings.ToLower(strings.TrimSpace(item))
			if cleaned != "" {
				tax.hidden[cleaned] = true
			}
		}
	}
	for key, value := range parsed.Descriptions {
		cleanedKey := strings.ToLower(strings.TrimSpace(key))
		cleanedVal := strings.TrimSpace(value)
		if cleanedKey != "" && cleanedVal != "" {
			tax.descriptions[cleanedKey] = cleanedVal
		}
	}
	return tax
}

func (t *Taxonomy) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

func (t *Taxonomy) Descriptions() map[string]string {
	out := make(map[string]string, len(t.descriptions))
	for k, v := range t.descriptions {
		out[k] = v
	}
	return out
}

func (t *Taxonomy) Contains(baseKey string) bool {
	for _, key := range t.keys {
		if key == baseKey {
			return true
		}
	}
	return false
}

func (t *Taxonomy) IsMulti(baseKey string) bool  { return t.multi[baseKey] }
func (t *Taxonomy) IsHidden(baseKey string) bool { return t.hidden[baseKey] }

// BaseKey splits a section key on its last hyphen: a numeric suffix is an
// instance index, otherwise the whole key is the base.
func BaseKey(sectionKey string) string {
	if i := strings.LastIndex(sectionKey, "-"); i >= 0 {
		if _, err := strconv.Atoi(sectionKey[i+1:]); err == nil && sectionKey[i+1:] != "" {
			return sectionKey[:i]
		}
	}
	return sectionKey
}

// InstanceIndex reports the instance ordinal of a section key; a bare base
// key is index 1.
func InstanceIndex(sectionKey string) int {
	if i := strings.LastIndex(sectionKey, "-"); i >= 0 {
		if n, err := strconv.Atoi(sectionKey[i+1:]); err == nil && sectionKey[i+1:] != "" {
			return n
		}
	}
	return 1
}

// IsValidSectionKey holds iff the base is a taxonomy member and the key is
// either the bare base, or an instance with index > 1 on a multi base.
func (t *Taxonomy) IsValidSectionKey(sectionKey string) bool {
	base := BaseKey(sectionKey)
	if !t.Contains(base) {
		return false
	}
	if base == sectionKey {
		return true
	}
	if !t.IsMulti(base) {
		return false
	}
	return InstanceIndex(sectionKey) > 1
}

func isExercisesKey(sectionKey string) bool {
	return BaseKey(sectionKey) == exercisesBaseKey
}

func sectionFilename(sectionKey string) string {
	if isExercisesKey(sectionKey) {
		return sectionKey + ".json"
	}
	return sectionKey + ".html"
}

func sectionContentType(sectionKey string) string {
	if isExercisesKey(sectionKey) {
		return "application/json"
	}
	return "text/html"
}

func sectionDefaultBody(sectionKey string) []byte {
	if isExercisesKey(sectionKey) {
		return []byte("[]")
	}
	return []byte("")
}
