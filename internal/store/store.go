// Package store owns the lesson/section data model on top of the flat
// object backend: key layout, per-section versioning, canonical section
// ordering, readiness derivation, and the denormalized listing index.
//
// All mutations are serialized by one store-wide mutex; index and aggregate
// therefore never drift within a single process. Multi-blob mutations are
// not transactional: when the aggregate write fails after a section blob
// was already written, the blob is not rolled back.
package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	pkgerr "github.com/yungbote/lessonforge-backend/internal/pkg/errors"
	"github.com/yungbote/lessonforge-backend/internal/platform/logger"
	"github.com/yungbote/lessonforge-backend/internal/platform/objstore"
)

const contentTypeJSON = "application/json"

type Store struct {
	log     *logger.Logger
	backend objstore.ObjectStore
	prefix  string
	tax     *Taxonomy

	// mu is the single mutation gate; reads of aggregates do not take it.
	mu sync.Mutex
}

func New(log *logger.Logger, backend objstore.ObjectStore, keyPrefix string, tax *Taxonomy) *Store {
	if tax == nil {
		tax = DefaultTaxonomy()
	}
	return &Store{
		log:     log.With("service", "LessonStore"),
		backend: backend,
		prefix:  strings.Trim(keyPrefix, "/"),
		tax:     tax,
	}
}

func (s *Store) Taxonomy() *Taxonomy { return s.tax }

func isAbsent(err error) bool {
	return errors.Is(err, pkgerr.ErrNotFound)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

type indexDocument struct {
	Lessons []ListingEntry `json:"lessons"`
}

func (s *Store) loadIndex(ctx context.Context, account string) ([]ListingEntry, error) {
	raw, err := s.backend.GetObject(ctx, s.indexKey(account))
	if err != nil {
		if errors.Is(err, pkgerr.ErrNotFound) {
			return []ListingEntry{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []ListingEntry{}, nil
	}
	var doc indexDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode listing index for %q: %w", account, err)
	}
	if doc.Lessons == nil {
		doc.Lessons = []ListingEntry{}
	}
	return doc.Lessons, nil
}

func (s *Store) saveIndex(ctx context.Context, account string, entries []ListingEntry) error {
	payload, err := marshalIndent(indexDocument{Lessons: entries})
	if err != nil {
		return fmt.Errorf("encode listing index for %q: %w", account, err)
	}
	return s.backend.PutObject(ctx, s.indexKey(account), payload, contentTypeJSON)
}

// generateID allocates a fresh 6-digit id unique against the current
// listing, retrying up to 100 times.
func (s *Store) generateID(entries []ListingEntry) (string, error) {
	existing := make(map[string]bool, len(entries))
	for _, entry := range entries {
		existing[entry.ID] = true
	}
	for i := 0; i < 100; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
		if err != nil {
			return "", fmt.Errorf("generate lesson id: %w", err)
		}
		candidate := fmt.Sprintf("%06d", n.Int64())
		if !existing[candidate] {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unable to generate unique lesson id")
}

// orderSections rewrites the mapping into canonical order: taxonomy
// declaration order, ascending instance index within a base, then any
// unrecognized keys in their original relative order.
func (s *Store) orderSections(sections *SectionMap) *SectionMap {
	if sections == nil {
		return NewSectionMap()
	}
	ordered := NewSectionMap()
	for _, base := range s.tax.keys {
		matched := []string{}
		for _, key := range sections.Keys() {
			if BaseKey(key) == base {
				matched = append(matched, key)
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return InstanceIndex(matched[i]) < InstanceIndex(matched[j])
		})
		for _, key := range matched {
			value, _ := sections.Get(key)
			ordered.Set(key, value)
		}
	}
	for _, key := range sections.Keys() {
		if _, ok := ordered.Get(key); !ok {
			value, _ := sections.Get(key)
			ordered.Set(key, value)
		}
	}
	return ordered
}

// statusIsAuthorControlled reports whether readiness derivation must leave
// the status untouched.
func statusIsAuthorControlled(status string) bool {
	normalized := strings.ToLower(strings.TrimSpace(status))
	return strings.Contains(normalized, "publish") || strings.Contains(normalized, "active")
}

// syncReadyStatus recomputes ready/draft per section completeness and
// propagates the outcome into the listing index. Caller holds the lock and
// is responsible for writing the aggregate afterwards.
func (s *Store) syncReadyStatus(ctx context.Context, account string, lesson *Lesson) error {
	if !statusIsAuthorControlled(lesson.Status) {
		isReady := lesson.Sections.Len() > 0
		for _, key := range lesson.Sections.Keys() {
			if s.tax.IsHidden(BaseKey(key)) {
				continue
			}
			meta, ok := lesson.SectionsMeta[key]
			if !ok || meta.ContentLength <= 0 {
				isReady = false
				break
			}
		}
		next := "draft"
		if isReady {
			next = "ready"
		}
		if !strings.EqualFold(strings.TrimSpace(lesson.Status), next) {
			lesson.Status = next
		}
	}
	entries, err := s.loadIndex(ctx, account)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == lesson.ID {
			entries[i].Status = lesson.Status
			entries[i].UpdatedAt = lesson.UpdatedAt
			break
		}
	}
	return s.saveIndex(ctx, account, entries)
}

func (s *Store) writeAggregate(ctx context.Context, account string, lesson *Lesson) error {
	payload, err := marshalIndent(lesson)
	if err != nil {
		return fmt.Errorf("encode lesson %q: %w", lesson.ID, err)
	}
	return s.backend.PutObject(ctx, s.lessonKey(account, lesson.ID), payload, contentTypeJSON)
}

func (s *Store) getAggregate(ctx context.Context, account, lessonID string) (*Lesson, error) {
	raw, err := s.backend.GetObject(ctx, s.lessonKey(account, lessonID))
	if err != nil {
		if errors.Is(err, pkgerr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var lesson Lesson
	if err := json.Unmarshal(raw, &lesson); err != nil {
		return nil, fmt.Errorf("decode lesson %q: %w", lessonID, err)
	}
	if lesson.Sections == nil {
		lesson.Sections = NewSectionMap()
	}
	if lesson.SectionsMeta == nil {
		lesson.SectionsMeta = map[string]SectionMeta{}
	}
	return &lesson, nil
}
