package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

const catalogScanConcurrency = 8

// StatusIsPublished reports whether an author-set status marks a lesson
// publicly visible.
func StatusIsPublished(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == "published"
}

// ListAccounts returns every account partition token currently present
// under the key prefix.
func (s *Store) ListAccounts(ctx context.Context) ([]string, error) {
	return s.backend.ListCommonPrefixes(ctx, s.prefix+"/")
}

// ListPublishedCatalog scans every account and projects lessons whose
// author-set status is "published" into the cross-account catalog, newest
// first. Accounts are scanned in parallel with bounded fan-out.
func (s *Store) ListPublishedCatalog(ctx context.Context) ([]CatalogEntry, error) {
	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	entries := []CatalogEntry{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(catalogScanConcurrency)
	for _, account := range accounts {
		g.Go(func() error {
			listing, err := s.loadIndex(gctx, account)
			if err != nil {
				return err
			}
			for _, item := range listing {
				if !StatusIsPublished(item.Status) {
					continue
				}
				entry := CatalogEntry{ListingEntry: item, Teacher: account}
				if id := strings.TrimSpace(item.ID); id != "" {
					full, err := s.getAggregate(gctx, account, id)
					if err != nil {
						return err
					}
					if full != nil {
						entry.Summary = full.Summary
						entry.Subject = full.Subject
						entry.Level = full.Level
						entry.RequiresLogin = full.RequiresLogin
						entry.ExerciseConfig = full.ExerciseConfig
						entry.Generator = full.Generator
						entry.ExerciseMode = full.ExerciseMode
					}
				}
				mu.Lock()
				entries = append(entries, entry)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt > entries[j].UpdatedAt
	})
	return entries, nil
}
