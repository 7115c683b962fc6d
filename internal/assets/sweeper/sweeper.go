package sweeper

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// PrefixLister lists the artifact path prefixes present in the blob store.
type PrefixLister interface {
	ListPrefixes(ctx context.Context) ([]string, error)
}

// PathSource lists the blob paths referenced by project rows.
type PathSource interface {
	AllBlobPaths(ctx context.Context) ([]string, error)
}

// Sweeper detects orphaned asset sets: prefixes written by a publish whose
// metadata row was never created (or was deleted later). It reports and never
// deletes; there is no transactional boundary across the two stores, so a
// failed metadata write legitimately leaves assets behind.
type Sweeper struct {
	store   PrefixLister
	rows    PathSource
	reports *ReportRepository
	log     *zap.Logger
}

func New(store PrefixLister, rows PathSource, reports *ReportRepository, log *zap.Logger) *Sweeper {
	return &Sweeper{store: store, rows: rows, reports: reports, log: log}
}

// Run performs one sweep and stores the report if a report repository is
// configured.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	started := time.Now().UTC()

	prefixes, err := s.store.ListPrefixes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list asset prefixes: %w", err)
	}

	paths, err := s.rows.AllBlobPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list referenced paths: %w", err)
	}

	referenced := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		referenced[p] = struct{}{}
	}

	orphans := make([]string, 0)
	for _, prefix := range prefixes {
		if _, ok := referenced[prefix]; !ok {
			orphans = append(orphans, prefix)
		}
	}
	sort.Strings(orphans)

	report := &Report{
		StartedAt:       started,
		FinishedAt:      time.Now().UTC(),
		ScannedPrefixes: len(prefixes),
		ReferencedPaths: len(paths),
		Orphans:         orphans,
	}

	if s.reports != nil {
		if err := s.reports.Save(ctx, report); err != nil {
			return nil, err
		}
	}

	s.log.Info("orphan sweep finished",
		zap.Int("scanned_prefixes", report.ScannedPrefixes),
		zap.Int("referenced_paths", report.ReferencedPaths),
		zap.Int("orphans", len(report.Orphans)))

	return report, nil
}
