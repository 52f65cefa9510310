package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gchung00/daily-qt/internal/sermon"
)

// ErrStaleIndex is returned by IndexedSource when the index no longer covers
// the primary store.
var ErrStaleIndex = errors.New("sermon index is stale")

// defaultScanLimit bounds concurrent reads during a full scan.
const defaultScanLimit = 8

// Source produces every parsed sermon, newest first.
type Source interface {
	Sermons(ctx context.Context) ([]sermon.Parsed, error)
}

// IndexedSource reads the materialized index. It fails its health check when
// the indexed dates are not exactly the stored dates.
type IndexedSource struct {
	index Index
	store Store
}

func NewIndexedSource(index Index, store Store) *IndexedSource {
	return &IndexedSource{index: index, store: store}
}

func (s *IndexedSource) Sermons(ctx context.Context) ([]sermon.Parsed, error) {
	all, err := s.index.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	dates, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sermons: %w", err)
	}
	if len(dates) != len(all) {
		return nil, fmt.Errorf("%w: %d indexed, %d stored", ErrStaleIndex, len(all), len(dates))
	}
	indexed := make(map[string]struct{}, len(all))
	for _, p := range all {
		indexed[p.Date] = struct{}{}
	}
	for _, date := range dates {
		if _, ok := indexed[date]; !ok {
			return nil, fmt.Errorf("%w: %s not indexed", ErrStaleIndex, date)
		}
	}

	sortNewestFirst(all)
	return all, nil
}

// ScanSource lists the store and parses every entry.
type ScanSource struct {
	store Store
	limit int
}

// NewScanSource returns a scan source reading at most limit entries at once;
// limit <= 0 picks a default.
func NewScanSource(store Store, limit int) *ScanSource {
	if limit <= 0 {
		limit = defaultScanLimit
	}
	return &ScanSource{store: store, limit: limit}
}

func (s *ScanSource) Sermons(ctx context.Context) ([]sermon.Parsed, error) {
	dates, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sermons: %w", err)
	}

	parsed := make([]*sermon.Parsed, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, date := range dates {
		g.Go(func() error {
			text, err := s.store.Get(gctx, date)
			if errors.Is(err, ErrNotFound) {
				// deleted since List
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read sermon %s: %w", date, err)
			}
			p := Parse(date, text)
			parsed[i] = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]sermon.Parsed, 0, len(parsed))
	for _, p := range parsed {
		if p != nil {
			out = append(out, *p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Catalog serves sermons from the index while it is healthy and falls back
// to a full scan otherwise, writing the scan result back to the index. A
// catalog marked stale scans on its next read even if the index looks
// healthy.
type Catalog struct {
	indexed Source
	scan    Source
	index   Index
	stale   atomic.Bool
	logger  *slog.Logger
}

func NewCatalog(indexed, scan Source, index Index, logger *slog.Logger) *Catalog {
	return &Catalog{indexed: indexed, scan: scan, index: index, logger: logger}
}

// MarkStale forces the next read to rebuild the index from a full scan.
func (c *Catalog) MarkStale() {
	c.stale.Store(true)
}

func (c *Catalog) Sermons(ctx context.Context) ([]sermon.Parsed, error) {
	if c.stale.Swap(false) {
		c.logger.Warn("sermon index marked stale, scanning archive")
	} else {
		all, err := c.indexed.Sermons(ctx)
		if err == nil {
			return all, nil
		}
		c.logger.Warn("sermon index unusable, scanning archive", "error", err)
	}

	all, err := c.scan.Sermons(ctx)
	if err != nil {
		c.MarkStale()
		return nil, err
	}

	if c.index != nil {
		if err := c.index.Replace(ctx, all); err != nil {
			c.MarkStale()
			c.logger.Error("failed to repair sermon index", "error", err)
		}
	}
	return all, nil
}

func sortNewestFirst(all []sermon.Parsed) {
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date > all[j].Date })
}
