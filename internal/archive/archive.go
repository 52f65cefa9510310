// Package archive stores raw sermon transcripts by date and keeps a parsed
// index of them for listing views.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gchung00/daily-qt/internal/sermon"
)

var (
	// ErrConflict is returned by a non-forced put when the date is taken.
	ErrConflict = errors.New("sermon already exists")
	// ErrNotFound is returned when no sermon exists for a date.
	ErrNotFound = errors.New("sermon not found")
	// ErrInvalidDate is returned for keys that are not YYYY-MM-DD dates.
	ErrInvalidDate = errors.New("invalid date")
)

// Store is the primary archive: one raw transcript per date key.
type Store interface {
	Get(ctx context.Context, date string) (string, error)
	// List returns every date key, newest first.
	List(ctx context.Context) ([]string, error)
	// Put writes text at date. Without overwrite it fails with ErrConflict
	// when an entry already exists.
	Put(ctx context.Context, date, text string, overwrite bool) error
	Delete(ctx context.Context, date string) error
}

// Index holds the parsed form of every archived sermon.
type Index interface {
	ReadAll(ctx context.Context) ([]sermon.Parsed, error)
	Upsert(ctx context.Context, p sermon.Parsed) error
	Remove(ctx context.Context, date string) error
	Replace(ctx context.Context, all []sermon.Parsed) error
}

// PageCache holds rendered responses that go stale when the archive changes.
type PageCache interface {
	Invalidate(ctx context.Context) error
}

// Entry is one archived sermon with its parsed form.
type Entry struct {
	Date   string        `json:"date"`
	Text   string        `json:"text"`
	Parsed sermon.Parsed `json:"parsed"`
}

// DateLayout is the format of archive keys.
const DateLayout = "2006-01-02"

// ValidateDate checks that date is a real calendar day in DateLayout.
func ValidateDate(date string) error {
	t, err := time.Parse(DateLayout, date)
	if err != nil || t.Format(DateLayout) != date {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// Parse parses text and stamps it with the authoritative date key.
func Parse(date, text string) sermon.Parsed {
	p := sermon.Parse(text)
	p.Date = date
	return p
}

// Service writes to the primary store and keeps the index and page cache in
// step with it.
type Service struct {
	store   Store
	index   Index
	pages   PageCache
	catalog *Catalog
	logger  *slog.Logger
}

// NewService wires a service. pages may be nil.
func NewService(store Store, index Index, pages PageCache, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		index:   index,
		pages:   pages,
		catalog: NewCatalog(NewIndexedSource(index, store), NewScanSource(store, 0), index, logger),
		logger:  logger,
	}
}

// Save stores text at date. The write to the primary store decides the
// result; index and cache maintenance afterwards only logs its failures.
func (s *Service) Save(ctx context.Context, date, text string, force bool) error {
	if err := ValidateDate(date); err != nil {
		return err
	}

	if err := s.store.Put(ctx, date, text, force); err != nil {
		if errors.Is(err, ErrConflict) {
			return err
		}
		return fmt.Errorf("failed to store sermon %s: %w", date, err)
	}

	if err := s.index.Upsert(ctx, Parse(date, text)); err != nil {
		s.catalog.MarkStale()
		s.logger.Error("failed to update sermon index", "date", date, "error", err)
	}
	s.invalidate(ctx, date)

	s.logger.Info("sermon saved", "date", date, "force", force)
	return nil
}

// Delete removes the sermon at date. Deleting a missing date is not an error.
func (s *Service) Delete(ctx context.Context, date string) error {
	if err := ValidateDate(date); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, date); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to delete sermon %s: %w", date, err)
	}

	if err := s.index.Remove(ctx, date); err != nil {
		s.catalog.MarkStale()
		s.logger.Error("failed to remove sermon from index", "date", date, "error", err)
	}
	s.invalidate(ctx, date)

	s.logger.Info("sermon deleted", "date", date)
	return nil
}

// Raw returns the stored transcript for date.
func (s *Service) Raw(ctx context.Context, date string) (string, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	return s.store.Get(ctx, date)
}

// Get returns the transcript for date together with its parsed form.
func (s *Service) Get(ctx context.Context, date string) (Entry, error) {
	text, err := s.Raw(ctx, date)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Date: date, Text: text, Parsed: Parse(date, text)}, nil
}

// Dates lists every archived date, newest first.
func (s *Service) Dates(ctx context.Context) ([]string, error) {
	dates, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sermons: %w", err)
	}
	return dates, nil
}

// Latest returns the newest archived sermon.
func (s *Service) Latest(ctx context.Context) (Entry, error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return Entry{}, err
	}
	if len(dates) == 0 {
		return Entry{}, ErrNotFound
	}
	return s.Get(ctx, dates[0])
}

// Sermons returns every parsed sermon, newest first.
func (s *Service) Sermons(ctx context.Context) ([]sermon.Parsed, error) {
	return s.catalog.Sermons(ctx)
}

// ByBook returns the sermons preaching from bookID in scripture order.
func (s *Service) ByBook(ctx context.Context, bookID string) ([]sermon.Parsed, error) {
	all, err := s.Sermons(ctx)
	if err != nil {
		return nil, err
	}
	filtered := FilterByBook(all, bookID)
	if bookID != "" {
		SortByReference(filtered)
	}
	return filtered, nil
}

// Rebuild re-parses the whole archive and replaces the index with the result.
func (s *Service) Rebuild(ctx context.Context) (int, error) {
	all, err := s.catalog.scan.Sermons(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan archive: %w", err)
	}
	if err := s.index.Replace(ctx, all); err != nil {
		return 0, fmt.Errorf("failed to replace index: %w", err)
	}
	s.invalidate(ctx, "")

	s.logger.Info("sermon index rebuilt", "count", len(all))
	return len(all), nil
}

func (s *Service) invalidate(ctx context.Context, date string) {
	if s.pages == nil {
		return
	}
	if err := s.pages.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate page cache", "date", date, "error", err)
	}
}
