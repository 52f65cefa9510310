package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gchung00/daily-qt/internal/archive"
)

// ArchiveStore keeps transcripts in the sermons table.
type ArchiveStore struct {
	db *gorm.DB
}

// NewArchiveStore creates a postgres archive store
func NewArchiveStore(db *gorm.DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

// Get returns the transcript stored at date.
func (s *ArchiveStore) Get(ctx context.Context, date string) (string, error) {
	var row SermonRow
	err := s.db.WithContext(ctx).Where("date = ?", date).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", archive.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sermon %s: %w", date, err)
	}
	return row.Text, nil
}

// List returns every date, newest first.
func (s *ArchiveStore) List(ctx context.Context) ([]string, error) {
	var dates []string
	err := s.db.WithContext(ctx).
		Model(&SermonRow{}).
		Order("date DESC").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sermons: %w", err)
	}
	return dates, nil
}

// Put stores text at date. The non-overwriting insert is a single
// INSERT ... ON CONFLICT DO NOTHING, so two concurrent creates for one date
// cannot both succeed.
func (s *ArchiveStore) Put(ctx context.Context, date, text string, overwrite bool) error {
	now := time.Now()
	row := SermonRow{Date: date, Text: text, CreatedAt: now, UpdatedAt: now}

	if overwrite {
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to write sermon %s: %w", date, err)
		}
		return nil
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to create sermon %s: %w", date, result.Error)
	}
	if result.RowsAffected == 0 {
		return archive.ErrConflict
	}
	return nil
}

// Delete removes the transcript at date.
func (s *ArchiveStore) Delete(ctx context.Context, date string) error {
	result := s.db.WithContext(ctx).Where("date = ?", date).Delete(&SermonRow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete sermon %s: %w", date, result.Error)
	}
	if result.RowsAffected == 0 {
		return archive.ErrNotFound
	}
	return nil
}
