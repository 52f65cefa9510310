package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gchung00/daily-qt/internal/sermon"
)

const indexBatchSize = 100

// IndexStore keeps parsed sermons in the sermon_index table.
type IndexStore struct {
	db *gorm.DB
}

// NewIndexStore creates a postgres index store
func NewIndexStore(db *gorm.DB) *IndexStore {
	return &IndexStore{db: db}
}

// ReadAll returns every indexed sermon, newest first.
func (s *IndexStore) ReadAll(ctx context.Context) ([]sermon.Parsed, error) {
	var rows []IndexRow
	if err := s.db.WithContext(ctx).Order("date DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read sermon index: %w", err)
	}

	all := make([]sermon.Parsed, 0, len(rows))
	for _, row := range rows {
		var sections sermon.Sections
		if err := json.Unmarshal(row.Sections, &sections); err != nil {
			return nil, fmt.Errorf("failed to decode index entry %s: %w", row.Date, err)
		}
		all = append(all, sermon.Parsed{Title: row.Title, Date: row.Date, Sections: sections})
	}
	return all, nil
}

// Upsert inserts or replaces the entry for p.Date.
func (s *IndexStore) Upsert(ctx context.Context, p sermon.Parsed) error {
	row, err := toIndexRow(p)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "sections", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert index entry %s: %w", p.Date, err)
	}
	return nil
}

// Remove drops the entry for date. Removing a missing entry is a no-op.
func (s *IndexStore) Remove(ctx context.Context, date string) error {
	if err := s.db.WithContext(ctx).Where("date = ?", date).Delete(&IndexRow{}).Error; err != nil {
		return fmt.Errorf("failed to remove index entry %s: %w", date, err)
	}
	return nil
}

// Replace swaps the whole index for all in one transaction.
func (s *IndexStore) Replace(ctx context.Context, all []sermon.Parsed) error {
	rows := make([]IndexRow, 0, len(all))
	for _, p := range all {
		row, err := toIndexRow(p)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&IndexRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear sermon index: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, indexBatchSize).Error; err != nil {
			return fmt.Errorf("failed to fill sermon index: %w", err)
		}
		return nil
	})
}

func toIndexRow(p sermon.Parsed) (IndexRow, error) {
	sections, err := json.Marshal(p.Sections)
	if err != nil {
		return IndexRow{}, fmt.Errorf("failed to encode index entry %s: %w", p.Date, err)
	}
	return IndexRow{
		Date:      p.Date,
		Title:     p.Title,
		Sections:  datatypes.JSON(sections),
		UpdatedAt: time.Now(),
	}, nil
}
