package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftStore keeps one pending draft per submitter in the drafts table.
type DraftStore struct {
	db *gorm.DB
}

// NewDraftStore creates a postgres draft store
func NewDraftStore(db *gorm.DB) *DraftStore {
	return &DraftStore{db: db}
}

// Get returns the draft of submitterID, if any.
func (s *DraftStore) Get(ctx context.Context, submitterID int64) (string, bool, error) {
	var row DraftRow
	err := s.db.WithContext(ctx).Where("submitter_id = ?", submitterID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get draft: %w", err)
	}
	return row.Text, true, nil
}

// Put replaces the draft of submitterID.
func (s *DraftStore) Put(ctx context.Context, submitterID int64, text string) error {
	row := DraftRow{SubmitterID: submitterID, Text: text, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submitter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

// Delete discards the draft of submitterID.
func (s *DraftStore) Delete(ctx context.Context, submitterID int64) error {
	if err := s.db.WithContext(ctx).Where("submitter_id = ?", submitterID).Delete(&DraftRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// RedisDrafts keeps drafts in redis. Abandoned drafts expire after ttl.
type RedisDrafts struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisDrafts creates a redis draft store. A zero ttl keeps drafts until
// they are saved or cancelled.
func NewRedisDrafts(rdb *redis.Client, ttl time.Duration) *RedisDrafts {
	return &RedisDrafts{rdb: rdb, prefix: "dailyqt:draft:", ttl: ttl}
}

func (s *RedisDrafts) key(submitterID int64) string {
	return s.prefix + strconv.FormatInt(submitterID, 10)
}

// Get returns the draft of submitterID, if any.
func (s *RedisDrafts) Get(ctx context.Context, submitterID int64) (string, bool, error) {
	text, err := s.rdb.Get(ctx, s.key(submitterID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get draft: %w", err)
	}
	return text, true, nil
}

// Put replaces the draft of submitterID and restarts its expiry.
func (s *RedisDrafts) Put(ctx context.Context, submitterID int64, text string) error {
	if err := s.rdb.Set(ctx, s.key(submitterID), text, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

// Delete discards the draft of submitterID.
func (s *RedisDrafts) Delete(ctx context.Context, submitterID int64) error {
	if err := s.rdb.Del(ctx, s.key(submitterID)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
