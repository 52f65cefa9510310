// Package cache remembers which chat messages were already processed so a
// redelivered update is not handled twice.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger records processed messages.
type Ledger interface {
	// Seen marks the message as processed and reports whether it already was.
	Seen(ctx context.Context, chatID int64, messageID int, date int64) (bool, error)
}

// ProcessedMessage is one handled chat message
type ProcessedMessage struct {
	ChatID    int64 `gorm:"primaryKey;autoIncrement:false"`
	MessageID int64 `gorm:"primaryKey;autoIncrement:false"`
	Date      int64 `gorm:"index;not null"`
	CreatedAt time.Time
}

// TableName specifies the table name for ProcessedMessage
func (ProcessedMessage) TableName() string {
	return "processed_messages"
}

// Service provides ledger operations on postgres
type Service struct {
	db *gorm.DB
}

// NewService creates a new ledger service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Seen inserts the message if absent. The insert is conditional, so of two
// concurrent deliveries exactly one sees false.
func (s *Service) Seen(ctx context.Context, chatID int64, messageID int, date int64) (bool, error) {
	entry := &ProcessedMessage{
		ChatID:    chatID,
		MessageID: int64(messageID),
		Date:      date,
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record message: %w", result.Error)
	}
	return result.RowsAffected == 0, nil
}

// Clean removes entries older than keepDuration and returns how many went.
func (s *Service) Clean(ctx context.Context, keepDuration time.Duration) (int64, error) {
	cutoff := time.Now().Add(-keepDuration).Unix()
	result := s.db.WithContext(ctx).
		Where("date < ?", cutoff).
		Delete(&ProcessedMessage{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clean processed messages: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RedisLedger records processed messages as expiring redis keys.
type RedisLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLedger creates a redis ledger whose entries live for ttl
func NewRedisLedger(rdb *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{rdb: rdb, ttl: ttl}
}

// Seen sets the message key if absent.
func (l *RedisLedger) Seen(ctx context.Context, chatID int64, messageID int, _ int64) (bool, error) {
	key := "dailyqt:seen:" + strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
	set, err := l.rdb.SetNX(ctx, key, 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record message: %w", err)
	}
	return !set, nil
}
