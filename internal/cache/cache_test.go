package cache

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gchung00/daily-qt/internal/testutils"
)

func TestClean_DeletesOldEntries(t *testing.T) {
	db := testutils.NewTestDB(t)

	oldTime := time.Now().Add(-72 * time.Hour).Unix()
	recentTime := time.Now().Add(-1 * time.Hour).Unix()
	entries := []ProcessedMessage{
		{ChatID: 1, MessageID: 1, Date: oldTime},
		{ChatID: 1, MessageID: 2, Date: oldTime},
		{ChatID: 1, MessageID: 3, Date: recentTime},
		{ChatID: 2, MessageID: 1, Date: recentTime},
	}
	for _, entry := range entries {
		require.NoError(t, db.DB.Create(&entry).Error)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	config := Config{
		CleanInterval: time.Hour,
		KeepDuration:  48 * time.Hour,
	}
	cleaner := NewCleaner(NewService(db.DB), config, logger)
	deleted, err := cleaner.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var count int64
	db.DB.Model(&ProcessedMessage{}).Where("date <= ?", oldTime).Count(&count)
	assert.Equal(t, int64(0), count)

	db.DB.Model(&ProcessedMessage{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestClean_Empty(t *testing.T) {
	db := testutils.NewTestDB(t)

	deleted, err := NewService(db.DB).Clean(context.Background(), 48*time.Hour)

	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestCleaner_StartStop(t *testing.T) {
	db := testutils.NewTestDB(t)

	oldTime := time.Now().Add(-72 * time.Hour).Unix()
	entry := ProcessedMessage{ChatID: 1, MessageID: 1, Date: oldTime}
	require.NoError(t, db.DB.Create(&entry).Error)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	config := Config{
		CleanInterval: 100 * time.Millisecond,
		KeepDuration:  48 * time.Hour,
	}
	cleaner := NewCleaner(NewService(db.DB), config, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- cleaner.Start(ctx)
	}()

	testutils.WaitForCondition(t, func() bool {
		var count int64
		db.DB.Model(&ProcessedMessage{}).Count(&count)
		return count == 0
	}, 2*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("Cleaner did not stop in time")
	}
}

func TestService_Seen(t *testing.T) {
	db := testutils.NewTestDB(t)
	svc := NewService(db.DB)
	ctx := context.Background()
	now := time.Now().Unix()

	seen, err := svc.Seen(ctx, 10, 1, now)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = svc.Seen(ctx, 10, 1, now)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = svc.Seen(ctx, 11, 1, now)
	require.NoError(t, err)
	assert.False(t, seen, "message ids are per chat")
}

func TestRedisLedger_Seen(t *testing.T) {
	client := testutils.NewTestRedis(t)
	ledger := NewRedisLedger(client, time.Hour)
	ctx := context.Background()

	seen, err := ledger.Seen(ctx, 10, 1, 0)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = ledger.Seen(ctx, 10, 1, 0)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = ledger.Seen(ctx, 11, 1, 0)
	require.NoError(t, err)
	assert.False(t, seen)
}
