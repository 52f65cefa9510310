package testutils

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const redisImage = "redis:7-alpine"

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

// NewTestRedis returns a client on an empty redis. TEST_REDIS_ADDR points it
// at an existing server; otherwise one container is started per test binary.
func NewTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	addr := getEnv("TEST_REDIS_ADDR", "")
	if addr == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
		redisOnce.Do(func() {
			redisAddr, redisErr = startRedis(context.Background())
		})
		if redisErr != nil {
			t.Fatalf("Failed to start redis container: %v", redisErr)
		}
		addr = redisAddr
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush redis: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func startRedis(ctx context.Context) (string, error) {
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run container: %w", err)
	}

	endpoint, err := ctr.Endpoint(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get endpoint: %w", err)
	}
	return endpoint, nil
}
