package testutil

import (
	"context"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Name() string
	Cleanup(func())
	Skip(args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// DefaultTestRedisAddr is the local Redis started by the docker-compose test profile.
const DefaultTestRedisAddr = "localhost:56379"

const redisProbeTimeout = 2 * time.Second

// TestTime returns a fixed time for testing.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// envBool parses common truthy values from env vars.
func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

// requireRedis turns a missing Redis into a failure instead of a skip.
func requireRedis() bool { return envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") }

// redisCandidates lists addresses to probe, most specific first, without duplicates.
func redisCandidates() []string {
	var out []string
	for _, addr := range []string{
		os.Getenv("TEST_REDIS_ADDR"),
		os.Getenv("REDIS_ADDR"),
		"redis:6379",
		"localhost:6379",
		DefaultTestRedisAddr,
	} {
		if addr = strings.TrimSpace(addr); addr != "" && !slices.Contains(out, addr) {
			out = append(out, addr)
		}
	}
	return out
}

// GetTestRedisAddr returns the first candidate address that answers PING.
func GetTestRedisAddr(t TestingTB) (string, bool) {
	t.Helper()
	for _, addr := range redisCandidates() {
		if err := pingRedis(addr); err != nil {
			t.Logf("Redis not available at %s: %v", addr, err)
			continue
		}
		return addr, true
	}
	return "", false
}

func pingRedis(addr string) error {
	client := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: redisProbeTimeout})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), redisProbeTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// SetupTestRedis returns a client for the test Redis, closed on cleanup. The test is
// skipped when no Redis answers, unless TEST_REQUIRE_REDIS or TEST_REQUIRE_INFRA is set.
//
// Pub/sub channels are shared by every logical DB, so tests isolate themselves with
// UniqueChannel rather than by DB index.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := GetTestRedisAddr(t)
	if !ok {
		if requireRedis() {
			t.Fatal("Redis not available for testing")
		}
		t.Skip("Redis not available for testing")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("warning: failed to close redis client: %v", err)
		}
	})
	return client
}

var channelUnsafe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// UniqueChannel returns a pub/sub channel name under base that no other test uses.
func UniqueChannel(t TestingTB, base string) string {
	name := strings.Trim(channelUnsafe.ReplaceAllString(t.Name(), "_"), "_")
	return base + ":" + name + ":" + uuid.NewString()[:8]
}
