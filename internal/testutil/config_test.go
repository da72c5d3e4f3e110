package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/two-shoulder/authsession/internal/adapters/claims"
)

func TestRedisCandidates(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", " localhost:6379 ")
	t.Setenv("REDIS_ADDR", "")

	assert.Equal(t, []string{"localhost:6379", "redis:6379", DefaultTestRedisAddr}, redisCandidates())

	t.Setenv("REDIS_ADDR", "cache:6380")
	assert.Equal(t, "cache:6380", redisCandidates()[1])
}

func TestUniqueChannel(t *testing.T) {
	a := UniqueChannel(t, "authsession:logout")
	b := UniqueChannel(t, "authsession:logout")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "authsession:logout:TestUniqueChannel:"), a)

	t.Run("nested name/with spaces", func(t *testing.T) {
		ch := UniqueChannel(t, "x")
		assert.NotContains(t, ch, "/")
		assert.NotContains(t, ch, " ")
	})
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "y"} {
		t.Setenv("TESTUTIL_BOOL", v)
		assert.True(t, envBool("TESTUTIL_BOOL"), v)
	}
	for _, v := range []string{"", "0", "false", "no", "maybe"} {
		t.Setenv("TESTUTIL_BOOL", v)
		assert.False(t, envBool("TESTUTIL_BOOL"), v)
	}
}

func TestRequireRedis(t *testing.T) {
	t.Setenv("TEST_REQUIRE_REDIS", "")
	t.Setenv("TEST_REQUIRE_INFRA", "")
	assert.False(t, requireRedis())

	t.Setenv("TEST_REQUIRE_INFRA", "true")
	assert.True(t, requireRedis())
}

func TestTokenBuilder(t *testing.T) {
	exp := TestTime().Add(time.Hour)
	raw := NewToken("user-1").
		WithSessionID("sess-1").
		WithUser("alice", "alice@example.com", "Alice", "Liddell").
		WithExpiry(exp).
		WithRealmRoles("operator").
		WithClientRoles("web", "viewer").
		WithAttributes(map[string]any{"reports": true}).
		Sign(t)

	c, err := claims.MustNewParser(claims.DefaultPaths()).Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.Subject)
	assert.Equal(t, "sess-1", c.SessionID)
	assert.Equal(t, "alice", c.PreferredUsername)
	assert.Equal(t, []string{"operator"}, c.RealmRoles)
	assert.Equal(t, []string{"viewer"}, c.ClientRoles)
	assert.Equal(t, map[string]any{"reports": true}, c.RoleAttributes)
	assert.True(t, exp.Equal(c.ExpiresAt))
}
