package security

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/vpnadmin/internal/cache"
)

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	ctx := context.Background()
	limiter, err := NewRateLimiter(cache.NewStore(cache.Options{}))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(ctx, "10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
	}
	res, err := limiter.Allow(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	retry := res.RetryAfter(time.Now())
	assert.Greater(t, retry, 58*time.Second)
	assert.LessOrEqual(t, retry, 61*time.Second)
	assert.Zero(t, res.RetryAfter(res.ResetAt.Add(time.Second)))

	other, err := limiter.Allow(ctx, "10.0.0.2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	limiter.Reset(ctx, "10.0.0.1")
	res, err = limiter.Allow(ctx, "10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRateLimiterRejectsBadLimit(t *testing.T) {
	limiter, err := NewRateLimiter(cache.NewStore(cache.Options{}))
	require.NoError(t, err)
	_, err = limiter.Allow(context.Background(), "k", 0, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestLoggerRecorderWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	rec := NewLoggerRecorder(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := WithActor(context.Background(), "ops", "127.0.0.1")
	actor, ip := ActorFromContext(ctx)
	rec.Record(ctx, Event{Kind: "server.create", ActorID: actor, EntityID: "abc", IP: ip})

	out := buf.String()
	assert.Contains(t, out, "kind=server.create")
	assert.Contains(t, out, "actor_id=ops")
	assert.Contains(t, out, "entity_id=abc")
	assert.Contains(t, out, "component=audit")
}
