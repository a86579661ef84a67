package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/hupe1980/graphwalk/model"
	"github.com/hupe1980/graphwalk/walkstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilClient)

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer func() { _ = client.Close() }()

	s, err := New(client, WithPrefix("test:"), WithCodec(walkstore.CodecZstd))
	require.NoError(t, err)
	assert.Equal(t, "test:12", s.Key(12))
	assert.Equal(t, walkstore.CodecZstd, s.opts.Codec)

	// Empty appends do not touch the server.
	require.NoError(t, s.Append(context.Background(), 1, nil))
	require.NoError(t, s.Close())
}

// Requires a Redis server at REDIS_ADDR.
func TestStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	s, err := Dial(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0, WithPrefix("graphwalk-test:"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	require.NoError(t, s.Clear(ctx))
	defer func() { _ = s.Clear(ctx) }()

	first := []model.Walker{model.NewWalker(1, 4), model.NewWalker(2, 5)}
	second := []model.Walker{model.NewWalker(3, 6).Advance(7)}
	require.NoError(t, s.Append(ctx, 3, first))
	require.NoError(t, s.Append(ctx, 3, second))
	require.NoError(t, s.Append(ctx, 4, second))

	got, err := s.Drain(ctx, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), got)

	got, err = s.Drain(ctx, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Drain(ctx, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}
