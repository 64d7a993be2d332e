package inventory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRepository(t *testing.T) {
	t.Run("missing key is empty", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		repo := NewRedisRepository(client, "")
		snap, err := repo.Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, snap)
	})

	t.Run("store persists through redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		ctx := context.Background()

		repo := NewRedisRepository(client, "test:inventory")
		s := NewStore(repo)
		_, err := s.EnsureArticle(ctx, "715-44")
		require.NoError(t, err)
		_, err = s.EnsureColor(ctx, "715-44", "Black", 6)
		require.NoError(t, err)
		_, err = s.IncrementColor(ctx, "715-44", "Black", 6)
		require.NoError(t, err)

		raw, err := mr.Get("test:inventory")
		require.NoError(t, err)
		assert.JSONEq(t, `{"715-44":{"Black":12}}`, raw)

		reloaded := NewStore(repo)
		require.NoError(t, reloaded.Load(ctx))
		assert.Equal(t, s.Snapshot(), reloaded.Snapshot())
	})

	t.Run("corrupt value loads empty", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()
		require.NoError(t, mr.Set(DefaultRedisKey, "[1,2"))

		s := NewStore(NewRedisRepository(client, ""))
		err := s.Load(context.Background())
		assert.Error(t, err)
		assert.Equal(t, 0, s.Len())
	})
}
