package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/habit-tracker/internal/config"
	"github.com/magabrotheeeer/habit-tracker/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := models.Habit{
		ID:           7,
		Title:        "Бег",
		Frequency:    models.Weekly,
		UserID:       3,
		CreationDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Set(ctx, "habit:3:7", expected, time.Minute))

	var actual models.Habit
	found, err := cache.Get(ctx, "habit:3:7", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected.Title, actual.Title)
	assert.Equal(t, expected.Frequency, actual.Frequency)
	assert.True(t, expected.CreationDate.Equal(actual.CreationDate))
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.Habit
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "k"))

	var out string
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidatePrefix(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "habit:1:1", "a", time.Minute))
	require.NoError(t, cache.Set(ctx, "habit:1:2", "b", time.Minute))
	require.NoError(t, cache.Set(ctx, "habit:11:1", "c", time.Minute))

	require.NoError(t, cache.InvalidatePrefix(ctx, "habit:1:"))

	assert.False(t, mr.Exists("habit:1:1"))
	assert.False(t, mr.Exists("habit:1:2"))
	assert.True(t, mr.Exists("habit:11:1"))

	require.NoError(t, cache.InvalidatePrefix(ctx, "habit:404:"))
}

func TestExpiration(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Second))
	mr.FastForward(2 * time.Second)

	var out string
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetCorruptedValue(t *testing.T) {
	cache, mr := setupTestCache(t)
	require.NoError(t, mr.Set("k", "not json"))

	var out models.Habit
	_, err := cache.Get(context.Background(), "k", &out)
	assert.Error(t, err)
}

func TestInitServer_Unreachable(t *testing.T) {
	_, err := InitServer(context.Background(), config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var c Noop
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	found, err := c.Get(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.Invalidate(ctx, "k"))
	assert.NoError(t, c.InvalidatePrefix(ctx, "k"))
}
