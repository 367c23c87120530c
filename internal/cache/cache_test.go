package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration, maxEntries int) (*Tiered, *clock) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTiered(ttl, maxEntries, nil)
	c.now = clk.now
	return c, clk
}

func TestKey(t *testing.T) {
	a := Key("extract", "gemini-2.0-flash", "Go and Kafka")
	assert.Equal(t, a, Key("extract", "gemini-2.0-flash", "Go and Kafka"))
	assert.NotEqual(t, a, Key("extract", "gemini-2.5-pro", "Go and Kafka"))
	assert.NotEqual(t, Key("a|b"), Key("a", "b|"))
	assert.Len(t, a, len("ats:")+32)
}

func TestGetSetAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache(time.Minute, 10)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Set(ctx, "k", []byte("v"))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	clk.advance(61 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 0, stats.Entries)
	assert.False(t, stats.Redis)
}

func TestEvictionKeepsNewest(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache(time.Hour, 2)

	c.Set(ctx, "first", []byte("1"))
	clk.advance(time.Second)
	c.Set(ctx, "second", []byte("2"))
	clk.advance(time.Second)
	c.Set(ctx, "third", []byte("3"))

	_, ok := c.Get(ctx, "first")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "second")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "third")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Stats().Entries)
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(time.Hour, 2)

	c.Set(ctx, "a", []byte("1"))
	c.Set(ctx, "b", []byte("2"))
	c.Set(ctx, "b", []byte("3"))

	got, ok := c.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), got)
	got, _ = c.Get(ctx, "b")
	assert.Equal(t, []byte("3"), got)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestCache(time.Minute, 0)

	c.Set(ctx, "old", []byte("x"))
	clk.advance(30 * time.Second)
	c.Set(ctx, "new", []byte("y"))
	clk.advance(45 * time.Second)

	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Stats().Entries)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(time.Minute, 10)

	StoreJSON(ctx, c, "kw", []string{"Go", "Kafka"})
	got, ok := LoadJSON[[]string](ctx, c, "kw")
	require.True(t, ok)
	assert.Equal(t, []string{"Go", "Kafka"}, got)

	c.Set(ctx, "bad", []byte("{not json"))
	_, ok = LoadJSON[[]string](ctx, c, "bad")
	assert.False(t, ok)

	_, ok = LoadJSON[[]string](ctx, nil, "kw")
	assert.False(t, ok)
}

func TestNewWithUnreachableRedis(t *testing.T) {
	c := New(context.Background(), Options{
		TTL:        time.Minute,
		MaxEntries: 5,
		RedisURL:   "not-a-redis-url",
	}, nil)
	defer c.Close()

	assert.False(t, c.Stats().Redis)
	c.Set(context.Background(), "k", []byte("v"))
	_, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.NoError(t, c.Close())
}
