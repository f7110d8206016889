package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) Cache {
	t.Helper()
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

// TestMemoryCacheBasic 测试内存缓存基本读写
func TestMemoryCacheBasic(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type profile struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	require.NoError(t, c.Set(ctx, "user:1", &profile{Name: "alice", Score: 42}, time.Minute))

	var got profile
	require.NoError(t, c.Get(ctx, "user:1", &got))
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, 42, got.Score)

	exists, err := c.Exists(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "user:1"))
	err = c.Get(ctx, "user:1", &got)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

// TestMemoryCacheExpiry 测试过期后未命中
func TestMemoryCacheExpiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 30*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	var got string
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheNotFound)
}

// TestRemember 测试读穿透：命中不执行 fn，未命中执行并回填
func TestRemember(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var calls int32
	load := func() (string, error) {
		atomic.AddInt32(&calls, 1)
		return "loaded", nil
	}

	got, err := Remember(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", got)

	got, err = Remember(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

// TestRememberWithLock 测试并发请求只回源一次
func TestRememberWithLock(t *testing.T) {
	sf := NewSingleflightCache(newTestCache(t))
	ctx := context.Background()

	var calls int32
	load := func() (int, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return 7, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := RememberWithLock(ctx, sf, "k", time.Minute, load)
			assert.NoError(t, err)
			assert.Equal(t, 7, got)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
