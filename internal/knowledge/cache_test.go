package knowledge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	*MemorySource
	calls atomic.Int32
	gate  chan struct{}
}

func (s *countingSource) Skills(ctx context.Context) ([]Skill, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	return s.MemorySource.Skills(ctx)
}

func TestCacheSingleBuildUnderConcurrentColdReads(t *testing.T) {
	src := &countingSource{MemorySource: NewMemorySource(sampleRecords()), gate: make(chan struct{})}
	cache := NewCache(NewReader(src), NewCompiler("Abdi"))

	const n = 32
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background())
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.True(t, cache.Warm())
	assert.False(t, cache.BuiltAt().IsZero())
}

func TestCacheServesWarmValue(t *testing.T) {
	var builds atomic.Int32
	cache := NewCacheWithBuilder(func(context.Context) (string, error) {
		builds.Add(1)
		return "ctx", nil
	})

	for i := 0; i < 3; i++ {
		v, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ctx", v)
	}
	assert.Equal(t, int32(1), builds.Load())
}

func TestCacheFailureStaysCold(t *testing.T) {
	fail := true
	cache := NewCacheWithBuilder(func(context.Context) (string, error) {
		if fail {
			return "", &FetchError{Collection: "skills", Err: errors.New("down")}
		}
		return "ctx", nil
	})

	_, err := cache.Get(context.Background())
	require.ErrorIs(t, err, ErrDataSource)
	assert.False(t, cache.Warm())

	fail = false
	v, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ctx", v)
	assert.True(t, cache.Warm())
}

func TestCacheInvalidateRebuilds(t *testing.T) {
	var builds atomic.Int32
	cache := NewCacheWithBuilder(func(context.Context) (string, error) {
		n := builds.Add(1)
		if n == 1 {
			return "v1", nil
		}
		return "v2", nil
	})

	v, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	cache.Invalidate()
	assert.False(t, cache.Warm())

	v, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, int32(2), builds.Load())
}

func TestCacheInvalidateDuringBuildDoesNotStoreStale(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var builds atomic.Int32
	cache := NewCacheWithBuilder(func(context.Context) (string, error) {
		if builds.Add(1) == 1 {
			close(started)
			<-release
			return "stale", nil
		}
		return "fresh", nil
	})

	done := make(chan string, 1)
	go func() {
		v, _ := cache.Get(context.Background())
		done <- v
	}()

	<-started
	cache.Invalidate()
	close(release)
	assert.Equal(t, "stale", <-done)
	assert.False(t, cache.Warm())

	v, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestCacheCallerCancelKeepsBuildRunning(t *testing.T) {
	release := make(chan struct{})
	cache := NewCacheWithBuilder(func(context.Context) (string, error) {
		<-release
		return "ctx", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := cache.Get(ctx)
		errCh <- err
	}()
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(release)
	require.Eventually(t, cache.Warm, time.Second, 5*time.Millisecond)
}

func TestCacheObserver(t *testing.T) {
	cache := NewCacheWithBuilder(func(context.Context) (string, error) { return "ctx", nil })
	var observed atomic.Int32
	cache.SetObserver(func(_ time.Duration, err error) {
		assert.NoError(t, err)
		observed.Add(1)
	})

	_, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), observed.Load())
}
