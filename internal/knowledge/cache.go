package knowledge

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const cacheKey = "knowledge-context"

// BuildFunc produces a fresh knowledge context.
type BuildFunc func(ctx context.Context) (string, error)

// BuildObserver is notified after every build attempt.
type BuildObserver func(took time.Duration, err error)

// Cache holds the compiled knowledge context for the lifetime of the process
// or until Invalidate is called. Concurrent cold reads share one build.
type Cache struct {
	build    BuildFunc
	observer BuildObserver
	group    singleflight.Group

	mu         sync.RWMutex
	value      string
	warm       bool
	builtAt    time.Time
	generation uint64
}

// NewCache builds the context by fetching all records and compiling them.
func NewCache(reader *Reader, compiler *Compiler) *Cache {
	return NewCacheWithBuilder(func(ctx context.Context) (string, error) {
		records, err := reader.FetchAll(ctx)
		if err != nil {
			return "", err
		}
		return compiler.Compile(records), nil
	})
}

func NewCacheWithBuilder(build BuildFunc) *Cache {
	return &Cache{build: build}
}

func (c *Cache) SetObserver(observer BuildObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = observer
}

// Get returns the cached context, building it first when cold. A caller that
// gives up while a build is running returns its own ctx error; the build
// itself keeps going for the other waiters.
func (c *Cache) Get(ctx context.Context) (string, error) {
	if v, ok := c.peek(); ok {
		return v, nil
	}

	ch := c.group.DoChan(cacheKey, func() (any, error) {
		c.mu.RLock()
		if c.warm {
			v := c.value
			c.mu.RUnlock()
			return v, nil
		}
		gen := c.generation
		observer := c.observer
		c.mu.RUnlock()

		started := time.Now()
		v, err := c.build(context.WithoutCancel(ctx))
		if observer != nil {
			observer(time.Since(started), err)
		}
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		// An Invalidate that landed mid-build makes this result stale for
		// storage, but the waiters still receive it.
		if c.generation == gen {
			c.value = v
			c.warm = true
			c.builtAt = time.Now().UTC()
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached context. It does not touch conversation history.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.value = ""
	c.warm = false
	c.builtAt = time.Time{}
	c.generation++
	c.mu.Unlock()
	c.group.Forget(cacheKey)
}

func (c *Cache) Warm() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.warm
}

func (c *Cache) BuiltAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builtAt
}

func (c *Cache) peek() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.warm
}
