package cache

import (
	"context"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// LRU is the in-process cache adapter, used when no Redis is configured.
// Entries carry no TTL; consistency relies on invalidation-on-write.
type LRU struct {
	c  *lru.Cache[string, string]
	mu sync.Mutex
}

func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		return nil, errors.New("cache size must be positive")
	}
	if size > 100000 {
		return nil, errors.New("cache size too large")
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &LRU{c: c}, nil
}

func (l *LRU) Get(ctx context.Context, key string) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	default:
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.c.Get(key)
	return v, ok, nil
}

func (l *LRU) Set(ctx context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Add(key, value)
	return nil
}

func (l *LRU) Remove(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Remove(key)
	return nil
}

func (l *LRU) Increment(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev, existed := l.c.Get(key)
	n := int64(0)
	if existed {
		parsed, err := strconv.ParseInt(prev, 10, 64)
		if err != nil {
			return false, errors.Wrap(err, "increment non-numeric key")
		}
		n = parsed
	}
	l.c.Add(key, strconv.FormatInt(n+1, 10))
	return existed, nil
}
