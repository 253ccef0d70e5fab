package testutil

import (
	"sync"

	"github.com/booknet/bookgraph/pkg/cache"
)

// FakeCache is an in-memory cache.Cache[[]byte] with failure injection for
// service tests. Gets, Sets and Deletes count every call.
type FakeCache struct {
	mu    sync.Mutex
	items map[string][]byte

	SetErr    error
	DeleteErr error

	Gets    int
	Sets    int
	Deletes int
}

// NewFakeCache creates an empty fake cache.
func NewFakeCache() *FakeCache {
	return &FakeCache{items: make(map[string][]byte)}
}

// Has reports whether a key is present.
func (f *FakeCache) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.items[key]
	return ok
}

func (f *FakeCache) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Gets++
	v, ok := f.items[key]
	return v, ok
}

func (f *FakeCache) Set(key string, value []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Sets++
	if f.SetErr != nil {
		return false, f.SetErr
	}
	_, exists := f.items[key]
	f.items[key] = value
	return !exists, nil
}

func (f *FakeCache) Delete(key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Deletes++
	if f.DeleteErr != nil {
		return false, f.DeleteErr
	}
	_, exists := f.items[key]
	delete(f.items, key)
	return exists, nil
}

func (f *FakeCache) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = make(map[string][]byte)
	return nil
}

func (f *FakeCache) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *FakeCache) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	return keys
}

func (f *FakeCache) Stats() *cache.Statistics {
	return nil
}

func (f *FakeCache) Close() error {
	return nil
}

var _ cache.Cache[[]byte] = (*FakeCache)(nil)
