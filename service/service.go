package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/booknet/bookgraph/docstore"
	"github.com/booknet/bookgraph/dualwrite"
	"github.com/booknet/bookgraph/entity"
	"github.com/booknet/bookgraph/pkg/cache"
)

// DefaultNamespace prefixes every cache key.
const DefaultNamespace = "booknet"

// defaultListLimit bounds unfiltered listings.
const defaultListLimit = 100

// Deps bundles the collaborators every entity service needs.
type Deps struct {
	Docs      docstore.Store
	Coord     *dualwrite.Coordinator
	Cache     cache.Cache[[]byte]
	Logger    *slog.Logger
	Namespace string
}

func (d Deps) namespace() string {
	if d.Namespace == "" {
		return DefaultNamespace
	}
	return d.Namespace
}

// cacheSide implements the cache-aside discipline shared by all entity
// services. All cache failures are logged and swallowed: the cache is never
// authoritative and must never fail an operation.
type cacheSide struct {
	cache     cache.Cache[[]byte]
	logger    *slog.Logger
	namespace string
	kind      entity.Kind
}

func newCacheSide(d Deps, kind entity.Kind) cacheSide {
	return cacheSide{
		cache:     d.Cache,
		logger:    d.Logger,
		namespace: d.namespace(),
		kind:      kind,
	}
}

func (c cacheSide) itemKey(key string) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, c.kind, key)
}

func (c cacheSide) listKey() string {
	return fmt.Sprintf("%s:%s:list", c.namespace, c.kind)
}

// get decodes a cached payload into out, reporting a miss on any decode
// failure and dropping the poisoned entry.
func (c cacheSide) get(key string, out any) bool {
	data, ok := c.cache.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		c.evict(key)
		return false
	}
	return true
}

// put serializes v under key.
func (c cacheSide) put(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache serialization failed", "key", key, "error", err)
		return
	}
	if _, err := c.cache.Set(key, data); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// evict removes the given keys.
func (c cacheSide) evict(keys ...string) {
	for _, key := range keys {
		if _, err := c.cache.Delete(key); err != nil {
			c.logger.Warn("cache evict failed", "key", key, "error", err)
		}
	}
}

// refreshItem re-reads the document of record into out (a typed pointer)
// and writes it through the item cache key, evicting the key when the read
// fails so a stale value is never served.
func (c cacheSide) refreshItem(ctx context.Context, docs docstore.Store, collection, id, key string, out any) {
	if err := docs.FindByID(ctx, nil, collection, id, out); err != nil {
		c.evict(key)
		return
	}
	c.put(key, out)
}
