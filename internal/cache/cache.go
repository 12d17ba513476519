// Package cache provides an in-process LRU cache with tag-based group
// invalidation. Every entry records the tag set it was stored under;
// invalidating any one tag evicts every entry carrying it. The cache is
// advisory: the store stays the source of truth and readers that miss simply
// recompute and re-tag.
package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Tag builders. Keys follow the <entity>-<id> convention shared with the
// invalidation policy in the comment service.
func TagPostComments(postID string) string { return fmt.Sprintf("comments-%s", postID) }
func TagReplies(commentID uint) string     { return fmt.Sprintf("replies-%d", commentID) }
func TagComment(commentID uint) string     { return fmt.Sprintf("comment-%d", commentID) }
func TagUserPosts(userID uint) string      { return fmt.Sprintf("posts-%d", userID) }

type entry struct {
	data      interface{}
	tags      []string
	expiresAt time.Time
}

// TagCache wraps an LRU cache with a TTL per entry and a tag-to-keys index.
type TagCache struct {
	mu   sync.Mutex
	lru  *lru.Cache[string, entry]
	tags map[string]map[string]struct{}
	ttl  time.Duration
}

// New creates a TagCache holding at most size entries, each valid for ttl.
func New(size int, ttl time.Duration) (*TagCache, error) {
	c := &TagCache{
		tags: make(map[string]map[string]struct{}),
		ttl:  ttl,
	}
	// The eviction callback runs while mu is already held by the mutating
	// call, so it must not lock.
	l, err := lru.NewWithEvict[string, entry](size, func(key string, e entry) {
		c.dropFromIndex(key, e.tags)
	})
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Set stores data under key and registers it with every given tag.
func (c *TagCache) Set(key string, data interface{}, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.lru.Peek(key); ok {
		c.dropFromIndex(key, old.tags)
	}
	c.lru.Add(key, entry{
		data:      data,
		tags:      tags,
		expiresAt: time.Now().Add(c.ttl),
	})
	for _, tag := range tags {
		keys, ok := c.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// Get returns the cached value for key, or false on a miss or an expired
// entry.
func (c *TagCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.data, true
}

// Invalidate evicts every entry carrying any of the given tags.
func (c *TagCache) Invalidate(tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tag := range tags {
		for key := range c.tags[tag] {
			c.lru.Remove(key)
		}
		delete(c.tags, tag)
	}
}

// Len reports the number of live entries.
func (c *TagCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// dropFromIndex unlinks key from the tag index. Callers hold mu.
func (c *TagCache) dropFromIndex(key string, tags []string) {
	for _, tag := range tags {
		if keys, ok := c.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.tags, tag)
			}
		}
	}
}
