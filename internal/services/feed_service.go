package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/cache"
	"github.com/threadline/backend/internal/models"
	"github.com/threadline/backend/internal/repositories"
)

// FeedItem is one entry of a user's merged posts-and-comments feed, tagged by
// kind so clients can render each shape.
type FeedItem struct {
	Kind      string          `json:"kind"` // "post" or "comment"
	CreatedAt time.Time       `json:"created_at"`
	Post      *models.Post    `json:"post,omitempty"`
	Comment   *models.Comment `json:"comment,omitempty"`
}

// FeedPage is one page of the merged feed. NextCursor is the created_at
// timestamp of the last item, RFC3339Nano-encoded.
type FeedPage struct {
	Items      []FeedItem `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FeedService merges a user's posts and comments into one chronologically
// sorted feed. Each source is over-fetched to twice the page size with no
// store-level cursor; items whose timestamps fall outside that window can be
// missed or repeated across pages. That approximation is the accepted
// trade-off of this design.
type FeedService struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	cache    *cache.TagCache
}

// NewFeedService creates a new FeedService
func NewFeedService(posts repositories.PostRepository, comments repositories.CommentRepository, tagCache *cache.TagCache) *FeedService {
	return &FeedService{posts: posts, comments: comments, cache: tagCache}
}

func feedKey(userID uint, limit int, descending bool) string {
	return fmt.Sprintf("feed:%d:%d:%t", userID, limit, descending)
}

// UserFeed returns one page of a user's merged activity. cursor is an
// RFC3339Nano timestamp or empty for the first page; sortOrder is "asc" or
// "desc" (default).
func (s *FeedService) UserFeed(ctx context.Context, userID uint, cursor string, limit int, sortOrder string) (*FeedPage, error) {
	limit = clampLimit(limit)
	descending := sortOrder != "asc"

	var cursorTime time.Time
	if cursor != "" {
		t, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, apperr.Validation("feed cursor must be an RFC3339 timestamp")
		}
		cursorTime = t
	}

	firstPage := cursor == ""
	key := feedKey(userID, limit, descending)
	if firstPage {
		if cached, ok := s.cache.Get(key); ok {
			if page, ok := cached.(*FeedPage); ok {
				return page, nil
			}
		}
	}

	posts, err := s.posts.ListRecentByAuthor(ctx, userID, 2*limit, descending)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListRecentByAuthor(userID, 2*limit, descending)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(posts)+len(comments))
	for i := range posts {
		items = append(items, FeedItem{Kind: "post", CreatedAt: posts[i].CreatedAt, Post: &posts[i]})
	}
	for i := range comments {
		c := comments[i]
		if c.IsDeleted {
			c.Content = deletedContentMask
		}
		items = append(items, FeedItem{Kind: "comment", CreatedAt: c.CreatedAt, Comment: &c})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if descending {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	if !cursorTime.IsZero() {
		filtered := items[:0]
		for _, it := range items {
			if descending && it.CreatedAt.Before(cursorTime) {
				filtered = append(filtered, it)
			} else if !descending && it.CreatedAt.After(cursorTime) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	if len(items) > limit {
		items = items[:limit]
	}

	page := &FeedPage{Items: items}
	if len(items) > 0 {
		page.NextCursor = items[len(items)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	if firstPage {
		s.cache.Set(key, page, cache.TagUserPosts(userID))
	}
	return page, nil
}
