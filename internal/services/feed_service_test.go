package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/backend/internal/apperr"
)

func newFeedTestEnv(t *testing.T) (*commentTestEnv, *FeedService) {
	t.Helper()
	env := newCommentTestEnv(t)
	return env, NewFeedService(env.posts, env.comments, env.cache)
}

// seedActivity interleaves posts and comments for user 1. The fakes stamp
// creation times from one shared-per-repo second-granularity clock, so the
// relative order within each kind is deterministic.
func seedActivity(t *testing.T, env *commentTestEnv, posts, comments int) {
	t.Helper()
	postID := env.seedPost(t, 1, 1)
	for i := 1; i < posts; i++ {
		env.seedPost(t, 1, 1)
	}
	for i := 0; i < comments; i++ {
		env.mustCreate(t, 1, postID, nil, "activity")
	}
}

func TestUserFeedMergesBothKinds(t *testing.T) {
	env, feed := newFeedTestEnv(t)
	seedActivity(t, env, 2, 3)

	page, err := feed.UserFeed(context.Background(), 1, "", 10, "desc")
	require.NoError(t, err)
	require.Len(t, page.Items, 5)

	kinds := map[string]int{}
	for _, item := range page.Items {
		kinds[item.Kind]++
		switch item.Kind {
		case "post":
			require.NotNil(t, item.Post)
			assert.Nil(t, item.Comment)
			assert.Equal(t, item.Post.CreatedAt, item.CreatedAt)
		case "comment":
			require.NotNil(t, item.Comment)
			assert.Nil(t, item.Post)
			assert.Equal(t, item.Comment.CreatedAt, item.CreatedAt)
		default:
			t.Fatalf("unexpected feed kind %q", item.Kind)
		}
	}
	assert.Equal(t, 2, kinds["post"])
	assert.Equal(t, 3, kinds["comment"])

	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt),
			"feed must be sorted newest first")
	}
}

func TestUserFeedAscendingOrder(t *testing.T) {
	env, feed := newFeedTestEnv(t)
	seedActivity(t, env, 2, 2)

	page, err := feed.UserFeed(context.Background(), 1, "", 10, "asc")
	require.NoError(t, err)
	require.Len(t, page.Items, 4)
	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.Before(page.Items[i-1].CreatedAt),
			"feed must be sorted oldest first")
	}
}

func TestUserFeedCursorPagination(t *testing.T) {
	env, feed := newFeedTestEnv(t)
	seedActivity(t, env, 3, 5)
	ctx := context.Background()

	page1, err := feed.UserFeed(ctx, 1, "", 3, "desc")
	require.NoError(t, err)
	require.Len(t, page1.Items, 3)
	require.NotEmpty(t, page1.NextCursor)

	page2, err := feed.UserFeed(ctx, 1, page1.NextCursor, 3, "desc")
	require.NoError(t, err)
	require.NotEmpty(t, page2.Items)

	// Every item on page two is strictly older than the cursor.
	cursorTime, err := time.Parse(time.RFC3339Nano, page1.NextCursor)
	require.NoError(t, err)
	for _, item := range page2.Items {
		assert.True(t, item.CreatedAt.Before(cursorTime))
	}

	// No overlap between pages.
	seen := map[string]bool{}
	for _, item := range page1.Items {
		seen[item.CreatedAt.Format(time.RFC3339Nano)] = true
	}
	for _, item := range page2.Items {
		assert.False(t, seen[item.CreatedAt.Format(time.RFC3339Nano)])
	}
}

func TestUserFeedRejectsMalformedCursor(t *testing.T) {
	_, feed := newFeedTestEnv(t)
	_, err := feed.UserFeed(context.Background(), 1, "not-a-timestamp", 10, "desc")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUserFeedMasksDeletedComments(t *testing.T) {
	env, feed := newFeedTestEnv(t)
	postID := env.seedPost(t, 1, 1)
	c := env.mustCreate(t, 1, postID, nil, "secret")
	_, err := env.svc.SoftDelete(context.Background(), 1, c.ID)
	require.NoError(t, err)

	page, err := feed.UserFeed(context.Background(), 1, "", 10, "desc")
	require.NoError(t, err)

	var found bool
	for _, item := range page.Items {
		if item.Kind == "comment" && item.Comment.ID == c.ID {
			found = true
			assert.Equal(t, "[removed]", item.Comment.Content)
		}
	}
	assert.True(t, found, "deleted comment should still appear, masked")
}

func TestUserFeedOverFetchesEachSource(t *testing.T) {
	env, feed := newFeedTestEnv(t)
	seedActivity(t, env, 1, 1)

	_, err := feed.UserFeed(context.Background(), 1, "", 10, "desc")
	require.NoError(t, err)
	assert.Equal(t, 20, env.posts.lastLimit, "each source is fetched at twice the page size")
}

func TestUserFeedFirstPageIsCachedAndEvictedOnNewComment(t *testing.T) {
	env, feed := newFeedTestEnv(t)
	postID := env.seedPost(t, 1, 1)
	env.mustCreate(t, 1, postID, nil, "one")
	ctx := context.Background()

	page, err := feed.UserFeed(ctx, 1, "", 10, "desc")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	again, err := feed.UserFeed(ctx, 1, "", 10, "desc")
	require.NoError(t, err)
	assert.Same(t, page, again)

	// A new comment by the user evicts the cached first page.
	env.mustCreate(t, 1, postID, nil, "two")

	fresh, err := feed.UserFeed(ctx, 1, "", 10, "desc")
	require.NoError(t, err)
	assert.Len(t, fresh.Items, 3)
}

func TestUserFeedEmpty(t *testing.T) {
	_, feed := newFeedTestEnv(t)
	page, err := feed.UserFeed(context.Background(), 42, "", 10, "desc")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
}
