package treestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/backend/internal/models"
)

func node(id uint, content string, replies ...*models.CommentNode) *models.CommentNode {
	return &models.CommentNode{
		Comment: models.Comment{ID: id, Content: content},
		Replies: replies,
	}
}

// newLoadedStore builds a store holding two trees:
//
//	1 "root one"
//	├── 2 "child"
//	│   └── 3 "grandchild"
//	└── 4 "child"
//	5 "root two"
func newLoadedStore() *Store {
	s := New()
	s.Load([]*models.CommentNode{
		node(1, "root one",
			node(2, "child",
				node(3, "grandchild")),
			node(4, "child")),
		node(5, "root two"),
	}, 5)
	return s
}

func TestLoadIndexesEveryNode(t *testing.T) {
	s := newLoadedStore()
	assert.Equal(t, 5, s.Len())
	for id := uint(1); id <= 5; id++ {
		got, ok := s.Get(id)
		require.True(t, ok, "node %d should be indexed", id)
		assert.Equal(t, id, got.ID)
	}
	_, ok := s.Get(99)
	assert.False(t, ok)

	roots := s.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, uint(1), roots[0].ID)
	assert.Equal(t, uint(5), roots[1].ID)
}

func TestLoadReplacesPreviousContents(t *testing.T) {
	s := newLoadedStore()
	s.Load([]*models.CommentNode{node(7, "fresh")}, 1)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.TotalCount())
	_, ok := s.Get(1)
	assert.False(t, ok, "old nodes must be gone after a reload")
}

func TestPatchContentByID(t *testing.T) {
	s := newLoadedStore()

	require.True(t, s.PatchContent(3, "edited"))
	got, _ := s.Get(3)
	assert.Equal(t, "edited", got.Content)

	// The patch is visible through the nested structure, not just the index.
	roots := s.Roots()
	assert.Equal(t, "edited", roots[0].Replies[0].Replies[0].Content)

	assert.False(t, s.PatchContent(99, "nope"))
}

func TestMarkDeletedMasksButKeepsReplies(t *testing.T) {
	s := newLoadedStore()

	require.True(t, s.MarkDeleted(2, "[removed]"))
	got, _ := s.Get(2)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, "[removed]", got.Content)
	require.Len(t, got.Replies, 1)
	assert.Equal(t, "grandchild", got.Replies[0].Content)

	// Replies of a deleted node stay addressable.
	_, ok := s.Get(3)
	assert.True(t, ok)
}

func TestSetVoteCountsRecomputesScore(t *testing.T) {
	s := newLoadedStore()

	require.True(t, s.SetVoteCounts(4, 7, 2))
	got, _ := s.Get(4)
	assert.Equal(t, 7, got.TotalUpvotes)
	assert.Equal(t, 2, got.TotalDownvotes)
	assert.Equal(t, 5, got.VoteScore)

	assert.False(t, s.SetVoteCounts(99, 1, 0))
}

func TestAttachReplyIndexesSubtree(t *testing.T) {
	s := newLoadedStore()

	reply := node(6, "new reply", node(7, "carried along"))
	require.True(t, s.AttachReply(4, reply))

	assert.Equal(t, 7, s.Len())
	parent, _ := s.Get(4)
	require.Len(t, parent.Replies, 1)
	assert.Equal(t, uint(6), parent.Replies[0].ID)

	carried, ok := s.Get(7)
	require.True(t, ok)
	assert.Equal(t, "carried along", carried.Content)

	assert.False(t, s.AttachReply(99, node(8, "orphan")))
}

func TestReplaceSwapsSubtreeAndReindexes(t *testing.T) {
	s := newLoadedStore()

	// The confirmed version of node 2 has different replies: 3 is gone, 8 is
	// new.
	confirmed := node(2, "confirmed", node(8, "server-side reply"))
	require.True(t, s.Replace(2, confirmed))

	got, _ := s.Get(2)
	assert.Equal(t, "confirmed", got.Content)
	_, ok := s.Get(3)
	assert.False(t, ok, "replies of the replaced version must be unindexed")
	_, ok = s.Get(8)
	assert.True(t, ok)

	// The parent still points at the same child slot.
	roots := s.Roots()
	assert.Equal(t, "confirmed", roots[0].Replies[0].Content)

	assert.False(t, s.Replace(99, node(9, "nope")))
}

func TestOptimisticAdjustCommit(t *testing.T) {
	s := newLoadedStore()
	require.Equal(t, 5, s.TotalCount())

	adj := s.BeginAdjust(1)
	assert.Equal(t, 6, s.TotalCount(), "optimistic delta shows immediately")

	adj.Commit()
	assert.Equal(t, 6, s.TotalCount())

	// Settling twice has no further effect.
	adj.Commit()
	adj.Rollback()
	assert.Equal(t, 6, s.TotalCount())
}

func TestOptimisticAdjustRollback(t *testing.T) {
	s := newLoadedStore()

	adj := s.BeginAdjust(-1)
	assert.Equal(t, 4, s.TotalCount())

	adj.Rollback()
	assert.Equal(t, 5, s.TotalCount())

	adj.Commit()
	assert.Equal(t, 5, s.TotalCount(), "a settled adjustment cannot be committed later")
}

func TestOverlappingAdjustments(t *testing.T) {
	s := newLoadedStore()

	a := s.BeginAdjust(1)
	b := s.BeginAdjust(1)
	assert.Equal(t, 7, s.TotalCount())

	a.Commit()
	b.Rollback()
	assert.Equal(t, 6, s.TotalCount())
}

func TestAppendAddsRoots(t *testing.T) {
	s := newLoadedStore()
	s.Append(node(10, "next page"), node(11, "another"))

	roots := s.Roots()
	require.Len(t, roots, 4)
	assert.Equal(t, uint(10), roots[2].ID)
	_, ok := s.Get(11)
	assert.True(t, ok)
}
