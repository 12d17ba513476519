// Package treestore holds a session's mutable in-memory copy of a fetched
// comment tree and applies optimistic, then confirmed, patches to it. The
// store is injectable and owned exclusively by the session that fetched the
// tree; it is never shared across requests.
//
// Nodes are addressed through an id index, so patch-by-id is a map lookup
// instead of a depth-first search of the nested structure.
package treestore

import (
	"sync"

	"github.com/threadline/backend/internal/models"
)

// Store is a mutable copy of a comment list/subtree plus a separately
// tracked total comment count.
type Store struct {
	mu         sync.Mutex
	roots      []*models.CommentNode
	index      map[uint]*models.CommentNode
	totalCount int
	pending    int // net optimistic adjustment awaiting confirmation
}

// New creates an empty Store.
func New() *Store {
	return &Store{index: make(map[uint]*models.CommentNode)}
}

// Load replaces the store's contents with a freshly fetched tree and its
// server-reported total count.
func (s *Store) Load(roots []*models.CommentNode, totalCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roots = nil
	s.index = make(map[uint]*models.CommentNode)
	s.totalCount = totalCount
	s.pending = 0
	for _, root := range roots {
		s.roots = append(s.roots, root)
		s.indexSubtree(root)
	}
}

// Append adds loaded top-level nodes (a new comment or the next page) to the
// end of the root list.
func (s *Store) Append(nodes ...*models.CommentNode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, node := range nodes {
		s.roots = append(s.roots, node)
		s.indexSubtree(node)
	}
}

// Roots returns the current top-level nodes in order.
func (s *Store) Roots() []*models.CommentNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.CommentNode, len(s.roots))
	copy(out, s.roots)
	return out
}

// Get returns the node with the given id, if present.
func (s *Store) Get(id uint) (*models.CommentNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := s.index[id]
	return node, ok
}

// Len reports how many nodes the store currently holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// PatchContent replaces the content of the node with the given id.
func (s *Store) PatchContent(id uint, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.index[id]
	if !ok {
		return false
	}
	node.Content = content
	return true
}

// MarkDeleted flags a node as deleted and masks its content. Its replies are
// untouched.
func (s *Store) MarkDeleted(id uint, mask string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.index[id]
	if !ok {
		return false
	}
	node.IsDeleted = true
	node.Content = mask
	return true
}

// SetVoteCounts updates a node's vote counters and recomputes its score.
func (s *Store) SetVoteCounts(id uint, upvotes, downvotes int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.index[id]
	if !ok {
		return false
	}
	node.TotalUpvotes = upvotes
	node.TotalDownvotes = downvotes
	node.VoteScore = upvotes - downvotes
	return true
}

// AttachReply places a freshly created reply under its parent and indexes
// it (and any replies it already carries).
func (s *Store) AttachReply(parentID uint, reply *models.CommentNode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.index[parentID]
	if !ok {
		return false
	}
	parent.Replies = append(parent.Replies, reply)
	s.indexSubtree(reply)
	return true
}

// Replace swaps the node with the given id for a server-confirmed version,
// replies included, keeping the parent's child order.
func (s *Store) Replace(id uint, node *models.CommentNode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.index[id]
	if !ok {
		return false
	}
	s.unindexSubtree(existing)
	*existing = *node
	s.indexSubtree(existing)
	return true
}

// TotalCount reports the tracked total including unconfirmed optimistic
// adjustments.
func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalCount + s.pending
}

// Adjustment is an optimistic counter change awaiting its server round trip.
// Exactly one of Commit or Rollback takes effect; later calls are no-ops.
type Adjustment struct {
	store *Store
	delta int
	once  sync.Once
}

// BeginAdjust applies delta to the visible total immediately and returns a
// handle to settle it once the server responds.
func (s *Store) BeginAdjust(delta int) *Adjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending += delta
	return &Adjustment{store: s, delta: delta}
}

// Commit folds the optimistic delta into the confirmed total.
func (a *Adjustment) Commit() {
	a.once.Do(func() {
		a.store.mu.Lock()
		defer a.store.mu.Unlock()
		a.store.pending -= a.delta
		a.store.totalCount += a.delta
	})
}

// Rollback withdraws the optimistic delta after a failed round trip.
func (a *Adjustment) Rollback() {
	a.once.Do(func() {
		a.store.mu.Lock()
		defer a.store.mu.Unlock()
		a.store.pending -= a.delta
	})
}

// indexSubtree registers a node and all its descendants. Callers hold mu.
func (s *Store) indexSubtree(node *models.CommentNode) {
	s.index[node.ID] = node
	for _, reply := range node.Replies {
		s.indexSubtree(reply)
	}
}

// unindexSubtree removes a node and all its descendants. Callers hold mu.
func (s *Store) unindexSubtree(node *models.CommentNode) {
	delete(s.index, node.ID)
	for _, reply := range node.Replies {
		s.unindexSubtree(reply)
	}
}
