package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/cache"
	"github.com/threadline/backend/internal/models"
	"github.com/threadline/backend/internal/repositories"
	"github.com/threadline/backend/internal/treepath"
)

// deletedContentMask replaces the content of soft-deleted comments at
// assembly time. The stored row keeps its content; only the returned view is
// masked.
const deletedContentMask = "[removed]"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// CommentService owns comment lifecycle, subtree assembly and the cache
// invalidation that keeps cached trees coherent with writes.
type CommentService struct {
	comments    repositories.CommentRepository
	posts       repositories.PostRepository
	memberships repositories.MembershipRepository
	cache       *cache.TagCache
}

// NewCommentService creates a new CommentService
func NewCommentService(
	comments repositories.CommentRepository,
	posts repositories.PostRepository,
	memberships repositories.MembershipRepository,
	tagCache *cache.TagCache,
) *CommentService {
	return &CommentService{
		comments:    comments,
		posts:       posts,
		memberships: memberships,
		cache:       tagCache,
	}
}

func subtreeKey(id uint) string { return fmt.Sprintf("subtree:%d", id) }

func topLevelKey(postID string, cursor uint, limit int) string {
	return fmt.Sprintf("toplevel:%s:%d:%d", postID, cursor, limit)
}

// clampLimit normalizes a requested page size.
func clampLimit(limit int) int {
	if limit < 1 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

// Create stores a new comment. The caller must be authenticated and a member
// of the post's community; a non-nil parent must belong to the same post.
func (s *CommentService) Create(ctx context.Context, authorID uint, postID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if authorID == 0 {
		return nil, apperr.AuthRequired("authentication required to comment")
	}

	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	member, err := s.memberships.IsMember(post.CommunityID, authorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperr.Forbidden("not a member of this community")
	}

	if req.ParentID != nil {
		parent, err := s.comments.GetCommentByID(*req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apperr.Validation("parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := s.comments.CreateComment(comment); err != nil {
		return nil, err
	}

	// The comment row and the post counter live in different stores, so the
	// two writes cannot share a transaction. A failure here leaves the
	// counter behind by one until the next reconciliation.
	if err := s.posts.AdjustTotalComments(ctx, postID, 1); err != nil {
		log.Printf("comment %d created but post %s counter not incremented: %v", comment.ID, postID, err)
	}

	s.invalidateForStructuralChange(comment)
	return comment, nil
}

// Update edits a comment's content. Author-only; parent and post are
// immutable.
func (s *CommentService) Update(callerID uint, id uint, req models.UpdateCommentRequest) (*models.Comment, error) {
	if callerID == 0 {
		return nil, apperr.AuthRequired("authentication required to edit")
	}

	comment, err := s.comments.GetCommentByID(id)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted {
		return nil, apperr.NotFound("comment not found")
	}
	if comment.AuthorID != callerID {
		return nil, apperr.Forbidden("only the author can edit this comment")
	}

	updated, err := s.comments.UpdateContent(id, req.Content)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(cache.TagReplies(id), cache.TagComment(id))
	return updated, nil
}

// SoftDelete masks a comment without removing it, so descendant replies keep
// a valid ancestor. Allowed for the author or a manager of the post's
// community.
func (s *CommentService) SoftDelete(ctx context.Context, callerID uint, id uint) (*models.Comment, error) {
	if callerID == 0 {
		return nil, apperr.AuthRequired("authentication required to delete")
	}

	comment, err := s.comments.GetCommentByID(id)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted {
		return nil, apperr.NotFound("comment not found")
	}
	if comment.AuthorID != callerID {
		post, err := s.posts.GetPostByID(ctx, comment.PostID)
		if err != nil {
			return nil, err
		}
		manager, err := s.memberships.IsManager(post.CommunityID, callerID)
		if err != nil {
			return nil, err
		}
		if !manager {
			return nil, apperr.Forbidden("only the author or a community manager can delete this comment")
		}
	}

	deleted, err := s.comments.MarkDeleted(id)
	if err != nil {
		return nil, err
	}

	if err := s.posts.AdjustTotalComments(ctx, comment.PostID, -1); err != nil {
		log.Printf("comment %d deleted but post %s counter not decremented: %v", id, comment.PostID, err)
	}

	s.invalidateForStructuralChange(deleted)
	s.cache.Invalidate(cache.TagReplies(id), cache.TagComment(id))

	masked := *deleted
	masked.Content = deletedContentMask
	return &masked, nil
}

// FetchSubtree loads a comment and every one of its descendants, nesting each
// level's children under Replies. Retrieval is breadth-first with one batched
// child query per level, so round trips scale with tree depth rather than
// node count. The assembled tree is cached under the root's replies tag plus
// one comment tag per visited node.
func (s *CommentService) FetchSubtree(id uint) (*models.CommentNode, error) {
	key := subtreeKey(id)
	if cached, ok := s.cache.Get(key); ok {
		if node, ok := cached.(*models.CommentNode); ok {
			return node, nil
		}
	}

	root, err := s.comments.GetCommentByID(id)
	if err != nil {
		return nil, err
	}

	nodes, tags, err := s.assembleForest([]models.Comment{*root})
	if err != nil {
		return nil, err
	}
	tree := nodes[0]

	s.cache.Set(key, tree, append(tags, cache.TagReplies(id))...)
	return tree, nil
}

// ListTopLevel returns one page of a post's top-level comments in creation
// order, each with its full subtree attached. The cursor is the row id of the
// last comment on the previous page.
func (s *CommentService) ListTopLevel(ctx context.Context, postID string, cursor uint, limit int) (*models.CommentTreePage, error) {
	limit = clampLimit(limit)

	key := topLevelKey(postID, cursor, limit)
	if cached, ok := s.cache.Get(key); ok {
		if page, ok := cached.(*models.CommentTreePage); ok {
			return page, nil
		}
	}

	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}

	rows, err := s.comments.ListTopLevel(postID, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		nextCursor = strconv.FormatUint(uint64(rows[limit-1].ID), 10)
	}

	nodes, tags, err := s.assembleForest(rows)
	if err != nil {
		return nil, err
	}

	page := &models.CommentTreePage{Comments: nodes, NextCursor: nextCursor}
	s.cache.Set(key, page, append(tags, cache.TagPostComments(postID))...)
	return page, nil
}

// ListByAuthor returns one page of a user's comments under the requested
// order. Unsupported sort fields fall back to created_at descending inside
// the store.
func (s *CommentService) ListByAuthor(userID uint, cursor uint, limit int, sortBy, sortOrder string) (*models.CommentPage, error) {
	limit = clampLimit(limit)

	rows, err := s.comments.ListByAuthor(userID, cursor, limit+1, sortBy, sortOrder)
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		nextCursor = strconv.FormatUint(uint64(rows[limit-1].ID), 10)
	}

	for i := range rows {
		if rows[i].IsDeleted {
			rows[i].Content = deletedContentMask
		}
	}

	return &models.CommentPage{Comments: rows, NextCursor: nextCursor}, nil
}

// assembleForest materializes the full subtree below each root comment. All
// roots share one breadth-first frontier, so a page of top-level comments
// still costs one child query per tree level. Path coordinates are assigned
// from the assembled arena: roots get their index within the fetched page,
// children their index among fetched siblings. Soft-deleted nodes are masked
// in place.
//
// The returned tags carry one comment tag per visited node, which is what
// lets a write anywhere inside a cached tree evict it.
func (s *CommentService) assembleForest(roots []models.Comment) ([]*models.CommentNode, []string, error) {
	nodes := make([]*models.CommentNode, 0, len(roots))
	index := make(map[uint]*models.CommentNode, len(roots))
	tags := make([]string, 0, len(roots))

	frontier := make([]uint, 0, len(roots))
	for i := range roots {
		node := &models.CommentNode{Comment: roots[i], Replies: []*models.CommentNode{}}
		nodes = append(nodes, node)
		index[node.ID] = node
		frontier = append(frontier, node.ID)
		tags = append(tags, cache.TagComment(node.ID))
	}

	for len(frontier) > 0 {
		children, err := s.comments.ListByParentIDs(frontier)
		if err != nil {
			return nil, nil, err
		}
		frontier = frontier[:0]
		for i := range children {
			child := &models.CommentNode{Comment: children[i], Replies: []*models.CommentNode{}}
			parent := index[*child.ParentID]
			parent.Replies = append(parent.Replies, child)
			index[child.ID] = child
			frontier = append(frontier, child.ID)
			tags = append(tags, cache.TagComment(child.ID))
		}
	}

	for i, node := range nodes {
		assignPaths(node, treepath.Path{i})
	}
	return nodes, tags, nil
}

// assignPaths stamps each node with its position among fetched siblings,
// depth-first so the coordinates are consistent with document order.
func assignPaths(node *models.CommentNode, path treepath.Path) {
	node.Path = path
	if node.IsDeleted {
		node.Content = deletedContentMask
	}
	for i, reply := range node.Replies {
		child := make(treepath.Path, len(path), len(path)+1)
		copy(child, path)
		assignPaths(reply, append(child, i))
	}
}

// invalidateForStructuralChange evicts everything whose sibling set or count
// changed: the post's top-level listings, the parent's cached subtree, any
// cached ancestor tree that contains the parent, and the author's feed.
func (s *CommentService) invalidateForStructuralChange(comment *models.Comment) {
	tags := []string{
		cache.TagPostComments(comment.PostID),
		cache.TagUserPosts(comment.AuthorID),
	}
	if comment.ParentID != nil {
		tags = append(tags,
			cache.TagReplies(*comment.ParentID),
			cache.TagComment(*comment.ParentID),
		)
	}
	s.cache.Invalidate(tags...)
}
