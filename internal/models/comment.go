package models

import (
	"time"

	"github.com/threadline/backend/internal/treepath"
)

// Comment represents one node of a post's reply forest.
// ParentID is nil for top-level comments; replies keep pointing at their
// parent even after the parent is soft-deleted, so the tree never loses
// an interior node.
type Comment struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	PostID         string    `json:"post_id" gorm:"index;not null"` // MongoDB ObjectID of the owning post, as hex string
	AuthorID       uint      `json:"author_id" gorm:"index;not null"`
	ParentID       *uint     `json:"parent_id,omitempty" gorm:"index"` // nil for top-level comments
	Content        string    `json:"content" gorm:"type:text;not null"`
	IsDeleted      bool      `json:"is_deleted" gorm:"default:false"`
	TotalUpvotes   int       `json:"total_upvotes" gorm:"default:0"`
	TotalDownvotes int       `json:"total_downvotes" gorm:"default:0"`
	VoteScore      int       `json:"vote_score" gorm:"index;default:0"` // denormalized total_upvotes - total_downvotes, kept for sorting
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CommentNode is a comment plus its assembled reply subtree. Path locates the
// node among its fetched siblings, one index per level; it is recomputed on
// every fetch and never persisted.
type CommentNode struct {
	Comment
	Path    treepath.Path  `json:"path"`
	Replies []*CommentNode `json:"replies"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=10000"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// UpdateCommentRequest defines the request body for editing an existing comment
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

// CommentPage is one page of a cursor-paginated comment listing.
type CommentPage struct {
	Comments   []Comment `json:"comments"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// CommentTreePage is one page of top-level comments with their full subtrees
// attached.
type CommentTreePage struct {
	Comments   []*CommentNode `json:"comments"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
