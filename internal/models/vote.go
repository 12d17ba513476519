package models

import "time"

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteTypeUp   VoteType = "UPVOTE"
	VoteTypeDown VoteType = "DOWNVOTE"
)

// Valid reports whether t is one of the two known vote directions.
func (t VoteType) Valid() bool {
	return t == VoteTypeUp || t == VoteTypeDown
}

// Vote is one user's vote on a single target. Exactly one of PostID and
// CommentID is set. Uniqueness per (user, target) is enforced by partial
// unique indexes created in the store, not by application logic alone.
type Vote struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	PostID    *string   `json:"post_id,omitempty" gorm:"index"`
	CommentID *uint     `json:"comment_id,omitempty" gorm:"index"`
	Type      VoteType  `json:"type" gorm:"size:16;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CastVoteRequest defines the request body for casting or switching a vote
type CastVoteRequest struct {
	Type VoteType `json:"type" validate:"required,oneof=UPVOTE DOWNVOTE"`
}
