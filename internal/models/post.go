package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a community submission stored in MongoDB. The Total* fields are
// denormalized counters maintained with single-document atomic $inc updates.
type Post struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID       uint               `json:"author_id" bson:"author_id"`
	CommunityID    string             `json:"community_id" bson:"community_id"`
	Title          string             `json:"title" bson:"title"`
	Content        string             `json:"content" bson:"content"`
	TotalComments  int                `json:"total_comments" bson:"total_comments"`
	TotalUpvotes   int                `json:"total_upvotes" bson:"total_upvotes"`
	TotalDownvotes int                `json:"total_downvotes" bson:"total_downvotes"`
	VoteScore      int                `json:"vote_score" bson:"vote_score"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	CommunityID string `json:"community_id" validate:"required"`
	Title       string `json:"title" validate:"required,min=1,max=300"`
	Content     string `json:"content" validate:"required,min=1,max=40000"`
}
