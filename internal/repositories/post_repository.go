package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations. Counter
// maintenance relies on MongoDB's atomic single-document $inc.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListRecentByAuthor(ctx context.Context, authorID uint, limit int, descending bool) ([]models.Post, error)
	AdjustTotalComments(ctx context.Context, postID string, delta int) error
	ApplyVoteDeltas(ctx context.Context, postID string, upDelta, downDelta int) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post document
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return apperr.Internal("failed to create post", err)
	}
	return nil
}

// GetPostByID retrieves a post by its hex ObjectID
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validation("invalid post ID format")
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, apperr.Internal("failed to load post", err)
	}
	return &post, nil
}

// ListRecentByAuthor returns an author's most recent posts without a cursor,
// used as one source of the merged activity feed.
func (r *MongoPostRepository) ListRecentByAuthor(ctx context.Context, authorID uint, limit int, descending bool) ([]models.Post, error) {
	dir := 1
	if descending {
		dir = -1
	}
	findOptions := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}})

	cursor, err := r.collection.Find(ctx, bson.M{"author_id": authorID}, findOptions)
	if err != nil {
		return nil, apperr.Internal("failed to list posts by author", err)
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, apperr.Internal("failed to decode posts", err)
	}
	return posts, nil
}

// AdjustTotalComments atomically adds delta to a post's total_comments.
func (r *MongoPostRepository) AdjustTotalComments(ctx context.Context, postID string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return apperr.Validation("invalid post ID format")
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID},
		bson.M{"$inc": bson.M{"total_comments": delta}})
	if err != nil {
		return apperr.Internal("failed to adjust comment count", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post not found")
	}
	return nil
}

// ApplyVoteDeltas adjusts both vote counters and the derived vote_score in a
// single atomic document update, so the three fields move together.
func (r *MongoPostRepository) ApplyVoteDeltas(ctx context.Context, postID string, upDelta, downDelta int) error {
	if upDelta == 0 && downDelta == 0 {
		return nil
	}
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return apperr.Validation("invalid post ID format")
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$inc": bson.M{
			"total_upvotes":   upDelta,
			"total_downvotes": downDelta,
			"vote_score":      upDelta - downDelta,
		},
	})
	if err != nil {
		return apperr.Internal("failed to apply vote counters", err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post not found")
	}
	return nil
}
