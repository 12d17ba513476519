package repositories

import (
	"errors"
	"fmt"

	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/models"
	"gorm.io/gorm"
)

// Comment sort fields accepted by ListByAuthor. Anything else falls back to
// created_at descending.
const (
	CommentSortCreatedAt = "created_at"
	CommentSortUpdatedAt = "updated_at"
	CommentSortVoteScore = "vote_score"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(comment *models.Comment) error
	GetCommentByID(id uint) (*models.Comment, error)
	UpdateContent(id uint, content string) (*models.Comment, error)
	MarkDeleted(id uint) (*models.Comment, error)
	ListTopLevel(postID string, cursorID uint, limit int) ([]models.Comment, error)
	ListByAuthor(userID uint, cursorID uint, limit int, sortBy, sortOrder string) ([]models.Comment, error)
	ListByParentIDs(parentIDs []uint) ([]models.Comment, error)
	ListRecentByAuthor(userID uint, limit int, descending bool) ([]models.Comment, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment row
func (r *PostgresCommentRepository) CreateComment(comment *models.Comment) error {
	if err := r.db.Create(comment).Error; err != nil {
		return apperr.Internal("failed to create comment", err)
	}
	return nil
}

// GetCommentByID retrieves a comment by ID
func (r *PostgresCommentRepository) GetCommentByID(id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, apperr.Internal("failed to load comment", err)
	}
	return &comment, nil
}

// UpdateContent replaces a comment's content and bumps updated_at. ParentID
// and PostID are never touched.
func (r *PostgresCommentRepository) UpdateContent(id uint, content string) (*models.Comment, error) {
	res := r.db.Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return nil, apperr.Internal("failed to update comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("comment not found")
	}
	return r.GetCommentByID(id)
}

// MarkDeleted soft-deletes a comment. The row is kept so descendant replies
// retain a valid ancestor.
func (r *PostgresCommentRepository) MarkDeleted(id uint) (*models.Comment, error) {
	res := r.db.Model(&models.Comment{}).Where("id = ?", id).Update("is_deleted", true)
	if res.Error != nil {
		return nil, apperr.Internal("failed to delete comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("comment not found")
	}
	return r.GetCommentByID(id)
}

// ListTopLevel returns up to limit top-level comments of a post in creation
// order, seeking past cursorID instead of offset-skipping so page depth does
// not degrade the query.
func (r *PostgresCommentRepository) ListTopLevel(postID string, cursorID uint, limit int) ([]models.Comment, error) {
	q := r.db.Where("post_id = ? AND parent_id IS NULL", postID)
	if cursorID > 0 {
		q = q.Where("id > ?", cursorID)
	}
	var comments []models.Comment
	if err := q.Order("id ASC").Limit(limit).Find(&comments).Error; err != nil {
		return nil, apperr.Internal("failed to list top-level comments", err)
	}
	return comments, nil
}

// ListByAuthor returns up to limit comments by a user under the requested
// order, keyset-seeking from the cursor row. The seek compares the
// (sort key, id) tuple so ties on non-unique sort keys stay deterministic.
func (r *PostgresCommentRepository) ListByAuthor(userID uint, cursorID uint, limit int, sortBy, sortOrder string) ([]models.Comment, error) {
	switch sortBy {
	case CommentSortCreatedAt, CommentSortUpdatedAt, CommentSortVoteScore:
	default:
		sortBy = CommentSortCreatedAt
		sortOrder = "desc"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	q := r.db.Where("author_id = ?", userID)
	if cursorID > 0 {
		var after models.Comment
		if err := r.db.First(&after, cursorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validation("unknown pagination cursor")
			}
			return nil, apperr.Internal("failed to resolve pagination cursor", err)
		}
		sortVal := map[string]interface{}{
			CommentSortCreatedAt: after.CreatedAt,
			CommentSortUpdatedAt: after.UpdatedAt,
			CommentSortVoteScore: after.VoteScore,
		}[sortBy]
		if sortOrder == "asc" {
			q = q.Where(fmt.Sprintf("(%s, id) > (?, ?)", sortBy), sortVal, after.ID)
		} else {
			q = q.Where(fmt.Sprintf("(%s, id) < (?, ?)", sortBy), sortVal, after.ID)
		}
	}

	var comments []models.Comment
	err := q.Order(fmt.Sprintf("%s %s, id %s", sortBy, sortOrder, sortOrder)).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, apperr.Internal("failed to list comments by author", err)
	}
	return comments, nil
}

// ListByParentIDs returns the direct children of every given parent in one
// query, ordered so siblings come back in creation order. This is the
// per-level batch behind subtree assembly.
func (r *PostgresCommentRepository) ListByParentIDs(parentIDs []uint) ([]models.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var comments []models.Comment
	err := r.db.Where("parent_id IN ?", parentIDs).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, apperr.Internal("failed to list replies", err)
	}
	return comments, nil
}

// ListRecentByAuthor returns a user's most recent comments without a cursor,
// used as one source of the merged activity feed.
func (r *PostgresCommentRepository) ListRecentByAuthor(userID uint, limit int, descending bool) ([]models.Comment, error) {
	dir := "ASC"
	if descending {
		dir = "DESC"
	}
	var comments []models.Comment
	err := r.db.Where("author_id = ?", userID).
		Order(fmt.Sprintf("created_at %s, id %s", dir, dir)).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, apperr.Internal("failed to list recent comments", err)
	}
	return comments, nil
}
