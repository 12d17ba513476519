package repositories

import (
	"errors"

	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository defines the interface for vote-ledger operations. The
// comment variants update the denormalized counters in the same transaction
// as the vote row; the post variants return counter deltas for the caller to
// apply to the post document, since posts live in a different store.
type VoteRepository interface {
	CastCommentVote(userID, commentID uint, voteType models.VoteType) (*models.Vote, error)
	DeleteCommentVote(userID, commentID uint) (*models.Vote, error)
	CastPostVote(userID uint, postID string, voteType models.VoteType) (*models.Vote, int, int, error)
	DeletePostVote(userID uint, postID string) (*models.Vote, int, int, error)
	GetCommentVote(userID, commentID uint) (*models.Vote, error)
}

// PostgresVoteRepository implements VoteRepository for PostgreSQL
type PostgresVoteRepository struct {
	db *gorm.DB
}

// NewPostgresVoteRepository creates a new PostgresVoteRepository
func NewPostgresVoteRepository(db *gorm.DB) *PostgresVoteRepository {
	return &PostgresVoteRepository{db: db}
}

// EnsureVoteIndexes creates the partial unique indexes enforcing at most one
// vote per (user, target). GORM struct tags cannot express partial indexes,
// so they are created here after AutoMigrate.
func EnsureVoteIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_user_post ON votes (user_id, post_id) WHERE post_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_user_comment ON votes (user_id, comment_id) WHERE comment_id IS NOT NULL`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// counterDeltas maps a vote transition onto (upvote delta, downvote delta).
func counterDeltas(prev, next *models.VoteType) (int, int) {
	du, dd := 0, 0
	if prev != nil {
		if *prev == models.VoteTypeUp {
			du--
		} else {
			dd--
		}
	}
	if next != nil {
		if *next == models.VoteTypeUp {
			du++
		} else {
			dd++
		}
	}
	return du, dd
}

// CastCommentVote creates a vote for (user, comment) or switches the type of
// the existing one, adjusting the comment's counters and vote_score in the
// same transaction. The existing vote row is locked so concurrent casts on
// the same (user, comment) serialize.
func (r *PostgresVoteRepository) CastCommentVote(userID, commentID uint, voteType models.VoteType) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND comment_id = ?", userID, commentID).
			First(&vote).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.Vote{UserID: userID, CommentID: &commentID, Type: voteType}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			du, dd := counterDeltas(nil, &voteType)
			return applyCommentCounters(tx, commentID, du, dd)
		case err != nil:
			return err
		case vote.Type == voteType:
			// Same direction again: no-op, counters already reflect it.
			return nil
		default:
			oldType := vote.Type
			vote.Type = voteType
			if err := tx.Model(&vote).Update("type", voteType).Error; err != nil {
				return err
			}
			du, dd := counterDeltas(&oldType, &voteType)
			return applyCommentCounters(tx, commentID, du, dd)
		}
	})
	if err != nil {
		return nil, apperr.Internal("failed to cast comment vote", err)
	}
	return &vote, nil
}

// DeleteCommentVote retracts a user's vote on a comment and rolls its
// counters back in the same transaction.
func (r *PostgresVoteRepository) DeleteCommentVote(userID, commentID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND comment_id = ?", userID, commentID).
			First(&vote).Error
		if err != nil {
			return err
		}
		if err := tx.Delete(&vote).Error; err != nil {
			return err
		}
		du, dd := counterDeltas(&vote.Type, nil)
		return applyCommentCounters(tx, commentID, du, dd)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("vote not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to delete comment vote", err)
	}
	return &vote, nil
}

// CastPostVote writes the vote row for a post target and returns the counter
// deltas the caller must apply to the post document.
func (r *PostgresVoteRepository) CastPostVote(userID uint, postID string, voteType models.VoteType) (*models.Vote, int, int, error) {
	var vote models.Vote
	var du, dd int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND post_id = ?", userID, postID).
			First(&vote).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.Vote{UserID: userID, PostID: &postID, Type: voteType}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			du, dd = counterDeltas(nil, &voteType)
			return nil
		case err != nil:
			return err
		case vote.Type == voteType:
			return nil
		default:
			oldType := vote.Type
			vote.Type = voteType
			if err := tx.Model(&vote).Update("type", voteType).Error; err != nil {
				return err
			}
			du, dd = counterDeltas(&oldType, &voteType)
			return nil
		}
	})
	if err != nil {
		return nil, 0, 0, apperr.Internal("failed to cast post vote", err)
	}
	return &vote, du, dd, nil
}

// DeletePostVote removes the vote row for a post target and returns the
// counter deltas to apply to the post document.
func (r *PostgresVoteRepository) DeletePostVote(userID uint, postID string) (*models.Vote, int, int, error) {
	var vote models.Vote
	var du, dd int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND post_id = ?", userID, postID).
			First(&vote).Error
		if err != nil {
			return err
		}
		if err := tx.Delete(&vote).Error; err != nil {
			return err
		}
		du, dd = counterDeltas(&vote.Type, nil)
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, 0, apperr.NotFound("vote not found")
	}
	if err != nil {
		return nil, 0, 0, apperr.Internal("failed to delete post vote", err)
	}
	return &vote, du, dd, nil
}

// GetCommentVote returns a user's vote on a comment, if any.
func (r *PostgresVoteRepository) GetCommentVote(userID, commentID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.Where("user_id = ? AND comment_id = ?", userID, commentID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("vote not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load vote", err)
	}
	return &vote, nil
}

// applyCommentCounters adjusts both denormalized counters and the derived
// vote_score in one UPDATE so the three fields cannot drift apart within a
// completed transaction.
func applyCommentCounters(tx *gorm.DB, commentID uint, du, dd int) error {
	if du == 0 && dd == 0 {
		return nil
	}
	return tx.Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumns(map[string]interface{}{
			"total_upvotes":   gorm.Expr("total_upvotes + ?", du),
			"total_downvotes": gorm.Expr("total_downvotes + ?", dd),
			"vote_score":      gorm.Expr("vote_score + ?", du-dd),
		}).Error
}
