package repositories

import (
	"github.com/threadline/backend/internal/apperr"
	"github.com/threadline/backend/internal/models"
	"gorm.io/gorm"
)

// MembershipRepository is the boolean membership/authorization surface the
// core consumes. Community administration itself lives outside this service.
type MembershipRepository interface {
	IsMember(communityID string, userID uint) (bool, error)
	IsManager(communityID string, userID uint) (bool, error)
}

// PostgresMembershipRepository implements MembershipRepository for PostgreSQL
type PostgresMembershipRepository struct {
	db *gorm.DB
}

// NewPostgresMembershipRepository creates a new PostgresMembershipRepository
func NewPostgresMembershipRepository(db *gorm.DB) *PostgresMembershipRepository {
	return &PostgresMembershipRepository{db: db}
}

// IsMember reports whether the user belongs to the community.
func (r *PostgresMembershipRepository) IsMember(communityID string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Internal("failed to check membership", err)
	}
	return count > 0, nil
}

// IsManager reports whether the user manages the community.
func (r *PostgresMembershipRepository) IsManager(communityID string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ? AND role = ?", communityID, userID, models.RoleManager).
		Count(&count).Error
	if err != nil {
		return false, apperr.Internal("failed to check membership", err)
	}
	return count > 0, nil
}
