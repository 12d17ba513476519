package models

import "time"

// Membership roles within a community.
const (
	RoleMember  = "member"
	RoleManager = "manager"
)

// Membership links a user to a community. The core only consumes boolean
// membership/manager checks; community administration itself lives elsewhere.
type Membership struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CommunityID string    `json:"community_id" gorm:"uniqueIndex:idx_community_user;not null"`
	UserID      uint      `json:"user_id" gorm:"uniqueIndex:idx_community_user;not null"`
	Role        string    `json:"role" gorm:"size:16;default:member"`
	CreatedAt   time.Time `json:"created_at"`
}
