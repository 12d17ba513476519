package models

import "github.com/golang-jwt/jwt/v4"

// User is a registered account linked to a Firebase identity.
type User struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name"`
	Email       string `json:"email" gorm:"uniqueIndex"`
	FirebaseUID string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
}

// RegisterUserRequest defines the request body for registering a user after
// Firebase authentication
type RegisterUserRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=50"`
	Email string `json:"email" validate:"required,email"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
