// Copyright (c) 2026 Vistream. All rights reserved.

/*
Package auth implements the user identity and session lifecycle.

It defines the core User entity and the logic for registration, login,
refresh-token rotation, and password management.

# Architecture

This layer is the "Truth" of the system. The session model is deliberately
minimal: a user holds at most one valid refresh token, stored on the account
row itself. Issuing a new token overwrites the previous one, so a second
login or a refresh invalidates every earlier session.
*/
package auth

import (
	"time"

	"github.com/vistream/vistream/internal/platform/sec"
)

// # Domain Entities

// User represents a registered member of the Vistream platform.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	PasswordHash  string    `json:"-"` // Explicitly omitted from JSON for security.
	RefreshToken  string    `json:"-"` // Current session token. Omitted for security.
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Identity returns the sanitized view of the user that is safe to attach to
// request context and to serialize in responses.
func (user *User) Identity() *sec.Identity {
	return &sec.Identity{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		AvatarURL:     user.AvatarURL,
		CoverImageURL: user.CoverImageURL,
	}
}

// # Field Identifiers

// Global field names for validation and payload mapping in the auth domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldFullName        = "fullName"
	FieldAvatar          = "avatar"
	FieldCoverImage      = "coverImage"
	FieldOldPassword     = "oldPassword"
	FieldNewPassword     = "newPassword"
	FieldConfirmPassword = "confirmPassword"
	FieldAccessToken     = "accessToken"
	FieldRefreshToken    = "refreshToken"
	FieldToken           = "token"
	FieldUser            = "user"
)
