// Copyright (c) 2026 Vistream. All rights reserved.

package sec

// Identity is the sanitized view of an authenticated user.
//
// # Scope
//
// This is the exact shape the verifier middleware attaches to the request
// context after resolving the access-token subject against the database.
// It deliberately excludes the password hash and the stored refresh token —
// downstream handlers never see either.
type Identity struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	AvatarURL     string `json:"avatar"`
	CoverImageURL string `json:"coverImage,omitempty"`
}
