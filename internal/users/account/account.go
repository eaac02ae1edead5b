// Copyright (c) 2026 Vistream. All rights reserved.

/*
Package account handles authenticated profile management.

It lets a signed-in user read their own identity and update their account
details and profile media (avatar, cover image).

# Architecture

  - Domain: This package depends on the auth package for the User entity.
  - Media: Staged files travel through the shared uploader to object storage;
    only the resulting public URL is persisted.
*/
package account

import (
	"context"

	"github.com/vistream/vistream/internal/users/auth"
)

// # Repository Contracts

// AccountRepository defines the persistence contract for profile updates.
// Every mutation returns the persisted row so handlers respond with exactly
// what the database holds.
type AccountRepository interface {
	/*
		FindByID retrieves a sanitized user record by ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Loaded account entity (credential fields blank)
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		UpdateDetails replaces the user's full name and email.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - fullName: string
		  - email: string (normalized form)

		Returns:
		  - *auth.User: Updated entity
		  - error: apperr.Conflict on a taken email, or storage failures
	*/
	UpdateDetails(context context.Context, userID, fullName, email string) (*auth.User, error)

	/*
		UpdateAvatar replaces the user's avatar URL.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - url: string

		Returns:
		  - *auth.User: Updated entity
		  - error: Storage failures
	*/
	UpdateAvatar(context context.Context, userID, url string) (*auth.User, error)

	/*
		UpdateCoverImage replaces the user's cover image URL.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - url: string

		Returns:
		  - *auth.User: Updated entity
		  - error: Storage failures
	*/
	UpdateCoverImage(context context.Context, userID, url string) (*auth.User, error)
}
