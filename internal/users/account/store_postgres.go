// Copyright (c) 2026 Vistream. All rights reserved.

package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vistream/vistream/internal/platform/apperr"
	"github.com/vistream/vistream/internal/platform/dberr"
	"github.com/vistream/vistream/internal/users/auth"
)

// sanitizedColumns deliberately excludes passwordhash and refreshtoken;
// nothing in this package needs the credential fields.
const sanitizedColumns = "id, username, email, fullname, avatarurl, coverimageurl, createdat, updatedat"

// PostgresAccountRepository implements AccountRepository using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

func scanSanitizedUser(row pgx.Row) (*auth.User, error) {
	user := &auth.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
FindByID retrieves a sanitized user record by ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *auth.User: Hydrated entity without credential fields
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	const query = `
		SELECT ` + sanitizedColumns + `
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	user, err := scanSanitizedUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_failed: %w", err)
	}

	return user, nil
}

/*
UpdateDetails replaces the user's full name and email in a single statement.

Description: RETURNING hands back the persisted row so the caller never
responds with stale in-memory state. A unique violation on the email column
surfaces as a client-safe Conflict.

Parameters:
  - context: context.Context
  - userID: string
  - fullName: string
  - email: string

Returns:
  - *auth.User: Updated entity
  - error: apperr.Conflict, apperr.NotFound, or execution errors
*/
func (repository *PostgresAccountRepository) UpdateDetails(context context.Context, userID, fullName, email string) (*auth.User, error) {
	const query = `
		UPDATE users.account
		SET fullname = $2, email = $3, updatedat = $4
		WHERE id = $1 AND deletedat IS NULL
		RETURNING ` + sanitizedColumns

	user, err := scanSanitizedUser(repository.pool.QueryRow(context, query, userID, fullName, email, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, dberr.Wrap(err, "Email is already registered")
	}

	return user, nil
}

/*
UpdateAvatar replaces the user's avatar URL.

Parameters:
  - context: context.Context
  - userID: string
  - url: string

Returns:
  - *auth.User: Updated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) UpdateAvatar(context context.Context, userID, url string) (*auth.User, error) {
	const query = `
		UPDATE users.account
		SET avatarurl = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL
		RETURNING ` + sanitizedColumns

	user, err := scanSanitizedUser(repository.pool.QueryRow(context, query, userID, url, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_account_repo_update_avatar_failed: %w", err)
	}

	return user, nil
}

/*
UpdateCoverImage replaces the user's cover image URL.

Parameters:
  - context: context.Context
  - userID: string
  - url: string

Returns:
  - *auth.User: Updated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) UpdateCoverImage(context context.Context, userID, url string) (*auth.User, error) {
	const query = `
		UPDATE users.account
		SET coverimageurl = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL
		RETURNING ` + sanitizedColumns

	user, err := scanSanitizedUser(repository.pool.QueryRow(context, query, userID, url, time.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_account_repo_update_cover_failed: %w", err)
	}

	return user, nil
}
