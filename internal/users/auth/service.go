// Copyright (c) 2026 Vistream. All rights reserved.

package auth

import (
	"context"
	"fmt"

	"github.com/vistream/vistream/internal/platform/apperr"
	"github.com/vistream/vistream/internal/platform/sec"
	"github.com/vistream/vistream/pkg/normalize"
	"github.com/vistream/vistream/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer defines the contract for minting and verifying the paired
// access/refresh tokens. Implemented by [sec.TokenService].
type TokenIssuer interface {
	// IssueAccessToken creates a short-lived signed token embedding the
	// sanitized identity.
	IssueAccessToken(identity sec.Identity) (string, error)

	// IssueRefreshToken creates a long-lived signed token carrying only the
	// user ID.
	IssueRefreshToken(userID string) (string, error)

	// VerifyRefreshToken validates signature and expiry against the refresh
	// secret and returns the embedded claims.
	VerifyRefreshToken(token string) (*sec.RefreshClaims, error)
}

// MediaUploader defines the contract for moving staged files to durable
// media storage. Implemented by the storage package.
type MediaUploader interface {
	// Upload stores the file at localPath and returns its public URL.
	Upload(ctx context.Context, localPath string) (string, error)
}

// Session represents a freshly issued token pair with its owning user.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// Service implements the identity and session use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// persistence, or login logic must be reviewed by the security team.
type Service struct {
	userRepository       UserRepository
	resetTokenRepository ResetTokenRepository
	tokenIssuer          TokenIssuer
	mediaUploader        MediaUploader
}

// NewService constructs a new auth [Service] with its dependencies.
func NewService(
	userRepo UserRepository,
	resetRepo ResetTokenRepository,
	issuer TokenIssuer,
	uploader MediaUploader,
) *Service {
	return &Service{
		userRepository:       userRepo,
		resetTokenRepository: resetRepo,
		tokenIssuer:          issuer,
		mediaUploader:        uploader,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member. The file
// paths reference locally staged uploads owned by the HTTP layer.
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	FullName       string
	AvatarPath     string
	CoverImagePath string // optional; empty means no cover image
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Normalizes the identity fields, uploads the staged media to
object storage, and persists the account. The created row is re-fetched so
the response reflects exactly what the database holds.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity (sanitized fields populated)
  - error: Conflict (if identity exists), BadRequest (avatar upload), or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	username := normalize.Username(input.Username)
	email := normalize.Email(input.Email)

	// Verify username uniqueness. Return a client-safe Conflict.
	if _, err := service.userRepository.FindByUsername(context, username); err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Verify email uniqueness. Return a client-safe Conflict.
	if _, err := service.userRepository.FindByEmail(context, email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// The avatar is mandatory; a failed upload aborts registration before
	// any row is written.
	avatarURL, err := service.mediaUploader.Upload(context, input.AvatarPath)
	if err != nil {
		return nil, apperr.BadRequest("Avatar upload failed")
	}

	// The cover image is optional and best-effort. A failed upload leaves
	// the account without one rather than failing the registration.
	var coverImageURL string
	if input.CoverImagePath != "" {
		coverImageURL, _ = service.mediaUploader.Upload(context, input.CoverImagePath)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:            uuid.New(),
		Username:      username,
		Email:         email,
		FullName:      input.FullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverImageURL,
		PasswordHash:  hashedPassword,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	// Re-fetch so the caller sees the persisted state, not the in-memory
	// draft. A miss here means the write silently failed.
	created, err := service.userRepository.FindByID(context, user.ID)
	if err != nil {
		return nil, apperr.InternalMsg("Something went wrong while registering the user", err)
	}

	return created, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt. At least one
// of Username or Email must be set.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

/*
Login validates user credentials and establishes a session.

Description: Looks the user up by username or email, performs constant-time
password comparison, mints a fresh token pair, and persists the refresh
token on the account row. Any previously stored refresh token is overwritten,
so a second login ends the first session.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Transport-ready token pair and user
  - error: NotFound (unknown user), Unauthorized (bad password), or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	user, err := service.findByLogin(context, input.Username, input.Email)

	// Unknown user surfaces as NotFound with a message distinct from the
	// bad-password case. That asymmetry is an enumeration signal; it is kept
	// as the externally observed behavior and flagged rather than silently
	// changed.
	if err != nil {
		return nil, apperr.NotFoundMsg("User does not exist")
	}

	// bcrypt comparison is constant-time, preventing timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid user credentials")
	}

	return service.establishSession(context, user)
}

// findByLogin resolves a user from whichever identifier was supplied,
// preferring the username when both are present.
func (service *Service) findByLogin(context context.Context, username, email string) (*User, error) {
	if username != "" {
		user, err := service.userRepository.FindByUsername(context, normalize.Username(username))
		if err == nil {
			return user, nil
		}
		if email == "" {
			return nil, err
		}
	}
	return service.userRepository.FindByEmail(context, normalize.Email(email))
}

// establishSession mints a token pair for the user and persists the refresh
// token, overwriting whatever token the row held before.
func (service *Service) establishSession(context context.Context, user *User) (*Session, error) {
	accessToken, err := service.tokenIssuer.IssueAccessToken(*user.Identity())
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokenIssuer.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	if err := service.userRepository.SetRefreshToken(context, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("auth_service_session_persist_failed: %w", err)
	}

	user.RefreshToken = refreshToken

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// # Session Management

/*
Refresh implements the refresh-token rotation mechanism.

Description: Verifies the presented token cryptographically, resolves its
subject, and then requires byte-equality with the token stored on the account
row. A token that was rotated away or cleared by logout fails that equality
check even though its signature is still valid. On success a fresh pair is
issued and the new refresh token replaces the old one.

Parameters:
  - context: context.Context
  - presentedToken: string

Returns:
  - *Session: New session credentials
  - error: Unauthorized or storage failures
*/
func (service *Service) Refresh(context context.Context, presentedToken string) (*Session, error) {
	claims, err := service.tokenIssuer.VerifyRefreshToken(presentedToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token")
	}

	// A well-formed, unexpired token is still rejected unless it matches the
	// single stored token. This is what revokes rotated-away tokens.
	if user.RefreshToken == "" || user.RefreshToken != presentedToken {
		return nil, apperr.Unauthorized("Refresh token is expired or used")
	}

	return service.establishSession(context, user)
}

/*
Logout ends the user's session by clearing the stored refresh token.

Description: Idempotent; logging out a user with no active session succeeds.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Persistence failures
*/
func (service *Service) Logout(context context.Context, userID string) error {
	if err := service.userRepository.ClearRefreshToken(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

/*
ChangePassword allows an authenticated user to update their credentials.

Description: Verifies the old password before applying the new hash. The
stored refresh token is left untouched, so the current session survives the
password change.

Parameters:
  - context: context.Context
  - userID: string
  - oldPassword: string
  - newPassword: string

Returns:
  - error: BadRequest (wrong old password) or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, oldPassword, newPassword string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(oldPassword, user.PasswordHash) {
		return apperr.BadRequest("Invalid old password")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	return nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Generates a secure random token and saves it to Redis with a
TTL. An unknown email produces no token and no error, so the HTTP layer can
answer generically and avoid confirming which emails are registered.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Reset token (empty for unknown emails)
  - error: Generation or storage errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) (string, error) {
	user, err := service.userRepository.FindByEmail(context, normalize.Email(email))
	if err != nil {
		return "", nil
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	if err := service.resetTokenRepository.Set(context, token, user.ID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	// TODO: hand the token to the mailer pipeline once it lands.
	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the token, rehashes the password, and clears the stored
refresh token. Unlike ChangePassword, this path runs unauthenticated, so the
existing session is force-ended as a precaution.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: NotFound (bad token) or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	userID, err := service.resetTokenRepository.Get(context, token)
	if err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// Recovery implies the credentials may have been compromised; end the
	// active session.
	_ = service.userRepository.ClearRefreshToken(context, userID)
	_ = service.resetTokenRepository.Delete(context, token)

	return nil
}

// # Identity Resolution

/*
ResolveIdentity maps a verified token subject to a live, sanitized user.

Description: Backs the request verifier. A deleted account holding a
still-valid token resolves to an error here, which the middleware turns into
a generic 401.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *sec.Identity: Sanitized identity for request context
  - error: Resolution failures
*/
func (service *Service) ResolveIdentity(context context.Context, userID string) (*sec.Identity, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}
