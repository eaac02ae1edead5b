// Copyright (c) 2026 Vistream. All rights reserved.

package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistream/vistream/internal/platform/apperr"
	"github.com/vistream/vistream/internal/platform/sec"
)

// # Fakes

// fakeUserRepository is an in-memory UserRepository.
type fakeUserRepository struct {
	users map[string]*User // keyed by ID
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: map[string]*User{}}
}

func (repo *fakeUserRepository) Create(_ context.Context, user *User) error {
	for _, existing := range repo.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return apperr.Conflict("User with this email or username already exists")
		}
	}
	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *fakeUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	user, ok := repo.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repo *fakeUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	for _, user := range repo.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	if user, ok := repo.users[userID]; ok {
		user.PasswordHash = newHash
	}
	return nil
}

func (repo *fakeUserRepository) SetRefreshToken(_ context.Context, userID, token string) error {
	if user, ok := repo.users[userID]; ok {
		user.RefreshToken = token
	}
	return nil
}

func (repo *fakeUserRepository) ClearRefreshToken(_ context.Context, userID string) error {
	if user, ok := repo.users[userID]; ok {
		user.RefreshToken = ""
	}
	return nil
}

// storedToken reads the persisted refresh token directly, bypassing the service.
func (repo *fakeUserRepository) storedToken(userID string) string {
	if user, ok := repo.users[userID]; ok {
		return user.RefreshToken
	}
	return ""
}

// fakeResetTokenRepository is an in-memory ResetTokenRepository.
type fakeResetTokenRepository struct {
	tokens map[string]string // token -> userID
}

func newFakeResetTokenRepository() *fakeResetTokenRepository {
	return &fakeResetTokenRepository{tokens: map[string]string{}}
}

func (repo *fakeResetTokenRepository) Set(_ context.Context, token, userID string, _ time.Duration) error {
	repo.tokens[token] = userID
	return nil
}

func (repo *fakeResetTokenRepository) Get(_ context.Context, token string) (string, error) {
	userID, ok := repo.tokens[token]
	if !ok {
		return "", apperr.NotFoundMsg("Reset token is invalid or expired")
	}
	return userID, nil
}

func (repo *fakeResetTokenRepository) Delete(_ context.Context, token string) error {
	delete(repo.tokens, token)
	return nil
}

// fakeUploader pretends to push staged files to object storage.
type fakeUploader struct {
	fail bool
}

func (uploader *fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	if uploader.fail {
		return "", errors.New("upstream unavailable")
	}
	return "https://cdn.test/" + localPath, nil
}

// # Test Setup

type serviceFixture struct {
	service  *Service
	users    *fakeUserRepository
	resets   *fakeResetTokenRepository
	uploader *fakeUploader
	tokens   *sec.TokenService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	tokens, err := sec.NewTokenService(
		"access-secret-for-tests", "refresh-secret-for-tests",
		"vistream.test", 15*time.Minute, 240*time.Hour,
	)
	require.NoError(t, err)

	users := newFakeUserRepository()
	resets := newFakeResetTokenRepository()
	uploader := &fakeUploader{}

	return &serviceFixture{
		service:  NewService(users, resets, tokens, uploader),
		users:    users,
		resets:   resets,
		uploader: uploader,
		tokens:   tokens,
	}
}

func (fixture *serviceFixture) register(t *testing.T, username, email, password string) *User {
	t.Helper()
	user, err := fixture.service.Register(context.Background(), RegisterInput{
		Username:   username,
		Email:      email,
		Password:   password,
		FullName:   "Test User",
		AvatarPath: "staged/avatar.png",
	})
	require.NoError(t, err)
	return user
}

// # Registration

func TestRegister_CreatesSanitizedUser(t *testing.T) {
	fixture := newServiceFixture(t)

	user, err := fixture.service.Register(context.Background(), RegisterInput{
		Username:       "  Alice  ",
		Email:          "Alice@Example.COM",
		Password:       "password123",
		FullName:       "Alice A",
		AvatarPath:     "staged/avatar.png",
		CoverImagePath: "staged/cover.jpg",
	})
	require.NoError(t, err)

	// Identity fields are normalized before storage.
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "https://cdn.test/staged/avatar.png", user.AvatarURL)
	assert.Equal(t, "https://cdn.test/staged/cover.jpg", user.CoverImageURL)

	// The plain password must never be what ends up stored.
	stored, err := fixture.users.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("password123", stored.PasswordHash))

	// A fresh account has no session.
	assert.Empty(t, stored.RefreshToken)
}

func TestRegister_DuplicateIdentity(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "alice", "alice@example.com", "password123")

	testCases := []struct {
		name     string
		username string
		email    string
	}{
		{name: "duplicate username", username: "alice", email: "other@example.com"},
		{name: "duplicate email", username: "someone", email: "alice@example.com"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := fixture.service.Register(context.Background(), RegisterInput{
				Username:   testCase.username,
				Email:      testCase.email,
				Password:   "password123",
				FullName:   "Dup",
				AvatarPath: "staged/avatar.png",
			})

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusConflict, appErr.StatusCode)
		})
	}
}

func TestRegister_AvatarUploadFailure(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.uploader.fail = true

	_, err := fixture.service.Register(context.Background(), RegisterInput{
		Username:   "alice",
		Email:      "alice@example.com",
		Password:   "password123",
		FullName:   "Alice A",
		AvatarPath: "staged/avatar.png",
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)

	// No account row may exist after a failed registration.
	assert.Empty(t, fixture.users.users)
}

// # Login

func TestLogin_UnknownUser(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.service.Login(context.Background(), LoginInput{
		Username: "ghost",
		Password: "password123",
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, "User does not exist", appErr.Message)
}

func TestLogin_WrongPassword(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.register(t, "alice", "alice@example.com", "password123")

	_, err := fixture.service.Login(context.Background(), LoginInput{
		Username: "alice",
		Password: "wrong-password",
	})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
	assert.Equal(t, "Invalid user credentials", appErr.Message)

	// A failed login must not create a session.
	assert.Empty(t, fixture.users.storedToken(user.ID))
}

func TestLogin_EstablishesSession(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.register(t, "alice", "alice@example.com", "password123")

	session, err := fixture.service.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, user.ID, session.User.ID)

	// The issued refresh token is the one persisted on the row.
	assert.Equal(t, session.RefreshToken, fixture.users.storedToken(user.ID))
}

func TestLogin_SecondLoginInvalidatesFirstSession(t *testing.T) {
	fixture := newServiceFixture(t)
	fixture.register(t, "alice", "alice@example.com", "password123")

	credentials := LoginInput{Username: "alice", Password: "password123"}

	first, err := fixture.service.Login(context.Background(), credentials)
	require.NoError(t, err)

	second, err := fixture.service.Login(context.Background(), credentials)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The first session's token was overwritten and no longer refreshes.
	_, err = fixture.service.Refresh(context.Background(), first.RefreshToken)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)

	// The second session works.
	_, err = fixture.service.Refresh(context.Background(), second.RefreshToken)
	assert.NoError(t, err)
}

// # Refresh Rotation

func TestRefresh_RotatesToken(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.register(t, "alice", "alice@example.com", "password123")

	login, err := fixture.service.Login(context.Background(), LoginInput{
		Username: "alice", Password: "password123",
	})
	require.NoError(t, err)

	rotated, err := fixture.service.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, rotated.RefreshToken, fixture.users.storedToken(user.ID))

	// The pre-rotation token has a valid signature but is dead.
	_, err = fixture.service.Refresh(context.Background(), login.RefreshToken)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
	assert.Equal(t, "Refresh token is expired or used", appErr.Message)
}

func TestRefresh_MismatchedStoredToken(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.register(t, "alice", "alice@example.com", "password123")

	_, err := fixture.service.Login(context.Background(), LoginInput{
		Username: "alice", Password: "password123",
	})
	require.NoError(t, err)

	// Mint a token with a valid signature that was never persisted.
	strayToken, err := fixture.tokens.IssueRefreshToken(user.ID)
	require.NoError(t, err)

	_, err = fixture.service.Refresh(context.Background(), strayToken)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
}

func TestRefresh_MalformedToken(t *testing.T) {
	fixture := newServiceFixture(t)

	_, err := fixture.service.Refresh(context.Background(), "not-a-token")

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
}

// # Logout

func TestLogout_Idempotent(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.register(t, "alice", "alice@example.com", "password123")

	login, err := fixture.service.Login(context.Background(), LoginInput{
		Username: "alice", Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.Logout(context.Background(), user.ID))
	assert.Empty(t, fixture.users.storedToken(user.ID))

	// A second logout with no active session still succeeds.
	require.NoError(t, fixture.service.Logout(context.Background(), user.ID))

	// The logged-out token no longer refreshes.
	_, err = fixture.service.Refresh(context.Background(), login.RefreshToken)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
}

// # Password Management

func TestChangePassword_WrongOldPassword(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.register(t, "alice", "alice@example.com", "password123")

	err := fixture.service.ChangePassword(context.Background(), user.ID, "wrong", "newpassword1")

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "Invalid old password", appErr.Message)
}

func TestChangePassword_KeepsSessionAlive(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.register(t, "alice", "alice@example.com", "password123")

	login, err := fixture.service.Login(context.Background(), LoginInput{
		Username: "alice", Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, fixture.service.ChangePassword(context.Background(), user.ID, "password123", "newpassword1"))

	// The stored refresh token survives a password change.
	assert.Equal(t, login.RefreshToken, fixture.users.storedToken(user.ID))

	// And the new password is live.
	_, err = fixture.service.Login(context.Background(), LoginInput{
		Username: "alice", Password: "newpassword1",
	})
	assert.NoError(t, err)
}

func TestResetPassword_Flow(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.register(t, "alice", "alice@example.com", "password123")

	login, err := fixture.service.Login(context.Background(), LoginInput{
		Username: "alice", Password: "password123",
	})
	require.NoError(t, err)

	token, err := fixture.service.RequestPasswordReset(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, fixture.service.ResetPassword(context.Background(), token, "recovered-pass1"))

	// Recovery ends the active session, unlike an authenticated change.
	assert.Empty(t, fixture.users.storedToken(user.ID))
	_, err = fixture.service.Refresh(context.Background(), login.RefreshToken)
	assert.Error(t, err)

	// The token is single-use.
	err = fixture.service.ResetPassword(context.Background(), token, "another-pass1")
	assert.Error(t, err)

	// The new password works.
	_, err = fixture.service.Login(context.Background(), LoginInput{
		Username: "alice", Password: "recovered-pass1",
	})
	assert.NoError(t, err)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	fixture := newServiceFixture(t)

	token, err := fixture.service.RequestPasswordReset(context.Background(), "ghost@example.com")

	// Unknown emails produce neither a token nor an error.
	assert.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, fixture.resets.tokens)
}

// # Identity Resolution

func TestResolveIdentity(t *testing.T) {
	fixture := newServiceFixture(t)
	user := fixture.register(t, "alice", "alice@example.com", "password123")

	identity, err := fixture.service.ResolveIdentity(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.ID)
	assert.Equal(t, "alice", identity.Username)

	_, err = fixture.service.ResolveIdentity(context.Background(), "missing-id")
	assert.Error(t, err)
}
