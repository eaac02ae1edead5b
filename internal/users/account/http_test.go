// Copyright (c) 2026 Vistream. All rights reserved.

package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistream/vistream/internal/platform/apperr"
	"github.com/vistream/vistream/internal/platform/ctxutil"
	"github.com/vistream/vistream/internal/platform/sec"
	"github.com/vistream/vistream/internal/platform/upload"
	"github.com/vistream/vistream/internal/users/auth"
)

// # Fakes

type fakeAccountRepository struct {
	user *auth.User
}

func (repo *fakeAccountRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	if repo.user == nil || repo.user.ID != id {
		return nil, apperr.NotFound("User")
	}
	clone := *repo.user
	return &clone, nil
}

func (repo *fakeAccountRepository) UpdateDetails(_ context.Context, userID, fullName, email string) (*auth.User, error) {
	if repo.user == nil || repo.user.ID != userID {
		return nil, apperr.NotFound("User")
	}
	repo.user.FullName = fullName
	repo.user.Email = email
	clone := *repo.user
	return &clone, nil
}

func (repo *fakeAccountRepository) UpdateAvatar(_ context.Context, userID, url string) (*auth.User, error) {
	if repo.user == nil || repo.user.ID != userID {
		return nil, apperr.NotFound("User")
	}
	repo.user.AvatarURL = url
	clone := *repo.user
	return &clone, nil
}

func (repo *fakeAccountRepository) UpdateCoverImage(_ context.Context, userID, url string) (*auth.User, error) {
	if repo.user == nil || repo.user.ID != userID {
		return nil, apperr.NotFound("User")
	}
	repo.user.CoverImageURL = url
	clone := *repo.user
	return &clone, nil
}

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

type fixture struct {
	router   chi.Router
	repo     *fakeAccountRepository
	uploader *fakeUploader
	identity *sec.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := &fakeAccountRepository{
		user: &auth.User{
			ID:        "user-1",
			Username:  "alice",
			Email:     "alice@example.com",
			FullName:  "Alice A",
			AvatarURL: "https://cdn.test/old-avatar.png",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	uploader := &fakeUploader{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	stager, err := upload.NewStager(t.TempDir(), logger)
	require.NoError(t, err)

	handler := NewHandler(NewService(repo, uploader, logger), stager)

	identity := &sec.Identity{ID: "user-1", Username: "alice", Email: "alice@example.com", FullName: "Alice A"}

	router := chi.NewRouter()
	handler.Mount(router)

	return &fixture{router: router, repo: repo, uploader: uploader, identity: identity}
}

// serve runs the request with the fixture identity attached, mimicking what
// the verifier middleware does for authenticated calls.
func (f *fixture) serve(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request = request.WithContext(ctxutil.WithIdentity(request.Context(), f.identity))
	f.router.ServeHTTP(recorder, request)
	return recorder
}

func mediaRequest(t *testing.T, target, field, filename string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("image-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	request := httptest.NewRequest(http.MethodPatch, target, &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	return request
}

// # Current User

func TestCurrentUser(t *testing.T) {
	f := newFixture(t)

	recorder := f.serve(httptest.NewRequest(http.MethodGet, "/current-user", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"username":"alice"`)
}

func TestCurrentUser_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	// No identity in context: the gate rejects before the handler runs.
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/current-user", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

// # Account Details

func TestUpdateDetails(t *testing.T) {
	f := newFixture(t)

	payload, _ := json.Marshal(map[string]string{
		"fullName": "Alice B",
		"email":    "Alice.B@Example.com",
	})
	request := httptest.NewRequest(http.MethodPatch, "/account-details", bytes.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")

	recorder := f.serve(request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Alice B", f.repo.user.FullName)
	// Email is normalized before it reaches storage.
	assert.Equal(t, "alice.b@example.com", f.repo.user.Email)
}

func TestUpdateDetails_MissingField(t *testing.T) {
	f := newFixture(t)

	payload, _ := json.Marshal(map[string]string{"fullName": "Alice B"})
	request := httptest.NewRequest(http.MethodPatch, "/account-details", bytes.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")

	recorder := f.serve(request)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "alice@example.com", f.repo.user.Email, "rejected update must not persist")
}

// # Profile Media

func TestUpdateAvatar(t *testing.T) {
	f := newFixture(t)

	recorder := f.serve(mediaRequest(t, "/avatar", auth.FieldAvatar, "new.png"))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, f.repo.user.AvatarURL, "https://cdn.test/")
	assert.NotContains(t, f.repo.user.AvatarURL, "old-avatar")
}

func TestUpdateAvatar_MissingFile(t *testing.T) {
	f := newFixture(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.Close())
	request := httptest.NewRequest(http.MethodPatch, "/avatar", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())

	recorder := f.serve(request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestUpdateAvatar_UploadFailure(t *testing.T) {
	f := newFixture(t)
	f.uploader.fail = true

	recorder := f.serve(mediaRequest(t, "/avatar", auth.FieldAvatar, "new.png"))

	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, f.repo.user.AvatarURL, "old-avatar", "failed upload must not change the profile")
}

func TestUpdateCoverImage(t *testing.T) {
	f := newFixture(t)

	recorder := f.serve(mediaRequest(t, "/coverImage", auth.FieldCoverImage, "cover.jpg"))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, f.repo.user.CoverImageURL, "https://cdn.test/")
}
