// Copyright (c) 2026 Vistream. All rights reserved.

package channel

import (
	"context"
	"encoding/json"
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
)

// # Fakes

type fakeChannelRepository struct {
	profiles map[string]*Profile            // keyed by username
	history  map[string][]WatchHistoryEntry // keyed by userID
	// lastViewer records who asked, so tests can assert the caller is
	// threaded through to the IsSubscribed computation.
	lastViewer string
}

func (repo *fakeChannelRepository) GetProfile(_ context.Context, username, viewerID string) (*Profile, error) {
	repo.lastViewer = viewerID
	profile, ok := repo.profiles[username]
	if !ok {
		return nil, apperr.NotFoundMsg("Channel does not exist")
	}
	clone := *profile
	return &clone, nil
}

func (repo *fakeChannelRepository) ListWatchHistory(_ context.Context, userID string) ([]WatchHistoryEntry, error) {
	entries, ok := repo.history[userID]
	if !ok {
		return []WatchHistoryEntry{}, nil
	}
	return entries, nil
}

// # Test Setup

func newFixture(t *testing.T) (chi.Router, *fakeChannelRepository) {
	t.Helper()

	repo := &fakeChannelRepository{
		profiles: map[string]*Profile{
			"alice": {
				ID:                        "user-1",
				Username:                  "alice",
				Email:                     "alice@example.com",
				FullName:                  "Alice A",
				SubscribersCount:          42,
				ChannelsSubscribedToCount: 7,
				IsSubscribed:              true,
			},
		},
		history: map[string][]WatchHistoryEntry{},
	}

	router := chi.NewRouter()
	NewHandler(NewService(repo)).Mount(router)
	return router, repo
}

func authedRequest(method, target string) *http.Request {
	request := httptest.NewRequest(method, target, nil)
	identity := &sec.Identity{ID: "viewer-1", Username: "bob"}
	return request.WithContext(ctxutil.WithIdentity(request.Context(), identity))
}

// # Channel Profile

func TestChannelProfile(t *testing.T) {
	router, repo := newFixture(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, authedRequest(http.MethodGet, "/c/alice"))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"subscribersCount":42`)
	assert.Contains(t, recorder.Body.String(), `"isSubscribed":true`)
	assert.Equal(t, "viewer-1", repo.lastViewer)
}

func TestChannelProfile_NormalizesUsername(t *testing.T) {
	router, _ := newFixture(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, authedRequest(http.MethodGet, "/c/ALICE"))

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestChannelProfile_Unknown(t *testing.T) {
	router, _ := newFixture(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, authedRequest(http.MethodGet, "/c/ghost"))

	require.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Channel does not exist")
}

func TestChannelProfile_Unauthenticated(t *testing.T) {
	router, _ := newFixture(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/c/alice", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

// # Watch History

func TestWatchHistory_OrderPreserved(t *testing.T) {
	router, repo := newFixture(t)

	now := time.Now()
	repo.history["viewer-1"] = []WatchHistoryEntry{
		{VideoID: "video-2", Title: "Newest", WatchedAt: now, Owner: OwnerSummary{Username: "alice"}},
		{VideoID: "video-1", Title: "Older", WatchedAt: now.Add(-time.Hour), Owner: OwnerSummary{Username: "alice"}},
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, authedRequest(http.MethodGet, "/watchHistory"))

	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data []WatchHistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "video-2", body.Data[0].VideoID)
	assert.Equal(t, "video-1", body.Data[1].VideoID)
}

func TestWatchHistory_EmptyIsArray(t *testing.T) {
	router, _ := newFixture(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, authedRequest(http.MethodGet, "/watchHistory"))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"data":[]`)
}
