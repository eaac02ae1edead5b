// Copyright (c) 2026 Vistream. All rights reserved.

// HTTP delivery layer for the channel reads.
package channel

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vistream/vistream/internal/platform/apperr"
	"github.com/vistream/vistream/internal/platform/middleware"
	requestutil "github.com/vistream/vistream/internal/platform/request"
	"github.com/vistream/vistream/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements the channel HTTP endpoints.
type Handler struct {
	channelService *Service
}

// NewHandler constructs a new channel [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{channelService: service}
}

// Mount registers the channel routes on the shared users router.
//
// # Endpoints
//   - GET /c/{username}  : Aggregated channel profile.
//   - GET /watchHistory  : The caller's watch history.
func (handler *Handler) Mount(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/c/{username}", handler.channelProfile)
		r.Get("/watchHistory", handler.watchHistory)
	})
}

// # Handlers

/*
ChannelProfile returns the aggregated public profile of a channel.

GET /api/v1/users/c/{username}

Response:
  - 200: Profile: Counts and the caller's subscription state included
  - 400: Missing username
  - 404: Unknown channel
  - 401: Unauthenticated
*/
func (handler *Handler) channelProfile(writer http.ResponseWriter, request *http.Request) {
	viewerID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	username := strings.TrimSpace(requestutil.Param(request, "username"))
	if username == "" {
		respond.Error(writer, request, apperr.BadRequest("username is missing"))
		return
	}

	profile, err := handler.channelService.GetProfile(request.Context(), username, viewerID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile, "Channel profile fetched successfully")
}

/*
WatchHistory returns the caller's watch history with owner summaries.

GET /api/v1/users/watchHistory

Response:
  - 200: []WatchHistoryEntry: Most recent first (empty array when none)
  - 401: Unauthenticated
*/
func (handler *Handler) watchHistory(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entries, err := handler.channelService.WatchHistory(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entries, "Watch history fetched successfully")
}
