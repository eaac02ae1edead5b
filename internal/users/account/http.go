// Copyright (c) 2026 Vistream. All rights reserved.

/*
HTTP delivery layer for authenticated profile management.

All routes in this handler require a verified identity; the current-user
endpoint answers straight from request context without touching the database.
*/
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vistream/vistream/internal/platform/middleware"
	requestutil "github.com/vistream/vistream/internal/platform/request"
	"github.com/vistream/vistream/internal/platform/respond"
	"github.com/vistream/vistream/internal/platform/upload"
	"github.com/vistream/vistream/internal/platform/validate"
	"github.com/vistream/vistream/internal/users/auth"
)

// # Definitions & Constructors

// Handler implements the profile management HTTP endpoints.
type Handler struct {
	accountService *Service
	stager         *upload.Stager
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, stager *upload.Stager) *Handler {
	return &Handler{accountService: service, stager: stager}
}

// Mount registers the profile routes on the shared users router.
//
// # Endpoints
//   - GET   /current-user     : Returns the authenticated identity.
//   - PATCH /account-details  : Updates full name and email.
//   - PATCH /avatar           : Replaces the avatar image.
//   - PATCH /coverImage       : Replaces the cover image.
func (handler *Handler) Mount(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/current-user", handler.currentUser)
		r.Patch("/account-details", handler.updateDetails)
		r.Patch("/avatar", handler.updateAvatar)
		r.Patch("/coverImage", handler.updateCoverImage)
	})
}

// # Request Payloads

type updateDetailsRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// # Handlers

/*
CurrentUser returns the authenticated user's identity.

GET /api/v1/users/current-user

Description: The verifier middleware already resolved the identity against
the database, so this handler answers from context with no extra query.

Response:
  - 200: Identity: Sanitized current user
  - 401: Unauthenticated
*/
func (handler *Handler) currentUser(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity, "Current user fetched successfully")
}

/*
UpdateDetails updates the user's full name and email.

PATCH /api/v1/users/account-details

Request:
  - Body: updateDetailsRequest (FullName, Email — both required)

Response:
  - 200: User: Updated sanitized profile
  - 400: Missing field or invalid email
  - 409: Email already registered
*/
func (handler *Handler) updateDetails(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateDetailsRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(auth.FieldFullName, input.FullName).
		Required(auth.FieldEmail, input.Email).
		Email(auth.FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateDetails(request.Context(), userID, input.FullName, input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, "Account details updated successfully")
}

/*
UpdateAvatar replaces the user's avatar.

PATCH /api/v1/users/avatar

Request:
  - Multipart: avatar (file)

Response:
  - 200: User: Updated sanitized profile
  - 400: Missing or non-image file
  - 500: Media storage upload failure
*/
func (handler *Handler) updateAvatar(writer http.ResponseWriter, request *http.Request) {
	handler.updateMedia(writer, request, auth.FieldAvatar)
}

/*
UpdateCoverImage replaces the user's cover image.

PATCH /api/v1/users/coverImage

Request:
  - Multipart: coverImage (file)

Response:
  - 200: User: Updated sanitized profile
  - 400: Missing or non-image file
  - 500: Media storage upload failure
*/
func (handler *Handler) updateCoverImage(writer http.ResponseWriter, request *http.Request) {
	handler.updateMedia(writer, request, auth.FieldCoverImage)
}

// updateMedia is the shared flow for the two media endpoints; they differ
// only in form field and target column.
func (handler *Handler) updateMedia(writer http.ResponseWriter, request *http.Request, field string) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	localPath, err := handler.stager.Save(request, field)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer handler.stager.Discard(localPath)

	var user *auth.User
	if field == auth.FieldAvatar {
		user, err = handler.accountService.UpdateAvatar(request.Context(), userID, localPath)
	} else {
		user, err = handler.accountService.UpdateCoverImage(request.Context(), userID, localPath)
	}

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, "Profile media updated successfully")
}
