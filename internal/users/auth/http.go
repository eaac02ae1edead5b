// Copyright (c) 2026 Vistream. All rights reserved.

/*
HTTP delivery layer for the authentication lifecycle.

The handler acts as a thin mediation layer between the web and the domain
service:
  - Protocol: RESTful JSON, multipart for registration media.
  - Security: Issues the paired accessToken/refreshToken cookies alongside
    body delivery, so both browser and bearer-token clients are served.
  - Verification: Enforces strict input validation before calling [Service].

This layer is strictly responsible for transport concerns (status codes,
cookies, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vistream/vistream/internal/platform/apperr"
	"github.com/vistream/vistream/internal/platform/constants"
	"github.com/vistream/vistream/internal/platform/middleware"
	requestutil "github.com/vistream/vistream/internal/platform/request"
	"github.com/vistream/vistream/internal/platform/respond"
	"github.com/vistream/vistream/internal/platform/upload"
	"github.com/vistream/vistream/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService     *Service
	stager          *upload.Stager
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewHandler constructs a new [Handler]. The TTLs drive cookie expiry and
// must match what the token issuer embeds in the tokens themselves.
func NewHandler(service *Service, stager *upload.Stager, accessTokenTTL, refreshTokenTTL time.Duration) *Handler {
	return &Handler{
		authService:     service,
		stager:          stager,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// Mount registers the authentication routes on the shared users router.
//
// # Endpoints
//   - POST /register             : Creates a new account (multipart).
//   - POST /login                : Authenticates and issues the token pair.
//   - POST /refresh-access-token : Rotates the session tokens.
//   - POST /forgot-password      : Starts the password recovery flow.
//   - POST /reset-password       : Completes the password recovery flow.
//   - POST /logout               : Ends the current session (protected).
//   - POST /update-password      : Changes the password (protected).
func (handler *Handler) Mount(router chi.Router) {
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh-access-token", handler.refresh)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/update-password", handler.changePassword)
	})
}

// # Request Payloads

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// # Handlers

/*
Register handles the creation of a new user account.

POST /api/v1/users/register

Description: Parses the multipart form, validates the identity fields, stages
the avatar (required) and cover image (optional) locally, and delegates to the
service which uploads them and persists the account.

Request:
  - Multipart: username, email, password, fullName, avatar (file), coverImage (file, optional)

Response:
  - 201: User: Created sanitized profile
  - 400: Missing field, missing avatar, or failed avatar upload
  - 409: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	if err := request.ParseMultipartForm(constants.MaxUploadMemoryBytes); err != nil {
		respond.Error(writer, request, apperr.BadRequest("Invalid multipart form data"))
		return
	}

	username := request.FormValue(FieldUsername)
	email := request.FormValue(FieldEmail)
	password := request.FormValue(FieldPassword)
	fullName := request.FormValue(FieldFullName)

	validator := &validate.Validator{}
	validator.Required(FieldUsername, username).
		MinLen(FieldUsername, username, MinUsernameLength).
		Required(FieldEmail, email).
		Email(FieldEmail, email).
		Required(FieldPassword, password).
		MinLen(FieldPassword, password, MinPasswordLength).
		Required(FieldFullName, fullName)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	avatarPath, err := handler.stager.Save(request, FieldAvatar)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer handler.stager.Discard(avatarPath)

	coverImagePath, err := handler.stager.SaveOptional(request, FieldCoverImage)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer handler.stager.Discard(coverImagePath)

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:       username,
		Email:          email,
		Password:       password,
		FullName:       fullName,
		AvatarPath:     avatarPath,
		CoverImagePath: coverImagePath,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user, "User registered successfully")
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/users/login

Description: Verifies credentials, mints the token pair, and delivers it
twice: as secure httpOnly cookies and in the response body.

Request:
  - Body: loginRequest (Username or Email, Password)

Response:
  - 200: Session payload (user + both tokens), sets both cookies
  - 400: Neither username nor email supplied
  - 404: Unknown user
  - 401: Wrong password
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Custom(FieldUsername, input.Username == "" && input.Email == "", "username or email is required").
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)

	respond.OK(writer, map[string]any{
		FieldUser:         session.User,
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
	}, "User logged in successfully")
}

/*
Refresh rotates the session token pair.

POST /api/v1/users/refresh-access-token

Description: Accepts the refresh token from the cookie or, for non-browser
clients, from the JSON body. On success the old token is dead and both
cookies carry the new pair.

Response:
  - 200: New token pair, rotated cookies
  - 401: Missing, invalid, or mismatched refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	presentedToken := ""
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		presentedToken = cookie.Value
	}
	if presentedToken == "" {
		var input refreshRequest
		if err := requestutil.DecodeJSON(request, &input); err == nil {
			presentedToken = input.RefreshToken
		}
	}
	if presentedToken == "" {
		respond.Error(writer, request, apperr.Unauthorized("Unauthorized request"))
		return
	}

	session, err := handler.authService.Refresh(request.Context(), presentedToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookies(writer, session)

	respond.OK(writer, map[string]any{
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
	}, "Access token refreshed")
}

/*
Logout ends the current session.

POST /api/v1/users/logout

Description: Clears the stored refresh token for the authenticated user and
expires both cookies. Safe to call repeatedly.

Response:
  - 200: Session terminated, cookies cleared
  - 401: Unauthenticated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearSessionCookies(writer)

	respond.OK(writer, map[string]any{}, "User logged out")
}

/*
ChangePassword updates the authenticated user's password.

POST /api/v1/users/update-password

Description: Verifies the old password and applies the new one. The current
session stays alive: the stored refresh token is not rotated by this path.

Request:
  - Body: changePasswordRequest (OldPassword, NewPassword, ConfirmPassword)

Response:
  - 200: Password changed
  - 400: Wrong old password, weak password, or confirmation mismatch
  - 401: Unauthenticated
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldOldPassword, input.OldPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength).
		Custom(FieldConfirmPassword, input.NewPassword != input.ConfirmPassword,
			"new password and confirm password do not match")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ChangePassword(request.Context(), userID, input.OldPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{}, "Password changed successfully")
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/users/forgot-password

Description: Always answers generically so the endpoint cannot be used to
probe which emails are registered.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Generic acknowledgement
  - 400: Invalid email format
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.authService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{}, "If this email is registered, a reset link has been sent")
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/users/reset-password

Description: Validates the reset token and updates the password. The stored
refresh token is cleared, so every device must log in again.

Request:
  - Body: resetPasswordRequest (Token, Password)

Response:
  - 200: Password updated
  - 400: Missing token or weak password
  - 404: Invalid or expired token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{}, "Password reset successfully")
}

// # Cookie Management

// setSessionCookies writes both auth cookies with TTL-aligned expiry.
func (handler *Handler) setSessionCookies(writer http.ResponseWriter, session *Session) {
	now := time.Now()
	writeAuthCookie(writer, constants.AccessTokenCookieName, session.AccessToken, now.Add(handler.accessTokenTTL))
	writeAuthCookie(writer, constants.RefreshTokenCookieName, session.RefreshToken, now.Add(handler.refreshTokenTTL))
}

// clearSessionCookies expires both auth cookies on the client.
func (handler *Handler) clearSessionCookies(writer http.ResponseWriter) {
	expireAuthCookie(writer, constants.AccessTokenCookieName)
	expireAuthCookie(writer, constants.RefreshTokenCookieName)
}

func writeAuthCookie(writer http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.AuthCookiePath,
		Expires:  expires,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func expireAuthCookie(writer http.ResponseWriter, name string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     constants.AuthCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
