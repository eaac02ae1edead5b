// Copyright (c) 2026 Vistream. All rights reserved.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vistream/vistream/internal/platform/apperr"
	"github.com/vistream/vistream/internal/platform/constants"
	"github.com/vistream/vistream/internal/platform/ctxutil"
	"github.com/vistream/vistream/internal/platform/respond"
	"github.com/vistream/vistream/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify access tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the sec.TokenService
// implementation, allowing us to easily inject fakes during unit testing.
type TokenVerifier interface {
	VerifyAccessToken(tokenString string) (*sec.AccessClaims, error)
}

// IdentityResolver resolves a verified token subject to a live, sanitized
// user identity.
//
// # Why resolve at the gate?
//
// A deleted account can still hold a structurally valid access token until it
// expires. Resolving the subject on every protected request guarantees such
// tokens stop working the moment the account disappears.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (*sec.Identity, error)
}

// Authenticate extracts and verifies the access token, then attaches the
// resolved identity to the request context.
//
// # Flow
//  1. Read the access token from the 'accessToken' cookie; fall back to the
//     'Authorization: Bearer <token>' header if the cookie is absent.
//  2. If neither is present, the request proceeds as anonymous
//     ([RequireAuth] gates the protected routes).
//  3. Verify signature and expiry via [TokenVerifier]. Every failure surfaces
//     as the same generic 401 — clients never learn whether the token was
//     expired or tampered.
//  4. Resolve the subject to a live user via [IdentityResolver]; 401 if the
//     account no longer exists.
//  5. Inject [*sec.Identity] into the request context for downstream use.
//
// # Side Effects
//
// None beyond context attachment. This is purely a gate — it never mutates
// session state.
func Authenticate(verifier TokenVerifier, resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Token Extraction (cookie first, bearer header fallback) ────
			tokenString := extractAccessToken(request)
			if tokenString == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyAccessToken(tokenString)
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid access token"))
				return
			}

			// ── 3. Identity Resolution ────────────────────────────────────────
			identity, err := resolver.ResolveIdentity(request.Context(), claims.UserID)
			if err != nil || identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid access token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.Identity] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized — the protected handler
//     body never executes.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		identity := ctxutil.GetIdentity(request.Context())
		if identity == nil {
			respond.Error(writer, request, apperr.Unauthorized("Unauthorized request"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// extractAccessToken pulls the raw access token from the request.
//
// Cookie-based browser clients win; bearer-token API clients are the fallback.
func extractAccessToken(request *http.Request) string {
	if cookie, err := request.Cookie(constants.AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
