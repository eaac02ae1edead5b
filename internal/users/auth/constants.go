// Copyright (c) 2026 Vistream. All rights reserved.

package auth

import "time"

// # Authentication Constraints

const (
	// MinPasswordLength is the smallest accepted password length.
	MinPasswordLength = 8

	// MinUsernameLength is the smallest accepted username length.
	MinUsernameLength = 3

	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32
)
