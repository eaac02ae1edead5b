// Copyright (c) 2026 Vistream. All rights reserved.

// Package normalize canonicalizes user-supplied identifiers before lookup
// and storage.
//
// # Usage
//
// Usernames and emails are unique, case-insensitive identities. Normalizing
// them once at the boundary guarantees that "MrBeast", "mrbeast" and
// full-width Unicode lookalikes all resolve to the same account row.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

// Username converts an arbitrary Unicode username into its canonical form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFKC (folds compatibility variants: ﬁ → fi, full-width → ASCII).
// 2. Case-folds to lowercase.
// 3. Trims surrounding whitespace.
func Username(s string) string {
	return strings.TrimSpace(lower.String(norm.NFKC.String(s)))
}

// Email canonicalizes an email address for uniqueness checks.
//
// The local part is technically case-sensitive per RFC 5321, but every
// mainstream provider treats it case-insensitively; lowercasing the whole
// address matches what users expect at login.
func Email(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
