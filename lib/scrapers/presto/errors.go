package presto

import "fmt"

type AuthErrorKind string

const (
	KindInvalidCredentials   AuthErrorKind = "invalid_credentials"
	KindAttemptLimitExceeded AuthErrorKind = "attempt_limit_exceeded"
	KindAuthFailed           AuthErrorKind = "auth_failed"
	KindNotLoggedIn          AuthErrorKind = "not_logged_in"
)

// AuthError is any failure to establish or use an authenticated portal
// session. Kind is a fixed vocabulary so callers can branch on "portal
// rejected credentials" vs "could not reach or understand the portal"
// without string matching.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
	cause   error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.cause
}

type TokenErrorKind string

const (
	TokenNotFound  TokenErrorKind = "token_not_found"
	TokenMalformed TokenErrorKind = "token_malformed"
)

type TokenError struct {
	Kind  TokenErrorKind
	Scope TokenScope
}

func (e *TokenError) Error() string {
	if e.Kind == TokenMalformed {
		return "verification token carries no value"
	}
	// a missing login-scope token means the login form wasn't on the
	// page, a missing generic-scope token after a 200 response almost
	// always means the session silently expired
	if e.Scope == ScopeLogin {
		return "login verification token not found"
	}
	return "not logged in"
}

// ParseError means the markup no longer matches the selectors this
// scraper was written against. it is deliberately not an empty result:
// an absent container is indistinguishable from a broken parser unless
// the portal positively renders its own empty state.
type ParseError struct {
	Selector string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("required selector %q is missing from the page", e.Selector)
}
