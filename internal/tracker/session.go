package tracker

import (
	"github.com/google/uuid"
)

// Session is the explicit per-browser-session context passed into the
// tracker. The browser keeps the identifier in session storage; when a
// client shows up without one, NewSessionID mints it. The struct is plain
// data so tests can construct sessions deterministically.
type Session struct {
	// ID is the opaque session identifier, stable for the lifetime of the
	// browser's session storage.
	ID string

	// UserID links the session to a signed-in user, when known.
	UserID *string

	// UserAgent is the browser's User-Agent string.
	UserAgent string

	// Host is the hostname of the page origin, used for the localhost guard.
	Host string

	// Consent is the raw client-persisted consent record.
	Consent []byte

	// Timezone and Locale are browser hints forwarded for geo resolution.
	Timezone string
	Locale   string
}

// NewSessionID mints a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}
