package session

import "github.com/jrsteele09/go-shop-client/identity"

// Listener receives session lifecycle transitions. The cart store uses
// SessionStarted to pull fresh server-side cart contents and SessionEnded to
// discard locally persisted state. Listeners are invoked synchronously,
// outside the Manager's lock, in registration order.
type Listener interface {
	// SessionStarted fires after a login, and after a token refresh that
	// changed the session's subject.
	SessionStarted(id *identity.Identity)
	// SessionEnded fires after an explicit logout and after a session clear
	// forced by a failed refresh.
	SessionEnded()
}
