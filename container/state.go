package container

// SessionState describes whether a container currently holds a user session.
// A container is in one and only one state at any given point in time. A
// freshly constructed container is always Unknown; Configure moves it to
// LoggedIn when a previous session is found, or NoSession otherwise.
type SessionState string

const (
	SessionStateUnknown   SessionState = "Unknown"
	SessionStateNoSession SessionState = "NoSession"
	SessionStateLoggedIn  SessionState = "LoggedIn"
)

// SessionStateChangeReason is the trigger behind a session state transition:
//
//	                                                  Logout/Expired
//	                                         +-----------------------------------------+
//	                                         v                                         |
//	State: Unknown ----- NoToken ----> State: NoSession ---- Authorized -----> State: LoggedIn
//	  |                                                                                ^
//	  +--------------------------------------------------------------------------------+
//	                                     FoundToken
//
// A LoggedIn with reason Authorized means the user just logged in; with
// FoundToken, a previous session of the user was found.
type SessionStateChangeReason string

const (
	SessionStateChangeReasonNoToken    SessionStateChangeReason = "NoToken"
	SessionStateChangeReasonFoundToken SessionStateChangeReason = "FoundToken"
	SessionStateChangeReasonAuthorized SessionStateChangeReason = "Authorized"
	SessionStateChangeReasonLogout     SessionStateChangeReason = "Logout"
	SessionStateChangeReasonExpired    SessionStateChangeReason = "Expired"
)

// SessionStateListener observes session state transitions. Listeners are
// invoked synchronously from the operation that triggered the transition,
// exactly once per actual change; they must treat the container as
// read-only.
type SessionStateListener interface {
	OnSessionStateChanged(container *Container, reason SessionStateChangeReason)
}

// updateSessionState records a transition and notifies listeners. Calls
// that would not change the (state, reason) pair are no-ops and notify
// nobody.
func (c *Container) updateSessionState(state SessionState, reason SessionStateChangeReason) {
	if c.sessionState == state && c.sessionStateReason == reason {
		return
	}
	c.sessionState = state
	c.sessionStateReason = reason
	c.logger.Debug().
		Str("state", string(state)).
		Str("reason", string(reason)).
		Msg("session state changed")
	for _, listener := range c.listeners {
		listener.OnSessionStateChanged(c, reason)
	}
}
