package session

// sessionSnapshot pairs the two cells so observers always see them change
// together.
type sessionSnapshot struct {
	user          *User
	authenticated bool
}

// SessionState publishes the current user and the authenticated flag.
// Invariant: authenticated is true iff the user is non-nil; the pair is
// replaced atomically by Hydrate and Clear, the only mutation paths.
type SessionState struct {
	cell *observable[sessionSnapshot]
}

// NewSessionState returns a cleared SessionState.
func NewSessionState() *SessionState {
	return &SessionState{cell: newObservable(sessionSnapshot{})}
}

// Hydrate sets the pair to (user, true).
func (s *SessionState) Hydrate(user User) {
	u := user
	s.cell.set(sessionSnapshot{user: &u, authenticated: true})
}

// Clear sets the pair to (nil, false).
func (s *SessionState) Clear() {
	s.cell.set(sessionSnapshot{})
}

// CurrentUser returns a point-in-time snapshot of the current user, nil when
// no session is active. The returned value is a copy.
func (s *SessionState) CurrentUser() *User {
	snap := s.cell.get()
	if snap.user == nil {
		return nil
	}
	user := *snap.user
	return &user
}

// IsAuthenticated returns a point-in-time snapshot of the authenticated flag.
func (s *SessionState) IsAuthenticated() bool {
	return s.cell.get().authenticated
}

// ObserveCurrentUser emits the current user immediately and on every
// hydrate/clear afterwards.
func (s *SessionState) ObserveCurrentUser(fn func(*User)) *Subscription {
	return s.cell.subscribe(func(snap sessionSnapshot) {
		if snap.user == nil {
			fn(nil)
			return
		}
		user := *snap.user
		fn(&user)
	})
}

// ObserveAuthenticated emits the authenticated flag immediately and on every
// hydrate/clear afterwards.
func (s *SessionState) ObserveAuthenticated(fn func(bool)) *Subscription {
	return s.cell.subscribe(func(snap sessionSnapshot) {
		fn(snap.authenticated)
	})
}
