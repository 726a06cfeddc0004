package session_test

import (
	"testing"

	"github.com/clinrec/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStateAtomicPair(t *testing.T) {
	state := session.NewSessionState()

	assert.Nil(t, state.CurrentUser())
	assert.False(t, state.IsAuthenticated())

	state.Hydrate(session.User{ID: "1", FirstName: "Awa"})
	require.NotNil(t, state.CurrentUser())
	assert.True(t, state.IsAuthenticated())
	assert.Equal(t, "Awa", state.CurrentUser().FirstName)

	state.Clear()
	assert.Nil(t, state.CurrentUser())
	assert.False(t, state.IsAuthenticated())
}

func TestSessionStateObserversSeeConsistentPairs(t *testing.T) {
	state := session.NewSessionState()

	type emission struct {
		user          *session.User
		authenticated bool
	}
	var seen []emission

	sub := state.ObserveCurrentUser(func(u *session.User) {
		seen = append(seen, emission{user: u, authenticated: state.IsAuthenticated()})
	})
	defer sub.Unsubscribe()

	state.Hydrate(session.User{ID: "1"})
	state.Clear()

	require.Len(t, seen, 3)
	// replayed initial value
	assert.Nil(t, seen[0].user)
	// hydrate publishes both halves together
	require.NotNil(t, seen[1].user)
	assert.True(t, seen[1].authenticated)
	// clear does too
	assert.Nil(t, seen[2].user)
	assert.False(t, seen[2].authenticated)
}

func TestSessionStateReplayOnSubscribe(t *testing.T) {
	state := session.NewSessionState()
	state.Hydrate(session.User{ID: "7"})

	var got []bool
	sub := state.ObserveAuthenticated(func(v bool) {
		got = append(got, v)
	})
	defer sub.Unsubscribe()

	require.Len(t, got, 1, "current value must be emitted on subscribe")
	assert.True(t, got[0])
}

func TestSessionStateUnsubscribeStopsEmissions(t *testing.T) {
	state := session.NewSessionState()

	count := 0
	sub := state.ObserveAuthenticated(func(bool) { count++ })
	require.Equal(t, 1, count)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	state.Hydrate(session.User{ID: "1"})
	assert.Equal(t, 1, count)
}

func TestSessionStateSnapshotIsACopy(t *testing.T) {
	state := session.NewSessionState()
	state.Hydrate(session.User{ID: "1", FirstName: "Awa"})

	snapshot := state.CurrentUser()
	snapshot.FirstName = "mutated"

	assert.Equal(t, "Awa", state.CurrentUser().FirstName)
}
