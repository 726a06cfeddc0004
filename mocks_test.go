package session_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/clinrec/go-session"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthAPI implements session.AuthAPI
type MockAuthAPI struct {
	mock.Mock
}

func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (*session.TokenResponse, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*session.TokenResponse)
	return res, args.Error(1)
}

func (m *MockAuthAPI) RefreshToken(ctx context.Context, refreshToken string) (*session.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	res, _ := args.Get(0).(*session.TokenResponse)
	return res, args.Error(1)
}

// recordingNavigator captures every route the manager navigates to.
type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) NavigateTo(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

func (n *recordingNavigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = nil
}

// gatedStore wraps a KeyValueStore and wedges one Set call on a chosen key
// until released, exposing the persist window to concurrency tests.
type gatedStore struct {
	inner   session.KeyValueStore
	mu      sync.Mutex
	gateKey string
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(inner session.KeyValueStore) *gatedStore {
	return &gatedStore{inner: inner}
}

// GateNextSet arms a one-shot gate: the next Set on key signals entered and
// blocks until release is closed.
func (s *gatedStore) GateNextSet(key string) (entered, release chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateKey = key
	s.entered = make(chan struct{})
	s.release = make(chan struct{})
	return s.entered, s.release
}

func (s *gatedStore) Get(ctx context.Context, key string) (string, bool, error) {
	return s.inner.Get(ctx, key)
}

func (s *gatedStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	gated := s.gateKey != "" && key == s.gateKey
	entered, release := s.entered, s.release
	if gated {
		s.gateKey = ""
	}
	s.mu.Unlock()

	if gated {
		close(entered)
		<-release
	}
	return s.inner.Set(ctx, key, value)
}

func (s *gatedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// silentLogger keeps test output clean.
type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}

// makeCredential builds an unsigned three-segment bearer token from raw
// claims. The signature segment is never verified client-side.
func makeCredential(t *testing.T, claims map[string]any) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".c2lnbmF0dXJl"
}

// fixedClock returns a clock stuck at the given instant.
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
