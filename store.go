package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Storage keys for the persisted session entries. The three entries are
// treated as a unit by clearing logic; the access credential's presence is
// the decisive indicator when loading.
const (
	AccessTokenKey  = "token"
	RefreshTokenKey = "refreshToken"
	ExpiresAtKey    = "expireDate"
)

// StoredSession is the persisted credential triple.
type StoredSession struct {
	AccessToken  Credential
	RefreshToken string
	ExpiresAt    time.Time
}

// CredentialStore persists the session triple on top of a KeyValueStore.
type CredentialStore struct {
	kv     KeyValueStore
	logger Logger
}

// NewCredentialStore wraps the given KeyValueStore.
func NewCredentialStore(kv KeyValueStore) *CredentialStore {
	return &CredentialStore{
		kv:     kv,
		logger: defLogger{},
	}
}

func (s *CredentialStore) WithLogger(logger Logger) *CredentialStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Save persists all three entries. The expiry is stored as epoch
// milliseconds; a zero ExpiresAt stores no expiry entry.
func (s *CredentialStore) Save(ctx context.Context, sess StoredSession) error {
	if err := s.kv.Set(ctx, AccessTokenKey, string(sess.AccessToken)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist access credential")
	}

	if err := s.kv.Set(ctx, RefreshTokenKey, sess.RefreshToken); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist refresh credential")
	}

	if sess.ExpiresAt.IsZero() {
		if err := s.kv.Delete(ctx, ExpiresAtKey); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to drop stale expiry entry")
		}
		return nil
	}

	expires := strconv.FormatInt(sess.ExpiresAt.UnixMilli(), 10)
	if err := s.kv.Set(ctx, ExpiresAtKey, expires); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist expiry entry")
	}

	return nil
}

// AccessToken returns the stored access credential, if any.
func (s *CredentialStore) AccessToken(ctx context.Context) (Credential, bool, error) {
	value, found, err := s.kv.Get(ctx, AccessTokenKey)
	if err != nil {
		return "", false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read access credential")
	}
	if !found || value == "" {
		return "", false, nil
	}
	return Credential(value), true, nil
}

// Load reads the stored triple. It fails with ErrNoStoredSession when no
// access credential is present; the refresh and expiry entries are optional.
func (s *CredentialStore) Load(ctx context.Context) (*StoredSession, error) {
	cred, found, err := s.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoStoredSession
	}

	sess := &StoredSession{AccessToken: cred}

	if refresh, ok, err := s.kv.Get(ctx, RefreshTokenKey); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read refresh credential")
	} else if ok {
		sess.RefreshToken = refresh
	}

	if raw, ok, err := s.kv.Get(ctx, ExpiresAtKey); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read expiry entry")
	} else if ok && raw != "" {
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.logger.Warn("ignoring unparsable expiry entry: %q", raw)
		} else {
			sess.ExpiresAt = time.UnixMilli(millis)
		}
	}

	return sess, nil
}

// Clear removes all three entries as a unit. Every deletion is attempted
// even when an earlier one fails; the first failure is returned.
func (s *CredentialStore) Clear(ctx context.Context) error {
	var firstErr error
	for _, key := range []string{AccessTokenKey, RefreshTokenKey, ExpiresAtKey} {
		if err := s.kv.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear stored session")
		}
	}
	return firstErr
}

// MemoryStore is an in-process KeyValueStore for tests and ephemeral
// sessions.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

// Get satisfies the KeyValueStore interface.
func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	return value, ok, nil
}

// Set satisfies the KeyValueStore interface.
func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete satisfies the KeyValueStore interface.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

var _ KeyValueStore = (*MemoryStore)(nil)
