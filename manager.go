package session

import (
	"context"
	"errors"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// AuthStatus identifies the manager's lifecycle state.
type AuthStatus string

const (
	StatusUnauthenticated AuthStatus = "unauthenticated"
	StatusAuthenticating  AuthStatus = "authenticating"
	StatusAuthenticated   AuthStatus = "authenticated"
	StatusRefreshing      AuthStatus = "refreshing"
)

// errStaleAuthResponse marks a login/refresh response that landed after a
// logout superseded it. The response is discarded, never applied.
var errStaleAuthResponse = errors.New("auth response superseded by logout")

// Manager orchestrates the session lifecycle. It is the only writer of the
// credential store, the published session state, and the expiration
// scheduler; everything else reads session state or calls Login, Logout,
// and IsLoggedIn.
type Manager struct {
	api       AuthAPI
	store     *CredentialStore
	state     *SessionState
	scheduler *ExpirationScheduler
	navigator Navigator
	cfg       Config
	logger    Logger
	now       func() time.Time

	mu     sync.Mutex
	status AuthStatus
	epoch  uint64

	transitions map[AuthStatus]map[AuthStatus]struct{}
}

// NewManager returns a Manager persisting through kv and calling the
// records API through api.
func NewManager(api AuthAPI, kv KeyValueStore, cfg Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	m := &Manager{
		api:       api,
		store:     NewCredentialStore(kv),
		state:     NewSessionState(),
		navigator: noopNavigator{},
		cfg:       cfg,
		logger:    defLogger{},
		now:       time.Now,
		status:    StatusUnauthenticated,
		transitions: map[AuthStatus]map[AuthStatus]struct{}{
			StatusUnauthenticated: {
				StatusAuthenticating: {},
				StatusAuthenticated:  {},
			},
			StatusAuthenticating: {
				StatusAuthenticated:   {},
				StatusUnauthenticated: {},
			},
			StatusAuthenticated: {
				StatusRefreshing:      {},
				StatusUnauthenticated: {},
			},
			StatusRefreshing: {
				StatusAuthenticated:   {},
				StatusUnauthenticated: {},
			},
		},
	}

	m.scheduler = NewExpirationScheduler(m.forceLogout).
		WithSafetyMargin(cfg.GetSafetyMargin())

	return m
}

func (m *Manager) WithLogger(logger Logger) *Manager {
	if logger != nil {
		m.logger = logger
		m.scheduler.WithLogger(logger)
		m.store.WithLogger(logger)
	}
	return m
}

// WithClock injects a custom clock (useful for tests).
func (m *Manager) WithClock(clock func() time.Time) *Manager {
	if clock != nil {
		m.now = clock
		m.scheduler.WithClock(clock)
	}
	return m
}

// WithNavigator sets the Navigator used for post-logout redirects.
func (m *Manager) WithNavigator(navigator Navigator) *Manager {
	if navigator != nil {
		m.navigator = navigator
	}
	return m
}

// Scheduler returns the expiration scheduler owned by this Manager.
func (m *Manager) Scheduler() *ExpirationScheduler {
	return m.scheduler
}

// Store returns the credential store owned by this Manager.
func (m *Manager) Store() *CredentialStore {
	return m.store
}

// Status returns the current lifecycle state.
func (m *Manager) Status() AuthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// CurrentUser returns a snapshot of the current user, nil when signed out.
func (m *Manager) CurrentUser() *User {
	return m.state.CurrentUser()
}

// IsAuthenticated returns a snapshot of the authenticated flag. Unlike
// IsLoggedIn it trusts the published state and does not consult storage.
func (m *Manager) IsAuthenticated() bool {
	return m.state.IsAuthenticated()
}

// ObserveCurrentUser subscribes to the current user cell.
func (m *Manager) ObserveCurrentUser(fn func(*User)) *Subscription {
	return m.state.ObserveCurrentUser(fn)
}

// ObserveAuthenticated subscribes to the authenticated cell.
func (m *Manager) ObserveAuthenticated(fn func(bool)) *Subscription {
	return m.state.ObserveAuthenticated(fn)
}

// Login exchanges credentials for a bearer token, persists the session
// triple, publishes the session, and arms the expiration slot. Network
// failures surface as the generic ErrInvalidCredentials; the raw transport
// error is only logged.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	payload := LoginRequest{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid login payload")
	}

	epoch, err := m.begin(StatusAuthenticating)
	if err != nil {
		return err
	}

	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.logger.Error("login request rejected: %v", err)
		m.abort(epoch, StatusAuthenticating)
		return ErrInvalidCredentials
	}

	if err := m.commit(ctx, res, epoch, StatusAuthenticating); err != nil {
		if errors.Is(err, errStaleAuthResponse) {
			// the logout that superseded this response already produced
			// the correct end state
			return nil
		}
		if IsCredentialMalformedError(err) || IsCredentialDecodeError(err) {
			m.logger.Error("login returned an unusable credential: %v", err)
			return ErrInvalidCredentials
		}
		return err
	}

	return nil
}

// Logout clears the stored triple, the published session, and the pending
// expiration slot, then navigates to the login surface. Idempotent: safe to
// call with no session present, and any in-flight refresh response is
// discarded afterwards.
func (m *Manager) Logout(ctx context.Context) error {
	return m.teardown(ctx, true)
}

// RefreshToken exchanges the stored refresh credential for a fresh access
// credential and re-hydrates the session. Any failure forces a sign-out;
// a logout racing the round-trip wins and the late response is discarded.
func (m *Manager) RefreshToken(ctx context.Context) error {
	epoch, err := m.begin(StatusRefreshing)
	if err != nil {
		return err
	}

	stored, err := m.store.Load(ctx)
	if err != nil || stored.RefreshToken == "" {
		m.logger.Error("no refresh credential available: %v", err)
		m.failRefresh(ctx, epoch)
		return ErrRefreshFailed
	}

	res, err := m.api.RefreshToken(ctx, stored.RefreshToken)
	if err != nil {
		m.logger.Error("refresh request rejected: %v", err)
		m.failRefresh(ctx, epoch)
		return ErrRefreshFailed
	}

	if err := m.commit(ctx, res, epoch, StatusRefreshing); err != nil {
		if errors.Is(err, errStaleAuthResponse) {
			return nil
		}
		m.logger.Error("refresh returned an unusable credential: %v", err)
		m.failRefresh(ctx, epoch)
		return ErrRefreshFailed
	}

	return nil
}

// Rehydrate restores the session from storage at application boot: a
// structurally valid, non-expired stored credential hydrates the session
// and arms the scheduler; anything else drops the stored entries and leaves
// the machine unauthenticated.
func (m *Manager) Rehydrate(ctx context.Context) error {
	m.mu.Lock()
	if m.status != StatusUnauthenticated {
		m.mu.Unlock()
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"from": string(m.status),
			"to":   string(StatusAuthenticated),
		})
	}
	epoch := m.epoch
	m.mu.Unlock()

	cred, found, err := m.store.AccessToken(ctx)
	if err != nil {
		return err
	}

	if !found || !cred.IsStructurallyValid() || cred.IsExpiredAt(m.now()) {
		return m.dropStored(ctx)
	}

	claims, err := cred.Decode()
	if err != nil {
		m.logger.Warn("stored credential is undecodable, dropping it")
		return m.dropStored(ctx)
	}

	m.mu.Lock()
	if m.epoch != epoch || m.status != StatusUnauthenticated {
		m.mu.Unlock()
		return nil
	}
	m.status = StatusAuthenticated
	m.state.Hydrate(ProjectUser(claims))
	m.mu.Unlock()

	m.scheduler.Arm(cred)

	// Arm ran outside the lock; a logout interleaving there bumped the
	// epoch, and its teardown must keep the last word on the slot
	m.mu.Lock()
	superseded := m.epoch != epoch
	m.mu.Unlock()
	if superseded {
		m.scheduler.Cancel()
	}
	return nil
}

// dropStored removes whatever stored entries remain, partial ones included,
// and leaves the machine signed out. Boot-time cleanup navigates nowhere.
func (m *Manager) dropStored(ctx context.Context) error {
	return m.store.Clear(ctx)
}

// IsLoggedIn checks structural validity and expiration against the live
// stored credential on every call, self-healing the published session when
// it disagrees with the stored truth. Healing runs inside the manager's one
// synchronous mutation path, so it can never resurrect a session that a
// logout just cleared. Transient statuses (a login or refresh in flight)
// are left untouched.
func (m *Manager) IsLoggedIn(ctx context.Context) bool {
	var armCred Credential
	var arm bool
	var armEpoch uint64

	m.mu.Lock()
	cred, found, err := m.store.AccessToken(ctx)
	if err != nil {
		m.logger.Error("failed to read stored credential: %v", err)
		found = false
	}

	valid := found && cred.IsStructurallyValid() && !cred.IsExpiredAt(m.now())

	if !valid {
		if m.status == StatusAuthenticated || m.state.IsAuthenticated() {
			m.logger.Warn("published session disagrees with storage, clearing it")
			m.clearLocked()
		}
		m.mu.Unlock()
		return false
	}

	if !m.state.IsAuthenticated() &&
		(m.status == StatusUnauthenticated || m.status == StatusAuthenticated) {
		claims, err := cred.Decode()
		if err != nil {
			// structurally valid but undecodable: fail closed
			m.logger.Warn("stored credential is undecodable, clearing it")
			m.clearLocked()
			if err := m.store.Clear(ctx); err != nil {
				m.logger.Error("failed to clear stored session: %v", err)
			}
			m.mu.Unlock()
			return false
		}

		m.logger.Warn("published session missing for stored credential, rebuilding it")
		m.status = StatusAuthenticated
		m.state.Hydrate(ProjectUser(claims))
		arm, armCred, armEpoch = true, cred, m.epoch
	}
	m.mu.Unlock()

	if arm {
		m.scheduler.Arm(armCred)

		// the deferred Arm ran outside the lock; a logout interleaving
		// there wins, and its teardown keeps the slot cancelled
		m.mu.Lock()
		superseded := m.epoch != armEpoch
		m.mu.Unlock()
		if superseded {
			m.scheduler.Cancel()
			return false
		}
	}
	return true
}

// begin moves the machine into a transient status and captures the epoch
// the eventual response must still match.
func (m *Manager) begin(to AuthStatus) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.canTransition(m.status, to) {
		return 0, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": string(m.status),
			"to":   string(to),
		})
	}

	m.status = to
	return m.epoch, nil
}

// abort rolls a transient status back after a failed round-trip, unless a
// logout already superseded it.
func (m *Manager) abort(epoch uint64, from AuthStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == epoch && m.status == from {
		m.status = StatusUnauthenticated
	}
}

// commit validates the fresh credential, persists the triple, publishes the
// session, and arms the expiration slot. A response whose epoch is stale
// returns errStaleAuthResponse and leaves state exactly as the logout
// left it; a logout landing mid-apply is detected by re-checking the epoch
// after every side effect that ran outside the lock, and the partial
// effects are rolled back.
func (m *Manager) commit(ctx context.Context, res *TokenResponse, epoch uint64, from AuthStatus) error {
	cred := Credential(res.Token)
	claims, err := cred.Decode()
	if err != nil {
		m.abort(epoch, from)
		return err
	}

	expiry, _ := cred.ExpiryInstant()

	m.mu.Lock()
	if m.epoch != epoch || m.status != from {
		m.mu.Unlock()
		m.logger.Warn("discarding auth response superseded by logout")
		return errStaleAuthResponse
	}
	m.status = StatusAuthenticated
	m.mu.Unlock()

	sess := StoredSession{
		AccessToken:  cred,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    expiry,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		// authenticated iff a valid credential is stored; a failed write
		// breaks that, so tear the half-built session down again
		m.logger.Error("failed to persist session: %v", err)
		if terr := m.teardown(ctx, false); terr != nil {
			m.logger.Error("session teardown failed: %v", terr)
		}
		return err
	}

	// a logout may have landed while the save was in flight: it bumps the
	// epoch before clearing storage, so the saved triple must be rolled
	// back, never published
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logger.Warn("discarding auth response superseded by logout")
		m.rollbackStale(ctx)
		return errStaleAuthResponse
	}
	m.state.Hydrate(ProjectUser(claims))
	m.mu.Unlock()

	m.scheduler.Arm(cred)

	// Arm ran outside the lock too; undo it when a logout interleaved
	m.mu.Lock()
	superseded := m.epoch != epoch
	m.mu.Unlock()
	if superseded {
		m.rollbackStale(ctx)
		return errStaleAuthResponse
	}
	return nil
}

// rollbackStale undoes side effects applied by a response that a logout
// superseded mid-apply. A later login may already own the session again, so
// nothing is touched unless the machine is still signed out.
func (m *Manager) rollbackStale(ctx context.Context) {
	m.mu.Lock()
	signedOut := m.status == StatusUnauthenticated
	m.mu.Unlock()
	if !signedOut {
		return
	}

	m.scheduler.Cancel()
	m.state.Clear()
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("failed to clear stored session: %v", err)
	}
}

// teardown is the single sign-out path shared by explicit logout, forced
// expiration, and refresh failure: bump the epoch so in-flight responses
// get discarded, cancel the slot, clear the published session and the
// stored triple, then navigate to the login surface.
func (m *Manager) teardown(ctx context.Context, navigate bool) error {
	m.mu.Lock()
	m.epoch++
	m.status = StatusUnauthenticated
	m.mu.Unlock()

	m.scheduler.Cancel()
	m.state.Clear()

	err := m.store.Clear(ctx)
	if err != nil {
		m.logger.Error("failed to clear stored session: %v", err)
	}

	if navigate {
		m.navigator.NavigateTo(m.cfg.GetLoginRoute())
	}
	return err
}

// failRefresh forces sign-out unless a logout already superseded the
// refresh, in which case there is nothing left to clear.
func (m *Manager) failRefresh(ctx context.Context, epoch uint64) {
	m.mu.Lock()
	superseded := m.epoch != epoch
	m.mu.Unlock()

	if superseded {
		return
	}
	if err := m.teardown(ctx, true); err != nil {
		m.logger.Error("refresh failure cleanup failed: %v", err)
	}
}

// forceLogout is the scheduler's callback.
func (m *Manager) forceLogout() {
	m.logger.Info("credential reached its expiry margin, forcing sign-out")
	if err := m.teardown(context.Background(), true); err != nil {
		m.logger.Error("forced sign-out cleanup failed: %v", err)
	}
}

// clearLocked resets the lifecycle state in place. Caller holds m.mu.
func (m *Manager) clearLocked() {
	m.epoch++
	m.status = StatusUnauthenticated
	m.scheduler.Cancel()
	m.state.Clear()
}

func (m *Manager) canTransition(from, to AuthStatus) bool {
	if allowed, ok := m.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}
