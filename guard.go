package session

import "context"

// AuthBoundaryGuard keeps already-authenticated users off the login and
// registration surfaces. It is a one-shot check evaluated per navigation
// attempt, not a persistent subscription.
type AuthBoundaryGuard struct {
	manager   *Manager
	navigator Navigator
	landing   string
	logger    Logger
}

// NewAuthBoundaryGuard returns a guard redirecting authenticated visitors
// to the configured landing route.
func NewAuthBoundaryGuard(manager *Manager, navigator Navigator, cfg Config) *AuthBoundaryGuard {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if navigator == nil {
		navigator = noopNavigator{}
	}

	return &AuthBoundaryGuard{
		manager:   manager,
		navigator: navigator,
		landing:   cfg.GetLandingRoute(),
		logger:    defLogger{},
	}
}

func (g *AuthBoundaryGuard) WithLogger(logger Logger) *AuthBoundaryGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// CanEnterAuthSurface permits navigation only when unauthenticated. An
// authenticated visitor is redirected to the landing route as a side
// effect and denied.
func (g *AuthBoundaryGuard) CanEnterAuthSurface(ctx context.Context) bool {
	if g.manager.IsLoggedIn(ctx) {
		g.logger.Debug("authenticated visitor redirected off the auth surface")
		g.navigator.NavigateTo(g.landing)
		return false
	}
	return true
}
