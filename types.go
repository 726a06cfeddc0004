package session

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// AuthAPI is the outbound wire surface this package consumes. Everything
// else the records API exposes belongs to other collaborators.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// KeyValueStore is client-local persistent storage. Entries survive
// application restarts.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Navigator moves the application to a different surface. Implementations
// bridge to whatever routing layer hosts this package.
type Navigator interface {
	NavigateTo(route string)
}

// NavigatorFunc adapts a function into a Navigator.
type NavigatorFunc func(route string)

// NavigateTo satisfies the Navigator interface.
func (f NavigatorFunc) NavigateTo(route string) {
	if f != nil {
		f(route)
	}
}

type noopNavigator struct{}

func (noopNavigator) NavigateTo(string) {}

// Config holds session options
type Config interface {
	GetLoginRoute() string
	GetLandingRoute() string
	GetSafetyMargin() time.Duration
}

// Default routes and safety margin used when Config leaves them unset.
const (
	DefaultLoginRoute   = "/login"
	DefaultLandingRoute = "/dashboard"
)

// SimpleConfig is a plain-struct Config implementation. Zero values fall
// back to the package defaults.
type SimpleConfig struct {
	LoginRoute   string
	LandingRoute string
	SafetyMargin time.Duration
}

func (c *SimpleConfig) GetLoginRoute() string {
	if c == nil || c.LoginRoute == "" {
		return DefaultLoginRoute
	}
	return c.LoginRoute
}

func (c *SimpleConfig) GetLandingRoute() string {
	if c == nil || c.LandingRoute == "" {
		return DefaultLandingRoute
	}
	return c.LandingRoute
}

func (c *SimpleConfig) GetSafetyMargin() time.Duration {
	if c == nil || c.SafetyMargin <= 0 {
		return SafetyMargin
	}
	return c.SafetyMargin
}

// DefaultConfig returns a Config with package defaults.
func DefaultConfig() Config {
	return &SimpleConfig{}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
