package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Credential is an opaque bearer token: header.claims.signature. It is
// immutable once issued; everything this package knows about it is derived
// from the claims segment.
type Credential string

const credentialSegments = 3

// IsStructurallyValid requires exactly three non-empty dot-separated
// segments. A credential failing this check is treated identically to an
// absent one everywhere else in the package.
func (c Credential) IsStructurallyValid() bool {
	if c == "" {
		return false
	}

	parts := strings.Split(string(c), ".")
	if len(parts) != credentialSegments {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
	}
	return true
}

// Decode extracts the claims segment without verifying the signature. The
// client holds no key material; the records API is the sole verifier.
func (c Credential) Decode() (*Claims, error) {
	if !c.IsStructurallyValid() {
		return nil, ErrCredentialMalformed
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(string(c), claims); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "unable to decode credential claims")
	}

	return claims, nil
}

// ExpiryInstant derives the expiry from the exp claim. The second return is
// false when the credential cannot be decoded or carries no exp claim; such
// a credential arms no timer but is still considered non-expired until
// proven otherwise.
func (c Credential) ExpiryInstant() (time.Time, bool) {
	claims, err := c.Decode()
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// IsExpiredAt reports whether the credential's expiry has passed at the
// given instant.
func (c Credential) IsExpiredAt(now time.Time) bool {
	exp, ok := c.ExpiryInstant()
	if !ok {
		return false
	}
	return !exp.After(now)
}

// IsExpired reports whether the credential's expiry has passed.
func (c Credential) IsExpired() bool {
	return c.IsExpiredAt(time.Now())
}
