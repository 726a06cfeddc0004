package session_test

import (
	"testing"

	"github.com/clinrec/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeClaims(t *testing.T, payload map[string]any) *session.Claims {
	t.Helper()
	claims, err := session.Credential(makeCredential(t, payload)).Decode()
	require.NoError(t, err)
	return claims
}

func TestProjectUserIdentityFields(t *testing.T) {
	claims := decodeClaims(t, map[string]any{
		"id":        12,
		"matricule": "MAT-12",
		"nom":       "Ndiaye",
		"prenom":    "Fatou",
		"email":     "fatou.ndiaye@example.org",
		"adresse":   "Dakar, Plateau",
		"centreId":  4,
		"centreNom": "Centre Principal",
	})

	user := session.ProjectUser(claims)

	assert.Equal(t, "12", user.ID)
	assert.Equal(t, "MAT-12", user.Matricule)
	assert.Equal(t, "Ndiaye", user.LastName)
	assert.Equal(t, "Fatou", user.FirstName)
	assert.Equal(t, "fatou.ndiaye@example.org", user.Email)
	assert.Equal(t, "Dakar, Plateau", user.Address)
	assert.Equal(t, "4", user.Center.ID)
	assert.Equal(t, "Centre Principal", user.Center.Name)
}

func TestProjectUserDefaults(t *testing.T) {
	user := session.ProjectUser(decodeClaims(t, map[string]any{}))

	assert.Empty(t, user.Matricule)
	assert.Empty(t, user.FirstName)
	assert.Empty(t, user.LastName)
	assert.Empty(t, user.Email)
	assert.Empty(t, user.Phone)
	assert.Empty(t, user.Address)
	assert.Equal(t, session.StatusActive, user.Status)
	assert.Equal(t, session.DefaultRoleName, user.Role.Name)
}

func TestProjectUserSubjectFallback(t *testing.T) {
	user := session.ProjectUser(decodeClaims(t, map[string]any{
		"sub": "fallback-identity",
	}))
	assert.Equal(t, "fallback-identity", user.ID)
}

func TestProjectUserStatusPresence(t *testing.T) {
	t.Run("absent status defaults to active", func(t *testing.T) {
		user := session.ProjectUser(decodeClaims(t, map[string]any{"id": 1}))
		assert.Equal(t, session.StatusActive, user.Status)
	})

	t.Run("explicit empty status is preserved", func(t *testing.T) {
		// presence check, not truthiness
		user := session.ProjectUser(decodeClaims(t, map[string]any{
			"id":     1,
			"statut": "",
		}))
		assert.Equal(t, "", user.Status)
	})

	t.Run("explicit zero status is preserved", func(t *testing.T) {
		user := session.ProjectUser(decodeClaims(t, map[string]any{
			"id":     1,
			"statut": 0,
		}))
		assert.Equal(t, "0", user.Status)
	})

	t.Run("named status is kept", func(t *testing.T) {
		user := session.ProjectUser(decodeClaims(t, map[string]any{
			"id":     1,
			"statut": "SUSPENDED",
		}))
		assert.Equal(t, "SUSPENDED", user.Status)
	})
}

func TestResolveRoleTieBreak(t *testing.T) {
	t.Run("bare string synthesizes a role", func(t *testing.T) {
		user := session.ProjectUser(decodeClaims(t, map[string]any{
			"role": "DOCTOR",
		}))

		assert.Equal(t, "DOCTOR", user.Role.Name)
		assert.Equal(t, "Role DOCTOR", user.Role.Description)
	})

	t.Run("object role is used directly", func(t *testing.T) {
		user := session.ProjectUser(decodeClaims(t, map[string]any{
			"role": map[string]any{
				"id":          7,
				"nom":         "SAGE_FEMME",
				"description": "Sage femme",
			},
		}))

		assert.Equal(t, "7", user.Role.ID)
		assert.Equal(t, "SAGE_FEMME", user.Role.Name)
		assert.Equal(t, "Sage femme", user.Role.Description)
	})

	t.Run("object role without a name defaults it", func(t *testing.T) {
		user := session.ProjectUser(decodeClaims(t, map[string]any{
			"role": map[string]any{"id": 7},
		}))

		assert.Equal(t, session.DefaultRoleName, user.Role.Name)
		assert.Equal(t, "7", user.Role.ID)
	})

	t.Run("empty bare string falls back to the default", func(t *testing.T) {
		// an empty name would otherwise synthesize a nameless role
		user := session.ProjectUser(decodeClaims(t, map[string]any{
			"role": "",
		}))

		assert.Equal(t, session.DefaultRoleName, user.Role.Name)
		assert.Empty(t, user.Role.Description)
	})

	t.Run("missing role defaults entirely", func(t *testing.T) {
		user := session.ProjectUser(decodeClaims(t, map[string]any{"id": 1}))

		assert.Equal(t, session.DefaultRoleName, user.Role.Name)
		assert.Empty(t, user.Role.ID)
		assert.Empty(t, user.Role.Description)
	})
}

func TestProjectUserPhoneNormalization(t *testing.T) {
	t.Run("international number stays E164", func(t *testing.T) {
		user := session.ProjectUser(decodeClaims(t, map[string]any{
			"telephone": "+221771234567",
		}))
		assert.Equal(t, "+221771234567", user.Phone)
	})

	t.Run("unparsable value is kept raw", func(t *testing.T) {
		user := session.ProjectUser(decodeClaims(t, map[string]any{
			"telephone": "poste 42",
		}))
		assert.Equal(t, "poste 42", user.Phone)
	})
}

func TestProjectUserNilClaims(t *testing.T) {
	user := session.ProjectUser(nil)
	assert.Equal(t, session.StatusActive, user.Status)
	assert.Equal(t, session.DefaultRoleName, user.Role.Name)
}
