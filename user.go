package session

import (
	"github.com/nyaruka/phonenumbers"
)

// DefaultRoleName is assigned when the claims carry no usable role.
const DefaultRoleName = "USER"

// StatusActive is assumed when the status claim is absent entirely. An
// explicit status value, even an empty or zero one, is preserved as-is.
const StatusActive = "ACTIVE"

// PhoneRegion is the default region used to normalize phone claims that
// lack an international prefix.
var PhoneRegion = "SN"

// Role is the normalized role on a projected user.
type Role struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// CareCenter references the care center the user is attached to.
type CareCenter struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// User is the normalized record projected from credential claims. It is
// owned by SessionState and replaced wholesale on every hydration, never
// partially mutated.
type User struct {
	ID        string     `json:"id,omitempty"`
	Matricule string     `json:"matricule,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Phone     string     `json:"phone_number,omitempty"`
	Address   string     `json:"address,omitempty"`
	Status    string     `json:"status,omitempty"`
	Role      Role       `json:"role,omitempty"`
	Center    CareCenter `json:"care_center,omitempty"`
}

// ProjectUser maps decoded claims onto a normalized user record with
// defensive defaults: scalar identity fields default to empty strings,
// a missing status claim defaults to active, and the role resolves through
// ResolveRole.
func ProjectUser(claims *Claims) User {
	if claims == nil {
		return User{Status: StatusActive, Role: Role{Name: DefaultRoleName}}
	}

	user := User{
		ID:        claims.UserID.String(),
		Matricule: claims.Matricule.String(),
		FirstName: claims.FirstName.String(),
		LastName:  claims.LastName.String(),
		Email:     claims.Email.String(),
		Phone:     normalizePhone(claims.Phone.String()),
		Address:   claims.Address.String(),
		Status:    StatusActive,
		Role:      ResolveRole(claims.Role),
		Center: CareCenter{
			ID:   claims.CenterID.String(),
			Name: claims.CenterName.String(),
		},
	}

	if user.ID == "" {
		user.ID = claims.RegisteredClaims.Subject
	}

	// presence check, not truthiness: an explicit empty status stays empty
	if claims.Status != nil {
		user.Status = claims.Status.String()
	}

	return user
}

// ResolveRole applies the role tie-break order: a bare string synthesizes a
// role named after it, a structured object is used directly with its display
// name defaulted when missing, anything else falls back to the generic role.
func ResolveRole(claim *RoleClaim) Role {
	switch {
	case claim == nil:
		return Role{Name: DefaultRoleName}
	case claim.IsString() && claim.Name != "":
		return Role{
			Name:        claim.Name,
			Description: "Role " + claim.Name,
		}
	case claim.Object != nil:
		role := Role{
			ID:          claim.Object.ID.String(),
			Name:        claim.Object.Name,
			Description: claim.Object.Description,
		}
		if role.Name == "" {
			role.Name = DefaultRoleName
		}
		return role
	default:
		return Role{Name: DefaultRoleName}
	}
}

// normalizePhone returns the E.164 form when the claim parses as a valid
// number, otherwise the raw claim value.
func normalizePhone(raw string) string {
	if raw == "" {
		return ""
	}

	number, err := phonenumbers.Parse(raw, PhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return raw
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
