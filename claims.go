package session

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded middle segment of a bearer credential. Field names
// follow the records API wire contract; the fields are read-only by
// convention, this package never issues credentials.
type Claims struct {
	jwt.RegisteredClaims
	UserID     claimString  `json:"id,omitempty"`
	Matricule  claimString  `json:"matricule,omitempty"`
	LastName   claimString  `json:"nom,omitempty"`
	FirstName  claimString  `json:"prenom,omitempty"`
	Email      claimString  `json:"email,omitempty"`
	Phone      claimString  `json:"telephone,omitempty"`
	Address    claimString  `json:"adresse,omitempty"`
	Status     *claimString `json:"statut,omitempty"`
	Role       *RoleClaim   `json:"role,omitempty"`
	CenterID   claimString  `json:"centreId,omitempty"`
	CenterName claimString  `json:"centreNom,omitempty"`
}

// RoleObject is the structured form of a role claim.
type RoleObject struct {
	ID          claimString `json:"id,omitempty"`
	Name        string      `json:"nom,omitempty"`
	Description string      `json:"description,omitempty"`
}

// RoleClaim is a tagged union: the wire encodes the role either as a bare
// role name or as a structured role object. Object is nil for the bare
// string form.
type RoleClaim struct {
	Name   string
	Object *RoleObject
}

// IsString reports whether the claim carried the bare string form.
func (r *RoleClaim) IsString() bool {
	return r != nil && r.Object == nil
}

// UnmarshalJSON satisfies the json.Unmarshaler interface.
func (r *RoleClaim) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &r.Name)
	}

	obj := &RoleObject{}
	if err := json.Unmarshal(trimmed, obj); err != nil {
		return err
	}
	r.Object = obj
	r.Name = obj.Name
	return nil
}

// MarshalJSON satisfies the json.Marshaler interface.
func (r *RoleClaim) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	if r.Object != nil {
		return json.Marshal(r.Object)
	}
	return json.Marshal(r.Name)
}

// claimString tolerates the loose encodings the records API emits for
// scalar claims: strings, numbers, and booleans all normalize to a string.
type claimString string

func (s *claimString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return err
	}

	switch v := value.(type) {
	case string:
		*s = claimString(v)
	case float64:
		*s = claimString(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		*s = claimString(strconv.FormatBool(v))
	default:
		*s = claimString(trimmed)
	}
	return nil
}

func (s claimString) String() string {
	return string(s)
}
