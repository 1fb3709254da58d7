package auth

import "fmt"

// Role is the closed set of account roles. The zero value is not a role.
type Role uint8

const (
	RolePatient Role = iota + 1
	RoleDoctor
	RoleAdmin
)

// ParseRole accepts only the three canonical role names.
func ParseRole(s string) (Role, error) {
	switch s {
	case "Patient":
		return RolePatient, nil
	case "Doctor":
		return RoleDoctor, nil
	case "Admin":
		return RoleAdmin, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string {
	switch r {
	case RolePatient:
		return "Patient"
	case RoleDoctor:
		return "Doctor"
	case RoleAdmin:
		return "Admin"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
