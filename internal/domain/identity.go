package domain

// Role is the account role carried by a verified credential
type Role string

const (
	RoleStudent  Role = "student"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the known account roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// Identity is the verified (user, role, email) tuple attached to an
// authenticated connection. Immutable for the life of the connection.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Email  string `json:"email"`
}
