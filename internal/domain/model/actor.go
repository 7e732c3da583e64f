package model

type Role string

const (
	RoleClient  Role = "client"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Actor identifies who is performing a state-changing call. Every mutation in
// the settlement layer takes an explicit Actor instead of reading an implicit
// current-user context.
type Actor struct {
	ID   string // UUID
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}
