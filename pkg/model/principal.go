package model

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Principal is the authenticated caller, resolved by the gateway.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) Valid() bool {
	return p.ID != "" && (p.Role == RoleAdmin || p.Role == RoleClient)
}
