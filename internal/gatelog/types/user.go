package types

// Role values follow the stored operator layout.
type Role string

const (
	RoleOperator Role = "OPERADOR"
	RoleAdmin    Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleOperator || r == RoleAdmin
}

// User is the operator registering records.  Only ID and Name are consumed
// by the ledger (Name ends up in AccessRecord.RegisteredBy).
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}
