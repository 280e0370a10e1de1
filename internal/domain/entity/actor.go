package entity

// Roles reconocidos en los claims del token.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleSeller  = "seller"
)

// Actor usuario autenticado que ejecuta una operación, con su tienda y tenant.
type Actor struct {
	UserID   string
	StoreID  string
	TenantID string
	Role     string
}
