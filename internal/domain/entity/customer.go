package entity

import "time"

// Customer cliente de un tenant.
type Customer struct {
	ID        string
	TenantID  string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
