package entity

import "time"

// Customer representa un cliente del back-office.
type Customer struct {
	ID        string
	Name      string
	Document  string // CPF/CNPJ u otro documento
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
