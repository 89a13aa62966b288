package models

import "time"

type AccountKind string

const (
	AccountKindUser  AccountKind = "user"
	AccountKindAdmin AccountKind = "admin"
)

// Account is a user or admin identity. Both kinds share a shape but live in
// separate stores, so an email is only unique within its kind.
type Account struct {
	ID           string
	Kind         AccountKind
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
