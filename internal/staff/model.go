package staff

import "time"

// Account represents a console operator.
type Account struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Credentials request structure.
type Credentials struct {
	Name     string
	Email    string
	Password string
}
