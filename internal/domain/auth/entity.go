package auth

import "time"

type Manager struct {
	ID             string
	Identification string
	FullName       string
	Email          *string
	Phone          *string
	PasswordHash   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
