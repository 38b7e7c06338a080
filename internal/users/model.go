package users

import "time"

// User is a registered account. The SA ID number is only ever held hashed.
type User struct {
	ID             string
	Username       string
	Email          string
	Name           string
	Surname        string
	HashedSAID     string
	HashedPassword string
	ConsentPOPI    bool
	ConsentTerms   bool
	ConsentGivenAt *time.Time
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
