package domain

import "time"

// User is an authenticated person. Its workflow role is derived from IsManager and TeamIDs.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsManager    bool
	TeamIDs      []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
