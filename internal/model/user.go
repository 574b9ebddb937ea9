package model

import "time"

// User is an account that can upload, vote on, and report materials.
// PasswordHash is never serialized. Points are incremented by an external
// reward collaborator; this service stores the balance but owns no accrual rule.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Points         int       `json:"points"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PublicProfile strips fields that other users should not see.
func (u *User) PublicProfile() User {
	return User{
		ID:             u.ID,
		Name:           u.Name,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		Points:         u.Points,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
