package users

import "time"

// User is an account holder. PasswordHash is only populated by lookups that
// need it for credential checks and never serialised.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateUserInput is the registration payload.
type CreateUserInput struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=6"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,required"`
}

// UpdateUserInput carries the mutable profile fields. Password is not among them.
type UpdateUserInput struct {
	Name string `json:"name" validate:"required,max=200"`
}
