package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateUserRequest is the admin form for a new account.
type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	FullName   string `json:"fullName" validate:"required,min=2,max=120"`
	Role       string `json:"role" validate:"required,oneof=salesperson inventory admin"`
	CodePrefix string `json:"codePrefix" validate:"omitempty,alphanum,max=8"`
}

// UserResponse is one account.
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Role       string    `json:"role"`
	CodePrefix *string   `json:"codePrefix,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CredentialsResponse carries a generated password. It is shown once.
type CredentialsResponse struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
