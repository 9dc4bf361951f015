package domain

import (
	"context"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = newKindError(ErrNotFound, "user not found")
	ErrDuplicateEmail     = newKindError(ErrConflict, "email already in use")
	ErrInvalidCredentials = newKindError(ErrInvalidInput, "invalid email or password")
)

// User represents a registered user
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new active User. ID is typically set by the repository on create.
func NewUser(email, name, passwordHash string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// Role represents an application role (admin, organizer, attendee).
type Role struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil when password matches hash.
	Compare(hash, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the principal it was issued for.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	// Create inserts user and links it to roleID in one transaction.
	Create(ctx context.Context, user *User, roleID string) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error
	UpdateEmail(ctx context.Context, userID, email string, updatedAt time.Time) error
	AssignRole(ctx context.Context, userID, roleID string) error
}

// RoleRepository defines the interface for role storage
type RoleRepository interface {
	GetByCode(ctx context.Context, code string) (*Role, error)
	ListByUserID(ctx context.Context, userID string) ([]*Role, error)
}

// AuthService covers sign-up, login and role administration.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	AssignRole(ctx context.Context, actor Principal, userID, roleCode string) (*User, error)
}
