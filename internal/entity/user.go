package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
)

type Role string

const (
	RoleBorrower    Role = "borrower"
	RoleLoanOfficer Role = "loan_officer"
	RoleProcessor   Role = "processor"
	RoleAdmin       Role = "admin"
)

// IsStaff reports whether the role works leads (not a borrower).
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleLoanOfficer || r == RoleProcessor
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone,omitempty"`
	Role         Role   `json:"role"`

	EmailVerified            bool       `json:"emailVerified"`
	VerificationToken        string     `json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`
	ResetPasswordToken       string     `json:"-"`
	ResetPasswordExpires     *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewUser(email, passwordHash, firstName, lastName, phone string, role Role) *User {
	now := time.Now()
	if role == "" {
		role = RoleBorrower
	}
	return &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Phone:        strings.TrimSpace(phone),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) AsAssignee() *Assignee {
	return &Assignee{ID: u.ID, Name: u.FullName(), Email: u.Email, Phone: u.Phone}
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByRoles(ctx context.Context, roles ...Role) ([]User, error)
	SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error
	// FindByResetToken returns ErrUserNotFound when the token is unknown or expired at now.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	// UpdatePassword stores a new hash and clears any pending reset token.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}
