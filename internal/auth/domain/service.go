package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	CreateStaff(ctx context.Context, ownerID snowflake.ID, req CreateStaffRequest) (*User, error)
	ListStaff(ctx context.Context, ownerID snowflake.ID) ([]*User, error)
	RemoveStaff(ctx context.Context, ownerID, staffID snowflake.ID) error
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*User, error)
	ChangePassword(ctx context.Context, userID snowflake.ID, currentPassword, newPassword string) error
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type RegisterRequest struct {
	Email        string
	Password     string
	FullName     string
	PharmacyName string
}

type CreateStaffRequest struct {
	Email    string
	Password string
	FullName string
	Role     Role
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
