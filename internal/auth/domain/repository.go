package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	FindOne(ctx context.Context, user User) (*User, error)
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	ListByOwner(ctx context.Context, ownerID snowflake.ID) ([]*User, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, id snowflake.ID) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteSession(ctx context.Context, sessionID snowflake.ID) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
