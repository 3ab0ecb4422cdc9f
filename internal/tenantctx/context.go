// Package tenantctx carries the authenticated user and owning tenant
// through request contexts.
package tenantctx

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type userKey struct{}
type roleKey struct{}
type tenantKey struct{}

// WithUser stores the authenticated user ID in the context.
func WithUser(ctx context.Context, userID snowflake.ID) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the authenticated user ID, if set.
func UserFromContext(ctx context.Context) (snowflake.ID, bool) {
	return idFromContext(ctx, userKey{})
}

// WithRole stores the authenticated user's role in the context.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext returns the authenticated user's role, if set.
func RoleFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(roleKey{}).(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// WithTenant stores the owning tenant (branch owner) ID in the context.
func WithTenant(ctx context.Context, ownerID snowflake.ID) context.Context {
	return context.WithValue(ctx, tenantKey{}, ownerID)
}

// TenantFromContext returns the owning tenant ID, if set.
func TenantFromContext(ctx context.Context) (snowflake.ID, bool) {
	return idFromContext(ctx, tenantKey{})
}

func idFromContext(ctx context.Context, key any) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	switch typed := ctx.Value(key).(type) {
	case snowflake.ID:
		return typed, typed != 0
	case int64:
		return snowflake.ID(typed), typed != 0
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}
