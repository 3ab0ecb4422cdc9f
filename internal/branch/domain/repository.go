package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, branch *Branch) error
	FindByID(ctx context.Context, id snowflake.ID) (*Branch, error)
	ListByOwner(ctx context.Context, ownerID snowflake.ID, activeOnly bool) ([]*Branch, error)
	CountActiveByOwner(ctx context.Context, ownerID snowflake.ID) (int64, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error

	AssignStaff(ctx context.Context, member *StaffMember) error
	ListStaff(ctx context.Context, branchID snowflake.ID) ([]*StaffMember, error)
	FindAssignment(ctx context.Context, branchID, userID snowflake.ID) (*StaffMember, error)
	RemoveStaff(ctx context.Context, branchID, userID snowflake.ID) error
}
