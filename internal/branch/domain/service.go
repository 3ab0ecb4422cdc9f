package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
)

type Service interface {
	CreateBranch(ctx context.Context, ownerID snowflake.ID, req CreateBranchRequest) (*Branch, error)
	GetBranch(ctx context.Context, ownerID, branchID snowflake.ID) (*Branch, error)
	ListBranches(ctx context.Context, ownerID snowflake.ID) ([]*Branch, error)
	UpdateBranch(ctx context.Context, ownerID, branchID snowflake.ID, req UpdateBranchRequest) (*Branch, error)
	// DeactivateBranch retires a branch. Records stay for reporting.
	DeactivateBranch(ctx context.Context, ownerID, branchID snowflake.ID) error

	AssignStaff(ctx context.Context, ownerID, branchID, userID snowflake.ID, role authdomain.Role) (*StaffMember, error)
	ListStaff(ctx context.Context, ownerID, branchID snowflake.ID) ([]*StaffMember, error)
	RemoveStaff(ctx context.Context, ownerID, branchID, userID snowflake.ID) error
	// Authorize checks that a user may act on a branch: owners on all
	// their branches, staff only where assigned.
	Authorize(ctx context.Context, user *authdomain.User, branchID snowflake.ID) (*Branch, error)
}

type CreateBranchRequest struct {
	Name      string
	Address   string
	Phone     string
	GSTIN     string
	StateCode string
}

type UpdateBranchRequest struct {
	Name      *string
	Address   *string
	Phone     *string
	GSTIN     *string
	StateCode *string
}
