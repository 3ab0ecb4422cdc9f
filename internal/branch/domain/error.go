package domain

import "errors"

var (
	ErrBranchNotFound     = errors.New("branch not found")
	ErrBranchLimitReached = errors.New("branch limit reached for current plan")
	ErrStaffNotFound      = errors.New("staff assignment not found")
	ErrNotBranchMember    = errors.New("user is not assigned to this branch")
)
