package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	"github.com/intellpharma/pharmastock/internal/branch/domain"
	"github.com/intellpharma/pharmastock/internal/clock"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository

	entitlementsvc entitlementdomain.Service
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository

	Entitlementsvc entitlementdomain.Service
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("branch.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		entitlementsvc: p.Entitlementsvc,
	}
}

func (s *Service) CreateBranch(ctx context.Context, ownerID snowflake.ID, req domain.CreateBranchRequest) (*domain.Branch, error) {
	// The first branch also materializes the tenant's free entitlement.
	if _, err := s.entitlementsvc.EnsureFree(ctx, ownerID); err != nil {
		return nil, err
	}

	limit, err := s.entitlementsvc.BranchLimit(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if count >= int64(limit) {
		return nil, domain.ErrBranchLimitReached
	}

	now := s.clock.Now().UTC()
	branch := &domain.Branch{
		ID:        s.genID.Generate(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		Phone:     strings.TrimSpace(req.Phone),
		GSTIN:     strings.ToUpper(strings.TrimSpace(req.GSTIN)),
		StateCode: strings.TrimSpace(req.StateCode),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, branch); err != nil {
		return nil, err
	}

	s.log.Info("branch created",
		zap.String("owner_id", ownerID.String()),
		zap.String("branch_id", branch.ID.String()),
	)
	return branch, nil
}

func (s *Service) GetBranch(ctx context.Context, ownerID, branchID snowflake.ID) (*domain.Branch, error) {
	branch, err := s.repo.FindByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch.OwnerID != ownerID {
		return nil, domain.ErrBranchNotFound
	}
	return branch, nil
}

func (s *Service) ListBranches(ctx context.Context, ownerID snowflake.ID) ([]*domain.Branch, error) {
	return s.repo.ListByOwner(ctx, ownerID, false)
}

func (s *Service) UpdateBranch(ctx context.Context, ownerID, branchID snowflake.ID, req domain.UpdateBranchRequest) (*domain.Branch, error) {
	if _, err := s.GetBranch(ctx, ownerID, branchID); err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now().UTC()}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.GSTIN != nil {
		fields["gstin"] = strings.ToUpper(strings.TrimSpace(*req.GSTIN))
	}
	if req.StateCode != nil {
		fields["state_code"] = strings.TrimSpace(*req.StateCode)
	}

	if err := s.repo.UpdateFields(ctx, branchID, fields); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, branchID)
}

func (s *Service) DeactivateBranch(ctx context.Context, ownerID, branchID snowflake.ID) error {
	if _, err := s.GetBranch(ctx, ownerID, branchID); err != nil {
		return err
	}
	return s.repo.UpdateFields(ctx, branchID, map[string]any{
		"active":     false,
		"updated_at": s.clock.Now().UTC(),
	})
}

func (s *Service) AssignStaff(ctx context.Context, ownerID, branchID, userID snowflake.ID, role authdomain.Role) (*domain.StaffMember, error) {
	if _, err := s.GetBranch(ctx, ownerID, branchID); err != nil {
		return nil, err
	}

	member := &domain.StaffMember{
		ID:        s.genID.Generate(),
		BranchID:  branchID,
		UserID:    userID,
		Role:      role,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.AssignStaff(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *Service) ListStaff(ctx context.Context, ownerID, branchID snowflake.ID) ([]*domain.StaffMember, error) {
	if _, err := s.GetBranch(ctx, ownerID, branchID); err != nil {
		return nil, err
	}
	return s.repo.ListStaff(ctx, branchID)
}

func (s *Service) RemoveStaff(ctx context.Context, ownerID, branchID, userID snowflake.ID) error {
	if _, err := s.GetBranch(ctx, ownerID, branchID); err != nil {
		return err
	}
	return s.repo.RemoveStaff(ctx, branchID, userID)
}

func (s *Service) Authorize(ctx context.Context, user *authdomain.User, branchID snowflake.ID) (*domain.Branch, error) {
	branch, err := s.repo.FindByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch.OwnerID != user.TenantOwnerID() {
		return nil, domain.ErrBranchNotFound
	}
	if user.Role == authdomain.RoleOwner {
		return branch, nil
	}
	if _, err := s.repo.FindAssignment(ctx, branchID, user.ID); err != nil {
		return nil, domain.ErrNotBranchMember
	}
	return branch, nil
}
