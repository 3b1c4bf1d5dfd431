package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/core/common/validation"
)

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	FindByPANs(ctx context.Context, pans []string) ([]*User, error)
	GetCampaignIDs(ctx context.Context, userID int64) ([]int64, error)
	Create(ctx context.Context, u *User) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetByID returns the user together with the ids of the campaigns it owns.
func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error("failed to get user", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to get user", err)
	}

	ids, err := s.repo.GetCampaignIDs(ctx, userID)
	if err != nil {
		s.logger.Error("failed to get user campaigns", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to get user campaigns", err)
	}
	u.CampaignIDs = ids

	return u, nil
}

// ResolveByPANs maps each known PAN to the id of the user holding it.
// The input is normalized and deduplicated and looked up in a single
// repository call; PANs with no owner are simply absent from the result.
func (s *Service) ResolveByPANs(ctx context.Context, pans []string) (map[string]int64, error) {
	owners := make(map[string]int64)

	seen := make(map[string]struct{}, len(pans))
	unique := make([]string, 0, len(pans))
	for _, p := range pans {
		p = validation.NormalizePAN(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	if len(unique) == 0 {
		return owners, nil
	}

	users, err := s.repo.FindByPANs(ctx, unique)
	if err != nil {
		s.logger.Error("failed to resolve users by pan", "error", err, "pan_count", len(unique))
		return nil, internal.NewInternalError("failed to resolve users", err)
	}

	for _, u := range users {
		owners[validation.NormalizePAN(u.PANCardNumber)] = u.ID
	}

	s.logger.Debug("resolved pans", "requested", len(unique), "matched", len(owners))
	return owners, nil
}

// Create registers a user. It is used by seeding and tests.
func (s *Service) Create(ctx context.Context, u *User) error {
	if u.Role == "" {
		u.Role = RoleCitizen
	}
	u.PANCardNumber = validation.NormalizePAN(u.PANCardNumber)
	if err := u.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", u.Email)
		return internal.NewInternalError("failed to create user", err)
	}
	return nil
}
