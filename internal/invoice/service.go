package invoice

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/campaign"
)

// CampaignLister is the read side of the campaign store.
type CampaignLister interface {
	ListAll(ctx context.Context) ([]*campaign.Campaign, error)
}

type StubRepository interface {
	CreateStubs(ctx context.Context, stubs []Stub) error
}

type Service struct {
	campaigns    CampaignLister
	stubs        StubRepository
	logger       *slog.Logger
	queryTimeout time.Duration
	now          func() time.Time
}

func NewService(campaigns CampaignLister, stubs StubRepository, logger *slog.Logger, queryTimeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		campaigns:    campaigns,
		stubs:        stubs,
		logger:       logger,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

// ListInvoices projects every stored campaign and records one stub per view.
func (s *Service) ListInvoices(ctx context.Context) ([]View, error) {
	campaigns, err := s.campaigns.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	views, err := Project(campaigns)
	if err != nil {
		return nil, err
	}

	dbCtx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.stubs.CreateStubs(dbCtx, stubsFor(views, s.now())); err != nil {
		s.logger.Error("failed to record invoice stubs", "error", err, "count", len(views))
		return nil, internal.NewInternalError("failed to record invoices", err)
	}

	s.logger.Info("invoices listed", "count", len(views))
	return views, nil
}
