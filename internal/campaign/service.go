package campaign

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/campaign/export"
	"github.com/frahmantamala/campaign-management/internal/core/events"
	"github.com/google/uuid"
)

// Repository interface defines the data access methods for campaigns
type Repository interface {
	Create(ctx context.Context, c *Campaign) error
	GetByID(ctx context.Context, id int64) (*Campaign, error)
	GetAll(ctx context.Context) ([]*Campaign, error)
	GetByUserID(ctx context.Context, userID int64) ([]*Campaign, error)
	Update(ctx context.Context, c *Campaign) error
	Delete(ctx context.Context, id int64) error
}

// UserResolver maps PANs to the ids of the users holding them.
type UserResolver interface {
	ResolveByPANs(ctx context.Context, pans []string) (map[string]int64, error)
}

type Options struct {
	MaxRows             int
	StrictCSV           bool
	AllowStatusReversal bool
	QueryTimeout        time.Duration
	Now                 func() time.Time
}

// Service handles campaign business logic
type Service struct {
	repo      Repository
	resolver  UserResolver
	publisher events.Publisher
	logger    *slog.Logger
	opts      Options
}

func NewService(repo Repository, resolver UserResolver, publisher events.Publisher, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:      repo,
		resolver:  resolver,
		publisher: publisher,
		logger:    logger,
		opts:      opts,
	}
}

func (s *Service) dbContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return internal.WithTimeout(ctx, s.opts.QueryTimeout)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

// Upload parses r, resolves every PAN in one lookup, groups the rows by
// owner and stores one record per owner. Records already stored stay
// stored if a later one fails.
func (s *Service) Upload(ctx context.Context, uploaderID int64, r io.Reader) (*UploadResult, error) {
	rows, err := ParseRows(r, ParseOptions{
		Strict:  s.opts.StrictCSV,
		MaxRows: s.opts.MaxRows,
		Now:     s.opts.Now,
	})
	if err != nil {
		s.logger.Warn("upload rejected", "error", err, "uploader_id", uploaderID)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, internal.ErrEmptyUpload
	}

	owners, err := s.resolver.ResolveByPANs(ctx, DistinctPANs(rows))
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	agg := Aggregate(rows, owners, s.opts.Now(), batchID)

	ids := make([]int64, 0, len(agg.Records))
	for _, rec := range agg.Records {
		if err := s.create(ctx, rec); err != nil {
			s.logger.Error("failed to save campaign",
				"error", err,
				"batch_id", batchID,
				"user_id", rec.UserID,
				"saved", len(ids))
			return nil, internal.NewInternalError("failed to save campaign", err)
		}
		ids = append(ids, rec.ID)
	}

	s.logger.Info("campaigns uploaded",
		"batch_id", batchID,
		"uploader_id", uploaderID,
		"rows", len(rows),
		"records", len(agg.Records),
		"invalid_pans", len(agg.InvalidPANs))

	s.publish(ctx, events.NewCampaignUploadedEvent(batchID, uploaderID, ids, len(rows), len(agg.InvalidPANs)))

	return &UploadResult{
		Message:     "Campaigns uploaded successfully.",
		BatchID:     batchID,
		ValidData:   agg.Records,
		Preview:     agg.Preview,
		InvalidPANs: agg.InvalidPANs,
	}, nil
}

func (s *Service) create(ctx context.Context, c *Campaign) error {
	if err := c.Validate(); err != nil {
		return err
	}
	dbCtx, cancel := s.dbContext(ctx)
	defer cancel()
	return s.repo.Create(dbCtx, c)
}

func (s *Service) load(ctx context.Context, id int64) (*Campaign, error) {
	dbCtx, cancel := s.dbContext(ctx)
	defer cancel()

	c, err := s.repo.GetByID(dbCtx, id)
	if err != nil {
		if errors.Is(err, internal.ErrCampaignNotFound) {
			return nil, internal.ErrCampaignNotFound
		}
		s.logger.Error("failed to get campaign", "error", err, "campaign_id", id)
		return nil, internal.NewInternalError("failed to get campaign", err)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *Campaign) error {
	if err := c.Validate(); err != nil {
		return err
	}
	dbCtx, cancel := s.dbContext(ctx)
	defer cancel()

	if err := s.repo.Update(dbCtx, c); err != nil {
		if errors.Is(err, internal.ErrCampaignNotFound) {
			return internal.ErrCampaignNotFound
		}
		s.logger.Error("failed to update campaign", "error", err, "campaign_id", c.ID)
		return internal.NewInternalError("failed to update campaign", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Campaign, error) {
	return s.load(ctx, id)
}

// Edit replaces the supplied editable columns of a record.
func (s *Service) Edit(ctx context.Context, id int64, dto EditCampaignDTO) (*EditResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.ApplyEdit(dto.UpdatedData); err != nil {
		s.logger.Warn("campaign edit rejected", "error", err, "campaign_id", id)
		return nil, err
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("campaign updated", "campaign_id", id)
	return &EditResult{
		Message:         "Campaign updated successfully.",
		UpdatedCampaign: c,
	}, nil
}

// DeleteRow removes one row. A record left with no rows is deleted.
func (s *Service) DeleteRow(ctx context.Context, id int64, rowIndex int) (*DeleteRowResult, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.DeleteRow(rowIndex); err != nil {
		return nil, err
	}

	result := &DeleteRowResult{
		Message:       "Row deleted successfully.",
		CampaignID:    id,
		RowIndex:      rowIndex,
		RemainingRows: c.RowCount(),
	}

	if c.RowCount() == 0 {
		dbCtx, cancel := s.dbContext(ctx)
		defer cancel()
		if err := s.repo.Delete(dbCtx, id); err != nil {
			if errors.Is(err, internal.ErrCampaignNotFound) {
				return nil, internal.ErrCampaignNotFound
			}
			s.logger.Error("failed to delete empty campaign", "error", err, "campaign_id", id)
			return nil, internal.NewInternalError("failed to delete campaign", err)
		}
		result.CampaignDeleted = true
		result.Message = "Row deleted successfully. Campaign removed as it has no rows left."
	} else if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("campaign row deleted",
		"campaign_id", id,
		"row_index", rowIndex,
		"remaining_rows", result.RemainingRows,
		"campaign_deleted", result.CampaignDeleted)
	s.publish(ctx, events.NewCampaignRowDeletedEvent(id, rowIndex, result.RemainingRows, result.CampaignDeleted))

	return result, nil
}

// SetStatus records an administrator decision. Repeating the current
// status is a no-op.
func (s *Service) SetStatus(ctx context.Context, id int64, status string, actorID int64) (*StatusResult, error) {
	target, err := ParseDecision(status)
	if err != nil {
		return nil, err
	}

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := c.EffectiveStatus()
	changed, err := c.TransitionTo(target, actorID, s.opts.AllowStatusReversal, s.opts.Now())
	if err != nil {
		s.logger.Warn("status change rejected", "campaign_id", id, "from", from, "to", target)
		return nil, err
	}

	if changed {
		if err := s.save(ctx, c); err != nil {
			return nil, err
		}
		s.logger.Info("campaign status changed", "campaign_id", id, "from", from, "to", target, "actor_id", actorID)
		s.publish(ctx, events.NewCampaignStatusChangedEvent(id, c.UserID, string(from), string(target), actorID))
	}

	return &StatusResult{
		Message:  fmt.Sprintf("Campaign %s successfully", strings.ToLower(string(target))),
		Campaign: c,
	}, nil
}

// ListAll returns every stored record. It backs both List and invoices.
func (s *Service) ListAll(ctx context.Context) ([]*Campaign, error) {
	dbCtx, cancel := s.dbContext(ctx)
	defer cancel()

	campaigns, err := s.repo.GetAll(dbCtx)
	if err != nil {
		s.logger.Error("failed to list campaigns", "error", err)
		return nil, internal.NewInternalError("failed to fetch campaigns", err)
	}
	return campaigns, nil
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	campaigns, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return summaries(campaigns), nil
}

func (s *Service) ListMine(ctx context.Context, userID int64) ([]Summary, error) {
	dbCtx, cancel := s.dbContext(ctx)
	defer cancel()

	campaigns, err := s.repo.GetByUserID(dbCtx, userID)
	if err != nil {
		s.logger.Error("failed to list user campaigns", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to fetch campaigns", err)
	}
	return summaries(campaigns), nil
}

func summaries(campaigns []*Campaign) []Summary {
	out := make([]Summary, len(campaigns))
	for i, c := range campaigns {
		out[i] = c.Summary()
	}
	return out
}

// ExportRows flattens a record into a table, one row per index.
func (s *Service) ExportRows(ctx context.Context, id int64) (*export.Table, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.ExportTable(), nil
}

func (c *Campaign) ExportTable() *export.Table {
	t := &export.Table{
		Headers:        append([]string{}, ExportHeaders...),
		Rows:           make([][]string, 0, c.RowCount()),
		NumericColumns: []int{AmountColumn},
	}
	for _, r := range c.Data.Rows() {
		t.Rows = append(t.Rows, r.Values())
	}
	return t
}
