package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/campaign"
	campaignDatamodel "github.com/frahmantamala/campaign-management/internal/core/datamodel/campaign"
	"gorm.io/gorm"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts the campaign and the owner's back-reference in one
// transaction.
func (r *CampaignRepository) Create(ctx context.Context, c *campaign.Campaign) error {
	row := campaign.ToDataModel(c)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		link := &campaignDatamodel.UserCampaign{
			UserID:     row.UserID,
			CampaignID: row.ID,
		}
		return tx.Create(link).Error
	})
	if err != nil {
		return err
	}

	c.ID = row.ID
	c.CreatedAt = row.CreatedAt
	c.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*campaign.Campaign, error) {
	var row campaignDatamodel.Campaign
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrCampaignNotFound
		}
		return nil, err
	}
	return campaign.FromDataModel(&row), nil
}

func (r *CampaignRepository) GetAll(ctx context.Context) ([]*campaign.Campaign, error) {
	var rows []campaignDatamodel.Campaign
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (r *CampaignRepository) GetByUserID(ctx context.Context, userID int64) ([]*campaign.Campaign, error) {
	var rows []campaignDatamodel.Campaign
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

// Update writes the mutable columns of an existing campaign.
func (r *CampaignRepository) Update(ctx context.Context, c *campaign.Campaign) error {
	row := campaign.ToDataModel(c)
	now := time.Now()

	res := r.db.WithContext(ctx).
		Model(&campaignDatamodel.Campaign{}).
		Where("id = ?", c.ID).
		UpdateColumns(map[string]interface{}{
			"campaign_data":  row.CampaignData,
			"status":         row.Status,
			"status_history": row.StatusHistory,
			"updated_at":     now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrCampaignNotFound
	}

	c.UpdatedAt = now
	return nil
}

// Delete removes the campaign and its back-reference in one transaction.
func (r *CampaignRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("campaign_id = ?", id).Delete(&campaignDatamodel.UserCampaign{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&campaignDatamodel.Campaign{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrCampaignNotFound
		}
		return nil
	})
}

func fromRows(rows []campaignDatamodel.Campaign) []*campaign.Campaign {
	out := make([]*campaign.Campaign, len(rows))
	for i := range rows {
		out[i] = campaign.FromDataModel(&rows[i])
	}
	return out
}
