package campaign

import (
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/campaign-management/internal/core/common/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Columns is the columnar payload stored in campaign_data. Index i across
// every slice is one logical row.
type Columns struct {
	BillName     []string `json:"billName"`
	Description  []string `json:"description"`
	StartDate    []string `json:"startDate"`
	EndDate      []string `json:"endDate"`
	PANNumber    []string `json:"pan_number"`
	Place        []string `json:"place"`
	CampaignName []string `json:"campaign_name"`
	Amount       []string `json:"amount"`
}

type StatusChange struct {
	Status    string    `json:"status"`
	ChangedBy *int64    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type Campaign struct {
	ID            int64                             `gorm:"primaryKey"`
	UserID        int64                             `gorm:"column:user_id;not null;index"`
	BatchID       string                            `gorm:"column:batch_id;not null;index"`
	CampaignData  datatypes.JSONType[Columns]       `gorm:"column:campaign_data;not null"`
	Status        string                            `gorm:"column:status;not null"`
	StatusHistory datatypes.JSONSlice[StatusChange] `gorm:"column:status_history"`
	UploadedAt    time.Time                         `gorm:"column:uploaded_at;not null"`
	CreatedAt     time.Time                         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

var ErrInvalidColumns = errors.New("campaign columns are invalid")

// BeforeCreate rejects rows that would break the columnar invariants.
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	cols := c.CampaignData.Data()
	n := len(cols.PANNumber)
	for _, l := range []int{
		len(cols.BillName), len(cols.Description), len(cols.StartDate), len(cols.EndDate),
		len(cols.Place), len(cols.CampaignName), len(cols.Amount),
	} {
		if l != n {
			return fmt.Errorf("%w: column length %d, expected %d", ErrInvalidColumns, l, n)
		}
	}
	for i, pan := range cols.PANNumber {
		if !validation.IsValidPAN(pan) {
			return fmt.Errorf("%w: invalid pan at row %d", ErrInvalidColumns, i)
		}
	}
	return nil
}

// UserCampaign is the back-reference from a user to the campaigns it owns.
type UserCampaign struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_campaign"`
	CampaignID int64     `gorm:"column:campaign_id;not null;uniqueIndex:idx_user_campaign"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserCampaign) TableName() string {
	return "user_campaigns"
}
