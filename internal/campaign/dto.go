package campaign

import (
	"time"

	"github.com/frahmantamala/campaign-management/internal"
)

// FieldUpdates carries replacement columns. A nil slice leaves the column
// untouched. pan_number and campaign_name are not editable.
type FieldUpdates struct {
	BillName    []string `json:"billName,omitempty"`
	Description []string `json:"description,omitempty"`
	StartDate   []string `json:"startDate,omitempty"`
	EndDate     []string `json:"endDate,omitempty"`
	Place       []string `json:"place,omitempty"`
	Amount      []string `json:"amount,omitempty"`
}

func (u FieldUpdates) Empty() bool {
	return u.BillName == nil && u.Description == nil && u.StartDate == nil &&
		u.EndDate == nil && u.Place == nil && u.Amount == nil
}

type EditCampaignDTO struct {
	UpdatedData FieldUpdates `json:"updatedData"`
}

func (d EditCampaignDTO) Validate() error {
	if d.UpdatedData.Empty() {
		return internal.NewValidationFieldError("updatedData", "at least one editable field is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type DeleteRowDTO struct {
	RowIndex *int `json:"rowIndex"`
}

func (d DeleteRowDTO) Validate() error {
	if d.RowIndex == nil {
		return internal.NewValidationFieldError("rowIndex", "rowIndex is required", internal.ErrCodeInvalidRowIndex)
	}
	return nil
}

type SetStatusDTO struct {
	Status string `json:"status"`
}

type UploadResult struct {
	Message     string      `json:"message"`
	BatchID     string      `json:"batchId"`
	ValidData   []*Campaign `json:"validData"`
	Preview     []Row       `json:"preview"`
	InvalidPANs []string    `json:"invalidPANs"`
}

type EditResult struct {
	Message         string    `json:"message"`
	UpdatedCampaign *Campaign `json:"updatedCampaign"`
}

type DeleteRowResult struct {
	Message         string `json:"message"`
	CampaignID      int64  `json:"campaignId"`
	RowIndex        int    `json:"rowIndex"`
	RemainingRows   int    `json:"remainingRows"`
	CampaignDeleted bool   `json:"campaignDeleted"`
}

type StatusResult struct {
	Message  string    `json:"message"`
	Campaign *Campaign `json:"campaign"`
}

// Summary is the list view of a campaign.
type Summary struct {
	ID           int64     `json:"id"`
	CampaignName string    `json:"campaign_name"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Status       Status    `json:"status"`
	RowCount     int       `json:"rowCount"`
}

func (c *Campaign) Summary() Summary {
	return Summary{
		ID:           c.ID,
		CampaignName: c.CampaignName(),
		UploadedAt:   c.UploadedAt,
		Status:       c.EffectiveStatus(),
		RowCount:     c.RowCount(),
	}
}
