package invoice

import (
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/campaign"
	invoiceDatamodel "github.com/frahmantamala/campaign-management/internal/core/datamodel/invoice"
)

const uploadedDateLayout = "2006-01-02"

// View is the invoice projection of one campaign record.
type View struct {
	ID           int64           `json:"id"`
	CampaignName string          `json:"campaignName"`
	Status       campaign.Status `json:"status"`
	UserID       int64           `json:"userId"`
	UploadedDate string          `json:"uploadedDate"`
}

// Stub is the audit row written for every projected view.
type Stub struct {
	ID         int64
	UserID     int64
	CampaignID int64
	CreatedAt  time.Time
}

// Project maps campaigns to invoice views in input order.
func Project(campaigns []*campaign.Campaign) ([]View, error) {
	if len(campaigns) == 0 {
		return nil, internal.ErrNoCampaigns
	}

	views := make([]View, len(campaigns))
	for i, c := range campaigns {
		views[i] = View{
			ID:           c.ID,
			CampaignName: c.CampaignName(),
			Status:       c.EffectiveStatus(),
			UserID:       c.UserID,
			UploadedDate: c.UploadedAt.Format(uploadedDateLayout),
		}
	}
	return views, nil
}

func stubsFor(views []View, at time.Time) []Stub {
	stubs := make([]Stub, len(views))
	for i, v := range views {
		stubs[i] = Stub{UserID: v.UserID, CampaignID: v.ID, CreatedAt: at}
	}
	return stubs
}

func ToDataModel(s Stub) invoiceDatamodel.Invoice {
	return invoiceDatamodel.Invoice{
		ID:         s.ID,
		UserID:     s.UserID,
		CampaignID: s.CampaignID,
		CreatedAt:  s.CreatedAt,
	}
}
