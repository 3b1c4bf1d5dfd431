package campaign

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/core/common/validation"
	campaignDatamodel "github.com/frahmantamala/campaign-management/internal/core/datamodel/campaign"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

const (
	DefaultCampaignName = "No name available"
	uploadedDateLayout  = "2006-01-02"
)

// ParseDecision accepts only the statuses an administrator may set.
func ParseDecision(s string) (Status, error) {
	switch Status(s) {
	case StatusApproved, StatusRejected:
		return Status(s), nil
	default:
		return "", internal.ErrInvalidStatus.WithDetails(map[string]interface{}{
			"allowed": []Status{StatusApproved, StatusRejected},
			"got":     s,
		})
	}
}

// Row is one parsed CSV line, positionally mapped.
type Row struct {
	BillName     string `json:"billName"`
	Description  string `json:"description"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	PANNumber    string `json:"pan_number"`
	Place        string `json:"place"`
	CampaignName string `json:"campaign_name"`
	Amount       string `json:"amount"`
}

// Columns stores rows column-wise. Index i across every slice is row i and
// all slices always have the same length.
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

func (c *Columns) all() []*[]string {
	return []*[]string{
		&c.BillName, &c.Description, &c.StartDate, &c.EndDate,
		&c.PANNumber, &c.Place, &c.CampaignName, &c.Amount,
	}
}

func (c Columns) Len() int {
	return len(c.BillName)
}

// Consistent reports whether every column has the same length.
func (c Columns) Consistent() bool {
	n := len(c.BillName)
	for _, col := range c.all() {
		if len(*col) != n {
			return false
		}
	}
	return true
}

func (c *Columns) Append(r Row) {
	c.BillName = append(c.BillName, r.BillName)
	c.Description = append(c.Description, r.Description)
	c.StartDate = append(c.StartDate, r.StartDate)
	c.EndDate = append(c.EndDate, r.EndDate)
	c.PANNumber = append(c.PANNumber, r.PANNumber)
	c.Place = append(c.Place, r.Place)
	c.CampaignName = append(c.CampaignName, r.CampaignName)
	c.Amount = append(c.Amount, r.Amount)
}

func (c Columns) Row(i int) Row {
	return Row{
		BillName:     c.BillName[i],
		Description:  c.Description[i],
		StartDate:    c.StartDate[i],
		EndDate:      c.EndDate[i],
		PANNumber:    c.PANNumber[i],
		Place:        c.Place[i],
		CampaignName: c.CampaignName[i],
		Amount:       c.Amount[i],
	}
}

func (c Columns) Rows() []Row {
	rows := make([]Row, c.Len())
	for i := range rows {
		rows[i] = c.Row(i)
	}
	return rows
}

// RemoveAt splices index i out of every column. The caller checks bounds.
func (c *Columns) RemoveAt(i int) {
	for _, col := range c.all() {
		s := *col
		out := make([]string, 0, len(s)-1)
		out = append(out, s[:i]...)
		out = append(out, s[i+1:]...)
		*col = out
	}
}

func (c Columns) Clone() Columns {
	var out Columns
	src := c.all()
	dst := out.all()
	for i := range src {
		*dst[i] = append([]string{}, (*src[i])...)
	}
	return out
}

type StatusChange struct {
	Status    Status    `json:"status"`
	ChangedBy *int64    `json:"changedBy,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
}

type Campaign struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user"`
	BatchID       string         `json:"batchId"`
	Data          Columns        `json:"campaignData"`
	Status        Status         `json:"status"`
	StatusHistory []StatusChange `json:"statusHistory"`
	UploadedAt    time.Time      `json:"uploadedAt"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewCampaign starts an empty Pending record for one user.
func NewCampaign(userID int64, batchID string, uploadedAt time.Time) *Campaign {
	return &Campaign{
		UserID:     userID,
		BatchID:    batchID,
		Status:     StatusPending,
		UploadedAt: uploadedAt,
		StatusHistory: []StatusChange{
			{Status: StatusPending, ChangedAt: uploadedAt},
		},
	}
}

func (c *Campaign) RowCount() int {
	return c.Data.Len()
}

// Validate checks the columnar invariants.
func (c *Campaign) Validate() error {
	if !c.Data.Consistent() {
		return internal.ErrColumnLengthMismatch
	}
	for i, pan := range c.Data.PANNumber {
		if err := validation.ValidatePAN(fmt.Sprintf("campaignData.pan_number[%d]", i), pan); err != nil {
			return err
		}
	}
	return nil
}

// CampaignName is the first campaign name entry, or a placeholder.
func (c *Campaign) CampaignName() string {
	if len(c.Data.CampaignName) == 0 || c.Data.CampaignName[0] == "" {
		return DefaultCampaignName
	}
	return c.Data.CampaignName[0]
}

func (c *Campaign) EffectiveStatus() Status {
	if c.Status == "" {
		return StatusPending
	}
	return c.Status
}

// TransitionTo moves the record to target. It reports false with no error
// when the record is already in target. Moving between Approved and
// Rejected requires allowReversal.
func (c *Campaign) TransitionTo(target Status, actorID int64, allowReversal bool, at time.Time) (bool, error) {
	current := c.EffectiveStatus()
	if current == target {
		return false, nil
	}
	if current != StatusPending && !allowReversal {
		return false, internal.ErrInvalidStatusTransition.WithDetails(map[string]interface{}{
			"from": current,
			"to":   target,
		})
	}

	actor := actorID
	c.Status = target
	c.StatusHistory = append(c.StatusHistory, StatusChange{
		Status:    target,
		ChangedBy: &actor,
		ChangedAt: at,
	})
	return true, nil
}

// DeleteRow removes row i from every column.
func (c *Campaign) DeleteRow(i int) error {
	n := c.RowCount()
	if n == 0 || i < 0 || i >= n {
		return internal.ErrInvalidRowIndex.WithDetails(map[string]interface{}{
			"rowIndex": i,
			"rowCount": n,
		})
	}
	c.Data.RemoveAt(i)
	return nil
}

// ApplyEdit replaces each supplied column wholesale. Every supplied column
// must match the current row count; nothing is changed otherwise.
func (c *Campaign) ApplyEdit(u FieldUpdates) error {
	n := c.RowCount()
	targets := []struct {
		name string
		src  []string
		dst  *[]string
	}{
		{"billName", u.BillName, &c.Data.BillName},
		{"description", u.Description, &c.Data.Description},
		{"startDate", u.StartDate, &c.Data.StartDate},
		{"endDate", u.EndDate, &c.Data.EndDate},
		{"place", u.Place, &c.Data.Place},
		{"amount", u.Amount, &c.Data.Amount},
	}

	for _, t := range targets {
		if t.src != nil && len(t.src) != n {
			return internal.ErrColumnLengthMismatch.WithDetails(map[string]interface{}{
				"field":    t.name,
				"length":   len(t.src),
				"rowCount": n,
			})
		}
	}
	for _, t := range targets {
		if t.src != nil {
			*t.dst = append([]string{}, t.src...)
		}
	}
	if u.Place != nil {
		for i, p := range c.Data.Place {
			c.Data.Place[i] = strings.ToUpper(strings.TrimSpace(p))
		}
	}
	return nil
}

// ExportHeaders is the header row of a campaign export.
var ExportHeaders = []string{
	"Bill Name", "Description", "Start Date", "End Date",
	"PAN Number", "Place", "Campaign Name", "Amount",
}

// AmountColumn is the index of the Amount column in an export row.
const AmountColumn = 7

func (r Row) Values() []string {
	return []string{
		r.BillName, r.Description, r.StartDate, r.EndDate,
		r.PANNumber, r.Place, r.CampaignName, r.Amount,
	}
}

func ToDataModel(c *Campaign) *campaignDatamodel.Campaign {
	history := make([]campaignDatamodel.StatusChange, len(c.StatusHistory))
	for i, h := range c.StatusHistory {
		history[i] = campaignDatamodel.StatusChange{
			Status:    string(h.Status),
			ChangedBy: h.ChangedBy,
			ChangedAt: h.ChangedAt,
		}
	}

	return &campaignDatamodel.Campaign{
		ID:      c.ID,
		UserID:  c.UserID,
		BatchID: c.BatchID,
		CampaignData: datatypes.NewJSONType(campaignDatamodel.Columns{
			BillName:     c.Data.BillName,
			Description:  c.Data.Description,
			StartDate:    c.Data.StartDate,
			EndDate:      c.Data.EndDate,
			PANNumber:    c.Data.PANNumber,
			Place:        c.Data.Place,
			CampaignName: c.Data.CampaignName,
			Amount:       c.Data.Amount,
		}),
		Status:        string(c.Status),
		StatusHistory: datatypes.NewJSONSlice(history),
		UploadedAt:    c.UploadedAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func FromDataModel(m *campaignDatamodel.Campaign) *Campaign {
	cols := m.CampaignData.Data()
	history := make([]StatusChange, len(m.StatusHistory))
	for i, h := range m.StatusHistory {
		history[i] = StatusChange{
			Status:    Status(h.Status),
			ChangedBy: h.ChangedBy,
			ChangedAt: h.ChangedAt,
		}
	}

	c := &Campaign{
		ID:      m.ID,
		UserID:  m.UserID,
		BatchID: m.BatchID,
		Data: Columns{
			BillName:     cols.BillName,
			Description:  cols.Description,
			StartDate:    cols.StartDate,
			EndDate:      cols.EndDate,
			PANNumber:    cols.PANNumber,
			Place:        cols.Place,
			CampaignName: cols.CampaignName,
			Amount:       cols.Amount,
		},
		Status:        Status(m.Status),
		StatusHistory: history,
		UploadedAt:    m.UploadedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	for _, col := range c.Data.all() {
		if *col == nil {
			*col = []string{}
		}
	}
	return c
}
