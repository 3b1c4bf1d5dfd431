package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCampaignUploaded      = "campaign.uploaded"
	EventTypeCampaignStatusChanged = "campaign.status_changed"
	EventTypeCampaignRowDeleted    = "campaign.row_deleted"
)

// CampaignEventTypes lists every event the campaign service emits.
var CampaignEventTypes = []string{
	EventTypeCampaignUploaded,
	EventTypeCampaignStatusChanged,
	EventTypeCampaignRowDeleted,
}

type CampaignUploadedEvent struct {
	BaseEvent
	BatchID         string  `json:"batch_id"`
	UploaderID      int64   `json:"uploader_id"`
	CampaignIDs     []int64 `json:"campaign_ids"`
	RowCount        int     `json:"row_count"`
	InvalidPANCount int     `json:"invalid_pan_count"`
}

func NewCampaignUploadedEvent(batchID string, uploaderID int64, campaignIDs []int64, rowCount, invalidPANCount int) *CampaignUploadedEvent {
	return &CampaignUploadedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCampaignUploaded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"batch_id":          batchID,
				"uploader_id":       uploaderID,
				"record_count":      len(campaignIDs),
				"row_count":         rowCount,
				"invalid_pan_count": invalidPANCount,
			},
		},
		BatchID:         batchID,
		UploaderID:      uploaderID,
		CampaignIDs:     campaignIDs,
		RowCount:        rowCount,
		InvalidPANCount: invalidPANCount,
	}
}

type CampaignStatusChangedEvent struct {
	BaseEvent
	CampaignID int64  `json:"campaign_id"`
	UserID     int64  `json:"user_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	ActorID    int64  `json:"actor_id"`
}

func NewCampaignStatusChangedEvent(campaignID, userID int64, from, to string, actorID int64) *CampaignStatusChangedEvent {
	return &CampaignStatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCampaignStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"campaign_id": campaignID,
				"user_id":     userID,
				"from":        from,
				"to":          to,
				"actor_id":    actorID,
			},
		},
		CampaignID: campaignID,
		UserID:     userID,
		From:       from,
		To:         to,
		ActorID:    actorID,
	}
}

type CampaignRowDeletedEvent struct {
	BaseEvent
	CampaignID      int64 `json:"campaign_id"`
	RowIndex        int   `json:"row_index"`
	RemainingRows   int   `json:"remaining_rows"`
	CampaignDeleted bool  `json:"campaign_deleted"`
}

func NewCampaignRowDeletedEvent(campaignID int64, rowIndex, remainingRows int, campaignDeleted bool) *CampaignRowDeletedEvent {
	return &CampaignRowDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeCampaignRowDeleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"campaign_id":      campaignID,
				"row_index":        rowIndex,
				"remaining_rows":   remainingRows,
				"campaign_deleted": campaignDeleted,
			},
		},
		CampaignID:      campaignID,
		RowIndex:        rowIndex,
		RemainingRows:   remainingRows,
		CampaignDeleted: campaignDeleted,
	}
}
