package invoice

import "time"

type Invoice struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	CampaignID int64     `db:"campaign_id"`
	CreatedAt  time.Time `db:"created_at"`
}
