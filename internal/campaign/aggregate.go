package campaign

import (
	"time"

	"github.com/frahmantamala/campaign-management/internal/core/common/validation"
)

type AggregateResult struct {
	Records     []*Campaign
	Preview     []Row
	InvalidPANs []string
}

// Aggregate groups rows into one record per owning user, in order of first
// appearance. Rows whose PAN has no owner, or is not a well formed PAN, are
// left out of every record and reported once in InvalidPANs. Preview holds
// every row in input order.
func Aggregate(rows []Row, owners map[string]int64, uploadedAt time.Time, batchID string) *AggregateResult {
	result := &AggregateResult{
		Records:     []*Campaign{},
		Preview:     make([]Row, 0, len(rows)),
		InvalidPANs: []string{},
	}

	byUser := make(map[int64]*Campaign)
	invalidSeen := make(map[string]struct{})

	for _, row := range rows {
		result.Preview = append(result.Preview, row)

		pan := validation.NormalizePAN(row.PANNumber)
		userID, ok := owners[pan]
		if !ok || !validation.IsValidPAN(pan) {
			if _, seen := invalidSeen[pan]; !seen {
				invalidSeen[pan] = struct{}{}
				result.InvalidPANs = append(result.InvalidPANs, pan)
			}
			continue
		}

		rec, exists := byUser[userID]
		if !exists {
			rec = NewCampaign(userID, batchID, uploadedAt)
			byUser[userID] = rec
			result.Records = append(result.Records, rec)
		}
		row.PANNumber = pan
		rec.Data.Append(row)
	}

	return result
}

// DistinctPANs returns the normalized PANs of rows in first-seen order.
func DistinctPANs(rows []Row) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		pan := validation.NormalizePAN(r.PANNumber)
		if _, ok := seen[pan]; ok {
			continue
		}
		seen[pan] = struct{}{}
		out = append(out, pan)
	}
	return out
}
