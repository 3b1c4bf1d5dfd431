package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/campaign-management/internal/invoice"
	"github.com/jmoiron/sqlx"
)

const insertStub = `INSERT INTO invoices (user_id, campaign_id, created_at) VALUES (?, ?, ?)`

type InvoiceRepository struct {
	db *sqlx.DB
}

func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// CreateStubs appends all stubs in one transaction.
func (r *InvoiceRepository) CreateStubs(ctx context.Context, stubs []invoice.Stub) error {
	if len(stubs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin invoice tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertStub))
	if err != nil {
		return fmt.Errorf("prepare invoice insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stubs {
		row := invoice.ToDataModel(s)
		if _, err := stmt.ExecContext(ctx, row.UserID, row.CampaignID, row.CreatedAt); err != nil {
			return fmt.Errorf("insert invoice stub for campaign %d: %w", row.CampaignID, err)
		}
	}

	return tx.Commit()
}
