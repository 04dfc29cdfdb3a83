package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
)

type InvoiceRepository interface {
	// Create stores the record and flags the load as invoiced in one transaction.
	Create(ctx context.Context, inv *entity.Invoice) (*entity.Invoice, error)
	// ListByLoadID returns the load's invoices, newest first.
	ListByLoadID(ctx context.Context, loadID string) ([]*entity.Invoice, error)
}

type invoiceRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewInvoiceRepository(db DBTX, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *entity.Invoice) (*entity.Invoice, error) {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	out := *inv

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE loads SET invoice_generated = TRUE, updated_at = now() WHERE id = $1`,
			inv.LoadRef,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return common.NotFound(fmt.Sprintf("load %q not found", inv.LoadID))
		}
		return tx.QueryRow(ctx, `
			INSERT INTO invoices (id, load_ref, number, file_name, location, total)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
			inv.ID, inv.LoadRef, inv.Number, inv.FileName, inv.Location, inv.Total,
		).Scan(&out.CreatedAt)
	})
	if err != nil {
		r.logger.Error("failed to record invoice", "load_id", inv.LoadID, "number", inv.Number, "error", err)
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, mapError(err, "invoice "+inv.Number)
	}
	return &out, nil
}

func (r *invoiceRepository) ListByLoadID(ctx context.Context, loadID string) ([]*entity.Invoice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.load_ref, l.load_id, i.number, i.file_name, i.location, i.total::float8, i.created_at
		FROM invoices i
		JOIN loads l ON l.id = i.load_ref
		WHERE l.load_id = $1
		ORDER BY i.created_at DESC`, loadID)
	if err != nil {
		return nil, mapError(err, "list invoices")
	}
	defer rows.Close()

	var out []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		if err := rows.Scan(
			&inv.ID,
			&inv.LoadRef,
			&inv.LoadID,
			&inv.Number,
			&inv.FileName,
			&inv.Location,
			&inv.Total,
			&inv.CreatedAt,
		); err != nil {
			return nil, mapError(err, "scan invoice")
		}
		out = append(out, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list invoices")
	}
	return out, nil
}
