package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/joseph-ayodele/fleet-tracker/constants"
	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
)

type LoadRepository interface {
	Create(ctx context.Context, load *entity.Load) (*entity.Load, error)
	GetByLoadID(ctx context.Context, loadID string) (*entity.Load, error)
	List(ctx context.Context, filter entity.LoadFilter) ([]*entity.Load, error)
}

type loadRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewLoadRepository(db DBTX, logger *slog.Logger) LoadRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &loadRepository{
		db:     db,
		logger: logger,
	}
}

const loadColumns = `id, load_id, pickup_location, delivery_location, pickup_date, delivery_date,
	rate::float8, distance, status, invoice_generated, created_at, updated_at`

func (r *loadRepository) Create(ctx context.Context, load *entity.Load) (*entity.Load, error) {
	if load.ID == uuid.Nil {
		load.ID = uuid.New()
	}
	if load.Status == "" {
		load.Status = constants.LoadStatusPending
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO loads (id, load_id, pickup_location, delivery_location, pickup_date, delivery_date,
			rate, distance, status, invoice_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+loadColumns,
		load.ID,
		load.LoadID,
		load.PickupLocation,
		load.DeliveryLocation,
		load.PickupDate,
		load.DeliveryDate,
		load.Rate,
		load.Distance,
		string(load.Status),
		load.InvoiceGenerated,
	)
	created, err := scanLoad(row)
	if err != nil {
		r.logger.Error("failed to create load", "load_id", load.LoadID, "error", err)
		return nil, mapError(err, fmt.Sprintf("load %q", load.LoadID))
	}
	return created, nil
}

func (r *loadRepository) GetByLoadID(ctx context.Context, loadID string) (*entity.Load, error) {
	row := r.db.QueryRow(ctx, `SELECT `+loadColumns+` FROM loads WHERE load_id = $1`, loadID)
	load, err := scanLoad(row)
	if err != nil {
		return nil, mapError(err, fmt.Sprintf("load %q", loadID))
	}
	return load, nil
}

func (r *loadRepository) List(ctx context.Context, filter entity.LoadFilter) ([]*entity.Load, error) {
	query, args := buildLoadListQuery(filter)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list loads", "error", err)
		return nil, mapError(err, "list loads")
	}
	defer rows.Close()

	var out []*entity.Load
	for rows.Next() {
		load, err := scanLoad(rows)
		if err != nil {
			return nil, mapError(err, "scan load")
		}
		out = append(out, load)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list loads")
	}
	return out, nil
}

func buildLoadListQuery(f entity.LoadFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.PickupFrom != nil {
		add("pickup_date >= $%d", *f.PickupFrom)
	}
	if f.PickupTo != nil {
		add("pickup_date <= $%d", *f.PickupTo)
	}

	var b strings.Builder
	b.WriteString("SELECT " + loadColumns + " FROM loads")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY pickup_date DESC, created_at DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

func scanLoad(row pgx.Row) (*entity.Load, error) {
	var (
		l      entity.Load
		status string
	)
	if err := row.Scan(
		&l.ID,
		&l.LoadID,
		&l.PickupLocation,
		&l.DeliveryLocation,
		&l.PickupDate,
		&l.DeliveryDate,
		&l.Rate,
		&l.Distance,
		&status,
		&l.InvoiceGenerated,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.Status = constants.LoadStatus(status)
	return &l, nil
}
