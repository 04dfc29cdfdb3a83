package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fleet-tracker/constants"
	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
)

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// fakeDB answers QueryRow with row and records the last statement.
type fakeDB struct {
	row     pgx.Row
	execErr error

	sql  string
	args []any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return pgconn.NewCommandTag("CREATE TABLE"), f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.sql, f.args = sql, args
	return f.row
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}

// loadRow scans l into the column order of loadColumns.
func loadRow(l entity.Load) pgx.Row {
	return rowFunc(func(dest ...any) error {
		*dest[0].(*uuid.UUID) = l.ID
		*dest[1].(*string) = l.LoadID
		*dest[2].(*string) = l.PickupLocation
		*dest[3].(*string) = l.DeliveryLocation
		*dest[4].(*time.Time) = l.PickupDate
		*dest[5].(*time.Time) = l.DeliveryDate
		*dest[6].(*float64) = l.Rate
		*dest[7].(**float64) = l.Distance
		*dest[8].(*string) = string(l.Status)
		*dest[9].(*bool) = l.InvoiceGenerated
		*dest[10].(*time.Time) = l.CreatedAt
		*dest[11].(*time.Time) = l.UpdatedAt
		return nil
	})
}

func errRow(err error) pgx.Row {
	return rowFunc(func(...any) error { return err })
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "x"))

	err := mapError(pgx.ErrNoRows, `load "A1"`)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, `load "A1" not found`, common.PublicMessage(err))

	err = mapError(&pgconn.PgError{Code: "23505", Message: "duplicate key"}, `load "A1"`)
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, 409, common.HTTPStatus(err))

	err = mapError(errors.New("connection reset"), "list loads")
	assert.ErrorIs(t, err, common.ErrDatabase)
	assert.Equal(t, 500, common.HTTPStatus(err))
	assert.Equal(t, "internal error", common.PublicMessage(err))
}

func TestBuildLoadListQuery(t *testing.T) {
	q, args := buildLoadListQuery(entity.LoadFilter{})
	assert.NotContains(t, q, "WHERE")
	assert.NotContains(t, q, "LIMIT")
	assert.Empty(t, args)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	q, args = buildLoadListQuery(entity.LoadFilter{
		Status:     constants.LoadStatusPending,
		PickupFrom: &from,
		PickupTo:   &to,
		Limit:      50,
	})
	assert.Contains(t, q, "WHERE status = $1 AND pickup_date >= $2 AND pickup_date <= $3")
	assert.True(t, strings.HasSuffix(q, "LIMIT $4"))
	assert.Equal(t, []any{"pending", from, to, 50}, args)
}

func TestLoadRepository_Create(t *testing.T) {
	now := time.Now().UTC()
	db := &fakeDB{}
	repo := NewLoadRepository(db, nil)

	in := &entity.Load{LoadID: "LD-9", PickupLocation: "Chicago, IL", DeliveryLocation: "Dallas, TX", Rate: 2500}
	db.row = rowFunc(func(dest ...any) error {
		stored := *in
		stored.CreatedAt, stored.UpdatedAt = now, now
		return loadRow(stored).Scan(dest...)
	})

	got, err := repo.Create(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, constants.LoadStatusPending, got.Status)
	assert.Equal(t, now, got.CreatedAt)
	assert.Contains(t, db.sql, "INSERT INTO loads")
	assert.Equal(t, "pending", db.args[8])
}

func TestLoadRepository_CreateDuplicate(t *testing.T) {
	db := &fakeDB{row: errRow(&pgconn.PgError{Code: "23505"})}
	_, err := NewLoadRepository(db, nil).Create(context.Background(), &entity.Load{LoadID: "LD-9"})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestLoadRepository_GetByLoadID(t *testing.T) {
	miles := 920.0
	want := entity.Load{ID: uuid.New(), LoadID: "LD-9", Distance: &miles, Status: constants.LoadStatusDelivered}
	db := &fakeDB{row: loadRow(want)}

	got, err := NewLoadRepository(db, nil).GetByLoadID(context.Background(), "LD-9")
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.Equal(t, []any{"LD-9"}, db.args)

	db.row = errRow(pgx.ErrNoRows)
	_, err = NewLoadRepository(db, nil).GetByLoadID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMigrate(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, Migrate(context.Background(), db, nil))
	assert.Contains(t, db.sql, "CREATE TABLE IF NOT EXISTS loads")
	assert.Contains(t, db.sql, "CREATE TABLE IF NOT EXISTS invoices")

	db.execErr = errors.New("permission denied")
	assert.ErrorIs(t, Migrate(context.Background(), db, nil), common.ErrDatabase)
}
