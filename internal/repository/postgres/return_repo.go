package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

type ReturnRepo struct {
	db DB
}

func NewReturnRepo(db DB) *ReturnRepo {
	return &ReturnRepo{db: db}
}

const returnColumns = `
	return_id, device_serial, device_type, device_condition,
	scanned_at, scanned_by, returned_to_warehouse`

func (r *ReturnRepo) Create(ctx context.Context, ret *domain.DeviceReturn) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO device_returns (return_id, device_serial, device_type, device_condition, scanned_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING scanned_at, returned_to_warehouse
	`, ret.ReturnID, ret.DeviceSerial, ret.DeviceType, ret.DeviceCondition, ret.ScannedBy).
		Scan(&ret.ScannedAt, &ret.ReturnedToWarehouse)
	if err != nil {
		return fmt.Errorf("insert return: %w", err)
	}
	return nil
}

func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*domain.DeviceReturn, error) {
	row := r.db.QueryRow(ctx, `SELECT `+returnColumns+` FROM device_returns WHERE return_id = $1`, id)
	ret, err := scanReturn(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get return: %w", err)
	}
	return ret, nil
}

func (r *ReturnRepo) List(ctx context.Context, f domain.ReturnFilter) ([]*domain.DeviceReturn, error) {
	where := ""
	args := []any{}
	if f.Returned != nil {
		where = "WHERE returned_to_warehouse = $1"
		args = append(args, *f.Returned)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+returnColumns+` FROM device_returns `+where+` ORDER BY scanned_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	defer rows.Close()

	returns := []*domain.DeviceReturn{}
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan return: %w", err)
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}

// Update edits type/condition of a pending entry. Finalized entries are
// immutable.
func (r *ReturnRepo) Update(ctx context.Context, id, deviceType, condition string) (*domain.DeviceReturn, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE device_returns
		SET device_type = $1, device_condition = $2
		WHERE return_id = $3 AND returned_to_warehouse = FALSE
		RETURNING `+returnColumns+`
	`, deviceType, condition, id)

	ret, err := scanReturn(row)
	if err == nil {
		return ret, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update return: %w", err)
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrReturnFinalized
}

func (r *ReturnRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM device_returns WHERE return_id = $1 AND returned_to_warehouse = FALSE
	`, id)
	if err != nil {
		return fmt.Errorf("delete return: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrReturnFinalized
	}
	return nil
}

// MarkAllReturned flips every pending entry in one statement, which is what
// makes the export batch atomic and the operation idempotent for entries
// already flipped.
func (r *ReturnRepo) MarkAllReturned(ctx context.Context) (int, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE device_returns SET returned_to_warehouse = TRUE WHERE returned_to_warehouse = FALSE
	`)
	if err != nil {
		return 0, fmt.Errorf("mark returns: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanReturn(row pgx.Row) (*domain.DeviceReturn, error) {
	ret := &domain.DeviceReturn{}
	err := row.Scan(
		&ret.ReturnID, &ret.DeviceSerial, &ret.DeviceType, &ret.DeviceCondition,
		&ret.ScannedAt, &ret.ScannedBy, &ret.ReturnedToWarehouse,
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}
