package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

type DeviceRepo struct {
	db DB
}

func NewDeviceRepo(db DB) *DeviceRepo {
	return &DeviceRepo{db: db}
}

const deviceColumns = `
	device_id, nazwa, numer_seryjny, kod_kreskowy, kod_qr, status,
	owner_id, last_owner_id, installation, created_at, updated_at`

func (r *DeviceRepo) Create(ctx context.Context, d *domain.Device) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO devices (device_id, nazwa, numer_seryjny, kod_kreskowy, kod_qr, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, d.DeviceID, d.Name, d.Serial, d.Barcode, d.QRCode, d.Status).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSerial
		}
		return fmt.Errorf("insert device: %w", err)
	}
	return nil
}

func (r *DeviceRepo) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	return r.getWhere(ctx, "device_id = $1", id)
}

func (r *DeviceRepo) GetBySerial(ctx context.Context, serial string) (*domain.Device, error) {
	return r.getWhere(ctx, "numer_seryjny = $1", serial)
}

func (r *DeviceRepo) GetByCode(ctx context.Context, code string) (*domain.Device, error) {
	return r.getWhere(ctx, "kod_kreskowy = $1 OR kod_qr = $1 OR numer_seryjny = $1", code)
}

func (r *DeviceRepo) getWhere(ctx context.Context, where string, args ...any) (*domain.Device, error) {
	row := r.db.QueryRow(ctx, `SELECT `+deviceColumns+` FROM devices WHERE `+where, args...)
	d, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	return d, nil
}

func (r *DeviceRepo) List(ctx context.Context, f domain.DeviceFilter) ([]*domain.Device, error) {
	where := "WHERE 1=1"
	args := []any{}
	argIdx := 1

	if f.Status != nil {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *f.Status)
		argIdx++
	}
	if f.OwnerID != nil {
		where += fmt.Sprintf(" AND owner_id = $%d", argIdx)
		args = append(args, *f.OwnerID)
		argIdx++
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+deviceColumns+` FROM devices `+where+` ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	devices := []*domain.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// Transition is the registry's single admission-control point: the update
// only lands if the row's status still equals expected. A guarded update
// touching zero rows is re-read to tell an unknown device from a lost race.
func (r *DeviceRepo) Transition(ctx context.Context, id string, expected domain.DeviceStatus, change domain.StateChange) (*domain.Device, error) {
	var installJSON []byte
	if change.Installation != nil {
		var err error
		installJSON, err = json.Marshal(change.Installation)
		if err != nil {
			return nil, fmt.Errorf("marshal installation: %w", err)
		}
	}

	row := r.db.QueryRow(ctx, `
		UPDATE devices
		SET status = $1, owner_id = $2, last_owner_id = COALESCE($3, last_owner_id),
		    installation = $4, updated_at = NOW()
		WHERE device_id = $5 AND status = $6
		RETURNING `+deviceColumns+`
	`, change.Status, change.OwnerID, change.LastOwnerID, installJSON, id, expected)

	d, err := scanDevice(row)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition device: %w", err)
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrConflict
}

func scanDevice(row pgx.Row) (*domain.Device, error) {
	d := &domain.Device{}
	var barcode, qr *string
	var installJSON []byte

	err := row.Scan(
		&d.DeviceID, &d.Name, &d.Serial, &barcode, &qr, &d.Status,
		&d.OwnerID, &d.LastOwnerID, &installJSON, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if barcode != nil {
		d.Barcode = *barcode
	}
	if qr != nil {
		d.QRCode = *qr
	}
	if len(installJSON) > 0 {
		inst := &domain.Installation{}
		if err := json.Unmarshal(installJSON, inst); err != nil {
			return nil, fmt.Errorf("unmarshal installation: %w", err)
		}
		d.Installation = inst
	}
	return d, nil
}
