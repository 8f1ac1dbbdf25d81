package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

type InstallationRepo struct {
	db DB
}

func NewInstallationRepo(db DB) *InstallationRepo {
	return &InstallationRepo{db: db}
}

const installationColumns = `
	installation_id, device_id, user_id, nazwa_urzadzenia, data_instalacji,
	adres_klienta, latitude, longitude, rodzaj_zlecenia`

func (r *InstallationRepo) Create(ctx context.Context, inst *domain.Installation) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO installations (installation_id, device_id, user_id, nazwa_urzadzenia,
			adres_klienta, latitude, longitude, rodzaj_zlecenia)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING data_instalacji
	`, inst.InstallationID, inst.DeviceID, inst.UserID, inst.DeviceName,
		inst.Address, inst.Latitude, inst.Longitude, inst.OrderKind).
		Scan(&inst.InstalledAt)
	if err != nil {
		return fmt.Errorf("insert installation: %w", err)
	}
	return nil
}

func (r *InstallationRepo) LatestForDevice(ctx context.Context, deviceID string) (*domain.Installation, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+installationColumns+` FROM installations
		WHERE device_id = $1
		ORDER BY data_instalacji DESC
		LIMIT 1
	`, deviceID)

	inst, err := scanInstallation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get installation: %w", err)
	}
	return inst, nil
}

func (r *InstallationRepo) List(ctx context.Context, f domain.InstallationFilter) ([]*domain.Installation, error) {
	where := "WHERE 1=1"
	args := []any{}
	argIdx := 1

	if f.UserID != nil {
		where += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, *f.UserID)
		argIdx++
	}
	if f.OrderKind != nil {
		where += fmt.Sprintf(" AND rodzaj_zlecenia = $%d", argIdx)
		args = append(args, *f.OrderKind)
		argIdx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND data_instalacji >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND data_instalacji <= $%d", argIdx)
		args = append(args, *f.To)
		argIdx++
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+installationColumns+` FROM installations `+where+`
		ORDER BY data_instalacji DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list installations: %w", err)
	}
	defer rows.Close()

	installations := []*domain.Installation{}
	for rows.Next() {
		inst, err := scanInstallation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installation: %w", err)
		}
		installations = append(installations, inst)
	}
	return installations, rows.Err()
}

func (r *InstallationRepo) Stats(ctx context.Context) (*domain.InstallationStats, error) {
	stats := &domain.InstallationStats{
		ByKind: map[string]int{},
		ByUser: map[string]int{},
	}

	rows, err := r.db.Query(ctx, `
		SELECT rodzaj_zlecenia, COUNT(*) FROM installations GROUP BY rodzaj_zlecenia
	`)
	if err != nil {
		return nil, fmt.Errorf("stats by kind: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.ByKind[kind] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	userRows, err := r.db.Query(ctx, `
		SELECT user_id, COUNT(*) FROM installations GROUP BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("stats by user: %w", err)
	}
	defer userRows.Close()
	for userRows.Next() {
		var userID string
		var count int
		if err := userRows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.ByUser[userID] = count
	}
	return stats, userRows.Err()
}

func scanInstallation(row pgx.Row) (*domain.Installation, error) {
	inst := &domain.Installation{}
	err := row.Scan(
		&inst.InstallationID, &inst.DeviceID, &inst.UserID, &inst.DeviceName,
		&inst.InstalledAt, &inst.Address, &inst.Latitude, &inst.Longitude, &inst.OrderKind,
	)
	if err != nil {
		return nil, err
	}
	return inst, nil
}
