package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// ActivityRepo is append-only: there is no update or delete path, by
// contract of the audit trail.
type ActivityRepo struct {
	db DB
}

func NewActivityRepo(db DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

const activityColumns = `
	log_id, timestamp, actor_id, actor_name, actor_role, action_type, description,
	device_serial, device_id, task_id, target_user_id, target_user_name, details, ip_address`

func (r *ActivityRepo) Append(ctx context.Context, e *domain.ActivityEntry) error {
	var detailsJSON []byte
	if e.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO activity_log (log_id, actor_id, actor_name, actor_role, action_type, description,
			device_serial, device_id, task_id, target_user_id, target_user_name, details, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING timestamp
	`, e.LogID, e.ActorID, e.ActorName, e.ActorRole, e.ActionType, e.Description,
		nullIfEmpty(e.DeviceSerial), nullIfEmpty(e.DeviceID), nullIfEmpty(e.TaskID),
		nullIfEmpty(e.TargetUserID), nullIfEmpty(e.TargetUserName), detailsJSON,
		nullIfEmpty(e.IPAddress)).
		Scan(&e.Timestamp)
	if err != nil {
		return fmt.Errorf("append activity entry: %w", err)
	}
	return nil
}

func (r *ActivityRepo) List(ctx context.Context, f domain.ActivityFilter) ([]*domain.ActivityEntry, error) {
	where := ""
	args := []any{}
	argIdx := 1

	if f.ActionType != nil {
		where = fmt.Sprintf("WHERE action_type = $%d", argIdx)
		args = append(args, *f.ActionType)
		argIdx++
	}

	limit := f.Limit
	if limit < 1 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)

	return r.query(ctx, fmt.Sprintf(`
		SELECT `+activityColumns+` FROM activity_log %s
		ORDER BY timestamp DESC, seq DESC
		LIMIT $%d
	`, where, argIdx), args...)
}

func (r *ActivityRepo) ListByDevice(ctx context.Context, serial string, limit int) ([]*domain.ActivityEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return r.query(ctx, `
		SELECT `+activityColumns+` FROM activity_log
		WHERE device_serial = $1
		ORDER BY timestamp DESC, seq DESC
		LIMIT $2
	`, serial, limit)
}

func (r *ActivityRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.ActivityEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return r.query(ctx, `
		SELECT `+activityColumns+` FROM activity_log
		WHERE actor_id = $1 OR target_user_id = $1
		ORDER BY timestamp DESC, seq DESC
		LIMIT $2
	`, userID, limit)
}

func (r *ActivityRepo) CountByDevice(ctx context.Context, serial string) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM activity_log WHERE device_serial = $1
	`, serial).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count activity entries: %w", err)
	}
	return total, nil
}

func (r *ActivityRepo) query(ctx context.Context, sql string, args ...any) ([]*domain.ActivityEntry, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.ActivityEntry{}
	for rows.Next() {
		e, err := scanActivityEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanActivityEntry(row pgx.Row) (*domain.ActivityEntry, error) {
	e := &domain.ActivityEntry{}
	var deviceSerial, deviceID, taskID, targetID, targetName, ip *string
	var detailsJSON []byte

	err := row.Scan(
		&e.LogID, &e.Timestamp, &e.ActorID, &e.ActorName, &e.ActorRole,
		&e.ActionType, &e.Description, &deviceSerial, &deviceID, &taskID,
		&targetID, &targetName, &detailsJSON, &ip,
	)
	if err != nil {
		return nil, err
	}
	e.DeviceSerial = deref(deviceSerial)
	e.DeviceID = deref(deviceID)
	e.TaskID = deref(taskID)
	e.TargetUserID = deref(targetID)
	e.TargetUserName = deref(targetName)
	e.IPAddress = deref(ip)
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &e.Details); err != nil {
			e.Details = map[string]interface{}{}
		}
	}
	return e, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
