package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// HistoryService projects the activity log into per-device and per-user
// timelines. Pure reader.
type HistoryService struct {
	devices       domain.DeviceRepository
	installations domain.InstallationRepository
	activity      domain.ActivityRepository
	log           *slog.Logger
}

func NewHistoryService(devices domain.DeviceRepository, installations domain.InstallationRepository, activity domain.ActivityRepository, log *slog.Logger) *HistoryService {
	return &HistoryService{devices: devices, installations: installations, activity: activity, log: log}
}

// DeviceHistory is the device timeline: the log stream plus the device's
// import date surfaced separately from it.
type DeviceHistory struct {
	Device       *domain.Device         `json:"device"`
	Installation *domain.Installation   `json:"installation,omitempty"`
	ImportedAt   *time.Time             `json:"imported_at,omitempty"`
	Logs         []*domain.ActivityEntry `json:"logs"`
	TotalEvents  int                    `json:"total_events"`
}

// DeviceHistory builds the timeline for a serial. The serial does not have
// to resolve to a registered device: the returns ledger references outside
// stock, and its log entries are still history.
func (s *HistoryService) DeviceHistory(ctx context.Context, serial string, limit int) (*DeviceHistory, error) {
	if serial == "" {
		return nil, fmt.Errorf("%w: serial is required", domain.ErrValidation)
	}

	h := &DeviceHistory{}

	device, err := s.devices.GetBySerial(ctx, serial)
	switch {
	case err == nil:
		h.Device = device
		h.ImportedAt = &device.CreatedAt
		inst, err := s.installations.LatestForDevice(ctx, device.DeviceID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		h.Installation = inst
	case errors.Is(err, domain.ErrNotFound):
		// keep going with the log stream only
	default:
		return nil, err
	}

	logs, err := s.activity.ListByDevice(ctx, serial, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.activity.CountByDevice(ctx, serial)
	if err != nil {
		return nil, err
	}

	// The store hands entries back most-recent-first; a timeline reads
	// chronologically. The tie-break on insertion order makes the flip
	// deterministic.
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}

	h.Logs = logs
	h.TotalEvents = total
	return h, nil
}

func (s *HistoryService) UserHistory(ctx context.Context, userID string, limit int) ([]*domain.ActivityEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.activity.ListByUser(ctx, userID, limit)
}

func (s *HistoryService) List(ctx context.Context, f domain.ActivityFilter) ([]*domain.ActivityEntry, error) {
	return s.activity.List(ctx, f)
}

func (s *HistoryService) Installations(ctx context.Context, f domain.InstallationFilter) ([]*domain.Installation, error) {
	return s.installations.List(ctx, f)
}

func (s *HistoryService) InstallationStats(ctx context.Context) (*domain.InstallationStats, error) {
	return s.installations.Stats(ctx)
}
