package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// ReturnsService off-boards damaged and returned devices into the returns
// ledger. It is the only writer of DeviceReturn state.
type ReturnsService struct {
	uow     domain.UnitOfWork
	devices domain.DeviceRepository
	returns domain.ReturnRepository
	log     *slog.Logger
}

func NewReturnsService(uow domain.UnitOfWork, devices domain.DeviceRepository, returns domain.ReturnRepository, log *slog.Logger) *ReturnsService {
	return &ReturnsService{uow: uow, devices: devices, returns: returns, log: log}
}

// Add registers a manually scanned return. The serial does not have to
// match a registered device: scrapped stock comes back too.
func (s *ReturnsService) Add(ctx context.Context, serial, deviceType, condition string, actor domain.Principal) (*domain.DeviceReturn, error) {
	if serial == "" {
		return nil, fmt.Errorf("%w: device_serial is required", domain.ErrValidation)
	}
	if deviceType == "" {
		return nil, fmt.Errorf("%w: device_type is required", domain.ErrValidation)
	}

	ret := &domain.DeviceReturn{
		ReturnID:        domain.NewID("ret"),
		DeviceSerial:    serial,
		DeviceType:      deviceType,
		DeviceCondition: condition,
		ScannedBy:       actor.UserID,
	}

	err := s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		if err := tx.Returns().Create(ctx, ret); err != nil {
			return err
		}

		entry := newEntry(actor, domain.ActionDeviceReturn,
			fmt.Sprintf("Zarejestrowano zwrot urządzenia %s (SN: %s)", deviceType, serial))
		entry.DeviceSerial = serial
		entry.Details = map[string]interface{}{"device_condition": condition}
		return tx.Activity().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("return registered", "serial", serial, "actor", actor.UserID)
	return ret, nil
}

// BulkMoveToReturns off-boards each device independently: read the serial,
// open a ledger entry and mark the device uszkodzony, one unit of work per
// device. Items keep failing or succeeding on their own, like bulk assign.
func (s *ReturnsService) BulkMoveToReturns(ctx context.Context, deviceIDs []string, condition string, actor domain.Principal) (*domain.BulkResult, error) {
	if len(deviceIDs) == 0 {
		return nil, fmt.Errorf("%w: device_ids is required", domain.ErrValidation)
	}

	result := &domain.BulkResult{Succeeded: []string{}, Failed: []domain.BulkFailure{}}
	for _, id := range deviceIDs {
		if err := s.moveToReturns(ctx, id, condition, actor); err != nil {
			result.Failed = append(result.Failed, domain.BulkFailure{ID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}

func (s *ReturnsService) moveToReturns(ctx context.Context, deviceID, condition string, actor domain.Principal) error {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("device %s: %w", deviceID, err)
	}
	if device.Status != domain.DeviceStatusAssigned && device.Status != domain.DeviceStatusAvailable {
		return fmt.Errorf("%w: device %s is %s, off-boarding requires %s or %s",
			domain.ErrInvalidTransition, device.Serial, device.Status,
			domain.DeviceStatusAssigned, domain.DeviceStatusAvailable)
	}

	ret := &domain.DeviceReturn{
		ReturnID:        domain.NewID("ret"),
		DeviceSerial:    device.Serial,
		DeviceType:      device.Name,
		DeviceCondition: condition,
		ScannedBy:       actor.UserID,
	}

	return s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		if err := tx.Returns().Create(ctx, ret); err != nil {
			return err
		}

		// Owner and installation are cleared; the holder at off-boarding
		// time is kept in last_owner_id for the inventory summary.
		if _, err := tx.Devices().Transition(ctx, device.DeviceID, device.Status, domain.StateChange{
			Status:      domain.DeviceStatusDamaged,
			LastOwnerID: device.OwnerID,
		}); err != nil {
			return err
		}

		entry := newEntry(actor, domain.ActionDeviceDamage, describeDamage(device))
		entry.DeviceID = device.DeviceID
		entry.DeviceSerial = device.Serial
		if device.OwnerID != nil {
			entry.TargetUserID = *device.OwnerID
		}
		entry.Details = map[string]interface{}{"device_condition": condition}
		return tx.Activity().Append(ctx, entry)
	})
}

// MarkReturnedToWarehouse flips every pending ledger entry as one batch,
// tied 1:1 to an export event in the export collaborator. Entries already
// flipped are untouched, so repeating the call is harmless.
func (s *ReturnsService) MarkReturnedToWarehouse(ctx context.Context) (int, error) {
	flipped, err := s.returns.MarkAllReturned(ctx)
	if err != nil {
		return 0, err
	}
	if flipped > 0 {
		s.log.Info("returns marked as sent to warehouse", "count", flipped)
	}
	return flipped, nil
}

// Edit corrects type/condition of a pending entry. Non-authoritative
// metadata, so no log entry is written.
func (s *ReturnsService) Edit(ctx context.Context, returnID, deviceType, condition string) (*domain.DeviceReturn, error) {
	if deviceType == "" {
		return nil, fmt.Errorf("%w: device_type is required", domain.ErrValidation)
	}
	return s.returns.Update(ctx, returnID, deviceType, condition)
}

func (s *ReturnsService) Delete(ctx context.Context, returnID string) error {
	return s.returns.Delete(ctx, returnID)
}

func (s *ReturnsService) List(ctx context.Context, f domain.ReturnFilter) ([]*domain.DeviceReturn, error) {
	return s.returns.List(ctx, f)
}
