package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// AssignmentService is the only writer of device ownership state. Every
// successful transition appends its activity log entry in the same unit of
// work: if the append fails, the transition rolls back with it.
type AssignmentService struct {
	uow     domain.UnitOfWork
	devices domain.DeviceRepository
	users   domain.UserRepository
	log     *slog.Logger
}

func NewAssignmentService(uow domain.UnitOfWork, devices domain.DeviceRepository, users domain.UserRepository, log *slog.Logger) *AssignmentService {
	return &AssignmentService{uow: uow, devices: devices, users: users, log: log}
}

// Assign hands an available device to a worker.
func (s *AssignmentService) Assign(ctx context.Context, deviceID, workerID string, actor domain.Principal) (*domain.Device, error) {
	if workerID == "" {
		return nil, fmt.Errorf("%w: worker_id is required", domain.ErrValidation)
	}

	worker, err := s.users.GetByID(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("worker %s: %w", workerID, err)
	}

	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", deviceID, err)
	}
	if device.Status != domain.DeviceStatusAvailable {
		return nil, fmt.Errorf("%w: device %s is %s, assign requires %s",
			domain.ErrInvalidTransition, device.Serial, device.Status, domain.DeviceStatusAvailable)
	}

	var updated *domain.Device
	err = s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		updated, err = tx.Devices().Transition(ctx, deviceID, domain.DeviceStatusAvailable, domain.StateChange{
			Status:  domain.DeviceStatusAssigned,
			OwnerID: &workerID,
		})
		if err != nil {
			return err
		}

		entry := newEntry(actor, domain.ActionDeviceAssign, describeAssign(updated, worker))
		entry.DeviceID = updated.DeviceID
		entry.DeviceSerial = updated.Serial
		entry.TargetUserID = worker.UserID
		entry.TargetUserName = worker.Name
		return tx.Activity().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("device assigned", "device", updated.Serial, "worker", workerID, "actor", actor.UserID)
	return updated, nil
}

// AssignBulk processes each device independently and never aborts early.
// The per-item result is authoritative; there is no all-or-nothing rollback.
func (s *AssignmentService) AssignBulk(ctx context.Context, deviceIDs []string, workerID string, actor domain.Principal) (*domain.BulkResult, error) {
	if len(deviceIDs) == 0 {
		return nil, fmt.Errorf("%w: device_ids is required", domain.ErrValidation)
	}

	result := &domain.BulkResult{Succeeded: []string{}, Failed: []domain.BulkFailure{}}
	for _, id := range deviceIDs {
		if _, err := s.Assign(ctx, id, workerID, actor); err != nil {
			result.Failed = append(result.Failed, domain.BulkFailure{ID: id, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result, nil
}

// Transfer moves an assigned device to another worker; the status does not
// change.
func (s *AssignmentService) Transfer(ctx context.Context, deviceID, newWorkerID string, actor domain.Principal) (*domain.Device, error) {
	if newWorkerID == "" {
		return nil, fmt.Errorf("%w: worker_id is required", domain.ErrValidation)
	}

	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", deviceID, err)
	}
	if device.Status != domain.DeviceStatusAssigned {
		return nil, fmt.Errorf("%w: device %s is %s, transfer requires %s",
			domain.ErrInvalidTransition, device.Serial, device.Status, domain.DeviceStatusAssigned)
	}
	if device.OwnerID != nil && *device.OwnerID == newWorkerID {
		return nil, fmt.Errorf("%w: device %s is already assigned to this worker", domain.ErrValidation, device.Serial)
	}

	newWorker, err := s.users.GetByID(ctx, newWorkerID)
	if err != nil {
		return nil, fmt.Errorf("worker %s: %w", newWorkerID, err)
	}
	oldWorker := &domain.User{Name: "nieznany"}
	if device.OwnerID != nil {
		if u, err := s.users.GetByID(ctx, *device.OwnerID); err == nil {
			oldWorker = u
		}
	}

	var updated *domain.Device
	err = s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		updated, err = tx.Devices().Transition(ctx, deviceID, domain.DeviceStatusAssigned, domain.StateChange{
			Status:  domain.DeviceStatusAssigned,
			OwnerID: &newWorkerID,
		})
		if err != nil {
			return err
		}

		entry := newEntry(actor, domain.ActionDeviceTransfer, describeTransfer(updated, oldWorker, newWorker))
		entry.DeviceID = updated.DeviceID
		entry.DeviceSerial = updated.Serial
		entry.TargetUserID = newWorker.UserID
		entry.TargetUserName = newWorker.Name
		entry.Details = map[string]interface{}{
			"from_user_id":   oldWorker.UserID,
			"from_user_name": oldWorker.Name,
			"to_user_id":     newWorker.UserID,
			"to_user_name":   newWorker.Name,
		}
		return tx.Activity().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("device transferred", "device", updated.Serial, "to", newWorkerID, "actor", actor.UserID)
	return updated, nil
}

// Install records an installation and moves the device to zainstalowany.
type InstallInput struct {
	DeviceID  string
	Address   string
	Latitude  *float64
	Longitude *float64
	OrderKind string
}

func (s *AssignmentService) Install(ctx context.Context, in InstallInput, actor domain.Principal) (*domain.Installation, error) {
	if in.DeviceID == "" {
		return nil, fmt.Errorf("%w: device_id is required", domain.ErrValidation)
	}
	if in.Address == "" {
		return nil, fmt.Errorf("%w: adres_klienta is required", domain.ErrValidation)
	}
	if in.OrderKind == "" {
		in.OrderKind = domain.OrderKindInstallation
	}

	device, err := s.devices.GetByID(ctx, in.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", in.DeviceID, err)
	}
	if device.Status != domain.DeviceStatusAssigned {
		return nil, fmt.Errorf("%w: device %s is %s, install requires %s",
			domain.ErrInvalidTransition, device.Serial, device.Status, domain.DeviceStatusAssigned)
	}

	inst := &domain.Installation{
		InstallationID: domain.NewID("inst"),
		DeviceID:       device.DeviceID,
		UserID:         actor.UserID,
		DeviceName:     device.Name,
		Address:        in.Address,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		OrderKind:      in.OrderKind,
	}

	err = s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		if err := tx.Installations().Create(ctx, inst); err != nil {
			return err
		}

		if _, err := tx.Devices().Transition(ctx, device.DeviceID, domain.DeviceStatusAssigned, domain.StateChange{
			Status:       domain.DeviceStatusInstalled,
			OwnerID:      device.OwnerID,
			Installation: inst,
		}); err != nil {
			return err
		}

		entry := newEntry(actor, domain.ActionDeviceInstall, describeInstall(device, in.Address))
		entry.DeviceID = device.DeviceID
		entry.DeviceSerial = device.Serial
		entry.Details = map[string]interface{}{
			"adres_klienta":   in.Address,
			"rodzaj_zlecenia": in.OrderKind,
		}
		return tx.Activity().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("device installed", "device", device.Serial, "installer", actor.UserID, "address", in.Address)
	return inst, nil
}

// Restore reverts an installed device to przypisany, re-owned by whoever
// installed it. The installation snapshot on the device is cleared; the
// full record stays in the installations collection for history.
func (s *AssignmentService) Restore(ctx context.Context, deviceID string, actor domain.Principal) (*domain.Device, error) {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", deviceID, err)
	}
	if device.Status != domain.DeviceStatusInstalled {
		return nil, fmt.Errorf("%w: device %s is %s, restore requires %s",
			domain.ErrInvalidTransition, device.Serial, device.Status, domain.DeviceStatusInstalled)
	}
	if device.Installation == nil || device.Installation.UserID == "" {
		return nil, fmt.Errorf("%w: device %s has no installer on record", domain.ErrInvalidTransition, device.Serial)
	}

	installerID := device.Installation.UserID
	installer, err := s.users.GetByID(ctx, installerID)
	if err != nil {
		return nil, fmt.Errorf("installer %s: %w", installerID, err)
	}

	var updated *domain.Device
	err = s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		updated, err = tx.Devices().Transition(ctx, deviceID, domain.DeviceStatusInstalled, domain.StateChange{
			Status:  domain.DeviceStatusAssigned,
			OwnerID: &installerID,
		})
		if err != nil {
			return err
		}

		entry := newEntry(actor, domain.ActionDeviceRestore, describeRestore(updated, installer))
		entry.DeviceID = updated.DeviceID
		entry.DeviceSerial = updated.Serial
		entry.TargetUserID = installer.UserID
		entry.TargetUserName = installer.Name
		return tx.Activity().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("device restored", "device", updated.Serial, "installer", installerID, "actor", actor.UserID)
	return updated, nil
}
