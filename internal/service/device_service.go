package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// DeviceService covers registry intake and lookups: manual add, bulk
// import, listing and scan resolution.
type DeviceService struct {
	uow      domain.UnitOfWork
	devices  domain.DeviceRepository
	activity domain.ActivityRepository
	log      *slog.Logger
}

func NewDeviceService(uow domain.UnitOfWork, devices domain.DeviceRepository, activity domain.ActivityRepository, log *slog.Logger) *DeviceService {
	return &DeviceService{uow: uow, devices: devices, activity: activity, log: log}
}

type DeviceInput struct {
	Name    string `json:"nazwa"`
	Serial  string `json:"numer_seryjny"`
	Barcode string `json:"kod_kreskowy"`
	QRCode  string `json:"kod_qr"`
}

func (in DeviceInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("%w: nazwa is required", domain.ErrValidation)
	}
	if in.Serial == "" {
		return fmt.Errorf("%w: numer_seryjny is required", domain.ErrValidation)
	}
	return nil
}

// Create adds a single device to the registry in dostepny state.
func (s *DeviceService) Create(ctx context.Context, in DeviceInput, actor domain.Principal) (*domain.Device, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	device := &domain.Device{
		DeviceID: domain.NewID("dev"),
		Name:     in.Name,
		Serial:   in.Serial,
		Barcode:  in.Barcode,
		QRCode:   in.QRCode,
		Status:   domain.DeviceStatusAvailable,
	}

	err := s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		if err := tx.Devices().Create(ctx, device); err != nil {
			return err
		}

		entry := newEntry(actor, domain.ActionDeviceAdd,
			fmt.Sprintf("Dodano urządzenie %s (SN: %s)", device.Name, device.Serial))
		entry.DeviceID = device.DeviceID
		entry.DeviceSerial = device.Serial
		return tx.Activity().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("device added", "device", device.Serial, "actor", actor.UserID)
	return device, nil
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// Import creates devices from parsed spreadsheet rows. Rows with duplicate
// serials are reported and skipped, row numbering starts at 2 to match the
// sheet the admin is looking at. One device_import entry summarizes the
// batch.
func (s *DeviceService) Import(ctx context.Context, rows []DeviceInput, actor domain.Principal) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to import", domain.ErrValidation)
	}

	result := &ImportResult{Errors: []string{}}
	err := s.uow.WithinTx(ctx, func(tx domain.RepoSet) error {
		for i, row := range rows {
			rowNum := i + 2
			if err := row.validate(); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Wiersz %d: %v", rowNum, err))
				continue
			}

			// Probe first: a constraint violation would abort the whole tx,
			// and duplicate rows are data for the caller, not an error.
			if _, err := tx.Devices().GetBySerial(ctx, row.Serial); err == nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("Wiersz %d: urządzenie o numerze seryjnym %s już istnieje", rowNum, row.Serial))
				continue
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}

			device := &domain.Device{
				DeviceID: domain.NewID("dev"),
				Name:     row.Name,
				Serial:   row.Serial,
				Barcode:  row.Barcode,
				QRCode:   row.QRCode,
				Status:   domain.DeviceStatusAvailable,
			}
			if err := tx.Devices().Create(ctx, device); err != nil {
				return err
			}
			result.Imported++
		}

		entry := newEntry(actor, domain.ActionDeviceImport,
			fmt.Sprintf("Zaimportowano %d urządzeń (%d błędów)", result.Imported, len(result.Errors)))
		entry.Details = map[string]interface{}{
			"imported": result.Imported,
			"errors":   len(result.Errors),
		}
		return tx.Activity().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("devices imported", "imported", result.Imported, "errors", len(result.Errors), "actor", actor.UserID)
	return result, nil
}

func (s *DeviceService) List(ctx context.Context, f domain.DeviceFilter) ([]*domain.Device, error) {
	return s.devices.List(ctx, f)
}

func (s *DeviceService) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	return s.devices.GetByID(ctx, id)
}

// Scan resolves a barcode, QR code or serial to a device and records the
// scan. The lookup is open to any role; the log entry still counts as audit
// trail, so a failed append fails the scan.
func (s *DeviceService) Scan(ctx context.Context, code string, actor domain.Principal) (*domain.Device, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", domain.ErrValidation)
	}

	device, err := s.devices.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	entry := newEntry(actor, domain.ActionDeviceScan,
		fmt.Sprintf("Zeskanowano urządzenie %s (SN: %s)", device.Name, device.Serial))
	entry.DeviceID = device.DeviceID
	entry.DeviceSerial = device.Serial
	if err := s.activity.Append(ctx, entry); err != nil {
		return nil, err
	}

	return device, nil
}
