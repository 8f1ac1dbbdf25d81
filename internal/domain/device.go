package domain

import (
	"context"
	"time"
)

// DeviceStatus is the device lifecycle state. The wire values keep the
// Polish terms the warehouse crew uses on labels and in the mobile client.
type DeviceStatus string

const (
	DeviceStatusAvailable DeviceStatus = "dostepny"
	DeviceStatusAssigned  DeviceStatus = "przypisany"
	DeviceStatusInstalled DeviceStatus = "zainstalowany"
	DeviceStatusDamaged   DeviceStatus = "uszkodzony"
)

func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceStatusAvailable, DeviceStatusAssigned, DeviceStatusInstalled, DeviceStatusDamaged:
		return true
	}
	return false
}

// Installation is the snapshot kept on the device while it is installed.
// The full record lives in the installations collection and survives restore.
type Installation struct {
	InstallationID string     `json:"installation_id"`
	DeviceID       string     `json:"device_id"`
	UserID         string     `json:"user_id"`
	DeviceName     string     `json:"nazwa_urzadzenia"`
	InstalledAt    time.Time  `json:"data_instalacji"`
	Address        string     `json:"adres_klienta"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	OrderKind      string     `json:"rodzaj_zlecenia"`
}

// Order kinds evidenced in the field app.
const (
	OrderKindInstallation = "instalacja"
	OrderKindReplacement  = "wymiana"
	OrderKindBreakdown    = "awaria"
)

// Device is a tracked warehouse unit.
//
// Invariants, enforced by the assignment and returns services:
//   - OwnerID is set iff Status is przypisany or zainstalowany.
//   - Installation is set iff Status is zainstalowany.
//   - Serial is unique across all devices.
//
// LastOwnerID records who held the device when it was off-boarded to
// uszkodzony; it is reporting metadata, not part of the owner invariant.
type Device struct {
	DeviceID     string        `json:"device_id"`
	Name         string        `json:"nazwa"`
	Serial       string        `json:"numer_seryjny"`
	Barcode      string        `json:"kod_kreskowy,omitempty"`
	QRCode       string        `json:"kod_qr,omitempty"`
	Status       DeviceStatus  `json:"status"`
	OwnerID      *string       `json:"przypisany_do,omitempty"`
	LastOwnerID  *string       `json:"ostatni_wlasciciel,omitempty"`
	Installation *Installation `json:"installation,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type DeviceFilter struct {
	Status  *DeviceStatus
	OwnerID *string
}

// StateChange is the full target state of a CAS transition. Nil pointer
// fields clear the corresponding column.
type StateChange struct {
	Status       DeviceStatus
	OwnerID      *string
	LastOwnerID  *string
	Installation *Installation
}

// BulkFailure reports one failed item of a bulk operation.
type BulkFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult is the authoritative per-item outcome of a bulk call. Bulk
// operations are batches of independent single-item operations, never a
// transaction.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

type DeviceRepository interface {
	Create(ctx context.Context, d *Device) error
	GetByID(ctx context.Context, id string) (*Device, error)
	GetBySerial(ctx context.Context, serial string) (*Device, error)
	// GetByCode matches barcode, QR code or serial, in that order.
	GetByCode(ctx context.Context, code string) (*Device, error)
	List(ctx context.Context, f DeviceFilter) ([]*Device, error)
	// Transition applies change only if the device's current status still
	// equals expected at commit time. It returns ErrNotFound for an unknown
	// id and ErrConflict when the guard loses the race.
	Transition(ctx context.Context, id string, expected DeviceStatus, change StateChange) (*Device, error)
}

type InstallationFilter struct {
	UserID    *string
	OrderKind *string
	From      *time.Time
	To        *time.Time
}

type InstallationStats struct {
	Total  int            `json:"total"`
	ByKind map[string]int `json:"by_type"`
	ByUser map[string]int `json:"by_user"`
}

type InstallationRepository interface {
	Create(ctx context.Context, inst *Installation) error
	LatestForDevice(ctx context.Context, deviceID string) (*Installation, error)
	List(ctx context.Context, f InstallationFilter) ([]*Installation, error)
	Stats(ctx context.Context) (*InstallationStats, error)
}
