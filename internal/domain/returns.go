package domain

import (
	"context"
	"time"
)

// DeviceReturn is one entry of the returns ledger. Entries are mutable only
// while pending; once ReturnedToWarehouse flips to true (exactly once, via
// the mark-returned batch) the entry is immutable.
type DeviceReturn struct {
	ReturnID            string    `json:"return_id"`
	DeviceSerial        string    `json:"device_serial"`
	DeviceType          string    `json:"device_type"`
	DeviceCondition     string    `json:"device_condition"`
	ScannedAt           time.Time `json:"scanned_at"`
	ScannedBy           string    `json:"scanned_by"`
	ReturnedToWarehouse bool      `json:"returned_to_warehouse"`
}

type ReturnFilter struct {
	Returned *bool
}

type ReturnRepository interface {
	Create(ctx context.Context, r *DeviceReturn) error
	GetByID(ctx context.Context, id string) (*DeviceReturn, error)
	List(ctx context.Context, f ReturnFilter) ([]*DeviceReturn, error)
	// Update changes type/condition. Repositories reject finalized entries
	// with ErrReturnFinalized.
	Update(ctx context.Context, id, deviceType, condition string) (*DeviceReturn, error)
	Delete(ctx context.Context, id string) error
	// MarkAllReturned flips every pending entry in one statement and
	// reports how many rows changed. Already-flipped entries are untouched.
	MarkAllReturned(ctx context.Context) (int, error)
}
