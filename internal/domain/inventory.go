package domain

// LowStockThreshold is the fixed per-type unit count below which a worker's
// holding is flagged as low stock.
const LowStockThreshold = 4

// BarcodeGroup counts a worker's currently held devices of one type.
type BarcodeGroup struct {
	Name    string `json:"nazwa"`
	Barcode string `json:"kod_kreskowy"`
	Count   int    `json:"count"`
}

// OwnerInventory is one row of the per-owner inventory summary.
type OwnerInventory struct {
	UserID         string         `json:"user_id"`
	UserName       string         `json:"user_name"`
	UserEmail      string         `json:"user_email"`
	Role           Role           `json:"role"`
	TotalDevices   int            `json:"total_devices"`
	TotalInstalled int            `json:"total_installed"`
	TotalDamaged   int            `json:"total_damaged"`
	ByBarcode      []BarcodeGroup `json:"by_barcode"`
	LowStock       []BarcodeGroup `json:"low_stock"`
	HasLowStock    bool           `json:"has_low_stock"`
}

// UserInventory is the detailed holdings of a single worker.
type UserInventory struct {
	User             *User          `json:"user"`
	TotalAssigned    int            `json:"total_available"`
	TotalInstalled   int            `json:"total_installed"`
	AssignedDevices  []*Device      `json:"available_devices"`
	InstalledDevices []*Device      `json:"installed_devices"`
	ByBarcode        []BarcodeGroup `json:"by_barcode"`
}
