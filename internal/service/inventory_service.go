package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// InventoryService is a pure read-model over the device registry: it never
// mutates state and reflects all commits prior to the read.
type InventoryService struct {
	devices domain.DeviceRepository
	users   domain.UserRepository
	log     *slog.Logger
}

func NewInventoryService(devices domain.DeviceRepository, users domain.UserRepository, log *slog.Logger) *InventoryService {
	return &InventoryService{devices: devices, users: users, log: log}
}

// Summary aggregates current holdings per worker. Admin accounts are not
// stock holders and are left out.
func (s *InventoryService) Summary(ctx context.Context) ([]*domain.OwnerInventory, error) {
	workerRole := domain.RoleWorker
	workers, err := s.users.List(ctx, &workerRole)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}

	devices, err := s.devices.List(ctx, domain.DeviceFilter{})
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	byOwner := map[string][]*domain.Device{}
	damagedByOwner := map[string]int{}
	for _, d := range devices {
		switch d.Status {
		case domain.DeviceStatusAssigned, domain.DeviceStatusInstalled:
			if d.OwnerID != nil {
				byOwner[*d.OwnerID] = append(byOwner[*d.OwnerID], d)
			}
		case domain.DeviceStatusDamaged:
			if d.LastOwnerID != nil {
				damagedByOwner[*d.LastOwnerID]++
			}
		}
	}

	summary := make([]*domain.OwnerInventory, 0, len(workers))
	for _, w := range workers {
		inv := &domain.OwnerInventory{
			UserID:       w.UserID,
			UserName:     w.Name,
			UserEmail:    w.Email,
			Role:         w.Role,
			TotalDamaged: damagedByOwner[w.UserID],
			ByBarcode:    []domain.BarcodeGroup{},
			LowStock:     []domain.BarcodeGroup{},
		}

		for _, d := range byOwner[w.UserID] {
			switch d.Status {
			case domain.DeviceStatusAssigned:
				inv.TotalDevices++
			case domain.DeviceStatusInstalled:
				inv.TotalInstalled++
			}
		}

		inv.ByBarcode = groupByBarcode(byOwner[w.UserID])
		for _, g := range inv.ByBarcode {
			if g.Count < domain.LowStockThreshold {
				inv.LowStock = append(inv.LowStock, g)
			}
		}
		inv.HasLowStock = len(inv.LowStock) > 0

		summary = append(summary, inv)
	}
	return summary, nil
}

// UserInventory details one worker's holdings.
func (s *InventoryService) UserInventory(ctx context.Context, userID string) (*domain.UserInventory, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}

	devices, err := s.devices.List(ctx, domain.DeviceFilter{OwnerID: &userID})
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	inv := &domain.UserInventory{
		User:             user,
		AssignedDevices:  []*domain.Device{},
		InstalledDevices: []*domain.Device{},
	}
	for _, d := range devices {
		switch d.Status {
		case domain.DeviceStatusAssigned:
			inv.AssignedDevices = append(inv.AssignedDevices, d)
		case domain.DeviceStatusInstalled:
			inv.InstalledDevices = append(inv.InstalledDevices, d)
		}
	}
	inv.TotalAssigned = len(inv.AssignedDevices)
	inv.TotalInstalled = len(inv.InstalledDevices)
	inv.ByBarcode = groupByBarcode(append(append([]*domain.Device{}, inv.AssignedDevices...), inv.InstalledDevices...))

	return inv, nil
}

// groupByBarcode buckets held devices by type label and barcode. Groups
// come back sorted by name so poll responses are stable.
func groupByBarcode(devices []*domain.Device) []domain.BarcodeGroup {
	type key struct{ name, barcode string }
	counts := map[key]int{}
	for _, d := range devices {
		counts[key{d.Name, d.Barcode}]++
	}

	groups := make([]domain.BarcodeGroup, 0, len(counts))
	for k, n := range counts {
		groups = append(groups, domain.BarcodeGroup{Name: k.name, Barcode: k.barcode, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Name != groups[j].Name {
			return groups[i].Name < groups[j].Name
		}
		return groups[i].Barcode < groups[j].Barcode
	})
	return groups
}
