package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

func newTestInventoryService() (*InventoryService, *mockStore, *mockUserRepo) {
	store := newMockStore()
	users := newMockUserRepo()
	svc := NewInventoryService(store.devices, users, discardLogger())
	return svc, store, users
}

func seedMany(store *mockStore, name, barcode string, n int, status domain.DeviceStatus, ownerID *string) {
	for i := 0; i < n; i++ {
		serial := fmt.Sprintf("SN-%s-%s-%d", barcode, status, i)
		seedDevice(store, name, serial, barcode, status, ownerID)
	}
}

func TestSummary_LowStockThreshold(t *testing.T) {
	svc, store, users := newTestInventoryService()
	ctx := context.Background()

	jan := seedWorker(users, "Jan")
	piotr := seedWorker(users, "Piotr")

	// Three ONTs is below the threshold, five STBs is not.
	seedMany(store, "ONT", "BC-ONT", 3, domain.DeviceStatusAssigned, &jan.UserID)
	seedMany(store, "STB", "BC-STB", 5, domain.DeviceStatusAssigned, &piotr.UserID)

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected 2 workers in summary, got %d", len(summary))
	}

	byID := map[string]*domain.OwnerInventory{}
	for _, inv := range summary {
		byID[inv.UserID] = inv
	}

	janInv := byID[jan.UserID]
	if janInv.TotalDevices != 3 {
		t.Errorf("expected Jan holding 3 devices, got %d", janInv.TotalDevices)
	}
	if !janInv.HasLowStock || len(janInv.LowStock) != 1 || janInv.LowStock[0].Barcode != "BC-ONT" {
		t.Errorf("expected Jan's ONT stock flagged low, got %+v", janInv.LowStock)
	}

	piotrInv := byID[piotr.UserID]
	if piotrInv.HasLowStock {
		t.Errorf("5 devices of one type must not be low stock, got %+v", piotrInv.LowStock)
	}
}

func TestSummary_CountsByStatus(t *testing.T) {
	svc, store, users := newTestInventoryService()
	ctx := context.Background()

	jan := seedWorker(users, "Jan")

	seedMany(store, "ONT", "BC-ONT", 2, domain.DeviceStatusAssigned, &jan.UserID)
	seedMany(store, "ONT", "BC-ONT", 1, domain.DeviceStatusInstalled, &jan.UserID)

	// Damaged stock has no owner; the summary reports it by last holder.
	damaged := seedDevice(store, "ONT", "SN-DMG-1", "BC-ONT", domain.DeviceStatusDamaged, nil)
	store.devices.devices[damaged.DeviceID].LastOwnerID = &jan.UserID

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv := summary[0]
	if inv.TotalDevices != 2 {
		t.Errorf("expected 2 assigned, got %d", inv.TotalDevices)
	}
	if inv.TotalInstalled != 1 {
		t.Errorf("expected 1 installed, got %d", inv.TotalInstalled)
	}
	if inv.TotalDamaged != 1 {
		t.Errorf("expected 1 damaged, got %d", inv.TotalDamaged)
	}
}

func TestSummary_SkipsAdmins(t *testing.T) {
	svc, _, users := newTestInventoryService()

	admin := &domain.User{UserID: "user_root", Email: "root@magazyn.local", Name: "Root", Role: domain.RoleAdmin}
	if err := users.Create(context.Background(), admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	seedWorker(users, "Jan")

	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("expected only the worker in the summary, got %d rows", len(summary))
	}
	if summary[0].Role != domain.RoleWorker {
		t.Fatalf("expected worker row, got role %s", summary[0].Role)
	}
}

func TestUserInventory_SplitsByStatus(t *testing.T) {
	svc, store, users := newTestInventoryService()
	ctx := context.Background()

	jan := seedWorker(users, "Jan")
	seedMany(store, "ONT", "BC-ONT", 2, domain.DeviceStatusAssigned, &jan.UserID)
	seedMany(store, "STB", "BC-STB", 1, domain.DeviceStatusInstalled, &jan.UserID)

	inv, err := svc.UserInventory(ctx, jan.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.TotalAssigned != 2 || len(inv.AssignedDevices) != 2 {
		t.Errorf("expected 2 assigned, got %d/%d", inv.TotalAssigned, len(inv.AssignedDevices))
	}
	if inv.TotalInstalled != 1 || len(inv.InstalledDevices) != 1 {
		t.Errorf("expected 1 installed, got %d/%d", inv.TotalInstalled, len(inv.InstalledDevices))
	}
	if len(inv.ByBarcode) != 2 {
		t.Errorf("expected 2 barcode groups, got %d", len(inv.ByBarcode))
	}
	// Groups come back sorted by name for stable poll responses.
	if inv.ByBarcode[0].Name != "ONT" || inv.ByBarcode[1].Name != "STB" {
		t.Errorf("expected groups sorted by name, got %+v", inv.ByBarcode)
	}
}

func TestUserInventory_UnknownUser(t *testing.T) {
	svc, _, _ := newTestInventoryService()

	_, err := svc.UserInventory(context.Background(), "user_missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
