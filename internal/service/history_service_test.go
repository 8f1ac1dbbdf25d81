package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

func newTestHistoryService() (*HistoryService, *mockStore) {
	store := newMockStore()
	svc := NewHistoryService(store.devices, store.installations, store.activity, discardLogger())
	return svc, store
}

func appendEntry(t *testing.T, store *mockStore, action domain.ActionType, serial, actorID, targetID, description string) {
	t.Helper()
	entry := &domain.ActivityEntry{
		LogID:        domain.NewID("log"),
		ActorID:      actorID,
		ActorName:    "Test",
		ActionType:   action,
		Description:  description,
		DeviceSerial: serial,
		TargetUserID: targetID,
	}
	if err := store.activity.Append(context.Background(), entry); err != nil {
		t.Fatalf("append: %v", err)
	}
}

func TestDeviceHistory_ChronologicalOrder(t *testing.T) {
	svc, store := newTestHistoryService()
	ctx := context.Background()

	seedDevice(store, "ONT", "SN-001", "BC-ONT", domain.DeviceStatusAvailable, nil)
	appendEntry(t, store, domain.ActionDeviceAdd, "SN-001", "user_admin", "", "dodano")
	appendEntry(t, store, domain.ActionDeviceAssign, "SN-001", "user_admin", "user_jan", "przypisano")
	appendEntry(t, store, domain.ActionDeviceInstall, "SN-001", "user_jan", "", "zainstalowano")

	h, err := svc.DeviceHistory(ctx, "SN-001", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Device == nil {
		t.Fatal("expected device on history")
	}
	if h.ImportedAt == nil {
		t.Fatal("expected imported_at set for a registered device")
	}
	if h.TotalEvents != 3 {
		t.Fatalf("expected total 3, got %d", h.TotalEvents)
	}
	if len(h.Logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(h.Logs))
	}
	// Timeline reads oldest first.
	want := []domain.ActionType{domain.ActionDeviceAdd, domain.ActionDeviceAssign, domain.ActionDeviceInstall}
	for i, action := range want {
		if h.Logs[i].ActionType != action {
			t.Fatalf("expected %s at position %d, got %s", action, i, h.Logs[i].ActionType)
		}
	}
}

func TestDeviceHistory_UnknownSerialKeepsLogs(t *testing.T) {
	svc, store := newTestHistoryService()

	// A serial known only to the returns ledger still has a log trail.
	appendEntry(t, store, domain.ActionDeviceReturn, "SN-OLD-999", "user_admin", "", "zwrot")

	h, err := svc.DeviceHistory(context.Background(), "SN-OLD-999", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Device != nil {
		t.Fatal("expected no device for an unregistered serial")
	}
	if len(h.Logs) != 1 || h.TotalEvents != 1 {
		t.Fatalf("expected 1 log entry, got %d/%d", len(h.Logs), h.TotalEvents)
	}
}

func TestDeviceHistory_LimitDoesNotHideTotal(t *testing.T) {
	svc, store := newTestHistoryService()

	for i := 0; i < 5; i++ {
		appendEntry(t, store, domain.ActionDeviceScan, "SN-001", "user_admin", "", "skan")
	}

	h, err := svc.DeviceHistory(context.Background(), "SN-001", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.Logs) != 2 {
		t.Fatalf("expected 2 logs with limit, got %d", len(h.Logs))
	}
	if h.TotalEvents != 5 {
		t.Fatalf("expected total 5 regardless of limit, got %d", h.TotalEvents)
	}
}

func TestDeviceHistory_MissingSerial(t *testing.T) {
	svc, _ := newTestHistoryService()

	_, err := svc.DeviceHistory(context.Background(), "", 0)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeviceHistory_IncludesLatestInstallation(t *testing.T) {
	svc, store := newTestHistoryService()
	ctx := context.Background()

	device := seedDevice(store, "ONT", "SN-001", "BC-ONT", domain.DeviceStatusInstalled, nil)
	first := &domain.Installation{InstallationID: domain.NewID("inst"), DeviceID: device.DeviceID, UserID: "user_jan", Address: "stary adres"}
	second := &domain.Installation{InstallationID: domain.NewID("inst"), DeviceID: device.DeviceID, UserID: "user_jan", Address: "nowy adres"}
	if err := store.installations.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.installations.Create(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}

	h, err := svc.DeviceHistory(ctx, "SN-001", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Installation == nil || h.Installation.Address != "nowy adres" {
		t.Fatalf("expected latest installation, got %+v", h.Installation)
	}
}

func TestUserHistory_MatchesActorAndTarget(t *testing.T) {
	svc, store := newTestHistoryService()

	appendEntry(t, store, domain.ActionDeviceAssign, "SN-001", "user_admin", "user_jan", "przypisano")
	appendEntry(t, store, domain.ActionDeviceScan, "SN-002", "user_jan", "", "skan")
	appendEntry(t, store, domain.ActionDeviceAssign, "SN-003", "user_admin", "user_piotr", "przypisano")

	entries, err := svc.UserHistory(context.Background(), "user_jan", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for user_jan, got %d", len(entries))
	}
}

func TestUserHistory_MissingID(t *testing.T) {
	svc, _ := newTestHistoryService()

	_, err := svc.UserHistory(context.Background(), "", 0)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestInstallationStats(t *testing.T) {
	svc, store := newTestHistoryService()
	ctx := context.Background()

	for i, kind := range []string{domain.OrderKindInstallation, domain.OrderKindInstallation, domain.OrderKindBreakdown} {
		inst := &domain.Installation{
			InstallationID: domain.NewID("inst"),
			DeviceID:       domain.NewID("dev"),
			UserID:         "user_jan",
			OrderKind:      kind,
		}
		if err := store.installations.Create(ctx, inst); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	stats, err := svc.InstallationStats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("expected 3 total, got %d", stats.Total)
	}
	if stats.ByKind[domain.OrderKindInstallation] != 2 || stats.ByKind[domain.OrderKindBreakdown] != 1 {
		t.Fatalf("unexpected kind breakdown: %v", stats.ByKind)
	}
	if stats.ByUser["user_jan"] != 3 {
		t.Fatalf("unexpected user breakdown: %v", stats.ByUser)
	}
}
