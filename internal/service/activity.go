package service

import (
	"fmt"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// newEntry seeds an activity log entry with the acting principal. LogID is
// assigned here; the storage layer assigns the timestamp so ordering follows
// commit order, not client clocks.
func newEntry(actor domain.Principal, action domain.ActionType, description string) *domain.ActivityEntry {
	return &domain.ActivityEntry{
		LogID:       domain.NewID("log"),
		ActorID:     actor.UserID,
		ActorName:   actor.Name,
		ActorRole:   string(actor.Role),
		ActionType:  action,
		Description: description,
	}
}

func describeAssign(d *domain.Device, worker *domain.User) string {
	return fmt.Sprintf("Przypisano urządzenie %s (SN: %s) do %s", d.Name, d.Serial, worker.Name)
}

func describeTransfer(d *domain.Device, from, to *domain.User) string {
	return fmt.Sprintf("Przekazano urządzenie %s (SN: %s) od %s do %s", d.Name, d.Serial, from.Name, to.Name)
}

func describeInstall(d *domain.Device, address string) string {
	return fmt.Sprintf("Zainstalowano urządzenie %s (SN: %s) pod adresem %s", d.Name, d.Serial, address)
}

func describeRestore(d *domain.Device, installer *domain.User) string {
	return fmt.Sprintf("Przywrócono urządzenie %s (SN: %s) do magazynu instalatora %s", d.Name, d.Serial, installer.Name)
}

func describeDamage(d *domain.Device) string {
	return fmt.Sprintf("Oznaczono urządzenie %s (SN: %s) jako uszkodzone", d.Name, d.Serial)
}
