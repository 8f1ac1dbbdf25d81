package domain

import (
	"context"
	"time"
)

// ActionType classifies an activity log entry.
type ActionType string

const (
	ActionLogin          ActionType = "login"
	ActionLogout         ActionType = "logout"
	ActionDeviceAdd      ActionType = "device_add"
	ActionDeviceImport   ActionType = "device_import"
	ActionDeviceScan     ActionType = "device_scan"
	ActionDeviceAssign   ActionType = "device_assign"
	ActionDeviceTransfer ActionType = "device_transfer"
	ActionDeviceInstall  ActionType = "device_install"
	ActionDeviceRestore  ActionType = "device_restore"
	ActionDeviceReturn   ActionType = "device_return"
	ActionDeviceDamage   ActionType = "device_damage"

	// Reserved for the task planner collaborator; never emitted here.
	ActionTaskCreate   ActionType = "task_create"
	ActionTaskComplete ActionType = "task_complete"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionLogin, ActionLogout, ActionDeviceAdd, ActionDeviceImport,
		ActionDeviceScan, ActionDeviceAssign, ActionDeviceTransfer,
		ActionDeviceInstall, ActionDeviceRestore, ActionDeviceReturn,
		ActionDeviceDamage, ActionTaskCreate, ActionTaskComplete:
		return true
	}
	return false
}

// ActivityEntry is one immutable record of the append-only activity log.
// Corrections are modeled as new entries, never edits.
type ActivityEntry struct {
	LogID          string                 `json:"log_id"`
	Timestamp      time.Time              `json:"timestamp"`
	ActorID        string                 `json:"actor_id"`
	ActorName      string                 `json:"actor_name"`
	ActorRole      string                 `json:"actor_role"`
	ActionType     ActionType             `json:"action_type"`
	Description    string                 `json:"description"`
	DeviceSerial   string                 `json:"device_serial,omitempty"`
	DeviceID       string                 `json:"device_id,omitempty"`
	TaskID         string                 `json:"task_id,omitempty"`
	TargetUserID   string                 `json:"target_user_id,omitempty"`
	TargetUserName string                 `json:"target_user_name,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty"`
	IPAddress      string                 `json:"ip_address,omitempty"`
}

type ActivityFilter struct {
	ActionType *ActionType
	Limit      int
}

type ActivityRepository interface {
	// Append stores the entry and assigns LogID and Timestamp. Entries are
	// never updated or deleted; a storage failure here is fatal for the
	// surrounding unit of work.
	Append(ctx context.Context, e *ActivityEntry) error
	List(ctx context.Context, f ActivityFilter) ([]*ActivityEntry, error)
	// ListByDevice and ListByUser return entries most-recent-first; ties on
	// timestamp are broken by insertion order so the ordering is stable.
	ListByDevice(ctx context.Context, serial string, limit int) ([]*ActivityEntry, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*ActivityEntry, error)
	CountByDevice(ctx context.Context, serial string) (int, error)
}
