package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mkowalczyk/magazyn/internal/domain"
)

// --- Mock Device Repository ---

type mockDeviceRepo struct {
	mu      sync.RWMutex
	devices map[string]*domain.Device
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[string]*domain.Device)}
}

func (m *mockDeviceRepo) Create(_ context.Context, d *domain.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.devices {
		if existing.Serial == d.Serial {
			return domain.ErrDuplicateSerial
		}
	}
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now
	cp := *d
	m.devices[d.DeviceID] = &cp
	return nil
}

func (m *mockDeviceRepo) GetByID(_ context.Context, id string) (*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.devices[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockDeviceRepo) GetBySerial(_ context.Context, serial string) (*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.devices {
		if d.Serial == serial {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDeviceRepo) GetByCode(_ context.Context, code string) (*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.devices {
		if d.Barcode == code || d.QRCode == code || d.Serial == code {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDeviceRepo) List(_ context.Context, f domain.DeviceFilter) ([]*domain.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Device
	for _, d := range m.devices {
		if f.Status != nil && d.Status != *f.Status {
			continue
		}
		if f.OwnerID != nil && (d.OwnerID == nil || *d.OwnerID != *f.OwnerID) {
			continue
		}
		cp := *d
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockDeviceRepo) Transition(_ context.Context, id string, expected domain.DeviceStatus, change domain.StateChange) (*domain.Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if d.Status != expected {
		return nil, domain.ErrConflict
	}
	d.Status = change.Status
	d.OwnerID = change.OwnerID
	if change.LastOwnerID != nil {
		d.LastOwnerID = change.LastOwnerID
	}
	d.Installation = change.Installation
	d.UpdatedAt = time.Now()
	cp := *d
	return &cp, nil
}

// --- Mock Return Repository ---

type mockReturnRepo struct {
	mu      sync.RWMutex
	returns map[string]*domain.DeviceReturn
	order   []string
}

func newMockReturnRepo() *mockReturnRepo {
	return &mockReturnRepo{returns: make(map[string]*domain.DeviceReturn)}
}

func (m *mockReturnRepo) Create(_ context.Context, r *domain.DeviceReturn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ScannedAt = time.Now()
	cp := *r
	m.returns[r.ReturnID] = &cp
	m.order = append(m.order, r.ReturnID)
	return nil
}

func (m *mockReturnRepo) GetByID(_ context.Context, id string) (*domain.DeviceReturn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.returns[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockReturnRepo) List(_ context.Context, f domain.ReturnFilter) ([]*domain.DeviceReturn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.DeviceReturn
	for _, id := range m.order {
		r := m.returns[id]
		if f.Returned != nil && r.ReturnedToWarehouse != *f.Returned {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockReturnRepo) Update(_ context.Context, id, deviceType, condition string) (*domain.DeviceReturn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.returns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.ReturnedToWarehouse {
		return nil, domain.ErrReturnFinalized
	}
	r.DeviceType = deviceType
	r.DeviceCondition = condition
	cp := *r
	return &cp, nil
}

func (m *mockReturnRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.returns[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.ReturnedToWarehouse {
		return domain.ErrReturnFinalized
	}
	delete(m.returns, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockReturnRepo) MarkAllReturned(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	flipped := 0
	for _, r := range m.returns {
		if !r.ReturnedToWarehouse {
			r.ReturnedToWarehouse = true
			flipped++
		}
	}
	return flipped, nil
}

// --- Mock Installation Repository ---

type mockInstallationRepo struct {
	mu            sync.RWMutex
	installations []*domain.Installation
}

func newMockInstallationRepo() *mockInstallationRepo {
	return &mockInstallationRepo{}
}

func (m *mockInstallationRepo) Create(_ context.Context, inst *domain.Installation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst.InstalledAt = time.Now()
	cp := *inst
	m.installations = append(m.installations, &cp)
	return nil
}

func (m *mockInstallationRepo) LatestForDevice(_ context.Context, deviceID string) (*domain.Installation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.installations) - 1; i >= 0; i-- {
		if m.installations[i].DeviceID == deviceID {
			cp := *m.installations[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockInstallationRepo) List(_ context.Context, f domain.InstallationFilter) ([]*domain.Installation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Installation
	for _, inst := range m.installations {
		if f.UserID != nil && inst.UserID != *f.UserID {
			continue
		}
		if f.OrderKind != nil && inst.OrderKind != *f.OrderKind {
			continue
		}
		if f.From != nil && inst.InstalledAt.Before(*f.From) {
			continue
		}
		if f.To != nil && inst.InstalledAt.After(*f.To) {
			continue
		}
		cp := *inst
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockInstallationRepo) Stats(_ context.Context) (*domain.InstallationStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &domain.InstallationStats{
		Total:  len(m.installations),
		ByKind: map[string]int{},
		ByUser: map[string]int{},
	}
	for _, inst := range m.installations {
		stats.ByKind[inst.OrderKind]++
		stats.ByUser[inst.UserID]++
	}
	return stats, nil
}

// --- Mock Activity Repository ---

type mockActivityRepo struct {
	mu      sync.RWMutex
	entries []*domain.ActivityEntry

	// appendErr, when set, makes the next Append fail. Used to exercise
	// the rollback path of transition+append units of work.
	appendErr error
}

func newMockActivityRepo() *mockActivityRepo {
	return &mockActivityRepo{}
}

func (m *mockActivityRepo) Append(_ context.Context, e *domain.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	e.Timestamp = time.Now()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockActivityRepo) List(_ context.Context, f domain.ActivityFilter) ([]*domain.ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit := normalizeLimit(f.Limit)
	var result []*domain.ActivityEntry
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		e := m.entries[i]
		if f.ActionType != nil && e.ActionType != *f.ActionType {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockActivityRepo) ListByDevice(_ context.Context, serial string, limit int) ([]*domain.ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit = normalizeLimit(limit)
	var result []*domain.ActivityEntry
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if m.entries[i].DeviceSerial != serial {
			continue
		}
		cp := *m.entries[i]
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockActivityRepo) ListByUser(_ context.Context, userID string, limit int) ([]*domain.ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit = normalizeLimit(limit)
	var result []*domain.ActivityEntry
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		e := m.entries[i]
		if e.ActorID != userID && e.TargetUserID != userID {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockActivityRepo) CountByDevice(_ context.Context, serial string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.entries {
		if e.DeviceSerial == serial {
			count++
		}
	}
	return count, nil
}

func (m *mockActivityRepo) byAction(action domain.ActionType) []*domain.ActivityEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.ActivityEntry
	for _, e := range m.entries {
		if e.ActionType == action {
			result = append(result, e)
		}
	}
	return result
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 500 {
		return 500
	}
	return limit
}

// --- Mock User Repository ---

type mockUserRepo struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrConflict
		}
	}
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) List(_ context.Context, role *domain.Role) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.User
	for _, u := range m.users {
		if role != nil && u.Role != *role {
			continue
		}
		cp := *u
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockUserRepo) UpdateRole(_ context.Context, id string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Role = role
	return nil
}

// --- Mock Store ---

// mockStore implements domain.UnitOfWork and domain.RepoSet over the mock
// repositories. WithinTx snapshots mutable state before fn and restores it
// when fn fails, mirroring transaction rollback.
type mockStore struct {
	txMu          sync.Mutex
	devices       *mockDeviceRepo
	returns       *mockReturnRepo
	installations *mockInstallationRepo
	activity      *mockActivityRepo

	// beforeTx, when set, runs after a service's preconditions but before
	// its transaction body. Lets tests lose the CAS race on purpose.
	beforeTx func()
}

func newMockStore() *mockStore {
	return &mockStore{
		devices:       newMockDeviceRepo(),
		returns:       newMockReturnRepo(),
		installations: newMockInstallationRepo(),
		activity:      newMockActivityRepo(),
	}
}

func (s *mockStore) Devices() domain.DeviceRepository             { return s.devices }
func (s *mockStore) Returns() domain.ReturnRepository             { return s.returns }
func (s *mockStore) Installations() domain.InstallationRepository { return s.installations }
func (s *mockStore) Activity() domain.ActivityRepository          { return s.activity }

func (s *mockStore) WithinTx(_ context.Context, fn func(tx domain.RepoSet) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if s.beforeTx != nil {
		s.beforeTx()
	}

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	devices       map[string]domain.Device
	returns       map[string]domain.DeviceReturn
	returnOrder   []string
	installations []domain.Installation
	entries       []domain.ActivityEntry
}

func (s *mockStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		devices: make(map[string]domain.Device, len(s.devices.devices)),
		returns: make(map[string]domain.DeviceReturn, len(s.returns.returns)),
	}
	for id, d := range s.devices.devices {
		snap.devices[id] = *d
	}
	for id, r := range s.returns.returns {
		snap.returns[id] = *r
	}
	snap.returnOrder = append(snap.returnOrder, s.returns.order...)
	for _, inst := range s.installations.installations {
		snap.installations = append(snap.installations, *inst)
	}
	for _, e := range s.activity.entries {
		snap.entries = append(snap.entries, *e)
	}
	return snap
}

func (s *mockStore) restore(snap storeSnapshot) {
	s.devices.devices = make(map[string]*domain.Device, len(snap.devices))
	for id, d := range snap.devices {
		cp := d
		s.devices.devices[id] = &cp
	}
	s.returns.returns = make(map[string]*domain.DeviceReturn, len(snap.returns))
	for id, r := range snap.returns {
		cp := r
		s.returns.returns[id] = &cp
	}
	s.returns.order = snap.returnOrder
	s.installations.installations = nil
	for _, inst := range snap.installations {
		cp := inst
		s.installations.installations = append(s.installations.installations, &cp)
	}
	s.activity.entries = nil
	for _, e := range snap.entries {
		cp := e
		s.activity.entries = append(s.activity.entries, &cp)
	}
}

// --- Seed helpers ---

var testAdmin = domain.Principal{UserID: "user_admin", Name: "Administrator", Role: domain.RoleAdmin}

func seedWorker(users *mockUserRepo, name string) *domain.User {
	u := &domain.User{
		UserID: domain.NewID("user"),
		Email:  fmt.Sprintf("%s@magazyn.local", strings.ToLower(name)),
		Name:   name,
		Role:   domain.RoleWorker,
	}
	if err := users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func seedDevice(store *mockStore, name, serial, barcode string, status domain.DeviceStatus, ownerID *string) *domain.Device {
	d := &domain.Device{
		DeviceID: domain.NewID("dev"),
		Name:     name,
		Serial:   serial,
		Barcode:  barcode,
		Status:   status,
		OwnerID:  ownerID,
	}
	if err := store.devices.Create(context.Background(), d); err != nil {
		panic(err)
	}
	return d
}
