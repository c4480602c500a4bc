// Package memory provides an in-memory RemoteStore for tests and offline
// development. It can be flipped into a failing mode to simulate an
// unreachable remote store.
package memory

import (
	"context"
	"sync"

	"github.com/zenhr/leave-engine/leave"
	"github.com/zenhr/leave-engine/store"
)

// =============================================================================
// MEMORY STORE - In-memory RemoteStore implementation
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	users       map[string]leave.User
	requests    []leave.Request // newest first, like the remote store returns them
	departments []string
	permissions leave.RolePermissions
	settings    *leave.Settings

	// failWith, when set, makes every call fail. Tests use this to simulate
	// an unreachable store.
	failWith error
}

var _ store.RemoteStore = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		users: make(map[string]leave.User),
	}
}

// SetErr makes every subsequent call fail with err. Pass nil to recover.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *Memory) check() error {
	return m.failWith
}

// =============================================================================
// FETCH OPERATIONS
// =============================================================================

func (m *Memory) FetchAll(_ context.Context) ([]leave.User, []leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return nil, nil, err
	}

	users := make([]leave.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	requests := make([]leave.Request, len(m.requests))
	copy(requests, m.requests)
	return users, requests, nil
}

func (m *Memory) FetchDepartments(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	out := make([]string, len(m.departments))
	copy(out, m.departments)
	return out, nil
}

func (m *Memory) FetchPermissions(_ context.Context) (leave.RolePermissions, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return nil, false, err
	}
	if m.permissions == nil {
		return nil, false, nil
	}
	return m.permissions.Clone(), true, nil
}

func (m *Memory) FetchSettings(_ context.Context) (leave.Settings, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(); err != nil {
		return leave.Settings{}, false, err
	}
	if m.settings == nil {
		return leave.Settings{}, false, nil
	}
	return *m.settings, true, nil
}

// =============================================================================
// USER OPERATIONS
// =============================================================================

func (m *Memory) InsertUser(_ context.Context, u leave.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, u leave.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	delete(m.users, id)
	return nil
}

// =============================================================================
// REQUEST OPERATIONS
// =============================================================================

func (m *Memory) InsertRequest(_ context.Context, r leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	// Upsert on id, newest first on insert
	for i := range m.requests {
		if m.requests[i].ID == r.ID {
			m.requests[i] = r
			return nil
		}
	}
	m.requests = append([]leave.Request{r}, m.requests...)
	return nil
}

func (m *Memory) UpdateRequestStatus(_ context.Context, id string, status leave.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	for i := range m.requests {
		if m.requests[i].ID == id {
			m.requests[i].Status = status
			return nil
		}
	}
	return nil
}

func (m *Memory) DeleteRequest(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	for i := range m.requests {
		if m.requests[i].ID == id {
			m.requests = append(m.requests[:i], m.requests[i+1:]...)
			return nil
		}
	}
	return nil
}

// =============================================================================
// DEPARTMENT OPERATIONS
// =============================================================================

func (m *Memory) InsertDepartment(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.departments = append(m.departments, name)
	return nil
}

func (m *Memory) RenameDepartment(_ context.Context, oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	for i, d := range m.departments {
		if d == oldName {
			m.departments[i] = newName
		}
	}
	for id, u := range m.users {
		if u.Department == oldName {
			u.Department = newName
			m.users[id] = u
		}
	}
	for i := range m.requests {
		if m.requests[i].Department == oldName {
			m.requests[i].Department = newName
		}
	}
	return nil
}

func (m *Memory) DeleteDepartment(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	for i, d := range m.departments {
		if d == name {
			m.departments = append(m.departments[:i], m.departments[i+1:]...)
			return nil
		}
	}
	return nil
}

// =============================================================================
// PERMISSION AND SETTINGS OPERATIONS
// =============================================================================

func (m *Memory) UpsertPermission(_ context.Context, role leave.Role, feature leave.Feature, allowed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	if m.permissions == nil {
		m.permissions = leave.RolePermissions{}
	}
	if m.permissions[role] == nil {
		m.permissions[role] = map[leave.Feature]bool{}
	}
	m.permissions[role][feature] = allowed
	return nil
}

func (m *Memory) UpsertSettings(_ context.Context, s leave.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.settings = &s
	return nil
}

// =============================================================================
// TEST SEEDING HELPERS
// =============================================================================

// Seed replaces the store contents wholesale. Tests use this to stage a
// remote store with existing data before the ledger loads.
func (m *Memory) Seed(users []leave.User, requests []leave.Request, departments []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = make(map[string]leave.User, len(users))
	for _, u := range users {
		m.users[u.ID] = u
	}
	m.requests = append([]leave.Request{}, requests...)
	m.departments = append([]string{}, departments...)
}

// Requests returns a copy of the stored requests, newest first.
func (m *Memory) Requests() []leave.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]leave.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// User returns the stored user by id.
func (m *Memory) User(id string) (leave.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok
}
