/*
Package store defines the persistence contracts consumed by the ledger.

PURPOSE:
  Two very different stores back the ledger, behind two interfaces:

  RemoteStore: The network-backed system of record. Every call is fallible
               and may be slow or unreachable - the ledger treats each one
               as best-effort and never lets a failure roll back local
               state.
  Cache:       The local durable snapshot the ledger writes through to on
               every mutation, and seeds itself from when the remote store
               is empty or down.

  The ledger reads from the remote store at startup only; there is no live
  subscription. After startup, writes flow remote-ward best-effort while
  the in-memory state stays authoritative.

IMPLEMENTATIONS:
  - store/rest:   PostgREST-style JSON-over-HTTP remote store
  - store/memory: In-memory remote store for tests and offline dev
  - store/sqlite: SQLite snapshot cache

SEE ALSO:
  - ledger: The sole consumer of both interfaces
*/
package store

import (
	"context"

	"github.com/zenhr/leave-engine/leave"
)

// RemoteStore is the contract of the external system of record. All calls
// take a context so the ledger can bound them with a timeout; a timeout is
// treated the same as any other store failure.
type RemoteStore interface {
	// FetchAll returns every user and leave request. Requests are expected
	// newest-first (by creation time).
	FetchAll(ctx context.Context) ([]leave.User, []leave.Request, error)

	// FetchDepartments returns all department names.
	FetchDepartments(ctx context.Context) ([]string, error)

	// FetchPermissions returns the role permission map, or ok=false if the
	// store has none recorded.
	FetchPermissions(ctx context.Context) (leave.RolePermissions, bool, error)

	// FetchSettings returns the global quotas, or ok=false if absent.
	FetchSettings(ctx context.Context) (leave.Settings, bool, error)

	InsertUser(ctx context.Context, u leave.User) error
	UpdateUser(ctx context.Context, u leave.User) error
	DeleteUser(ctx context.Context, id string) error

	InsertRequest(ctx context.Context, r leave.Request) error
	UpdateRequestStatus(ctx context.Context, id string, status leave.Status) error
	DeleteRequest(ctx context.Context, id string) error

	InsertDepartment(ctx context.Context, name string) error
	RenameDepartment(ctx context.Context, oldName, newName string) error
	DeleteDepartment(ctx context.Context, name string) error

	UpsertPermission(ctx context.Context, role leave.Role, feature leave.Feature, allowed bool) error
	UpsertSettings(ctx context.Context, s leave.Settings) error
}

// State is a full snapshot of the five collections, as loaded from or saved
// to the cache.
type State struct {
	Users       []leave.User
	Requests    []leave.Request
	Departments []string
	Permissions leave.RolePermissions
	Settings    leave.Settings
	HasSettings bool
}

// Cache is the local durable mirror. Save methods replace the whole
// collection: the cache holds snapshots, not deltas.
type Cache interface {
	LoadState(ctx context.Context) (*State, error)

	SaveUsers(ctx context.Context, users []leave.User) error
	SaveRequests(ctx context.Context, requests []leave.Request) error
	SaveDepartments(ctx context.Context, departments []string) error
	SavePermissions(ctx context.Context, permissions leave.RolePermissions) error
	SaveSettings(ctx context.Context, settings leave.Settings) error
}
