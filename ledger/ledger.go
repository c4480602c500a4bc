/*
Package ledger is the orchestrator that owns all leave state.

PURPOSE:
  The Ledger is the single owner of the five collections - users, requests,
  departments, permissions, settings - and the only component allowed to
  mutate them. Every mutation goes through a command method that:

  1. Validates input (quota policy, uniqueness, referential checks)
  2. Applies the change to in-memory state and the local snapshot cache
  3. Attempts the remote store write, best-effort, with a bounded timeout
  4. Fires a webhook notification where the contract asks for one

PERSISTENCE POLICY (local-first, uniform):
  In-memory state is authoritative. The cache is written through
  synchronously on every mutation; the remote write is attempted after and
  its failure is logged as a warning, never rolled back, never surfaced to
  the caller. The system stays usable when the remote store is down - the
  worst outcome is stale remote data until it becomes reachable again.

CONCURRENCY:
  One sync.Mutex guards all five collections together. SubmitRequest's
  quota check (read used-days, compare to limit) and its write (prepend
  request) must be atomic with respect to other submissions for the same
  user/type/year, so commands run to completion - including their store
  round-trip - before the next command observes state. Read accessors
  return copies.

SEE ALSO:
  - leave: The pure quota policy the commands enforce
  - store: The RemoteStore and Cache contracts
  - commands.go: Request lifecycle commands
  - admin.go: User/department/permission/settings commands
*/
package ledger

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/zenhr/leave-engine/leave"
	"github.com/zenhr/leave-engine/store"
)

// Notifier receives fire-and-forget copies of leave events. Implementations
// must swallow their own failures; the ledger never checks the outcome.
type Notifier interface {
	LeaveEvent(r leave.Request)
}

// DefaultStoreTimeout bounds every remote store call so a hung network
// round-trip cannot block the ledger indefinitely.
const DefaultStoreTimeout = 5 * time.Second

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	mu sync.Mutex

	users       []leave.User
	requests    []leave.Request // newest first
	departments []string
	permissions leave.RolePermissions
	settings    leave.Settings

	currentUserID string

	remote       store.RemoteStore // may be nil (offline mode)
	cache        store.Cache       // may be nil (tests)
	notifier     Notifier          // may be nil (no webhook configured)
	storeTimeout time.Duration
	now          func() time.Time
}

// Options configures a Ledger. Remote, Cache and Notifier are all optional;
// a ledger with none of them is a pure in-memory engine.
type Options struct {
	Remote       store.RemoteStore
	Cache        store.Cache
	Notifier     Notifier
	StoreTimeout time.Duration
	Now          func() time.Time // test hook; defaults to time.Now
}

func New(opts Options) *Ledger {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ledger{
		permissions:  DefaultPermissions(),
		settings:     DefaultSettings(),
		departments:  append([]string{}, DefaultDepartments()...),
		remote:       opts.Remote,
		cache:        opts.Cache,
		notifier:     opts.Notifier,
		storeTimeout: opts.StoreTimeout,
		now:          opts.Now,
	}
}

// =============================================================================
// STARTUP LOAD
// =============================================================================

// Load seeds the ledger. The remote store wins when it is reachable and has
// data; otherwise the local cache; otherwise built-in defaults. This is the
// only time the ledger reads from the remote store.
func (l *Ledger) Load(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	loaded := l.loadFromRemote(ctx)
	if !loaded {
		loaded = l.loadFromCache(ctx)
	}
	if !loaded {
		l.seedDefaults()
		log.Printf("ledger: no remote or cached data, seeded defaults (%d users)", len(l.users))
	}
}

func (l *Ledger) loadFromRemote(ctx context.Context) bool {
	if l.remote == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()

	users, requests, err := l.remote.FetchAll(ctx)
	if err != nil {
		log.Printf("ledger: remote store unavailable, falling back to cache: %v", err)
		return false
	}
	if len(users) == 0 && len(requests) == 0 {
		return false
	}
	l.users = users
	l.requests = requests

	if deps, err := l.remote.FetchDepartments(ctx); err == nil && len(deps) > 0 {
		l.departments = deps
	}
	if perms, ok, err := l.remote.FetchPermissions(ctx); err == nil && ok {
		l.permissions = perms
	}
	if settings, ok, err := l.remote.FetchSettings(ctx); err == nil && ok {
		l.settings = settings
	}

	// Refresh the cache so the next offline start sees this data.
	l.saveAllLocked()
	return true
}

func (l *Ledger) loadFromCache(ctx context.Context) bool {
	if l.cache == nil {
		return false
	}
	state, err := l.cache.LoadState(ctx)
	if err != nil {
		log.Printf("ledger: cache load failed: %v", err)
		return false
	}
	if state == nil || (len(state.Users) == 0 && len(state.Requests) == 0) {
		return false
	}
	l.users = state.Users
	l.requests = state.Requests
	if len(state.Departments) > 0 {
		l.departments = state.Departments
	}
	if state.Permissions != nil {
		l.permissions = state.Permissions
	}
	if state.HasSettings {
		l.settings = state.Settings
	}
	return true
}

// =============================================================================
// READ ACCESSORS - Always return copies
// =============================================================================

func (l *Ledger) Users() []leave.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]leave.User, len(l.users))
	copy(out, l.users)
	return out
}

func (l *Ledger) Requests() []leave.Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]leave.Request, len(l.requests))
	copy(out, l.requests)
	return out
}

func (l *Ledger) Departments() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.departments))
	copy(out, l.departments)
	return out
}

func (l *Ledger) Permissions() leave.RolePermissions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.permissions.Clone()
}

func (l *Ledger) Settings() leave.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// CurrentUser returns the logged-in user, if any.
func (l *Ledger) CurrentUser() (leave.User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.findUserLocked(l.currentUserID)
	if u == nil {
		return leave.User{}, false
	}
	return *u, true
}

// Can reports whether the logged-in user's role grants the feature.
func (l *Ledger) Can(feature leave.Feature) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.findUserLocked(l.currentUserID)
	if u == nil {
		return false
	}
	return l.permissions.Allows(u.Role, feature)
}

// =============================================================================
// AUTH - Credential matching only; sessions are the caller's concern
// =============================================================================

// Login matches username and password against the user collection and, on
// success, records the user as current.
func (l *Ledger) Login(username, password string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, u := range l.users {
		if u.Username != "" && u.Username == username && u.Password == password {
			l.currentUserID = u.ID
			return true
		}
	}
	return false
}

func (l *Ledger) Logout() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currentUserID = ""
}

// =============================================================================
// INTERNAL HELPERS (callers hold l.mu)
// =============================================================================

func (l *Ledger) findUserLocked(id string) *leave.User {
	if id == "" {
		return nil
	}
	for i := range l.users {
		if l.users[i].ID == id {
			return &l.users[i]
		}
	}
	return nil
}

func (l *Ledger) findRequestLocked(id string) int {
	for i := range l.requests {
		if l.requests[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) hasDepartmentLocked(name string) bool {
	for _, d := range l.departments {
		if d == name {
			return true
		}
	}
	return false
}

// remoteWrite attempts a remote store write, best-effort. Failure is logged
// and otherwise ignored: local state has already advanced and stays
// authoritative.
func (l *Ledger) remoteWrite(op string, fn func(ctx context.Context) error) {
	if l.remote == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.storeTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("ledger: %s: remote store write failed, keeping local state: %v", op, err)
	}
}

// cacheWrite persists a collection snapshot to the local cache. Also
// best-effort; an unwritable cache must not block commands.
func (l *Ledger) cacheWrite(op string, fn func(ctx context.Context) error) {
	if l.cache == nil {
		return
	}
	if err := fn(context.Background()); err != nil {
		log.Printf("ledger: %s: cache write failed: %v", op, err)
	}
}

func (l *Ledger) saveUsersLocked() {
	users := make([]leave.User, len(l.users))
	copy(users, l.users)
	l.cacheWrite("save users", func(ctx context.Context) error {
		return l.cache.SaveUsers(ctx, users)
	})
}

func (l *Ledger) saveRequestsLocked() {
	requests := make([]leave.Request, len(l.requests))
	copy(requests, l.requests)
	l.cacheWrite("save requests", func(ctx context.Context) error {
		return l.cache.SaveRequests(ctx, requests)
	})
}

func (l *Ledger) saveDepartmentsLocked() {
	departments := make([]string, len(l.departments))
	copy(departments, l.departments)
	l.cacheWrite("save departments", func(ctx context.Context) error {
		return l.cache.SaveDepartments(ctx, departments)
	})
}

func (l *Ledger) savePermissionsLocked() {
	perms := l.permissions.Clone()
	l.cacheWrite("save permissions", func(ctx context.Context) error {
		return l.cache.SavePermissions(ctx, perms)
	})
}

func (l *Ledger) saveSettingsLocked() {
	settings := l.settings
	l.cacheWrite("save settings", func(ctx context.Context) error {
		return l.cache.SaveSettings(ctx, settings)
	})
}

func (l *Ledger) saveAllLocked() {
	l.saveUsersLocked()
	l.saveRequestsLocked()
	l.saveDepartmentsLocked()
	l.savePermissionsLocked()
	l.saveSettingsLocked()
}

func (l *Ledger) notify(r leave.Request) {
	if l.notifier == nil {
		return
	}
	// Fire-and-forget: the notifier gets a copy and touches no ledger state.
	go l.notifier.LeaveEvent(r)
}
