/*
Package sqlite provides the SQLite-backed local snapshot cache.

PURPOSE:
  Implements store.Cache. This is the degraded-mode safety net: every
  mutating ledger command writes the affected collection here, and when the
  remote store is empty or unreachable at startup the ledger seeds itself
  from this file instead.

SNAPSHOT SEMANTICS:
  Save methods replace the whole collection inside a transaction (DELETE
  then INSERT). The cache mirrors in-memory state; it does not track
  deltas, so there is nothing to merge and no partial snapshots.

KEY TABLES:
  users:          Identity + running used-day counters
  leave_requests: One row per request, snapshot columns included
  departments:    Plain name list
  permissions:    One row per (role, feature) grant
  settings:       Single-row global quotas

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so cache writes do not
  block concurrent readers and crash recovery is cheap.

USAGE:
  cache, err := sqlite.New("./data/leave.db")   // ":memory:" for tests
  if err != nil {
      log.Fatal(err)
  }
  defer cache.Close()

SEE ALSO:
  - store/store.go: The Cache contract
  - ledger: Write-through usage
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zenhr/leave-engine/leave"
	"github.com/zenhr/leave-engine/store"
)

// Cache implements store.Cache using SQLite.
type Cache struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Cache = (*Cache)(nil)

// New creates a SQLite cache at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT,
		password TEXT,
		name TEXT NOT NULL,
		department TEXT,
		role TEXT NOT NULL,
		annual_leave_used INTEGER NOT NULL DEFAULT 0,
		public_holiday_used INTEGER NOT NULL DEFAULT 0,
		avatar TEXT,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		department TEXT,
		type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_user
		ON leave_requests(user_id);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	CREATE TABLE IF NOT EXISTS departments (
		name TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS permissions (
		role TEXT NOT NULL,
		feature TEXT NOT NULL,
		allowed INTEGER NOT NULL,
		PRIMARY KEY (role, feature)
	);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		annual_leave_limit INTEGER NOT NULL,
		public_holiday_count INTEGER NOT NULL
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// replaceAll runs fn inside a transaction that first clears the table.
func (c *Cache) replaceAll(ctx context.Context, table string, fn func(tx *sql.Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		tx.Rollback()
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// =============================================================================
// SAVE - Replace whole collections
// =============================================================================

func (c *Cache) SaveUsers(ctx context.Context, users []leave.User) error {
	return c.replaceAll(ctx, "users", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO users (id, username, password, name, department, role,
				annual_leave_used, public_holiday_used, avatar, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, u := range users {
			if _, err := stmt.ExecContext(ctx, u.ID, u.Username, u.Password, u.Name,
				u.Department, string(u.Role), u.AnnualLeaveUsed, u.PublicHolidayUsed,
				u.Avatar, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cache) SaveRequests(ctx context.Context, requests []leave.Request) error {
	return c.replaceAll(ctx, "leave_requests", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO leave_requests (id, user_id, user_name, department, type,
				start_date, end_date, days_count, status, reason, created_at, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, r := range requests {
			if _, err := stmt.ExecContext(ctx, r.ID, r.UserID, r.UserName, r.Department,
				string(r.Type), r.StartDate.String(), r.EndDate.String(), r.DaysCount,
				string(r.Status), r.Reason, r.CreatedAt.UTC().Format(time.RFC3339), i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cache) SaveDepartments(ctx context.Context, departments []string) error {
	return c.replaceAll(ctx, "departments", func(tx *sql.Tx) error {
		for i, name := range departments {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO departments (name, position) VALUES (?, ?)", name, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *Cache) SavePermissions(ctx context.Context, permissions leave.RolePermissions) error {
	return c.replaceAll(ctx, "permissions", func(tx *sql.Tx) error {
		for role, grants := range permissions {
			for feature, allowed := range grants {
				v := 0
				if allowed {
					v = 1
				}
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO permissions (role, feature, allowed) VALUES (?, ?, ?)",
					string(role), string(feature), v); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (c *Cache) SaveSettings(ctx context.Context, settings leave.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO settings (id, annual_leave_limit, public_holiday_count)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			annual_leave_limit = excluded.annual_leave_limit,
			public_holiday_count = excluded.public_holiday_count`,
		settings.AnnualLeaveLimit, settings.PublicHolidayCount)
	return err
}

// =============================================================================
// LOAD - Full snapshot
// =============================================================================

func (c *Cache) LoadState(ctx context.Context) (*store.State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state := &store.State{}

	users, err := c.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	state.Users = users

	requests, err := c.loadRequests(ctx)
	if err != nil {
		return nil, err
	}
	state.Requests = requests

	rows, err := c.db.QueryContext(ctx, "SELECT name FROM departments ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		state.Departments = append(state.Departments, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	perms, err := c.loadPermissions(ctx)
	if err != nil {
		return nil, err
	}
	state.Permissions = perms

	var annual, public int
	err = c.db.QueryRowContext(ctx,
		"SELECT annual_leave_limit, public_holiday_count FROM settings WHERE id = 1").
		Scan(&annual, &public)
	switch {
	case err == sql.ErrNoRows:
		// No settings cached yet; the ledger keeps its defaults.
	case err != nil:
		return nil, err
	default:
		state.Settings = leave.Settings{AnnualLeaveLimit: annual, PublicHolidayCount: public}
		state.HasSettings = true
	}

	return state, nil
}

func (c *Cache) loadUsers(ctx context.Context) ([]leave.User, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, username, password, name, department, role,
			annual_leave_used, public_holiday_used, avatar
		FROM users ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []leave.User
	for rows.Next() {
		var u leave.User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.Name, &u.Department,
			&role, &u.AnnualLeaveUsed, &u.PublicHolidayUsed, &u.Avatar); err != nil {
			return nil, err
		}
		u.Role = leave.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (c *Cache) loadRequests(ctx context.Context) ([]leave.Request, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, user_id, user_name, department, type, start_date, end_date,
			days_count, status, reason, created_at
		FROM leave_requests ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		var r leave.Request
		var typ, status, startDate, endDate, createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserName, &r.Department, &typ,
			&startDate, &endDate, &r.DaysCount, &status, &r.Reason, &createdAt); err != nil {
			return nil, err
		}
		r.Type = leave.Type(typ)
		r.Status = leave.Status(status)
		if r.StartDate, err = leave.ParseDate(startDate); err != nil {
			return nil, fmt.Errorf("corrupt start_date for request %s: %w", r.ID, err)
		}
		if r.EndDate, err = leave.ParseDate(endDate); err != nil {
			return nil, fmt.Errorf("corrupt end_date for request %s: %w", r.ID, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("corrupt created_at for request %s: %w", r.ID, err)
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (c *Cache) loadPermissions(ctx context.Context) (leave.RolePermissions, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT role, feature, allowed FROM permissions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms leave.RolePermissions
	for rows.Next() {
		var role, feature string
		var allowed int
		if err := rows.Scan(&role, &feature, &allowed); err != nil {
			return nil, err
		}
		if perms == nil {
			perms = leave.RolePermissions{}
		}
		if perms[leave.Role(role)] == nil {
			perms[leave.Role(role)] = map[leave.Feature]bool{}
		}
		perms[leave.Role(role)][leave.Feature(feature)] = allowed != 0
	}
	return perms, rows.Err()
}
