package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenhr/leave-engine/leave"
	"github.com/zenhr/leave-engine/ledger"
	"github.com/zenhr/leave-engine/store/memory"
	"github.com/zenhr/leave-engine/store/sqlite"
)

func newTestCache(t *testing.T) *sqlite.Cache {
	t.Helper()
	cache, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

// =============================================================================
// STARTUP LOAD CHAIN: remote > cache > defaults
// =============================================================================

func TestLoad_RemoteWins(t *testing.T) {
	// GIVEN: A reachable remote store with data
	remote := memory.New()
	remote.Seed(seedUsers(), nil, []string{"IT", "AI"})

	l := ledger.New(ledger.Options{Remote: remote})

	// WHEN: Loading
	l.Load(context.Background())

	// THEN: Remote data is authoritative
	assert.Len(t, l.Users(), 2)
	assert.ElementsMatch(t, []string{"IT", "AI"}, l.Departments())
}

func TestLoad_FallsBackToCache(t *testing.T) {
	// GIVEN: A cache populated by an earlier session
	cache := newTestCache(t)
	remote := memory.New()
	remote.Seed(seedUsers(), nil, []string{"IT", "AI", "Ops"})

	first := ledger.New(ledger.Options{Remote: remote, Cache: cache})
	first.Load(context.Background())
	require.Len(t, first.Users(), 2)

	// WHEN: The next start finds the remote store down
	remote.SetErr(errors.New("connection refused"))
	second := ledger.New(ledger.Options{Remote: remote, Cache: cache})
	second.Load(context.Background())

	// THEN: The cached snapshot serves
	assert.Len(t, second.Users(), 2)
	assert.ElementsMatch(t, []string{"IT", "AI", "Ops"}, second.Departments())
	assert.True(t, second.Login("alice", "123"))
}

func TestLoad_SeedsDefaultsWhenEmpty(t *testing.T) {
	// GIVEN: No remote store and no cache
	l := ledger.New(ledger.Options{})

	// WHEN: Loading
	l.Load(context.Background())

	// THEN: The built-in defaults make the system usable, admin included
	assert.Equal(t, ledger.DefaultSettings(), l.Settings())
	assert.ElementsMatch(t, ledger.DefaultDepartments(), l.Departments())
	assert.True(t, l.Login("admin", "123456"))

	user, ok := l.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, leave.RoleHRAdmin, user.Role)
	assert.True(t, l.Can(leave.FeatureManageSettings))
}

func TestLoad_CacheRefreshedFromRemote(t *testing.T) {
	// GIVEN: A ledger that loaded remote data with a cache attached
	cache := newTestCache(t)
	remote := memory.New()
	remote.Seed(seedUsers(), []leave.Request{{
		ID: "r1", UserID: "u1", UserName: "Alice Engineer", Department: "IT",
		Type:      leave.TypeSick,
		StartDate: leave.NewDate(2024, time.May, 10),
		EndDate:   leave.NewDate(2024, time.May, 12),
		DaysCount: 2,
		Status:    leave.StatusApproved,
		CreatedAt: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	}}, []string{"IT"})

	l := ledger.New(ledger.Options{Remote: remote, Cache: cache})
	l.Load(context.Background())

	// WHEN: Reading the cache directly
	state, err := cache.LoadState(context.Background())

	// THEN: It holds the snapshot just loaded
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Len(t, state.Users, 2)
	require.Len(t, state.Requests, 1)
	assert.Equal(t, leave.StatusApproved, state.Requests[0].Status)
}

// =============================================================================
// SESSION
// =============================================================================

func TestLoginLogout(t *testing.T) {
	l, _ := newTestLedger(t)

	user, ok := l.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "u1", user.ID)

	l.Logout()
	_, ok = l.CurrentUser()
	assert.False(t, ok)

	// Wrong password and unknown user both fail
	assert.False(t, l.Login("alice", "wrong"))
	assert.False(t, l.Login("nobody", "123"))
}

func TestCan_DeniedWithoutLogin(t *testing.T) {
	l, _ := newTestLedger(t)
	l.Logout()
	assert.False(t, l.Can(leave.FeatureViewDashboard))
}

// =============================================================================
// READ ACCESSORS RETURN COPIES
// =============================================================================

func TestReadAccessors_ReturnCopies(t *testing.T) {
	l, _ := newTestLedger(t)

	users := l.Users()
	users[0].Name = "Mallory"
	assert.NotEqual(t, "Mallory", l.Users()[0].Name)

	perms := l.Permissions()
	perms[leave.RoleEmployee][leave.FeatureApproveLeave] = true
	assert.False(t, l.Permissions().Allows(leave.RoleEmployee, leave.FeatureApproveLeave))
}
