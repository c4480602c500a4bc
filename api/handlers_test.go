package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenhr/leave-engine/api"
	"github.com/zenhr/leave-engine/leave"
	"github.com/zenhr/leave-engine/ledger"
	"github.com/zenhr/leave-engine/notify"
	"github.com/zenhr/leave-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Ledger) {
	t.Helper()
	remote := memory.New()
	remote.Seed([]leave.User{
		{ID: "u1", Username: "alice", Password: "123", Name: "Alice Engineer",
			Department: "IT", Role: leave.RoleEmployee},
		{ID: "admin_01", Username: "admin", Password: "123456", Name: "Super Admin",
			Department: "Ops", Role: leave.RoleHRAdmin},
	}, nil, []string{"IT", "AI", "Ops"})

	l := ledger.New(ledger.Options{
		Remote: remote,
		Now:    func() time.Time { return time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC) },
	})
	l.Load(context.Background())

	handler := api.NewHandler(l, notify.New(""))
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server, l
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func login(t *testing.T, server *httptest.Server, username, password string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/api/login",
		api.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// =============================================================================
// SESSION
// =============================================================================

func TestLogin(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/login",
		api.LoginRequest{Username: "alice", Password: "123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decode[leave.User](t, resp)
	assert.Equal(t, "u1", user.ID)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/login",
		api.LoginRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	server, l := newTestServer(t)
	login(t, server, "alice", "123")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok := l.CurrentUser()
	assert.False(t, ok)
}

// =============================================================================
// STATE
// =============================================================================

func TestGetState(t *testing.T) {
	server, _ := newTestServer(t)
	login(t, server, "alice", "123")

	resp := doJSON(t, http.MethodGet, server.URL+"/api/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := decode[api.StateResponse](t, resp)
	assert.Len(t, state.Users, 2)
	assert.ElementsMatch(t, []string{"IT", "AI", "Ops"}, state.Departments)
	require.NotNil(t, state.CurrentUser)
	assert.Equal(t, "u1", state.CurrentUser.ID)
	assert.Equal(t, ledger.DefaultSettings(), state.Settings)
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

func TestSubmitRequest(t *testing.T) {
	server, _ := newTestServer(t)
	login(t, server, "alice", "123")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/requests", api.SubmitRequestInput{
		Type:      leave.TypeSick,
		StartDate: leave.NewDate(2024, time.May, 10),
		EndDate:   leave.NewDate(2024, time.May, 12),
		Reason:    "Flu",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[leave.Request](t, resp)
	assert.Equal(t, 2, created.DaysCount)
	assert.Equal(t, leave.StatusPending, created.Status)
}

func TestSubmitRequest_Unauthenticated(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/requests", api.SubmitRequestInput{
		Type:      leave.TypeSick,
		StartDate: leave.NewDate(2024, time.May, 10),
		EndDate:   leave.NewDate(2024, time.May, 10),
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitRequest_QuotaConflict(t *testing.T) {
	// GIVEN: Alice consumed the default 2-day annual limit
	server, _ := newTestServer(t)
	login(t, server, "alice", "123")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/requests", api.SubmitRequestInput{
		Type:      leave.TypeAnnual,
		StartDate: leave.NewDate(2024, time.May, 6),
		EndDate:   leave.NewDate(2024, time.May, 7),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// WHEN: She asks for one more day
	resp = doJSON(t, http.MethodPost, server.URL+"/api/requests", api.SubmitRequestInput{
		Type:      leave.TypeAnnual,
		StartDate: leave.NewDate(2024, time.August, 5),
		EndDate:   leave.NewDate(2024, time.August, 5),
	})

	// THEN: 409 with the quota details in the error body
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[api.ErrorResponse](t, resp)
	assert.Contains(t, body.Details, "quota exceeded")
}

func TestSubmitRequest_BadDates(t *testing.T) {
	server, _ := newTestServer(t)
	login(t, server, "alice", "123")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/requests", api.SubmitRequestInput{
		Type:      leave.TypeSick,
		StartDate: leave.NewDate(2024, time.May, 10),
		EndDate:   leave.NewDate(2024, time.May, 9),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRequestStatusAndDeletion(t *testing.T) {
	server, l := newTestServer(t)
	login(t, server, "alice", "123")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/requests", api.SubmitRequestInput{
		Type:      leave.TypeAnnual,
		StartDate: leave.NewDate(2024, time.May, 6),
		EndDate:   leave.NewDate(2024, time.May, 7),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[leave.Request](t, resp)

	// Approve
	resp = doJSON(t, http.MethodPut, server.URL+"/api/requests/"+created.ID+"/status",
		api.UpdateStatusInput{Status: leave.StatusApproved})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 2, l.Users()[0].AnnualLeaveUsed+l.Users()[1].AnnualLeaveUsed)

	// Invalid status
	resp = doJSON(t, http.MethodPut, server.URL+"/api/requests/"+created.ID+"/status",
		api.UpdateStatusInput{Status: "Cancelled"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Delete refunds
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/requests/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, l.Requests())
}

// =============================================================================
// USERS AND DEPARTMENTS
// =============================================================================

func TestUserCRUD(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/users", leave.User{
		Username: "dana", Password: "pw", Name: "Dana Ops", Department: "Ops",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[leave.User](t, resp)
	assert.Equal(t, leave.RoleEmployee, created.Role)

	// Duplicate username conflicts
	resp = doJSON(t, http.MethodPost, server.URL+"/api/users", leave.User{
		Username: "dana", Name: "Other Dana",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Patch
	resp = doJSON(t, http.MethodPut, server.URL+"/api/users/"+created.ID, map[string]any{
		"name": "Dana Senior",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[leave.User](t, resp)
	assert.Equal(t, "Dana Senior", updated.Name)
	assert.Equal(t, "dana", updated.Username)

	// Unknown id
	resp = doJSON(t, http.MethodPut, server.URL+"/api/users/ghost", map[string]any{"name": "X"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Delete
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/users/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/users/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDepartmentEndpoints(t *testing.T) {
	server, l := newTestServer(t)

	// Create
	resp := doJSON(t, http.MethodPost, server.URL+"/api/departments", api.DepartmentInput{Name: "Legal"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Duplicate
	resp = doJSON(t, http.MethodPost, server.URL+"/api/departments", api.DepartmentInput{Name: "Legal"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Rename cascades into users
	resp = doJSON(t, http.MethodPut, server.URL+"/api/departments/IT", api.DepartmentInput{Name: "Platform"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, l.Departments(), "Platform")

	// Delete blocked while in use
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/departments/Platform", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Delete unused
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/departments/Legal", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Delete unknown
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/departments/Legal", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// PERMISSIONS, SETTINGS, REPORTS, WEBHOOK
// =============================================================================

func TestPermissionEndpoints(t *testing.T) {
	server, l := newTestServer(t)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/permissions", api.PermissionInput{
		Role: leave.RoleEmployee, Feature: leave.FeatureApproveLeave, Allowed: true,
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, l.Permissions().Allows(leave.RoleEmployee, leave.FeatureApproveLeave))

	resp = doJSON(t, http.MethodPut, server.URL+"/api/permissions", api.PermissionInput{
		Role: "MANAGER", Feature: leave.FeatureApproveLeave, Allowed: true,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSettingsEndpoints(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/settings",
		leave.Settings{AnnualLeaveLimit: 10, PublicHolidayCount: 15})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[leave.Settings](t, resp)
	assert.Equal(t, 10, updated.AnnualLeaveLimit)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/settings",
		leave.Settings{AnnualLeaveLimit: -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsageReport(t *testing.T) {
	server, _ := newTestServer(t)
	login(t, server, "alice", "123")

	resp := doJSON(t, http.MethodPost, server.URL+"/api/requests", api.SubmitRequestInput{
		Type:      leave.TypeAnnual,
		StartDate: leave.NewDate(2024, time.May, 6),
		EndDate:   leave.NewDate(2024, time.May, 7),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/usage?year=2024", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		Year         int `json:"year"`
		PendingCount int `json:"pendingCount"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 2024, summary.Year)
	assert.Equal(t, 1, summary.PendingCount)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/reports/usage?year=banana", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhookEndpoints_DisabledWebhook(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/webhook/test", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[api.WebhookResult](t, resp).OK)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/webhook/headers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[api.WebhookResult](t, resp).OK)
}
