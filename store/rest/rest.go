/*
Package rest provides the network-backed remote store adapter.

PURPOSE:
  Implements store.RemoteStore against a PostgREST-style JSON/HTTP API
  (Supabase exposes exactly this). Each collection is a table addressed as
  {base}/{table} with query-string filters (`?id=eq.<id>`) and upserts via
  the Prefer: resolution=merge-duplicates header.

FAILURE MODEL:
  Every call is individually fallible and the caller treats it as
  best-effort. This package does no retries and holds no state - a failed
  write is simply reported back so the ledger can log it and move on.

TABLES:
  users             snake_case columns, counters included
  leave_requests    one row per request, ordered newest first on fetch
  departments       single name column
  role_permissions  (role, feature, allowed) rows
  leave_settings    single row, id = 1

SEE ALSO:
  - store/store.go: The RemoteStore contract
  - store/memory: The in-memory double used in tests
*/
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/zenhr/leave-engine/leave"
	"github.com/zenhr/leave-engine/store"
)

// Client talks to a PostgREST-style endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ store.RemoteStore = (*Client)(nil)

// New creates a client for the given base URL (e.g.
// "https://xyz.supabase.co/rest/v1"). The API key may be empty for
// unauthenticated endpoints.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		// The ledger bounds calls with its own context timeout; this is a
		// backstop for callers that pass context.Background().
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// =============================================================================
// WIRE TYPES - snake_case rows as the store records them
// =============================================================================

type dbUser struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Password          string `json:"password"`
	Name              string `json:"name"`
	Department        string `json:"department"`
	Role              string `json:"role"`
	AnnualLeaveUsed   int    `json:"annual_leave_used"`
	PublicHolidayUsed int    `json:"public_holiday_used"`
	Avatar            string `json:"avatar"`
}

type dbRequest struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Department string `json:"department"`
	Type       string `json:"type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	DaysCount  int    `json:"days_count"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
	CreatedAt  string `json:"created_at"`
}

type dbDepartment struct {
	Name string `json:"name"`
}

type dbPermission struct {
	Role    string `json:"role"`
	Feature string `json:"feature"`
	Allowed bool   `json:"allowed"`
}

type dbSettings struct {
	ID                 int `json:"id"`
	AnnualLeaveLimit   int `json:"annual_leave_limit"`
	PublicHolidayCount int `json:"public_holiday_count"`
}

func toUser(u dbUser) leave.User {
	return leave.User{
		ID:                u.ID,
		Username:          u.Username,
		Password:          u.Password,
		Name:              u.Name,
		Department:        u.Department,
		Role:              leave.Role(u.Role),
		AnnualLeaveUsed:   u.AnnualLeaveUsed,
		PublicHolidayUsed: u.PublicHolidayUsed,
		Avatar:            u.Avatar,
	}
}

func fromUser(u leave.User) dbUser {
	return dbUser{
		ID:                u.ID,
		Username:          u.Username,
		Password:          u.Password,
		Name:              u.Name,
		Department:        u.Department,
		Role:              string(u.Role),
		AnnualLeaveUsed:   u.AnnualLeaveUsed,
		PublicHolidayUsed: u.PublicHolidayUsed,
		Avatar:            u.Avatar,
	}
}

func toRequest(r dbRequest) (leave.Request, error) {
	start, err := leave.ParseDate(r.StartDate)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s: %w", r.ID, err)
	}
	end, err := leave.ParseDate(r.EndDate)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s: %w", r.ID, err)
	}
	createdAt, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		// Some rows carry bare dates; tolerate them.
		createdAt, err = time.Parse("2006-01-02", r.CreatedAt)
		if err != nil {
			return leave.Request{}, fmt.Errorf("request %s: bad created_at %q", r.ID, r.CreatedAt)
		}
	}
	return leave.Request{
		ID:         r.ID,
		UserID:     r.UserID,
		UserName:   r.UserName,
		Department: r.Department,
		Type:       leave.Type(r.Type),
		StartDate:  start,
		EndDate:    end,
		DaysCount:  r.DaysCount,
		Status:     leave.Status(r.Status),
		Reason:     r.Reason,
		CreatedAt:  createdAt,
	}, nil
}

func fromRequest(r leave.Request) dbRequest {
	return dbRequest{
		ID:         r.ID,
		UserID:     r.UserID,
		UserName:   r.UserName,
		Department: r.Department,
		Type:       string(r.Type),
		StartDate:  r.StartDate.String(),
		EndDate:    r.EndDate.String(),
		DaysCount:  r.DaysCount,
		Status:     string(r.Status),
		Reason:     r.Reason,
		CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, body any, prefer string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(data))
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

func eq(value string) string {
	return "eq." + url.QueryEscape(value)
}

// =============================================================================
// FETCH OPERATIONS
// =============================================================================

func (c *Client) FetchAll(ctx context.Context) ([]leave.User, []leave.Request, error) {
	var dbUsers []dbUser
	if err := c.getJSON(ctx, "/users?select=*", &dbUsers); err != nil {
		return nil, nil, err
	}
	var dbRequests []dbRequest
	if err := c.getJSON(ctx, "/leave_requests?select=*&order=created_at.desc", &dbRequests); err != nil {
		return nil, nil, err
	}

	users := make([]leave.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, toUser(u))
	}
	requests := make([]leave.Request, 0, len(dbRequests))
	for _, r := range dbRequests {
		converted, err := toRequest(r)
		if err != nil {
			return nil, nil, err
		}
		requests = append(requests, converted)
	}
	return users, requests, nil
}

func (c *Client) FetchDepartments(ctx context.Context) ([]string, error) {
	var rows []dbDepartment
	if err := c.getJSON(ctx, "/departments?select=*", &rows); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	return names, nil
}

func (c *Client) FetchPermissions(ctx context.Context) (leave.RolePermissions, bool, error) {
	var rows []dbPermission
	if err := c.getJSON(ctx, "/role_permissions?select=*", &rows); err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	perms := leave.RolePermissions{}
	for _, r := range rows {
		role := leave.Role(r.Role)
		if perms[role] == nil {
			perms[role] = map[leave.Feature]bool{}
		}
		perms[role][leave.Feature(r.Feature)] = r.Allowed
	}
	return perms, true, nil
}

func (c *Client) FetchSettings(ctx context.Context) (leave.Settings, bool, error) {
	var rows []dbSettings
	if err := c.getJSON(ctx, "/leave_settings?select=*&id=eq.1", &rows); err != nil {
		return leave.Settings{}, false, err
	}
	if len(rows) == 0 {
		return leave.Settings{}, false, nil
	}
	return leave.Settings{
		AnnualLeaveLimit:   rows[0].AnnualLeaveLimit,
		PublicHolidayCount: rows[0].PublicHolidayCount,
	}, true, nil
}

// =============================================================================
// USER OPERATIONS
// =============================================================================

func (c *Client) InsertUser(ctx context.Context, u leave.User) error {
	_, err := c.do(ctx, http.MethodPost, "/users", fromUser(u), "resolution=merge-duplicates")
	return err
}

func (c *Client) UpdateUser(ctx context.Context, u leave.User) error {
	_, err := c.do(ctx, http.MethodPatch, "/users?id="+eq(u.ID), fromUser(u), "")
	return err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users?id="+eq(id), nil, "")
	return err
}

// =============================================================================
// REQUEST OPERATIONS
// =============================================================================

func (c *Client) InsertRequest(ctx context.Context, r leave.Request) error {
	_, err := c.do(ctx, http.MethodPost, "/leave_requests", fromRequest(r), "resolution=merge-duplicates")
	return err
}

func (c *Client) UpdateRequestStatus(ctx context.Context, id string, status leave.Status) error {
	payload := map[string]string{"status": string(status)}
	_, err := c.do(ctx, http.MethodPatch, "/leave_requests?id="+eq(id), payload, "")
	return err
}

func (c *Client) DeleteRequest(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/leave_requests?id="+eq(id), nil, "")
	return err
}

// =============================================================================
// DEPARTMENT OPERATIONS
// =============================================================================

func (c *Client) InsertDepartment(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodPost, "/departments", dbDepartment{Name: name}, "resolution=merge-duplicates")
	return err
}

// RenameDepartment updates the departments table and cascades the new name
// into the denormalized columns, mirroring what the ledger did locally.
func (c *Client) RenameDepartment(ctx context.Context, oldName, newName string) error {
	if _, err := c.do(ctx, http.MethodPatch, "/departments?name="+eq(oldName),
		dbDepartment{Name: newName}, ""); err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodPatch, "/users?department="+eq(oldName),
		map[string]string{"department": newName}, ""); err != nil {
		return err
	}
	_, err := c.do(ctx, http.MethodPatch, "/leave_requests?department="+eq(oldName),
		map[string]string{"department": newName}, "")
	return err
}

func (c *Client) DeleteDepartment(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodDelete, "/departments?name="+eq(name), nil, "")
	return err
}

// =============================================================================
// PERMISSION AND SETTINGS OPERATIONS
// =============================================================================

func (c *Client) UpsertPermission(ctx context.Context, role leave.Role, feature leave.Feature, allowed bool) error {
	row := dbPermission{Role: string(role), Feature: string(feature), Allowed: allowed}
	_, err := c.do(ctx, http.MethodPost, "/role_permissions?on_conflict=role,feature",
		row, "resolution=merge-duplicates")
	return err
}

func (c *Client) UpsertSettings(ctx context.Context, s leave.Settings) error {
	row := dbSettings{ID: 1, AnnualLeaveLimit: s.AnnualLeaveLimit, PublicHolidayCount: s.PublicHolidayCount}
	_, err := c.do(ctx, http.MethodPost, "/leave_settings?on_conflict=id",
		row, "resolution=merge-duplicates")
	return err
}
