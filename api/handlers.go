/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave ledger via REST API. Handles HTTP request/response,
  JSON serialization, and delegates every decision to the ledger.

ENDPOINTS:
  Session:
    POST   /api/login                    Log in with username/password
    POST   /api/logout                   Clear the current session

  State:
    GET    /api/state                    Full snapshot (users, requests, ...)

  Requests:
    POST   /api/requests                 Submit a leave request
    PUT    /api/requests/{id}/status     Approve or reject
    DELETE /api/requests/{id}            Delete (refunds counted days)

  Users:
    GET    /api/users                    List users
    POST   /api/users                    Create user
    PUT    /api/users/{id}               Patch user
    DELETE /api/users/{id}               Delete user

  Departments:
    GET    /api/departments              List departments
    POST   /api/departments              Create department
    PUT    /api/departments/{name}       Rename (cascades into snapshots)
    DELETE /api/departments/{name}       Delete (blocked while in use)

  Config:
    GET    /api/permissions              Role/feature grants
    PUT    /api/permissions              Set one grant
    GET    /api/settings                 Global quotas
    PUT    /api/settings                 Replace global quotas

  Reports:
    GET    /api/reports/usage?year=YYYY  Usage summary for a year

  Webhook:
    POST   /api/webhook/test             Send a test row
    POST   /api/webhook/headers          Send the column header row

ERROR HANDLING:
  Domain errors map onto status codes by kind:
  - 400: Validation errors (bad dates, unknown enum values)
  - 401: No logged-in user
  - 404: Referenced user/request/department absent
  - 409: Quota exhaustion, uniqueness and referential conflicts
  Store failures never surface here: the ledger logs them and keeps its
  local state authoritative, so a degraded backend still returns 2xx.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zenhr/leave-engine/leave"
	"github.com/zenhr/leave-engine/ledger"
	"github.com/zenhr/leave-engine/notify"
	"github.com/zenhr/leave-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger  *ledger.Ledger
	Webhook *notify.Webhook
}

// NewHandler creates a new handler around the ledger. The webhook may be
// nil when none is configured.
func NewHandler(l *ledger.Ledger, w *notify.Webhook) *Handler {
	return &Handler{Ledger: l, Webhook: w}
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// Login authenticates and records the current user.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if !h.Ledger.Login(req.Username, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	}

	user, _ := h.Ledger.CurrentUser()
	writeJSON(w, http.StatusOK, user)
}

// Logout clears the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Ledger.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STATE
// =============================================================================

// GetState returns the composite snapshot the frontend boots from.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	resp := StateResponse{
		Users:       h.Ledger.Users(),
		Requests:    h.Ledger.Requests(),
		Departments: h.Ledger.Departments(),
		Permissions: h.Ledger.Permissions(),
		Settings:    h.Ledger.Settings(),
	}
	if user, ok := h.Ledger.CurrentUser(); ok {
		resp.CurrentUser = &user
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest creates a PENDING leave request for the current user.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.Ledger.SubmitRequest(ledger.SubmitInput{
		Type:      req.Type,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateRequestStatus approves or rejects a request.
func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Ledger.UpdateRequestStatus(id, req.Status); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteRequest removes a request, refunding counted days when needed.
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Ledger.DeleteRequest(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Users())
}

// CreateUser creates a new user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var u leave.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	created, err := h.Ledger.AddUser(u)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateUser applies a partial update to a user.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateUserInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Ledger.UpdateUser(id, ledger.UserPatch{
		Username:          req.Username,
		Password:          req.Password,
		Name:              req.Name,
		Department:        req.Department,
		Role:              req.Role,
		AnnualLeaveUsed:   req.AnnualLeaveUsed,
		PublicHolidayUsed: req.PublicHolidayUsed,
		Avatar:            req.Avatar,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteUser removes a user. Their requests keep their snapshots.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Ledger.DeleteUser(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DEPARTMENT HANDLERS
// =============================================================================

// ListDepartments returns all department names.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Departments())
}

// CreateDepartment adds a department with a unique name.
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req DepartmentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Ledger.AddDepartment(req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// RenameDepartment renames a department, cascading into snapshots.
func (h *Handler) RenameDepartment(w http.ResponseWriter, r *http.Request) {
	oldName := chi.URLParam(r, "name")

	var req DepartmentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Ledger.RenameDepartment(oldName, req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDepartment removes an unused department.
func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Ledger.DeleteDepartment(name); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PERMISSION AND SETTINGS HANDLERS
// =============================================================================

// GetPermissions returns the role/feature grant table.
func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Permissions())
}

// SetPermission grants or revokes a single feature for a role.
func (h *Handler) SetPermission(w http.ResponseWriter, r *http.Request) {
	var req PermissionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Ledger.SetPermission(req.Role, req.Feature, req.Allowed); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings returns the global quotas.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Ledger.Settings())
}

// UpdateSettings replaces the global quotas.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req leave.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Ledger.UpdateSettings(req.AnnualLeaveLimit, req.PublicHolidayCount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Ledger.Settings())
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetUsageReport returns the usage summary for a year. Without an explicit
// ?year= it reports the current year.
func (h *Handler) GetUsageReport(w http.ResponseWriter, r *http.Request) {
	year := currentYear()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	summary := report.Build(h.Ledger.Users(), h.Ledger.Requests(), h.Ledger.Settings(), year)
	writeJSON(w, http.StatusOK, summary)
}

// =============================================================================
// WEBHOOK HANDLERS
// =============================================================================

// TestWebhook sends a test row so an operator can verify the URL.
func (h *Handler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, WebhookResult{OK: h.Webhook.TestConnection()})
}

// SendWebhookHeaders posts the column header row to the webhook.
func (h *Handler) SendWebhookHeaders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, WebhookResult{OK: h.Webhook.SendHeaders()})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func currentYear() int {
	return time.Now().Year()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger errors onto status codes by kind. Anything
// unrecognized is a 400: the ledger never returns internal failures.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leave.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "Not logged in", err)
	case errors.Is(err, leave.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, leave.ErrQuotaExceeded),
		errors.Is(err, leave.ErrConstraintViolation):
		writeError(w, http.StatusConflict, "Conflict", err)
	default:
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	}
}
