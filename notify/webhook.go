/*
Package notify provides the fire-and-forget webhook sink.

PURPOSE:
  Posts a flattened copy of every leave event (creation, status change) to
  a configured spreadsheet webhook. The sink is write-only telemetry: its
  success or failure never affects ledger state, so every error path here
  ends in a swallowed error and at most a log line.

PAYLOAD:
  A flat JSON object with the columns the sheet expects: timestamp
  (GMT+7, "YYYY-MM-DD HH:MM:SS"), employee name, department, localized
  leave type label, dates, day count, reason, status. The request is sent
  as text/plain - Apps Script webhooks reject preflighted content types.

SEE ALSO:
  - ledger: Calls LeaveEvent after request creation and status changes
*/
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/zenhr/leave-engine/leave"
)

// typeLabels maps leave types to the localized labels the sheet records.
var typeLabels = map[leave.Type]string{
	leave.TypeAnnual:        "ลาพักร้อน",
	leave.TypeSick:          "ลาป่วย",
	leave.TypePersonal:      "ลากิจ",
	leave.TypePublicHoliday: "วันหยุดนักขัตฤกษ์",
	leave.TypeNote:          "โน้ต",
}

const testConnectionLabel = "ทดสอบการเชื่อมต่อ"

// Webhook posts leave events to a spreadsheet webhook URL.
type Webhook struct {
	url  string
	http *http.Client
}

// New creates a webhook sink. An empty URL yields a disabled sink whose
// methods are all no-ops.
func New(url string) *Webhook {
	return &Webhook{
		url:  url,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a destination URL is configured.
func (w *Webhook) Enabled() bool {
	return w != nil && w.url != ""
}

type payload struct {
	CreatedAt  string `json:"createdAt"`
	UserName   string `json:"userName"`
	Department string `json:"department"`
	Type       string `json:"type"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	DaysCount  any    `json:"daysCount"`
	Reason     string `json:"reason"`
	Status     string `json:"status"`
}

// LeaveEvent posts a flattened copy of the request. Failures are logged
// and swallowed; the caller never learns about them by design of the
// contract, not as an oversight.
func (w *Webhook) LeaveEvent(r leave.Request) {
	if !w.Enabled() {
		return
	}
	label, ok := typeLabels[r.Type]
	if !ok {
		label = string(r.Type)
	}
	w.post(payload{
		CreatedAt:  gmt7Timestamp(r.CreatedAt),
		UserName:   r.UserName,
		Department: r.Department,
		Type:       label,
		StartDate:  r.StartDate.String(),
		EndDate:    r.EndDate.String(),
		DaysCount:  r.DaysCount,
		Reason:     r.Reason,
		Status:     string(r.Status),
	})
}

// TestConnection sends a dummy row so an operator can verify the URL from
// the settings screen. Unlike LeaveEvent, the outcome is reported.
func (w *Webhook) TestConnection() bool {
	if !w.Enabled() {
		return false
	}
	now := time.Now()
	return w.post(payload{
		CreatedAt:  gmt7Timestamp(now),
		UserName:   "Test User",
		Department: "IT",
		Type:       testConnectionLabel,
		StartDate:  leave.DateOf(now).String(),
		EndDate:    leave.DateOf(now).String(),
		DaysCount:  1,
		Reason:     "Testing connection from settings",
		Status:     "Test",
	})
}

// SendHeaders posts the column header row the sheet expects.
func (w *Webhook) SendHeaders() bool {
	if !w.Enabled() {
		return false
	}
	return w.post(payload{
		CreatedAt:  "Timestamp (GMT+7)",
		UserName:   "Employee Name",
		Department: "Department",
		Type:       "Leave Type",
		StartDate:  "Start Date",
		EndDate:    "End Date",
		DaysCount:  "Total Days",
		Reason:     "Reason",
		Status:     "Status",
	})
}

func (w *Webhook) post(p payload) bool {
	body, err := json.Marshal(p)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := w.http.Do(req)
	if err != nil {
		log.Printf("notify: webhook post failed: %v", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 400
}

// gmt7Timestamp renders a timestamp in the sheet's fixed GMT+7 zone.
func gmt7Timestamp(t time.Time) string {
	return t.UTC().Add(7 * time.Hour).Format("2006-01-02 15:04:05")
}
