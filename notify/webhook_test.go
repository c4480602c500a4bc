package notify_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenhr/leave-engine/leave"
	"github.com/zenhr/leave-engine/notify"
)

type capture struct {
	mu          sync.Mutex
	contentType string
	body        map[string]any
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.contentType = r.Header.Get("Content-Type")
		json.Unmarshal(data, &c.body)
		c.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, c
}

func TestLeaveEvent_PostsLocalizedRow(t *testing.T) {
	// GIVEN: A configured webhook
	server, captured := newCaptureServer(t, http.StatusOK)
	w := notify.New(server.URL)

	// WHEN: A request event fires
	w.LeaveEvent(leave.Request{
		ID: "r1", UserName: "Alice Engineer", Department: "IT",
		Type:      leave.TypeAnnual,
		StartDate: leave.NewDate(2024, time.June, 3),
		EndDate:   leave.NewDate(2024, time.June, 4),
		DaysCount: 2,
		Status:    leave.StatusPending,
		Reason:    "Family visit",
		CreatedAt: time.Date(2024, time.June, 1, 17, 0, 0, 0, time.UTC),
	})

	// THEN: The sheet row carries the Thai type label, GMT+7 timestamp, and
	//       text/plain content type (Apps Script rejects preflights)
	captured.mu.Lock()
	defer captured.mu.Unlock()
	assert.Equal(t, "text/plain", captured.contentType)
	assert.Equal(t, "ลาพักร้อน", captured.body["type"])
	assert.Equal(t, "2024-06-02 00:00:00", captured.body["createdAt"])
	assert.Equal(t, "2024-06-03", captured.body["startDate"])
	assert.Equal(t, float64(2), captured.body["daysCount"])
	assert.Equal(t, "Pending", captured.body["status"])
}

func TestDisabledWebhookIsNoOp(t *testing.T) {
	w := notify.New("")
	assert.False(t, w.Enabled())

	// None of these should panic or attempt network I/O
	w.LeaveEvent(leave.Request{ID: "r1"})
	assert.False(t, w.TestConnection())
	assert.False(t, w.SendHeaders())
}

func TestTestConnection_ReportsOutcome(t *testing.T) {
	okServer, _ := newCaptureServer(t, http.StatusOK)
	assert.True(t, notify.New(okServer.URL).TestConnection())

	failServer, _ := newCaptureServer(t, http.StatusInternalServerError)
	assert.False(t, notify.New(failServer.URL).TestConnection())
}

func TestSendHeaders_PostsColumnTitles(t *testing.T) {
	server, captured := newCaptureServer(t, http.StatusOK)

	require.True(t, notify.New(server.URL).SendHeaders())

	captured.mu.Lock()
	defer captured.mu.Unlock()
	assert.Equal(t, "Employee Name", captured.body["userName"])
	assert.Equal(t, "Total Days", captured.body["daysCount"])
}
