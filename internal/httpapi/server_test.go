package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JPM1118/dearalarm/internal/alarm"
	"github.com/JPM1118/dearalarm/internal/clock"
	"github.com/JPM1118/dearalarm/internal/logger"
	"github.com/JPM1118/dearalarm/internal/notify"
	"github.com/JPM1118/dearalarm/internal/testutil"
)

func newTestServer() (*Server, *testutil.MockSink) {
	sink := &testutil.MockSink{}
	bar := notify.NewBar(10)
	c := alarm.NewController(alarm.New(alarm.DefaultTarget), sink, alarm.WithObserver(bar.Observe))
	return NewServer(c, bar), sink
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, statusResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var st statusResponse
	if rec.Code == http.StatusOK && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &st)
	}
	return rec, st
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer()
	rec, _ := do(t, s.Router(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestGetAlarm(t *testing.T) {
	s, _ := newTestServer()
	rec, st := do(t, s.Router(), http.MethodGet, "/api/alarm", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if st.Target != "08:00" || st.Armed || st.Playing {
		t.Errorf("initial status = %+v", st)
	}
}

func TestSetTarget(t *testing.T) {
	s, _ := newTestServer()
	h := s.Router()

	rec, st := do(t, h, http.MethodPut, "/api/alarm/target", `{"hour":6,"minute":30}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if st.Hour != 6 || st.Minute != 30 || st.Target != "06:30" {
		t.Errorf("status after set = %+v", st)
	}

	cases := []string{
		`{"hour":24,"minute":0}`,
		`{"hour":6,"minute":60}`,
		`{"hour":6}`,
		`not json`,
	}
	for _, body := range cases {
		if rec, _ := do(t, h, http.MethodPut, "/api/alarm/target", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestArmFireSilence(t *testing.T) {
	s, sink := newTestServer()
	h := s.Router()

	if _, st := do(t, h, http.MethodPost, "/api/alarm/arm", ""); !st.Armed {
		t.Fatal("arm should set armed")
	}

	s.Alarm.Tick(context.Background(), clock.ReadingAt(time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)))
	if _, st := do(t, h, http.MethodGet, "/api/alarm", ""); !st.Firing || !st.Playing {
		t.Errorf("after fire: %+v", st)
	}

	_, st := do(t, h, http.MethodPost, "/api/alarm/silence", "")
	if st.Playing || !st.Armed {
		t.Errorf("after silence: %+v", st)
	}
	if sink.StopCount() != 1 {
		t.Errorf("StopAll calls = %d, want 1", sink.StopCount())
	}

	if _, st := do(t, h, http.MethodPost, "/api/alarm/disarm", ""); st.Armed {
		t.Error("disarm should clear armed")
	}

	rec, _ := do(t, h, http.MethodGet, "/api/alarm/events", "")
	var events []eventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	kinds := make([]string, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	want := "ARMED,FIRED,SILENCED,DISARMED"
	if got := strings.Join(kinds, ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/api/alarm/silence", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("preflight should carry CORS headers")
	}
}

func TestClearEvents(t *testing.T) {
	s, _ := newTestServer()
	h := s.Router()
	do(t, h, http.MethodPost, "/api/alarm/arm", "")

	rec, _ := do(t, h, http.MethodDelete, "/api/alarm/events", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE events = %d, want 204", rec.Code)
	}
	if s.Events.Len() != 0 {
		t.Errorf("events left after clear: %d", s.Events.Len())
	}
}

type fixedPlayback bool

func (f fixedPlayback) Playing() bool { return bool(f) }

func TestStatusReportsAudible(t *testing.T) {
	s, _ := newTestServer()
	if _, st := do(t, s.Router(), http.MethodGet, "/api/alarm", ""); st.Audible != nil {
		t.Errorf("audible should be omitted without a playback reporter, got %v", *st.Audible)
	}

	c := alarm.NewController(alarm.New(alarm.DefaultTarget), nil, alarm.WithPlayback(fixedPlayback(false)))
	_, st := do(t, NewServer(c, nil).Router(), http.MethodGet, "/api/alarm", "")
	if st.Audible == nil || *st.Audible {
		t.Errorf("audible = %v, want false", st.Audible)
	}
}

// brokenWriter fails every body write.
type brokenWriter struct {
	header http.Header
	code   int
}

func (b *brokenWriter) Header() http.Header { return b.header }
func (b *brokenWriter) WriteHeader(code int) { b.code = code }
func (b *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteJSONLogsFailures(t *testing.T) {
	var logs bytes.Buffer
	ctx := logger.ToContext(context.Background(), logger.New(&logs))
	req := httptest.NewRequest(http.MethodGet, "/api/alarm", nil).WithContext(ctx)
	w := &brokenWriter{header: http.Header{}}

	writeJSON(w, req, http.StatusOK, statusResponse{Target: "08:00"})

	if w.code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.code)
	}
	if !strings.Contains(logs.String(), "connection reset") {
		t.Errorf("encode failure not logged: %q", logs.String())
	}
}
