package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gilestrolab/ethosensor/internal/config"
	"github.com/gilestrolab/ethosensor/internal/sensor"
	"github.com/gilestrolab/ethosensor/internal/storage"
)

type stubReader struct {
	env sensor.Environment
}

func (r *stubReader) Init() error                      { return nil }
func (r *stubReader) Read() (sensor.Environment, error) { return r.env, nil }
func (r *stubReader) Name() string                      { return "stub" }

type testServer struct {
	srv       *Server
	store     *storage.Store
	restarted chan struct{}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := storage.New(storage.NewKVStore(filepath.Join(t.TempDir(), "prefs")))
	if err := store.Begin(); err != nil {
		t.Fatalf("Begin() failed: %v", err)
	}
	cfg := config.Default()
	if err := store.SaveConfig(&cfg); err != nil {
		t.Fatalf("SaveConfig() failed: %v", err)
	}

	poller := sensor.NewPoller(&stubReader{env: sensor.Environment{
		Temperature: 22.5,
		Humidity:    48.0,
		Pressure:    1013.2,
		Light:       320,
	}})
	if err := poller.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}

	restarted := make(chan struct{}, 1)
	srv := New(&Config{
		Addr:           ":0",
		ID:             "AA:BB:CC:DD:EE:FF",
		IP:             "192.168.1.42",
		StreamInterval: 50 * time.Millisecond,
	}, store, poller, cfg, func() { restarted <- struct{}{} })

	return &testServer{srv: srv, store: store, restarted: restarted}
}

func (ts *testServer) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.srv.router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestStatusEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := decodeBody(t, rec)
	if body["id"] != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("id = %v", body["id"])
	}
	if body["name"] != config.DefaultName {
		t.Errorf("name = %v, want %q", body["name"], config.DefaultName)
	}
	if body["temperature"] != 22.5 {
		t.Errorf("temperature = %v", body["temperature"])
	}
	if body["fresh"] != true {
		t.Errorf("fresh = %v, want true", body["fresh"])
	}
}

func TestIDEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/id", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /id = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["id"] != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("id = %v", body["id"])
	}
}

func TestSetUpdatesFieldAndPersists(t *testing.T) {
	ts := newTestServer(t)

	payload, _ := json.Marshal(map[string]string{
		config.FieldName:     "incubator_7",
		config.FieldLocation: "room 3.14",
	})
	rec := ts.do(t, http.MethodPost, "/set", bytes.NewBuffer(payload), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /set = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	mirror := ts.srv.Configuration()
	if mirror.Name != "incubator_7" {
		t.Errorf("mirror name = %q", mirror.Name)
	}
	if mirror.Location != "room 3.14" {
		t.Errorf("mirror location = %q", mirror.Location)
	}

	var stored config.Configuration
	if err := ts.store.LoadConfig(&stored); err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if stored.Name != "incubator_7" || stored.Location != "room 3.14" {
		t.Errorf("stored = %q/%q", stored.Name, stored.Location)
	}
}

func TestSetRejectsUnknownField(t *testing.T) {
	ts := newTestServer(t)

	payload, _ := json.Marshal(map[string]string{"hostname": "nope"})
	rec := ts.do(t, http.MethodPost, "/set", bytes.NewBuffer(payload), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /set = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["field"] != "hostname" {
		t.Errorf("field = %v", body["field"])
	}

	// Nothing must have been persisted.
	var stored config.Configuration
	if err := ts.store.LoadConfig(&stored); err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if stored.Name != config.DefaultName {
		t.Errorf("stored name = %q, want default untouched", stored.Name)
	}
}

func TestSetRejectsMalformedJSON(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/set", bytes.NewBufferString("{not json"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /set = %d, want 400", rec.Code)
	}
}

func TestSetRejectsEmptyBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/set", bytes.NewBufferString("{}"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /set with no fields = %d, want 400", rec.Code)
	}
}

func TestSetFormFallback(t *testing.T) {
	ts := newTestServer(t)

	form := url.Values{}
	form.Set("sensor_name", "bench_unit")
	form.Set("location", "workbench")
	rec := ts.do(t, http.MethodPost, "/set",
		bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /set form = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	mirror := ts.srv.Configuration()
	if mirror.Name != "bench_unit" || mirror.Location != "workbench" {
		t.Errorf("mirror = %q/%q", mirror.Name, mirror.Location)
	}
}

func TestSetTruncatesLongValue(t *testing.T) {
	ts := newTestServer(t)

	long := strings.Repeat("x", 64)
	payload, _ := json.Marshal(map[string]string{config.FieldName: long})
	rec := ts.do(t, http.MethodPost, "/set", bytes.NewBuffer(payload), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /set = %d, want 200", rec.Code)
	}

	mirror := ts.srv.Configuration()
	if len(mirror.Name) != config.FieldCapacity {
		t.Errorf("mirror name length = %d, want %d", len(mirror.Name), config.FieldCapacity)
	}
}

func TestResetTriggersRestart(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/reset", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /reset = %d, want 200", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "OK" {
		t.Errorf("status = %v", body["status"])
	}

	select {
	case <-ts.restarted:
	case <-time.After(2 * time.Second):
		t.Error("restart callback never fired")
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/nope", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /nope = %d, want 404", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Not found" {
		t.Errorf("error = %v", body["error"])
	}
}
