package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "AA:BB:CC:DD:EE:FF",
			"name":        "etho_sensor_000",
			"location":    "lab",
			"temperature": 21.4,
			"humidity":    55.0,
			"pressure":    1008.3,
			"light":       120,
			"fresh":       true,
		})
	}))
	defer server.Close()

	c := NewClientWithURL(server.URL)
	status, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus() failed: %v", err)
	}
	if status.Name != "etho_sensor_000" {
		t.Errorf("Name = %q", status.Name)
	}
	if status.Temperature != 21.4 {
		t.Errorf("Temperature = %v", status.Temperature)
	}
	if !status.Fresh {
		t.Error("Fresh = false, want true")
	}
}

func TestGetStatusRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "X", "name": "n"})
	}))
	defer server.Close()

	c := NewClientWithURL(server.URL)
	c.SetRetry(3, time.Millisecond)

	if _, err := c.GetStatus(); err != nil {
		t.Fatalf("GetStatus() failed after retries: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestGetStatusDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClientWithURL(server.URL)
	c.SetRetry(3, time.Millisecond)

	_, err := c.GetStatus()
	if err == nil {
		t.Fatal("GetStatus() succeeded, want error")
	}
	if IsRetryable(err) {
		t.Error("404 reported as retryable")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestSetConfig(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/set" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("bad body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "Configuration updated successfully"})
	}))
	defer server.Close()

	c := NewClientWithURL(server.URL)
	if err := c.SetConfig(map[string]string{"name": "incubator_7"}); err != nil {
		t.Fatalf("SetConfig() failed: %v", err)
	}
	if received["name"] != "incubator_7" {
		t.Errorf("node received %v", received)
	}
}

func TestSetConfigEmpty(t *testing.T) {
	c := NewClientWithURL("http://127.0.0.1:1")
	if err := c.SetConfig(nil); err == nil {
		t.Error("SetConfig(nil) succeeded, want error")
	}
}

func TestSetConfigRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid field name", "field": "hostname"})
	}))
	defer server.Close()

	c := NewClientWithURL(server.URL)
	err := c.SetConfig(map[string]string{"hostname": "x"})
	if err == nil {
		t.Fatal("SetConfig() succeeded, want error")
	}
	var nodeErr *NodeError
	if !errors.As(err, &nodeErr) {
		t.Fatalf("error type = %T", err)
	}
	if nodeErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", nodeErr.StatusCode)
	}
}

func TestReset(t *testing.T) {
	var reset atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/reset" {
			reset.Store(true)
			json.NewEncoder(w).Encode(map[string]string{"status": "OK", "message": "Resetting"})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := NewClientWithURL(server.URL)
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if !reset.Load() {
		t.Error("node never saw /reset")
	}
}

func TestPingUnreachable(t *testing.T) {
	c := NewClientWithURL("http://127.0.0.1:1")
	c.SetTimeout(500 * time.Millisecond)

	err := c.Ping()
	if err == nil {
		t.Fatal("Ping() succeeded against a closed port")
	}
	if !IsNetworkError(err) {
		t.Errorf("error not classified as network error: %v", err)
	}
}
