package moonraker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestQueryObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/printer/objects/query" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if _, ok := r.URL.Query()["toolhead"]; !ok {
			t.Fatalf("expected toolhead query parameter, got %s", r.URL.RawQuery)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Fatalf("expected api key header, got %q", got)
		}
		fmt.Fprint(w, `{"result":{"eventtime":123.4,"status":{"toolhead":{"homed_axes":"xyz"}}}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	status, err := client.QueryObject(context.Background(), "toolhead")
	if err != nil {
		t.Fatalf("QueryObject error: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"homed_axes": "xyz"}, status); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryMissingObjectAndKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"status":{"toolhead":{"homed_axes":"xyz"}}}}`)
	}))
	defer server.Close()
	client := NewClient(Config{BaseURL: server.URL})

	value, err := client.Query(context.Background(), "bogus_object", "anything")
	if err != nil || value != nil {
		t.Fatalf("missing object must degrade to nil, got %v / %v", value, err)
	}
	value, err = client.Query(context.Background(), "toolhead", "bogus_key")
	if err != nil || value != nil {
		t.Fatalf("missing key must degrade to nil, got %v / %v", value, err)
	}
	value, err = client.Query(context.Background(), "toolhead", "homed_axes")
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if value != "xyz" {
		t.Fatalf("expected xyz, got %v", value)
	}
}

func TestRunGCode(t *testing.T) {
	var gotScript string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/printer/gcode/script" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotScript = r.URL.Query().Get("script")
		fmt.Fprint(w, `{"result":"ok"}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if err := client.RunGCode(context.Background(), "PROBE_ACCURACY SAMPLES=10"); err != nil {
		t.Fatalf("RunGCode error: %v", err)
	}
	if gotScript != "PROBE_ACCURACY SAMPLES=10" {
		t.Fatalf("expected script to round-trip, got %q", gotScript)
	}
}

func TestGCodeStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("count"); got != "1000" {
			t.Fatalf("expected count=1000, got %q", got)
		}
		fmt.Fprint(w, `{"result":{"gcode_store":[
			{"time":1.5,"message":"// probe at 150.000,150.000 is z=2.001","type":"response"},
			{"time":2.5,"message":"!! Probe triggered prior to movement","type":"response"}]}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	entries, err := client.GCodeStore(context.Background(), 1000)
	if err != nil {
		t.Fatalf("GCodeStore error: %v", err)
	}
	want := []GCodeEntry{
		{Time: 1.5, Message: "// probe at 150.000,150.000 is z=2.001", Type: "response"},
		{Time: 2.5, Message: "!! Probe triggered prior to movement", Type: "response"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestAPIErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Must home axis first"}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	err := client.RunGCode(context.Background(), "G0 X10")
	if err == nil {
		t.Fatalf("expected error for 400 response")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", apiErr.StatusCode)
	}
	if got := apiErr.Error(); got != "moonraker status 400: Must home axis first" {
		t.Fatalf("unexpected error text %q", got)
	}
}
