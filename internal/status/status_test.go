package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestReporter() *Reporter {
	ctx := zerolog.Nop().WithContext(context.Background())
	return NewReporter(ctx, ConfigOptions{Topic: "/visor/status"})
}

func TestSetWithoutBroker(t *testing.T) {
	r := newTestReporter()
	// No MQTT client in context: must not panic.
	r.Set("connected")
}

func TestStatusEndpoint(t *testing.T) {
	r := newTestReporter()
	r.Set("connected")

	server := httptest.NewServer(r.Handler())
	defer server.Close()

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/healthz")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status is incorrect, got %d want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("status", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/v1/status")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var report Report
		if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
			t.Fatal(err)
		}
		if report.Status != "connected" {
			t.Fatalf("status is incorrect, got %s want connected", report.Status)
		}
		if report.ClientID == "" {
			t.Fatal("empty client id")
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/v1/status", "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Fatalf("status is incorrect, got %d want %d", resp.StatusCode, http.StatusMethodNotAllowed)
		}
	})
}
