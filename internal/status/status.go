// Package status surfaces operator-facing session status: every change
// is logged, exposed over a small local HTTP endpoint and, when a broker
// is configured, published retained over MQTT so a fleet dashboard sees
// the headset's last known state.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oculab/visor/pkg/mqttclient"
)

// ConfigOptions is config options for the status reporter.
type ConfigOptions struct {
	// Topic is the MQTT topic prefix; the client id is appended.
	Topic string
	Qos   uint
	// HTTPAddr is the local listen address for /healthz and /v1/status.
	// Empty disables the HTTP endpoint.
	HTTPAddr string
}

// Report is the published status document.
type Report struct {
	ClientID  string  `json:"client_id"`
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

// Reporter fans one status string out to log, HTTP and MQTT. The MQTT
// client is optional; without one the reporter is log and HTTP only.
type Reporter struct {
	clientID string
	config   ConfigOptions
	client   mqtt.Client
	logger   zerolog.Logger

	mu      sync.Mutex
	current Report
}

// NewReporter builds a Reporter. The MQTT client, if any, comes from
// ctx the same way the rest of the program shares it.
func NewReporter(ctx context.Context, config ConfigOptions) *Reporter {
	id := uuid.NewString()
	r := &Reporter{
		clientID: id,
		config:   config,
		client:   mqttclient.FromContext(ctx),
		logger:   log.Ctx(ctx).With().Str("component", "status").Logger(),
		current: Report{
			ClientID: id,
			Status:   "starting",
		},
	}
	return r
}

// Set records a new status string and fans it out.
func (r *Reporter) Set(status string) {
	report := Report{
		ClientID:  r.clientID,
		Status:    status,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
	}

	r.mu.Lock()
	r.current = report
	r.mu.Unlock()

	r.logger.Info().Str("status", status).Msg("session status")
	r.publish(report)
}

func (r *Reporter) publish(report Report) {
	if r.client == nil {
		return
	}

	payload, err := json.Marshal(&report)
	if err != nil {
		r.logger.Err(err).Msg("could not marshal status report")
		return
	}

	topic := r.config.Topic + "/" + r.clientID
	t := r.client.Publish(topic, byte(r.config.Qos), true, payload)
	// Handle the token in a go routine so status updates never block a tick.
	go func() {
		<-t.Done()
		if t.Error() != nil {
			r.logger.Err(t.Error()).Msgf("could not publish to %s", topic)
		}
	}()
}

// Handler returns the local status HTTP handler.
func (r *Reporter) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	router.HandleFunc("/v1/status", r.handleStatus()).Methods(http.MethodGet)
	return router
}

func (r *Reporter) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		r.mu.Lock()
		report := r.current
		r.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(&report); err != nil {
			r.logger.Err(err).Msg("could not encode status response")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}

// Serve starts the local HTTP endpoint when configured. It returns
// immediately; failures are logged, never fatal to the session.
func (r *Reporter) Serve() {
	if r.config.HTTPAddr == "" {
		return
	}
	go func() {
		r.logger.Info().Str("addr", r.config.HTTPAddr).Msg("starting status HTTP endpoint")
		if err := http.ListenAndServe(r.config.HTTPAddr, r.Handler()); err != nil {
			r.logger.Err(err).Msg("status HTTP endpoint failed")
		}
	}()
}
