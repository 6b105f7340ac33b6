package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/OldStager01/alert-arbiter/internal/collector"
	"github.com/OldStager01/alert-arbiter/internal/logger"
)

type Config struct {
	Port     int
	Scenario string
	Vehicle  VehicleSimConfig
	// Frames ends the drive after this many frames; the bridge then
	// answers 204. Zero runs forever.
	Frames uint64
}

// Simulator exposes a VehicleSim as a telemetry bridge that HTTPCollector
// can poll.
type Simulator struct {
	config     Config
	vehicle    *VehicleSim
	decoder    *collector.Decoder
	httpServer *http.Server
}

func New(cfg Config, decoder *collector.Decoder) *Simulator {
	if cfg.Port == 0 {
		cfg.Port = 9000
	}

	return &Simulator{
		config:  cfg,
		vehicle: NewVehicleSim(ParseScenario(cfg.Scenario), cfg.Vehicle),
		decoder: decoder,
	}
}

func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Simulator) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", cors(s.healthHandler))
	mux.HandleFunc("/frame", cors(s.frameHandler))
	mux.HandleFunc("/scenario", cors(s.scenarioHandler))
	mux.HandleFunc("/status", cors(s.statusHandler))
	return mux
}

func (s *Simulator) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Infof("Telemetry simulator listening on %s (scenario %s)", addr, s.vehicle.Scenario())

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Simulator server error: %v", err)
		}
	}()

	return nil
}

func (s *Simulator) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Simulator) Vehicle() *VehicleSim {
	return s.vehicle
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Simulator) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "telemetry-simulator",
	})
}

func (s *Simulator) frameHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.config.Frames > 0 && s.vehicle.Frame() >= s.config.Frames {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	data, err := s.decoder.Encode(s.vehicle.Next())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Simulator) scenarioHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"scenario":  s.vehicle.Scenario(),
			"available": ScenarioNames(),
		})
	case http.MethodPost:
		name := r.URL.Query().Get("name")
		if _, ok := scenarios[name]; !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown scenario: " + name})
			return
		}
		s.vehicle.SetScenario(ParseScenario(name))
		logger.Infof("Scenario switched to %s", name)
		writeJSON(w, http.StatusOK, map[string]string{"scenario": name})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Simulator) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.vehicle.Status())
}

// Collector feeds a VehicleSim straight into the control loop without the
// HTTP hop. A zero Frames runs forever.
type Collector struct {
	vehicle *VehicleSim
	frames  uint64
}

func NewCollector(vehicle *VehicleSim, frames uint64) *Collector {
	return &Collector{vehicle: vehicle, frames: frames}
}

func (c *Collector) Next(ctx context.Context) (*collector.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.frames > 0 && c.vehicle.Frame() >= c.frames {
		return nil, collector.ErrExhausted
	}
	return c.vehicle.Next(), nil
}

func (c *Collector) HealthCheck(ctx context.Context) error {
	return nil
}

func (c *Collector) Close() error {
	return nil
}
