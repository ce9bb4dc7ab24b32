package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"databoard/internal/config"
	"databoard/pkg/contracts"
)

// HealthService reports liveness and readiness of the dashboard server.
type HealthService struct {
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time

	// clientCount reports connected WebSocket clients; nil when the hub is
	// not wired (report CLI).
	clientCount func() int
}

// HealthStatus is the health endpoint response body.
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Uptime    string                   `json:"uptime"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Datasets  map[string]DatasetHealth `json:"datasets,omitempty"`
	Clients   int                      `json:"websocket_clients"`
}

// DatasetHealth describes one configured dataset source.
type DatasetHealth struct {
	Path     string `json:"path"`
	Present  bool   `json:"present"`
	Size     int64  `json:"size_bytes,omitempty"`
	Modified string `json:"modified,omitempty"`
}

// NewHealthService creates a health service. clientCount may be nil.
func NewHealthService(cfg *config.Config, logger *slog.Logger, clientCount func() int) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		cfg:         cfg,
		logger:      logger,
		startTime:   time.Now(),
		clientCount: clientCount,
	}
}

// Health returns the full health report: dataset presence, runtime stats,
// and connected clients. Status degrades when a configured dataset is
// missing.
func (s *HealthService) Health(ctx context.Context) HealthStatus {
	datasets := map[string]DatasetHealth{
		"ridership": s.datasetHealth(s.cfg.Datasets.RidershipPath),
		"bakery":    s.datasetHealth(s.cfg.Datasets.BakeryPath),
	}

	status := "healthy"
	for _, d := range datasets {
		if !d.Present {
			status = "degraded"
		}
	}

	clients := 0
	if s.clientCount != nil {
		clients = s.clientCount()
	}

	return HealthStatus{
		Status:    status,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
		Datasets: datasets,
		Clients:  clients,
	}
}

// Ready reports whether at least one configured dataset can be served.
func (s *HealthService) Ready(ctx context.Context) bool {
	return s.datasetHealth(s.cfg.Datasets.RidershipPath).Present ||
		s.datasetHealth(s.cfg.Datasets.BakeryPath).Present
}

func (s *HealthService) datasetHealth(path string) DatasetHealth {
	info, err := os.Stat(path)
	if err != nil {
		return DatasetHealth{Path: path}
	}
	return DatasetHealth{
		Path:     path,
		Present:  true,
		Size:     info.Size(),
		Modified: info.ModTime().Format(time.RFC3339),
	}
}
