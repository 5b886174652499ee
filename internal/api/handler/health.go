package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/estokealo/estokealo/internal/api/middleware"
	"github.com/estokealo/estokealo/internal/api/response"
)

// Pinger checks connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db          Pinger
	revocations Pinger
	version     string
	timeout     time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db, revocations Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		revocations: revocations,
		version:     version,
		timeout:     2 * time.Second,
	}
}

type dependencyStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

type healthData struct {
	Status      string           `json:"status"`
	Version     string           `json:"version"`
	Database    dependencyStatus `json:"database"`
	Revocations dependencyStatus `json:"revocations"`
}

// ServeHTTP handles the health check request. A failing dependency reports
// "degraded" with a 503 status.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	data := healthData{
		Status:      "healthy",
		Version:     h.version,
		Database:    check(ctx, h.db),
		Revocations: check(ctx, h.revocations),
	}

	status := http.StatusOK
	if !data.Database.Connected || !data.Revocations.Connected {
		data.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	response.Success(w, status, "service "+data.Status, data, requestID)
}

func check(ctx context.Context, p Pinger) dependencyStatus {
	if p == nil {
		return dependencyStatus{Connected: false, Error: "not configured"}
	}
	if err := p.Ping(ctx); err != nil {
		return dependencyStatus{Connected: false, Error: err.Error()}
	}
	return dependencyStatus{Connected: true}
}
