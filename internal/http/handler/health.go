package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"botfleet/internal/domain/bot"
	domainworker "botfleet/internal/domain/worker"
	"botfleet/internal/http/dto"
	"botfleet/internal/infra/container"
	"botfleet/pkg/logger"
)

// HealthHandler handles health and metrics requests for this tenancy process.
type HealthHandler struct {
	container *container.Container
	logger    logger.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		container: container,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]interface{})

	dbHealth := &dto.ServiceHealth{Status: "healthy"}
	if h.container != nil && h.container.DBConnection != nil {
		if err := h.container.Health(); err != nil {
			dbHealth.Status = "unhealthy"
			dbHealth.Message = err.Error()
		}
	} else {
		dbHealth.Status = "unhealthy"
		dbHealth.Message = "database connection not initialized"
	}
	services["database"] = dbHealth

	workerHealth := &dto.ServiceHealth{Status: "healthy"}
	if h.container == nil || h.container.Supervisor == nil {
		workerHealth.Status = "unhealthy"
		workerHealth.Message = "supervisor not initialized"
	}
	services["workers"] = workerHealth

	overallStatus := "healthy"
	for _, service := range services {
		if serviceHealth, ok := service.(*dto.ServiceHealth); ok {
			if serviceHealth.Status != "healthy" {
				overallStatus = "unhealthy"
				break
			}
		}
	}

	response := &dto.HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(h.startTime).String(),
		Services:  services,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// Metrics handles GET /metrics
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	bots, _, err := h.container.BotQuery.List(r.Context(), h.container.Tenancy, 0, 0)
	if err != nil {
		h.logger.ErrorWithError("failed to list bots for metrics", err, nil)
		bots = nil
	}

	botMetrics := dto.BotMetrics{Total: len(bots)}
	for _, b := range bots {
		switch b.Status() {
		case bot.StatusOnline:
			botMetrics.Online++
		case bot.StatusOffline:
			botMetrics.Offline++
		case bot.StatusError:
			botMetrics.Error++
		}
		switch b.ApprovalStatus() {
		case bot.ApprovalApproved:
			botMetrics.Approved++
		case bot.ApprovalPending:
			botMetrics.Pending++
		}
	}

	workerMetrics := dto.WorkerMetrics{}
	for _, status := range h.container.Supervisor.GetAllStatuses() {
		workerMetrics.TotalWorkers++
		switch status {
		case domainworker.ConnectionOnline:
			workerMetrics.ConnectedWorkers++
			workerMetrics.AuthenticatedWorkers++
		case domainworker.ConnectionLoading:
			workerMetrics.ConnectedWorkers++
		}
	}

	dbStatus := "healthy"
	if err := h.container.Health(); err != nil {
		dbStatus = "unhealthy"
	}

	response := &dto.MetricsResponse{
		Bots:    botMetrics,
		Workers: workerMetrics,
		System: dto.SystemMetrics{
			Uptime:         time.Since(h.startTime).String(),
			DatabaseStatus: dbStatus,
		},
		Timestamp: time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
