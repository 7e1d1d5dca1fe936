package handlers

import (
	"net/http"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity.
// With the in-memory price cache there is no database and the check always passes.
//
// Endpoint: GET /api/system/health
// Response: 200 OK with HealthResponse
// Error: 503 Service Unavailable if the database cannot be reached
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	storage := h.systemService.StorageBackend()

	if err := h.systemService.CheckHealth(); err != nil {
		response := HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Storage:  storage,
			Error:    err.Error(),
		}
		respondJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	database := "connected"
	if storage == "memory" {
		database = "not configured"
	}
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Database: database,
		Storage:  storage,
	})
}
