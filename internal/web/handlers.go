package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/weekplan/internal/endpoint"
	"github.com/example/weekplan/internal/logging"
)

const maxRequestBytes = 1 << 20

// Handlers contains HTTP handlers for the web API
type Handlers struct {
	endpoints endpoint.Endpoints
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandlers creates new API handlers
func NewHandlers(endpoints endpoint.Endpoints, logger *zap.Logger) *Handlers {
	return &Handlers{
		endpoints: endpoints,
		logger:    logging.OrNop(logger),
		now:       time.Now,
	}
}

// GeneratePlan handles POST /api/plans
func (h *Handlers) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req endpoint.PlanRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codes.InvalidArgument, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, codes.InvalidArgument, "invalid JSON body: "+err.Error())
		return
	}

	resp, err := h.endpoints.GenerateWeeklyPlan(r.Context(), &req)
	if err != nil {
		code, msg := endpoint.HTTPStatus(err)
		if code >= http.StatusInternalServerError {
			h.logger.Warn("plan request failed", zap.String("user_id", req.UserID), zap.Int("status", code), zap.Error(err))
		}
		writeError(w, code, status.Code(endpoint.MapErrorToStatus(err)), msg)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /healthz
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Time: h.now().UTC()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, httpCode int, code codes.Code, msg string) {
	writeJSON(w, httpCode, ErrorResponse{Error: msg, Code: code.String()})
}
