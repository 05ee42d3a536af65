package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/opensource-finance/preflight/internal/intel"
	"github.com/opensource-finance/preflight/internal/logging"
	"github.com/opensource-finance/preflight/internal/pipeline"
)

// maxBodyBytes bounds the /analyze request body.
const maxBodyBytes = 64 << 10

// Analyzer produces a verdict for one transaction.
type Analyzer interface {
	Analyze(ctx context.Context, req *domain.AnalyzeRequest) (*domain.RiskResult, error)
}

var _ Analyzer = (*pipeline.Orchestrator)(nil)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the handlers use. Only Analyzer is
// required; nil health dependencies are skipped.
type Dependencies struct {
	Analyzer   Analyzer
	Index      *intel.Index
	Cache      domain.Cache
	Bus        domain.EventBus
	Repository Pinger
	Version    string
}

// Handler holds dependencies for API handlers.
type Handler struct {
	analyzer Analyzer
	index    *intel.Index
	checks   map[string]Pinger
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	index := deps.Index
	if index == nil {
		index = intel.Empty()
	}

	checks := make(map[string]Pinger)
	if deps.Cache != nil {
		checks["cache"] = deps.Cache
	}
	if deps.Bus != nil {
		checks["eventbus"] = deps.Bus
	}
	if deps.Repository != nil {
		checks["repository"] = deps.Repository
	}

	return &Handler{
		analyzer: deps.Analyzer,
		index:    index,
		checks:   checks,
		version:  deps.Version,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// IntelResponse is the response body for GET /intel/{address}.
type IntelResponse struct {
	Address   string           `json:"address"`
	Flagged   bool             `json:"flagged"`
	ScamIntel domain.ScamIntel `json:"scam_intel"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
	Intel      intel.Stats       `json:"intel"`
}

// Analyze handles POST /analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalyzeRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: "invalid request body: " + err.Error(),
		})
		return
	}

	if err := validateRequest(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), &req)
	if err != nil {
		if !errors.Is(err, pipeline.ErrInternal) {
			logging.L(r.Context()).Error("analysis failed", "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: pipeline.ErrInternal.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// LookupIntel handles GET /intel/{address}.
func (h *Handler) LookupIntel(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if err := validateAddress("address", address); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, IntelResponse{
		Address:   intel.Normalize(address),
		Flagged:   h.index.IsFlagged(address),
		ScamIntel: h.index.Lookup(address),
	})
}

// Health returns the server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	components := make(map[string]string, len(h.checks))

	for name, dep := range h.checks {
		if err := dep.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", "component", name, "error", err)
			components[name] = "unavailable"
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     status,
		Service:    "preflight",
		Version:    h.version,
		Components: components,
		Intel:      h.index.Stats(),
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

func validateRequest(req *domain.AnalyzeRequest) error {
	if err := validateAddress("wallet", req.Wallet); err != nil {
		return err
	}
	if err := validateAddress("contract", req.Contract); err != nil {
		return err
	}
	switch req.TxType {
	case domain.TxApprove, domain.TxSwap, domain.TxSend:
		return nil
	default:
		return fmt.Errorf("tx_type: must be one of approve, swap, send (got %q)", req.TxType)
	}
}

// validateAddress applies the shape check only. Hex content and the burn
// address are judged by the scorer, not rejected here.
func validateAddress(field, address string) error {
	if !strings.HasPrefix(address, "0x") {
		return fmt.Errorf("%s: address must start with 0x", field)
	}
	if len(address) != 42 {
		return fmt.Errorf("%s: address must be 42 characters long", field)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
