package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
	"github.com/leapstack-labs/provgate/pkg/lineage"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValidate runs the compliance gate against a model.
// The tier comes from the "tier" query parameter; when omitted, the model's
// registered risk level is used, falling back to high for unknown models.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")

	var tier core.RiskTier
	if tierParam := r.URL.Query().Get("tier"); tierParam != "" {
		var ok bool
		tier, ok = core.ParseRiskTier(tierParam)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown risk tier: "+tierParam)
			return
		}
	} else {
		var err error
		tier, err = registeredTier(r.Context(), s.registry, modelID)
		if err != nil {
			s.logger.Error("resolve risk tier", "model", modelID, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	report := s.gate.ValidateDeployment(r.Context(), modelID, tier)
	writeJSON(w, http.StatusOK, report)
}

// registeredTier looks up a model's registered risk level. Unknown models
// resolve to high so every applicable check still runs (and fails on the
// missing metadata).
func registeredTier(ctx context.Context, reg core.ModelRegistry, modelID string) (core.RiskTier, error) {
	md, err := reg.GetComplianceReport(ctx, modelID)
	if errors.Is(err, core.ErrNotFound) {
		return core.RiskHigh, nil
	}
	if err != nil {
		return "", err
	}
	return md.RiskLevel, nil
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	modelID := chi.URLParam(r, "modelID")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit: "+v)
			return
		}
		limit = n
	}

	entries, err := s.store.ListAuditEntries(r.Context(), modelID, limit)
	if err != nil {
		s.logger.Error("list audit entries", "model", modelID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetLineage(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")

	rec, err := s.store.GetLineage(r.Context(), datasetID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown dataset: "+datasetID)
			return
		}
		s.logger.Error("get lineage", "dataset", datasetID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// verifyResponse is the result of a lineage chain verification.
type verifyResponse struct {
	DatasetID string `json:"dataset_id"`
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleVerifyLineage(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")

	rec, err := s.store.GetLineage(r.Context(), datasetID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown dataset: "+datasetID)
			return
		}
		s.logger.Error("get lineage", "dataset", datasetID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := verifyResponse{DatasetID: datasetID, Valid: true}
	if err := lineage.VerifyChain(rec); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRules lists the rule catalog, optionally filtered by tier.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	var rules []gate.RuleDef
	if tierParam := r.URL.Query().Get("tier"); tierParam != "" {
		tier, ok := core.ParseRiskTier(tierParam)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown risk tier: "+tierParam)
			return
		}
		rules = gate.RulesForTier(tier)
	} else {
		rules = gate.Rules()
	}

	infos := make([]gate.RuleInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, rule.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
