package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/footprint/internal/model"
	"github.com/dukerupert/footprint/internal/store"
)

var validCategories = map[string]bool{
	model.CategoryEnergy:         true,
	model.CategoryTransportation: true,
	model.CategoryDiet:           true,
}

// CatalogHandler serves the reduction tip and emission factor catalogs.
type CatalogHandler struct {
	tips    *store.TipStore
	factors *store.EmissionFactorStore
	logger  *slog.Logger
}

func NewCatalogHandler(ts *store.TipStore, fs *store.EmissionFactorStore, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{tips: ts, factors: fs, logger: logger}
}

func (h *CatalogHandler) ListTips(w http.ResponseWriter, r *http.Request) {
	tips, err := h.tips.ListActive()
	if err != nil {
		h.logger.Error("failed to list tips", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tips")
		return
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := tips[:0]
		for _, t := range tips {
			if t.Category == category {
				filtered = append(filtered, t)
			}
		}
		tips = filtered
	}
	if tips == nil {
		tips = []model.ReductionTip{}
	}
	writeJSON(w, http.StatusOK, tips)
}

func (h *CatalogHandler) GetTip(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	tip, err := h.tips.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get tip", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get tip")
		return
	}
	if tip == nil {
		writeError(w, http.StatusNotFound, "tip not found")
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

func (h *CatalogHandler) ListFactors(w http.ResponseWriter, r *http.Request) {
	factors, err := h.factors.ListActive()
	if err != nil {
		h.logger.Error("failed to list emission factors", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list emission factors")
		return
	}
	if factors == nil {
		factors = []model.EmissionFactor{}
	}
	writeJSON(w, http.StatusOK, factors)
}

// CreateFactor stores an override factor, retiring any active factor with
// the same category and name. The engine consults active rows before its
// built-in table, so the new value applies to the next computation.
func (h *CatalogHandler) CreateFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string  `json:"name"`
		Category string  `json:"category"`
		Value    float64 `json:"factor_value"`
		Unit     string  `json:"unit"`
		Source   string  `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !validCategories[req.Category] {
		writeError(w, http.StatusBadRequest, "category must be energy, transportation, or diet")
		return
	}
	if req.Value < 0 {
		writeError(w, http.StatusBadRequest, "factor_value must not be negative")
		return
	}
	if strings.TrimSpace(req.Unit) == "" {
		writeError(w, http.StatusBadRequest, "unit is required")
		return
	}

	factor, err := h.factors.Supersede(model.EmissionFactor{
		Name:     req.Name,
		Category: req.Category,
		Value:    req.Value,
		Unit:     strings.TrimSpace(req.Unit),
		Source:   strings.TrimSpace(req.Source),
	})
	if err != nil {
		h.logger.Error("failed to create emission factor", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create emission factor")
		return
	}
	writeJSON(w, http.StatusCreated, factor)
}
