package handler

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/dukerupert/footprint/internal/footprint"
	"github.com/dukerupert/footprint/internal/model"
	"github.com/dukerupert/footprint/internal/websocket"
)

type FootprintHandler struct {
	engine *footprint.Engine
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewFootprintHandler(engine *footprint.Engine, hub *websocket.Hub, logger *slog.Logger) *FootprintHandler {
	return &FootprintHandler{engine: engine, hub: hub, logger: logger}
}

func (h *FootprintHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Compute calculates and stores the snapshot for calculation_date, or today
// when the body is empty or omits it.
func (h *FootprintHandler) Compute(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		CalculationDate string `json:"calculation_date"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	date, err := parseDate(req.CalculationDate, time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "calculation_date must be YYYY-MM-DD")
		return
	}

	fp, err := h.engine.ComputeFootprint(id, date)
	if err != nil {
		writeEngineError(w, h.logger, "calculate footprint", err)
		return
	}

	h.broadcastComputed(fp)

	writeJSON(w, http.StatusOK, fp)
}

func (h *FootprintHandler) Latest(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	fp, err := h.engine.Latest(id)
	if err != nil {
		writeEngineError(w, h.logger, "get footprint", err)
		return
	}
	writeJSON(w, http.StatusOK, fp)
}

// History lists snapshots between the from and to query dates, newest
// first. The range defaults to the year ending today.
func (h *FootprintHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	today := h.engine.Today()
	to, err := parseDate(r.URL.Query().Get("to"), today)
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	from, err := parseDate(r.URL.Query().Get("from"), to.AddDate(-1, 0, 0))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "from must not be after to")
		return
	}

	list, err := h.engine.History(id, from, to)
	if err != nil {
		writeEngineError(w, h.logger, "list footprints", err)
		return
	}
	if list == nil {
		list = []model.CarbonFootprint{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Summary serves the dashboard summary with a content-derived ETag so
// pollers get 304 until the snapshot changes.
func (h *FootprintHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	summary, err := h.engine.Summary(id)
	if err != nil {
		writeEngineError(w, h.logger, "build summary", err)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(summary); err != nil {
		writeEngineError(w, h.logger, "encode summary", err)
		return
	}
	etag := summaryETag(buf.Bytes())

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func summaryETag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func (h *FootprintHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	fp, err := h.engine.Latest(id)
	if err != nil {
		writeEngineError(w, h.logger, "get footprint", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"calculation_date": fp.CalculationDate.Format(model.DateLayout),
		"recommendations":  h.engine.Recommend(fp),
	})
}

func (h *FootprintHandler) PersonalizedTips(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	tips, err := h.engine.PersonalizedTips(id)
	if err != nil {
		writeEngineError(w, h.logger, "rank tips", err)
		return
	}
	writeJSON(w, http.StatusOK, tips)
}

// broadcastComputed announces a stored snapshot to the household's live
// clients.
func (h *FootprintHandler) broadcastComputed(fp *model.CarbonFootprint) {
	h.broadcast(websocket.NewMessage(fp.HouseholdID, "footprint", "computed", fp.ID, map[string]any{
		"calculation_date": fp.CalculationDate.Format(model.DateLayout),
		"total_emissions":  fp.TotalEmissions,
	}))
}

func (h *FootprintHandler) Impact(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	tipID, err := parsePathID(r, "tip_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tip_id")
		return
	}

	impact, err := h.engine.EstimateImpact(id, tipID)
	if err != nil {
		writeEngineError(w, h.logger, "estimate impact", err)
		return
	}
	if impact.Snapshot != nil {
		h.broadcastComputed(impact.Snapshot)
	}
	writeJSON(w, http.StatusOK, impact)
}

func (h *FootprintHandler) Baselines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Baselines())
}
