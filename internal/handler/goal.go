package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/footprint/internal/model"
	"github.com/dukerupert/footprint/internal/store"
	"github.com/dukerupert/footprint/internal/websocket"
)

type GoalHandler struct {
	goals      *store.GoalStore
	tips       *store.TipStore
	households *store.HouseholdStore
	hub        *websocket.Hub
	today      func() time.Time
	logger     *slog.Logger
}

func NewGoalHandler(gs *store.GoalStore, ts *store.TipStore, hs *store.HouseholdStore, hub *websocket.Hub, today func() time.Time, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: gs, tips: ts, households: hs, hub: hub, today: today, logger: logger}
}

func (h *GoalHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *GoalHandler) household(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	household, err := h.households.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return 0, false
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return 0, false
	}
	return id, true
}

// goal resolves {goal_id} to a goal owned by household hid.
func (h *GoalHandler) goal(w http.ResponseWriter, r *http.Request, hid int64) (*model.ReductionGoal, bool) {
	goalID, err := parsePathID(r, "goal_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal_id")
		return nil, false
	}
	g, err := h.goals.GetByID(goalID)
	if err != nil {
		h.logger.Error("failed to get goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get goal")
		return nil, false
	}
	if g == nil || g.HouseholdID != hid {
		writeError(w, http.StatusNotFound, "goal not found")
		return nil, false
	}
	return g, true
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}

	var req struct {
		TipID      int64  `json:"reduction_tip_id"`
		TargetDate string `json:"target_date"`
		Notes      string `json:"notes"`
		CreatedBy  *int64 `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.TipID <= 0 {
		writeError(w, http.StatusBadRequest, "reduction_tip_id is required")
		return
	}
	if strings.TrimSpace(req.TargetDate) == "" {
		writeError(w, http.StatusBadRequest, "target_date is required")
		return
	}
	target, err := parseDate(req.TargetDate, time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "target_date must be YYYY-MM-DD")
		return
	}

	tip, err := h.tips.GetByID(req.TipID)
	if err != nil {
		h.logger.Error("failed to get tip", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get tip")
		return
	}
	if tip == nil {
		writeError(w, http.StatusNotFound, "tip not found")
		return
	}

	goal, err := h.goals.Create(model.ReductionGoal{
		HouseholdID: hid,
		TipID:       tip.ID,
		TargetDate:  target,
		Notes:       strings.TrimSpace(req.Notes),
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		h.logger.Error("failed to create goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create goal")
		return
	}

	h.broadcast(websocket.NewMessage(hid, "goal", "created", goal.ID, nil))

	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}
	goals, err := h.goals.List(hid)
	if err != nil {
		h.logger.Error("failed to list goals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list goals")
		return
	}
	if goals == nil {
		goals = []model.ReductionGoal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Complete(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}
	g, ok := h.goal(w, r, hid)
	if !ok {
		return
	}

	goal, err := h.goals.Complete(g.ID, h.today())
	if err != nil {
		h.logger.Error("failed to complete goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to complete goal")
		return
	}

	h.broadcast(websocket.NewMessage(hid, "goal", "completed", goal.ID, nil))

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}
	g, ok := h.goal(w, r, hid)
	if !ok {
		return
	}

	if err := h.goals.Delete(g.ID); err != nil {
		h.logger.Error("failed to delete goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete goal")
		return
	}

	h.broadcast(websocket.NewMessage(hid, "goal", "deleted", g.ID, nil))

	w.WriteHeader(http.StatusNoContent)
}
