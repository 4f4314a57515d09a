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

// recentLimit is the number of records returned per activity list.
const recentLimit = 10

var validFrequencies = map[string]bool{
	"daily":   true,
	"weekly":  true,
	"monthly": true,
	"yearly":  true,
}

type ActivityHandler struct {
	activities *store.ActivityStore
	households *store.HouseholdStore
	hub        *websocket.Hub
	today      func() time.Time
	logger     *slog.Logger
}

// NewActivityHandler creates the activity entry handler. today supplies the
// default date for records that omit one.
func NewActivityHandler(as *store.ActivityStore, hs *store.HouseholdStore, hub *websocket.Hub, today func() time.Time, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activities: as, households: hs, hub: hub, today: today, logger: logger}
}

func (h *ActivityHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// household resolves the {id} path value to an existing household, writing
// the error response itself when it cannot.
func (h *ActivityHandler) household(w http.ResponseWriter, r *http.Request) (int64, bool) {
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

func validPercentage(p float64) bool {
	return p >= 0 && p <= 100
}

func (h *ActivityHandler) CreateEnergy(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}

	var req struct {
		EnergyType   string   `json:"energy_type"`
		Amount       float64  `json:"usage_amount"`
		Unit         string   `json:"unit"`
		BillAmount   *float64 `json:"bill_amount"`
		DateRecorded string   `json:"date_recorded"`
		CreatedBy    *int64   `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.EnergyType = strings.TrimSpace(req.EnergyType)
	if req.EnergyType == "" {
		writeError(w, http.StatusBadRequest, "energy_type is required")
		return
	}
	if req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "usage_amount must not be negative")
		return
	}
	if req.BillAmount != nil && *req.BillAmount < 0 {
		writeError(w, http.StatusBadRequest, "bill_amount must not be negative")
		return
	}
	date, err := parseDate(req.DateRecorded, h.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date_recorded must be YYYY-MM-DD")
		return
	}

	record, err := h.activities.CreateEnergy(model.EnergyUsage{
		HouseholdID:  hid,
		EnergyType:   req.EnergyType,
		Amount:       req.Amount,
		Unit:         strings.TrimSpace(req.Unit),
		BillAmount:   req.BillAmount,
		DateRecorded: date,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		h.logger.Error("failed to create energy usage", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create energy usage")
		return
	}

	h.broadcast(websocket.NewMessage(hid, "energy", "created", record.ID, nil))

	writeJSON(w, http.StatusCreated, record)
}

func (h *ActivityHandler) ListEnergy(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}
	records, err := h.activities.RecentEnergy(hid, recentLimit)
	if err != nil {
		h.logger.Error("failed to list energy usage", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list energy usage")
		return
	}
	if records == nil {
		records = []model.EnergyUsage{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *ActivityHandler) CreateTransportation(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}

	var req struct {
		TransportType  string   `json:"transport_type"`
		Distance       float64  `json:"distance"`
		Frequency      string   `json:"frequency"`
		FuelEfficiency *float64 `json:"fuel_efficiency"`
		DateRecorded   string   `json:"date_recorded"`
		CreatedBy      *int64   `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.TransportType = strings.TrimSpace(req.TransportType)
	if req.TransportType == "" {
		writeError(w, http.StatusBadRequest, "transport_type is required")
		return
	}
	if req.Distance < 0 {
		writeError(w, http.StatusBadRequest, "distance must not be negative")
		return
	}
	if req.Frequency == "" {
		req.Frequency = "daily"
	}
	if !validFrequencies[req.Frequency] {
		writeError(w, http.StatusBadRequest, "frequency must be daily, weekly, monthly, or yearly")
		return
	}
	date, err := parseDate(req.DateRecorded, h.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date_recorded must be YYYY-MM-DD")
		return
	}

	record, err := h.activities.CreateTransportation(model.Transportation{
		HouseholdID:    hid,
		TransportType:  req.TransportType,
		Distance:       req.Distance,
		Frequency:      req.Frequency,
		FuelEfficiency: req.FuelEfficiency,
		DateRecorded:   date,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		h.logger.Error("failed to create transportation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create transportation")
		return
	}

	h.broadcast(websocket.NewMessage(hid, "transportation", "created", record.ID, nil))

	writeJSON(w, http.StatusCreated, record)
}

func (h *ActivityHandler) ListTransportation(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}
	records, err := h.activities.RecentTransportation(hid, recentLimit)
	if err != nil {
		h.logger.Error("failed to list transportation", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list transportation")
		return
	}
	if records == nil {
		records = []model.Transportation{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *ActivityHandler) CreateDiet(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}

	var req struct {
		DietType       string  `json:"diet_type"`
		FoodCategory   string  `json:"food_category"`
		WeeklyServings float64 `json:"weekly_consumption"`
		LocalPct       float64 `json:"local_sourced_percentage"`
		OrganicPct     float64 `json:"organic_percentage"`
		DateRecorded   string  `json:"date_recorded"`
		CreatedBy      *int64  `json:"created_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.FoodCategory = strings.TrimSpace(req.FoodCategory)
	if req.FoodCategory == "" {
		writeError(w, http.StatusBadRequest, "food_category is required")
		return
	}
	if req.WeeklyServings < 0 {
		writeError(w, http.StatusBadRequest, "weekly_consumption must not be negative")
		return
	}
	if !validPercentage(req.LocalPct) || !validPercentage(req.OrganicPct) {
		writeError(w, http.StatusBadRequest, "percentages must be between 0 and 100")
		return
	}
	date, err := parseDate(req.DateRecorded, h.today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date_recorded must be YYYY-MM-DD")
		return
	}

	record, err := h.activities.CreateDiet(model.DietEntry{
		HouseholdID:    hid,
		DietType:       strings.TrimSpace(req.DietType),
		FoodCategory:   req.FoodCategory,
		WeeklyServings: req.WeeklyServings,
		LocalPct:       req.LocalPct,
		OrganicPct:     req.OrganicPct,
		DateRecorded:   date,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		h.logger.Error("failed to create diet entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create diet entry")
		return
	}

	h.broadcast(websocket.NewMessage(hid, "diet", "created", record.ID, nil))

	writeJSON(w, http.StatusCreated, record)
}

func (h *ActivityHandler) ListDiet(w http.ResponseWriter, r *http.Request) {
	hid, ok := h.household(w, r)
	if !ok {
		return
	}
	records, err := h.activities.RecentDiet(hid, recentLimit)
	if err != nil {
		h.logger.Error("failed to list diet entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list diet entries")
		return
	}
	if records == nil {
		records = []model.DietEntry{}
	}
	writeJSON(w, http.StatusOK, records)
}
