package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/dukerupert/footprint/internal/model"
	"github.com/dukerupert/footprint/internal/store"
	"github.com/dukerupert/footprint/internal/websocket"
)

var validRoles = map[string]bool{
	"admin":  true,
	"member": true,
}

type HouseholdHandler struct {
	households *store.HouseholdStore
	users      *store.UserStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, us *store.UserStore, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: hs, users: us, hub: hub, logger: logger}
}

func (h *HouseholdHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type householdRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Size      *int   `json:"household_size"`
	CreatedBy *int64 `json:"created_by"`
}

func (req *householdRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" {
		return "name is required"
	}
	if req.Size == nil {
		one := 1
		req.Size = &one
	}
	if *req.Size < 0 {
		return "household_size must not be negative"
	}
	return ""
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if req.CreatedBy != nil {
		u, err := h.users.GetByID(*req.CreatedBy)
		if err != nil {
			h.logger.Error("failed to get user", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get user")
			return
		}
		if u == nil {
			writeError(w, http.StatusBadRequest, "created_by user not found")
			return
		}
	}

	household, err := h.households.Create(req.Name, req.Address, *req.Size, req.CreatedBy)
	if err != nil {
		h.logger.Error("failed to create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}

	h.broadcast(websocket.NewMessage(household.ID, "household", "created", household.ID, nil))

	writeJSON(w, http.StatusCreated, household)
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	household, err := h.households.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.households.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Size == nil {
		req.Size = &existing.Size
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	household, err := h.households.Update(id, req.Name, req.Address, *req.Size)
	if err != nil {
		h.logger.Error("failed to update household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update household")
		return
	}

	h.broadcast(websocket.NewMessage(id, "household", "updated", id, nil))

	writeJSON(w, http.StatusOK, household)
}

// AddMember adds the user with the given email to the household, creating
// the user when the email is new.
func (h *HouseholdHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	household, err := h.households.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if req.Role == "" {
		req.Role = "member"
	}
	if !validRoles[req.Role] {
		writeError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}

	user, err := h.users.FindOrCreate(req.Email, strings.TrimSpace(req.Name))
	if err != nil {
		h.logger.Error("failed to find or create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}

	existing, err := h.households.GetMember(id, user.ID)
	if err != nil {
		h.logger.Error("failed to get member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "user is already a member of this household")
		return
	}

	member, err := h.households.AddMember(id, user.ID, req.Role)
	if err != nil {
		h.logger.Error("failed to add member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}

	h.broadcast(websocket.NewMessage(id, "member", "added", member.ID, map[string]any{"user_id": user.ID}))

	writeJSON(w, http.StatusCreated, member)
}

func (h *HouseholdHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	household, err := h.households.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if household == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	members, err := h.households.ListMembers(id)
	if err != nil {
		h.logger.Error("failed to list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.HouseholdMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *HouseholdHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	households, err := h.households.ListHouseholdsForUser(id)
	if err != nil {
		h.logger.Error("failed to list households", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list households")
		return
	}
	if households == nil {
		households = []model.Household{}
	}
	writeJSON(w, http.StatusOK, households)
}

func (h *HouseholdHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("failed to get user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "a user with that email already exists")
		return
	}

	user, err := h.users.Create(req.Email, strings.TrimSpace(req.Name))
	if err != nil {
		h.logger.Error("failed to create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}
