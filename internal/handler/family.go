package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/report"
	"github.com/rbfontana/acolhe/internal/store"
)

type FamilyHandler struct {
	familyStore   *store.FamilyStore
	donationStore *store.DonationStore
	broadcast     *Broadcaster
	logger        *slog.Logger
}

func NewFamilyHandler(fs *store.FamilyStore, ds *store.DonationStore, b *Broadcaster, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{familyStore: fs, donationStore: ds, broadcast: b, logger: logger}
}

type familyRequest struct {
	ResponsibleName string               `json:"responsible_name"`
	Members         []model.FamilyMember `json:"members"`
	Phone           string               `json:"phone"`
	Email           string               `json:"email"`
	CEP             string               `json:"cep"`
	Address         string               `json:"address"`
	Neighborhood    string               `json:"neighborhood"`
	City            string               `json:"city"`
	State           string               `json:"state"`
	Complement      string               `json:"complement"`
	Number          string               `json:"number"`
	Observations    string               `json:"observations"`
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_json", "invalid JSON")
		return
	}

	req.ResponsibleName = strings.TrimSpace(req.ResponsibleName)
	if req.ResponsibleName == "" {
		errorJSON(w, http.StatusBadRequest, "missing_field", "responsible_name is required")
		return
	}

	family, err := h.familyStore.Create(model.Family{
		ResponsibleName: req.ResponsibleName,
		Members:         req.Members,
		Phone:           req.Phone,
		Email:           req.Email,
		CEP:             req.CEP,
		Address:         req.Address,
		Neighborhood:    req.Neighborhood,
		City:            req.City,
		State:           req.State,
		Complement:      req.Complement,
		Number:          req.Number,
		Observations:    req.Observations,
	})
	if err != nil {
		h.logger.Error("create family", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to create family")
		return
	}

	h.broadcast.Families()
	writeJSON(w, http.StatusCreated, family)
}

// List returns families, optionally narrowed by ?search=, ?status=
// (recent, moderate, attention) and ?neighborhood=.
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	families, err := h.familyStore.List()
	if err != nil {
		h.logger.Error("list families", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to list families")
		return
	}

	q := r.URL.Query()
	filter := report.Filter{
		Search:       q.Get("search"),
		Neighborhood: q.Get("neighborhood"),
	}
	switch q.Get("status") {
	case "":
	case string(report.StatusRecent):
		filter.Status = report.StatusRecent
	case string(report.StatusModerate):
		filter.Status = report.StatusModerate
	case string(report.StatusAttention):
		filter.Status = report.StatusAttention
	default:
		errorJSON(w, http.StatusBadRequest, "invalid_status", "status must be recent, moderate or attention")
		return
	}

	writeJSON(w, http.StatusOK, report.FilterFamilies(families, filter, time.Now().UTC()))
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	family, err := h.familyStore.GetByID(id)
	if err != nil {
		h.logger.Error("get family", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to get family")
		return
	}
	if family == nil {
		errorJSON(w, http.StatusNotFound, "not_found", "family not found")
		return
	}
	writeJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var req struct {
		ResponsibleName *string               `json:"responsible_name"`
		Members         *[]model.FamilyMember `json:"members"`
		Phone           *string               `json:"phone"`
		Email           *string               `json:"email"`
		CEP             *string               `json:"cep"`
		Address         *string               `json:"address"`
		Neighborhood    *string               `json:"neighborhood"`
		City            *string               `json:"city"`
		State           *string               `json:"state"`
		Complement      *string               `json:"complement"`
		Number          *string               `json:"number"`
		Observations    *string               `json:"observations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_json", "invalid JSON")
		return
	}

	if req.ResponsibleName != nil {
		trimmed := strings.TrimSpace(*req.ResponsibleName)
		if trimmed == "" {
			errorJSON(w, http.StatusBadRequest, "missing_field", "responsible_name cannot be empty")
			return
		}
		req.ResponsibleName = &trimmed
	}

	family, err := h.familyStore.Update(id, store.FamilyUpdate{
		ResponsibleName: req.ResponsibleName,
		Members:         req.Members,
		Phone:           req.Phone,
		Email:           req.Email,
		CEP:             req.CEP,
		Address:         req.Address,
		Neighborhood:    req.Neighborhood,
		City:            req.City,
		State:           req.State,
		Complement:      req.Complement,
		Number:          req.Number,
		Observations:    req.Observations,
	})
	if err == store.ErrNotFound {
		errorJSON(w, http.StatusNotFound, "not_found", "family not found")
		return
	}
	if err != nil {
		h.logger.Error("update family", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to update family")
		return
	}

	h.broadcast.Families()
	writeJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	err = h.familyStore.Delete(id)
	if err == store.ErrNotFound {
		errorJSON(w, http.StatusNotFound, "not_found", "family not found")
		return
	}
	if err != nil {
		h.logger.Error("delete family", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to delete family")
		return
	}

	h.broadcast.Families()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListDonations returns the family's donation history, newest first.
// History survives the family itself, so this works for deleted families
// too.
func (h *FamilyHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	donations, err := h.donationStore.ListByFamily(id)
	if err != nil {
		h.logger.Error("list family donations", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to list donations")
		return
	}
	if donations == nil {
		donations = []model.Donation{}
	}
	writeJSON(w, http.StatusOK, donations)
}
