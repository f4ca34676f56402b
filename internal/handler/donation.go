package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/store"
)

type DonationHandler struct {
	donationStore *store.DonationStore
	broadcast     *Broadcaster
	logger        *slog.Logger
}

func NewDonationHandler(ds *store.DonationStore, b *Broadcaster, logger *slog.Logger) *DonationHandler {
	return &DonationHandler{donationStore: ds, broadcast: b, logger: logger}
}

type donationRequest struct {
	FamilyID     int64  `json:"family_id"`
	DonationType string `json:"donation_type"`
	Quantity     string `json:"quantity"`
	Date         string `json:"date"`
	Responsible  string `json:"responsible"`
	Observations string `json:"observations"`
}

// parseDonationDate accepts the date-only form used by the console and
// full RFC 3339 timestamps.
func parseDonationDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (h *DonationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_json", "invalid JSON")
		return
	}

	if req.FamilyID == 0 {
		errorJSON(w, http.StatusBadRequest, "missing_field", "family_id is required")
		return
	}
	req.DonationType = strings.TrimSpace(req.DonationType)
	if !model.ValidDonationType(req.DonationType) {
		errorJSON(w, http.StatusBadRequest, "invalid_type", "unknown donation type")
		return
	}
	date, err := parseDonationDate(req.Date)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	donation, err := h.donationStore.Create(model.Donation{
		FamilyID:     req.FamilyID,
		DonationType: req.DonationType,
		Quantity:     req.Quantity,
		Date:         date,
		Responsible:  req.Responsible,
		Observations: req.Observations,
	})
	if err == store.ErrFamilyNotFound {
		errorJSON(w, http.StatusNotFound, "family_not_found", "family not found")
		return
	}
	if err != nil {
		h.logger.Error("create donation", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to create donation")
		return
	}

	// The family's last-donation field may have moved; refresh both views.
	h.broadcast.All()
	writeJSON(w, http.StatusCreated, donation)
}

// List returns donations newest first, optionally narrowed by
// ?family_id=.
func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	var donations []model.Donation
	var err error

	if familyParam := r.URL.Query().Get("family_id"); familyParam != "" {
		familyID, parseErr := strconv.ParseInt(familyParam, 10, 64)
		if parseErr != nil {
			errorJSON(w, http.StatusBadRequest, "invalid_id", "invalid family_id")
			return
		}
		donations, err = h.donationStore.ListByFamily(familyID)
	} else {
		donations, err = h.donationStore.List()
	}
	if err != nil {
		h.logger.Error("list donations", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to list donations")
		return
	}
	if donations == nil {
		donations = []model.Donation{}
	}
	writeJSON(w, http.StatusOK, donations)
}

func (h *DonationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	err = h.donationStore.Delete(id)
	if err == store.ErrNotFound {
		errorJSON(w, http.StatusNotFound, "not_found", "donation not found")
		return
	}
	if err != nil {
		h.logger.Error("delete donation", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to delete donation")
		return
	}

	h.broadcast.All()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Types returns the fixed donation categories the console offers.
func (h *DonationHandler) Types(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.DonationTypes)
}
