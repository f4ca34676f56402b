package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/report"
	"github.com/rbfontana/acolhe/internal/store"
)

type ReportHandler struct {
	familyStore   *store.FamilyStore
	donationStore *store.DonationStore
	logger        *slog.Logger
}

func NewReportHandler(fs *store.FamilyStore, ds *store.DonationStore, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{familyStore: fs, donationStore: ds, logger: logger}
}

func (h *ReportHandler) load(w http.ResponseWriter) ([]model.Family, []model.Donation, bool) {
	families, err := h.familyStore.List()
	if err != nil {
		h.logger.Error("list families", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to load report data")
		return nil, nil, false
	}
	donations, err := h.donationStore.List()
	if err != nil {
		h.logger.Error("list donations", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to load report data")
		return nil, nil, false
	}
	return families, donations, true
}

// Summary returns the dashboard headline counters.
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	families, donations, ok := h.load(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(families, donations, time.Now().UTC()))
}

// TypeStats returns the top donation types with rounded percentages.
func (h *ReportHandler) TypeStats(w http.ResponseWriter, r *http.Request) {
	_, donations, ok := h.load(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.TypeStats(donations))
}

// Attention returns the families longest without a donation.
func (h *ReportHandler) Attention(w http.ResponseWriter, r *http.Request) {
	families, _, ok := h.load(w)
	if !ok {
		return
	}
	out := report.NeedingAttention(families, time.Now().UTC())
	if out == nil {
		out = []model.Family{}
	}
	writeJSON(w, http.StatusOK, out)
}

// Recent returns the latest donations.
func (h *ReportHandler) Recent(w http.ResponseWriter, r *http.Request) {
	_, donations, ok := h.load(w)
	if !ok {
		return
	}
	out := report.RecentDonations(donations)
	if out == nil {
		out = []model.Donation{}
	}
	writeJSON(w, http.StatusOK, out)
}

// Neighborhoods returns the distinct neighborhoods for filter dropdowns.
func (h *ReportHandler) Neighborhoods(w http.ResponseWriter, r *http.Request) {
	families, err := h.familyStore.List()
	if err != nil {
		h.logger.Error("list families", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to load neighborhoods")
		return
	}
	out := report.Neighborhoods(families)
	if out == nil {
		out = []string{}
	}
	writeJSON(w, http.StatusOK, out)
}
