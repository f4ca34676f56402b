package handler

import (
	"log/slog"
	"net/http"

	"github.com/rbfontana/acolhe/internal/cep"
)

type CEPHandler struct {
	service *cep.Service
	logger  *slog.Logger
}

func NewCEPHandler(service *cep.Service, logger *slog.Logger) *CEPHandler {
	return &CEPHandler{service: service, logger: logger}
}

// Lookup resolves a postal code to an address for form autofill. A
// failed lookup is only advisory: the client fills the fields by hand
// and saves anyway.
func (h *CEPHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	addr, err := h.service.Lookup(r.PathValue("cep"))
	switch err {
	case nil:
		writeJSON(w, http.StatusOK, addr)
	case cep.ErrInvalidCEP:
		errorJSON(w, http.StatusBadRequest, "invalid_cep", "cep must be 8 digits")
	case cep.ErrCEPNotFound:
		errorJSON(w, http.StatusNotFound, "cep_not_found", "cep not found")
	default:
		h.logger.Error("cep lookup", "error", err)
		errorJSON(w, http.StatusBadGateway, "cep_unavailable", "cep service unavailable")
	}
}
