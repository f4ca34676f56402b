package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/rbfontana/acolhe/internal/backup"
	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/store"
)

const backupListLimit = 50

type BackupHandler struct {
	manager     *backup.Manager
	backupStore *store.BackupStore
	logger      *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: m, backupStore: bs, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backupStore.List(backupListLimit)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "failed to list backups")
		return
	}
	if backups == nil {
		backups = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, backups)
}

// Run triggers an immediate backup.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		errorJSON(w, http.StatusServiceUnavailable, "backup_disabled", "backups are not configured")
		return
	}

	id, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("run backup", "error", err)
		errorJSON(w, http.StatusInternalServerError, "backup_failed", "backup failed")
		return
	}

	record, err := h.backupStore.GetByID(id)
	if err != nil || record == nil {
		h.logger.Error("load backup record", "error", err)
		errorJSON(w, http.StatusInternalServerError, "store_error", "backup ran but record is missing")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Download streams the encrypted backup object.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	body, size, err := h.manager.Download(r.Context(), id)
	if err != nil {
		h.logger.Error("download backup", "error", err)
		errorJSON(w, http.StatusInternalServerError, "backup_failed", "download failed")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=backup-%d.db.enc", id))
	io.Copy(w, body)
}
