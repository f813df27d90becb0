package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tobinmarsh/reelnight/internal/backup"
	"github.com/tobinmarsh/reelnight/internal/store"
)

type BackupHandler struct {
	manager *backup.Manager
	backups *store.BackupStore
	logger  *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{
		manager: m,
		backups: bs,
		logger:  logger.With("component", "backup"),
	}
}

// Run triggers an immediate backup. Admin only; routed behind RequireAdmin.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "backups not configured")
		return
	}

	id, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	record, err := h.backups.GetByID(id)
	if err != nil || record == nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// List returns recent backup records.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.backups.ListRecent(20)
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Restore replaces the live database with a decrypted backup. The response
// tells the operator to restart, since open connections still point at the
// old file.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	backupID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup id")
		return
	}

	if !h.manager.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "backups not configured")
		return
	}

	if err := h.manager.Restore(r.Context(), backupID); err != nil {
		h.logger.Error("restore backup", "backup_id", backupID, "error", err)
		writeError(w, http.StatusInternalServerError, "restore failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "restored",
		"message": "database restored; restart the server to load it",
	})
}

// Download streams the encrypted backup file.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	backupID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup id")
		return
	}

	body, size, err := h.manager.Download(r.Context(), backupID)
	if err != nil {
		writeError(w, http.StatusNotFound, "backup not found")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="backup-%d.db.enc"`, backupID))
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("stream backup", "backup_id", backupID, "error", err)
	}
}
