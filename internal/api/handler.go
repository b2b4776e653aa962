// Package api provides HTTP handlers for the formgrid REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"formgrid/internal/service"
)

// Handler bundles the services behind the REST API.
type Handler struct {
	records   *service.RecordService
	resources *service.ResourceService
	forms     *service.FormService
	roles     *service.RoleService
	pullJobs  *service.PullJobService
	export    *service.ExportService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required service dependencies.
func NewHandler(
	records *service.RecordService,
	resources *service.ResourceService,
	forms *service.FormService,
	roles *service.RoleService,
	pullJobs *service.PullJobService,
	export *service.ExportService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		records:   records,
		resources: resources,
		forms:     forms,
		roles:     roles,
		pullJobs:  pullJobs,
		export:    export,
		logger:    logger.With("component", "api"),
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
		writeJSON(w, status, map[string]any{"code": status, "message": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]any{"code": status, "message": err.Error()})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
