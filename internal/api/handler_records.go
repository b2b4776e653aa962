package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"formgrid/internal/domain"
	"formgrid/internal/filter"
	"formgrid/internal/service"
)

// queryRecordsBody is the request body for the record query endpoint.
type queryRecordsBody struct {
	Filter       filter.Node `json:"filter"`
	FormID       string      `json:"formId,omitempty"`
	PageSize     int         `json:"pageSize,omitempty"`
	AfterCursor  string      `json:"afterCursor,omitempty"`
	ArchivedOnly bool        `json:"archived,omitempty"`
}

func (h *Handler) queryRecords(w http.ResponseWriter, r *http.Request) {
	var body queryRecordsBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	page, err := h.records.Query(r.Context(), service.QueryRequest{
		ResourceID:   chi.URLParam(r, "resourceID"),
		FormID:       body.FormID,
		Filter:       body.Filter,
		PageSize:     body.PageSize,
		AfterCursor:  body.AfterCursor,
		ArchivedOnly: body.ArchivedOnly,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) addRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	rec, err := h.records.Add(r.Context(), domain.AddRecordRequest{
		ResourceID: chi.URLParam(r, "resourceID"),
		Data:       body.Data,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.records.Get(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) editRecord(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	rec, err := h.records.Edit(r.Context(), domain.EditRecordRequest{
		RecordID: chi.URLParam(r, "recordID"),
		Data:     body.Data,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) archiveRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Archive(r.Context(), chi.URLParam(r, "recordID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) restoreRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Restore(r.Context(), chi.URLParam(r, "recordID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Delete(r.Context(), chi.URLParam(r, "recordID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportRecords(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Filter filter.Node `json:"filter"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)
	if err := h.export.ExportCSV(r.Context(), w, chi.URLParam(r, "resourceID"), body.Filter); err != nil {
		// Headers may already be flushed; log instead of rewriting the status.
		h.logger.Error("csv export failed", "error", err)
	}
}
