package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"formgrid/internal/domain"
)

func (h *Handler) createResource(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   string                   `json:"name"`
		Fields []domain.FieldDescriptor `json:"fields"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	res, err := h.resources.Create(r.Context(), domain.CreateResourceRequest{
		Name:   body.Name,
		Fields: body.Fields,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) listResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resources.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": resources})
}

func (h *Handler) getResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.resources.Get(r.Context(), chi.URLParam(r, "resourceID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) editResourceFields(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Fields []domain.FieldDescriptor `json:"fields"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	res, err := h.resources.EditFields(r.Context(), chi.URLParam(r, "resourceID"), body.Fields)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) deleteResource(w http.ResponseWriter, r *http.Request) {
	if err := h.resources.Delete(r.Context(), chi.URLParam(r, "resourceID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createForm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   string                   `json:"name"`
		Core   bool                     `json:"core"`
		Fields []domain.FieldDescriptor `json:"fields"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	form, err := h.forms.Create(r.Context(), domain.CreateFormRequest{
		ResourceID: chi.URLParam(r, "resourceID"),
		Name:       body.Name,
		Core:       body.Core,
		Fields:     body.Fields,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

func (h *Handler) listForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.ListForResource(r.Context(), chi.URLParam(r, "resourceID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": forms})
}

func (h *Handler) getForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.Get(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handler) deleteForm(w http.ResponseWriter, r *http.Request) {
	if err := h.forms.Delete(r.Context(), chi.URLParam(r, "formID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
