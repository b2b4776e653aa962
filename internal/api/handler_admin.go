package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"formgrid/internal/domain"
)

// roleRuleBody is the wire shape of one role rule.
type roleRuleBody struct {
	Action     string          `json:"action"`
	Subject    string          `json:"subject"`
	ResourceID string          `json:"resourceId,omitempty"`
	Condition  json.RawMessage `json:"condition,omitempty"`
	Fields     []string        `json:"fields,omitempty"`
}

func (b roleRuleBody) toDomain() domain.RoleRule {
	return domain.RoleRule{
		Action:     b.Action,
		Subject:    b.Subject,
		ResourceID: b.ResourceID,
		Condition:  b.Condition,
		Fields:     b.Fields,
	}
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string         `json:"name"`
		Rules []roleRuleBody `json:"rules"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	rules := make([]domain.RoleRule, len(body.Rules))
	for i, rule := range body.Rules {
		rules[i] = rule.toDomain()
	}
	role, err := h.roles.Create(r.Context(), domain.CreateRoleRequest{
		Name:  body.Name,
		Rules: rules,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": roles})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.roles.Get(r.Context(), chi.URLParam(r, "roleID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *Handler) addRoleRule(w http.ResponseWriter, r *http.Request) {
	var body roleRuleBody
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	role, err := h.roles.AddRule(r.Context(), chi.URLParam(r, "roleID"), body.toDomain())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.roles.Delete(r.Context(), chi.URLParam(r, "roleID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string   `json:"name"`
		Email   string   `json:"email"`
		IsAdmin bool     `json:"isAdmin"`
		RoleIDs []string `json:"roleIds,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	user, err := h.roles.CreateUser(r.Context(), body.Name, body.Email, body.IsAdmin, body.RoleIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	if err := h.roles.AssignRole(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "roleID")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createPullJob(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		Schedule string `json:"schedule"`
		Path     string `json:"path,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	job, err := h.pullJobs.Create(r.Context(), domain.CreatePullJobRequest{
		Name:       body.Name,
		ResourceID: chi.URLParam(r, "resourceID"),
		URL:        body.URL,
		Schedule:   body.Schedule,
		Path:       body.Path,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (h *Handler) listPullJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.pullJobs.ListActive(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": jobs})
}
