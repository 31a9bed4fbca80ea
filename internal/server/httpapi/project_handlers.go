package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/taskhub/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type projectRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Members     *[]string `json:"members"`
}

func (h *handler) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.Projects.List(r.Context(), caller(r))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	out := make([]projectDTO, 0, len(list))
	for _, p := range list {
		out = append(out, toProject(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Projects.Get(r.Context(), caller(r), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProject(p))
}

func (h *handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	in := services.ProjectInput{}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Members != nil {
		in.Members = *req.Members
	}

	p, err := h.Projects.Create(r.Context(), caller(r), in)
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProject(p))
}

func (h *handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	p, err := h.Projects.Update(r.Context(), caller(r), chi.URLParam(r, "projectID"), services.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Members:     req.Members,
	})
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProject(p))
}

func (h *handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Projects.Delete(r.Context(), caller(r), chi.URLParam(r, "projectID")); err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) addMember(w http.ResponseWriter, r *http.Request) {
	err := h.Projects.AddMember(r.Context(), caller(r), chi.URLParam(r, "projectID"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) removeMember(w http.ResponseWriter, r *http.Request) {
	err := h.Projects.RemoveMember(r.Context(), caller(r), chi.URLParam(r, "projectID"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
