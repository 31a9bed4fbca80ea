package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Me(r.Context(), caller(r))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (h *handler) mySessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.Sessions(r.Context(), caller(r))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessions(list))
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.List(r.Context(), caller(r))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	out := make([]userDTO, 0, len(list))
	for _, u := range list {
		out = append(out, toUser(u))
	}
	writeJSON(w, http.StatusOK, out)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *handler) setRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	u, err := h.Users.SetRole(r.Context(), caller(r), chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toUser(u))
}

func (h *handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.LogoutEverywhere(r.Context(), caller(r), chi.URLParam(r, "userID")); err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
