package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
)

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type credentialsFunc func(ctx context.Context, login, password string) (*services.AuthResult, error)

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, http.StatusCreated, h.Sessions.Register)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	h.authenticate(w, r, http.StatusOK, h.Sessions.Login)
}

func (h *handler) authenticate(w http.ResponseWriter, r *http.Request, status int, fn credentialsFunc) {
	var req credentialsRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	res, err := fn(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}

	h.Cookie.set(w, res.RefreshToken)
	writeJSON(w, status, authResponse{User: toUser(res.User), AccessToken: res.AccessToken})
}

// refresh redeems the refresh cookie. A failed redemption clears the cookie.
func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshFromRequest(r)
	if token == "" {
		writeError(r.Context(), w, h.Log, common.ErrUnauthenticated)
		return
	}

	res, err := h.Sessions.Refresh(r.Context(), token)
	if err != nil {
		h.Cookie.clear(w)
		writeError(r.Context(), w, h.Log, err)
		return
	}

	h.Cookie.set(w, res.RefreshToken)
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: res.AccessToken})
}

// logout always clears the cookie and answers 204; a stale or foreign token
// is not an error for the client.
func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if token := refreshFromRequest(r); token != "" {
		if err := h.Sessions.Logout(r.Context(), token); err != nil {
			h.Log.Debug(r.Context(), "logout without active session", "error", err)
		}
	}
	h.Cookie.clear(w)
	w.WriteHeader(http.StatusNoContent)
}
