package httpapi

import (
	"encoding/base64"
	"net/http"

	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Assignee    *string `json:"assignee"`
	Status      *string `json:"status"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *handler) listTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.Tasks.List(r.Context(), caller(r), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTasks(list))
}

func (h *handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	t, err := h.Tasks.Create(r.Context(), caller(r), chi.URLParam(r, "projectID"), services.TaskInput{
		Title:       deref(req.Title),
		Description: deref(req.Description),
		Assignee:    deref(req.Assignee),
		Status:      models.TaskStatus(deref(req.Status)),
	})
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTask(t))
}

func (h *handler) updateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, maxJSONBody, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	patch := services.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Assignee:    req.Assignee,
	}
	if req.Status != nil {
		s := models.TaskStatus(*req.Status)
		patch.Status = &s
	}

	t, err := h.Tasks.Update(r.Context(), caller(r), chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"), patch)
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTask(t))
}

func (h *handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Tasks.Delete(r.Context(), caller(r), chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID")); err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadRequest carries the attachment as base64 in Content.
type uploadRequest struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Size    *int64 `json:"size"`
	Content string `json:"content"`
}

type downloadResponse struct {
	URL  string  `json:"url"`
	File fileDTO `json:"file"`
}

// uploadFile turns away anonymous callers before reading the body; project
// access is checked by the service once the content is decoded.
func (h *handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.RequireAuthenticated(caller(r)); err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}

	limit := int64(maxJSONBody)
	if h.MaxUploadSize > 0 {
		limit += int64(base64.StdEncoding.EncodedLen(int(h.MaxUploadSize)))
	}

	var req uploadRequest
	if err := decodeJSON(w, r, limit, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		badRequest(w, "invalid file content")
		return
	}

	f, err := h.Files.Upload(r.Context(), caller(r), chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"), services.UploadInput{
		Name:     req.Name,
		MimeType: req.Type,
		Size:     req.Size,
		Content:  content,
	})
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFile(f))
}

func (h *handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	url, f, err := h.Files.DownloadURL(r.Context(), caller(r),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{URL: url, File: toFile(f)})
}

func (h *handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	err := h.Files.Delete(r.Context(), caller(r),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "taskID"), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(r.Context(), w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
