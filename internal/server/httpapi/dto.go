package httpapi

import (
	"time"

	"github.com/dmitrijs2005/taskhub/internal/server/models"
)

type userDTO struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Role  string `json:"role"`
}

func toUser(u *models.User) userDTO {
	return userDTO{ID: u.ID, Login: u.Login, Role: string(u.Role)}
}

// sessionDTO leaves out the token id; it is enough to revoke the session.
type sessionDTO struct {
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func toSessions(list []*models.RefreshRecord) []sessionDTO {
	out := make([]sessionDTO, 0, len(list))
	for _, r := range list {
		out = append(out, sessionDTO{CreatedAt: r.CreatedAt, ExpiresAt: r.ExpiresAt})
	}
	return out
}

type authResponse struct {
	User        userDTO `json:"user"`
	AccessToken string  `json:"accessToken"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type fileDTO struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	TaskID       string    `json:"taskId"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedBy   string    `json:"uploadedBy,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func toFile(f *models.File) fileDTO {
	return fileDTO{
		ID:           f.ID,
		ProjectID:    f.ProjectID,
		TaskID:       f.TaskID,
		OriginalName: f.OriginalName,
		MimeType:     f.MimeType,
		Size:         f.Size,
		UploadedBy:   f.UploadedBy,
		UploadedAt:   f.UploadedAt,
	}
}

type taskDTO struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Assignee    string    `json:"assignee"`
	Attachments []fileDTO `json:"attachments"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTask(t *models.Task) taskDTO {
	out := taskDTO{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Assignee:    t.Assignee,
		Attachments: make([]fileDTO, 0, len(t.Attachments)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for i := range t.Attachments {
		out.Attachments = append(out.Attachments, toFile(&t.Attachments[i]))
	}
	return out
}

func toTasks(list []models.Task) []taskDTO {
	out := make([]taskDTO, 0, len(list))
	for i := range list {
		out = append(out, toTask(&list[i]))
	}
	return out
}

type projectDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Members     []string  `json:"members"`
	TasksCount  int       `json:"tasksCount"`
	Tasks       []taskDTO `json:"tasks,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProject(p *models.Project) projectDTO {
	members := p.Members
	if members == nil {
		members = []string{}
	}
	out := projectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Members:     members,
		TasksCount:  p.TasksCount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Tasks != nil {
		out.Tasks = toTasks(p.Tasks)
	}
	return out
}
