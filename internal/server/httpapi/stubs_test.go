package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
)

type stubSessions struct {
	register         func(ctx context.Context, login, password string) (*services.AuthResult, error)
	login            func(ctx context.Context, login, password string) (*services.AuthResult, error)
	refresh          func(ctx context.Context, token string) (*services.AuthResult, error)
	logout           func(ctx context.Context, token string) error
	logoutEverywhere func(ctx context.Context, caller auth.Identity, userID string) error
}

func (s *stubSessions) Register(ctx context.Context, login, password string) (*services.AuthResult, error) {
	return s.register(ctx, login, password)
}

func (s *stubSessions) Login(ctx context.Context, login, password string) (*services.AuthResult, error) {
	return s.login(ctx, login, password)
}

func (s *stubSessions) Refresh(ctx context.Context, token string) (*services.AuthResult, error) {
	return s.refresh(ctx, token)
}

func (s *stubSessions) Logout(ctx context.Context, token string) error {
	return s.logout(ctx, token)
}

func (s *stubSessions) LogoutEverywhere(ctx context.Context, caller auth.Identity, userID string) error {
	return s.logoutEverywhere(ctx, caller, userID)
}

// stubUsers answers from the caller identity alone.
type stubUsers struct {
	setRoleCalls []string
}

func (s *stubUsers) Me(_ context.Context, caller auth.Identity) (*models.User, error) {
	if _, err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	return &models.User{ID: caller.UserID, Login: "login-" + caller.UserID, Role: caller.Role}, nil
}

func (s *stubUsers) Sessions(_ context.Context, caller auth.Identity) ([]*models.RefreshRecord, error) {
	if _, err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*models.RefreshRecord{{
		TokenID:   "jti-1",
		UserID:    caller.UserID,
		CreatedAt: created,
		ExpiresAt: created.Add(time.Hour),
	}}, nil
}

func (s *stubUsers) List(_ context.Context, caller auth.Identity) ([]*models.User, error) {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	return []*models.User{{ID: "u1", Login: "alice", Role: models.RoleMember}}, nil
}

func (s *stubUsers) SetRole(_ context.Context, caller auth.Identity, userID, role string) (*models.User, error) {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	s.setRoleCalls = append(s.setRoleCalls, userID+":"+role)
	r, err := models.ParseRole(role)
	if err != nil {
		return nil, common.ErrValidation
	}
	return &models.User{ID: userID, Login: "x", Role: r}, nil
}

// stubProjects serves one project, "p1", whose only member is "m1".
type stubProjects struct {
	created services.ProjectInput
	patched services.ProjectPatch
}

var stubProject = &models.Project{
	ID:      "p1",
	Name:    "Apollo",
	Members: []string{"m1"},
	Tasks: []models.Task{{
		ID:          "t1",
		ProjectID:   "p1",
		Title:       "launch",
		Status:      models.StatusTodo,
		Attachments: []models.File{{ID: "f1", TaskID: "t1", ProjectID: "p1", OriginalName: "a.txt"}},
	}},
	TasksCount: 1,
	CreatedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
}

func (s *stubProjects) lookup(caller auth.Identity, id string) (*models.Project, error) {
	if _, err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	if id != stubProject.ID {
		return nil, common.ErrorNotFound
	}
	if err := auth.RequireProjectAccess(caller, stubProject); err != nil {
		return nil, err
	}
	return stubProject, nil
}

func (s *stubProjects) List(_ context.Context, caller auth.Identity) ([]*models.Project, error) {
	if _, err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	if auth.RequireProjectAccess(caller, stubProject) != nil {
		return nil, nil
	}
	return []*models.Project{stubProject}, nil
}

func (s *stubProjects) Get(_ context.Context, caller auth.Identity, id string) (*models.Project, error) {
	return s.lookup(caller, id)
}

func (s *stubProjects) Create(_ context.Context, caller auth.Identity, in services.ProjectInput) (*models.Project, error) {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	s.created = in
	return &models.Project{ID: "p2", Name: in.Name, Members: in.Members}, nil
}

func (s *stubProjects) Update(_ context.Context, caller auth.Identity, id string, patch services.ProjectPatch) (*models.Project, error) {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	s.patched = patch
	return stubProject, nil
}

func (s *stubProjects) Delete(_ context.Context, caller auth.Identity, id string) error {
	_, err := auth.RequireRole(caller, models.RoleAdmin)
	return err
}

func (s *stubProjects) AddMember(_ context.Context, caller auth.Identity, projectID, userID string) error {
	_, err := auth.RequireRole(caller, models.RoleAdmin)
	return err
}

func (s *stubProjects) RemoveMember(_ context.Context, caller auth.Identity, projectID, userID string) error {
	_, err := auth.RequireRole(caller, models.RoleAdmin)
	return err
}

type stubTasks struct {
	projects *stubProjects
	created  services.TaskInput
	patched  services.TaskPatch
}

func (s *stubTasks) List(_ context.Context, caller auth.Identity, projectID string) ([]models.Task, error) {
	p, err := s.projects.lookup(caller, projectID)
	if err != nil {
		return nil, err
	}
	return p.Tasks, nil
}

func (s *stubTasks) Create(_ context.Context, caller auth.Identity, projectID string, in services.TaskInput) (*models.Task, error) {
	if _, err := s.projects.lookup(caller, projectID); err != nil {
		return nil, err
	}
	s.created = in
	return &models.Task{ID: "t2", ProjectID: projectID, Title: in.Title, Status: in.Status}, nil
}

func (s *stubTasks) Update(_ context.Context, caller auth.Identity, projectID, taskID string, patch services.TaskPatch) (*models.Task, error) {
	if _, err := s.projects.lookup(caller, projectID); err != nil {
		return nil, err
	}
	s.patched = patch
	return &models.Task{ID: taskID, ProjectID: projectID, Status: models.StatusDone}, nil
}

func (s *stubTasks) Delete(_ context.Context, caller auth.Identity, projectID, taskID string) error {
	_, err := s.projects.lookup(caller, projectID)
	return err
}

type stubFiles struct {
	projects *stubProjects
	uploaded services.UploadInput
}

func (s *stubFiles) Upload(_ context.Context, caller auth.Identity, projectID, taskID string, in services.UploadInput) (*models.File, error) {
	if _, err := s.projects.lookup(caller, projectID); err != nil {
		return nil, err
	}
	s.uploaded = in
	return &models.File{ID: "f2", ProjectID: projectID, TaskID: taskID, OriginalName: in.Name, Size: int64(len(in.Content))}, nil
}

func (s *stubFiles) DownloadURL(_ context.Context, caller auth.Identity, projectID, taskID, fileID string) (string, *models.File, error) {
	if _, err := s.projects.lookup(caller, projectID); err != nil {
		return "", nil, err
	}
	return "https://objects.test/" + fileID, &models.File{ID: fileID, TaskID: taskID, ProjectID: projectID}, nil
}

func (s *stubFiles) Delete(_ context.Context, caller auth.Identity, projectID, taskID, fileID string) error {
	_, err := s.projects.lookup(caller, projectID)
	return err
}

type observed struct {
	method, route string
	code          int
}

type stubObserver struct {
	calls []observed
}

func (o *stubObserver) ObserveHTTP(method, route string, code int, _ time.Duration) {
	o.calls = append(o.calls, observed{method, route, code})
}
