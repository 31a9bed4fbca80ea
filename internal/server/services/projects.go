package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/projects"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
)

// ProjectInput is the payload of project creation.
type ProjectInput struct {
	Name        string
	Description string
	Members     []string
}

func (in ProjectInput) Validate() error {
	return invalid(validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Members, validation.By(idList)),
	))
}

// ProjectPatch changes only the non-nil fields. A non-nil Members replaces
// the member list.
type ProjectPatch struct {
	Name        *string
	Description *string
	Members     *[]string
}

func (p ProjectPatch) Validate() error {
	var members []string
	if p.Members != nil {
		members = *p.Members
	}
	return invalid(validation.Errors{
		"name":    validation.Validate(p.Name, validation.NilOrNotEmpty, validation.Length(1, 200)),
		"members": validation.Validate(members, validation.By(idList)),
	}.Filter())
}

// ProjectService manages projects and their members. Reads are gated by
// project access, writes by the admin role.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	objects     ObjectStore
	log         logging.Logger
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, objects ObjectStore, log logging.Logger) *ProjectService {
	return &ProjectService{db: db, repomanager: m, objects: objects, log: log}
}

// List returns the projects the caller may access: all of them for an
// admin, the ones listing the caller as member otherwise.
func (s *ProjectService) List(ctx context.Context, caller auth.Identity) ([]*models.Project, error) {
	if _, err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	all, err := s.repomanager.Projects(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	visible := make([]*models.Project, 0, len(all))
	for _, p := range all {
		if auth.RequireProjectAccess(caller, p) == nil {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// Get returns the project with its tasks and their attachments.
func (s *ProjectService) Get(ctx context.Context, caller auth.Identity, projectID string) (*models.Project, error) {
	p, err := accessibleProject(ctx, s.repomanager.Projects(s.db), caller, projectID)
	if err != nil {
		return nil, err
	}
	tasks, err := tasksWithAttachments(ctx, s.repomanager, s.db, p.ID)
	if err != nil {
		return nil, err
	}
	p.Tasks = tasks
	p.TasksCount = len(tasks)
	return p, nil
}

func (s *ProjectService) Create(ctx context.Context, caller auth.Identity, in ProjectInput) (*models.Project, error) {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *models.Project
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = s.repomanager.Projects(tx).Create(ctx, &models.Project{
			Name:        in.Name,
			Description: in.Description,
			Members:     in.Members,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "project created", "project_id", created.ID, "by", caller.UserID)
	return created, nil
}

func (s *ProjectService) Update(ctx context.Context, caller auth.Identity, projectID string, patch ProjectPatch) (*models.Project, error) {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return nil, err
	}
	if !validID(projectID) {
		return nil, common.ErrorNotFound
	}
	patch.Name = trimmed(patch.Name)
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Project
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)
		var err error
		updated, err = repo.Update(ctx, projectID, projects.Patch{Name: patch.Name, Description: patch.Description})
		if err != nil {
			return err
		}
		if patch.Members == nil {
			return nil
		}
		if err := repo.SetMembers(ctx, projectID, *patch.Members); err != nil {
			return err
		}
		updated, err = repo.GetByID(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the project with its tasks and file rows, then deletes the
// stored objects. Object deletion failures are logged only.
func (s *ProjectService) Delete(ctx context.Context, caller auth.Identity, projectID string) error {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return err
	}
	if !validID(projectID) {
		return common.ErrorNotFound
	}

	var attachments []*models.File
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		attachments, err = s.repomanager.Files(tx).ListByProject(ctx, projectID)
		if err != nil {
			return err
		}
		return s.repomanager.Projects(tx).Delete(ctx, projectID)
	})
	if err != nil {
		return err
	}

	removeObjects(ctx, s.objects, s.log, attachments)
	s.log.Info(ctx, "project deleted", "project_id", projectID, "by", caller.UserID)
	return nil
}

// AddMember is idempotent. Unknown project or user yields
// common.ErrorNotFound.
func (s *ProjectService) AddMember(ctx context.Context, caller auth.Identity, projectID, userID string) error {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return err
	}
	if !validID(projectID) || !validID(userID) {
		return common.ErrorNotFound
	}
	return s.repomanager.Projects(s.db).AddMember(ctx, projectID, userID)
}

// RemoveMember succeeds when the user is not a member.
func (s *ProjectService) RemoveMember(ctx context.Context, caller auth.Identity, projectID, userID string) error {
	if _, err := auth.RequireRole(caller, models.RoleAdmin); err != nil {
		return err
	}
	if !validID(projectID) {
		return common.ErrorNotFound
	}
	repo := s.repomanager.Projects(s.db)
	if _, err := repo.GetByID(ctx, projectID); err != nil {
		return err
	}
	if !validID(userID) {
		return nil
	}
	if err := repo.RemoveMember(ctx, projectID, userID); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return nil
}

// accessibleProject loads projectID and checks the caller may access it.
// Anonymous callers are rejected before the lookup.
func accessibleProject(ctx context.Context, repo projects.Repository, caller auth.Identity, projectID string) (*models.Project, error) {
	if _, err := auth.RequireAuthenticated(caller); err != nil {
		return nil, err
	}
	if !validID(projectID) {
		return nil, common.ErrorNotFound
	}
	p, err := repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireProjectAccess(caller, p); err != nil {
		return nil, err
	}
	return p, nil
}

func tasksWithAttachments(ctx context.Context, m repomanager.RepositoryManager, db dbx.DBTX, projectID string) ([]models.Task, error) {
	list, err := m.Tasks(db).ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	attachments, err := m.Files(db).ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	byTask := groupByTask(attachments)

	out := make([]models.Task, 0, len(list))
	for _, t := range list {
		t.Attachments = byTask[t.ID]
		out = append(out, *t)
	}
	return out, nil
}

func groupByTask(list []*models.File) map[string][]models.File {
	out := make(map[string][]models.File)
	for _, f := range list {
		out[f.TaskID] = append(out[f.TaskID], *f)
	}
	return out
}
