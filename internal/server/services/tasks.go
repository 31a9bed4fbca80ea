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
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/tasks"
	validation "github.com/go-ozzo/ozzo-validation"
)

var statusRule = validation.By(func(value interface{}) error {
	var s models.TaskStatus
	switch v := value.(type) {
	case models.TaskStatus:
		s = v
	case *models.TaskStatus:
		if v == nil {
			return nil
		}
		s = *v
	}
	if s != "" && !s.IsValid() {
		return errors.New("must be one of todo, in-progress, done")
	}
	return nil
})

// TaskInput is the payload of task creation. Status defaults to todo.
type TaskInput struct {
	Title       string
	Description string
	Assignee    string
	Status      models.TaskStatus
}

func (in TaskInput) Validate() error {
	return invalid(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&in.Status, statusRule),
	))
}

// TaskPatch changes only the non-nil fields. A non-nil Status must name a
// valid status; it never means "unchanged".
type TaskPatch struct {
	Title       *string
	Description *string
	Assignee    *string
	Status      *models.TaskStatus
}

func (p TaskPatch) Validate() error {
	return invalid(validation.Errors{
		"title":  validation.Validate(p.Title, validation.NilOrNotEmpty, validation.Length(1, 300)),
		"status": validation.Validate(p.Status, validation.NilOrNotEmpty, statusRule),
	}.Filter())
}

// TaskService manages the tasks of a project. Every operation requires
// project access.
type TaskService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	objects     ObjectStore
	log         logging.Logger
}

func NewTaskService(db *sql.DB, m repomanager.RepositoryManager, objects ObjectStore, log logging.Logger) *TaskService {
	return &TaskService{db: db, repomanager: m, objects: objects, log: log}
}

func (s *TaskService) List(ctx context.Context, caller auth.Identity, projectID string) ([]models.Task, error) {
	p, err := accessibleProject(ctx, s.repomanager.Projects(s.db), caller, projectID)
	if err != nil {
		return nil, err
	}
	return tasksWithAttachments(ctx, s.repomanager, s.db, p.ID)
}

func (s *TaskService) Create(ctx context.Context, caller auth.Identity, projectID string, in TaskInput) (*models.Task, error) {
	p, err := accessibleProject(ctx, s.repomanager.Projects(s.db), caller, projectID)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Assignee = strings.TrimSpace(in.Assignee)
	if in.Status == "" {
		in.Status = models.StatusTodo
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repomanager.Tasks(s.db).Create(ctx, &models.Task{
		ProjectID:   p.ID,
		Title:       in.Title,
		Description: in.Description,
		Assignee:    in.Assignee,
		Status:      in.Status,
	})
	if err != nil {
		return nil, err
	}
	t.Attachments = []models.File{}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, caller auth.Identity, projectID, taskID string, patch TaskPatch) (*models.Task, error) {
	p, err := accessibleProject(ctx, s.repomanager.Projects(s.db), caller, projectID)
	if err != nil {
		return nil, err
	}
	if !validID(taskID) {
		return nil, common.ErrorNotFound
	}

	patch.Title = trimmed(patch.Title)
	patch.Description = trimmed(patch.Description)
	patch.Assignee = trimmed(patch.Assignee)
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repomanager.Tasks(s.db).Update(ctx, p.ID, taskID, tasks.Patch{
		Title:       patch.Title,
		Description: patch.Description,
		Assignee:    patch.Assignee,
		Status:      patch.Status,
	})
	if err != nil {
		return nil, err
	}
	attachments, err := s.repomanager.Files(s.db).ListByTask(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Attachments = groupByTask(attachments)[t.ID]
	return t, nil
}

// Delete removes the task and its file rows, then the stored objects.
func (s *TaskService) Delete(ctx context.Context, caller auth.Identity, projectID, taskID string) error {
	p, err := accessibleProject(ctx, s.repomanager.Projects(s.db), caller, projectID)
	if err != nil {
		return err
	}
	if !validID(taskID) {
		return common.ErrorNotFound
	}

	var attachments []*models.File
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		attachments, err = s.repomanager.Files(tx).ListByTask(ctx, taskID)
		if err != nil {
			return err
		}
		return s.repomanager.Tasks(tx).Delete(ctx, p.ID, taskID)
	})
	if err != nil {
		return err
	}

	removeObjects(ctx, s.objects, s.log, attachments)
	return nil
}
