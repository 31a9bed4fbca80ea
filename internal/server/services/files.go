package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// DownloadURLTTL is the lifetime of presigned download links.
const DownloadURLTTL = 15 * time.Minute

// ObjectStore keeps attachment content.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key, filename string, ttl time.Duration) (string, error)
}

// UploadInput is an attachment upload. When Size is set it must match the
// length of Content.
type UploadInput struct {
	Name     string
	MimeType string
	Size     *int64
	Content  []byte
}

// FileService manages task attachments.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	objects     ObjectStore
	maxSize     int64
	log         logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, objects ObjectStore, maxSize int64, log logging.Logger) *FileService {
	return &FileService{db: db, repomanager: m, objects: objects, maxSize: maxSize, log: log}
}

// StorageKey returns a fresh object key for an attachment of taskID.
func StorageKey(projectID, taskID string) string {
	return fmt.Sprintf("projects/%s/tasks/%s/%s", projectID, taskID, uuid.NewString())
}

// Upload stores the content and records its metadata. If the metadata row
// cannot be written the object is removed again.
func (s *FileService) Upload(ctx context.Context, caller auth.Identity, projectID, taskID string, in UploadInput) (*models.File, error) {
	task, err := s.accessibleTask(ctx, caller, projectID, taskID)
	if err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.MimeType == "" {
		in.MimeType = models.DefaultMimeType
	}
	if err := s.validateUpload(in); err != nil {
		return nil, err
	}

	key := StorageKey(task.ProjectID, task.ID)
	if err := s.objects.Put(ctx, key, in.MimeType, in.Content); err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}

	f, err := s.repomanager.Files(s.db).Create(ctx, &models.File{
		ProjectID:    task.ProjectID,
		TaskID:       task.ID,
		OriginalName: in.Name,
		MimeType:     in.MimeType,
		Size:         int64(len(in.Content)),
		StorageKey:   key,
		UploadedBy:   caller.UserID,
	})
	if err != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			s.log.Warn(ctx, "orphaned object", "key", key, "error", derr)
		}
		return nil, err
	}

	s.log.Info(ctx, "file uploaded", "file_id", f.ID, "task_id", task.ID, "size", f.Size)
	return f, nil
}

// DownloadURL returns a presigned link to the attachment content.
func (s *FileService) DownloadURL(ctx context.Context, caller auth.Identity, projectID, taskID, fileID string) (string, *models.File, error) {
	task, err := s.accessibleTask(ctx, caller, projectID, taskID)
	if err != nil {
		return "", nil, err
	}
	if !validID(fileID) {
		return "", nil, common.ErrorNotFound
	}
	f, err := s.repomanager.Files(s.db).Get(ctx, task.ID, fileID)
	if err != nil {
		return "", nil, err
	}
	url, err := s.objects.PresignGet(ctx, f.StorageKey, f.OriginalName, DownloadURLTTL)
	if err != nil {
		return "", nil, fmt.Errorf("presign: %w", err)
	}
	return url, f, nil
}

// Delete removes the metadata row, then the object.
func (s *FileService) Delete(ctx context.Context, caller auth.Identity, projectID, taskID, fileID string) error {
	task, err := s.accessibleTask(ctx, caller, projectID, taskID)
	if err != nil {
		return err
	}
	if !validID(fileID) {
		return common.ErrorNotFound
	}
	f, err := s.repomanager.Files(s.db).Delete(ctx, task.ID, fileID)
	if err != nil {
		return err
	}
	removeObjects(ctx, s.objects, s.log, []*models.File{f})
	return nil
}

func (s *FileService) accessibleTask(ctx context.Context, caller auth.Identity, projectID, taskID string) (*models.Task, error) {
	p, err := accessibleProject(ctx, s.repomanager.Projects(s.db), caller, projectID)
	if err != nil {
		return nil, err
	}
	if !validID(taskID) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Tasks(s.db).Get(ctx, p.ID, taskID)
}

func (s *FileService) validateUpload(in UploadInput) error {
	size := int64(len(in.Content))
	err := validation.Errors{
		"name": validation.Validate(in.Name, validation.Required, validation.Length(1, 255)),
		"content": validation.Validate(size, validation.By(func(interface{}) error {
			switch {
			case size == 0:
				return errors.New("file content is required")
			case size > s.maxSize:
				return errors.New("file is too large")
			case in.Size != nil && *in.Size != size:
				return errors.New("file size mismatch")
			}
			return nil
		})),
	}.Filter()
	return invalid(err)
}

// removeObjects deletes stored content of already deleted rows.
func removeObjects(ctx context.Context, objects ObjectStore, log logging.Logger, list []*models.File) {
	for _, f := range list {
		if err := objects.Delete(ctx, f.StorageKey); err != nil {
			log.Warn(ctx, "object delete failed", "key", f.StorageKey, "error", err)
		}
	}
}
