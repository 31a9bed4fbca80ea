package models

import "time"

// DefaultMimeType is used when an upload does not declare one.
const DefaultMimeType = "application/octet-stream"

// File describes an attachment of a task. The content lives in object
// storage under StorageKey.
type File struct {
	ID           string
	ProjectID    string
	TaskID       string
	OriginalName string
	MimeType     string
	Size         int64
	StorageKey   string
	UploadedBy   string
	UploadedAt   time.Time
}
