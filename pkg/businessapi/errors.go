package businessapi

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrBusinessNotFound indicates the referenced business does not exist.
	ErrBusinessNotFound = errors.New("business not found")

	// ErrUploadFailed indicates an attachment upload failed.
	ErrUploadFailed = errors.New("upload failed")

	// ErrEmptyAttachment indicates an attachment carried no bytes.
	ErrEmptyAttachment = errors.New("attachment is empty")

	// ErrUnsupportedMediaType indicates the blob store rejected the
	// attachment's content type.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// UploadError reports which attachment upload failed. A single failed upload
// aborts the whole create/update operation.
type UploadError struct {
	Field    string // "image" or "productImages"
	Index    int    // position within the productImages list
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	if e.Field == FieldProductImages {
		return fmt.Sprintf("upload of %s[%d] (%q) failed: %v", e.Field, e.Index, e.Filename, e.Err)
	}
	return fmt.Sprintf("upload of %s (%q) failed: %v", e.Field, e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// RepositoryError represents a document-store failure during an operation.
type RepositoryError struct {
	Op  string
	ID  string
	Err error
}

func (e *RepositoryError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("repository operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("repository operation %s failed for business %s: %v", e.Op, e.ID, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}
