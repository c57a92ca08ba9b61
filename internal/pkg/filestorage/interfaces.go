package filestorage

import (
	"errors"
	"mime/multipart"
)

// ErrInvalidPath is returned for paths that escape the storage root.
var ErrInvalidPath = errors.New("invalid file path")

// StoredFile describes a saved file. Path is relative to the storage root and
// is what attachment rows keep; URL is the public address of the same file.
type StoredFile struct {
	Path     string
	URL      string
	FileName string
	MimeType string
	Size     int64
}

// FileStorage defines the interface for file storage operations
type FileStorage interface {
	// SaveFileWithPath stores the upload under the given subdirectory
	SaveFileWithPath(fileHeader *multipart.FileHeader, subPath string) (*StoredFile, error)

	// DeleteFile removes a file by its stored path
	DeleteFile(path string) error

	// URLFor returns the public URL of a stored path
	URLFor(path string) string
}
