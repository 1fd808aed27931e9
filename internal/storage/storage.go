// Package storage defines the object storage contract used by the file
// manager. Every category is addressed as its own bucket and every object
// path is scoped by the owner's identifier.
package storage

import (
	"context"
	"errors"
	"time"

	"filevault-backend/internal/models"
)

var (
	// ErrObjectExists is returned by Upload when overwriting is disabled and
	// an object is already stored at the path.
	ErrObjectExists = errors.New("object already exists")

	// ErrObjectNotFound is returned when no object is stored at the path.
	ErrObjectNotFound = errors.New("object not found")
)

// Object is one entry of a listing.
type Object struct {
	ID        string
	Name      string
	Size      int64
	MimeType  string
	CreatedAt *time.Time
	UpdatedAt *time.Time
	Metadata  map[string]interface{}
}

// UploadOptions controls an upload.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Overwrite    bool
}

// ObjectStorage is the storage service, parameterized by category.
type ObjectStorage interface {
	List(ctx context.Context, category models.Category, prefix string) ([]Object, error)
	Upload(ctx context.Context, category models.Category, path string, data []byte, opts UploadOptions) error
	Download(ctx context.Context, category models.Category, path string) ([]byte, error)
	Remove(ctx context.Context, category models.Category, paths []string) error
	// PublicURL derives the locator of an object. It never touches the network.
	PublicURL(category models.Category, path string) string
}

// OwnerPrefix is the listing prefix of an owner's namespace.
func OwnerPrefix(ownerID string) string {
	return ownerID + "/"
}

// ObjectPath is the path of a file inside an owner's namespace.
func ObjectPath(ownerID, name string) string {
	return ownerID + "/" + name
}
