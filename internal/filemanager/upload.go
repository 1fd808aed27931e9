package filemanager

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"

	"filevault-backend/internal/classifier"
	"filevault-backend/internal/metrics"
	"filevault-backend/internal/models"
	"filevault-backend/internal/storage"
)

// UploadResult describes a successful upload.
type UploadResult struct {
	Category models.Category
	Path     string
	// RefreshErr is set when the upload succeeded but the follow-up refresh
	// could not list every category.
	RefreshErr error
}

// Uploader sends pending files to storage and refreshes the store afterwards.
// It keeps the in-flight flag and the last failure message for its owner.
type Uploader struct {
	objects      storage.ObjectStorage
	store        *Store
	cacheControl string
	logger       logr.Logger

	mu       sync.Mutex
	inflight int
	lastErr  string
}

func NewUploader(objects storage.ObjectStorage, store *Store, cacheControl string, logger logr.Logger) *Uploader {
	return &Uploader{
		objects:      objects,
		store:        store,
		cacheControl: cacheControl,
		logger:       logger,
	}
}

// Upload stores file under ownerID in the category derived from its declared
// content type. Existing objects are never overwritten. On success the store
// is refreshed rather than patched.
func (u *Uploader) Upload(ctx context.Context, file *models.PendingFile, ownerID string) (*UploadResult, error) {
	if file == nil || file.Name == "" || file.Content == nil {
		u.fail(ErrNoFile.Error())
		return nil, ErrNoFile
	}
	if ownerID == "" {
		u.fail(ErrNoOwner.Error())
		return nil, ErrNoOwner
	}

	u.begin()
	defer u.end()

	category, ok := classifier.ByMime(classifier.MimeMajor(file.ContentType))
	if !ok {
		u.fail(ErrUnknownCategory.Error())
		return nil, ErrUnknownCategory
	}

	data, err := io.ReadAll(file.Content)
	if err != nil {
		err = fmt.Errorf("failed to read file: %w", err)
		u.fail(err.Error())
		return nil, err
	}

	path := storage.ObjectPath(ownerID, file.Name)
	err = u.objects.Upload(ctx, category, path, data, storage.UploadOptions{
		ContentType:  file.ContentType,
		CacheControl: u.cacheControl,
		Overwrite:    false,
	})
	metrics.RecordUpload(string(category), err)
	if err != nil {
		err = fmt.Errorf("failed to upload file: %w", err)
		u.fail(err.Error())
		u.logger.Error(err, "upload failed", "owner", ownerID, "category", category, "name", file.Name)
		return nil, err
	}

	u.logger.Info("uploaded file", "owner", ownerID, "category", category, "name", file.Name, "bytes", len(data))

	result := &UploadResult{Category: category, Path: path}
	result.RefreshErr = u.store.Refresh(ctx, ownerID)
	return result, nil
}

// IsUploading reports whether a storage call is outstanding.
func (u *Uploader) IsUploading() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.inflight > 0
}

// LastError returns the message of the most recent failed attempt. It is
// cleared when the next attempt starts, not when one succeeds.
func (u *Uploader) LastError() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastErr
}

func (u *Uploader) begin() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inflight++
	u.lastErr = ""
}

func (u *Uploader) end() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inflight--
}

func (u *Uploader) fail(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.lastErr = msg
}
