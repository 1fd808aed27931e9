package filemanager

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"filevault-backend/internal/metrics"
	"filevault-backend/internal/models"
	"filevault-backend/internal/storage"
)

// Archiver moves files into the archived category and deletes files.
type Archiver struct {
	objects      storage.ObjectStorage
	store        *Store
	cacheControl string
	logger       logr.Logger
}

func NewArchiver(objects storage.ObjectStorage, store *Store, cacheControl string, logger logr.Logger) *Archiver {
	return &Archiver{
		objects:      objects,
		store:        store,
		cacheControl: cacheControl,
		logger:       logger,
	}
}

// Archive copies file into the archived category and then removes the
// original. The move is not atomic: the store is only updated after the
// download, the copy and the removal have all succeeded. If the removal
// fails the object exists in both categories while the store still shows it
// under its source category, until the next refresh.
func (a *Archiver) Archive(ctx context.Context, file models.FileDescriptor, ownerID string) (*models.FileDescriptor, error) {
	if ownerID == "" {
		return nil, nil
	}
	if file.Name == "" {
		return nil, ErrNoFile
	}
	if file.Category == models.CategoryArchived {
		return nil, ErrAlreadyArchived
	}
	if _, ok := models.ParseCategory(string(file.Category)); !ok {
		return nil, ErrUnknownCategory
	}

	source := file.Category
	path := storage.ObjectPath(ownerID, file.Name)
	log := a.logger.WithValues("owner", ownerID, "category", source, "name", file.Name)

	data, err := a.objects.Download(ctx, source, path)
	if err != nil {
		return nil, a.stageFailed(log, StageDownload, file, err)
	}

	err = a.objects.Upload(ctx, models.CategoryArchived, path, data, storage.UploadOptions{
		ContentType:  file.MimeType,
		CacheControl: a.cacheControl,
		Overwrite:    true,
	})
	if err != nil {
		return nil, a.stageFailed(log, StageCopy, file, err)
	}

	if err := a.objects.Remove(ctx, source, []string{path}); err != nil {
		return nil, a.stageFailed(log, StageRemove, file, err)
	}
	metrics.RecordArchive(string(StageRemove), nil)

	file.URL = a.objects.PublicURL(models.CategoryArchived, path)
	a.store.moveFile(file, models.CategoryArchived)
	file.Category = models.CategoryArchived

	log.Info("archived file")
	return &file, nil
}

func (a *Archiver) stageFailed(log logr.Logger, stage Stage, file models.FileDescriptor, err error) error {
	metrics.RecordArchive(string(stage), err)
	log.Error(err, "archive failed", "stage", stage)
	return &StageError{Stage: stage, Category: file.Category, Name: file.Name, Err: err}
}

// Delete removes file from storage and, once that succeeded, from the store.
func (a *Archiver) Delete(ctx context.Context, file models.FileDescriptor, ownerID string) error {
	if ownerID == "" {
		return nil
	}
	if file.Name == "" {
		return ErrNoFile
	}
	if _, ok := models.ParseCategory(string(file.Category)); !ok {
		return ErrUnknownCategory
	}

	path := storage.ObjectPath(ownerID, file.Name)
	err := a.objects.Remove(ctx, file.Category, []string{path})
	metrics.RecordDelete(string(file.Category), err)
	if err != nil {
		a.logger.Error(err, "failed to delete file", "owner", ownerID, "category", file.Category, "name", file.Name)
		return fmt.Errorf("failed to delete file: %w", err)
	}

	a.store.removeFile(file.Category, file.Name)
	a.logger.Info("deleted file", "owner", ownerID, "category", file.Category, "name", file.Name)
	return nil
}
