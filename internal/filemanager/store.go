package filemanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"filevault-backend/internal/classifier"
	"filevault-backend/internal/metrics"
	"filevault-backend/internal/models"
	"filevault-backend/internal/storage"
)

// Store holds one owner's files grouped by category. Every category is always
// present, possibly with an empty list.
type Store struct {
	objects storage.ObjectStorage
	logger  logr.Logger

	// refreshMu serializes Refresh calls against the same store.
	refreshMu sync.Mutex

	mu      sync.RWMutex
	files   map[models.Category][]models.FileDescriptor
	loading bool
	loaded  bool
}

func NewStore(objects storage.ObjectStorage, logger logr.Logger) *Store {
	return &Store{
		objects: objects,
		logger:  logger,
		files:   emptyCategories(),
	}
}

func emptyCategories() map[models.Category][]models.FileDescriptor {
	files := make(map[models.Category][]models.FileDescriptor, len(models.Categories))
	for _, c := range models.Categories {
		files[c] = []models.FileDescriptor{}
	}
	return files
}

// Refresh re-lists all five categories of ownerID concurrently. Every
// category is emptied first; a category whose listing fails stays empty while
// the others are populated. The returned *RefreshError names the failures.
func (s *Store) Refresh(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	defer metrics.ObserveRefresh(start)

	s.mu.Lock()
	s.loading = true
	s.files = emptyCategories()
	s.mu.Unlock()

	errs := make([]error, len(models.Categories))

	var g errgroup.Group
	for i, category := range models.Categories {
		g.Go(func() error {
			files, err := s.listCategory(ctx, category, ownerID)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", category, err)
				return nil
			}
			if len(files) > 0 {
				s.mu.Lock()
				s.files[category] = files
				s.mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	s.loading = false
	s.loaded = true
	s.mu.Unlock()

	var failed []models.Category
	for i, err := range errs {
		if err == nil {
			continue
		}
		category := models.Categories[i]
		failed = append(failed, category)
		metrics.RecordRefreshFailure(string(category))
		s.logger.Error(err, "failed to list category", "category", category, "owner", ownerID)
	}
	if len(failed) > 0 {
		return &RefreshError{Failed: failed, Err: errors.Join(errs...)}
	}

	s.logger.V(1).Info("refreshed files", "owner", ownerID, "total", s.TotalCount())
	return nil
}

func (s *Store) listCategory(ctx context.Context, category models.Category, ownerID string) ([]models.FileDescriptor, error) {
	objects, err := s.objects.List(ctx, category, storage.OwnerPrefix(ownerID))
	if err != nil {
		return nil, err
	}

	files := make([]models.FileDescriptor, len(objects))
	for i, obj := range objects {
		files[i] = models.FileDescriptor{
			Name:      obj.Name,
			Category:  category,
			Type:      classifier.ByName(obj.Name),
			URL:       s.objects.PublicURL(category, storage.ObjectPath(ownerID, obj.Name)),
			ID:        obj.ID,
			Size:      obj.Size,
			MimeType:  obj.MimeType,
			CreatedAt: obj.CreatedAt,
			UpdatedAt: obj.UpdatedAt,
			Metadata:  obj.Metadata,
		}
	}
	return files, nil
}

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Loaded reports whether at least one refresh has completed.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Files returns a copy of the list for category.
func (s *Store) Files(category models.Category) []models.FileDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.FileDescriptor(nil), s.files[category]...)
}

// Snapshot returns a copy of every category list.
func (s *Store) Snapshot() map[models.Category][]models.FileDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Category][]models.FileDescriptor, len(s.files))
	for c, files := range s.files {
		out[c] = append([]models.FileDescriptor{}, files...)
	}
	return out
}

// Find looks up a file by name within category.
func (s *Store) Find(category models.Category, name string) (models.FileDescriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.files[category] {
		if f.Name == name {
			return f, true
		}
	}
	return models.FileDescriptor{}, false
}

// CountOf returns the number of files in category, 0 for unknown categories.
func (s *Store) CountOf(category models.Category) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files[category])
}

// TotalCount returns the number of files across all categories.
func (s *Store) TotalCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, files := range s.files {
		total += len(files)
	}
	return total
}

func (s *Store) removeFile(category models.Category, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[category] = withoutName(s.files[category], name)
}

// moveFile drops file from its source list and files it under target,
// replacing a same-named entry there.
func (s *Store) moveFile(file models.FileDescriptor, target models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[file.Category] = withoutName(s.files[file.Category], file.Name)

	file.Category = target
	for i, f := range s.files[target] {
		if f.Name == file.Name {
			s.files[target][i] = file
			return
		}
	}
	s.files[target] = append(s.files[target], file)
}

func withoutName(files []models.FileDescriptor, name string) []models.FileDescriptor {
	kept := make([]models.FileDescriptor, 0, len(files))
	for _, f := range files {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	return kept
}
