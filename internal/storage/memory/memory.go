package memory

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"filevault-backend/internal/models"
	"filevault-backend/internal/storage"
)

// compile-time check
var _ storage.ObjectStorage = (*Store)(nil)

type object struct {
	data        []byte
	contentType string
	createdAt   time.Time
	updatedAt   time.Time
}

// Store is an in-memory object store. Listings are sorted by name.
type Store struct {
	mu      sync.RWMutex
	baseURL string
	buckets map[models.Category]map[string]*object
	now     func() time.Time
}

// New creates an empty store whose public URLs are rooted at baseURL.
func New(baseURL string) *Store {
	return &Store{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		buckets: make(map[models.Category]map[string]*object),
		now:     time.Now,
	}
}

// List returns the objects directly under prefix.
func (s *Store) List(_ context.Context, category models.Category, prefix string) ([]storage.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var objects []storage.Object
	for path, obj := range s.buckets[category] {
		name, ok := strings.CutPrefix(path, prefix)
		if !ok || name == "" || strings.Contains(name, "/") {
			continue
		}
		created, updated := obj.createdAt, obj.updatedAt
		objects = append(objects, storage.Object{
			Name:      name,
			Size:      int64(len(obj.data)),
			MimeType:  obj.contentType,
			CreatedAt: &created,
			UpdatedAt: &updated,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Name < objects[j].Name
	})
	return objects, nil
}

// Upload stores a copy of data at path.
func (s *Store) Upload(_ context.Context, category models.Category, path string, data []byte, opts storage.UploadOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[category]
	if !ok {
		bucket = make(map[string]*object)
		s.buckets[category] = bucket
	}

	now := s.now()
	existing, exists := bucket[path]
	if exists && !opts.Overwrite {
		return fmt.Errorf("%s/%s: %w", category, path, storage.ErrObjectExists)
	}

	obj := &object{
		data:        append([]byte(nil), data...),
		contentType: opts.ContentType,
		createdAt:   now,
		updatedAt:   now,
	}
	if exists {
		obj.createdAt = existing.createdAt
	}
	bucket[path] = obj
	return nil
}

// Download returns a copy of the bytes stored at path.
func (s *Store) Download(_ context.Context, category models.Category, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.buckets[category][path]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", category, path, storage.ErrObjectNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

// Remove deletes every listed path. Missing paths are ignored.
func (s *Store) Remove(_ context.Context, category models.Category, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range paths {
		delete(s.buckets[category], p)
	}
	return nil
}

// PublicURL mirrors the Supabase public object URL layout.
func (s *Store) PublicURL(category models.Category, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, category, escapePath(path))
}

// Has reports whether an object is stored at path.
func (s *Store) Has(category models.Category, path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[category][path]
	return ok
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}
