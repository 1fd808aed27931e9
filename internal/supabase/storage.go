package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	storage "github.com/supabase-community/storage-go"

	"filevault-backend/internal/models"
	objectstorage "filevault-backend/internal/storage"
)

// compile-time check
var _ objectstorage.ObjectStorage = (*StorageClient)(nil)

// storageAPI is the subset of the storage-go client used here.
type storageAPI interface {
	ListFiles(bucketId, queryPath string, options storage.FileSearchOptions) ([]storage.FileObject, error)
	UploadFile(bucketId, relativePath string, data io.Reader, fileOptions ...storage.FileOptions) (storage.FileUploadResponse, error)
	DownloadFile(bucketId, filePath string, urlOptions ...storage.UrlOptions) ([]byte, error)
	RemoveFile(bucketId string, paths []string) ([]storage.FileUploadResponse, error)
}

// listPageSize is the number of entries requested per listing page.
const listPageSize = 1000

// StorageClient adapts Supabase Storage to objectstorage.ObjectStorage.
// Each category is a bucket of the same name.
type StorageClient struct {
	// mu guards client: storage-go writes per-request headers into a map
	// that its transport reads on every call.
	mu      sync.Mutex
	client  storageAPI
	baseURL string
}

func NewStorageClient(supabaseURL, apiKey string) (*StorageClient, error) {
	// Ensure URL doesn't have trailing slash
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	client := storage.NewClient(baseURL+"/storage/v1", apiKey, nil)

	return &StorageClient{
		client:  client,
		baseURL: baseURL,
	}, nil
}

// List pages through the listing until a short page comes back.
func (s *StorageClient) List(_ context.Context, category models.Category, prefix string) ([]objectstorage.Object, error) {
	var objects []objectstorage.Object
	for offset := 0; ; offset += listPageSize {
		s.mu.Lock()
		files, err := s.client.ListFiles(string(category), prefix, storage.FileSearchOptions{
			Limit:  listPageSize,
			Offset: offset,
		})
		s.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		for _, f := range files {
			objects = append(objects, toObject(f))
		}
		if len(files) < listPageSize {
			return objects, nil
		}
	}
}

func (s *StorageClient) Upload(_ context.Context, category models.Category, path string, data []byte, opts objectstorage.UploadOptions) error {
	upsert := opts.Overwrite
	fileOptions := storage.FileOptions{Upsert: &upsert}
	if opts.ContentType != "" {
		contentType := opts.ContentType
		fileOptions.ContentType = &contentType
	}
	if opts.CacheControl != "" {
		cacheControl := opts.CacheControl
		fileOptions.CacheControl = &cacheControl
	}

	s.mu.Lock()
	_, err := s.client.UploadFile(string(category), path, bytes.NewReader(data), fileOptions)
	s.mu.Unlock()
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%s/%s: %w", category, path, objectstorage.ErrObjectExists)
		}
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *StorageClient) Download(_ context.Context, category models.Category, path string) ([]byte, error) {
	s.mu.Lock()
	data, err := s.client.DownloadFile(string(category), path)
	s.mu.Unlock()
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s/%s: %w", category, path, objectstorage.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return data, nil
}

func (s *StorageClient) Remove(_ context.Context, category models.Category, paths []string) error {
	s.mu.Lock()
	_, err := s.client.RemoveFile(string(category), paths)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (s *StorageClient) PublicURL(category models.Category, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, category, escapePath(path))
}

func toObject(f storage.FileObject) objectstorage.Object {
	obj := objectstorage.Object{
		ID:        f.Id,
		Name:      f.Name,
		CreatedAt: parseTime(f.CreatedAt),
		UpdatedAt: parseTime(f.UpdatedAt),
	}

	meta, ok := f.Metadata.(map[string]interface{})
	if !ok {
		return obj
	}
	obj.Metadata = meta
	switch size := meta["size"].(type) {
	case float64:
		obj.Size = int64(size)
	case int64:
		obj.Size = size
	case int:
		obj.Size = int64(size)
	}
	if mimeType, ok := meta["mimetype"].(string); ok {
		obj.MimeType = mimeType
	}
	return obj
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// errorMessage returns the message reported by the storage API, or the
// error text when the failure happened before a response was decoded.
func errorMessage(err error) string {
	var storageErr *storage.StorageError
	if errors.As(err, &storageErr) {
		return strings.ToLower(storageErr.Message)
	}
	return strings.ToLower(err.Error())
}

func isDuplicate(err error) bool {
	msg := errorMessage(err)
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "already exists")
}

func isNotFound(err error) bool {
	return strings.Contains(errorMessage(err), "not found")
}
