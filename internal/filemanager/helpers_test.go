package filemanager_test

import (
	"context"
	"sync"

	"filevault-backend/internal/models"
	"filevault-backend/internal/storage"
	"filevault-backend/internal/storage/memory"
)

const (
	owner   = "7b0c6b1e-3a43-4b9f-9b5e-2f7d1f4c9a10"
	baseURL = "https://proj.supabase.co"
)

// faultyStorage wraps the in-memory store and injects failures per call.
type faultyStorage struct {
	*memory.Store

	mu          sync.Mutex
	listErr     map[models.Category]error
	downloadErr error
	uploadErr   error
	removeErr   error
	calls       []string
}

func newFaultyStorage() *faultyStorage {
	return &faultyStorage{
		Store:   memory.New(baseURL),
		listErr: map[models.Category]error{},
	}
}

func (f *faultyStorage) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *faultyStorage) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *faultyStorage) List(ctx context.Context, category models.Category, prefix string) ([]storage.Object, error) {
	f.record("list:" + string(category))
	f.mu.Lock()
	err := f.listErr[category]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Store.List(ctx, category, prefix)
}

func (f *faultyStorage) Upload(ctx context.Context, category models.Category, path string, data []byte, opts storage.UploadOptions) error {
	f.record("upload:" + string(category) + ":" + path)
	if f.uploadErr != nil {
		return f.uploadErr
	}
	return f.Store.Upload(ctx, category, path, data, opts)
}

func (f *faultyStorage) Download(ctx context.Context, category models.Category, path string) ([]byte, error) {
	f.record("download:" + string(category) + ":" + path)
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.Store.Download(ctx, category, path)
}

func (f *faultyStorage) Remove(ctx context.Context, category models.Category, paths []string) error {
	f.record("remove:" + string(category))
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.Store.Remove(ctx, category, paths)
}

func seed(s *faultyStorage, category models.Category, name, content string) {
	_ = s.Store.Upload(context.Background(), category, storage.ObjectPath(owner, name), []byte(content), storage.UploadOptions{})
}
