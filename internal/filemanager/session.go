package filemanager

import (
	"sync"

	"github.com/go-logr/logr"

	"filevault-backend/internal/storage"
)

// Session bundles the file state of one owner.
type Session struct {
	OwnerID  string
	Store    *Store
	Uploader *Uploader
	Archiver *Archiver
}

// Sessions hands out one Session per owner, creating it on first use.
type Sessions struct {
	objects      storage.ObjectStorage
	cacheControl string
	logger       logr.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessions(objects storage.ObjectStorage, cacheControl string, logger logr.Logger) *Sessions {
	return &Sessions{
		objects:      objects,
		cacheControl: cacheControl,
		logger:       logger.WithName("filemanager"),
		sessions:     make(map[string]*Session),
	}
}

func (s *Sessions) Get(ownerID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[ownerID]; ok {
		return session
	}

	store := NewStore(s.objects, s.logger)
	session := &Session{
		OwnerID:  ownerID,
		Store:    store,
		Uploader: NewUploader(s.objects, store, s.cacheControl, s.logger),
		Archiver: NewArchiver(s.objects, store, s.cacheControl, s.logger),
	}
	s.sessions[ownerID] = session
	return session
}

// Drop forgets the session of ownerID.
func (s *Sessions) Drop(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, ownerID)
}
