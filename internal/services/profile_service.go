package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"filevault-backend/internal/models"
)

// DefaultDisplayName is used when the identity carries no usable name.
const DefaultDisplayName = "Usuario"

// ProfileRepository is the profile table.
type ProfileRepository interface {
	// GetProfile returns nil without an error when no row exists.
	GetProfile(ctx context.Context, id string) (*models.UserProfile, error)
	InsertProfile(ctx context.Context, profile *models.UserProfile) error
}

// IdentityProvider ends sessions at the identity provider.
type IdentityProvider interface {
	SignOut(ctx context.Context, accessToken string) error
}

var ErrProfileNotFound = errors.New("profile not found")

// ProfileService keeps the profile table in step with authenticated
// identities and serves their display names.
type ProfileService struct {
	repo     ProfileRepository
	identity IdentityProvider
	logger   logr.Logger

	mu    sync.RWMutex
	names map[string]string
}

func NewProfileService(repo ProfileRepository, identity IdentityProvider, logger logr.Logger) *ProfileService {
	return &ProfileService{
		repo:     repo,
		identity: identity,
		logger:   logger.WithName("profiles"),
		names:    make(map[string]string),
	}
}

// EnsureProfile creates the profile row of identity if the lookup reports it
// missing. Failures are logged and never returned.
func (s *ProfileService) EnsureProfile(ctx context.Context, identity *models.Identity) {
	if identity == nil || identity.ID == "" {
		return
	}

	existing, err := s.repo.GetProfile(ctx, identity.ID)
	if err != nil {
		s.logger.Error(err, "profile lookup failed", "user", identity.ID)
		return
	}
	if existing != nil {
		return
	}

	profile := &models.UserProfile{
		ID:     identity.ID,
		Nombre: DisplayNameFor(identity),
		Email:  identity.Email,
	}
	if err := s.repo.InsertProfile(ctx, profile); err != nil {
		s.logger.Error(err, "profile insert failed", "user", identity.ID)
		return
	}
	s.logger.Info("created profile", "user", identity.ID)
}

// DisplayName returns the stored name of identity and caches it until
// Logout.
func (s *ProfileService) DisplayName(ctx context.Context, identity *models.Identity) (string, error) {
	if identity == nil || identity.ID == "" {
		return "", nil
	}

	profile, err := s.repo.GetProfile(ctx, identity.ID)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", ErrProfileNotFound
	}

	s.mu.Lock()
	s.names[identity.ID] = profile.Nombre
	s.mu.Unlock()

	return profile.Nombre, nil
}

// CachedName returns the last display name fetched for userID.
func (s *ProfileService) CachedName(userID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[userID]
}

// Logout signs the session out at the identity provider. The cached name is
// only cleared when that succeeded.
func (s *ProfileService) Logout(ctx context.Context, identity *models.Identity, accessToken string) error {
	if err := s.identity.SignOut(ctx, accessToken); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}

	if identity != nil {
		s.mu.Lock()
		delete(s.names, identity.ID)
		s.mu.Unlock()
	}
	return nil
}

// DisplayNameFor picks a display name from provider metadata: full name,
// then name, then the local part of the email, then DefaultDisplayName.
func DisplayNameFor(identity *models.Identity) string {
	for _, key := range []string{"full_name", "name"} {
		if v, ok := identity.UserMetadata[key].(string); ok && v != "" {
			return v
		}
	}
	if local, _, _ := strings.Cut(identity.Email, "@"); local != "" {
		return local
	}
	return DefaultDisplayName
}
