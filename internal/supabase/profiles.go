package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/supabase-go"

	"filevault-backend/internal/models"
)

// ProfileClient reads and writes the profile table through PostgREST.
type ProfileClient struct {
	client *supabase.Client
	table  string
}

func NewProfileClient(client *supabase.Client, table string) *ProfileClient {
	return &ProfileClient{client: client, table: table}
}

// GetProfile returns nil without an error when no row exists. Single-row
// mode is not used because it reports a missing row as an error.
func (p *ProfileClient) GetProfile(_ context.Context, id string) (*models.UserProfile, error) {
	var rows []models.UserProfile
	_, err := p.client.From(p.table).
		Select("id,nombre,email", "", false).
		Eq("id", id).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (p *ProfileClient) InsertProfile(_ context.Context, profile *models.UserProfile) error {
	_, _, err := p.client.From(p.table).
		Insert(profile, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}
