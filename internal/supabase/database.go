package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"filevault-backend/internal/models"
)

// DatabaseClient reads and writes the profile table over a direct
// PostgreSQL connection.
type DatabaseClient struct {
	db    *sql.DB
	table string
}

func NewDatabaseClient(connectionString, table string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewDatabaseClientFromDB(db, table), nil
}

func NewDatabaseClientFromDB(db *sql.DB, table string) *DatabaseClient {
	return &DatabaseClient{db: db, table: pq.QuoteIdentifier(table)}
}

// GetProfile returns nil without an error when no row exists.
func (d *DatabaseClient) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	var profile models.UserProfile
	var email sql.NullString
	err := d.db.QueryRowContext(ctx,
		`SELECT id, nombre, email FROM `+d.table+` WHERE id = $1`, id,
	).Scan(&profile.ID, &profile.Nombre, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	profile.Email = email.String

	return &profile, nil
}

func (d *DatabaseClient) InsertProfile(ctx context.Context, profile *models.UserProfile) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO `+d.table+` (id, nombre, email) VALUES ($1, $2, $3)`,
		profile.ID, profile.Nombre, profile.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
