package automation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for automation persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
//
// The catalog is the single source of truth: the dispatcher and the
// scheduler both re-read it on every decision rather than caching copies,
// so no stale automation survives a catalog mutation.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Automation, error)
	List(ctx context.Context) ([]Automation, error)
	Create(ctx context.Context, a *Automation) error
	Update(ctx context.Context, a *Automation) error
	Delete(ctx context.Context, id string) error
}

// automationColumns is the SELECT column list for automation queries.
const automationColumns = `id, description, sprite_name, sprite_path, sprite_cmd, sprite_workdir,
			source_type, source_events, source_schedule, match, run, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves an automation by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	a, err := scanAutomation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying automation by id: %w", err)
	}
	return a, nil
}

// List retrieves all automations ordered by id for deterministic output.
func (r *SQLiteRepository) List(ctx context.Context) ([]Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying automations: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var automations []Automation
	for rows.Next() {
		a, scanErr := scanAutomation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning automation: %w", scanErr)
		}
		automations = append(automations, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating automations: %w", err)
	}
	return automations, nil
}

// Create inserts a new automation.
func (r *SQLiteRepository) Create(ctx context.Context, a *Automation) error {
	eventsJSON, matchJSON, err := marshalLists(a)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	query := `
		INSERT INTO automations (
			id, description, sprite_name, sprite_path, sprite_cmd, sprite_workdir,
			source_type, source_events, source_schedule, match, run, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		nullableString(a.Description),
		a.Sprite.Name,
		a.Sprite.Path,
		nullableString(a.Sprite.Cmd),
		nullableString(a.Sprite.Workdir),
		a.Source.Type,
		eventsJSON,
		nullIfEmpty(a.Source.Schedule),
		matchJSON,
		a.Run,
		a.CreatedAt.Format(time.RFC3339),
		a.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting automation: %w", err)
	}
	return nil
}

// Update modifies an existing automation.
func (r *SQLiteRepository) Update(ctx context.Context, a *Automation) error {
	eventsJSON, matchJSON, err := marshalLists(a)
	if err != nil {
		return err
	}

	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE automations SET
			description = ?, sprite_name = ?, sprite_path = ?, sprite_cmd = ?,
			sprite_workdir = ?, source_type = ?, source_events = ?,
			source_schedule = ?, match = ?, run = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		nullableString(a.Description),
		a.Sprite.Name,
		a.Sprite.Path,
		nullableString(a.Sprite.Cmd),
		nullableString(a.Sprite.Workdir),
		a.Source.Type,
		eventsJSON,
		nullIfEmpty(a.Source.Schedule),
		matchJSON,
		a.Run,
		a.UpdatedAt.Format(time.RFC3339),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating automation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an automation by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM automations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting automation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanAutomation.
type scanner interface {
	Scan(dest ...any) error
}

// scanAutomation reads one automation row.
func scanAutomation(s scanner) (*Automation, error) {
	var (
		a                  Automation
		description        sql.NullString
		cmd                sql.NullString
		workdir            sql.NullString
		schedule           sql.NullString
		eventsJSON         string
		matchJSON          string
		createdAt, updated string
	)

	err := s.Scan(
		&a.ID,
		&description,
		&a.Sprite.Name,
		&a.Sprite.Path,
		&cmd,
		&workdir,
		&a.Source.Type,
		&eventsJSON,
		&schedule,
		&matchJSON,
		&a.Run,
		&createdAt,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		a.Description = &description.String
	}
	if cmd.Valid {
		a.Sprite.Cmd = &cmd.String
	}
	if workdir.Valid {
		a.Sprite.Workdir = &workdir.String
	}
	if schedule.Valid {
		a.Source.Schedule = schedule.String
	}

	if err := json.Unmarshal([]byte(eventsJSON), &a.Source.Events); err != nil {
		return nil, fmt.Errorf("unmarshalling events: %w", err)
	}
	if err := json.Unmarshal([]byte(matchJSON), &a.Match); err != nil {
		return nil, fmt.Errorf("unmarshalling match: %w", err)
	}

	// Timestamps are written by this package in RFC3339; a parse failure
	// here indicates corruption and surfaces as a load error.
	a.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	a.UpdatedAt, err = time.Parse(time.RFC3339, updated)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &a, nil
}

// marshalLists encodes the events and match slices for storage.
// Nil slices are stored as empty JSON arrays so scans always succeed.
func marshalLists(a *Automation) (events, match string, err error) {
	eventsJSON, err := json.Marshal(emptyIfNil(a.Source.Events))
	if err != nil {
		return "", "", fmt.Errorf("marshalling events: %w", err)
	}
	matchJSON, err := json.Marshal(emptyIfNil(a.Match))
	if err != nil {
		return "", "", fmt.Errorf("marshalling match: %w", err)
	}
	return string(eventsJSON), string(matchJSON), nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// nullableString converts a *string to a driver-friendly value.
func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// nullIfEmpty converts an empty string to NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
