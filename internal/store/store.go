package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// Store manages schema library persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the library database under dir, taking an
// exclusive file lock for the lifetime of the store.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("library directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create library directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "library.lock"))
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire library lock: %w", err)
	}
	if !held {
		return nil, ErrLocked
	}

	dbPath := filepath.Join(dir, "library.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the library lock and closes the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save inserts the schema or, when an entry with the same name exists,
// replaces its content while preserving the creation timestamp.
func (s *Store) Save(ctx context.Context, saved SavedSchema) (int64, error) {
	name := strings.TrimSpace(saved.Name)
	if name == "" {
		return 0, errors.New("schema name required")
	}
	if len(saved.Document) == 0 {
		return 0, errors.New("schema document required")
	}
	authors, err := encodeStrings(saved.Authors)
	if err != nil {
		return 0, fmt.Errorf("encode authors: %w", err)
	}
	tags, err := encodeStrings(saved.Tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schemas (name, description, version, authors, tags, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			version = excluded.version,
			authors = excluded.authors,
			tags = excluded.tags,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		name, saved.Description, saved.Version, authors, tags, string(saved.Document), now, now)
	if err != nil {
		return 0, fmt.Errorf("save schema %q: %w", name, err)
	}
	existing, err := s.GetByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// Get returns the schema with the given id.
func (s *Store) Get(ctx context.Context, id int64) (SavedSchema, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+" FROM schemas WHERE id = ?", id)
	return scanSchema(row)
}

// GetByName returns the schema with the given name.
func (s *Store) GetByName(ctx context.Context, name string) (SavedSchema, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+" FROM schemas WHERE name = ?", strings.TrimSpace(name))
	return scanSchema(row)
}

// List returns every saved schema ordered by name.
func (s *Store) List(ctx context.Context) ([]SavedSchema, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" FROM schemas ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}
	defer rows.Close()

	var schemas []SavedSchema
	for rows.Next() {
		saved, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schemas: %w", err)
	}
	return schemas, nil
}

// Delete removes the schema with the given name.
func (s *Store) Delete(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM schemas WHERE name = ?", strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("delete schema %q: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete schema %q: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

const selectColumns = "SELECT id, name, description, version, authors, tags, document, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchema(row rowScanner) (SavedSchema, error) {
	var (
		saved                      SavedSchema
		authors, tags, document    string
		createdAtRaw, updatedAtRaw string
	)
	err := row.Scan(&saved.ID, &saved.Name, &saved.Description, &saved.Version,
		&authors, &tags, &document, &createdAtRaw, &updatedAtRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedSchema{}, ErrNotFound
	}
	if err != nil {
		return SavedSchema{}, fmt.Errorf("scan schema: %w", err)
	}
	if saved.Authors, err = decodeStrings(authors); err != nil {
		return SavedSchema{}, fmt.Errorf("decode authors: %w", err)
	}
	if saved.Tags, err = decodeStrings(tags); err != nil {
		return SavedSchema{}, fmt.Errorf("decode tags: %w", err)
	}
	saved.Document = []byte(document)
	if saved.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtRaw); err != nil {
		return SavedSchema{}, fmt.Errorf("parse created_at: %w", err)
	}
	if saved.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAtRaw); err != nil {
		return SavedSchema{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return saved, nil
}
