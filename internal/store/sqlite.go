package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDuplicate is returned when a set or question already exists.
var ErrDuplicate = errors.New("already exists")

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection serializes writers; SQLite has a single write lock.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(strings.TrimPrefix(p, "PRAGMA ")), err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Sets ---

func (s *SQLiteStore) ListSets(ctx context.Context) ([]*models.ProblemSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, position FROM problem_sets ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sets []*models.ProblemSet
	for rows.Next() {
		ps := &models.ProblemSet{}
		if err := rows.Scan(&ps.ID, &ps.Name, &ps.Position); err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		sets = append(sets, ps)
	}
	return sets, rows.Err()
}

func (s *SQLiteStore) GetSet(ctx context.Context, id string) (*models.ProblemSet, error) {
	ps := &models.ProblemSet{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name, position FROM problem_sets WHERE id = ?`, id).
		Scan(&ps.ID, &ps.Name, &ps.Position)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", catalog.ErrSetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get set: %w", err)
	}
	return ps, nil
}

// CreateSet inserts a set. An empty ID is replaced by a ULID and a zero
// position places the set after the existing ones.
func (s *SQLiteStore) CreateSet(ctx context.Context, set *models.ProblemSet) error {
	if set.ID == "" {
		set.ID = ulid.Make().String()
	}
	if set.Position == 0 {
		if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM problem_sets`).Scan(&set.Position); err != nil {
			return fmt.Errorf("next set position: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO problem_sets (id, name, position) VALUES (?, ?, ?)`,
		set.ID, set.Name, set.Position)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create set %q: %w", set.Name, ErrDuplicate)
		}
		return fmt.Errorf("create set: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSet(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM problem_sets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete set: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", catalog.ErrSetNotFound, id)
	}
	return nil
}

// --- Questions ---

func (s *SQLiteStore) ListQuestions(ctx context.Context, setID string) ([]string, error) {
	if _, err := s.GetSet(ctx, setID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT title FROM questions WHERE set_id = ? ORDER BY position, created_at`, setID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// AddQuestion appends a question to the end of a set.
func (s *SQLiteStore) AddQuestion(ctx context.Context, setID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("add question: empty title")
	}
	if _, err := s.GetSet(ctx, setID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (id, set_id, title, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM questions WHERE set_id = ?))`,
		ulid.Make().String(), setID, title, setID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("add question %q: %w", title, ErrDuplicate)
		}
		return fmt.Errorf("add question: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveQuestion(ctx context.Context, setID, title string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE set_id = ? AND title = ?`, setID, title)
	if err != nil {
		return fmt.Errorf("remove question: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("question not found: %s", title)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
