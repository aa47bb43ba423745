// Package sqlite provides a SQLite-backed sketch store. Each sketch is kept
// under a unique name as the CBOR encoding of its persisted form.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/chazu/lignin-sketch/pkg/coord"
	"github.com/chazu/lignin-sketch/pkg/sketch"
	"github.com/chazu/lignin-sketch/pkg/store/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no sketch has the requested name.
var ErrNotFound = errors.New("sketch not found")

// Summary describes a stored sketch without decoding it.
type Summary struct {
	Name       string
	Nodes      int
	Geometries int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store persists sketches in SQLite.
type Store struct {
	sqlDB  *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite sketch store and applies embedded migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{sqlDB: sqlDB, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("sketch name is required")
	}
	return name, nil
}

// Save stores sk under name, replacing any sketch already saved there.
// Draft coordinates and draft geometry are not stored.
func (s *Store) Save(ctx context.Context, name string, sk *sketch.Sketch) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if sk == nil {
		return fmt.Errorf("sketch is required")
	}

	p, err := sk.Persist()
	if err != nil {
		return fmt.Errorf("persist sketch %q: %w", name, err)
	}
	body, err := sketch.EncodeCBOR(p)
	if err != nil {
		return err
	}
	geometries := len(p.Points) + len(p.Lines) + len(p.Rectangles)
	now := toMillis(time.Now())

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO sketches (name, body, node_count, geometry_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   body = excluded.body,
		   node_count = excluded.node_count,
		   geometry_count = excluded.geometry_count,
		   updated_at = excluded.updated_at`,
		name, body, p.System.NodeCount(), geometries, now, now,
	)
	if err != nil {
		return fmt.Errorf("save sketch %q: %w", name, err)
	}
	s.logger.Debug("sketch saved", "name", name, "bytes", len(body), "geometries", geometries)
	return nil
}

// Load decodes and restores the sketch saved under name. opts configure
// the restored coordinate system.
func (s *Store) Load(ctx context.Context, name string, opts ...coord.Option) (*sketch.Sketch, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = s.sqlDB.QueryRowContext(ctx, `SELECT body FROM sketches WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load sketch %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load sketch %q: %w", name, err)
	}

	p, err := sketch.DecodeCBOR(body)
	if err != nil {
		return nil, fmt.Errorf("load sketch %q: %w", name, err)
	}
	sk, err := sketch.Restore(p, opts...)
	if err != nil {
		return nil, fmt.Errorf("load sketch %q: %w", name, err)
	}
	return sk, nil
}

// List returns a summary of every stored sketch ordered by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT name, node_count, geometry_count, created_at, updated_at
		 FROM sketches ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list sketches: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum                  Summary
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&sum.Name, &sum.Nodes, &sum.Geometries, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan sketch summary: %w", err)
		}
		sum.CreatedAt = fromMillis(createdAt)
		sum.UpdatedAt = fromMillis(updatedAt)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sketches: %w", err)
	}
	return out, nil
}

// Delete removes the sketch saved under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM sketches WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete sketch %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sketch %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("delete sketch %q: %w", name, ErrNotFound)
	}
	s.logger.Debug("sketch deleted", "name", name)
	return nil
}
