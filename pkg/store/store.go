// Package store persists generated project outputs to Postgres or SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jadenpxrk/monofile/pkg/logging"
	"github.com/jadenpxrk/monofile/pkg/pipeline"
	"github.com/jadenpxrk/monofile/pkg/stats"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const defaultCacheSize = 128

var ErrNotFound = errors.New("store: project not found")

// Record is one saved project snapshot.
type Record struct {
	ID          int64
	ProjectName string
	TotalFiles  int
	TotalLines  int
	TotalSize   int64
	Outputs     pipeline.Outputs
	CreatedAt   time.Time
}

// Options tunes a store. Zero values select the defaults.
type Options struct {
	CacheSize int
	Now       func() time.Time
	Logger    *zap.Logger
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore writes to the monofiles table.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
	logger  *zap.Logger

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[int64, Record]
}

// Open connects to dsn. postgres:// and postgresql:// DSNs use pgx, anything else is a SQLite
// path or URI (":memory:" included).
func Open(ctx context.Context, dsn string, opts Options) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("store: dsn is required")
	}

	d, driver := dialectSQLite, "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		d, driver = dialectPostgres, "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if d == dialectSQLite {
		// every sqlite connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[int64, Record](size)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SQLStore{
		db:      db,
		dialect: d,
		now:     now,
		logger:  logging.OrNop(opts.Logger),
		cache:   cache,
	}, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		id := "INTEGER PRIMARY KEY AUTOINCREMENT"
		if s.dialect == dialectPostgres {
			id = "BIGSERIAL PRIMARY KEY"
		}
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS monofiles (
  id `+id+`,
  project_name TEXT NOT NULL,
  total_files INTEGER NOT NULL DEFAULT 0,
  total_lines INTEGER NOT NULL DEFAULT 0,
  total_size BIGINT NOT NULL DEFAULT 0,
  flattened_content TEXT NOT NULL DEFAULT '',
  summary TEXT NOT NULL DEFAULT '',
  ai_context TEXT NOT NULL DEFAULT '',
  concepts TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL
)`)
		if s.schemaErr != nil {
			return
		}
		_, s.schemaErr = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_monofiles_project_name ON monofiles (project_name)`)
	})
	return s.schemaErr
}

// Save inserts a snapshot and returns it with its assigned ID.
func (s *SQLStore) Save(ctx context.Context, projectName string, st stats.ProcessingStats, out pipeline.Outputs) (Record, error) {
	rec, err := s.save(ctx, projectName, st, out)
	if err != nil {
		s.logger.Error("Cloud sync failed", zap.String("project", projectName), zap.Error(err))
		return Record{}, fmt.Errorf("Cloud Sync Failed: %w", err)
	}
	s.logger.Info("Cloud synchronization successful", zap.String("project", projectName), zap.Int64("id", rec.ID))
	return rec, nil
}

func (s *SQLStore) save(ctx context.Context, projectName string, st stats.ProcessingStats, out pipeline.Outputs) (Record, error) {
	name := strings.TrimSpace(projectName)
	if name == "" {
		return Record{}, fmt.Errorf("project name is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Record{}, fmt.Errorf("ensure schema: %w", err)
	}

	concepts := out.Concepts
	if concepts == nil {
		concepts = []pipeline.Concept{}
	}
	conceptsJSON, err := json.Marshal(concepts)
	if err != nil {
		return Record{}, fmt.Errorf("encode concepts: %w", err)
	}

	rec := Record{
		ProjectName: name,
		TotalFiles:  st.TotalFiles,
		TotalLines:  st.TotalLines,
		TotalSize:   st.TotalSize,
		Outputs:     out,
		CreatedAt:   s.now().UTC(),
	}
	err = s.db.QueryRowContext(ctx, s.rebind(`
INSERT INTO monofiles (
  project_name, total_files, total_lines, total_size, flattened_content, summary, ai_context, concepts, created_at
)
VALUES (?,?,?,?,?,?,?,?,?)
RETURNING id`),
		rec.ProjectName, rec.TotalFiles, rec.TotalLines, rec.TotalSize,
		out.Flattened, out.Summary, out.AIContext, string(conceptsJSON),
		rec.CreatedAt.Format(time.RFC3339Nano),
	).Scan(&rec.ID)
	if err != nil {
		return Record{}, err
	}
	s.cache.Add(rec.ID, rec)
	return rec, nil
}

const selectColumns = `id, project_name, total_files, total_lines, total_size, flattened_content, summary, ai_context, concepts, created_at`

// Get returns the snapshot with the given ID.
func (s *SQLStore) Get(ctx context.Context, id int64) (Record, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Record{}, err
	}
	rec, err := scanRecord(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+selectColumns+` FROM monofiles WHERE id = ?`), id))
	if err != nil {
		return Record{}, err
	}
	s.cache.Add(rec.ID, rec)
	return rec, nil
}

// Latest returns the most recent snapshot of a project.
func (s *SQLStore) Latest(ctx context.Context, projectName string) (Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Record{}, err
	}
	rec, err := scanRecord(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+selectColumns+`
FROM monofiles WHERE project_name = ? ORDER BY id DESC LIMIT 1`), strings.TrimSpace(projectName)))
	if err != nil {
		return Record{}, err
	}
	s.cache.Add(rec.ID, rec)
	return rec, nil
}

// List returns up to limit snapshots, newest first, without their document bodies.
func (s *SQLStore) List(ctx context.Context, limit int) ([]Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, project_name, total_files, total_lines, total_size, summary, created_at
FROM monofiles ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		var created string
		if err := rows.Scan(&rec.ID, &rec.ProjectName, &rec.TotalFiles, &rec.TotalLines, &rec.TotalSize, &rec.Outputs.Summary, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = parseTime(created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec      Record
		concepts string
		created  string
	)
	err := row.Scan(
		&rec.ID,
		&rec.ProjectName,
		&rec.TotalFiles,
		&rec.TotalLines,
		&rec.TotalSize,
		&rec.Outputs.Flattened,
		&rec.Outputs.Summary,
		&rec.Outputs.AIContext,
		&concepts,
		&created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(concepts), &rec.Outputs.Concepts); err != nil {
		return Record{}, fmt.Errorf("decode concepts of %d: %w", rec.ID, err)
	}
	rec.CreatedAt = parseTime(created)
	return rec, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
