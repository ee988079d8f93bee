package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/DavidSBennett/PlayingInThePast/engine"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore persists every record as a JSON document keyed by id. One schema
// serves both dialects; the migrations differ only in column types.
type SQLStore struct {
	dialect Dialect
	db      *sql.DB
	log     *logrus.Entry
}

// OpenSQL opens the database for the given dialect and DSN, pings it, and
// applies pending migrations. For sqlite the DSN is a file path (or
// ":memory:"); for postgres a connection URL.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, log *logrus.Logger) (*SQLStore, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("store: unsupported dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// modernc sqlite mishandles concurrent writers; a single conn
		// also keeps ":memory:" databases from vanishing per-conn.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s database: %w", dialect, err)
	}

	s := &SQLStore{
		dialect: dialect,
		db:      db,
		log:     logrus.NewEntry(log).WithField("component", "store"),
	}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.log.WithField("dialect", dialect).Info("database ready")
	return s, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

// bind returns the placeholder for parameter position pos.
func (s *SQLStore) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (s *SQLStore) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("store: create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("store: read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("store: scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("store: iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, fmt.Sprintf("migrations/%s/*.sql", s.dialect))
	if err != nil {
		return fmt.Errorf("store: glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("store: read migration %s: %w", base, err)
		}
		if _, err := s.db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("store: apply migration %s: %w", base, err)
		}
		mark := fmt.Sprintf(
			"INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)",
			s.bind(1), s.bind(2),
		)
		if _, err := s.db.ExecContext(ctx, mark, base, time.Now().UTC()); err != nil {
			return fmt.Errorf("store: record migration %s: %w", base, err)
		}
		s.log.WithField("migration", base).Info("migration applied")
	}
	return nil
}

// --- document-level helpers shared by the typed collections ---

func (s *SQLStore) docList(ctx context.Context, table string) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT data FROM %s ORDER BY id", table))
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", table, err)
	}
	defer rows.Close()
	var out [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", table, err)
		}
		out = append(out, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate %s: %w", table, err)
	}
	return out, nil
}

func (s *SQLStore) docGet(ctx context.Context, table, id string) ([]byte, error) {
	q := fmt.Sprintf("SELECT data FROM %s WHERE id = %s", table, s.bind(1))
	var data []byte
	err := s.db.QueryRowContext(ctx, q, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s/%s: %w", table, id, err)
	}
	return data, nil
}

func (s *SQLStore) docInsert(ctx context.Context, table, id string, data []byte) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (id, data, updated_at) VALUES (%s, %s, %s)",
		table, s.bind(1), s.bind(2), s.bind(3),
	)
	if _, err := s.db.ExecContext(ctx, q, id, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("store: insert %s/%s: %w", table, id, err)
	}
	return nil
}

func (s *SQLStore) docUpdate(ctx context.Context, table, id string, data []byte) error {
	q := fmt.Sprintf(
		"UPDATE %s SET data = %s, updated_at = %s WHERE id = %s",
		table, s.bind(1), s.bind(2), s.bind(3),
	)
	res, err := s.db.ExecContext(ctx, q, string(data), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: update %s/%s: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update %s/%s rows: %w", table, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) docDelete(ctx context.Context, table, id string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE id = %s", table, s.bind(1))
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete %s/%s rows: %w", table, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// sqlCollection adapts the document helpers to one record type.
type sqlCollection[T any] struct {
	s      *SQLStore
	table  string
	id     func(T) string
	withID func(T, string) T
}

func (c sqlCollection[T]) List(ctx context.Context) ([]T, error) {
	docs, err := c.s.docList(ctx, c.table)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var rec T
		if err := json.Unmarshal(doc, &rec); err != nil {
			return nil, fmt.Errorf("store: decode %s record: %w", c.table, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c sqlCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	doc, err := c.s.docGet(ctx, c.table, id)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(doc, &rec); err != nil {
		return rec, fmt.Errorf("store: decode %s/%s: %w", c.table, id, err)
	}
	return rec, nil
}

func (c sqlCollection[T]) Create(ctx context.Context, rec T) (T, error) {
	if c.id(rec) == "" {
		rec = c.withID(rec, uuid.NewString())
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("store: encode %s record: %w", c.table, err)
	}
	if err := c.s.docInsert(ctx, c.table, c.id(rec), doc); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func (c sqlCollection[T]) Update(ctx context.Context, id string, rec T) (T, error) {
	rec = c.withID(rec, id)
	doc, err := json.Marshal(rec)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("store: encode %s record: %w", c.table, err)
	}
	if err := c.s.docUpdate(ctx, c.table, id, doc); err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func (c sqlCollection[T]) Delete(ctx context.Context, id string) error {
	return c.s.docDelete(ctx, c.table, id)
}

func (c sqlCollection[T]) BulkCreate(ctx context.Context, recs []T) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		created, err := c.Create(ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

// --- typed accessors ---

func (s *SQLStore) Cards() CardStore {
	return sqlCollection[engine.HistoricalCard]{
		s:      s,
		table:  "cards",
		id:     func(c engine.HistoricalCard) string { return c.ID },
		withID: func(c engine.HistoricalCard, id string) engine.HistoricalCard { c.ID = id; return c },
	}
}

func (s *SQLStore) Conclusions() ConclusionStore {
	return sqlCollection[engine.Conclusion]{
		s:      s,
		table:  "conclusions",
		id:     func(c engine.Conclusion) string { return c.ID },
		withID: func(c engine.Conclusion, id string) engine.Conclusion { c.ID = id; return c },
	}
}

func (s *SQLStore) Sessions() SessionStore {
	return sqlCollection[engine.Session]{
		s:      s,
		table:  "game_sessions",
		id:     func(sess engine.Session) string { return sess.ID },
		withID: func(sess engine.Session, id string) engine.Session { sess.ID = id; return sess },
	}
}
