package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/hkauso/pastemd/pkg/domain"
)

var ErrCircuitOpen = errors.New("database circuit breaker open")

const (
	circuitClosed   = 0
	circuitOpen     = 1
	circuitHalfOpen = 2
	maxFailures     = 5
	cooldownSeconds = 30
)

const (
	defaultMaxOpenConns = 100
	defaultMaxIdleConns = 10
	defaultQueryTimeout = 5 * time.Second
)

type SQLite struct {
	db            *sql.DB
	failures      int32
	circuitState  int32
	circuitOpened int64
	queryTimeout  time.Duration
}

func (s *SQLite) DB() *sql.DB {
	return s.db
}

func NewSQLite(path string) (*SQLite, error) {
	return NewSQLiteWithConfig(path, defaultMaxOpenConns, defaultMaxIdleConns, defaultQueryTimeout)
}

func NewSQLiteWithConfig(path string, maxOpenConns, maxIdleConns int, queryTimeout time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db")
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping db")
	}
	s := &SQLite{
		db:           db,
		queryTimeout: queryTimeout,
	}
	if err := s.migrate(); err != nil {
		return nil, errors.Wrap(err, "migration failed")
	}
	return s, nil
}

func (s *SQLite) checkCircuit() error {
	state := atomic.LoadInt32(&s.circuitState)
	switch state {
	case circuitClosed:
		return nil
	case circuitOpen:
		opened := atomic.LoadInt64(&s.circuitOpened)
		if time.Now().Unix()-opened >= cooldownSeconds {
			if atomic.CompareAndSwapInt32(&s.circuitState, circuitOpen, circuitHalfOpen) {
				return nil
			}
		}
		return ErrCircuitOpen
	case circuitHalfOpen:
		return nil
	default:
		return nil
	}
}

func (s *SQLite) recordError(err error) {
	if err == nil {
		atomic.StoreInt32(&s.failures, 0)
		atomic.StoreInt32(&s.circuitState, circuitClosed)
		return
	}
	if errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if isConstraintErr(err) {
		return
	}
	failures := atomic.AddInt32(&s.failures, 1)
	if atomic.LoadInt32(&s.circuitState) == circuitHalfOpen {
		atomic.StoreInt32(&s.circuitState, circuitOpen)
		atomic.StoreInt64(&s.circuitOpened, time.Now().Unix())
		atomic.StoreInt32(&s.failures, 0)
		return
	}
	if failures >= maxFailures && atomic.LoadInt32(&s.circuitState) == circuitClosed {
		atomic.StoreInt32(&s.circuitState, circuitOpen)
		atomic.StoreInt64(&s.circuitOpened, time.Now().Unix())
	}
}

func isConstraintErr(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint
	}
	return false
}

func isUniqueErr(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return errors.Wrap(err, "enable WAL mode")
	}
	_, err = s.db.Exec("PRAGMA busy_timeout = 5000")
	if err != nil {
		return errors.Wrap(err, "set busy timeout")
	}
	_, err = s.db.Exec("PRAGMA synchronous=FULL")
	if err != nil {
		return errors.Wrap(err, "set synchronous mode")
	}
	query := `
	CREATE TABLE IF NOT EXISTS pastes (
		id             TEXT PRIMARY KEY,
		url            TEXT NOT NULL UNIQUE,
		password       TEXT NOT NULL,
		content        TEXT NOT NULL,
		date_published INTEGER NOT NULL,
		date_edited    INTEGER NOT NULL,
		metadata       TEXT NOT NULL DEFAULT '{}'
	);
	CREATE TABLE IF NOT EXISTS views (
		url      TEXT NOT NULL,
		username TEXT NOT NULL,
		UNIQUE(url, username)
	);
	CREATE INDEX IF NOT EXISTS idx_views_url ON views(url);
	CREATE TABLE IF NOT EXISTS documents (
		id        TEXT NOT NULL,
		namespace TEXT NOT NULL,
		content   TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		metadata  TEXT NOT NULL DEFAULT '{}',
		UNIQUE(id, namespace)
	);
	`
	_, err = s.db.Exec(query)
	return err
}

func (s *SQLite) CreatePaste(ctx context.Context, p *domain.Paste) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return errors.Wrap(err, "marshal metadata")
	}
	q := `
	INSERT INTO pastes (id, url, password, content, date_published, date_edited, metadata)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(queryCtx, q,
		p.ID, p.URL, p.Password, p.Content, p.DatePublished, p.DateEdited, string(meta),
	)
	// the unique index on url is the authoritative duplicate guard; the
	// engine's pre-check only exists for a faster error message
	if isUniqueErr(err) {
		return domain.ErrAlreadyExists
	}
	s.recordError(err)
	return errors.Wrap(err, "db create paste")
}

func (s *SQLite) GetPasteByURL(ctx context.Context, url string) (*domain.Paste, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	SELECT id, url, password, content, date_published, date_edited, metadata
	FROM pastes WHERE url = ?
	`
	var p domain.Paste
	var meta string
	err := s.db.QueryRowContext(queryCtx, q, url).Scan(
		&p.ID, &p.URL, &p.Password, &p.Content, &p.DatePublished, &p.DateEdited, &meta,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "db get paste")
	}
	if err := json.Unmarshal([]byte(meta), &p.Metadata); err != nil {
		return nil, errors.Wrap(err, "unmarshal metadata")
	}
	return &p, nil
}

func (s *SQLite) ExistsURL(ctx context.Context, url string) (bool, error) {
	if err := s.checkCircuit(); err != nil {
		return false, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var exists int
	q := `SELECT 1 FROM pastes WHERE url = ? LIMIT 1`
	err := s.db.QueryRowContext(queryCtx, q, url).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	s.recordError(err)
	if err != nil {
		return false, errors.Wrap(err, "exists check failed")
	}
	return exists == 1, nil
}

func (s *SQLite) UpdatePaste(ctx context.Context, url string, p *domain.Paste) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	UPDATE pastes SET url = ?, password = ?, content = ?, date_edited = ?
	WHERE url = ?
	`
	res, err := s.db.ExecContext(queryCtx, q, p.URL, p.Password, p.Content, p.DateEdited, url)
	if isUniqueErr(err) {
		return domain.ErrAlreadyExists
	}
	s.recordError(err)
	if err != nil {
		return errors.Wrap(err, "db update paste")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SQLite) UpdatePasteMetadata(ctx context.Context, url string, meta domain.PasteMetadata) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	raw, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "marshal metadata")
	}
	res, err := s.db.ExecContext(queryCtx, `UPDATE pastes SET metadata = ? WHERE url = ?`, string(raw), url)
	s.recordError(err)
	if err != nil {
		return errors.Wrap(err, "db update metadata")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SQLite) DeletePaste(ctx context.Context, url string) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	res, err := s.db.ExecContext(queryCtx, `DELETE FROM pastes WHERE url = ?`, url)
	s.recordError(err)
	if err != nil {
		return errors.Wrap(err, "delete paste")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SQLite) HasView(ctx context.Context, url, username string) (bool, error) {
	if err := s.checkCircuit(); err != nil {
		return false, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var one int
	err := s.db.QueryRowContext(queryCtx,
		`SELECT 1 FROM views WHERE url = ? AND username = ? LIMIT 1`, url, username).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	s.recordError(err)
	if err != nil {
		return false, errors.Wrap(err, "has view")
	}
	return true, nil
}

func (s *SQLite) AddView(ctx context.Context, url, username string) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	_, err := s.db.ExecContext(queryCtx,
		`INSERT OR IGNORE INTO views (url, username) VALUES (?, ?)`, url, username)
	s.recordError(err)
	return errors.Wrap(err, "add view")
}

func (s *SQLite) CountViews(ctx context.Context, url string) (int64, error) {
	if err := s.checkCircuit(); err != nil {
		return 0, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	var n int64
	err := s.db.QueryRowContext(queryCtx,
		`SELECT COUNT(*) FROM views WHERE url = ?`, url).Scan(&n)
	s.recordError(err)
	if err != nil {
		return 0, errors.Wrap(err, "count views")
	}
	return n, nil
}

func (s *SQLite) DeleteViews(ctx context.Context, url string) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	_, err := s.db.ExecContext(queryCtx, `DELETE FROM views WHERE url = ?`, url)
	s.recordError(err)
	return errors.Wrap(err, "delete views")
}

func (s *SQLite) CreateDocument(ctx context.Context, d *domain.Document) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	meta := string(d.Metadata)
	if meta == "" {
		meta = "{}"
	}
	q := `
	INSERT INTO documents (id, namespace, content, timestamp, metadata)
	VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(queryCtx, q, d.ID, d.Namespace, d.Content, d.Timestamp, meta)
	if isUniqueErr(err) {
		return domain.ErrAlreadyExists
	}
	s.recordError(err)
	return errors.Wrap(err, "db create document")
}

func (s *SQLite) GetDocument(ctx context.Context, namespace, id string) (*domain.Document, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	SELECT id, namespace, content, timestamp, metadata
	FROM documents WHERE namespace = ? AND id = ?
	`
	var d domain.Document
	var meta string
	err := s.db.QueryRowContext(queryCtx, q, namespace, id).Scan(
		&d.ID, &d.Namespace, &d.Content, &d.Timestamp, &meta,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "db get document")
	}
	d.Metadata = json.RawMessage(meta)
	return &d, nil
}

func (s *SQLite) UpdateDocument(ctx context.Context, d *domain.Document) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	meta := string(d.Metadata)
	if meta == "" {
		meta = "{}"
	}
	q := `
	UPDATE documents SET content = ?, timestamp = ?, metadata = ?
	WHERE namespace = ? AND id = ?
	`
	res, err := s.db.ExecContext(queryCtx, q, d.Content, d.Timestamp, meta, d.Namespace, d.ID)
	s.recordError(err)
	if err != nil {
		return errors.Wrap(err, "db update document")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SQLite) DeleteDocument(ctx context.Context, namespace, id string) error {
	if err := s.checkCircuit(); err != nil {
		return err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	res, err := s.db.ExecContext(queryCtx,
		`DELETE FROM documents WHERE namespace = ? AND id = ?`, namespace, id)
	s.recordError(err)
	if err != nil {
		return errors.Wrap(err, "db delete document")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SQLite) ListDocuments(ctx context.Context, namespace string) ([]*domain.Document, error) {
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	q := `
	SELECT id, namespace, content, timestamp, metadata
	FROM documents WHERE namespace = ? ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(queryCtx, q, namespace)
	s.recordError(err)
	if err != nil {
		return nil, errors.Wrap(err, "db list documents")
	}
	defer rows.Close()
	var docs []*domain.Document
	for rows.Next() {
		var d domain.Document
		var meta string
		if err := rows.Scan(&d.ID, &d.Namespace, &d.Content, &d.Timestamp, &meta); err != nil {
			return nil, errors.Wrap(err, "scan document")
		}
		d.Metadata = json.RawMessage(meta)
		docs = append(docs, &d)
	}
	return docs, errors.Wrap(rows.Err(), "iterate documents")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
