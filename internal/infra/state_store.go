package infra

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// Ensure sqlcipher driver is registered.
var _ = sqlcipher.ErrBusy

const (
	stateDBName = "state.db"
)

// EncryptedStateStore implements domain.StateStore using a SQLCipher
// encrypted SQLite database. The CLI and the running monitor open the same
// file; control requests are the only thing the CLI writes.
type EncryptedStateStore struct {
	db     *sql.DB
	dbPath string
}

// NewEncryptedStateStore opens (or creates) the encrypted state database.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedStateStore(dataDir string, key []byte) (*EncryptedStateStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, stateDBName)
	keyHex := hex.EncodeToString(key)

	// busy_timeout covers the CLI and the monitor writing at the same time.
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096&_busy_timeout=5000", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// Verify encryption works by running a query
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	s := &EncryptedStateStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

func (s *EncryptedStateStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS daemon_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		pid INTEGER NOT NULL,
		watch_dir TEXT NOT NULL,
		archiver_path TEXT NOT NULL DEFAULT '',
		log_path TEXT NOT NULL DEFAULT '',
		paused INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		last_heartbeat INTEGER NOT NULL,
		app_version TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS control (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		pause INTEGER,
		shutdown INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS extractions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		path TEXT NOT NULL,
		outcome TEXT NOT NULL,
		exit_status INTEGER NOT NULL,
		timed_out INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		finished_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RegisterDaemon records the running monitor and drops stale control requests.
func (s *EncryptedStateStore) RegisterDaemon(state domain.DaemonState) error {
	now := time.Now()
	if state.StartedAt.IsZero() {
		state.StartedAt = now
	}

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO daemon_state
			(id, pid, watch_dir, archiver_path, log_path, paused, started_at, last_heartbeat, app_version)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)`,
		state.PID, state.WatchDir, state.ArchiverPath, state.LogPath, boolToInt(state.Paused),
		state.StartedAt.Unix(), now.Unix(), state.AppVersion,
	)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`DELETE FROM control`)
	return err
}

// UpdateHeartbeat updates timestamp for liveness check.
func (s *EncryptedStateStore) UpdateHeartbeat() error {
	return s.updateDaemon(`UPDATE daemon_state SET last_heartbeat = ? WHERE id = 1`, time.Now().Unix())
}

// SetPaused publishes the applied paused flag.
func (s *EncryptedStateStore) SetPaused(paused bool) error {
	return s.updateDaemon(`UPDATE daemon_state SET paused = ? WHERE id = 1`, boolToInt(paused))
}

func (s *EncryptedStateStore) updateDaemon(query string, arg any) error {
	result, err := s.db.Exec(query, arg)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New("daemon not registered")
	}
	return nil
}

// GetState returns the published state, nil when no monitor is registered.
func (s *EncryptedStateStore) GetState() (*domain.DaemonState, error) {
	var (
		st        domain.DaemonState
		paused    int
		started   int64
		heartbeat int64
	)
	err := s.db.QueryRow(`
		SELECT pid, watch_dir, archiver_path, log_path, paused, started_at, last_heartbeat, app_version
		FROM daemon_state WHERE id = 1`).Scan(
		&st.PID, &st.WatchDir, &st.ArchiverPath, &st.LogPath, &paused, &started, &heartbeat, &st.AppVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.Paused = paused != 0
	st.StartedAt = time.Unix(started, 0)
	st.LastHeartbeat = time.Unix(heartbeat, 0)
	return &st, nil
}

// ClearDaemon removes the daemon row and any pending control request.
func (s *EncryptedStateStore) ClearDaemon() error {
	if _, err := s.db.Exec(`DELETE FROM daemon_state`); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM control`)
	return err
}

// RequestPause leaves a pause (true) or resume (false) request.
// A later request overrides an earlier one not yet taken.
func (s *EncryptedStateStore) RequestPause(paused bool) error {
	_, err := s.db.Exec(`
		INSERT INTO control (id, pause, shutdown) VALUES (1, ?, 0)
		ON CONFLICT(id) DO UPDATE SET pause = excluded.pause`, boolToInt(paused))
	return err
}

// RequestShutdown leaves a shutdown request.
func (s *EncryptedStateStore) RequestShutdown() error {
	_, err := s.db.Exec(`
		INSERT INTO control (id, pause, shutdown) VALUES (1, NULL, 1)
		ON CONFLICT(id) DO UPDATE SET shutdown = 1`)
	return err
}

// TakeControl returns and clears pending requests atomically.
func (s *EncryptedStateStore) TakeControl() (domain.ControlRequest, error) {
	var req domain.ControlRequest

	tx, err := s.db.Begin()
	if err != nil {
		return req, err
	}
	defer tx.Rollback()

	var (
		pause    sql.NullInt64
		shutdown int
	)
	err = tx.QueryRow(`SELECT pause, shutdown FROM control WHERE id = 1`).Scan(&pause, &shutdown)
	if errors.Is(err, sql.ErrNoRows) {
		return req, nil
	}
	if err != nil {
		return req, err
	}
	if _, err := tx.Exec(`DELETE FROM control`); err != nil {
		return req, err
	}
	if err := tx.Commit(); err != nil {
		return req, err
	}

	if pause.Valid {
		p := pause.Int64 != 0
		req.Pause = &p
	}
	req.Shutdown = shutdown != 0
	return req, nil
}

// RecordExtraction appends a history row.
func (s *EncryptedStateStore) RecordExtraction(rec domain.ExtractionRecord) error {
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO extractions
			(batch_id, filename, path, outcome, exit_status, timed_out, attempts, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.BatchID, rec.Filename, rec.Path, string(rec.Outcome), rec.ExitStatus,
		boolToInt(rec.TimedOut), rec.Attempts, rec.FinishedAt.UnixMilli(),
	)
	return err
}

// RecentExtractions returns up to limit rows, newest first.
func (s *EncryptedStateStore) RecentExtractions(limit int) ([]domain.ExtractionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT batch_id, filename, path, outcome, exit_status, timed_out, attempts, finished_at
		FROM extractions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ExtractionRecord
	for rows.Next() {
		var (
			rec      domain.ExtractionRecord
			outcome  string
			timedOut int
			finished int64
		)
		if err := rows.Scan(&rec.BatchID, &rec.Filename, &rec.Path, &outcome,
			&rec.ExitStatus, &timedOut, &rec.Attempts, &finished); err != nil {
			return nil, err
		}
		rec.Outcome = domain.Outcome(outcome)
		rec.TimedOut = timedOut != 0
		rec.FinishedAt = time.UnixMilli(finished)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Path returns the database file path.
func (s *EncryptedStateStore) Path() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *EncryptedStateStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure EncryptedStateStore implements domain.StateStore.
var _ domain.StateStore = (*EncryptedStateStore)(nil)
