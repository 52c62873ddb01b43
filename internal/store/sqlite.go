package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/eldtechnologies/hookstore/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	message_id  TEXT PRIMARY KEY,
	from_msisdn TEXT NOT NULL,
	to_msisdn   TEXT NOT NULL,
	ts          TEXT NOT NULL,
	text        TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts);
CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(from_msisdn);
`

// sqliteDriver is mattn's driver with LOWER() replaced by a Unicode-aware
// version. The built-in one only folds ASCII.
const sqliteDriver = "sqlite3_hookstore"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", sqliteLower, true)
		},
	})
}

// sqliteLower keeps NULL as NULL so LOWER(text) on a textless message is
// still NULL. The driver passes NULL as a nil []byte.
func sqliteLower(v any) any {
	switch s := v.(type) {
	case string:
		return lowerText(s)
	case []byte:
		if s == nil {
			return nil
		}
		return lowerText(string(s))
	default:
		return v
	}
}

// receivedAtLayout is the millisecond UTC layout used for created_at.
const receivedAtLayout = "2006-01-02T15:04:05.000Z"

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the database file at dbPath.
// If dbPath is empty, defaults to "./data/app.db". The schema is not
// applied here; call EnsureSchema before serving traffic.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/app.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open(sqliteDriver, dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// EnsureSchema creates the messages table and its indexes if they don't
// exist. Safe to call repeatedly.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return &SchemaError{Err: err}
	}
	return nil
}

// SchemaApplied reports whether the messages table exists.
func (s *SQLiteStore) SchemaApplied(ctx context.Context) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'messages'`,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping runs a trivial round-trip query.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one)
}

// InsertMessage stores msg. The primary key on message_id is the only
// duplicate check; a conflict yields ErrDuplicateMessage.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	if msg.ReceivedAt == "" {
		msg.ReceivedAt = s.now().UTC().Format(receivedAtLayout)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (message_id, from_msisdn, to_msisdn, ts, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.From, msg.To, msg.Timestamp, msg.Text, msg.ReceivedAt)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrDuplicateMessage
		}
		return err
	}
	return nil
}

// ListMessages returns one page of messages matching filter together with
// the total number of matches. Count and page come from one transaction.
func (s *SQLiteStore) ListMessages(ctx context.Context, filter MessageFilter, limit, offset int) ([]models.Message, int, error) {
	where, args := buildWhere(filter, questionMark)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages
		`+where+`
		ORDER BY ts ASC, message_id ASC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0, limit)
	for rows.Next() {
		var (
			msg  models.Message
			text sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.From, &msg.To, &msg.Timestamp, &text, &msg.ReceivedAt); err != nil {
			return nil, 0, err
		}
		if text.Valid {
			msg.Text = &text.String
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// GetStats computes the aggregate view over all messages in one
// transaction.
func (s *SQLiteStore) GetStats(ctx context.Context, topSenders int) (*models.Stats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stats := &models.Stats{MessagesPerSender: []models.SenderCount{}}

	var first, last sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT from_msisdn), MIN(ts), MAX(ts)
		FROM messages
	`).Scan(&stats.TotalMessages, &stats.SendersCount, &first, &last)
	if err != nil {
		return nil, err
	}
	if first.Valid {
		stats.FirstMessageTS = &first.String
	}
	if last.Valid {
		stats.LastMessageTS = &last.String
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT from_msisdn, COUNT(*) AS count
		FROM messages
		GROUP BY from_msisdn
		ORDER BY count DESC, from_msisdn ASC
		LIMIT ?
	`, topSenders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sc models.SenderCount
		if err := rows.Scan(&sc.From, &sc.Count); err != nil {
			return nil, err
		}
		stats.MessagesPerSender = append(stats.MessagesPerSender, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
