package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldtechnologies/hookstore/internal/models"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Text columns that take part in ORDER BY or range filters use the C
// collation so ordering is bytewise, as in SQLite.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		message_id  TEXT COLLATE "C" PRIMARY KEY,
		from_msisdn TEXT COLLATE "C" NOT NULL,
		to_msisdn   TEXT NOT NULL,
		ts          TEXT COLLATE "C" NOT NULL,
		text        TEXT,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_ts ON messages(ts)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_from ON messages(from_msisdn)`,
}

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping runs a trivial round-trip query.
func (s *PostgresStore) Ping(ctx context.Context) error {
	var one int
	return s.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

// EnsureSchema creates the messages table and its indexes if they don't
// exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &SchemaError{Err: err}
		}
	}
	return nil
}

// SchemaApplied reports whether the messages table exists.
func (s *PostgresStore) SchemaApplied(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT to_regclass('messages') IS NOT NULL`).Scan(&exists)
	return exists, err
}

// InsertMessage stores msg, returning ErrDuplicateMessage on a primary key
// conflict.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	if msg.ReceivedAt == "" {
		msg.ReceivedAt = s.now().UTC().Format(receivedAtLayout)
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (message_id, from_msisdn, to_msisdn, ts, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.From, msg.To, msg.Timestamp, msg.Text, msg.ReceivedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateMessage
		}
		return err
	}
	return nil
}

func (s *PostgresStore) beginRead(ctx context.Context) (pgx.Tx, error) {
	return s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
}

// ListMessages returns one page of messages matching filter and the total
// match count, both read from one snapshot.
func (s *PostgresStore) ListMessages(ctx context.Context, filter MessageFilter, limit, offset int) ([]models.Message, int, error) {
	where, args := buildWhere(filter, dollar)

	tx, err := s.beginRead(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM messages `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	rows, err := tx.Query(ctx, `
		SELECT message_id, from_msisdn, to_msisdn, ts, text, created_at
		FROM messages
		`+where+`
		ORDER BY ts ASC, message_id ASC
		LIMIT `+dollar(n+1)+` OFFSET `+dollar(n+2),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0, limit)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.From, &msg.To, &msg.Timestamp, &msg.Text, &msg.ReceivedAt); err != nil {
			return nil, 0, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// GetStats computes the aggregate view over all messages from one snapshot.
func (s *PostgresStore) GetStats(ctx context.Context, topSenders int) (*models.Stats, error) {
	tx, err := s.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	stats := &models.Stats{MessagesPerSender: []models.SenderCount{}}

	err = tx.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT from_msisdn), MIN(ts), MAX(ts)
		FROM messages
	`).Scan(&stats.TotalMessages, &stats.SendersCount, &stats.FirstMessageTS, &stats.LastMessageTS)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT from_msisdn, COUNT(*) AS count
		FROM messages
		GROUP BY from_msisdn
		ORDER BY count DESC, from_msisdn ASC
		LIMIT $1
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
