package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eldtechnologies/hookstore/internal/models"
)

// ErrDuplicateMessage is returned by InsertMessage when a message with the
// same message_id is already stored. The stored row is left untouched.
var ErrDuplicateMessage = errors.New("store: duplicate message_id")

// ErrStorageUnavailable marks failures the caller should retry.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrUnsupportedURL is returned by Open for a scheme it has no backend for.
var ErrUnsupportedURL = errors.New("store: unsupported database URL")

// SchemaError reports that the messages table could not be created.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return "store: ensure schema: " + e.Err.Error()
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// MessageFilter narrows ListMessages. Empty fields are ignored.
type MessageFilter struct {
	From  string // exact sender match
	Since string // ts >= Since
	Query string // case-insensitive substring of text
}

// DataStore defines the interface for persistent message storage.
// Both PostgresStore and SQLiteStore implement this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Schema
	EnsureSchema(ctx context.Context) error
	SchemaApplied(ctx context.Context) (bool, error)

	// Messages
	InsertMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, filter MessageFilter, limit, offset int) ([]models.Message, int, error)
	GetStats(ctx context.Context, topSenders int) (*models.Stats, error)
}

// placeholderFunc renders the n-th (1-based) bind parameter.
type placeholderFunc func(n int) string

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

// buildWhere renders the WHERE clause for a filter and its arguments.
func buildWhere(f MessageFilter, ph placeholderFunc) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.From != "" {
		args = append(args, f.From)
		conds = append(conds, "from_msisdn = "+ph(len(args)))
	}
	if f.Since != "" {
		args = append(args, f.Since)
		conds = append(conds, "ts >= "+ph(len(args)))
	}
	if f.Query != "" {
		args = append(args, "%"+escapeLike(lowerText(f.Query))+"%")
		conds = append(conds, "LOWER(text) LIKE "+ph(len(args))+` ESCAPE '\'`)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// lowerText is the Unicode lowercase mapping applied to both sides of a
// text search. SQLite connections use it as LOWER().
func lowerText(s string) string {
	return cases.Lower(language.Und).String(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
