package store

import (
	"context"
	"fmt"
	"strings"
)

// Open connects to the backend named by databaseURL:
//
//	postgres://... or postgresql://...  PostgresStore
//	sqlite:///relative.db               SQLiteStore at "relative.db"
//	sqlite:////abs/path.db              SQLiteStore at "/abs/path.db"
//	a path with no scheme               SQLiteStore at that file path
//
// Any other scheme:// prefix is ErrUnsupportedURL.
func Open(ctx context.Context, databaseURL string) (DataStore, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return NewPostgresStore(ctx, databaseURL)
	}
	if scheme, _, ok := strings.Cut(databaseURL, "://"); ok && !strings.HasPrefix(databaseURL, "sqlite:///") {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, scheme)
	}
	return NewSQLiteStore(ctx, SQLitePath(databaseURL))
}

// SQLitePath extracts the file path from a sqlite:/// URL.
func SQLitePath(databaseURL string) string {
	if path, ok := strings.CutPrefix(databaseURL, "sqlite:///"); ok {
		return path
	}
	return databaseURL
}
