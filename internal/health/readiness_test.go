package health

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/hookstore/internal/store"
)

type fakeProbe struct {
	pingErr   error
	applied   bool
	schemaErr error
}

func (p fakeProbe) Ping(context.Context) error { return p.pingErr }

func (p fakeProbe) SchemaApplied(context.Context) (bool, error) { return p.applied, p.schemaErr }

func TestEvaluate(t *testing.T) {
	dbDown := errors.New("unable to open database file")

	tests := []struct {
		name       string
		probe      Probe
		secret     bool
		wantReady  bool
		wantFailed string
	}{
		{"all good", fakeProbe{applied: true}, true, true, ""},
		{"no secret", fakeProbe{applied: true}, false, false, CheckConfig},
		{"db unreachable", fakeProbe{pingErr: dbDown}, true, false, CheckDatabase},
		{"schema missing", fakeProbe{applied: false}, true, false, CheckSchema},
		{"schema check errors", fakeProbe{schemaErr: dbDown}, true, false, CheckSchema},
		{"nil probe", nil, true, false, CheckDatabase},
		{"no secret and db down reports config first", fakeProbe{pingErr: dbDown}, false, false, CheckConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewEvaluator(tt.probe, tt.secret).Evaluate(context.Background())
			assert.Equal(t, tt.wantReady, r.Ready)
			assert.Equal(t, tt.wantFailed, r.Failed)
			assert.Len(t, r.Checks, 3, "every check is reported")
		})
	}
}

func TestEvaluate_SQLiteLifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)

	e := NewEvaluator(s, true)

	r := e.Evaluate(ctx)
	assert.False(t, r.Ready)
	assert.Equal(t, CheckSchema, r.Failed)

	require.NoError(t, s.EnsureSchema(ctx))
	r = e.Evaluate(ctx)
	assert.True(t, r.Ready)

	s.Close()
	r = e.Evaluate(ctx)
	assert.False(t, r.Ready)
	assert.Equal(t, CheckDatabase, r.Failed)
	assert.Error(t, r.Err)
}
