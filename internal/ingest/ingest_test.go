package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/hookstore/internal/crypto"
	"github.com/eldtechnologies/hookstore/internal/models"
	"github.com/eldtechnologies/hookstore/internal/store"
)

var testSecret = []byte("test-secret-123")

// fakeInserter records calls and returns a canned error.
type fakeInserter struct {
	mu    sync.Mutex
	calls []models.Message
	err   error
}

func (f *fakeInserter) InsertMessage(_ context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, *msg)
	return f.err
}

func str(s string) *string { return &s }

func validPayload() Payload {
	return Payload{
		MessageID: str("m1"),
		From:      str("+919876543210"),
		To:        str("+14155550100"),
		TS:        str("2025-01-15T10:00:00Z"),
		Text:      str("Hello"),
	}
}

func TestPayloadValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Payload)
		reason string
		field  string
	}{
		{"valid", func(p *Payload) {}, "", ""},
		{"text optional", func(p *Payload) { p.Text = nil }, "", ""},
		{"fractional seconds", func(p *Payload) { p.TS = str("2025-01-15T10:00:00.123Z") }, "", ""},
		{"text at limit", func(p *Payload) { p.Text = str(strings.Repeat("é", MaxTextLength)) }, "", ""},
		{"missing message_id", func(p *Payload) { p.MessageID = nil }, ReasonMissingField, "message_id"},
		{"missing from", func(p *Payload) { p.From = nil }, ReasonMissingField, "from"},
		{"missing to", func(p *Payload) { p.To = nil }, ReasonMissingField, "to"},
		{"missing ts", func(p *Payload) { p.TS = nil }, ReasonMissingField, "ts"},
		{"empty message_id", func(p *Payload) { p.MessageID = str("") }, ReasonEmptyMessageID, "message_id"},
		{"from without plus", func(p *Payload) { p.From = str("919876543210") }, ReasonInvalidFrom, "from"},
		{"from with letters", func(p *Payload) { p.From = str("+91abc") }, ReasonInvalidFrom, "from"},
		{"to plus only", func(p *Payload) { p.To = str("+") }, ReasonInvalidTo, "to"},
		{"ts not a date", func(p *Payload) { p.TS = str("yesterday") }, ReasonInvalidTS, "ts"},
		{"ts without Z", func(p *Payload) { p.TS = str("2025-01-15T10:00:00") }, ReasonInvalidTS, "ts"},
		{"ts with offset", func(p *Payload) { p.TS = str("2025-01-15T10:00:00+00:00") }, ReasonInvalidTS, "ts"},
		{"ts impossible day", func(p *Payload) { p.TS = str("2025-02-30T10:00:00Z") }, ReasonInvalidTS, "ts"},
		{"text too long", func(p *Payload) { p.Text = str(strings.Repeat("a", MaxTextLength+1)) }, ReasonTextTooLong, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)
			verr := p.Validate()
			if tt.reason == "" {
				assert.Nil(t, verr)
				return
			}
			require.NotNil(t, verr)
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWriter_Outcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("created", func(t *testing.T) {
		f := &fakeInserter{}
		res, err := NewWriter(f).Ingest(ctx, validPayload())
		require.NoError(t, err)
		assert.Equal(t, OutcomeCreated, res.Outcome)
		assert.Equal(t, "m1", res.MessageID)
		require.Len(t, f.calls, 1)
		assert.Equal(t, "+919876543210", f.calls[0].From)
	})

	t.Run("duplicate", func(t *testing.T) {
		f := &fakeInserter{err: store.ErrDuplicateMessage}
		res, err := NewWriter(f).Ingest(ctx, validPayload())
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, res.Outcome)
		assert.True(t, res.Outcome.Accepted())
	})

	t.Run("validation error never writes", func(t *testing.T) {
		f := &fakeInserter{}
		p := validPayload()
		p.From = str("bad")
		res, err := NewWriter(f).Ingest(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, OutcomeValidationError, res.Outcome)
		assert.Equal(t, ReasonInvalidFrom, res.Validation.Reason)
		assert.Empty(t, f.calls)
	})

	t.Run("storage failure", func(t *testing.T) {
		f := &fakeInserter{err: errors.New("disk I/O error")}
		_, err := NewWriter(f).Ingest(ctx, validPayload())
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrStorageUnavailable)
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "created", OutcomeCreated.String())
	assert.Equal(t, "duplicate", OutcomeDuplicate.String())
	assert.Equal(t, "validation_error", OutcomeValidationError.String())
	assert.Equal(t, "invalid_signature", OutcomeInvalidSignature.String())
	assert.False(t, OutcomeInvalidSignature.Accepted())
	assert.False(t, OutcomeValidationError.Accepted())
}

func TestPipeline_InvalidSignatureNeverTouchesStore(t *testing.T) {
	f := &fakeInserter{}
	p := NewPipeline(testSecret, NewWriter(f))
	body := []byte(`{"message_id":"m1","from":"+1","to":"+2","ts":"2025-01-15T10:00:00Z"}`)

	for _, sig := range []string{"", "nothex", crypto.SignHMAC(body, []byte("wrong"))} {
		res, v, err := p.Submit(context.Background(), body, sig)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInvalidSignature, res.Outcome)
		assert.False(t, v.Valid)
	}
	assert.Empty(t, f.calls)
}

func TestPipeline_EmptySecretRejects(t *testing.T) {
	f := &fakeInserter{}
	p := NewPipeline(nil, NewWriter(f))
	body := []byte(`{}`)

	res, v, err := p.Submit(context.Background(), body, crypto.SignHMAC(body, nil))
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalidSignature, res.Outcome)
	assert.Equal(t, crypto.FailureNoSecret, v.Failure)
	assert.Empty(t, f.calls)
}

func TestPipeline_BadJSON(t *testing.T) {
	f := &fakeInserter{}
	p := NewPipeline(testSecret, NewWriter(f))

	for _, body := range []string{"", "[]", "not json", `{"message_id":`, `{"message_id": 5}`} {
		res, _, err := p.Submit(context.Background(), []byte(body), crypto.SignHMAC([]byte(body), testSecret))
		require.NoError(t, err)
		assert.Equal(t, OutcomeValidationError, res.Outcome, "body %q", body)
		assert.Equal(t, ReasonInvalidJSON, res.Validation.Reason)
	}
	assert.Empty(t, f.calls)
}

func TestPipeline_IdempotentAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EnsureSchema(ctx))

	p := NewPipeline(testSecret, NewWriter(s))
	body := []byte(`{"message_id":"m1","from":"+1234567890","to":"+0987654321","ts":"2025-01-15T10:00:00Z","text":"Hello"}`)
	sig := crypto.SignHMAC(body, testSecret)

	first, _, err := p.Submit(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, first.Outcome)

	second, _, err := p.Submit(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, second.Outcome)

	_, total, err := s.ListMessages(ctx, store.MessageFilter{}, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}
