package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/eldtechnologies/hookstore/internal/models"
	"github.com/eldtechnologies/hookstore/internal/store"
)

// Outcome classifies one webhook submission.
type Outcome int

const (
	OutcomeCreated Outcome = iota + 1
	OutcomeDuplicate
	OutcomeValidationError
	OutcomeInvalidSignature
)

// String returns the metric label for o.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeValidationError:
		return "validation_error"
	case OutcomeInvalidSignature:
		return "invalid_signature"
	default:
		return "unknown"
	}
}

// Accepted reports whether the caller should see a success response.
// Duplicates are accepted so retried deliveries never look like errors.
func (o Outcome) Accepted() bool {
	return o == OutcomeCreated || o == OutcomeDuplicate
}

// Result is the outcome of a submission plus what is known about it.
type Result struct {
	Outcome    Outcome
	MessageID  string
	Validation *ValidationError // set for OutcomeValidationError
}

// Payload is the webhook body. Pointer fields distinguish absent from empty.
type Payload struct {
	MessageID *string `json:"message_id"`
	From      *string `json:"from"`
	To        *string `json:"to"`
	TS        *string `json:"ts"`
	Text      *string `json:"text"`
}

// Inserter is the storage the writer needs.
type Inserter interface {
	InsertMessage(ctx context.Context, msg *models.Message) error
}

// Writer persists validated messages exactly once.
type Writer struct {
	store Inserter
}

// NewWriter creates a Writer backed by s.
func NewWriter(s Inserter) *Writer {
	return &Writer{store: s}
}

// Ingest validates p and stores it. The store's uniqueness constraint on
// message_id decides duplicates; there is no read-before-write.
func (w *Writer) Ingest(ctx context.Context, p Payload) (Result, error) {
	if verr := p.Validate(); verr != nil {
		res := Result{Outcome: OutcomeValidationError, Validation: verr}
		if p.MessageID != nil {
			res.MessageID = *p.MessageID
		}
		return res, nil
	}

	msg := &models.Message{
		ID:        *p.MessageID,
		From:      *p.From,
		To:        *p.To,
		Timestamp: *p.TS,
		Text:      p.Text,
	}

	err := w.store.InsertMessage(ctx, msg)
	switch {
	case err == nil:
		return Result{Outcome: OutcomeCreated, MessageID: msg.ID}, nil
	case errors.Is(err, store.ErrDuplicateMessage):
		return Result{Outcome: OutcomeDuplicate, MessageID: msg.ID}, nil
	default:
		return Result{MessageID: msg.ID}, fmt.Errorf("%w: insert message: %w", store.ErrStorageUnavailable, err)
	}
}
