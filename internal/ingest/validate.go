package ingest

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/eldtechnologies/hookstore/internal/models"
)

// MaxTextLength is the longest accepted text, in characters.
const MaxTextLength = 4096

// Reason codes reported with a validation failure.
const (
	ReasonInvalidJSON    = "invalid_json"
	ReasonMissingField   = "missing_field"
	ReasonEmptyMessageID = "empty_message_id"
	ReasonInvalidFrom    = "invalid_from"
	ReasonInvalidTo      = "invalid_to"
	ReasonInvalidTS      = "invalid_ts"
	ReasonTextTooLong    = "text_too_long"
)

var e164Pattern = regexp.MustCompile(`^\+[0-9]+$`)

// ValidationError describes a structurally invalid payload.
type ValidationError struct {
	Reason string // machine-readable code
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Reason, e.Field, e.Detail)
	}
	return e.Reason + ": " + e.Detail
}

// Validate checks p's structure and returns the first problem found.
func (p *Payload) Validate() *ValidationError {
	required := []struct {
		name  string
		value *string
	}{
		{"message_id", p.MessageID},
		{"from", p.From},
		{"to", p.To},
		{"ts", p.TS},
	}
	for _, f := range required {
		if f.value == nil {
			return &ValidationError{Reason: ReasonMissingField, Field: f.name, Detail: "field required"}
		}
	}

	if *p.MessageID == "" {
		return &ValidationError{Reason: ReasonEmptyMessageID, Field: "message_id", Detail: "must not be empty"}
	}
	if !e164Pattern.MatchString(*p.From) {
		return &ValidationError{Reason: ReasonInvalidFrom, Field: "from", Detail: "must be E.164: + followed by digits"}
	}
	if !e164Pattern.MatchString(*p.To) {
		return &ValidationError{Reason: ReasonInvalidTo, Field: "to", Detail: "must be E.164: + followed by digits"}
	}
	if !models.ValidUTCInstant(*p.TS) {
		return &ValidationError{Reason: ReasonInvalidTS, Field: "ts", Detail: "must be an ISO-8601 UTC timestamp ending in Z"}
	}
	if p.Text != nil && utf8.RuneCountInString(*p.Text) > MaxTextLength {
		return &ValidationError{Reason: ReasonTextTooLong, Field: "text", Detail: fmt.Sprintf("must be at most %d characters", MaxTextLength)}
	}
	return nil
}
