package ingest

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/eldtechnologies/hookstore/internal/crypto"
)

// Pipeline is the transport-independent webhook contract: raw body and
// signature in, classified result out.
type Pipeline struct {
	secret []byte
	writer *Writer
}

// NewPipeline creates a Pipeline verifying with secret and storing via w.
func NewPipeline(secret []byte, w *Writer) *Pipeline {
	return &Pipeline{secret: secret, writer: w}
}

// Submit authenticates body, then decodes, validates and stores it.
// A bad signature returns before the body is decoded. The returned
// Verification is only meaningful for OutcomeInvalidSignature.
func (p *Pipeline) Submit(ctx context.Context, body []byte, signature string) (Result, crypto.Verification, error) {
	v := crypto.VerifyHMAC(body, signature, p.secret)
	if !v.Valid {
		return Result{Outcome: OutcomeInvalidSignature}, v, nil
	}

	payload, verr := decodePayload(body)
	if verr != nil {
		return Result{Outcome: OutcomeValidationError, Validation: verr}, v, nil
	}

	res, err := p.writer.Ingest(ctx, payload)
	return res, v, err
}

func decodePayload(body []byte) (Payload, *ValidationError) {
	var p Payload

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return p, &ValidationError{Reason: ReasonInvalidJSON, Detail: "body must be a JSON object"}
	}
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return p, &ValidationError{Reason: ReasonInvalidJSON, Detail: "malformed JSON body"}
	}
	return p, nil
}
