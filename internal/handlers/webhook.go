package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/eldtechnologies/hookstore/internal/api/middleware"
	"github.com/eldtechnologies/hookstore/internal/crypto"
	"github.com/eldtechnologies/hookstore/internal/ingest"
	"github.com/eldtechnologies/hookstore/internal/metrics"
)

// invalidSignature is the only body ever sent for an authentication
// failure, whatever the cause.
const invalidSignature = "invalid signature"

// WebhookResponse acknowledges an accepted message.
type WebhookResponse struct {
	Status string `json:"status"`
}

// ValidationErrorResponse describes a rejected payload.
type ValidationErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail"`
}

// Webhook ingests one signed message. Created and duplicate submissions
// both answer 200 so retried deliveries look identical to the sender.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.Error(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	res, verification, err := h.pipeline.Submit(r.Context(), body, r.Header.Get(crypto.SignatureHeader))
	info := middleware.WebhookInfoFrom(r.Context())
	if info != nil && res.MessageID != "" {
		info.MessageID = res.MessageID
	}
	if err != nil {
		h.storageUnavailable(w, r, err, "insert_message")
		return
	}

	metrics.WebhookRequests.WithLabelValues(res.Outcome.String()).Inc()
	if info != nil {
		info.Result = res.Outcome.String()
	}

	switch res.Outcome {
	case ingest.OutcomeInvalidSignature:
		h.logger.Debug().
			Str("failure", string(verification.Failure)).
			Msg("webhook signature rejected")
		h.Error(w, http.StatusUnauthorized, invalidSignature)

	case ingest.OutcomeValidationError:
		h.JSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "validation failed",
			Reason: res.Validation.Reason,
			Field:  res.Validation.Field,
			Detail: res.Validation.Detail,
		})

	default:
		if info != nil {
			dup := res.Outcome == ingest.OutcomeDuplicate
			info.Dup = &dup
		}
		h.JSON(w, http.StatusOK, WebhookResponse{Status: "ok"})
	}
}
