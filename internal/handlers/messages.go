package handlers

import (
	"errors"
	"net/http"

	"github.com/eldtechnologies/hookstore/internal/query"
)

// ListMessages returns stored messages, filtered and paginated.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	params, err := query.ParseParams(r.URL.Query())
	if err != nil {
		var verr *query.ValidationError
		if errors.As(err, &verr) {
			h.JSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
				Error:  "validation failed",
				Reason: "invalid_" + verr.Param,
				Field:  verr.Param,
				Detail: verr.Detail,
			})
			return
		}
		h.Error(w, http.StatusBadRequest, "invalid query")
		return
	}

	page, err := h.engine.List(r.Context(), params)
	if err != nil {
		h.storageUnavailable(w, r, err, "list_messages")
		return
	}

	h.JSON(w, http.StatusOK, page)
}
