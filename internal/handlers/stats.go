package handlers

import (
	"net/http"
)

// Stats returns aggregate message analytics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.stats.Compute(r.Context())
	if err != nil {
		h.storageUnavailable(w, r, err, "stats")
		return
	}

	h.JSON(w, http.StatusOK, st)
}
