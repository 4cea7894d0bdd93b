package handler

import (
	"net/http"

	"github.com/go-faster/jx"
)

// History handles GET /api/products/{id}/history. Products without a
// parsable price report available=false and no points.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.lookup(r, id)
	if err != nil {
		fail(w, r, err, "product "+id+" is not in the current results")
		return
	}

	points, ok := h.history.Generate(p.Primary().DisplayText)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeHistory(e, p.ID, points, ok)
	})
}
