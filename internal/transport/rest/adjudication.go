package rest

import (
	"net/http"

	"github.com/openapparel/facility-registry/internal/service/adjudicate"
)

// confirmMatch handles POST /api/lists/{listID}/items/{itemID}/matches/{matchID}/confirm.
func (h *Handler) confirmMatch(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathUUID(w, r, "listID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}

	result, err := h.adjudicate.ConfirmMatch(r.Context(), adjudicate.ConfirmInput{
		ListID:  listID,
		ItemID:  itemID,
		MatchID: matchID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAdjudicationResponse(result))
}

// rejectMatch handles POST /api/lists/{listID}/items/{itemID}/matches/{matchID}/reject.
func (h *Handler) rejectMatch(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathUUID(w, r, "listID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}
	matchID, ok := pathUUID(w, r, "matchID")
	if !ok {
		return
	}

	result, err := h.adjudicate.RejectMatch(r.Context(), adjudicate.RejectInput{
		ListID:  listID,
		ItemID:  itemID,
		MatchID: matchID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAdjudicationResponse(result))
}
