package handlers

import (
	"net/http"

	"breakfast-order-service/internal/middleware"
	"breakfast-order-service/pkg/response"
)

// DateDetail returns the window status, records and aggregation of one date.
func (h *Handler) DateDetail(w http.ResponseWriter, r *http.Request) {
	day, err := h.Service.Day(r.Context(), readPathString(r, "date"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, day)
}

// RoomDetail returns the record a terminal edits. Kiosks always see
// tomorrow's record.
func (h *Handler) RoomDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.Room(r.Context(), readPathString(r, "date"), readPathString(r, "roomId"), middleware.ActorFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, detail)
}
