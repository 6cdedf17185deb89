package handlers

import (
	"net/http"

	"breakfast-order-service/internal/availability"
	"breakfast-order-service/internal/middleware"
	"breakfast-order-service/pkg/response"
)

func (h *Handler) AvailabilityGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Service.Store().LoadAvailability(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, settings.Normalize())
}

func (h *Handler) AvailabilityUpdate(w http.ResponseWriter, r *http.Request) {
	var body availability.Settings
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	settings, err := h.Service.SetAvailability(r.Context(), middleware.ActorFrom(r.Context()), body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, settings)
}
