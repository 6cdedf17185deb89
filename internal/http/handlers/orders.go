package handlers

import (
	"net/http"

	"breakfast-order-service/internal/order"
	"breakfast-order-service/pkg/response"
)

func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := h.writeRequest(w, r)
	if !ok {
		return
	}
	var body order.Proposal
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, err := h.Service.Submit(r.Context(), req, body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, res)
}

func (h *Handler) AddOrderSet(w http.ResponseWriter, r *http.Request) {
	req, ok := h.writeRequest(w, r)
	if !ok {
		return
	}
	var body struct {
		AcknowledgedPayment bool `json:"acknowledgedPayment"`
	}
	if err := decodeBody(r, &body); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, err := h.Service.AddSet(r.Context(), req, body.AcknowledgedPayment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    res,
	})
}

func (h *Handler) RemoveOrderSet(w http.ResponseWriter, r *http.Request) {
	req, ok := h.writeRequest(w, r)
	if !ok {
		return
	}
	res, err := h.Service.RemoveSet(r.Context(), req, readPathString(r, "setId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, res)
}

func (h *Handler) ClearOrder(w http.ResponseWriter, r *http.Request) {
	req, ok := h.writeRequest(w, r)
	if !ok {
		return
	}
	res, err := h.Service.Clear(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, res)
}

func (h *Handler) ToggleBreakfast(w http.ResponseWriter, r *http.Request) {
	req, ok := h.writeRequest(w, r)
	if !ok {
		return
	}
	res, err := h.Service.ToggleBreakfast(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, res)
}
