package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/frontdesk"
	"breakfast-order-service/internal/middleware"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/report"
	"breakfast-order-service/pkg/response"
)

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func readPathString(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

func readQueryBool(r *http.Request, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && value
}

// decodeBody reads an optional JSON body. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeRequest resolves the room write addressed by the route. Kiosks may not
// ask for the override.
func (h *Handler) writeRequest(w http.ResponseWriter, r *http.Request) (frontdesk.Request, bool) {
	actor := middleware.ActorFrom(r.Context())
	req := frontdesk.Request{
		DateKey:  readPathString(r, "date"),
		RoomID:   readPathString(r, "roomId"),
		Actor:    actor,
		Override: readQueryBool(r, "override"),
	}
	if req.Override && !actor.IsStaff() {
		response.Error(w, http.StatusForbidden, string(order.ErrStaffOnly), "Only staff can override the ordering window")
		return frontdesk.Request{}, false
	}
	return req, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if e, ok := order.AsError(err); ok {
		response.ErrorWithDetails(w, e.StatusCode, string(e.Code), e.Message, e.Details)
		return
	}
	switch {
	case docstore.IsPermissionDenied(err):
		h.Logger.Error("store access denied", zap.String("path", r.URL.Path), zap.String("requestId", middleware.RequestIDFrom(r.Context())), zapError(err))
		response.Error(w, http.StatusForbidden, "STORE_ACCESS_DENIED", "Order store access denied")
	case errors.Is(err, report.ErrArchiveDisabled):
		response.Error(w, http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "Report archive is not configured")
	default:
		h.Logger.Error("request failed", zap.String("path", r.URL.Path), zap.String("requestId", middleware.RequestIDFrom(r.Context())), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
