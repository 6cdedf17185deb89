package handlers

import (
	"net/http"
	"path"

	"go.uber.org/zap"

	"breakfast-order-service/internal/middleware"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/report"
	"breakfast-order-service/internal/window"
	"breakfast-order-service/pkg/response"
)

func (h *Handler) reportDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := readPathString(r, "date")
	date, err := window.ParseKey(raw, h.Service.Policy().Location)
	if err != nil {
		response.ErrorWithDetails(w, http.StatusBadRequest, string(order.ErrDateOutOfRange), "date must be YYYY-MM-DD", map[string]any{"date": raw})
		return "", false
	}
	return window.Key(date), true
}

func (h *Handler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := h.reportDate(w, r)
	if !ok {
		return
	}
	body, err := h.Reports.PDF(r.Context(), dateKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Binary(w, report.PDFContentType, path.Base(report.ObjectKey(dateKey, "pdf")), body)
}

func (h *Handler) ReportXLSX(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := h.reportDate(w, r)
	if !ok {
		return
	}
	body, err := h.Reports.XLSX(r.Context(), dateKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Binary(w, report.XLSXContentType, path.Base(report.ObjectKey(dateKey, "xlsx")), body)
}

// ReportArchive queues the archive job when a worker is available, and
// otherwise uploads both files inline.
func (h *Handler) ReportArchive(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := h.reportDate(w, r)
	if !ok {
		return
	}
	if !h.Reports.CanArchive() {
		h.writeError(w, r, report.ErrArchiveDisabled)
		return
	}

	requestedBy := middleware.ActorFrom(r.Context()).Name
	if h.Queue != nil {
		err := h.Queue.EnqueueArchive(r.Context(), dateKey, requestedBy)
		if err == nil {
			response.JSON(w, http.StatusAccepted, map[string]any{
				"success": true,
				"data":    map[string]any{"dateKey": dateKey, "queued": true},
			})
			return
		}
		h.Logger.Warn("archive enqueue failed, archiving inline", zap.String("dateKey", dateKey), zapError(err))
	}

	out, err := h.Reports.ArchiveReports(r.Context(), dateKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, out)
}

func (h *Handler) ReportArchiveList(w http.ResponseWriter, r *http.Request) {
	dateKey, ok := h.reportDate(w, r)
	if !ok {
		return
	}
	if h.Archive == nil {
		h.writeError(w, r, report.ErrArchiveDisabled)
		return
	}
	objects, err := h.Archive.List(r.Context(), report.ArchivePrefix(dateKey))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]any{"dateKey": dateKey, "objects": objects})
}
