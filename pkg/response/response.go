package response

import (
	"encoding/json"
	"net/http"
)

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}

// ErrorWithDetails adds a details object for validation failures that carry
// extra context, such as the lock reason.
func ErrorWithDetails(w http.ResponseWriter, status int, code string, message string, details map[string]any) {
	if len(details) == 0 {
		Error(w, status, code, message)
		return
	}
	JSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": message,
		"details": details,
	})
}

// Binary writes a downloadable file.
func Binary(w http.ResponseWriter, contentType string, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
