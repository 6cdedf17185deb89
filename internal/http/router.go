package httpapi

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"breakfast-order-service/internal/config"
	"breakfast-order-service/internal/http/handlers"
	"breakfast-order-service/internal/middleware"
	"breakfast-order-service/internal/ws"
	"breakfast-order-service/pkg/response"
)

func NewRouter(logger *zap.Logger, cfg config.Config, h *handlers.Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"X-Request-Id",
				"Cache-Control",
			},
			ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]any{
			"status":  "ok",
			"latency": middleware.LatencySnapshot(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.TerminalAuth(cfg.JWTSecret))

		r.Get("/menu", h.Menu)
		r.Get("/rooms", h.Rooms)
		r.Get("/availability", h.AvailabilityGet)
		r.Put("/availability", h.AvailabilityUpdate)

		r.Route("/dates/{date}", func(r chi.Router) {
			r.Get("/", h.DateDetail)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff)
				r.Get("/report.pdf", h.ReportPDF)
				r.Get("/report.xlsx", h.ReportXLSX)
				r.Get("/report/archive", h.ReportArchiveList)
				r.Post("/report/archive", h.ReportArchive)
			})

			r.Route("/rooms/{roomId}", func(r chi.Router) {
				r.Get("/", h.RoomDetail)
				r.Post("/submit", h.SubmitOrder)
				r.Post("/sets", h.AddOrderSet)
				r.Delete("/sets/{setId}", h.RemoveOrderSet)
				r.Post("/clear", h.ClearOrder)
				r.Post("/breakfast", h.ToggleBreakfast)
			})
		})
	})

	if wsServer != nil {
		r.Get("/ws/board", wsServer.BoardWS)
	}

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
