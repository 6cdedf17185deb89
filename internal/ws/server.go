package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"breakfast-order-service/internal/auth"
	"breakfast-order-service/internal/board"
	"breakfast-order-service/internal/config"
	"breakfast-order-service/internal/frontdesk"
	"breakfast-order-service/internal/order"
	"breakfast-order-service/internal/window"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	frameBoardState  = "board.state"
	frameStoreDenied = "store.denied"
	frameRoomSaved   = "room.saved"
	frameError       = "error"

	frameDateShift      = "date.shift"
	frameDateSelect     = "date.select"
	frameOverrideToggle = "override.toggle"
	frameRoomSubmit     = "room.submit"

	writeWait = 10 * time.Second
)

type Server struct {
	Logger  *zap.Logger
	Config  config.Config
	Service *frontdesk.Service
}

func New(logger *zap.Logger, cfg config.Config, service *frontdesk.Service) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Logger: logger, Config: cfg, Service: service}
}

type wsRealtimeClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsRealtimeClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(value)
}

func (c *wsRealtimeClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *wsRealtimeClient) writeError(code, message string) {
	_ = c.writeJSON(map[string]any{"type": frameError, "error": code, "message": message})
}

type clientFrame struct {
	Type     string          `json:"type"`
	Offset   int             `json:"offset"`
	Date     string          `json:"date"`
	RoomID   string          `json:"roomId"`
	Proposal *order.Proposal `json:"proposal"`
}

func tokenFromRequest(r *http.Request) string {
	if token := auth.ParseBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	raw := strings.TrimSpace(r.URL.Query().Get("token"))
	if token := auth.ParseBearerToken(raw); token != "" {
		return token
	}
	return raw
}

// BoardWS streams one terminal's board. Each connection owns its own board so
// date selection and the override stay per terminal.
func (s *Server) BoardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := &wsRealtimeClient{conn: conn}
	claims, err := auth.VerifyAccessToken(tokenFromRequest(r), s.Config.JWTSecret)
	if err != nil {
		client.writeError("UNAUTHORIZED", "unauthorized")
		return
	}
	actor := claims.Actor()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var denied sync.Once
	b := board.New(s.Service.Store(), s.Service.Menu(), s.Service.Rooms(), s.Service.Policy(), board.Options{
		Now:    s.Service.Now,
		Logger: s.Logger,
		OnChange: func(v board.View) {
			_ = client.writeJSON(map[string]any{"type": frameBoardState, "data": v})
			if v.Blocked {
				denied.Do(func() {
					_ = client.writeJSON(map[string]any{"type": frameStoreDenied})
				})
			}
		},
	})
	defer b.Close()

	if err := b.Start(ctx); err != nil && !board.IsBlocked(err) {
		s.Logger.Warn("board start failed", zap.String("subject", claims.Subject), zap.Error(err))
		client.writeError("STORE_UNAVAILABLE", "failed to load board")
		return
	}
	if date := strings.TrimSpace(r.URL.Query().Get("date")); date != "" {
		s.selectDate(ctx, client, b, date)
	}

	writes := s.Service.Clone(frontdesk.WithWriter(b))

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			var frame clientFrame
			if readErr := conn.ReadJSON(&frame); readErr != nil {
				var syntaxErr *json.SyntaxError
				var typeErr *json.UnmarshalTypeError
				if errors.As(readErr, &syntaxErr) || errors.As(readErr, &typeErr) {
					client.writeError("VALIDATION_ERROR", "invalid frame")
					continue
				}
				return
			}
			s.handleFrame(ctx, client, b, writes, actor, frame)
		}
	}()

	interval := s.Config.WSHeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.ping(); err != nil {
				return
			}
		}
	}
}

func (s *Server) selectDate(ctx context.Context, client *wsRealtimeClient, b *board.Board, key string) {
	date, err := window.ParseKey(key, s.Service.Policy().Location)
	if err != nil {
		client.writeError(string(order.ErrDateOutOfRange), "date must be YYYY-MM-DD")
		return
	}
	changed, err := b.SelectDate(ctx, date)
	if err != nil {
		s.Logger.Warn("board date change failed", zap.String("dateKey", key), zap.Error(err))
		return
	}
	if !changed && window.Key(date) != b.DateKey() {
		client.writeError(string(order.ErrDateOutOfRange), "date is outside the booking horizon")
	}
}

func (s *Server) handleFrame(ctx context.Context, client *wsRealtimeClient, b *board.Board, writes *frontdesk.Service, actor order.Actor, frame clientFrame) {
	switch frame.Type {
	case frameDateShift:
		if frame.Offset == 0 {
			return
		}
		changed, err := b.Shift(ctx, frame.Offset)
		if err != nil {
			s.Logger.Warn("board date shift failed", zap.Int("offset", frame.Offset), zap.Error(err))
			return
		}
		if !changed {
			client.writeError(string(order.ErrDateOutOfRange), "date is outside the booking horizon")
		}

	case frameDateSelect:
		s.selectDate(ctx, client, b, frame.Date)

	case frameOverrideToggle:
		if !actor.IsStaff() {
			client.writeError(string(order.ErrStaffOnly), "only staff can override the ordering window")
			return
		}
		if err := b.ToggleOverride(); err != nil {
			client.writeError(string(order.ErrOrderingLocked), err.Error())
		}

	case frameRoomSubmit:
		if frame.Proposal == nil || strings.TrimSpace(frame.RoomID) == "" {
			client.writeError("VALIDATION_ERROR", "roomId and proposal are required")
			return
		}
		res, err := writes.Submit(ctx, frontdesk.Request{
			DateKey:  b.DateKey(),
			RoomID:   frame.RoomID,
			Actor:    actor,
			Override: b.Override() && actor.IsStaff(),
		}, *frame.Proposal)
		if err != nil {
			s.writeSubmitError(client, err)
			return
		}
		_ = client.writeJSON(map[string]any{"type": frameRoomSaved, "data": res})

	default:
		client.writeError("VALIDATION_ERROR", "unknown frame type")
	}
}

func (s *Server) writeSubmitError(client *wsRealtimeClient, err error) {
	if e, ok := order.AsError(err); ok {
		_ = client.writeJSON(map[string]any{"type": frameError, "error": string(e.Code), "message": e.Message, "details": e.Details})
		return
	}
	if board.IsBlocked(err) {
		client.writeError("STORE_ACCESS_DENIED", "order store access denied")
		return
	}
	// The board already holds the optimistic record; the store write is
	// reported but not rolled back.
	s.Logger.Warn("board write failed", zap.Error(err))
	client.writeError("STORE_WRITE_FAILED", "saving to the order store failed")
}
