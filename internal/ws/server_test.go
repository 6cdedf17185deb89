package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakfast-order-service/internal/auth"
	"breakfast-order-service/internal/board"
	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/config"
	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/frontdesk"
	"breakfast-order-service/internal/roster"
	"breakfast-order-service/internal/window"
)

const testSecret = "ws-secret"

var cst = time.FixedZone("CST", 8*3600)

type frame struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (f frame) view(t *testing.T) board.View {
	t.Helper()
	var v board.View
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return v
}

func newTestServer(t *testing.T) (*httptest.Server, *docstore.Memory) {
	t.Helper()
	store := docstore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })

	now := time.Date(2026, 3, 10, 20, 0, 0, 0, cst)
	svc := frontdesk.New(store, catalog.Default(), roster.Default(), window.DefaultPolicy(cst),
		frontdesk.WithClock(func() time.Time { return now }),
	)
	srv := New(nil, config.Config{JWTSecret: testSecret, WSHeartbeatInterval: time.Second}, svc)
	ts := httptest.NewServer(http.HandlerFunc(srv.BoardWS))
	t.Cleanup(ts.Close)
	return ts, store
}

func dial(t *testing.T, ts *httptest.Server, role auth.TerminalRole, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/board"
	if role != "" {
		token, err := auth.IssueToken(testSecret, role, "terminal-1", "Amy", time.Hour)
		require.NoError(t, err)
		url += "?token=" + token
		if query != "" {
			url += "&" + query
		}
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads frames until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if match(f) {
			return f
		}
	}
}

func boardOn(t *testing.T, dateKey string) func(frame) bool {
	return func(f frame) bool {
		if f.Type != frameBoardState {
			return false
		}
		v := f.view(t)
		return v.DateKey == dateKey && v.Loaded
	}
}

func TestBoardWSUnauthorized(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts, "", "")
	f := readUntil(t, conn, func(frame) bool { return true })
	assert.Equal(t, frameError, f.Type)
	assert.Equal(t, "UNAUTHORIZED", f.Error)
}

func TestBoardWSNavigationAndSubmit(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts, auth.RoleStaff, "date=2026-03-12")

	v := readUntil(t, conn, boardOn(t, "2026-03-12")).view(t)
	assert.False(t, v.Override)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": frameDateShift, "offset": -1}))
	readUntil(t, conn, boardOn(t, "2026-03-11"))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":   frameRoomSubmit,
		"roomId": "101",
		"proposal": map[string]any{
			"orderSets": []map[string]any{{"id": "default-0", "mainId": "w1", "drinkId": "wa"}},
		},
	}))

	var saved, shown bool
	readUntil(t, conn, func(f frame) bool {
		switch f.Type {
		case frameRoomSaved:
			saved = true
		case frameBoardState:
			if rec, ok := f.view(t).Records["101"]; ok && rec.IsCompleted {
				shown = true
			}
		case frameError:
			t.Fatalf("unexpected error frame: %s %s", f.Error, f.Message)
		}
		return saved && shown
	})

	require.NoError(t, conn.WriteJSON(map[string]any{"type": frameDateSelect, "date": "2026-04-30"}))
	f := readUntil(t, conn, func(f frame) bool { return f.Type == frameError })
	assert.Equal(t, "DATE_OUT_OF_RANGE", f.Error)
}

func TestBoardWSKioskCannotOverride(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts, auth.RoleKiosk, "")
	readUntil(t, conn, boardOn(t, "2026-03-11"))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": frameOverrideToggle}))
	f := readUntil(t, conn, func(f frame) bool { return f.Type == frameError })
	assert.Equal(t, "STAFF_ONLY", f.Error)
}

func TestBoardWSStoreDenied(t *testing.T) {
	ts, store := newTestServer(t)
	conn := dial(t, ts, auth.RoleStaff, "")
	readUntil(t, conn, boardOn(t, "2026-03-11"))

	store.Fail(fmt.Errorf("%w: rules changed", docstore.ErrPermissionDenied))
	readUntil(t, conn, func(f frame) bool { return f.Type == frameStoreDenied })
}
