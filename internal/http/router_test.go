package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"breakfast-order-service/internal/auth"
	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/config"
	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/frontdesk"
	"breakfast-order-service/internal/http/handlers"
	"breakfast-order-service/internal/report"
	"breakfast-order-service/internal/roster"
	"breakfast-order-service/internal/window"
)

const testSecret = "router-secret"

var cst = time.FixedZone("CST", 8*3600)

type queuedArchives struct {
	mu   sync.Mutex
	jobs []string
}

func (q *queuedArchives) EnqueueArchive(ctx context.Context, dateKey, requestedBy string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, dateKey+"/"+requestedBy)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details map[string]any  `json:"details"`
}

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *docstore.Memory
	staff   string
	kiosk   string
}

func newTestAPI(t *testing.T, queue handlers.ArchiveQueue) *testAPI {
	t.Helper()
	store := docstore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })

	now := time.Date(2026, 3, 10, 20, 0, 0, 0, cst)
	svc := frontdesk.New(store, catalog.Default(), roster.Default(), window.DefaultPolicy(cst),
		frontdesk.WithClock(func() time.Time { return now }),
	)
	gen := report.NewGenerator(store, svc.Menu(), svc.Rooms(), nil, report.PDFOptions{}, nil)
	cfg := config.Config{Env: "test", JWTSecret: testSecret}
	h := &handlers.Handler{Logger: zap.NewNop(), Config: cfg, Service: svc, Reports: gen, Queue: queue}

	staff, err := auth.IssueToken(testSecret, auth.RoleStaff, "desk-1", "Amy", time.Hour)
	require.NoError(t, err)
	kiosk, err := auth.IssueToken(testSecret, auth.RoleKiosk, "lobby-1", "", time.Hour)
	require.NoError(t, err)

	return &testAPI{t: t, handler: NewRouter(zap.NewNop(), cfg, h, nil), store: store, staff: staff, kiosk: kiosk}
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)
	rec, env := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAuthGuards(t *testing.T) {
	api := newTestAPI(t, nil)
	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
		code   string
	}{
		{name: "missing token", method: http.MethodGet, path: "/api/menu", status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "kiosk availability write", method: http.MethodPut, path: "/api/availability", token: api.kiosk, status: http.StatusForbidden},
		{name: "kiosk report", method: http.MethodGet, path: "/api/dates/2026-03-11/report.pdf", token: api.kiosk, status: http.StatusForbidden},
		{name: "kiosk breakfast toggle", method: http.MethodPost, path: "/api/dates/2026-03-11/rooms/101/breakfast", token: api.kiosk, status: http.StatusForbidden},
		{name: "kiosk override", method: http.MethodPost, path: "/api/dates/2026-03-11/rooms/101/clear?override=true", token: api.kiosk, status: http.StatusForbidden, code: "STAFF_ONLY"},
		{name: "kiosk menu", method: http.MethodGet, path: "/api/menu", token: api.kiosk, status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := api.do(tc.method, tc.path, tc.token, nil)
			assert.Equal(t, tc.status, rec.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, env.Error)
			}
		})
	}
}

func TestRooms(t *testing.T) {
	api := newTestAPI(t, nil)
	rec, env := api.do(http.MethodGet, "/api/rooms", api.kiosk, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Total  int `json:"total"`
		Floors []struct {
			Floor int `json:"floor"`
		} `json:"floors"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, roster.Default().Len(), payload.Total)
	require.Len(t, payload.Floors, 2)
	assert.Equal(t, 14, payload.Floors[0].Floor)
}

func TestGuestOrderFlow(t *testing.T) {
	api := newTestAPI(t, nil)
	room := "/api/dates/2026-03-11/rooms/101"

	rec, env := api.do(http.MethodPost, room+"/submit", api.kiosk, map[string]any{})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "BREAKFAST_NOT_AUTHORIZED", env.Error)

	rec, _ = api.do(http.MethodPost, room+"/breakfast", api.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodGet, room, api.kiosk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail frontdesk.RoomDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "AUTHORIZED", string(detail.Status))
	require.Len(t, detail.Record.OrderSets, 2)

	proposal := map[string]any{
		"orderSets": []map[string]any{
			{"id": detail.Record.OrderSets[0].ID, "mainId": "w1", "drinkId": "wa"},
			{"id": detail.Record.OrderSets[1].ID, "mainId": "c6", "drinkId": "ce", "drinkSugar": "No Sugar"},
		},
		"call7am": true,
	}
	rec, env = api.do(http.MethodPost, room+"/submit", api.kiosk, proposal)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var res frontdesk.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "2026-03-11", res.DateKey)
	assert.True(t, res.Record.IsCompleted)

	rec, env = api.do(http.MethodGet, "/api/dates/2026-03-11", api.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var day frontdesk.Day
	require.NoError(t, json.Unmarshal(env.Data, &day))
	assert.Equal(t, 1, day.Aggregate.Completed)
	assert.Equal(t, 1, day.Aggregate.Kitchen.Count("w1"))
}

func TestStaffSetsAndClear(t *testing.T) {
	api := newTestAPI(t, nil)
	room := "/api/dates/2026-03-12/rooms/102"

	rec, env := api.do(http.MethodPost, room+"/sets", api.staff, map[string]any{"acknowledgedPayment": true})
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	var res frontdesk.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.Set)
	assert.True(t, res.Set.IsAddOn)

	rec, _ = api.do(http.MethodDelete, room+"/sets/"+res.Set.ID, api.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodDelete, room+"/sets/missing", api.staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SET_NOT_FOUND", env.Error)

	rec, _ = api.do(http.MethodPost, room+"/clear", api.staff, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWindowErrors(t *testing.T) {
	api := newTestAPI(t, nil)
	cases := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{name: "past date", path: "/api/dates/2026-03-09/rooms/101/clear", status: http.StatusConflict, code: "ORDERING_LOCKED"},
		{name: "beyond horizon", path: "/api/dates/2026-03-30/rooms/101/clear", status: http.StatusBadRequest, code: "DATE_OUT_OF_RANGE"},
		{name: "bad date", path: "/api/dates/tomorrow/rooms/101/clear", status: http.StatusBadRequest, code: "DATE_OUT_OF_RANGE"},
		{name: "unknown room", path: "/api/dates/2026-03-11/rooms/999/clear", status: http.StatusNotFound, code: "ROOM_NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := api.do(http.MethodPost, tc.path, api.staff, nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.code, env.Error)
		})
	}

	rec, env := api.do(http.MethodPost, "/api/dates/2026-03-09/rooms/101/clear", api.staff, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "past", env.Details["reason"])
}

func TestAvailability(t *testing.T) {
	api := newTestAPI(t, nil)
	rec, env := api.do(http.MethodPut, "/api/availability", api.staff, map[string]any{
		"isChineseClosed":  true,
		"unavailableItems": []string{"w2", "w2"},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, env = api.do(http.MethodGet, "/api/availability", api.kiosk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings struct {
		IsChineseClosed  bool     `json:"isChineseClosed"`
		UnavailableItems []string `json:"unavailableItems"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	assert.True(t, settings.IsChineseClosed)
	assert.Equal(t, []string{"w2"}, settings.UnavailableItems)

	rec, env = api.do(http.MethodPut, "/api/availability", api.staff, map[string]any{"unavailableItems": []string{"zz"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ITEM_NOT_FOUND", env.Error)
}

func TestReports(t *testing.T) {
	api := newTestAPI(t, nil)
	rec, _ := api.do(http.MethodGet, "/api/dates/2026-03-11/report.pdf", api.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.PDFContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "breakfast-2026-03-11.pdf")

	rec, _ = api.do(http.MethodGet, "/api/dates/2026-03-11/report.xlsx", api.staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.XLSXContentType, rec.Header().Get("Content-Type"))

	rec, env := api.do(http.MethodPost, "/api/dates/2026-03-11/report/archive", api.staff, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "ARCHIVE_DISABLED", env.Error)
}

func TestStoreAccessDenied(t *testing.T) {
	api := newTestAPI(t, nil)
	api.store.Fail(fmt.Errorf("%w: token revoked", docstore.ErrPermissionDenied))

	rec, env := api.do(http.MethodGet, "/api/dates/2026-03-11", api.staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "STORE_ACCESS_DENIED", env.Error)
}

func TestArchiveQueued(t *testing.T) {
	queue := &queuedArchives{}
	api := newTestAPI(t, queue)
	// Archiving needs an uploader even when the worker does the upload.
	rec, _ := api.do(http.MethodPost, "/api/dates/2026-03-11/report/archive", api.staff, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, queue.jobs)
}
