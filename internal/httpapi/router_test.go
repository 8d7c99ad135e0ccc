package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SuperRPS/internal/auth"
	"SuperRPS/internal/game/engine"
	"SuperRPS/internal/relay"
	"SuperRPS/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("router-secret")

type participant struct{ id string }

func (p participant) ID() string                 { return p.id }
func (p participant) Notify(n relay.Notification) {}

func newTestRouter(t *testing.T) (*gin.Engine, *relay.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := relay.NewRegistry(nil)
	r := NewRouter(Deps{
		Hub:         websocket.NewHub(),
		Registry:    reg,
		Secret:      secret,
		TokenTTL:    time.Hour,
		Defaults:    engine.DefaultSettings(),
		RevealDelay: 1500 * time.Millisecond,
	})
	return r, reg
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := get(r, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGameSettings(t *testing.T) {
	r, _ := newTestRouter(t)
	w := get(r, "/game/settings", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.HandSize)
	assert.Equal(t, 18, resp.Deck.Total())
	assert.True(t, resp.OpenHand)
	assert.EqualValues(t, 1500, resp.RevealDelayMs)
}

func TestRoomsRequiresAuth(t *testing.T) {
	r, reg := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/rooms/abc", "").Code)

	require.NoError(t, reg.Join("abc", participant{"p1"}))
	require.NoError(t, reg.Flush(context.Background()))
	tok, err := auth.IssueToken(secret, "p1", time.Minute)
	require.NoError(t, err)

	w := get(r, "/rooms/abc", tok)
	require.Equal(t, http.StatusOK, w.Code)
	var resp relay.RoomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, relay.RoomResponse{RoomID: "abc", Count: 1, Full: false}, resp)
}

func TestGuestThenWebsocketAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var tok auth.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))

	// 没有 token 不允许升级
	assert.Equal(t, http.StatusUnauthorized, get(r, "/ws", "").Code)
	// 有 token 但不是 websocket 握手，upgrader 返回 400
	assert.Equal(t, http.StatusBadRequest, get(r, "/ws?token="+tok.JWT, "").Code)
}

func TestCorsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(Deps{
		Hub:            websocket.NewHub(),
		Registry:       relay.NewRegistry(nil),
		Secret:         secret,
		AllowedOrigins: []string{"http://localhost:3000"},
		Defaults:       engine.DefaultSettings(),
	})

	req := httptest.NewRequest(http.MethodOptions, "/game/settings", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
