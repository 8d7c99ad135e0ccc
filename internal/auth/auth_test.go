package auth

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.GET("/auth/nonce", h.GetNonce)
	r.POST("/auth/nonce", h.PostNonce)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/guest", h.Guest)
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// personal_sign 同款签名
func sign(t *testing.T, nonce string) (address, signature string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	msg := SignMessage(nonce)
	hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)))
	sig, err := crypto.Sign(hash.Bytes(), key)
	require.NoError(t, err)
	sig[64] += 27

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), "0x" + hex.EncodeToString(sig)
}

func fetchNonce(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(t, r, http.MethodGet, "/auth/nonce", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["nonce"])
	assert.Equal(t, SignMessage(resp["nonce"]), resp["message"])
	return resp["nonce"]
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := IssueToken(testSecret, "alice", time.Minute)
	require.NoError(t, err)

	sub, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	_, err = ParseToken([]byte("other"), tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expired, err := IssueToken(testSecret, "alice", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestNonceSingleUseAndExpiry(t *testing.T) {
	s := NewNonceStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	n, err := s.Issue()
	require.NoError(t, err)
	assert.True(t, s.Consume(n))
	assert.False(t, s.Consume(n), "nonce 只能用一次")

	n2, err := s.Issue()
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	assert.False(t, s.Consume(n2), "过期 nonce 不可用")
	assert.False(t, s.Consume("unknown"))
}

func TestWalletLogin(t *testing.T) {
	h := NewHandler(testSecret, time.Hour)
	r := newRouter(h)

	nonce := fetchNonce(t, r)
	addr, sig := sign(t, nonce)

	w := do(t, r, http.MethodPost, "/auth/login", LoginRequest{Address: addr, Signature: sig, Nonce: nonce})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.EqualFold(addr, resp.Participant))

	sub, err := ParseToken(testSecret, resp.JWT)
	require.NoError(t, err)
	assert.Equal(t, resp.Participant, sub)

	// 🔁 重放同一个 nonce
	w = do(t, r, http.MethodPost, "/auth/login", LoginRequest{Address: addr, Signature: sig, Nonce: nonce})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletLoginRejects(t *testing.T) {
	h := NewHandler(testSecret, time.Hour)
	r := newRouter(h)

	// 地址不匹配
	nonce := fetchNonce(t, r)
	_, sig := sign(t, nonce)
	other, _ := sign(t, "x")
	w := do(t, r, http.MethodPost, "/auth/login", LoginRequest{Address: other, Signature: sig, Nonce: nonce})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 签名格式错误（长度不对不能 panic）
	nonce = fetchNonce(t, r)
	w = do(t, r, http.MethodPost, "/auth/login", LoginRequest{Address: other, Signature: "0xdeadbeef", Nonce: nonce})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 未签发的 nonce
	w = do(t, r, http.MethodPost, "/auth/login", LoginRequest{Address: other, Signature: sig, Nonce: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/auth/login", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuestLogin(t *testing.T) {
	r := newRouter(NewHandler(testSecret, time.Hour))

	w := do(t, r, http.MethodPost, "/auth/guest", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Participant, "guest-"))

	sub, err := ParseToken(testSecret, resp.JWT)
	require.NoError(t, err)
	assert.Equal(t, resp.Participant, sub)
}
