package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// NonceStore 一次性 nonce，带过期时间，防重放
type NonceStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
	now   func() time.Time
}

func NewNonceStore(ttl time.Duration) *NonceStore {
	return &NonceStore{
		ttl:   ttl,
		items: make(map[string]time.Time),
		now:   time.Now,
	}
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *NonceStore) Issue() (string, error) {
	nonce, err := generateNonce()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// 顺手清理过期的
	for n, exp := range s.items {
		if now.After(exp) {
			delete(s.items, n)
		}
	}
	s.items[nonce] = now.Add(s.ttl)
	return nonce, nil
}

// Consume 只允许使用一次；过期或不存在返回 false
func (s *NonceStore) Consume(nonce string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.items[nonce]
	if !ok {
		return false
	}
	delete(s.items, nonce)
	return !s.now().After(exp)
}

func (h *Handler) issueNonce(c *gin.Context) {
	nonce, err := h.nonces.Issue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate nonce"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce, "message": SignMessage(nonce)})
}

func (h *Handler) GetNonce(c *gin.Context)  { h.issueNonce(c) }
func (h *Handler) PostNonce(c *gin.Context) { h.issueNonce(c) }
