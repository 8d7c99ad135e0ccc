package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"SuperRPS/internal/utils"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var ErrBadSignature = errors.New("bad signature")

const nonceTTL = 5 * time.Minute

type LoginRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

type TokenResponse struct {
	Participant string `json:"participant"`
	JWT         string `json:"jwt"`
}

type Handler struct {
	nonces *NonceStore
	secret []byte
	ttl    time.Duration
}

func NewHandler(secret []byte, ttl time.Duration) *Handler {
	return &Handler{
		nonces: NewNonceStore(nonceTTL),
		secret: secret,
		ttl:    ttl,
	}
}

// SignMessage 钱包签名的原文
func SignMessage(nonce string) string {
	return "Sign this message to authenticate with SuperRPS. Nonce: " + nonce
}

// RecoverAddress 按 personal_sign 规则恢复签名者地址
func RecoverAddress(nonce, signature string) (string, error) {
	msg := SignMessage(nonce)
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	hash := crypto.Keccak256Hash([]byte(prefixed))

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", ErrBadSignature
	}
	// MetaMask 的 V 是 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

func (h *Handler) respondToken(c *gin.Context, participant string) {
	jwtStr, err := IssueToken(h.secret, participant, h.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt generation failed"})
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Participant: participant, JWT: jwtStr})
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if !h.nonces.Consume(req.Nonce) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid nonce"})
		return
	}

	recovered, err := RecoverAddress(req.Nonce, req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verify failed"})
		return
	}
	if !strings.EqualFold(recovered, req.Address) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "signature mismatch"})
		return
	}

	utils.Log.Info("wallet login", "participant", recovered)
	h.respondToken(c, recovered)
}

// POST /auth/guest  不需要钱包，直接发一个 guest 身份
func (h *Handler) Guest(c *gin.Context) {
	h.respondToken(c, "guest-"+uuid.NewString())
}
