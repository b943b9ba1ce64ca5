package middlewares

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const SignatureHeader = "X-Signature"

const maxWebhookBodyBytes = 1 << 20

// SignatureRequired verifies the HMAC-SHA256 hex signature providers put in
// the X-Signature header. The body is re-attached to the request so handlers
// can still bind it.
func SignatureRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
		if err != nil {
			_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		mac := hmac.New(sha256.New, secret)
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))

		got := c.GetHeader(SignatureHeader)
		if got == "" || !hmac.Equal([]byte(expected), []byte(got)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}
