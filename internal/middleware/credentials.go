package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
)

// UserKeyHeader carries the caller's own provider key (BYOK). It is read
// once here, parked on the request context and stripped from the header set
// so nothing downstream can echo or log it.
const UserKeyHeader = "X-Generation-Key"

const userKeyContextKey = "generation_user_key"

type CredentialMiddleware struct {
	log *logger.Logger
}

func NewCredentialMiddleware(log *logger.Logger) *CredentialMiddleware {
	return &CredentialMiddleware{log: log.With("middleware", "CredentialMiddleware")}
}

func (m *CredentialMiddleware) ExtractUserKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(UserKeyHeader))
		if key != "" {
			c.Set(userKeyContextKey, key)
			c.Request.Header.Del(UserKeyHeader)
		}
		c.Next()
	}
}

// UserKey returns the BYOK key for this request, or "".
func UserKey(c *gin.Context) string {
	v, ok := c.Get(userKeyContextKey)
	if !ok {
		return ""
	}
	key, _ := v.(string)
	return key
}
