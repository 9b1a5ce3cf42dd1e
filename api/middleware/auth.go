package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapeproxy/models"
)

// Auth returns shared-secret authentication middleware.
//
// The credential is read from the configured header and must equal apiKey
// exactly. A missing header never matches, even when apiKey is empty.
func Auth(header, apiKey string) gin.HandlerFunc {
	canonical := http.CanonicalHeaderKey(header)
	secret := []byte(apiKey)

	return func(c *gin.Context) {
		values, present := c.Request.Header[canonical]
		if !present || len(values) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.UnauthorizedResponse)
			return
		}

		if subtle.ConstantTimeCompare([]byte(values[0]), secret) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.UnauthorizedResponse)
			return
		}

		c.Next()
	}
}
