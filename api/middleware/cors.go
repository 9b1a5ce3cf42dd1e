package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var corsAllowMethods = strings.Join([]string{
	http.MethodGet, http.MethodHead, http.MethodPut,
	http.MethodPost, http.MethodDelete, http.MethodPatch,
}, ",")

// CORS allows every origin on every route. Preflight requests are answered
// with 204 and echo the requested headers.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Methods", corsAllowMethods)
		if reqHeaders := c.GetHeader("Access-Control-Request-Headers"); reqHeaders != "" {
			c.Header("Access-Control-Allow-Headers", reqHeaders)
			c.Writer.Header().Add("Vary", "Access-Control-Request-Headers")
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}
