package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/a2a-routing/console/internal/logger"
)

// CORS returns a middleware that handles CORS for the console front end.
// allowedOrigins is a comma separated list. Only listed origins are echoed
// with credentials; "*" answers a literal wildcard and never grants
// credentials.
func CORS(allowedOrigins string) gin.HandlerFunc {
	wildcard := false
	allowed := make(map[string]struct{})
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			allowed[o] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if _, ok := allowed[origin]; ok && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		} else if wildcard {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == "OPTIONS" {
			logger.WithFields(map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"origin": origin,
			}).Debug("CORS preflight request handled")
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
