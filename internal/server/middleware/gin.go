package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinGuard adapts Guard.Middleware to Gin. When the guard redirects, the Gin chain stops.
// The client IP stored for audit comes from c.ClientIP, so only the engine's trusted
// proxies may set it through forwarding headers.
func GinGuard(g *Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithClientIP(c.Request.Context(), c.ClientIP()))
		passed := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})
		g.Middleware(next).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

// PrincipalFrom returns the principal the guard stored for c.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	return GetPrincipal(c.Request.Context())
}
