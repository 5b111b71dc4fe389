package api

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) registerMiddleware() {
	if s == nil || s.router == nil {
		return
	}
	s.router.Use(gin.Logger(), gin.Recovery(), corsMiddleware())
}

// corsPolicy is the allowed-origin set parsed from MEMBENCH_CORS_ORIGINS,
// a comma-separated list where "*" allows everything.
type corsPolicy struct {
	allowAll bool
	origins  map[string]struct{}
}

func corsPolicyFromEnv() corsPolicy {
	p := corsPolicy{origins: make(map[string]struct{})}
	for _, part := range strings.Split(os.Getenv("MEMBENCH_CORS_ORIGINS"), ",") {
		origin := strings.TrimSpace(part)
		switch origin {
		case "":
		case "*":
			p.allowAll = true
		default:
			p.origins[origin] = struct{}{}
		}
	}
	return p
}

func (p corsPolicy) empty() bool {
	return !p.allowAll && len(p.origins) == 0
}

func (p corsPolicy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

// corsMiddleware grants cross-origin reads to configured origins. The whole
// API is read-only, so only GET ever needs to be allowed.
func corsMiddleware() gin.HandlerFunc {
	policy := corsPolicyFromEnv()
	if policy.empty() {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		origin := strings.TrimSpace(c.GetHeader("Origin"))
		if origin != "" && policy.allows(origin) {
			if policy.allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
			c.Header("Access-Control-Max-Age", "3600")
		}
		if origin != "" && c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func apiKeyAuthMiddleware(expected string) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(expected))

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		got := []byte(strings.TrimSpace(c.GetHeader("X-API-Key")))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
