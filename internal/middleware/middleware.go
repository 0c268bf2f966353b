package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware holds the gin middleware used by the operational HTTP
// surface (/health, /ready, /metrics).
type Middleware struct {
	Logger *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(logger *zap.Logger) *Middleware {
	return &Middleware{
		Logger: logger,
	}
}

// CORS configures CORS middleware
func (m *Middleware) CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// RequestLogger configures request logging middleware
func (m *Middleware) RequestLogger() gin.HandlerFunc {
	return ginzap.Ginzap(m.Logger, time.RFC3339, true)
}

// Recovery handles panics and returns 500 errors
func (m *Middleware) Recovery() gin.HandlerFunc {
	return ginzap.RecoveryWithZap(m.Logger, true)
}

// RequestID adds a unique request ID to each request
func (m *Middleware) RequestID() gin.HandlerFunc {
	return requestid.New()
}
