package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deepwork-api/internal/identity"
	"deepwork-api/internal/metrics"
)

func nowUTC() time.Time { return time.Now().UTC() }

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	collector *metrics.Collector,
	tokenServ *identity.TokenService,
	authH *AuthHandler,
	profileH *ProfileHandler,
	taskH *TaskHandler,
	focusH *FocusHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())
	if collector != nil {
		r.Use(metricsMiddleware(collector))
		r.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/signup", authH.SignUp)
	auth.POST("/login", authH.Login)
	auth.POST("/logout", authH.Logout)
	auth.POST("/refresh", authH.RefreshToken)
	auth.POST("/reset-password", authH.ResetPassword)
	auth.POST("/reset-password/confirm", authH.ConfirmReset)

	authed := r.Group("/", JWTAuthMiddleware(tokenServ))
	authed.GET("/users/me", profileH.GetMe)
	authed.PATCH("/users/me", profileH.UpdateMe)

	authed.POST("/tasks", taskH.CreateTask)
	authed.GET("/tasks", taskH.ListTasks)
	authed.PATCH("/tasks/:id", taskH.UpdateTask)
	authed.DELETE("/tasks/:id", taskH.DeleteTask)

	authed.POST("/focus", focusH.StartSession)
	authed.GET("/focus", focusH.ListSessions)
	authed.POST("/focus/:id/finish", focusH.FinishSession)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// metricsMiddleware registra cada request en el Collector. Usa la ruta
// plantilla para no explotar la cardinalidad de labels.
func metricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
