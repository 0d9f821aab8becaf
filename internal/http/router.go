// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, sessions, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Session guard runs before every route so stale cookies for deleted or
//     blocked accounts never reach a handler
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/sino99/cafe-safar-ver1/internal/config"
	"github.com/sino99/cafe-safar-ver1/internal/domain"
	"github.com/sino99/cafe-safar-ver1/internal/http/handlers"
	"github.com/sino99/cafe-safar-ver1/internal/http/middleware"
	"github.com/sino99/cafe-safar-ver1/internal/realtime"
	"github.com/sino99/cafe-safar-ver1/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), rate limiting, CORS and security
// headers, the session layer, health and metrics endpoints, and the public,
// customer, admin, and owner API surfaces.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Session guard (rejects stale sessions before anything else runs)
//  8. Rate limiter (per user/IP; realtime upgrade is exempt)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, hub *realtime.Hub, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction (customer phones live in queries)
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-Pickup-Code",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Sessions: resolve and re-validate the principal on every request
	sessions := middleware.NewSessions(cfg.Session.Secret, cfg.Session.MaxAge,
		cfg.Session.Secure, cfg.Session.SameSite)
	r.Use(sessions.Guard(db, hub))

	// 8) Token-bucket rate limiter per user/IP. The realtime upgrade is
	// long-lived and must not consume tokens, so it is exempted up front.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(middleware.RateBypassPaths("/ws"))
	r.Use(rl.Handler())

	// 9) CORS posture. Sessions ride on cookies, so credentials must be
	// allowed; a wildcard origin is only safe without them.
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← db/hub
	orderSvc := services.NewOrderService(db, hub)
	orderSvc.DeliveryFee = cfg.DeliveryFee
	accountSvc := services.NewAccountService(db, hub)
	notifSvc := services.NewNotificationService(db, hub)
	statsSvc := services.NewStatsService(db)
	h := handlers.New(orderSvc, accountSvc, notifSvc, statsSvc, sessions)

	// Realtime channel; exempt from rate limiting (one long-lived request)
	ws := handlers.NewWS(hub)
	r.GET("/ws", ws.Serve)

	// Authentication
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/admin/login", h.AdminLogin)
	r.POST("/sino/login", h.OwnerLogin)
	r.GET("/logout", h.Logout)
	r.GET("/admin/logout", h.Logout)
	r.GET("/sino/logout", h.Logout)

	api := r.Group(cfg.APIBasePath)
	{
		// Session checks (answer for anonymous sessions too)
		api.GET("/me", h.Me)
		api.GET("/admin/check", h.AdminCheck)
		api.GET("/sino/check", h.OwnerCheck)

		// Customer surface
		user := api.Group("", middleware.RequireAuth())
		{
			user.POST("/order", h.CreateOrder)
			user.GET("/my-orders", h.MyOrders)
			user.GET("/my-order/:id", h.MyOrder)
			user.GET("/active-orders", h.ActiveOrders)
			user.GET("/check-updates", h.CheckUpdates)
			user.GET("/order/:id/remaining-time", h.RemainingTime)
			user.GET("/user-notifications", h.UserNotifications)
			user.PUT("/user-notifications/read", h.MarkUserNotificationsRead)
			user.GET("/user-notifications/unread-count", h.UserUnreadCount)
			user.GET("/user-stats", h.MyStats)
			user.POST("/change-password", h.ChangePassword)
		}

		// Admin surface
		admin := api.Group("", middleware.RequireRole(domain.RoleAdmin, domain.RoleOwner))
		{
			admin.GET("/orders", h.ListOrders)
			admin.GET("/order/:id", h.GetOrder)
			admin.PUT("/order/:id/status", h.UpdateOrderStatus)
			admin.POST("/order/:id/verify-pickup", h.VerifyPickup)
			admin.GET("/notifications", h.AdminNotifications)
			admin.PUT("/notifications/read", h.MarkAdminNotificationsRead)
			admin.DELETE("/notification/:id", h.DeleteNotification)
			admin.GET("/notifications/unread-count", h.AdminUnreadCount)
			admin.GET("/stats", h.DailyStats)
			admin.GET("/pickup-stats", h.PickupStats)
			admin.GET("/user-stats/:id", h.UserStatsByID)
		}

		// Owner surface
		owner := api.Group("/sino", middleware.RequireRole(domain.RoleOwner))
		{
			owner.GET("/users", h.ListUsers)
			owner.POST("/block-user", h.BlockUser)
			owner.POST("/unblock-user", h.UnblockUser)
			owner.POST("/delete-user", h.DeleteUser)
			owner.GET("/all-orders", h.AllOrders)
			owner.GET("/stats", h.OwnerStats)
		}
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
