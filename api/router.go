// api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Annany2002/taxacurator/api/handlers"
	"github.com/Annany2002/taxacurator/api/middleware"
	"github.com/Annany2002/taxacurator/config"
	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/editor"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/metrics"
	"github.com/Annany2002/taxacurator/internal/plugins"
	"github.com/Annany2002/taxacurator/internal/session"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(gw gateway.Gateway, sessions *session.Manager, cfg *config.Config) *gin.Engine {
	router := gin.Default() // Includes Logger and Recovery

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RequestMetrics())
	router.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)))
	// Runs after Logger/Recovery and wraps every handler below.
	router.Use(middleware.ErrorHandler())

	auditWriter := audit.NewWriter(gw)
	authHandler := handlers.NewAuthHandler(sessions)
	consoleHandler := handlers.NewConsoleHandler(plugins.NewRegistry(gw, plugins.DefaultEditLinks), cfg)
	nameHandler := handlers.NewScientificNameHandler(gw, auditWriter)
	recordHandler := handlers.NewBionomicRecordHandler(gw, auditWriter)
	auditHandler := handlers.NewAuditHandler(auditWriter)

	// --- Public Routes ---
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
	}

	// --- Protected Routes ---
	requireSession := middleware.AuthMiddleware(sessions)
	sessionRoutes := router.Group("/auth", requireSession)
	{
		sessionRoutes.POST("/refresh", authHandler.Refresh)
		sessionRoutes.POST("/logout", authHandler.Logout)
	}

	apiRoutes := router.Group("/api/v1", requireSession)
	{
		apiRoutes.GET("/me", authHandler.Me)

		apiRoutes.GET("/consoles", consoleHandler.ListConsoles)
		apiRoutes.GET("/consoles/:console", consoleHandler.GetConsole)

		apiRoutes.GET("/scientific-names/masters", nameHandler.NewDraft)
		apiRoutes.GET("/scientific-names/:id/draft", nameHandler.GetDraft)
		apiRoutes.POST("/scientific-names", nameHandler.Create)
		apiRoutes.PUT("/scientific-names/:id", nameHandler.Update)
		apiRoutes.DELETE("/scientific-names/:id", nameHandler.Delete)

		apiRoutes.GET("/bionomic-records/masters", recordHandler.NewDraft)
		apiRoutes.GET("/bionomic-records/:id/draft", recordHandler.GetDraft)
		apiRoutes.POST("/bionomic-records", recordHandler.Create)
		apiRoutes.PUT("/bionomic-records/:id", recordHandler.Update)
		apiRoutes.DELETE("/bionomic-records/:id", recordHandler.Delete)

		for _, schema := range editor.EntitySchemas() {
			h := handlers.NewRecordHandler(schema, gw, auditWriter)
			group := apiRoutes.Group("/" + schema.Name)
			group.GET("/masters", h.NewDraft)
			group.GET("/:id/draft", h.GetDraft)
			group.POST("", h.Create)
			group.PUT("/:id", h.Update)
			group.DELETE("/:id", h.Delete)
		}

		apiRoutes.GET("/audit-log", auditHandler.ListEntries)
	}

	return router
}
