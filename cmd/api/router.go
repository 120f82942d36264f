package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsletter-backend/internal/shared/middleware"
	"newsletter-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		// Health check and public search are the only unauthenticated routes.
		v1.GET("/health", healthCheckHandler(c))
		v1.GET("/db-test", databaseTestHandler(c))
		v1.GET("/search", c.SearchHandler.Search)

		setupIssueRoutes(v1, c)
		setupSectionRoutes(v1, c)
		setupLockRoutes(v1, c)
		setupMediaRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// ISSUE ROUTES
// ========================================
func setupIssueRoutes(v1 *gin.RouterGroup, c *container.Container) {
	issues := v1.Group("/issues")
	issues.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))

	// Metadata and lifecycle. Creation and reads need no lock; everything
	// that mutates an existing issue must hold its edit lock.
	requireEditor := middleware.EditorMiddleware()
	requireLock := middleware.RequireIssueLock(c.LockService)
	{
		issues.POST("", requireEditor, c.IssueHandler.Create)
		issues.POST("/from-latest", requireEditor, c.IssueHandler.CreateFromLatest)
		issues.GET("", c.IssueHandler.List)
		issues.GET("/:id", c.IssueHandler.GetByID)
		issues.PUT("/:id", requireLock, c.IssueHandler.Update)
		issues.POST("/:id/publish", requireLock, c.IssueHandler.Publish)
		issues.POST("/:id/unpublish", requireLock, c.IssueHandler.Unpublish)
		issues.POST("/:id/archive", requireLock, c.IssueHandler.Archive)
		issues.DELETE("/:id", requireLock, c.IssueHandler.Delete)

		// Ordered section list, scoped to its issue.
		issues.GET("/:id/sections", c.SectionHandler.ListByIssue)
		issues.POST("/:id/sections", requireLock, c.SectionHandler.Create)
		issues.POST("/:id/sections/insert-at", requireLock, c.SectionHandler.InsertAt)
		issues.PUT("/:id/sections/reorder", requireLock, c.SectionHandler.Reorder)
	}
}

// ========================================
// SECTION ROUTES
// ========================================
func setupSectionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	sections := v1.Group("/sections")
	sections.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))

	// Section routes address a section directly, so the lock check first
	// resolves the owning issue.
	requireLock := middleware.RequireSectionLock(c.LockService, c.SectionService)
	{
		sections.GET("/:id", c.SectionHandler.GetByID)
		sections.PUT("/:id", requireLock, c.SectionHandler.Update)
		sections.PATCH("/:id/label", requireLock, c.SectionHandler.SetLabel)
		sections.PATCH("/:id/background", requireLock, c.SectionHandler.SetBackgroundColor)
		sections.POST("/:id/toggle-visibility", requireLock, c.SectionHandler.ToggleVisibility)
		sections.POST("/:id/duplicate", requireLock, c.SectionHandler.Duplicate)
		sections.DELETE("/:id", requireLock, c.SectionHandler.Delete)
	}
}

// ========================================
// LOCK ROUTES
// ========================================
func setupLockRoutes(v1 *gin.RouterGroup, c *container.Container) {
	locks := v1.Group("/issues/:id/lock")
	locks.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))
	{
		// Viewers can see who holds a lock but never take one.
		locks.POST("", middleware.EditorMiddleware(), c.LockHandler.Acquire)
		locks.PUT("", middleware.EditorMiddleware(), c.LockHandler.Heartbeat)
		locks.DELETE("", middleware.EditorMiddleware(), c.LockHandler.Release)
		locks.GET("", c.LockHandler.GetForIssue)
	}
}

// ========================================
// MEDIA ROUTES
// ========================================
func setupMediaRoutes(v1 *gin.RouterGroup, c *container.Container) {
	media := v1.Group("/media")
	media.Use(middleware.AuthMiddleware(c.Config.JWT.Secret))
	{
		media.POST("", middleware.EditorMiddleware(), c.MediaHandler.Upload)
		media.GET("", c.MediaHandler.List)
		media.GET("/:id", c.MediaHandler.GetByID)
		media.DELETE("/:id", middleware.AdminMiddleware(), c.MediaHandler.Delete)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(c.Config.JWT.Secret),
		middleware.AdminMiddleware(),
	)
	{
		admin.DELETE("/issues/:id/lock", c.LockHandler.ForceRelease)
		admin.POST("/locks/cleanup", c.LockHandler.CleanupStale)
		admin.GET("/audit", c.AuditHandler.List)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   getEnv("APP_VERSION", "1.0.0"),
			"services":  gin.H{},
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
			}
		}

		// Search is degraded-tolerant: publishing still works, only
		// /search returns 503 while Meilisearch is down.
		searchStatus := "ok"
		if appCtx.Search == nil || !appCtx.Search.Healthy() {
			searchStatus = "unavailable"
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
			"search":   searchStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}

// ========================================
// DATABASE TEST HANDLER
// ========================================
func databaseTestHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Database not connected",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var version string
		err := appCtx.DB.Pool.QueryRow(ctx, "SELECT version()").Scan(&version)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": fmt.Sprintf("Query failed: %v", err),
			})
			return
		}

		stats := appCtx.DB.Pool.Stat()

		c.JSON(http.StatusOK, gin.H{
			"message": "Database test successful",
			"database": gin.H{
				"postgres_version": version,
				"pool_stats": gin.H{
					"total_connections":    stats.TotalConns(),
					"idle_connections":     stats.IdleConns(),
					"acquired_connections": stats.AcquiredConns(),
					"max_connections":      stats.MaxConns(),
				},
			},
		})
	}
}
