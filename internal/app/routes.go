package app

import (
	"time"

	"github.com/artwall/core/internal/middleware"
	"github.com/artwall/core/internal/modules/ingest"
	"github.com/artwall/core/internal/modules/post"
	"github.com/artwall/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

var processStart = time.Now()

// registerRoutes wires services and mounts all API routes.
func (a *App) registerRoutes() {
	rdb := a.store.Raw()

	api := a.router.Group("/api")
	api.Use(middleware.OptionalAuth())
	api.Use(middleware.RateLimit(rdb))
	api.Use(middleware.HTTPCache(rdb, 0))

	authMW := middleware.Auth()

	postSvc := post.NewService(a.store, a.cfg.StoreView, a.logger)
	post.NewHandler(postSvc).RegisterRoutes(api, authMW)

	importer := ingest.NewImporter(postSvc, a.logger)
	ingest.NewHandler(importer, a.logger).RegisterRoutes(api, authMW)

	api.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{
			"status": "ok",
			"uptime": time.Since(processStart).Round(time.Second).String(),
		})
	})
}
