package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/internal/certificates"
	"github.com/yucheyahyasukaca/trainingcenter/internal/middleware"
	"github.com/yucheyahyasukaca/trainingcenter/internal/registrations"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/response"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/validation"
)

type routerDeps struct {
	tokens        middleware.TokenValidator
	corsOrigins   string
	webinars      *webinars.Handler
	registrations *registrations.Handler
	certificates  *certificates.Handler
	healthCheck   func(ctx context.Context) error
	logger        *zap.Logger
}

func newRouter(d routerDeps) *gin.Engine {
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	validation.Init()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(d.corsOrigins))
	router.Use(middleware.Logger(d.logger))
	// Identity is optional at the router; services reject anonymous callers where it matters.
	router.Use(middleware.OptionalJWT(d.tokens))

	router.GET("/health", func(c *gin.Context) {
		if d.healthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.healthCheck(ctx); err != nil {
				response.ServiceUnavailable(c, "database unavailable")
				return
			}
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	// Catalog
	router.GET("/webinars", d.webinars.List)
	router.GET("/webinars/:slug", d.webinars.GetBySlug)

	// Registration
	router.GET("/registrations", d.registrations.Check)
	router.POST("/webinars/:slug/register", d.registrations.Register)

	// Certificates
	router.POST("/webinars/:slug/issue-certificates", middleware.RequireRole(auth.RoleAdmin), d.certificates.Issue)
	router.GET("/certificates/:id/download-url", d.certificates.DownloadURL)

	// Current user
	me := router.Group("/me")
	me.Use(middleware.JWT(d.tokens))
	{
		me.GET("/registrations", d.registrations.ListMine)
		me.GET("/certificates", d.certificates.ListMine)
	}

	return router
}
