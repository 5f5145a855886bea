package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"unit-telemetry-backend/internal/mw"
	"unit-telemetry-backend/internal/store"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// APIPrefix is the path all resource routes are mounted under.
	APIPrefix string
	// RateLimit and RateBurst throttle each client IP on the API group.
	// A zero RateLimit disables throttling.
	RateLimit rate.Limit
	RateBurst int
	Retry     store.RetryPolicy
	// Requests, if set, observes every request.
	Requests mw.RequestObserver
	// Metrics, if set, is served on GET /metrics.
	Metrics http.Handler
}

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, opts RouterOptions) *gin.Engine {
	r := gin.Default()
	if opts.Requests != nil {
		r.Use(mw.Metrics(opts.Requests))
	}

	handler := NewHandler(s, opts.Retry)

	r.GET("/", handler.Root)
	r.GET("/healthz", handler.Health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	prefix := opts.APIPrefix
	if prefix == "" {
		prefix = "/v1"
	}
	api := r.Group(prefix)
	if opts.RateLimit > 0 {
		api.Use(mw.RateLimiter(mw.NewIPRateLimiter(opts.RateLimit, opts.RateBurst, mw.DefaultLimiterIdle)))
	}
	{
		units := api.Group("/units")
		units.POST("", handler.CreateUnit)
		units.GET("", handler.ListUnits)
		units.GET("/:id", handler.GetUnit)
		units.PUT("/:id", handler.UpdateUnit)
		units.DELETE("/:id", handler.DeleteUnit)
		units.GET("/:id/statistics", handler.GetUnitStatistics)
		units.GET("/:id/sensor-data", handler.ListUnitReadings)

		readings := api.Group("/sensor-data")
		readings.POST("", handler.CreateReading)
		readings.GET("", handler.QueryReadings)
		readings.GET("/:id", handler.GetReading)
		readings.PATCH("/:id", handler.PatchReading)
		readings.PUT("/:id/status", handler.UpdateReadingStatus)
		readings.POST("/:id/archive", handler.ArchiveReading)
		readings.DELETE("/:id", handler.DeleteReading)
	}

	return r
}
