// Package main provides the appointment bot server entry point.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/upinformatica/prenotabot/internal/calendar"
	"github.com/upinformatica/prenotabot/internal/config"
	"github.com/upinformatica/prenotabot/internal/storage"
	"github.com/upinformatica/prenotabot/internal/telegram"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, cfg *config.Config, webhookHandler *telegram.Handler, db *storage.DB, calClient *calendar.Client, registry *prometheus.Registry) {
	// Root endpoint - redirect to the project page
	rootHandler := func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "https://github.com/upinformatica/prenotabot")
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness Probe - checks if the application is alive (minimal check)
	// This should NEVER check dependencies - only that the process is running
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness Probe - checks if the application is ready to serve traffic
	readyHandler := func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		// Quick calendar reachability check
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		calendarAvailable := true
		now := time.Now()
		if _, err := calClient.ListEvents(checkCtx, now, now.Add(time.Minute)); err != nil {
			calendarAvailable = false
		}

		userCount, _ := db.CountUsers(c.Request.Context())

		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"calendar": calendarAvailable,
			"users":    userCount,
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// Telegram webhook endpoint. The path carries a secret segment so
	// it cannot be guessed even without a webhook secret token.
	router.POST(cfg.WebhookPath(), webhookHandler.Handle)

	// Prometheus metrics endpoint, behind Basic Auth when configured
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{
			cfg.MetricsUsername: cfg.MetricsPassword,
		}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}
