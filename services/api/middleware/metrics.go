// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// All metrics use the "focusflow_" prefix for consistent naming.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "focusflow_http_requests_total",
		Help: "Total HTTP requests by method, route, and status",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "focusflow_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route"})

	sessionsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focusflow_sessions_completed_total",
		Help: "Total focus sessions completed",
	})

	sessionsAbandonedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focusflow_sessions_abandoned_total",
		Help: "Total focus sessions abandoned before completion",
	})

	achievementsUnlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focusflow_achievements_unlocked_total",
		Help: "Total achievements unlocked across all users",
	})
)

// Metrics creates a Gin middleware that records request counts and
// latencies. Routes are recorded by template (e.g. "/api/tasks/:id"),
// not by raw path, to keep label cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(
			c.Request.Method, route, strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}

// CountSessionOutcome records a finished focus session.
func CountSessionOutcome(completed bool) {
	if completed {
		sessionsCompletedTotal.Inc()
	} else {
		sessionsAbandonedTotal.Inc()
	}
}

// CountAchievements records newly unlocked achievements.
func CountAchievements(n int) {
	if n > 0 {
		achievementsUnlockedTotal.Add(float64(n))
	}
}
