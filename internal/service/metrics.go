package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	orderStatusUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopnest_order_status_updates_total",
			Help: "Total number of accepted order status changes",
		},
		[]string{"status"},
	)

	stockDecrements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopnest_stock_decrements_total",
			Help: "Total number of product stock decrements applied on fulfillment",
		},
	)

	staleRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopnest_stale_write_retries_total",
			Help: "Total number of read-modify-write retries caused by version conflicts",
		},
		[]string{"document"},
	)

	reviewsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopnest_reviews_submitted_total",
			Help: "Total number of submitted product reviews",
		},
	)

	resetTokensCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shopnest_reset_tokens_cleared_total",
			Help: "Total number of expired password reset tokens cleared",
		},
	)
)
