package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "viper_web_requests_total",
		Help: "Façade requests by endpoint and outcome.",
	}, []string{"endpoint", "status"})

	doorOpenSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "viper_door_open_seconds",
		Help:    "Wall time of the full CTPP door-open sequence.",
		Buckets: prometheus.DefBuckets,
	})

	doorsServedFromCache = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viper_doors_cache_hits_total",
		Help: "Door listings answered from the sqlite cache while the doorbell slept.",
	})
)
