package main

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	created     *prometheus.CounterVec
	validations *prometheus.CounterVec
	cacheHits   prometheus.Counter
	duration    *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

func newMetrics(reg *prometheus.Registry) *metrics {
	f := promauto.With(reg)

	return &metrics{
		created: f.NewCounterVec(prometheus.CounterOpts{
			Name: "didserver_dids_created_total",
			Help: "DIDs created, by method.",
		}, []string{"method"}),
		validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "didserver_validations_total",
			Help: "DID validations, by result.",
		}, []string{"result"}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "didserver_validation_cache_hits_total",
			Help: "Validations answered from the result cache.",
		}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "didserver_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		gatherer: reg,
	}
}

func (m *metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		m.duration.WithLabelValues(
			c.Request().Method,
			c.Path(),
			strconv.Itoa(c.Response().Status),
		).Observe(time.Since(start).Seconds())

		return nil
	}
}

func (m *metrics) handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
