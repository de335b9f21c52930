package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	liveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_live_connections",
			Help: "Number of attached live connections per transport.",
		},
		[]string{"transport"},
	)
	transportEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_transport_events_total",
			Help: "Total number of transport lifecycle and delivery events.",
		},
		[]string{"transport", "event"},
	)
	relayPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_relay_publish_errors_total",
			Help: "Total number of relay publish errors.",
		},
	)
	pushDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_push_dispatch_total",
			Help: "Total number of push tickets by outcome.",
		},
		[]string{"outcome"},
	)
	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_rate_limited_total",
			Help: "Total number of requests rejected by rate limiting.",
		},
		[]string{"window"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		liveConnections,
		transportEventsTotal,
		relayPublishErrorsTotal,
		pushDispatchTotal,
		rateLimitedTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncLiveConnections(transport string) {
	liveConnections.WithLabelValues(transport).Inc()
}

func DecLiveConnections(transport string) {
	liveConnections.WithLabelValues(transport).Dec()
}

func IncTransportEvent(transport, event string) {
	transportEventsTotal.WithLabelValues(transport, event).Inc()
}

func IncRelayPublishError() {
	relayPublishErrorsTotal.Inc()
}

func IncPushDispatch(outcome string) {
	pushDispatchTotal.WithLabelValues(outcome).Inc()
}

func IncRateLimited(window string) {
	rateLimitedTotal.WithLabelValues(window).Inc()
}
