package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		apiRequestsTotal,
		apiRequestLatencyMs,
		apiLoginsTotal,
		callbackEventsTotal,
		callbackRequestsRejectedTotal,
	)
}

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matebot_api_requests_total",
			Help: "Requests to the MateBot core API by method and status code.",
		},
		[]string{"method", "status"},
	)

	apiRequestLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matebot_api_request_latency_ms",
			Help:    "MateBot core API call latency distribution in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
		[]string{"method"},
	)

	apiLoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matebot_api_logins_total",
			Help: "Login attempts against the MateBot core API.",
		},
		[]string{"success"},
	)

	callbackEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callback_events_total",
			Help: "Processed API callback events by type and outcome.",
		},
		[]string{"event", "outcome"},
	)

	callbackRequestsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "callback_requests_rejected_total",
			Help: "Callback HTTP requests rejected before dispatch (auth, payload).",
		},
	)
)

func ObserveAPIRequest(method string, status int, latencyMs float64) {
	apiRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	apiRequestLatencyMs.WithLabelValues(method).Observe(latencyMs)
}

func IncAPILogin(success bool) {
	apiLoginsTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func IncCallbackEvent(event, outcome string) {
	callbackEventsTotal.WithLabelValues(event, outcome).Inc()
}

func IncCallbackRejected() {
	callbackRequestsRejectedTotal.Inc()
}
