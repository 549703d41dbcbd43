package basecamp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rateLimitRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campgate_rate_limit_retries_total",
		Help: "Requests retried after a 429 response",
	})

	rateLimitExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campgate_rate_limit_exhausted_total",
		Help: "Requests failed after exhausting rate limit retries",
	})

	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campgate_requests_in_flight",
		Help: "Requests currently holding a gateway concurrency slot",
	})
)
