package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsCreated         prometheus.Counter
	NotificationsDispatched prometheus.Counter
	ResponsesRecorded       *prometheus.CounterVec
	ContactsShared          prometheus.Counter
	RequestsPruned          prometheus.Counter
	DispatchDuration        prometheus.Histogram
	HTTPRequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemolink_blood_requests_created_total",
			Help: "Total number of blood requests created",
		}),
		NotificationsDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemolink_notifications_dispatched_total",
			Help: "Total number of donor notifications written by the dispatcher",
		}),
		ResponsesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hemolink_donor_responses_total",
			Help: "Total number of donor responses recorded, by response kind",
		}, []string{"response"}),
		ContactsShared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemolink_contacts_shared_total",
			Help: "Total number of accepted responses that shared donor contact details",
		}),
		RequestsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hemolink_requests_pruned_total",
			Help: "Total number of stale terminal requests deleted by housekeeping",
		}),
		DispatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hemolink_dispatch_duration_seconds",
			Help:    "Latency of notification fan-out",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hemolink_http_request_duration_seconds",
			Help:    "Latency of HTTP requests, by method and path",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
