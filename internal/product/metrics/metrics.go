package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics provides observability for the product module.
type Metrics struct {
	ProductsRegistered prometheus.Counter
	CustodyTransfers   prometheus.Counter
	RegisterDuration   prometheus.Histogram
	TransferDuration   prometheus.Histogram
	VerifyDuration     prometheus.Histogram
}

// New creates and registers all product module metrics.
func New() *Metrics {
	return &Metrics{
		ProductsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_products_registered_total",
			Help: "Total number of products registered",
		}),
		CustodyTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_custody_transfers_total",
			Help: "Total number of successful custody transfers",
		}),
		RegisterDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custos_register_duration_seconds",
			Help:    "Duration of Register operations",
			Buckets: durationBuckets,
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custos_transfer_duration_seconds",
			Help:    "Duration of Transfer operations",
			Buckets: durationBuckets,
		}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custos_verify_duration_seconds",
			Help:    "Duration of Verify lookups (public read path)",
			Buckets: durationBuckets,
		}),
	}
}

// IncrementRegistered records a successful registration.
func (m *Metrics) IncrementRegistered() {
	if m != nil {
		m.ProductsRegistered.Inc()
	}
}

// IncrementTransferred records a successful custody transfer.
func (m *Metrics) IncrementTransferred() {
	if m != nil {
		m.CustodyTransfers.Inc()
	}
}

// ObserveRegister records the duration of a Register operation.
func (m *Metrics) ObserveRegister(start time.Time) {
	if m != nil {
		m.RegisterDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveTransfer records the duration of a Transfer operation.
func (m *Metrics) ObserveTransfer(start time.Time) {
	if m != nil {
		m.TransferDuration.Observe(time.Since(start).Seconds())
	}
}

// ObserveVerify records the duration of a Verify lookup.
func (m *Metrics) ObserveVerify(start time.Time) {
	if m != nil {
		m.VerifyDuration.Observe(time.Since(start).Seconds())
	}
}
