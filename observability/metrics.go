package observability

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type ledgerMetrics struct {
	deposits     *prometheus.CounterVec
	withdrawals  *prometheus.CounterVec
	shareUpdates prometheus.Counter
	rpcRequests  *prometheus.CounterVec
	rpcLatency   *prometheus.HistogramVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *ledgerMetrics
)

// Ledger returns the lazily-initialised metrics registry tracking ledger
// activity and RPC handling.
func Ledger() *ledgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &ledgerMetrics{
			deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "streampay",
				Subsystem: "ledger",
				Name:      "deposits_total",
				Help:      "Count of pool deposits segmented by asset.",
			}, []string{"asset"}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "streampay",
				Subsystem: "ledger",
				Name:      "withdrawals_total",
				Help:      "Count of pool withdrawals segmented by asset.",
			}, []string{"asset"}),
			shareUpdates: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "streampay",
				Subsystem: "ledger",
				Name:      "share_updates_total",
				Help:      "Count of applied share registry updates.",
			}),
			rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "streampay",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "Total JSON-RPC requests segmented by method and status.",
			}, []string{"method", "status"}),
			rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "streampay",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.deposits,
			ledgerRegistry.withdrawals,
			ledgerRegistry.shareUpdates,
			ledgerRegistry.rpcRequests,
			ledgerRegistry.rpcLatency,
		)
	})
	return ledgerRegistry
}

// RecordDeposit increments the deposit counter for the supplied asset; the
// native coin reports as "native".
func (m *ledgerMetrics) RecordDeposit(asset string) {
	if m == nil {
		return
	}
	m.deposits.WithLabelValues(assetLabel(asset)).Inc()
}

// RecordWithdrawal increments the withdrawal counter for the supplied asset.
func (m *ledgerMetrics) RecordWithdrawal(asset string) {
	if m == nil {
		return
	}
	m.withdrawals.WithLabelValues(assetLabel(asset)).Inc()
}

// RecordShareUpdate increments the share update counter.
func (m *ledgerMetrics) RecordShareUpdate() {
	if m == nil {
		return
	}
	m.shareUpdates.Inc()
}

// ObserveRPC records the outcome of an RPC request. The status code should be
// the HTTP status ultimately written to the response writer.
func (m *ledgerMetrics) ObserveRPC(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.rpcRequests.WithLabelValues(method, fmt.Sprintf("%d", status)).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(duration.Seconds())
}

func assetLabel(asset string) string {
	normalized := strings.TrimSpace(asset)
	if normalized == "" {
		return "native"
	}
	return normalized
}
