package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// RoyaltyMetrics tracks payment ledger activity for operators.
type RoyaltyMetrics struct {
	paymentsCreated prometheus.Counter
	paymentsClaimed prometheus.Counter
	paymentsExpired prometheus.Counter
	scheduleUpdates prometheus.Counter
	expiryUpdates   prometheus.Counter
}

var (
	royaltyOnce     sync.Once
	royaltyRegistry *RoyaltyMetrics
)

// Royalty returns the process-wide ledger metrics registry.
func Royalty() *RoyaltyMetrics {
	royaltyOnce.Do(func() {
		royaltyRegistry = &RoyaltyMetrics{
			paymentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "royalty_payments_created_total",
				Help: "Count of payment obligations recorded, batch entries included.",
			}),
			paymentsClaimed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "royalty_payments_claimed_total",
				Help: "Count of payments claimed by their recipients.",
			}),
			paymentsExpired: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "royalty_payments_expired_total",
				Help: "Count of expired payments reclaimed by the administrator.",
			}),
			scheduleUpdates: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "royalty_schedule_updates_total",
				Help: "Count of payment schedule metadata writes.",
			}),
			expiryUpdates: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "royalty_expiry_updates_total",
				Help: "Count of expiry window reconfigurations.",
			}),
		}
		prometheus.MustRegister(
			royaltyRegistry.paymentsCreated,
			royaltyRegistry.paymentsClaimed,
			royaltyRegistry.paymentsExpired,
			royaltyRegistry.scheduleUpdates,
			royaltyRegistry.expiryUpdates,
		)
	})
	return royaltyRegistry
}

// RecordPaymentCreated increments the created counter.
func (m *RoyaltyMetrics) RecordPaymentCreated() {
	if m == nil {
		return
	}
	m.paymentsCreated.Inc()
}

// RecordPaymentClaimed increments the claimed counter.
func (m *RoyaltyMetrics) RecordPaymentClaimed() {
	if m == nil {
		return
	}
	m.paymentsClaimed.Inc()
}

// RecordPaymentExpired increments the reclaim counter.
func (m *RoyaltyMetrics) RecordPaymentExpired() {
	if m == nil {
		return
	}
	m.paymentsExpired.Inc()
}

// RecordScheduleUpdate increments the schedule write counter.
func (m *RoyaltyMetrics) RecordScheduleUpdate() {
	if m == nil {
		return
	}
	m.scheduleUpdates.Inc()
}

// RecordExpiryUpdate increments the expiry reconfiguration counter.
func (m *RoyaltyMetrics) RecordExpiryUpdate() {
	if m == nil {
		return
	}
	m.expiryUpdates.Inc()
}
