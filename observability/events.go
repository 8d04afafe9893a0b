// Package observability bridges ledger events into the prometheus registry so
// the engine itself stays metrics-free.
package observability

import (
	"royaltychain/core/events"
	"royaltychain/native/royalty"
	"royaltychain/observability/metrics"
)

// MetricsEmitter implements events.Emitter by incrementing the matching
// ledger counter per event type. Unknown event types are ignored.
type MetricsEmitter struct{}

// Emit implements the events.Emitter interface.
func (MetricsEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	registry := metrics.Royalty()
	switch evt.EventType() {
	case royalty.EventTypePaymentCreated:
		registry.RecordPaymentCreated()
	case royalty.EventTypePaymentClaimed:
		registry.RecordPaymentClaimed()
	case royalty.EventTypePaymentExpired:
		registry.RecordPaymentExpired()
	case royalty.EventTypeScheduleUpdated:
		registry.RecordScheduleUpdate()
	case royalty.EventTypeExpiryUpdated:
		registry.RecordExpiryUpdate()
	}
}
