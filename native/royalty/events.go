package royalty

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"royaltychain/core/events"
)

const (
	// EventTypePaymentCreated is emitted once per payment record inserted,
	// including each record of a batch.
	EventTypePaymentCreated = "royalty.payment.created"
	// EventTypePaymentClaimed is emitted when a recipient claims a pending
	// payment before its deadline.
	EventTypePaymentClaimed = "royalty.payment.claimed"
	// EventTypePaymentExpired is emitted when an administrator reclaims an
	// expired payment.
	EventTypePaymentExpired = "royalty.payment.expired"
	// EventTypeScheduleUpdated is emitted when a payment schedule is stored.
	EventTypeScheduleUpdated = "royalty.schedule.updated"
	// EventTypeExpiryUpdated is emitted when the expiry window changes.
	EventTypeExpiryUpdated = "royalty.expiry.updated"
)

type eventEnvelope struct {
	evt *events.Payload
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *events.Payload { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *events.Payload) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// PaymentCreatedEvent returns the structured payload announcing a new
// obligation.
func PaymentCreatedEvent(record *PaymentRecord) *events.Payload {
	if record == nil {
		return nil
	}
	return &events.Payload{
		Type: EventTypePaymentCreated,
		Attributes: map[string]string{
			"paymentId":     fmt.Sprintf("%d", record.ID),
			"songId":        fmt.Sprintf("%d", record.SongID),
			"recipient":     hexAddr(record.Recipient),
			"amount":        amountString(record.Amount),
			"claimDeadline": fmt.Sprintf("%d", record.ClaimDeadline),
		},
	}
}

// PaymentClaimedEvent returns the structured payload for a successful claim.
func PaymentClaimedEvent(record *PaymentRecord) *events.Payload {
	if record == nil {
		return nil
	}
	return &events.Payload{
		Type: EventTypePaymentClaimed,
		Attributes: map[string]string{
			"paymentId": fmt.Sprintf("%d", record.ID),
			"recipient": hexAddr(record.Recipient),
			"amount":    amountString(record.Amount),
			"claimedAt": fmt.Sprintf("%d", record.ClaimedAt),
		},
	}
}

// PaymentExpiredEvent returns the structured payload for an administrator
// reclaim.
func PaymentExpiredEvent(record *PaymentRecord) *events.Payload {
	if record == nil {
		return nil
	}
	return &events.Payload{
		Type: EventTypePaymentExpired,
		Attributes: map[string]string{
			"paymentId": fmt.Sprintf("%d", record.ID),
			"recipient": hexAddr(record.Recipient),
			"amount":    amountString(record.Amount),
		},
	}
}

// ScheduleUpdatedEvent returns the structured payload for schedule metadata
// changes.
func ScheduleUpdatedEvent(schedule *PaymentSchedule) *events.Payload {
	if schedule == nil {
		return nil
	}
	return &events.Payload{
		Type: EventTypeScheduleUpdated,
		Attributes: map[string]string{
			"songId":          fmt.Sprintf("%d", schedule.SongID),
			"nextPaymentDate": fmt.Sprintf("%d", schedule.NextPaymentDate),
			"frequency":       fmt.Sprintf("%d", schedule.Frequency),
			"autoDistribute":  fmt.Sprintf("%t", schedule.AutoDistribute),
		},
	}
}

// ExpiryUpdatedEvent returns the structured payload for expiry window changes.
func ExpiryUpdatedEvent(blocks uint64) *events.Payload {
	return &events.Payload{
		Type: EventTypeExpiryUpdated,
		Attributes: map[string]string{
			"blocks": fmt.Sprintf("%d", blocks),
		},
	}
}
