package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentProviderStripe identifies the hosted checkout provider.
const PaymentProviderStripe = "stripe"

// PaymentEvent records a processed provider webhook event. The
// (provider, provider_event_id) pair is unique so redelivered events can be
// detected before the settlement path runs again.
type PaymentEvent struct {
	ID              uuid.UUID `json:"id"`
	Provider        string    `json:"provider"`
	ProviderEventID string    `json:"provider_event_id"`
	EventType       string    `json:"event_type"`
	ProcessedAt     time.Time `json:"processed_at"`
}
