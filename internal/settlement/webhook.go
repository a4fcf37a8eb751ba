package settlement

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// WebhookHandler receives Stripe webhook deliveries. Signature verification
// runs over the exact request bytes, so the body must reach this handler
// unparsed.
type WebhookHandler struct {
	processor *Processor
	secret    string
	logger    *zap.Logger
}

// NewWebhookHandler creates a webhook handler. An empty signing secret
// disables verification; that mode is for local development only and must
// not be the default in production.
func NewWebhookHandler(processor *Processor, signingSecret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if signingSecret == "" {
		logger.Warn("stripe webhook signing secret not configured; payloads will be trusted unverified")
	}
	return &WebhookHandler{processor: processor, secret: signingSecret, logger: logger}
}

// HandleStripe handles POST /webhooks/stripe. Once a payload is trusted
// (signature verified, or verification disabled) the delivery is always
// acknowledged with 200, whether or not downstream settlement succeeded:
// the processor redelivers on non-2xx, and redelivery cannot fix a payload
// we have already accepted.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook Error: unreadable body")
		return
	}

	var event stripe.Event
	if h.secret != "" {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.secret)
		if err != nil {
			h.logger.Warn("webhook signature verification failed", zap.Error(err))
			c.String(http.StatusBadRequest, "Webhook Error: %v", err)
			return
		}
	} else {
		if err := json.Unmarshal(payload, &event); err != nil {
			c.String(http.StatusBadRequest, "Webhook Error: invalid payload")
			return
		}
	}

	switch string(event.Type) {
	case EventCheckoutCompleted:
		var sess CheckoutSession
		if event.Data == nil || json.Unmarshal(event.Data.Raw, &sess) != nil {
			h.logger.Error("completed event with unparseable session object", zap.String("event_id", event.ID))
			c.Status(http.StatusOK)
			return
		}
		if err := h.processor.HandleCheckoutCompleted(c.Request.Context(), event.ID, sess); err != nil {
			h.logger.Error("settlement failed", zap.Error(err), zap.String("event_id", event.ID))
		}
	default:
		h.logger.Info("unhandled event type", zap.String("type", string(event.Type)))
	}

	c.Status(http.StatusOK)
}
