package payment

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rent/internal/common"
	"github.com/noah-isme/backend-rent/internal/events"
	"github.com/noah-isme/backend-rent/internal/obs"
)

// webhookMaxBody caps the inbound payload; gateway events are small.
const webhookMaxBody = 1 << 20

// webhookSignatureHeader carries the gateway's body HMAC.
const webhookSignatureHeader = "X-Signature"

// Webhook ingests gateway event notifications. The body signature is checked
// before any parsing; after a valid signature the endpoint always responds
// 200 so the gateway does not redeliver events we merely failed to process.
type Webhook struct {
	Secret    string
	Redis     *redis.Client
	ReplayTTL time.Duration
	Bus       *events.Bus
	Logger    zerolog.Logger
}

type webhookEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// knownWebhookEvents gates dispatch to the topics this service owns. The
// gateway sends every event class the key is subscribed to; anything else
// is acknowledged without dispatch.
var knownWebhookEvents = func() map[string]bool {
	known := make(map[string]bool)
	for _, topic := range events.DefaultTopics() {
		known[topic] = true
	}
	return known
}()

// Handle is the POST /payments/webhook handler.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, webhookMaxBody))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable body", nil)
		return
	}

	signature := r.Header.Get(webhookSignatureHeader)
	if !VerifyWebhook(h.Secret, body, signature) {
		if obs.WebhookTotal != nil {
			obs.WebhookTotal.WithLabelValues("signature_mismatch").Inc()
		}
		h.Logger.Warn().Str("ip", common.ClientIP(r)).Msg("webhook signature mismatch")
		common.JSONError(w, http.StatusBadRequest, "SIGNATURE_MISMATCH", "webhook signature mismatch", nil)
		return
	}

	// Signature is valid from here on: every outcome is a 200 so the
	// gateway does not retry deliveries we already own.
	if h.Redis != nil {
		key := "webhook:replay:" + common.Sha256Hex(body)
		set, err := h.Redis.SetNX(r.Context(), key, "1", h.ReplayTTL).Result()
		if err != nil {
			h.Logger.Error().Err(err).Msg("webhook replay guard unavailable, processing anyway")
		} else if !set {
			if obs.WebhookTotal != nil {
				obs.WebhookTotal.WithLabelValues("duplicate").Inc()
			}
			h.Logger.Info().Msg("duplicate webhook delivery suppressed")
			common.Text(w, http.StatusOK, "ok")
			return
		}
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Event == "" {
		if obs.WebhookTotal != nil {
			obs.WebhookTotal.WithLabelValues("unparseable").Inc()
		}
		h.Logger.Error().Err(err).Msg("webhook body signed but unparseable")
		common.Text(w, http.StatusOK, "ok")
		return
	}

	if !knownWebhookEvents[envelope.Event] {
		if obs.WebhookTotal != nil {
			obs.WebhookTotal.WithLabelValues("unknown_event").Inc()
		}
		h.Logger.Info().Str("event", envelope.Event).Msg("unrecognized webhook event acknowledged without dispatch")
		common.Text(w, http.StatusOK, "ok")
		return
	}

	if h.Bus != nil {
		if _, err := h.Bus.Emit(r.Context(), envelope.Event, envelope.Payload); err != nil {
			if obs.WebhookTotal != nil {
				obs.WebhookTotal.WithLabelValues("dispatch_error").Inc()
			}
			h.Logger.Error().Err(err).Str("event", envelope.Event).Msg("webhook dispatch failed")
			common.Text(w, http.StatusOK, "ok")
			return
		}
	}
	if obs.WebhookTotal != nil {
		obs.WebhookTotal.WithLabelValues("processed").Inc()
	}
	h.Logger.Info().Str("event", envelope.Event).Msg("webhook processed")
	common.Text(w, http.StatusOK, "ok")
}
