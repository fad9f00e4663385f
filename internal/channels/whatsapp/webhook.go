package whatsapp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/casebridge/intake-platform/internal/intake"
	"github.com/casebridge/intake-platform/internal/observability/metrics"
	"github.com/casebridge/intake-platform/pkg/logging"
)

// InboundProcessor consumes one parsed message. The webhook acks Meta
// regardless of processing outcome; redelivery is absorbed by the dedup
// index downstream.
type InboundProcessor interface {
	ProcessInbound(ctx context.Context, msg intake.InboundMessage) error
}

// WebhookHandler handles WhatsApp Cloud API verification and deliveries.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	processor   InboundProcessor
	logger      *logging.Logger
	metrics     *metrics.IntakeMetrics
}

// WebhookConfig holds webhook handler configuration.
type WebhookConfig struct {
	VerifyToken string
	AppSecret   string
	Processor   InboundProcessor
	Logger      *logging.Logger
	Metrics     *metrics.IntakeMetrics
}

func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.AppSecret == "" {
		logger.Warn("whatsapp webhook running without app secret, signature verification disabled")
	}
	return &WebhookHandler{
		verifyToken: cfg.VerifyToken,
		appSecret:   cfg.AppSecret,
		processor:   cfg.Processor,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

// HandleVerification handles the GET webhook verification challenge from Meta.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}

	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleDelivery handles POST webhook deliveries (incoming messages and
// delivery receipts).
func (h *WebhookHandler) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if h.appSecret != "" {
		signature := r.Header.Get("X-Hub-Signature-256")
		if !VerifySignature(h.appSecret, body, signature) {
			h.metrics.ObserveInbound("delivery", "unauthorized")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	// Meta retries anything that is not a prompt 200, so once the signature
	// checks out the ack never depends on parsing or processing.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		// A payload that does not parse will not parse on redelivery either.
		h.logger.Warn("discarding malformed webhook payload", "error", err)
		h.metrics.ObserveInbound("delivery", "malformed")
		return
	}

	h.recordStatuses(event)

	messages := ParseWebhookEvent(event)
	for _, msg := range messages {
		if h.processor == nil {
			continue
		}
		if err := h.processor.ProcessInbound(r.Context(), msg); err != nil {
			h.logger.Error("failed to process inbound message",
				"error", err, "message_id", msg.MessageID, "sender", msg.SenderID)
		}
	}

	h.metrics.ObserveInbound("delivery", "ok")
	h.metrics.ObserveWebhookLatency("delivery", time.Since(start).Seconds())
}

// recordStatuses logs delivery receipts for outbound messages.
func (h *WebhookHandler) recordStatuses(event WebhookEvent) {
	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			for _, st := range change.Value.Statuses {
				h.logger.Debug("outbound message status",
					"message_id", st.ID, "status", st.Status, "recipient", st.RecipientID)
				h.metrics.ObserveInbound("status", st.Status)
			}
		}
	}
}

// VerifySignature verifies the X-Hub-Signature-256 header.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	// Signature format: "sha256=<hex>"
	const prefix = "sha256="
	if !strings.HasPrefix(signature, prefix) {
		return false
	}
	sigHex := strings.TrimPrefix(signature, prefix)

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(sigHex))
}
