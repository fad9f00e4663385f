package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/casebridge/intake-platform/internal/observability/metrics"
	"github.com/casebridge/intake-platform/pkg/logging"
)

// dedupChannel tags dedup records for this messaging channel.
const dedupChannel = "whatsapp"

// DedupStore tracks channel message identifiers that were already handled.
type DedupStore interface {
	AlreadyProcessed(ctx context.Context, channel, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, channel, messageID string) (bool, error)
}

// MessageRecorder persists inbound and outbound messages to the record
// store and flags completed handoffs. Recording is best-effort and never
// blocks dialogue progress.
type MessageRecorder interface {
	RecordInbound(ctx context.Context, msg InboundMessage) error
	RecordOutbound(ctx context.Context, senderID, body string) error
	MarkSubmitted(ctx context.Context, senderID string) error
}

// Processor is the serialization and idempotency boundary in front of the
// Engine. It holds a per-sender lock across the dedup check, the stage
// commit, and the dedup mark, so replays of the same message identifier can
// never double-advance a conversation, and the mark happens only after the
// transition durably committed.
type Processor struct {
	engine    *Engine
	processed DedupStore
	recorder  MessageRecorder
	metrics   *metrics.IntakeMetrics
	logger    *logging.Logger
	locks     keyedMutex
}

// ProcessorConfig wires a Processor's collaborators. Engine and Processed
// are required; Recorder and Metrics are optional.
type ProcessorConfig struct {
	Engine    *Engine
	Processed DedupStore
	Recorder  MessageRecorder
	Metrics   *metrics.IntakeMetrics
	Logger    *logging.Logger
}

// NewProcessor creates a message processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Processor{
		engine:    cfg.Engine,
		processed: cfg.Processed,
		recorder:  cfg.Recorder,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// ProcessInbound handles one normalized inbound message exactly once.
// A returned error means the message was not committed and a channel
// redelivery may safely retry it.
func (p *Processor) ProcessInbound(ctx context.Context, msg InboundMessage) error {
	unlock := p.locks.Lock(msg.SenderID)
	defer unlock()

	if msg.MessageID != "" {
		seen, err := p.processed.AlreadyProcessed(ctx, dedupChannel, msg.MessageID)
		if err != nil {
			return fmt.Errorf("intake: dedup lookup: %w", err)
		}
		if seen {
			p.metrics.ObserveDedupHit()
			p.logger.Debug("skipping duplicate message", "message_id", msg.MessageID, "sender", msg.SenderID)
			return nil
		}
	}

	if p.recorder != nil {
		if err := p.recorder.RecordInbound(ctx, msg); err != nil {
			p.logger.Warn("failed to record inbound message", "error", err, "message_id", msg.MessageID)
		}
	}

	tr, err := p.engine.Advance(ctx, msg)
	if err != nil {
		if errors.Is(err, ErrSubmissionFailed) {
			p.metrics.ObserveHandoff("failed")
		}
		// Nothing marked: the channel's at-least-once redelivery (or the
		// user's next message) retries from the committed state.
		return err
	}

	p.metrics.ObserveTransition(string(tr.From), string(tr.To))
	if tr.To == StageHandover {
		p.metrics.ObserveHandoff("submitted")
		if p.recorder != nil {
			if err := p.recorder.MarkSubmitted(ctx, msg.SenderID); err != nil {
				p.logger.Warn("failed to mark conversation submitted", "error", err, "sender", msg.SenderID)
			}
		}
	}

	if p.recorder != nil && tr.Outbound != "" {
		if err := p.recorder.RecordOutbound(ctx, msg.SenderID, tr.Outbound); err != nil {
			p.logger.Warn("failed to record outbound message", "error", err, "sender", msg.SenderID)
		}
	}

	if msg.MessageID != "" {
		if _, err := p.processed.MarkProcessed(ctx, dedupChannel, msg.MessageID); err != nil {
			// The transition committed; a redelivery now reprocesses the
			// message, which the stage machine tolerates far better than a
			// lost intake. Loud log for operators.
			p.logger.Error("failed to mark message processed", "error", err, "message_id", msg.MessageID)
		}
	}

	return nil
}
