// Package intake drives the structured legal-intake dialogue over a
// messaging channel. A static transition table walks each sender through a
// fixed sequence of stages, collecting one answer per stage, and hands the
// finished intake to the case backend.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casebridge/intake-platform/internal/intake/session"
	"github.com/casebridge/intake-platform/internal/language"
	"github.com/casebridge/intake-platform/pkg/logging"
)

// ErrSubmissionFailed marks a case-backend handoff that did not complete.
// The session is left intact so the submission can be retried.
var ErrSubmissionFailed = errors.New("intake: case submission failed")

// InboundMessage is the normalized form of one user message delivered by
// the channel. MessageID is the channel-assigned identifier used for
// deduplication.
type InboundMessage struct {
	SenderID  string
	MessageID string
	Kind      string
	Text      string
	MediaRef  string
	Timestamp time.Time
}

// Transition describes one processed dialogue step, for observability and
// tests.
type Transition struct {
	From     Stage
	To       Stage
	Outbound string
	Language string
	CaseID   string
}

// Dispatcher sends an outbound message back to the channel. Implementations
// own their retry policy; the engine treats a returned error as exhausted.
type Dispatcher interface {
	Send(ctx context.Context, to, body string) error
}

// CaseSubmission is the finalized intake payload handed to the case backend.
type CaseSubmission struct {
	SenderID string
	Language string
	Fields   map[string]string
}

// CaseSubmitter submits a finished intake and returns the case identifier.
type CaseSubmitter interface {
	Submit(ctx context.Context, sub CaseSubmission) (string, error)
}

// OperatorNotifier surfaces failures that must not reach the end user.
type OperatorNotifier interface {
	SubmissionFailed(ctx context.Context, senderID string, cause error)
}

const defaultRecapMax = 160

// Engine executes dialogue transitions. Callers must serialize Advance
// per sender (see Processor); different senders are independent.
type Engine struct {
	sessions   session.Store
	detector   *language.Detector
	dispatcher Dispatcher
	cases      CaseSubmitter
	notifier   OperatorNotifier
	catalog    *Catalog
	logger     *logging.Logger
	sessionTTL time.Duration
	recapMax   int
}

// EngineConfig wires an Engine's collaborators.
type EngineConfig struct {
	Sessions   session.Store
	Detector   *language.Detector
	Dispatcher Dispatcher
	Cases      CaseSubmitter
	Notifier   OperatorNotifier
	Catalog    *Catalog
	Logger     *logging.Logger
	SessionTTL time.Duration
	RecapMax   int
}

// NewEngine creates a dialogue engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("intake: session store is required")
	}
	if cfg.Detector == nil {
		return nil, errors.New("intake: language detector is required")
	}
	if cfg.Cases == nil {
		return nil, errors.New("intake: case submitter is required")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.RecapMax <= 0 {
		cfg.RecapMax = defaultRecapMax
	}
	return &Engine{
		sessions:   cfg.Sessions,
		detector:   cfg.Detector,
		dispatcher: cfg.Dispatcher,
		cases:      cfg.Cases,
		notifier:   cfg.Notifier,
		catalog:    cfg.Catalog,
		logger:     cfg.Logger,
		sessionTTL: cfg.SessionTTL,
		recapMax:   cfg.RecapMax,
	}, nil
}

// Advance processes one inbound message: look up the session, detect the
// message language, resolve the transition rule for the current stage,
// record the stage's answer, persist the new stage, and send the next
// prompt. The stage commit happens before the outbound send, so a delivery
// failure never rolls back dialogue progress.
func (e *Engine) Advance(ctx context.Context, msg InboundMessage) (Transition, error) {
	sess, err := e.sessions.Get(ctx, msg.SenderID)
	if err != nil {
		return Transition{}, fmt.Errorf("intake: load session: %w", err)
	}

	stage := Stage(sess.Stage)
	if sess.Stage == "" {
		stage = StageGreeting
	}

	detected := e.detector.Detect(ctx, msg.Text)
	lang := sess.Language
	if lang == "" {
		lang = detected.Code
	}

	rule, ok := RuleFor(stage, Input{Text: msg.Text, MediaRef: msg.MediaRef})
	if !ok {
		// Corrupted or unrecognized stage: ask the user to rephrase
		// without touching stored fields.
		outbound := e.catalog.Get("fallback", lang)
		e.send(ctx, msg.SenderID, outbound)
		e.logger.Warn("unrecognized dialogue stage", "sender", msg.SenderID, "stage", sess.Stage)
		return Transition{From: stage, To: stage, Outbound: outbound, Language: lang}, nil
	}

	if rule.RecordField != "" {
		value := strings.TrimSpace(msg.Text)
		if rule.RecordField == string(StageDocumentUpload) && msg.MediaRef != "" {
			value = msg.MediaRef
		}
		sess.SetField(rule.RecordField, value)
	}

	// The language stage pins the detected language for the rest of the
	// conversation, so prompts stay consistent even when a later message
	// scores differently.
	if stage == StageLanguage {
		sess.Language = detected.Code
		lang = detected.Code
	}

	if rule.Next == StageHandover {
		return e.handover(ctx, msg, sess, lang)
	}

	var outbound string
	if rule.PromptKey == "summary" {
		outbound = e.composeRecap(sess.Fields, lang)
	} else {
		outbound = e.catalog.Get(rule.PromptKey, lang)
	}

	sess.Stage = string(rule.Next)
	if err := e.sessions.Put(ctx, msg.SenderID, sess, e.sessionTTL); err != nil {
		return Transition{}, fmt.Errorf("intake: persist session: %w", err)
	}

	e.send(ctx, msg.SenderID, outbound)

	return Transition{From: stage, To: rule.Next, Outbound: outbound, Language: lang}, nil
}

// handover submits the collected fields to the case backend, and only after
// the submission is acknowledged sends the closing message and resets the
// session. A failed submission leaves the session in SUMMARY so the next
// affirmative (or a redelivery) retries it.
func (e *Engine) handover(ctx context.Context, msg InboundMessage, sess *session.Session, lang string) (Transition, error) {
	fields := make(map[string]string, len(sess.Fields))
	for k, v := range sess.Fields {
		fields[k] = v
	}

	caseID, err := e.cases.Submit(ctx, CaseSubmission{
		SenderID: msg.SenderID,
		Language: lang,
		Fields:   fields,
	})
	if err != nil {
		e.logger.Error("case submission failed", "error", err, "sender", msg.SenderID)
		if e.notifier != nil {
			e.notifier.SubmissionFailed(ctx, msg.SenderID, err)
		}
		return Transition{From: StageSummary, To: StageSummary, Language: lang},
			fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	if err := e.sessions.Delete(ctx, msg.SenderID); err != nil {
		// The case exists; a dangling session only risks a duplicate
		// submission on the next message, which operators can reconcile
		// by the reference number.
		e.logger.Error("failed to reset session after handoff", "error", err, "sender", msg.SenderID, "case_id", caseID)
	}

	outbound := fmt.Sprintf(e.catalog.Get("handover_done", lang), caseID)
	e.send(ctx, msg.SenderID, outbound)
	e.logger.Info("intake handed over", "sender", msg.SenderID, "case_id", caseID, "language", lang)

	return Transition{From: StageSummary, To: StageHandover, Outbound: outbound, Language: lang, CaseID: caseID}, nil
}

// composeRecap renders the human-readable summary of everything collected
// so far, with a length-bounded description, followed by the confirmation
// question.
func (e *Engine) composeRecap(fields map[string]string, lang string) string {
	var sb strings.Builder
	sb.WriteString(e.catalog.Get("summary", lang))
	for _, field := range []string{"matter_type", "description", "jurisdiction", "document_upload", "contact_info"} {
		value, ok := fields[field]
		if !ok || value == "" {
			continue
		}
		if field == "description" {
			value = truncateRunes(value, e.recapMax)
		}
		sb.WriteString("\n- ")
		sb.WriteString(e.catalog.Get("recap_"+field, lang))
		sb.WriteString(": ")
		sb.WriteString(value)
	}
	sb.WriteString("\n\n")
	sb.WriteString(e.catalog.Get("summary_confirm", lang))
	return sb.String()
}

// send delivers an outbound prompt. Delivery failures are logged, never
// propagated: the dispatcher has already exhausted its bounded retries and
// state progress must not depend on delivery.
func (e *Engine) send(ctx context.Context, to, body string) {
	if e.dispatcher == nil || body == "" {
		return
	}
	if err := e.dispatcher.Send(ctx, to, body); err != nil {
		e.logger.Error("outbound delivery failed", "error", err, "to", to)
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
