package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/casebridge/intake-platform/pkg/logging"
)

// OperatorAlerter emails the on-call operator when an intake cannot reach
// the case backend. Alerts are best-effort: a delivery failure is logged,
// never surfaced to the dialogue path.
type OperatorAlerter struct {
	sender EmailSender
	to     string
	logger *logging.Logger
}

func NewOperatorAlerter(sender EmailSender, operatorEmail string, logger *logging.Logger) *OperatorAlerter {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
	}
	return &OperatorAlerter{sender: sender, to: operatorEmail, logger: logger}
}

// SubmissionFailed alerts the operator that a completed intake could not be
// submitted. The session is preserved server-side, so the operator can
// retry or follow up manually.
func (a *OperatorAlerter) SubmissionFailed(ctx context.Context, senderID string, cause error) {
	if a == nil {
		return
	}
	if a.to == "" {
		a.logger.Warn("case submission failed, no operator email configured",
			"sender", senderID, "error", cause)
		return
	}

	msg := EmailMessage{
		To:      a.to,
		ToName:  "Intake Operator",
		Subject: fmt.Sprintf("Intake submission failed for %s", senderID),
		Body: fmt.Sprintf(
			"A completed intake could not be submitted to the case backend.\n\n"+
				"Sender: %s\nTime: %s\nError: %v\n\n"+
				"The conversation is held at the confirmation step and will retry on the user's next message.",
			senderID, time.Now().UTC().Format(time.RFC3339), cause,
		),
	}

	if err := a.sender.Send(ctx, msg); err != nil {
		a.logger.Error("failed to deliver operator alert",
			"error", err, "sender", senderID, "cause", cause)
	}
}
