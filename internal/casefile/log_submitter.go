package casefile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/casebridge/intake-platform/internal/intake"
	"github.com/casebridge/intake-platform/pkg/logging"
)

// LogSubmitter stands in for the case backend when none is configured. It
// assigns a local case reference and logs the payload so intakes are not
// silently dropped in development.
type LogSubmitter struct {
	logger *logging.Logger
}

func NewLogSubmitter(logger *logging.Logger) *LogSubmitter {
	return &LogSubmitter{logger: logger}
}

func (s *LogSubmitter) Submit(_ context.Context, sub intake.CaseSubmission) (string, error) {
	caseID := fmt.Sprintf("local-%s", uuid.New().String()[:8])
	if s.logger != nil {
		s.logger.Info("case submission (no backend configured)",
			"case_id", caseID,
			"sender", sub.SenderID,
			"language", sub.Language,
			"fields", len(sub.Fields),
		)
	}
	return caseID, nil
}
