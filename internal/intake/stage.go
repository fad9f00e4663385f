package intake

import "strings"

// Stage is one step of the structured intake dialogue.
type Stage string

const (
	StageGreeting       Stage = "greeting"
	StageConsent        Stage = "consent"
	StageLanguage       Stage = "language"
	StageMatterType     Stage = "matter_type"
	StageDescription    Stage = "description"
	StageJurisdiction   Stage = "jurisdiction"
	StageDocumentUpload Stage = "document_upload"
	StageContactInfo    Stage = "contact_info"
	StageSummary        Stage = "summary"
	StageHandover       Stage = "handover"
)

// Stages lists every dialogue stage in protocol order.
var Stages = []Stage{
	StageGreeting,
	StageConsent,
	StageLanguage,
	StageMatterType,
	StageDescription,
	StageJurisdiction,
	StageDocumentUpload,
	StageContactInfo,
	StageSummary,
	StageHandover,
}

// Valid reports whether s is a recognized stage.
func (s Stage) Valid() bool {
	for _, stage := range Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Input is the classified user turn a transition rule can predicate on.
type Input struct {
	Text     string
	MediaRef string
}

// Predicate decides whether a rule applies to an input.
type Predicate func(Input) bool

// Rule is one static transition table entry: from Current, an input matching
// When (nil = always) moves the session to Next, prompts with PromptKey, and
// records the input under RecordField when non-empty.
type Rule struct {
	Current     Stage
	When        Predicate
	Next        Stage
	PromptKey   string
	RecordField string
}

// transitionTable is the static stage machine, defined once at process
// start. Rules are evaluated top-down; the first match for the current
// stage wins.
var transitionTable = []Rule{
	{Current: StageGreeting, Next: StageConsent, PromptKey: "consent"},
	{Current: StageConsent, When: isAffirmative, Next: StageLanguage, PromptKey: "language"},
	{Current: StageConsent, Next: StageConsent, PromptKey: "consent_retry"},
	{Current: StageLanguage, Next: StageMatterType, PromptKey: "matter_type"},
	{Current: StageMatterType, Next: StageDescription, PromptKey: "description", RecordField: "matter_type"},
	{Current: StageDescription, Next: StageJurisdiction, PromptKey: "jurisdiction", RecordField: "description"},
	{Current: StageJurisdiction, Next: StageDocumentUpload, PromptKey: "document_upload", RecordField: "jurisdiction"},
	{Current: StageDocumentUpload, Next: StageContactInfo, PromptKey: "contact_info", RecordField: "document_upload"},
	{Current: StageContactInfo, Next: StageSummary, PromptKey: "summary", RecordField: "contact_info"},
	{Current: StageSummary, When: isAffirmative, Next: StageHandover, PromptKey: "handover_done"},
	{Current: StageSummary, Next: StageSummary, PromptKey: "summary_retry"},
}

// RuleFor resolves the transition rule for a stage and input.
// The second return is false when the stage has no rules at all
// (unrecognized or corrupted stage values).
func RuleFor(stage Stage, input Input) (Rule, bool) {
	for _, rule := range transitionTable {
		if rule.Current != stage {
			continue
		}
		if rule.When == nil || rule.When(input) {
			return rule, true
		}
	}
	return Rule{}, false
}

// affirmatives covers yes-answers across the supported language set.
var affirmatives = map[string]struct{}{
	"yes": {}, "y": {}, "yeah": {}, "yep": {}, "ok": {}, "okay": {},
	"sure": {}, "confirm": {}, "correct": {},
	"si": {}, "sí": {}, "claro": {}, "confirmo": {},
	"oui": {}, "d'accord": {},
	"ja": {}, "jawohl": {},
	"sim": {}, "claro que sim": {},
	"نعم": {}, "اجل": {}, "أجل": {},
	"हां": {}, "हाँ": {}, "जी": {},
	"是": {}, "是的": {}, "好": {}, "好的": {}, "对": {},
}

// isAffirmative classifies an input as a yes-answer. Only the leading token
// is considered so "yes please" consents while "yesterday it broke" does not.
func isAffirmative(in Input) bool {
	text := strings.ToLower(strings.TrimSpace(in.Text))
	if text == "" {
		return false
	}
	text = strings.Trim(text, ".,!?¡¿。！？")
	if _, ok := affirmatives[text]; ok {
		return true
	}
	first, _, _ := strings.Cut(text, " ")
	_, ok := affirmatives[strings.Trim(first, ".,!?")]
	return ok
}
