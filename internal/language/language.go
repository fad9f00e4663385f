// Package language detects the language of inbound intake messages.
//
// Detection is best-effort: an optional external classifier is consulted
// first, then a pattern-scoring fallback, then a hard default of English.
// Callers get a confidence tier and a provenance tag so downstream prompts
// can decide whether to ask the user to confirm.
package language

// Provenance records which detection path produced a result.
type Provenance string

const (
	ProvenanceClassifier Provenance = "classifier"
	ProvenancePattern    Provenance = "pattern"
	ProvenanceDefault    Provenance = "default"
)

// Confidence buckets a detection score into operator-readable tiers.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Confidence tier cutoffs applied to normalized pattern scores.
const (
	highConfidenceThreshold   = 0.8
	mediumConfidenceThreshold = 0.6
	// DefaultThreshold is the minimum normalized score a pattern match
	// needs before it beats the English default.
	DefaultThreshold = 0.4
)

// Result is a single language detection outcome.
type Result struct {
	Code       string
	Confidence Confidence
	Provenance Provenance
	Score      float64
}

// Name returns the human-readable name for a supported language code.
func Name(code string) string {
	names := map[string]string{
		"en": "English",
		"es": "Spanish",
		"fr": "French",
		"de": "German",
		"pt": "Portuguese",
		"ar": "Arabic",
		"hi": "Hindi",
		"zh": "Chinese",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return "Unknown"
}
