package language

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/casebridge/intake-platform/pkg/logging"
)

// Classifier is an external high-accuracy language classifier.
// Implementations must return a two-letter ISO 639-1 code, or
// "unknown" when they cannot tell.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

const (
	defaultClassifierTimeout = 3 * time.Second
	// classifierMaxChars bounds the text shipped to the external classifier.
	classifierMaxChars = 500
)

// Detector resolves the language of a message through a tiered cascade:
// external classifier, pattern scoring, then the English default. It never
// returns an error; every failure degrades to the next tier.
type Detector struct {
	classifier Classifier
	timeout    time.Duration
	threshold  float64
	supported  map[string]struct{}
	logger     *logging.Logger
}

// DetectorOption customizes a Detector.
type DetectorOption func(*Detector)

// WithClassifier attaches an external classifier consulted before the
// pattern fallback.
func WithClassifier(c Classifier) DetectorOption {
	return func(d *Detector) {
		d.classifier = c
	}
}

// WithClassifierTimeout bounds the external classifier call.
func WithClassifierTimeout(timeout time.Duration) DetectorOption {
	return func(d *Detector) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithThreshold overrides the minimum normalized pattern score.
func WithThreshold(threshold float64) DetectorOption {
	return func(d *Detector) {
		if threshold > 0 {
			d.threshold = threshold
		}
	}
}

// NewDetector builds a Detector for the given supported language set.
// An empty set falls back to every language the pattern tables cover.
func NewDetector(supported []string, logger *logging.Logger, opts ...DetectorOption) *Detector {
	if logger == nil {
		logger = logging.Default()
	}
	if len(supported) == 0 {
		supported = SupportedCodes()
	}
	set := make(map[string]struct{}, len(supported))
	for _, code := range supported {
		set[strings.ToLower(strings.TrimSpace(code))] = struct{}{}
	}
	d := &Detector{
		timeout:   defaultClassifierTimeout,
		threshold: DefaultThreshold,
		supported: set,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the best-guess language of text. First success wins:
// empty text defaults, then the external classifier, then pattern scoring,
// then the English default.
func (d *Detector) Detect(ctx context.Context, text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{Code: "en", Confidence: ConfidenceLow, Provenance: ProvenanceDefault}
	}

	if d.classifier != nil {
		if code, ok := d.classify(ctx, text); ok {
			return Result{Code: code, Confidence: ConfidenceHigh, Provenance: ProvenanceClassifier}
		}
	}

	if res, ok := d.scorePatterns(text); ok {
		return res
	}

	d.logger.Debug("language detection fell through to default", "sample", truncate(text, 50))
	return Result{Code: "en", Confidence: ConfidenceLow, Provenance: ProvenanceDefault}
}

// classify consults the external classifier and validates its answer
// against the supported set. Any error or unusable answer falls through.
func (d *Detector) classify(ctx context.Context, text string) (string, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	code, err := d.classifier.Classify(ctx, truncate(text, classifierMaxChars))
	if err != nil {
		d.logger.Warn("external language classifier failed", "error", err)
		return "", false
	}
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "unknown" {
		return "", false
	}
	if len(code) != 2 {
		d.logger.Warn("external classifier returned invalid code", "code", code)
		return "", false
	}
	if _, ok := d.supported[code]; !ok {
		d.logger.Warn("external classifier returned unsupported code", "code", code)
		return "", false
	}
	return code, true
}

// scorePatterns runs the lexical/script rules for every supported language
// and picks the highest normalized score above the threshold.
func (d *Detector) scorePatterns(text string) (Result, bool) {
	textLen := float64(utf8.RuneCountInString(text))

	var bestCode string
	var bestScore float64
	for code, patterns := range languagePatterns {
		if _, ok := d.supported[code]; !ok {
			continue
		}
		var score float64
		for _, p := range patterns {
			matches := len(p.re.FindAllString(text, -1))
			if matches == 0 {
				continue
			}
			if p.block {
				score += float64(matches * 2)
			} else {
				score += float64(matches)
			}
		}
		if score == 0 {
			continue
		}
		normalized := score / (textLen + 1) * (score / float64(len(patterns)))
		if normalized > bestScore {
			bestScore = normalized
			bestCode = code
		}
	}

	if bestCode == "" || bestScore < d.threshold {
		return Result{}, false
	}
	d.logger.Debug("pattern language detection", "code", bestCode, "score", bestScore)
	return Result{
		Code:       bestCode,
		Confidence: confidenceTier(bestScore),
		Provenance: ProvenancePattern,
		Score:      bestScore,
	}, true
}

func confidenceTier(score float64) Confidence {
	switch {
	case score >= highConfidenceThreshold:
		return ConfidenceHigh
	case score >= mediumConfidenceThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
