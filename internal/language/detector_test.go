package language

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	code  string
	err   error
	calls int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.code, nil
}

type slowClassifier struct{}

func (slowClassifier) Classify(ctx context.Context, text string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(5 * time.Second):
		return "fr", nil
	}
}

func TestDetectEmptyTextDefaultsToEnglish(t *testing.T) {
	d := NewDetector(nil, nil)

	for _, text := range []string{"", "   ", "\n\t"} {
		res := d.Detect(context.Background(), text)
		assert.Equal(t, "en", res.Code)
		assert.Equal(t, ProvenanceDefault, res.Provenance)
		assert.Equal(t, ConfidenceLow, res.Confidence)
	}
}

func TestDetectPatternScoring(t *testing.T) {
	d := NewDetector(nil, nil)

	tests := []struct {
		name string
		text string
		code string
	}{
		{"spanish greeting", "hola necesito ayuda con un divorcio por favor", "es"},
		{"dense english", "the and or but in on at to for of", "en"},
		{"arabic script", "مرحبا أحتاج مساعدة", "ar"},
		{"chinese script", "你好 我需要帮助", "zh"},
		{"hindi script", "नमस्ते मुझे मदद चाहिए", "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := d.Detect(context.Background(), tt.text)
			assert.Equal(t, tt.code, res.Code)
			assert.Equal(t, ProvenancePattern, res.Provenance)
			assert.GreaterOrEqual(t, res.Score, DefaultThreshold)
		})
	}
}

func TestDetectBelowThresholdFallsBackToDefault(t *testing.T) {
	d := NewDetector(nil, nil)

	// A single weak stop-word hit is not enough evidence.
	res := d.Detect(context.Background(), "zzz qqq with xxy")
	assert.Equal(t, "en", res.Code)
	assert.Equal(t, ProvenanceDefault, res.Provenance)
}

func TestDetectScriptOutweighsLatinStopWords(t *testing.T) {
	d := NewDetector(nil, nil)

	res := d.Detect(context.Background(), "请问 en de 你好 谢谢 帮助")
	assert.Equal(t, "zh", res.Code)
}

func TestDetectClassifierWins(t *testing.T) {
	fc := &fakeClassifier{code: "fr"}
	d := NewDetector(nil, nil, WithClassifier(fc))

	res := d.Detect(context.Background(), "hola necesito ayuda con un divorcio por favor")
	assert.Equal(t, "fr", res.Code)
	assert.Equal(t, ProvenanceClassifier, res.Provenance)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
	assert.Equal(t, 1, fc.calls)
}

func TestDetectClassifierFallbacks(t *testing.T) {
	spanish := "hola necesito ayuda con un divorcio por favor"

	tests := []struct {
		name       string
		classifier Classifier
	}{
		{"classifier error", &fakeClassifier{err: errors.New("boom")}},
		{"unknown answer", &fakeClassifier{code: "unknown"}},
		{"invalid code", &fakeClassifier{code: "esp"}},
		{"unsupported code", &fakeClassifier{code: "ja"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(nil, nil, WithClassifier(tt.classifier))
			res := d.Detect(context.Background(), spanish)
			assert.Equal(t, "es", res.Code)
			assert.Equal(t, ProvenancePattern, res.Provenance)
		})
	}
}

func TestDetectClassifierTimeout(t *testing.T) {
	d := NewDetector(nil, nil,
		WithClassifier(slowClassifier{}),
		WithClassifierTimeout(20*time.Millisecond),
	)

	start := time.Now()
	res := d.Detect(context.Background(), "hola necesito ayuda con un divorcio por favor")
	require.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "es", res.Code)
	assert.Equal(t, ProvenancePattern, res.Provenance)
}

func TestDetectRestrictedLanguageSet(t *testing.T) {
	d := NewDetector([]string{"en", "fr"}, nil)

	// Spanish patterns are not consulted when es is outside the set.
	res := d.Detect(context.Background(), "hola necesito ayuda con un divorcio por favor")
	assert.Equal(t, "en", res.Code)
	assert.Equal(t, ProvenanceDefault, res.Provenance)
}

func TestConfidenceTiers(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, confidenceTier(0.9))
	assert.Equal(t, ConfidenceMedium, confidenceTier(0.65))
	assert.Equal(t, ConfidenceLow, confidenceTier(0.45))
}

func TestLanguageNames(t *testing.T) {
	assert.Equal(t, "Spanish", Name("es"))
	assert.Equal(t, "Unknown", Name("xx"))
}
