package language

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const classifierInstruction = "You are a language detection expert. Respond with only the ISO 639-1 language code (2 letters) for the user's message. If unsure, respond with 'unknown'."

// GeminiClassifier implements Classifier using Google's Gemini API.
type GeminiClassifier struct {
	client  *genai.Client
	modelID string
}

// NewGeminiClassifier creates a Gemini-backed language classifier.
func NewGeminiClassifier(ctx context.Context, apiKey, modelID string) (*GeminiClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("language: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("language: failed to create gemini client: %w", err)
	}

	return &GeminiClassifier{client: client, modelID: modelID}, nil
}

// Classify asks Gemini for the two-letter language code of text.
func (c *GeminiClassifier) Classify(ctx context.Context, text string) (string, error) {
	model := c.client.GenerativeModel(c.modelID)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(10)
	model.SystemInstruction = genai.NewUserContent(genai.Text(classifierInstruction))

	resp, err := model.GenerateContent(ctx, genai.Text("Detect the language of this text: "+text))
	if err != nil {
		return "", fmt.Errorf("language: gemini classification failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("language: gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	answer := strings.ToLower(strings.TrimSpace(sb.String()))
	if answer == "" {
		return "", errors.New("language: gemini returned empty answer")
	}
	return answer, nil
}

// Close releases the underlying API client.
func (c *GeminiClassifier) Close() error {
	return c.client.Close()
}
