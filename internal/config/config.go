package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSupportedLanguages is the fixed language set the intake flow speaks.
var DefaultSupportedLanguages = []string{"en", "es", "fr", "de", "pt", "ar", "hi", "zh"}

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// WhatsApp Cloud API
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppAPIBaseURL    string
	SendRetryMaxAttempts  int

	// Intake dialogue
	SessionTTL          time.Duration
	SupportedLanguages  []string
	DescriptionRecapMax int

	// Language classification
	ClassifierEnabled   bool
	GeminiAPIKey        string
	GeminiModelID       string
	ClassifierTimeout   time.Duration
	ConfidenceThreshold float64

	// Storage
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DatabaseURL   string

	// Case backend collaborator
	CaseBackendURL   string
	CaseBackendToken string

	// Operator alerts
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	OperatorEmail     string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAPIBaseURL:    getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v20.0"),
		SendRetryMaxAttempts:  getEnvAsInt("SEND_RETRY_MAX_ATTEMPTS", 3),

		SessionTTL:          getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SupportedLanguages:  getEnvAsList("SUPPORTED_LANGUAGES", DefaultSupportedLanguages),
		DescriptionRecapMax: getEnvAsInt("DESCRIPTION_RECAP_MAX", 160),

		ClassifierEnabled:   getEnvAsBool("LANGUAGE_CLASSIFIER_ENABLED", false),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:       getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		ClassifierTimeout:   getEnvAsDuration("LANGUAGE_CLASSIFIER_TIMEOUT", 3*time.Second),
		ConfidenceThreshold: getEnvAsFloat("LANGUAGE_CONFIDENCE_THRESHOLD", 0.4),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		CaseBackendURL:   getEnv("CASE_BACKEND_URL", ""),
		CaseBackendToken: getEnv("CASE_BACKEND_TOKEN", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "CaseBridge Intake"),
		OperatorEmail:     getEnv("OPERATOR_ALERT_EMAIL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, trimming blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(p)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
