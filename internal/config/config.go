package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port     int
	LogLevel string

	LLMType            string
	OllamaBaseURL      string
	OllamaModel        string
	OllamaTemperature  float64
	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicMaxTokens int
	LLMTimeoutSeconds  int

	DatabaseURL string
	Collection  string

	EmbedModelPath     string
	EmbedTokenizerPath string
	ONNXRuntimeLibPath string
	EmbedDim           int

	MaxTranscriptChars  int
	IngestWorkers       int
	TranscriptBaseURL   string
	TranscriptLanguages []string

	NatsURL   string
	NatsToken string
}

func Load() Config {
	return Config{
		Port:     envInt("SOULI_PORT", 8000),
		LogLevel: envStr("LOG_LEVEL", "info"),

		LLMType:            strings.ToLower(envStr("LLM_TYPE", "ollama")),
		OllamaBaseURL:      envStr("OLLAMA_BASE_URL", "http://ollama:11434"),
		OllamaModel:        envStr("OLLAMA_MODEL", "llama3.1:8b"),
		OllamaTemperature:  envFloat("OLLAMA_TEMPERATURE", 0.3),
		AnthropicAPIKey:    envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:     envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AnthropicMaxTokens: envInt("ANTHROPIC_MAX_TOKENS", 4096),
		LLMTimeoutSeconds:  envInt("LLM_TIMEOUT_SECONDS", 60),

		DatabaseURL: envStr("DATABASE_URL", ""),
		Collection:  envStr("SOULI_COLLECTION", "souli_knowledge_base"),

		EmbedModelPath:     envStr("EMBED_MODEL_PATH", "models/bge-small-en-v1.5/model.onnx"),
		EmbedTokenizerPath: envStr("EMBED_TOKENIZER_PATH", "models/bge-small-en-v1.5/tokenizer.json"),
		ONNXRuntimeLibPath: envStr("ONNXRUNTIME_LIB_PATH", ""),
		EmbedDim:           envInt("EMBED_DIM", 384),

		MaxTranscriptChars:  envInt("MAX_TRANSCRIPT_CHARS", 12000),
		IngestWorkers:       envInt("INGEST_WORKERS", 4),
		TranscriptBaseURL:   envStr("TRANSCRIPT_BASE_URL", "https://www.youtube.com"),
		TranscriptLanguages: envList("TRANSCRIPT_LANGUAGES", []string{"en", "en-US", "en-GB"}),

		NatsURL:   envStr("NATS_URL", ""),
		NatsToken: envStr("NATS_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping blank entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
