package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	TelegramBotToken string  `env:"TELEGRAM_BOT_TOKEN"`
	AllowedUsers     []int64 `env:"ALLOWED_USERS" envSeparator:":"`
	AdminUserID      int64   `env:"ADMIN_USER"`

	AllowlistFilePath string `env:"ALLOWLIST_FILE_PATH" envDefault:"data/allowlist.json"`
	PendingFilePath   string `env:"PENDING_FILE_PATH" envDefault:"data/pending.json"`

	// Text generation. Gemini is reached through its OpenAI-compatible endpoint.
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	GeminiAPIKey     string      `env:"GEMINI_API_KEY"`
	LLMBaseURL       string      `env:"LLM_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	WriterModel      string      `env:"WRITER_MODEL" envDefault:"gemini-2.5-flash"`
	FastModel        string      `env:"FAST_MODEL" envDefault:"gemini-2.0-flash"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Speech to text
	GroqAPIKey      string `env:"GROQ_API_KEY"`
	GroqBaseURL     string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	TranscribeModel string `env:"TRANSCRIBE_MODEL" envDefault:"whisper-large-v3"`

	// Research
	PerplexityAPIKey  string `env:"PERPLEXITY_API_KEY"`
	PerplexityBaseURL string `env:"PERPLEXITY_BASE_URL" envDefault:"https://api.perplexity.ai"`
	ResearchModel     string `env:"RESEARCH_MODEL" envDefault:"sonar-pro"`
	LensesFilePath    string `env:"LENSES_FILE"`

	// Images
	ImageSearchProvider string `env:"IMAGE_SEARCH_PROVIDER" envDefault:"serper"`
	SerperAPIKey        string `env:"SERPER_API_KEY"`
	GoogleCSEAPIKey     string `env:"GOOGLE_CSE_API_KEY"`
	GoogleCSEID         string `env:"GOOGLE_CSE_ID"`
	ImageModel          string `env:"IMAGE_MODEL" envDefault:"imagen-3.0-generate-002"`

	// LinkedIn
	LinkedInClientID     string `env:"LINKEDIN_CLIENT_ID"`
	LinkedInClientSecret string `env:"LINKEDIN_CLIENT_SECRET"`
	LinkedInRedirectURL  string `env:"LINKEDIN_REDIRECT_URL" envDefault:"https://www.google.com"`
	LinkedInAPIBaseURL   string `env:"LINKEDIN_API_BASE_URL" envDefault:"https://api.linkedin.com"`

	// Storage
	CredentialsBackend  string `env:"CREDENTIALS_BACKEND" envDefault:"file"`
	CredentialsFilePath string `env:"CREDENTIALS_FILE_PATH" envDefault:"data/user_secrets.json"`
	CredentialsDBPath   string `env:"CREDENTIALS_DB_PATH" envDefault:"data/credentials.db"`
	JournalFilePath     string `env:"JOURNAL_FILE_PATH" envDefault:"logs/journal.jsonl"`
	ArtifactDir         string `env:"ARTIFACT_DIR" envDefault:"data/artifacts"`

	// Runtime
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"2m"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"24h"`
	HTTPAddr       string        `env:"HTTP_ADDR"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"console"`

	// Formatting
	MessageParseMode string `env:"MESSAGE_PARSE_MODE" envDefault:"HTML"`
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Parse reads the environment without exiting on error.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
