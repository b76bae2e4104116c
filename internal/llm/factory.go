package llm

import (
	"fmt"
	"strings"
	"sync"

	"linketron/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// Factory creates the clients each pipeline stage needs from one Config.
type Factory struct {
	cfg *config.Config

	yaOnce sync.Once
	ya     *YandexClient
	yaErr  error
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

// Text returns a text-generation client for the configured provider. jsonMode asks
// OpenAI-compatible endpoints for a JSON object response; Yandex ignores it and relies
// on the prompt alone.
func (f *Factory) Text(model string, jsonMode bool) (Client, error) {
	switch strings.ToLower(string(f.cfg.LLMProvider)) {
	case ProviderOpenAI:
		c := NewOpenAI(OpenAIOptions{
			APIKey:   f.cfg.GeminiAPIKey,
			BaseURL:  f.cfg.LLMBaseURL,
			Model:    model,
			Referrer: f.cfg.OpenRouterReferrer,
			Title:    f.cfg.OpenRouterTitle,
			Timeout:  f.cfg.RequestTimeout,
		})
		if jsonMode {
			return c.JSONMode(), nil
		}
		return c, nil
	case ProviderYandex:
		f.yaOnce.Do(func() {
			f.ya, f.yaErr = NewYandex(f.cfg.YandexOAuthToken, f.cfg.YandexFolderID)
		})
		if f.yaErr != nil {
			return nil, f.yaErr
		}
		return f.ya, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", f.cfg.LLMProvider)
	}
}

// Writer is the JSON-mode client used for classification, drafting and refinement.
func (f *Factory) Writer() (Client, error) { return f.Text(f.cfg.WriterModel, true) }

// Fast is the plain-text client used for short helper calls (angles, search phrases).
func (f *Factory) Fast() (Client, error) { return f.Text(f.cfg.FastModel, false) }

// Search talks to Perplexity, which always answers with web-grounded content.
func (f *Factory) Search() Client {
	return NewOpenAI(OpenAIOptions{
		APIKey:      f.cfg.PerplexityAPIKey,
		BaseURL:     f.cfg.PerplexityBaseURL,
		Model:       f.cfg.ResearchModel,
		Timeout:     f.cfg.RequestTimeout,
		Temperature: 0.2,
	})
}

func (f *Factory) Transcriber() Transcriber {
	return NewOpenAITranscriber(OpenAIOptions{
		APIKey:  f.cfg.GroqAPIKey,
		BaseURL: f.cfg.GroqBaseURL,
		Model:   f.cfg.TranscribeModel,
		Timeout: f.cfg.RequestTimeout,
	})
}

func (f *Factory) ImageGenerator() ImageGenerator {
	return NewOpenAIImageGenerator(OpenAIOptions{
		APIKey:  f.cfg.GeminiAPIKey,
		BaseURL: f.cfg.LLMBaseURL,
		Model:   f.cfg.ImageModel,
		Timeout: f.cfg.RequestTimeout,
	})
}
