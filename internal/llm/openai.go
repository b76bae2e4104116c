package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIOptions configures any OpenAI-compatible endpoint: Gemini, Perplexity, Groq and
// OpenRouter all speak the same wire format.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Referrer    string
	Title       string
	Timeout     time.Duration
	Temperature float32
}

type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	jsonMode    bool
}

type headerTransport struct {
	rt      http.RoundTripper
	headers http.Header
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone request to avoid mutating the original
	cl := req.Clone(req.Context())
	for k, vs := range t.headers {
		for _, v := range vs {
			cl.Header.Add(k, v)
		}
	}
	return t.rt.RoundTrip(cl)
}

func newOpenAIConfig(o OpenAIOptions) openai.ClientConfig {
	config := openai.DefaultConfig(o.APIKey)
	if o.BaseURL != "" {
		config.BaseURL = o.BaseURL
	}
	var rt http.RoundTripper = http.DefaultTransport
	// Inject optional headers (useful for OpenRouter)
	if o.Referrer != "" || o.Title != "" {
		h := http.Header{}
		if o.Referrer != "" {
			h.Set("HTTP-Referer", o.Referrer)
		}
		if o.Title != "" {
			h.Set("X-Title", o.Title)
		}
		rt = headerTransport{rt: rt, headers: h}
	}
	config.HTTPClient = &http.Client{Transport: rt, Timeout: o.Timeout}
	return config
}

func NewOpenAI(o OpenAIOptions) *OpenAIClient {
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(newOpenAIConfig(o)),
		model:       o.Model,
		temperature: o.Temperature,
	}
}

// JSONMode returns a copy of the client that asks the endpoint for a JSON object response.
func (c *OpenAIClient) JSONMode() *OpenAIClient {
	cp := *c
	cp.jsonMode = true
	return &cp
}

func (c *OpenAIClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    oaMsgs,
		Temperature: c.temperature,
	}
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, errors.New("chat completion returned no choices")
	}

	return Response{
		Content:          resp.Choices[0].Message.Content,
		Model:            c.model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// OpenAITranscriber sends audio to a Whisper-compatible transcription endpoint (Groq by default).
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

func NewOpenAITranscriber(o OpenAIOptions) *OpenAITranscriber {
	return &OpenAITranscriber{client: openai.NewClientWithConfig(newOpenAIConfig(o)), model: o.Model}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", audioPath, err)
	}
	return resp.Text, nil
}

// OpenAIImageGenerator renders images through an OpenAI-compatible images endpoint.
type OpenAIImageGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIImageGenerator(o OpenAIOptions) *OpenAIImageGenerator {
	return &OpenAIImageGenerator{client: openai.NewClientWithConfig(newOpenAIConfig(o)), model: o.Model}
}

func (g *OpenAIImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New("model refused to generate image")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}
