package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func chatServer(t *testing.T, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if seen != nil {
			_ = json.Unmarshal(body, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "x",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
			"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
		})
	}))
}

func TestOpenAIClient_Generate(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, `{"title":"t"}`, &seen)
	defer srv.Close()

	c := NewOpenAI(OpenAIOptions{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "m"}).JSONMode()
	resp, err := c.Generate(context.Background(), []Message{System("sys"), User("hi")})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != `{"title":"t"}` || resp.TotalTokens != 7 || resp.Model != "m" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	rf, ok := seen["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Fatalf("json mode not requested: %+v", seen["response_format"])
	}
	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
}

func TestOpenAIClient_PlainModeHasNoResponseFormat(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, "angle", &seen)
	defer srv.Close()

	c := NewOpenAI(OpenAIOptions{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "m"})
	if _, err := c.Generate(context.Background(), []Message{User("hi")}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, ok := seen["response_format"]; ok {
		t.Fatalf("plain client must not request json mode")
	}
}

func TestOpenAIClient_HeadersInjected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("HTTP-Referer") != "https://example.com" || r.Header.Get("X-Title") != "linketron" {
			t.Errorf("headers missing: %v", r.Header)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, Model: "m", Referrer: "https://example.com", Title: "linketron"})
	if _, err := c.Generate(context.Background(), []Message{User("x")}); err != nil {
		t.Fatalf("generate: %v", err)
	}
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	if _, err := c.Generate(context.Background(), []Message{User("x")}); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestOpenAITranscriber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart: %v", err)
		}
		if r.FormValue("model") != "whisper-large-v3" {
			t.Errorf("model: %q", r.FormValue("model"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"hello from voice"}`)
	}))
	defer srv.Close()

	p := filepath.Join(t.TempDir(), "voice.ogg")
	if err := os.WriteFile(p, []byte("OggS"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tr := NewOpenAITranscriber(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, Model: "whisper-large-v3"})
	text, err := tr.Transcribe(context.Background(), p)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "hello from voice" {
		t.Fatalf("text: %q", text)
	}
}

func TestOpenAIImageGenerator(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []any{map[string]any{"b64_json": base64.StdEncoding.EncodeToString(png)}},
		})
	}))
	defer srv.Close()

	g := NewOpenAIImageGenerator(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, Model: "imagen"})
	data, err := g.GenerateImage(context.Background(), "a chess king")
	if err != nil {
		t.Fatalf("generate image: %v", err)
	}
	if string(data) != string(png) {
		t.Fatalf("bytes mismatch: %v", data)
	}
}

func TestOpenAIImageGenerator_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"created":1,"data":[]}`)
	}))
	defer srv.Close()

	g := NewOpenAIImageGenerator(OpenAIOptions{APIKey: "k", BaseURL: srv.URL, Model: "imagen"})
	if _, err := g.GenerateImage(context.Background(), "x"); err == nil {
		t.Fatalf("expected refusal error")
	}
}
