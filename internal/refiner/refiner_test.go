package refiner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"linketron/internal/language"
	"linketron/internal/llm"
	"linketron/internal/writer"
)

type stubLLM struct {
	reply  string
	err    error
	prompt string
	calls  int
}

func (s *stubLLM) Generate(_ context.Context, msgs []llm.Message) (llm.Response, error) {
	s.calls++
	s.prompt = msgs[0].Content
	return llm.Response{Content: s.reply}, s.err
}

var draft = writer.Post{Title: "[The Question Post] Relationship sales", Text: "Is the relationship sale dying - or not?"}

func TestRefine_OK(t *testing.T) {
	s := &stubLLM{reply: `{"title":"","text":"Is the relationship sale dying?"}`}
	got, status := New(s, nil).Refine(context.Background(), draft, language.English)
	if status != writer.StatusOK {
		t.Fatalf("status = %v", status)
	}
	if got.Title != draft.Title {
		t.Fatalf("empty refined title should keep original, got %q", got.Title)
	}
	if got.Text != "Is the relationship sale dying?" {
		t.Fatalf("text = %q", got.Text)
	}
	if !strings.Contains(s.prompt, draft.Text) || !strings.Contains(s.prompt, "English") {
		t.Fatalf("prompt: %s", s.prompt)
	}
}

func TestRefine_Russian(t *testing.T) {
	s := &stubLLM{reply: `[{"title":"Т","text":"Текст"}]`}
	got, _ := New(s, nil).Refine(context.Background(), draft, language.Russian)
	if got.Text != "Текст" || !strings.Contains(s.prompt, "русском") {
		t.Fatalf("got %+v prompt %q", got, s.prompt)
	}
}

func TestRefine_IdentityFallback(t *testing.T) {
	cases := map[string]*stubLLM{
		"call error": {err: errors.New("quota")},
		"bad json":   {reply: "sure! here is the text"},
		"empty text": {reply: `{"title":"x","text":""}`},
	}
	for name, s := range cases {
		got, status := New(s, nil).Refine(context.Background(), draft, language.English)
		if status != writer.StatusFallback {
			t.Fatalf("%s: status = %v", name, status)
		}
		if got != draft {
			t.Fatalf("%s: draft changed: %+v", name, got)
		}
	}
}

func TestRefine_EmptyInput(t *testing.T) {
	s := &stubLLM{}
	got, status := New(s, nil).Refine(context.Background(), writer.Post{Title: "t"}, language.English)
	if status != writer.StatusFallback || got.Title != "t" || s.calls != 0 {
		t.Fatalf("empty input should short-circuit: %+v %v %d", got, status, s.calls)
	}
}
