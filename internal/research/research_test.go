package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"linketron/internal/config"
	"linketron/internal/llm"
)

type fakeLLM struct {
	replies []string
	err     error
	calls   [][]llm.Message
}

func (f *fakeLLM) Generate(_ context.Context, msgs []llm.Message) (llm.Response, error) {
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	if len(f.replies) == 0 {
		return llm.Response{}, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return llm.Response{Content: r}, nil
}

const cardJSON = `{"headline_fact":"Made $5M in 24h","subject_name":"Acme","origin_story":"garage","core_mechanism":"scarcity","viral_angle":"less is more","proof_points":["a","b"],"actionable_step":"ship"}`

func TestResearch_Success(t *testing.T) {
	fast := &fakeLLM{replies: []string{"  pricing anchors  "}}
	search := &fakeLLM{replies: []string{"Here you go:\n```json\n" + cardJSON + "\n```\nEnjoy {not json}"}}
	r := New(nil, fast, search, nil)

	card := r.Research(context.Background(), "lens_growth", "")
	if card.Failed() {
		t.Fatalf("unexpected failure: %+v", card)
	}
	if card.SubjectName != "Acme" || len(card.ProofPoints) != 2 {
		t.Fatalf("card: %+v", card)
	}
	if card.MetaLens != "Growth Hack" || card.MetaAngle != "pricing anchors" {
		t.Fatalf("meta: %q %q", card.MetaLens, card.MetaAngle)
	}
	prompt := search.calls[0][1].Content
	if !strings.Contains(prompt, "tactical growth hacking") || !strings.Contains(prompt, "pricing anchors.") {
		t.Fatalf("prompt missing context or angle: %s", prompt)
	}
	if search.calls[0][0].Role != "system" {
		t.Fatalf("first message should be the system instruction")
	}
}

func TestResearch_AngleFallback(t *testing.T) {
	fast := &fakeLLM{err: errors.New("quota")}
	search := &fakeLLM{replies: []string{cardJSON}}
	card := New(nil, fast, search, nil).Research(context.Background(), "lens_principle", "")
	if card.MetaAngle != fallbackAngle {
		t.Fatalf("angle = %q", card.MetaAngle)
	}
}

func TestResearch_CustomTopic(t *testing.T) {
	search := &fakeLLM{replies: []string{cardJSON}}
	card := New(nil, &fakeLLM{replies: []string{"x"}}, search, nil).Research(context.Background(), CustomLensKey, "vertical farming")
	if card.MetaLens != "Custom Topic" {
		t.Fatalf("lens name = %q", card.MetaLens)
	}
	if !strings.Contains(search.calls[0][1].Content, "vertical farming") {
		t.Fatalf("custom topic not in prompt")
	}
}

func TestResearch_Failures(t *testing.T) {
	cases := map[string]*fakeLLM{
		"search error": {err: errors.New("401 unauthorized")},
		"no json":      {replies: []string{"sorry, nothing found"}},
		"bad json":     {replies: []string{`{"headline_fact": 5,}`}},
	}
	for name, search := range cases {
		card := New(nil, &fakeLLM{replies: []string{"angle"}}, search, nil).Research(context.Background(), "lens_growth", "")
		if !card.Failed() {
			t.Fatalf("%s: expected error card, got %+v", name, card)
		}
		if card.HeadlineFact != "Error" || card.SubjectName != "System Error" || card.OriginStory == "" {
			t.Fatalf("%s: sentinel fields: %+v", name, card)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	got, err := ExtractJSONObject(`noise {"a":"}{","b":{"c":"\"}"}} trailing {"z":1}`)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != `{"a":"}{","b":{"c":"\"}"}}` {
		t.Fatalf("got %s", got)
	}
	if _, err := ExtractJSONObject(`{"open": "never closed"`); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("want ErrNoJSON, got %v", err)
	}
}

func TestFactCard_ProofPointsString(t *testing.T) {
	search := &fakeLLM{replies: []string{`{"headline_fact":"x","subject_name":"y","proof_points":"only one"}`}}
	card := New(nil, &fakeLLM{}, search, nil).Research(context.Background(), "lens_growth", "")
	if len(card.ProofPoints) != 1 || card.ProofPoints[0] != "only one" {
		t.Fatalf("proof points: %#v", card.ProofPoints)
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog(
		config.LensEntry{Key: "lens_growth", Name: "Growth", Context: "override"},
		config.LensEntry{Key: "lens_pricing_power", Context: "pricing"},
	)
	l, ok := c.Lookup("lens_growth", "")
	if !ok || l.Context != "override" {
		t.Fatalf("override not applied: %+v", l)
	}
	l, ok = c.Lookup("lens_pricing_power", "")
	if !ok || l.Name != "Pricing Power" {
		t.Fatalf("derived name: %+v", l)
	}
	if _, ok := c.Lookup(CustomLensKey, "  "); ok {
		t.Fatalf("custom lens with empty topic should not resolve")
	}
	if n := len(c.List()); n != 5 {
		t.Fatalf("list size %d", n)
	}
}

func TestFormatCard(t *testing.T) {
	text := FormatCard(FactCard{SubjectName: "A<B", HeadlineFact: "x", MetaLens: "Growth"})
	if !strings.Contains(text, "A&lt;B") || !strings.Contains(text, "No conflict found") {
		t.Fatalf("format: %s", text)
	}
	failed := FormatCard(ErrorCard(errors.New("boom")))
	if !strings.HasPrefix(failed, "❌") || !strings.Contains(failed, "boom") {
		t.Fatalf("failed format: %s", failed)
	}
}
