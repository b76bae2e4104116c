package llm

import (
	"testing"

	"linketron/internal/config"
)

func TestFactory_Text(t *testing.T) {
	f := NewFactory(&config.Config{LLMProvider: config.ProviderOpenAI, WriterModel: "w", FastModel: "f"})

	w, err := f.Writer()
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	oc, ok := w.(*OpenAIClient)
	if !ok || !oc.jsonMode || oc.model != "w" {
		t.Fatalf("writer client misconfigured: %+v", w)
	}

	fast, err := f.Fast()
	if err != nil {
		t.Fatalf("fast: %v", err)
	}
	if fc := fast.(*OpenAIClient); fc.jsonMode || fc.model != "f" {
		t.Fatalf("fast client misconfigured: %+v", fc)
	}
}

func TestFactory_UnknownProvider(t *testing.T) {
	f := NewFactory(&config.Config{LLMProvider: "mystery"})
	if _, err := f.Writer(); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestFactory_SearchTemperature(t *testing.T) {
	f := NewFactory(&config.Config{ResearchModel: "sonar-pro"})
	c := f.Search().(*OpenAIClient)
	if c.temperature != 0.2 || c.model != "sonar-pro" {
		t.Fatalf("search client misconfigured: %+v", c)
	}
}
