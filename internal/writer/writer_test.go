package writer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"linketron/internal/language"
	"linketron/internal/llm"
	"linketron/internal/research"
)

type scriptedLLM struct {
	replies []string
	errs    []error
	prompts []string
}

func (s *scriptedLLM) Generate(_ context.Context, msgs []llm.Message) (llm.Response, error) {
	s.prompts = append(s.prompts, msgs[len(msgs)-1].Content)
	i := len(s.prompts) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return llm.Response{}, s.errs[i]
	}
	if i < len(s.replies) {
		return llm.Response{Content: s.replies[i]}, nil
	}
	return llm.Response{}, nil
}

func TestFromStory_Classified(t *testing.T) {
	c := &scriptedLLM{replies: []string{
		`{"framework": "The Contrarian / Hot Take Post"}`,
		"```json\n{\"title\": \"Fire the specialist\", \"text\": \"Stop hiring AI specialists.\"}\n```",
	}}
	res := New(c, nil).FromStory(context.Background(), "hot take about hiring", language.Russian)
	if res.Failed() || res.Status != StatusOK {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Post.Title != "[The Contrarian / Hot Take Post] Fire the specialist" {
		t.Fatalf("title = %q", res.Post.Title)
	}
	if !strings.Contains(c.prompts[1], "Russian") || !strings.Contains(c.prompts[1], "hot take about hiring") {
		t.Fatalf("draft prompt missing language or transcript")
	}
	if !strings.Contains(c.prompts[1], Contrarian.Role) {
		t.Fatalf("draft prompt does not use the chosen framework")
	}
}

func TestFromStory_ClassificationFallback(t *testing.T) {
	c := &scriptedLLM{
		errs:    []error{errors.New("timeout")},
		replies: []string{"", `[{"title": "T", "text": "body"}, {"title": "x", "text": "y"}]`},
	}
	res := New(c, nil).FromStory(context.Background(), "story", language.English)
	if res.Status != StatusFallback || res.Failed() {
		t.Fatalf("status = %v", res.Status)
	}
	if res.Framework != DefaultFramework.Name || !strings.HasPrefix(res.Post.Title, "[The Personal Story Post] T") {
		t.Fatalf("result: %+v", res)
	}
}

func TestFromStory_DraftFailure(t *testing.T) {
	c := &scriptedLLM{replies: []string{`{"framework":"The Question Post"}`, `{"title": "oops"`}}
	res := New(c, nil).FromStory(context.Background(), "story", language.English)
	if !res.Failed() || res.Post.Title != ErrorTitle || res.Err == nil {
		t.Fatalf("expected failed result, got %+v", res)
	}
	if !strings.HasPrefix(res.Post.Text, "Writing Error") {
		t.Fatalf("diagnostic text: %q", res.Post.Text)
	}
}

func TestFromResearch(t *testing.T) {
	c := &scriptedLLM{replies: []string{`{"title":"Hook","text":"Body"}`}}
	card := research.FactCard{HeadlineFact: "5M in 24h", SubjectName: "Acme"}
	res := New(c, nil).FromResearch(context.Background(), card, "  ", language.English)
	if res.Failed() || res.Post.Title != "Hook" {
		t.Fatalf("result: %+v", res)
	}
	p := c.prompts[0]
	if !strings.Contains(p, noReaction) || !strings.Contains(p, `"subject_name": "Acme"`) {
		t.Fatalf("prompt: %s", p)
	}
}

func TestFromResearch_CallError(t *testing.T) {
	c := &scriptedLLM{errs: []error{errors.New("503")}}
	res := New(c, nil).FromResearch(context.Background(), research.FactCard{}, "agree", language.English)
	if !res.Failed() {
		t.Fatalf("expected failure")
	}
}

func TestParsePost(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: `{"title":"a","text":"b"}`, want: "b"},
		{in: "```\n{\"title\":\"a\",\"text\":\"b\"}\n```", want: "b"},
		{in: "```json{\"title\":\"a\",\"text\":\"c\"}```", want: "c"},
		{in: `[{"title":"a","text":"first"}]`, want: "first"},
		{in: `[]`, wantErr: true},
		{in: `{"title":"a","text":"  "}`, wantErr: true},
		{in: `not json`, wantErr: true},
	}
	for _, tc := range cases {
		p, err := ParsePost(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil || p.Text != tc.want {
			t.Fatalf("%q: got %+v, %v", tc.in, p, err)
		}
	}
}

func TestFrameworkByName(t *testing.T) {
	if f, ok := FrameworkByName("the list post (listicle)"); !ok || f.Name != Listicle.Name {
		t.Fatalf("exact match failed")
	}
	if f, ok := FrameworkByName("Behind the scenes"); !ok || f.Name != BehindTheScenes.Name {
		t.Fatalf("keyword match failed")
	}
	if _, ok := FrameworkByName("poem"); ok {
		t.Fatalf("unexpected match")
	}
	if len(Frameworks) != 7 {
		t.Fatalf("frameworks: %d", len(Frameworks))
	}
}

func TestLint(t *testing.T) {
	v := Lint(Post{Title: "Unlock growth", Text: "The result - more sales. It is not about price, but value."})
	rules := map[string]bool{}
	for _, x := range v {
		rules[x.Rule] = true
	}
	for _, r := range []string{"banned_word", "dash_connector", "not_x_but_y"} {
		if !rules[r] {
			t.Fatalf("missing %s in %+v", r, v)
		}
	}
	if v := Lint(Post{Title: "Clean", Text: "A well-known stand-up routine works."}); len(v) != 0 {
		t.Fatalf("false positives: %+v", v)
	}
}
