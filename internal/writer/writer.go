// Package writer turns transcripts and fact cards into LinkedIn post drafts.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"linketron/internal/language"
	"linketron/internal/llm"
	"linketron/internal/logging"
	"linketron/internal/research"
)

const noReaction = "No specific opinion given. Focus on the facts."

const classifyPrompt = `### ROLE
You are a LinkedIn content strategist. You map raw voice transcripts to the single best post framework.

### TASK
Read the transcript and pick ONE framework. Do not rewrite the text.

### FRAMEWORKS
{frameworks}
If several fit, pick the one matching the dominant emotion.

### TRANSCRIPT
"{transcript}"

### OUTPUT FORMAT (JSON ONLY)
{"framework": "The Personal Story Post"}`

const outputFormat = `
### OUTPUT FORMAT (JSON ONLY)
{"title": "a short internal title for this post", "text": "the full LinkedIn post"}`

const researchPrompt = `INPUT RESEARCH DATA (the facts):
{card}

USER REACTION (the angle):
"{reaction}"

INSTRUCTIONS:
1. The research data is the only factual source. Do not invent facts.
2. The user reaction shapes the opinion and the angle.
   If the reaction is empty or generic, lean on the research.
   If the reaction disagrees with the research, write a contrarian post.

ROLE: You write viral LinkedIn posts for marketers, salespeople, founders and brand owners, and you sound human.

EXPECTATIONS:
- Title: one hooking sentence under 80 characters.
- Text: 150 to 200 words in short paragraphs of one or two lines.
- Strong hook, retention and a reward at the end that lands a marketing or sales insight.

STYLE RULES:
{rules}`

// Writer drafts posts with a JSON-mode client.
type Writer struct {
	client llm.Client
	logger *zap.Logger
}

func New(client llm.Client, logger *zap.Logger) *Writer {
	return &Writer{client: client, logger: logging.OrNop(logger)}
}

// Classify picks a framework for a transcript. ok is false when the default was
// substituted because the call or its answer was unusable.
func (w *Writer) Classify(ctx context.Context, transcript string) (Framework, bool) {
	names := make([]string, len(Frameworks))
	for i, f := range Frameworks {
		names[i] = fmt.Sprintf("%d. %s", i+1, f.Name)
	}
	prompt := strings.NewReplacer(
		"{frameworks}", strings.Join(names, "\n"),
		"{transcript}", transcript,
	).Replace(classifyPrompt)

	resp, err := w.client.Generate(ctx, []llm.Message{llm.User(prompt)})
	if err != nil {
		w.logger.Warn("classification failed, using default framework", zap.Error(err))
		return DefaultFramework, false
	}
	var out struct {
		Framework string `json:"framework"`
	}
	if err := json.Unmarshal([]byte(StripFences(resp.Content)), &out); err != nil {
		w.logger.Warn("classification reply not JSON, using default framework", zap.Error(err))
		return DefaultFramework, false
	}
	f, ok := FrameworkByName(out.Framework)
	if !ok {
		w.logger.Warn("unknown framework, using default", zap.String("framework", out.Framework))
		return DefaultFramework, false
	}
	return f, true
}

// FromStory classifies a freeform transcript and writes it up in that framework.
// The title is prefixed with the framework name.
func (w *Writer) FromStory(ctx context.Context, transcript string, lang language.Language) Result {
	f, classified := w.Classify(ctx, transcript)

	prompt := f.prompt() + "\n### INPUT\nUser transcript:\n" + transcript + "\n" + languageRule(lang) + outputFormat
	post, err := w.generate(ctx, prompt)
	if err != nil {
		w.logger.Error("story draft failed", zap.String("framework", f.Name), zap.Error(err))
		r := failed("Writing Error", err)
		r.Framework = f.Name
		return r
	}
	title := post.Title
	if title == "" {
		title = "Draft"
	}
	post.Title = fmt.Sprintf("[%s] %s", f.Name, title)

	status := StatusOK
	if !classified {
		status = StatusFallback
	}
	w.lint(post)
	return Result{Post: post, Status: status, Framework: f.Name}
}

// FromResearch combines a fact card with the user's reaction.
func (w *Writer) FromResearch(ctx context.Context, card research.FactCard, reaction string, lang language.Language) Result {
	if strings.TrimSpace(reaction) == "" {
		reaction = noReaction
	}
	prompt := strings.NewReplacer(
		"{card}", card.JSON(),
		"{reaction}", reaction,
		"{rules}", numbered(sharedRules),
	).Replace(researchPrompt) + "\n" + languageRule(lang) + outputFormat

	post, err := w.generate(ctx, prompt)
	if err != nil {
		w.logger.Error("research draft failed", zap.String("subject", card.SubjectName), zap.Error(err))
		return failed("Writing Error", err)
	}
	w.lint(post)
	return Result{Post: post, Status: StatusOK}
}

func (w *Writer) generate(ctx context.Context, prompt string) (Post, error) {
	resp, err := w.client.Generate(ctx, []llm.Message{llm.User(prompt)})
	if err != nil {
		return Post{}, err
	}
	return ParsePost(resp.Content)
}

func (w *Writer) lint(p Post) {
	if v := Lint(p); len(v) > 0 {
		fields := make([]string, len(v))
		for i, x := range v {
			fields[i] = x.Rule + ":" + x.Match
		}
		w.logger.Info("draft style findings", zap.Strings("violations", fields))
	}
}

func languageRule(lang language.Language) string {
	return fmt.Sprintf("\n### LANGUAGE\nYou MUST write the title and the text in %s.\n", lang.Name)
}

func numbered(items []string) string {
	var b strings.Builder
	for i, s := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}
