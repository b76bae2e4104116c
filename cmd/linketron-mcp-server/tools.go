package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"linketron/internal/app"
	"linketron/internal/language"
	"linketron/internal/logging"
	"linketron/internal/pipeline"
	"linketron/internal/refiner"
	"linketron/internal/research"
	"linketron/internal/writer"
)

// ResearchParams параметры для поиска фактов
type ResearchParams struct {
	Lens  string `json:"lens" mcp:"lens key, e.g. lens_growth; use lens_custom together with topic"`
	Topic string `json:"topic,omitempty" mcp:"free-form topic for the custom lens"`
}

// DraftParams параметры для черновика поста
type DraftParams struct {
	Text     string             `json:"text" mcp:"the author's story, or their reaction when a fact card is given"`
	Card     *research.FactCard `json:"card,omitempty" mcp:"fact card returned by research_topic"`
	Language string             `json:"language,omitempty" mcp:"output language: en or ru (default: en)"`
}

// RefineParams параметры для редактуры
type RefineParams struct {
	Title    string `json:"title" mcp:"post title"`
	Text     string `json:"text" mcp:"post body"`
	Language string `json:"language,omitempty" mcp:"output language: en or ru (default: en)"`
}

var toolNames = []string{"list_lenses", "research_topic", "draft_post", "refine_post"}

// ContentTools exposes the research and writing stages as MCP tools.
type ContentTools struct {
	catalog    *research.Catalog
	researcher *research.Researcher
	pipeline   *pipeline.Pipeline
	refiner    *refiner.Refiner
	timeout    time.Duration
	logger     *zap.Logger
}

func NewContentTools(c *app.Components, timeout time.Duration, logger *zap.Logger) *ContentTools {
	return &ContentTools{
		catalog:    c.Catalog,
		researcher: c.Researcher,
		pipeline:   c.Pipeline,
		refiner:    c.Refiner,
		timeout:    timeout,
		logger:     logging.OrNop(logger),
	}
}

func (t *ContentTools) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_lenses",
		Description: "Lists the research lenses available to research_topic",
	}, t.ListLenses)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "research_topic",
		Description: "Finds one verifiable business fact for a lens and returns it as a JSON fact card",
	}, t.ResearchTopic)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_post",
		Description: "Writes and refines a LinkedIn post from a story, or from a fact card plus the author's reaction",
	}, t.DraftPost)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refine_post",
		Description: "Edits an existing LinkedIn post for rhythm and clarity",
	}, t.RefinePost)
}

func (t *ContentTools) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.timeout)
}

func (t *ContentTools) ListLenses(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[struct{}]) (*mcp.CallToolResultFor[any], error) {
	var b strings.Builder
	b.WriteString("Available lenses:")
	for _, l := range t.catalog.List() {
		fmt.Fprintf(&b, "\n- %s: %s", l.Key, l.Name)
	}
	fmt.Fprintf(&b, "\n- %s: any topic you pass in `topic`", research.CustomLensKey)
	return textResult(b.String(), false), nil
}

func (t *ContentTools) ResearchTopic(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ResearchParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if _, ok := t.catalog.Lookup(args.Lens, args.Topic); !ok {
		if args.Lens == research.CustomLensKey {
			return textResult("❌ topic is required for lens_custom", true), nil
		}
		return textResult(fmt.Sprintf("❌ unknown lens %q, call list_lenses first", args.Lens), true), nil
	}

	t.logger.Info("research requested", zap.String("lens", args.Lens))
	rctx, cancel := t.withTimeout(ctx)
	defer cancel()
	card := t.researcher.Research(rctx, args.Lens, args.Topic)
	if card.Failed() {
		return textResult("❌ Search failed: "+card.OriginStory, true), nil
	}
	return textResult(card.JSON(), false), nil
}

func (t *ContentTools) DraftPost(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[DraftParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if strings.TrimSpace(args.Text) == "" {
		return textResult("❌ text is required", true), nil
	}
	if args.Card != nil && args.Card.Failed() {
		return textResult("❌ the fact card is an error card, run research_topic again", true), nil
	}

	rctx, cancel := t.withTimeout(ctx)
	defer cancel()
	res := t.pipeline.Run(rctx, pipeline.Input{
		Text:     args.Text,
		Card:     args.Card,
		Language: language.OrDefault(args.Language),
	})
	if res.Failed() {
		t.logger.Warn("draft failed", zap.Error(res.Err))
		return textResult("❌ Writer Error: "+res.Post.Text, true), nil
	}
	return textResult(formatPost(res.Post, res.Framework), false), nil
}

func (t *ContentTools) RefinePost(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[RefineParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if strings.TrimSpace(args.Text) == "" {
		return textResult("❌ text is required", true), nil
	}

	rctx, cancel := t.withTimeout(ctx)
	defer cancel()
	post, status := t.refiner.Refine(rctx, writer.Post{Title: args.Title, Text: args.Text}, language.OrDefault(args.Language))
	out := formatPost(post, "")
	if status != writer.StatusOK {
		out += "\n\n(refinement failed, returning the original)"
	}
	return textResult(out, false), nil
}

func formatPost(p writer.Post, framework string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s", p.Title, p.Text)
	if framework != "" {
		fmt.Fprintf(&b, "\n\nStrategy: %s", framework)
	}
	return b.String()
}

func textResult(text string, isError bool) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: isError,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
