// Package research finds one concrete, surprising fact for a chosen lens and
// returns it as a FactCard.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"linketron/internal/llm"
	"linketron/internal/logging"
)

const (
	fallbackAngle  = "focus on recent trends"
	searchSystem   = "You are a helpful research assistant. You answer ONLY in valid JSON format."
	defaultContext = "business trends"
)

const researchPrompt = `ROLE: You are an investigative data journalist.

ASSIGNED LENS: {lens_name}
CONTEXT: {lens_context}

TASK:
Find one specific, concrete example. No generic advice.
Name a real entity: a specific ad, person, company or experiment.

OUTPUT FORMAT (JSON ONLY):
{
  "headline_fact": "the single most surprising number or result",
  "subject_name": "the specific name of the book, person or campaign",
  "origin_story": "where this came from",
  "core_mechanism": "why it works, technically",
  "viral_angle": "the counter-intuitive tension in it",
  "proof_points": ["stat", "stat", "quote"],
  "actionable_step": "one concrete step for founders"
}`

// Researcher runs the two-step lookup: an angle from the fast model, then a
// web-grounded search constrained to that angle.
type Researcher struct {
	catalog *Catalog
	fast    llm.Client
	search  llm.Client
	logger  *zap.Logger
}

func New(catalog *Catalog, fast, search llm.Client, logger *zap.Logger) *Researcher {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Researcher{catalog: catalog, fast: fast, search: search, logger: logging.OrNop(logger)}
}

func (r *Researcher) Catalog() *Catalog { return r.catalog }

// Research never returns an error; failures come back as ErrorCard.
func (r *Researcher) Research(ctx context.Context, lensKey, customTopic string) FactCard {
	lens, ok := r.catalog.Lookup(lensKey, customTopic)
	if !ok {
		// Unknown keys still search, under a generic context.
		lens = Lens{Key: lensKey, Name: nameFromKey(lensKey), Context: defaultContext}
	}

	angle := r.angle(ctx, lens.Context)
	card, err := r.lookup(ctx, lens, angle)
	if err != nil {
		r.logger.Warn("research failed", zap.String("lens", lens.Key), zap.Error(err))
		return ErrorCard(err)
	}
	card.MetaLens = lens.Name
	card.MetaAngle = angle
	r.logger.Info("research done", zap.String("lens", lens.Key), zap.String("subject", card.SubjectName))
	return card
}

func (r *Researcher) angle(ctx context.Context, topic string) string {
	if r.fast == nil {
		return fallbackAngle
	}
	prompt := fmt.Sprintf("Give me a specific, unique, non-obvious search angle for: '%s'. Output just the angle phrase.", topic)
	resp, err := r.fast.Generate(ctx, []llm.Message{llm.User(prompt)})
	if err != nil {
		r.logger.Debug("angle generation failed", zap.Error(err))
		return fallbackAngle
	}
	angle := strings.TrimSpace(resp.Content)
	if angle == "" {
		return fallbackAngle
	}
	return angle
}

func (r *Researcher) lookup(ctx context.Context, lens Lens, angle string) (FactCard, error) {
	if r.search == nil {
		return FactCard{}, fmt.Errorf("search client not configured")
	}
	prompt := strings.NewReplacer(
		"{lens_name}", lens.Name,
		"{lens_context}", fmt.Sprintf("%s. %s.", lens.Context, strings.TrimSuffix(angle, ".")),
	).Replace(researchPrompt)

	resp, err := r.search.Generate(ctx, []llm.Message{llm.System(searchSystem), llm.User(prompt)})
	if err != nil {
		return FactCard{}, fmt.Errorf("search: %w", err)
	}
	raw, err := ExtractJSONObject(resp.Content)
	if err != nil {
		return FactCard{}, err
	}
	var card FactCard
	if err := json.Unmarshal([]byte(raw), &card); err != nil {
		return FactCard{}, fmt.Errorf("decode fact card: %w", err)
	}
	card.Err = ""
	return card, nil
}
