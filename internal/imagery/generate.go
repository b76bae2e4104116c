package imagery

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"linketron/internal/llm"
	"linketron/internal/logging"
)

const directorInputLimit = 1000

const directorPrompt = `ROLE: You are a lead 3D set designer.
TASK: Read the input post and describe a SINGLE tangible physical object that represents its core theme.

INPUT POST:
%s

RULES:
1. Concrete objects only, no abstract shapes.
2. No text in the image.
3. Do not describe colors; the style guide handles them.
4. Output just the object description, e.g. "A chess king".`

const artistPrompt = `Generate an image of %s.

STYLE GUIDE:
Corporate tech graphic design. Ultra-clean flat vector render.
COLOR PALETTE: strictly three colors: deep black (#000000), vibrant neon red (#FF0000) and pure white (#FFFFFF).
BACKGROUND: deep matte black with a very faint technical grid pattern.
COMPOSITION: high contrast, sleek, minimalist. No text.`

// GenResult carries either the saved image path or the reason there is none.
type GenResult struct {
	Path    string
	Subject string
	Reason  string
}

func (r GenResult) OK() bool { return r.Path != "" }

// Generator is the director/artist pair: a text model picks the object, an
// image model renders it in the house style.
type Generator struct {
	director llm.Client
	artist   llm.ImageGenerator
	logger   *zap.Logger
}

func NewGenerator(director llm.Client, artist llm.ImageGenerator, logger *zap.Logger) *Generator {
	return &Generator{director: director, artist: artist, logger: logging.OrNop(logger)}
}

// Generate renders an image for postText and saves it to dest, which callers
// scope per chat.
func (g *Generator) Generate(ctx context.Context, postText, dest string) GenResult {
	if g.director == nil || g.artist == nil {
		return GenResult{Reason: "image generation is not configured"}
	}
	resp, err := g.director.Generate(ctx, []llm.Message{llm.User(fmt.Sprintf(directorPrompt, truncate(postText, directorInputLimit)))})
	if err != nil {
		g.logger.Warn("director failed", zap.Error(err))
		return GenResult{Reason: err.Error()}
	}
	subject := strings.Trim(strings.TrimSpace(resp.Content), `"`)
	if subject == "" {
		return GenResult{Reason: "director returned no subject"}
	}
	g.logger.Info("director selected subject", zap.String("subject", subject))

	data, err := g.artist.GenerateImage(ctx, fmt.Sprintf(artistPrompt, subject))
	if err != nil {
		g.logger.Warn("artist failed", zap.String("subject", subject), zap.Error(err))
		return GenResult{Subject: subject, Reason: err.Error()}
	}
	if len(data) == 0 {
		return GenResult{Subject: subject, Reason: "Model refused to generate image."}
	}
	if err := writeFile(dest, data); err != nil {
		return GenResult{Subject: subject, Reason: fmt.Sprintf("save image: %v", err)}
	}
	return GenResult{Path: dest, Subject: subject}
}
