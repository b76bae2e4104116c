// Package pipeline runs transcription, drafting and refinement for one request.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"linketron/internal/language"
	"linketron/internal/llm"
	"linketron/internal/logging"
	"linketron/internal/refiner"
	"linketron/internal/research"
	"linketron/internal/writer"
)

var ErrEmptyTranscript = errors.New("transcript is empty")

// Input is one drafting request. Text, when set, is used instead of AudioPath.
// A nil Card selects the freeform story path.
type Input struct {
	UserID    int64
	AudioPath string
	Text      string
	Card      *research.FactCard
	Language  language.Language
}

type Result struct {
	writer.Result
	Transcript string
	// Refined is StatusOK when the refiner changed the draft and StatusFallback
	// when the unrefined draft was kept.
	Refined writer.Status
}

type Pipeline struct {
	transcriber llm.Transcriber
	writer      *writer.Writer
	refiner     *refiner.Refiner
	logger      *zap.Logger
}

func New(t llm.Transcriber, w *writer.Writer, r *refiner.Refiner, logger *zap.Logger) *Pipeline {
	return &Pipeline{transcriber: t, writer: w, refiner: r, logger: logging.OrNop(logger)}
}

// Run never returns an error; a failed Result carries the writer.ErrorTitle sentinel.
func (p *Pipeline) Run(ctx context.Context, in Input) Result {
	log := p.logger.With(logging.UserID(in.UserID))

	transcript, err := p.transcript(ctx, in)
	if err != nil {
		log.Error("transcription failed", logging.Stage("transcribe"), zap.Error(err))
		return Result{Result: writer.Result{
			Post:   writer.Post{Title: writer.ErrorTitle, Text: fmt.Sprintf("Transcription Error: %v", err)},
			Status: writer.StatusFailed,
			Err:    err,
		}}
	}
	log.Info("transcript ready", logging.Stage("transcribe"), zap.Int("chars", len(transcript)))

	var draft writer.Result
	if in.Card != nil {
		draft = p.writer.FromResearch(ctx, *in.Card, transcript, in.Language)
	} else {
		if strings.TrimSpace(transcript) == "" {
			log.Warn("empty transcript for story", logging.Stage("draft"))
			return Result{Transcript: transcript, Result: writer.Result{
				Post:   writer.Post{Title: writer.ErrorTitle, Text: "Writing Error: " + ErrEmptyTranscript.Error()},
				Status: writer.StatusFailed,
				Err:    ErrEmptyTranscript,
			}}
		}
		draft = p.writer.FromStory(ctx, transcript, in.Language)
	}
	out := Result{Result: draft, Transcript: transcript}
	if draft.Failed() {
		log.Warn("draft failed, skipping refinement", logging.Stage("draft"), zap.Error(draft.Err))
		return out
	}
	log.Info("draft ready", logging.Stage("draft"), zap.Stringer("status", draft.Status), zap.String("framework", draft.Framework))

	if p.refiner == nil {
		out.Refined = writer.StatusFallback
		return out
	}
	refined, status := p.refiner.Refine(ctx, draft.Post, in.Language)
	out.Post = refined
	out.Refined = status
	log.Info("refinement done", logging.Stage("refine"), zap.Stringer("status", status))
	return out
}

func (p *Pipeline) transcript(ctx context.Context, in Input) (string, error) {
	if strings.TrimSpace(in.Text) != "" {
		return strings.TrimSpace(in.Text), nil
	}
	if in.AudioPath == "" {
		if in.Card != nil {
			return "", nil
		}
		return "", ErrEmptyTranscript
	}
	if p.transcriber == nil {
		return "", errors.New("transcriber not configured")
	}
	text, err := p.transcriber.Transcribe(ctx, in.AudioPath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
