// Package session keeps the per-chat conversation state and its scratch files.
package session

import (
	"time"

	"linketron/internal/language"
	"linketron/internal/research"
	"linketron/internal/writer"
)

type State string

const (
	StateIdle                 State = "idle"
	StateChoosingLanguage     State = "choosing_language"
	StateAwaitingVoice        State = "awaiting_voice"
	StateAwaitingReaction     State = "awaiting_reaction"
	StateAwaitingCustomTopic  State = "awaiting_custom_topic"
	StateAwaitingVisualChoice State = "awaiting_visual_choice"
	StateAwaitingUpload       State = "awaiting_upload"
	StateAwaitingAuthCode     State = "awaiting_auth_code"
)

type Mode string

const (
	ModeNone     Mode = ""
	ModeStory    Mode = "story"
	ModeResearch Mode = "research"
)

// Session is one chat's position in the flow. There is at most one live draft.
type Session struct {
	State     State
	Mode      Mode
	Language  language.Language
	Lens      string
	Card      *research.FactCard
	Draft     *writer.Post
	ImagePath string
	ImageNote string
	AuthState string
	UpdatedAt time.Time
}

// AcceptsVoice reports whether a voice note would be processed now.
func (s Session) AcceptsVoice() bool {
	return s.State == StateAwaitingVoice || s.State == StateAwaitingReaction
}

// HasDraft is the precondition for publishing.
func (s Session) HasDraft() bool {
	return s.Draft != nil && s.Draft.Text != ""
}

// ClearDraft drops the draft and its image, keeping mode and language.
func (s *Session) ClearDraft() {
	s.Draft = nil
	s.ImagePath = ""
	s.ImageNote = ""
}

func (s Session) clone() Session {
	out := s
	if s.Card != nil {
		c := *s.Card
		c.ProofPoints = append([]string(nil), s.Card.ProofPoints...)
		out.Card = &c
	}
	if s.Draft != nil {
		d := *s.Draft
		out.Draft = &d
	}
	return out
}
