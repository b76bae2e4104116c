package research

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

const (
	errorHeadline = "Error"
	errorSubject  = "System Error"
)

// FactCard is the structured research result the draft generator treats as ground truth.
type FactCard struct {
	HeadlineFact   string   `json:"headline_fact"`
	SubjectName    string   `json:"subject_name"`
	OriginStory    string   `json:"origin_story"`
	CoreMechanism  string   `json:"core_mechanism"`
	ViralAngle     string   `json:"viral_angle"`
	ProofPoints    []string `json:"proof_points"`
	ActionableStep string   `json:"actionable_step"`

	MetaLens  string `json:"meta_lens"`
	MetaAngle string `json:"meta_angle"`

	Err string `json:"error,omitempty"`
}

// ErrorCard is the sentinel card returned on any research failure.
func ErrorCard(err error) FactCard {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return FactCard{
		HeadlineFact: errorHeadline,
		SubjectName:  errorSubject,
		OriginStory:  msg,
		ViralAngle:   "N/A",
		Err:          msg,
	}
}

// Failed reports whether the card is the error sentinel.
func (c FactCard) Failed() bool {
	return c.Err != "" || c.HeadlineFact == errorHeadline || c.SubjectName == errorSubject
}

// JSON renders the card for embedding in a prompt.
func (c FactCard) JSON() string {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// UnmarshalJSON tolerates proof points given as a single string.
func (c *FactCard) UnmarshalJSON(data []byte) error {
	type plain FactCard
	var aux struct {
		plain
		ProofPoints json.RawMessage `json:"proof_points"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = FactCard(aux.plain)
	c.ProofPoints = nil
	if len(aux.ProofPoints) == 0 || string(aux.ProofPoints) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(aux.ProofPoints, &list); err == nil {
		c.ProofPoints = list
		return nil
	}
	var one string
	if err := json.Unmarshal(aux.ProofPoints, &one); err == nil && one != "" {
		c.ProofPoints = []string{one}
	}
	return nil
}

// FormatCard renders the HTML briefing shown to the user: only the spark and the
// angle, enough to provoke a reaction.
func FormatCard(c FactCard) string {
	if c.Failed() {
		return "❌ <b>Search Failed:</b> " + html.EscapeString(c.OriginStory)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🕵️ <b>Briefing: %s</b>\n", esc(c.MetaLens, "Topic"))
	fmt.Fprintf(&b, "📐 <i>Angle: %s</i>\n\n", esc(c.MetaAngle, "N/A"))
	fmt.Fprintf(&b, "🔥 <b>%s</b>\n\n", esc(c.SubjectName, "Topic Found"))
	fmt.Fprintf(&b, "📊 <b>The Spark:</b> %s\n", esc(c.HeadlineFact, "Data not found"))
	fmt.Fprintf(&b, "⚔️ <b>The Angle:</b> %s\n\n", esc(c.ViralAngle, "No conflict found"))
	b.WriteString("👇 <b>What is your take?</b>\nRecord a voice note. Do you agree, or is this nonsense?")
	return b.String()
}

func esc(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return html.EscapeString(s)
}
