package writer

import (
	"regexp"
	"strings"
)

// BannedWords are phrases the prompts forbid.
var BannedWords = []string{
	"unlock", "unleash", "elevate", "delve", "game-changer", "game changer",
	"in today's landscape", "foster", "harness", "thrilled", "humbled", "tapestry",
}

var sharedRules = []string{
	"No \"not X, but Y\" constructions. State the point directly.",
	"No dashes used as connectors between thoughts. Use a verb instead.",
	"No \"Label: explanation\" bullets.",
	"Banned vocabulary: " + strings.Join(BannedWords, ", ") + ".",
	"No preachy outros such as \"Remember,\" or \"In conclusion,\". End on the punchline or a question.",
}

type Violation struct {
	Rule  string
	Match string
}

var (
	dashConnector = regexp.MustCompile(`\S\s+[-–—]\s+\S|\S[—–]\S`)
	notButEN      = regexp.MustCompile(`(?i)\b(?:not|isn't|aren't|wasn't)\b[^.!?\n]{1,80}?,?\s+but\b`)
	notButRU      = regexp.MustCompile(`(?i)(?:^|\s)не\s[^.!?\n]{1,80}?,\s+а\s`)
)

// Lint reports style violations in a post. It is advisory: the pipeline logs
// findings but never rejects a draft because of them.
func Lint(p Post) []Violation {
	text := p.Title + "\n" + p.Text
	lower := strings.ToLower(text)

	var out []Violation
	for _, w := range BannedWords {
		if strings.Contains(lower, w) {
			out = append(out, Violation{Rule: "banned_word", Match: w})
		}
	}
	for _, m := range dashConnector.FindAllString(text, -1) {
		out = append(out, Violation{Rule: "dash_connector", Match: m})
	}
	for _, re := range []*regexp.Regexp{notButEN, notButRU} {
		for _, m := range re.FindAllString(text, -1) {
			out = append(out, Violation{Rule: "not_x_but_y", Match: strings.TrimSpace(m)})
		}
	}
	return out
}
