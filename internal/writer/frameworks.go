package writer

import (
	"strconv"
	"strings"
)

// Framework is one of the fixed rhetorical templates for freeform voice notes.
type Framework struct {
	Name        string
	Role        string
	Objective   string
	Structure   []string
	Constraints []string
}

var (
	PersonalStory = Framework{
		Name:      "The Personal Story Post",
		Role:      "You are a senior executive ghostwriter. You write dense, professional reflections that read like hard-earned wisdom shared by a practitioner.",
		Objective: "Extract the core narrative of the transcript and rewrite it as a mature story with depth and substantial prose.",
		Structure: []string{
			"THE HOOK: an opening paragraph that sets the scene or states the conflict immediately.",
			"THE NARRATIVE: two or three substantial paragraphs about the struggle, the process and the specific details.",
			"THE INSIGHT: a closing paragraph that lifts the story into a broader business or life lesson.",
		},
		Constraints: []string{
			"Write full paragraphs of three to six sentences. No one-line paragraphs.",
			"Mix short statements with longer thoughts so it sounds spoken.",
			"The output length follows the amount of detail in the transcript.",
		},
	}
	Listicle = Framework{
		Name:      "The List Post (Listicle)",
		Role:      "You are a curator and strategist who distills messy transcripts into scannable, useful list posts.",
		Objective: "Organise the transcript into a numbered list where each point is backed by a real paragraph of context.",
		Structure: []string{
			"THE QUANTIFIED HOOK: an opening line that promises specific value.",
			"THE LIST: three to five points, each with a bold header and an explanatory paragraph.",
			"THE CONTEXT: why the list matters in the current market.",
			"THE HANDOFF: ask readers for their own perspective.",
		},
		Constraints: []string{
			"Every item gets two to four sentences of context.",
			"Imperative verbs for headers, professional prose for the body.",
			"Prefer operational depth over generic advice.",
		},
	}
	Question = Framework{
		Name:      "The Question Post",
		Role:      "You are a community builder who turns an opinion into a discussion that invites expert comments.",
		Objective: "Restructure the observation as a thoughtful provocation so peers feel compelled to answer.",
		Structure: []string{
			"THE PROVOCATION: an open question or a contestable statement about the industry.",
			"THE CONTEXT: two or three dense paragraphs with the author's reasoning, leaving room for debate.",
			"THE INVITATION: ask for specific experience or a counter-argument.",
		},
		Constraints: []string{
			"No yes/no questions.",
			"A peer-to-peer professional tone without social media tropes.",
		},
	}
	IndustryInsight = Framework{
		Name:      "The Industry Insight Post",
		Role:      "You are a senior market analyst delivering signal over noise for tech and B2B readers.",
		Objective: "Turn a raw observation into an authoritative analysis with a prediction.",
		Structure: []string{
			"THE TRIGGER: a recent market event or a common belief.",
			"THE NOISE: what most people currently get wrong.",
			"THE ANALYSIS: two or three dense paragraphs of original insight.",
			"THE PREDICTION: one strong forward-looking sentence.",
		},
		Constraints: []string{
			"State findings as facts. No \"I think\" or \"in my opinion\".",
			"Ground the insight in concrete market and regional detail from the transcript.",
		},
	}
	Milestone = Framework{
		Name:      "The Achievement / Milestone Post",
		Role:      "You are a PR strategist who turns wins into milestones that build trust.",
		Objective: "Rewrite the win around the effort, the team and the mission without bragging.",
		Structure: []string{
			"THE ANTI-CLIMAX HOOK: the doubt or difficulty that came before the win.",
			"THE RESULT: the achievement stated plainly.",
			"THE GRIND: one or two paragraphs on the actual work and the pivots it required.",
			"THE NEXT STEP: the ongoing mission.",
		},
		Constraints: []string{
			"No \"thrilled\", \"humbled\" or \"honored\".",
			"Use specific numbers and operational details.",
		},
	}
	BehindTheScenes = Framework{
		Name:      "The Behind-the-Scenes Post",
		Role:      "You are a documentary ghostwriter showing the messy middle of business.",
		Objective: "Turn a transcript about a process or a mistake into a post about how the work really happens.",
		Structure: []string{
			"THE REALITY CHECK: contrast the polished image with the messy reality.",
			"THE PROCESS: two or three paragraphs about the unglamorous work.",
			"THE INSIGHT: why this struggle matters for the product or the culture.",
			"THE INVITATION: ask readers about their own unseen work.",
		},
		Constraints: []string{
			"Keep the mistakes and chaotic moments.",
			"Describe the scene concretely.",
		},
	}
	Contrarian = Framework{
		Name:      "The Contrarian / Hot Take Post",
		Role:      "You are a professional debater turning unpopular opinions into persuasive arguments.",
		Objective: "Refine the hot take into a reasoned attack on the prevailing view with a better alternative.",
		Structure: []string{
			"THE ATTACK: state that a common belief is wrong.",
			"THE LOGIC: two or three dense paragraphs on why it is outdated.",
			"THE NEW TRUTH: the alternative.",
			"THE CHALLENGE: dare the reader to defend the old way.",
		},
		Constraints: []string{
			"No hedging. No \"maybe\" or \"in some cases\".",
			"Back the stance with the author's own experience from the transcript.",
		},
	}
)

// Frameworks lists every framework in classification order.
var Frameworks = []Framework{PersonalStory, Listicle, Question, IndustryInsight, Milestone, BehindTheScenes, Contrarian}

// DefaultFramework is used whenever classification cannot decide.
var DefaultFramework = PersonalStory

// FrameworkByName matches a classifier answer to a framework. Exact names win;
// otherwise a unique distinctive keyword is accepted.
func FrameworkByName(name string) (Framework, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return Framework{}, false
	}
	for _, f := range Frameworks {
		if strings.ToLower(f.Name) == n {
			return f, true
		}
	}
	keywords := map[string]Framework{
		"personal":    PersonalStory,
		"list":        Listicle,
		"question":    Question,
		"insight":     IndustryInsight,
		"milestone":   Milestone,
		"achievement": Milestone,
		"behind":      BehindTheScenes,
		"contrarian":  Contrarian,
		"hot take":    Contrarian,
	}
	var found []Framework
	for kw, f := range keywords {
		if strings.Contains(n, kw) && !containsFramework(found, f) {
			found = append(found, f)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return Framework{}, false
}

func containsFramework(list []Framework, f Framework) bool {
	for _, x := range list {
		if x.Name == f.Name {
			return true
		}
	}
	return false
}

func (f Framework) prompt() string {
	var b strings.Builder
	b.WriteString("### ROLE\n")
	b.WriteString(f.Role)
	b.WriteString("\n\n### OBJECTIVE\n")
	b.WriteString(f.Objective)
	b.WriteString("\n\n### STRUCTURE\n")
	for i, s := range f.Structure {
		b.WriteString(strconv.Itoa(i+1) + ". " + s + "\n")
	}
	b.WriteString("\n### CONSTRAINTS\n")
	for i, s := range append(append([]string{}, f.Constraints...), sharedRules...) {
		b.WriteString(strconv.Itoa(i+1) + ". " + s + "\n")
	}
	return b.String()
}
