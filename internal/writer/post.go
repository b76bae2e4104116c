package writer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrorTitle marks a draft that could not be produced.
const ErrorTitle = "Error"

// Post is the {title, text} object every generation call returns.
type Post struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type Status int

const (
	StatusOK Status = iota
	// StatusFallback means a usable post was produced but a default was
	// substituted along the way (framework, or an unrefined draft).
	StatusFallback
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFallback:
		return "fallback"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is a draft plus how it was obtained.
type Result struct {
	Post      Post
	Status    Status
	Framework string
	Err       error
}

// Failed is the check callers use before any downstream stage.
func (r Result) Failed() bool {
	return r.Status == StatusFailed || r.Post.Title == ErrorTitle
}

func failed(prefix string, err error) Result {
	return Result{
		Post:   Post{Title: ErrorTitle, Text: fmt.Sprintf("%s: %v", prefix, err)},
		Status: StatusFailed,
		Err:    err,
	}
}

var ErrEmptyPost = errors.New("model returned a post without text")

// ParsePost decodes a model reply: optional ``` fences are stripped and a JSON
// list yields its first element.
func ParsePost(raw string) (Post, error) {
	s := StripFences(raw)
	if s == "" {
		return Post{}, errors.New("empty model reply")
	}
	var p Post
	if strings.HasPrefix(s, "[") {
		var list []Post
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return Post{}, fmt.Errorf("decode post list: %w", err)
		}
		if len(list) == 0 {
			return Post{}, errors.New("model returned an empty list")
		}
		p = list[0]
	} else if err := json.Unmarshal([]byte(s), &p); err != nil {
		return Post{}, fmt.Errorf("decode post: %w", err)
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Text = strings.TrimSpace(p.Text)
	if p.Text == "" {
		return Post{}, ErrEmptyPost
	}
	return p, nil
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimLeftFunc(s, unicode.IsLetter)
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
