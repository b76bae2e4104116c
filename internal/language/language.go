// Package language lists the output languages a post can be written in.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Language struct {
	Tag  language.Tag
	Code string
	Name string
}

var (
	English = newLanguage(language.English)
	Russian = newLanguage(language.Russian)

	Default   = English
	Supported = []Language{English, Russian}
)

func newLanguage(tag language.Tag) Language {
	base, _ := tag.Base()
	return Language{Tag: tag, Code: base.String(), Name: display.English.Languages().Name(tag)}
}

// Parse resolves a code ("ru"), a BCP 47 tag ("ru-RU") or an English name ("Russian")
// to a supported language.
func Parse(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Language{}, false
	}
	for _, l := range Supported {
		if strings.EqualFold(s, l.Name) || strings.EqualFold(s, l.Code) {
			return l, true
		}
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Language{}, false
	}
	base, _ := tag.Base()
	for _, l := range Supported {
		if base.String() == l.Code {
			return l, true
		}
	}
	return Language{}, false
}

// OrDefault parses s and falls back to English.
func OrDefault(s string) Language {
	if l, ok := Parse(s); ok {
		return l
	}
	return Default
}

func (l Language) IsRussian() bool { return l.Code == Russian.Code }

func (l Language) String() string { return l.Name }
