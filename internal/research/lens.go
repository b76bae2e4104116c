package research

import (
	"sort"
	"strings"

	"linketron/internal/config"
)

const CustomLensKey = "lens_custom"

// Lens scopes a research query to one topic category.
type Lens struct {
	Key     string
	Name    string
	Context string
}

var builtinLenses = []Lens{
	{Key: "lens_principle", Name: "Timeless Principle", Context: "timeless mental models, cognitive biases, or psychological frameworks in business"},
	{Key: "lens_case_study", Name: "Case Study", Context: "specific company case studies (wins or failures) from the last two years"},
	{Key: "lens_growth", Name: "Growth Hack", Context: "tactical growth hacking experiments, marketing tools, or viral strategies"},
	{Key: "lens_controversial", Name: "Controversial Ad", Context: "polarizing debates, unpopular opinions, or hot takes in the tech and business world"},
}

// Catalog is the set of selectable lenses, keyed by callback key.
type Catalog struct {
	lenses map[string]Lens
	order  []string
}

// NewCatalog returns the built-in lenses with entries overridden or extended.
func NewCatalog(entries ...config.LensEntry) *Catalog {
	c := &Catalog{lenses: make(map[string]Lens)}
	for _, l := range builtinLenses {
		c.add(l)
	}
	for _, e := range entries {
		if e.Key == CustomLensKey {
			continue
		}
		l := Lens{Key: e.Key, Name: e.Name, Context: e.Context}
		if l.Name == "" {
			l.Name = nameFromKey(e.Key)
		}
		c.add(l)
	}
	return c
}

func (c *Catalog) add(l Lens) {
	if _, ok := c.lenses[l.Key]; !ok {
		c.order = append(c.order, l.Key)
	}
	c.lenses[l.Key] = l
}

// Lookup resolves a lens key. The custom lens carries the user's topic as its context.
func (c *Catalog) Lookup(key, customTopic string) (Lens, bool) {
	if key == CustomLensKey {
		topic := strings.TrimSpace(customTopic)
		if topic == "" {
			return Lens{}, false
		}
		return Lens{Key: CustomLensKey, Name: "Custom Topic", Context: topic}, true
	}
	l, ok := c.lenses[key]
	if !ok {
		return Lens{}, false
	}
	return l, true
}

// List returns the selectable lenses in catalog order, custom lens excluded.
func (c *Catalog) List() []Lens {
	out := make([]Lens, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.lenses[k])
	}
	return out
}

// Keys returns all lens keys sorted, for help output.
func (c *Catalog) Keys() []string {
	keys := append([]string{}, c.order...)
	sort.Strings(keys)
	return keys
}

func nameFromKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(strings.TrimPrefix(key, "lens_"), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
