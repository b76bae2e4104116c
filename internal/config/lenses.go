package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LensEntry is one research lens as written in the lens catalog file.
type LensEntry struct {
	Key     string `toml:"key"`
	Name    string `toml:"name"`
	Context string `toml:"context"`
}

type lensFile struct {
	Lens []LensEntry `toml:"lens"`
}

// LoadLenses reads an optional TOML lens catalog:
//
//	[[lens]]
//	key = "lens_pricing"
//	name = "Pricing"
//	context = "pricing experiments in B2B SaaS"
//
// An empty path yields no entries.
func LoadLenses(path string) ([]LensEntry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lens catalog %s: %w", path, err)
	}
	defer file.Close()

	var lf lensFile
	if err := toml.NewDecoder(file).Decode(&lf); err != nil {
		return nil, fmt.Errorf("decode lens catalog %s: %w", path, err)
	}
	out := make([]LensEntry, 0, len(lf.Lens))
	for i, l := range lf.Lens {
		l.Key = strings.TrimSpace(l.Key)
		if l.Key == "" {
			return nil, fmt.Errorf("lens catalog %s: entry %d has no key", path, i+1)
		}
		if !strings.HasPrefix(l.Key, "lens_") {
			l.Key = "lens_" + l.Key
		}
		out = append(out, l)
	}
	return out, nil
}
