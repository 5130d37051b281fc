package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords are the tunable rule tables: substitute suggestions for the
// reflection fallback and extra filter keywords for the complexity
// classifier. Both extend the built-in defaults rather than replacing them.
type Keywords struct {
	Suggestions    map[string][]string `yaml:"suggestions"`
	FilterKeywords []string            `yaml:"filter_keywords"`
}

// LoadKeywords parses the YAML keyword tables at path. A missing path is not
// an error; the built-in defaults apply.
func LoadKeywords(path string) (*Keywords, error) {
	if path == "" {
		return &Keywords{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return nil, fmt.Errorf("parse keywords file: %w", err)
	}
	return &kw, nil
}
