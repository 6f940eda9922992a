package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type profileFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadFile reads behavior profiles from a YAML document of the form
//
//	personas:
//	  - id: tj
//	    name: TJ
//	    instruction: ...
func LoadFile(path string) ([]Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML profile document.
func Parse(data []byte) ([]Persona, error) {
	var doc profileFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse persona file: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Personas))
	for i := range doc.Personas {
		p := &doc.Personas[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" {
			return nil, fmt.Errorf("persona #%d: id is required", i+1)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("persona %q: name is required", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("persona %q: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return doc.Personas, nil
}
