package gp

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadBundle reads a YAML model bundle and validates it.
func LoadBundle(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Static
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse bundle %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", path, err)
	}
	return &s, nil
}

func SaveBundle(path string, s *Static) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadSamples reads posterior draws stored separately from the model.
func LoadSamples(path string) (Samples, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Samples{}, err
	}
	var s Samples
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Samples{}, fmt.Errorf("parse samples %s: %w", path, err)
	}
	return s, nil
}
