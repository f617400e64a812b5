package taxonomy

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_taxonomy.yaml
var defaultTaxonomyYAML []byte

// Parse decodes and validates a taxonomy from YAML bytes
func Parse(data []byte) (*Taxonomy, error) {
	t := &Taxonomy{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy yaml: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid taxonomy: %w", err)
	}
	return t, nil
}

// Load decodes and validates a taxonomy from a reader
func Load(r io.Reader) (*Taxonomy, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy: %w", err)
	}
	return Parse(data)
}

// LoadFile decodes and validates a taxonomy from a YAML file
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file %q: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded default taxonomy
func Default() (*Taxonomy, error) {
	return Parse(defaultTaxonomyYAML)
}
