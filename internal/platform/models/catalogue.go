package models

import (
	"errors"
	"fmt"
	"os"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"gopkg.in/yaml.v3"
)

// Model describes one entry of the model catalogue.
type Model struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Weights string `yaml:"weights"`
	Enabled bool   `yaml:"enabled"`
}

// Catalogue maps each analysis model key to its settings.
type Catalogue struct {
	Models map[string]Model `yaml:"models"`
}

// Catalogue keys, one per analysis type.
const (
	KeyPathologyReport = "pathology_report"
	KeyGlomeruliCount  = "glomeruli_count"
	KeyNucleiCount     = "nuclei_count"
)

// catalogueKey maps an analysis type to its catalogue key.
func catalogueKey(t domain.AnalysisType) string {
	switch t {
	case domain.AnalysisTypeReport:
		return KeyPathologyReport
	case domain.AnalysisTypeGlomeruliCount:
		return KeyGlomeruliCount
	case domain.AnalysisTypeNucleiCount:
		return KeyNucleiCount
	default:
		return string(t)
	}
}

// DefaultCatalogue returns the built-in catalogue with every model enabled.
func DefaultCatalogue() *Catalogue {
	return &Catalogue{Models: map[string]Model{
		KeyPathologyReport: {Name: "renal-pathology-report", Version: "placeholder", Enabled: true},
		KeyGlomeruliCount:  {Name: "glomeruli-counter", Version: "placeholder", Enabled: true},
		KeyNucleiCount:     {Name: "nuclei-counter", Version: "placeholder", Enabled: true},
	}}
}

// LoadCatalogue reads the YAML catalogue at path. A missing file yields
// DefaultCatalogue. Keys absent from the file keep their defaults.
func LoadCatalogue(path string) (*Catalogue, error) {
	cat := DefaultCatalogue()
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cat, nil
		}
		return nil, fmt.Errorf("read model catalogue: %w", err)
	}

	var fromFile Catalogue
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parse model catalogue: %w", err)
	}

	for key, m := range fromFile.Models {
		cat.Models[key] = m
	}
	return cat, nil
}

// Enabled reports whether the model serving t is enabled.
func (c *Catalogue) Enabled(t domain.AnalysisType) bool {
	m, ok := c.Models[catalogueKey(t)]
	return ok && m.Enabled
}
