package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meditriage/triage-core/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// LoadVignettes reads a supplemental vignette set from a JSON or YAML file,
// selected by extension.
func LoadVignettes(path string) ([]entities.BenchmarkVignette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vignette file: %w", err)
	}

	var vignettes []entities.BenchmarkVignette
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &vignettes); err != nil {
			return nil, fmt.Errorf("failed to parse vignette YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &vignettes); err != nil {
			return nil, fmt.Errorf("failed to parse vignette JSON: %w", err)
		}
	}

	return vignettes, nil
}

// ValidateVignettes checks that all vignettes have required fields and valid
// expected values.
func ValidateVignettes(vignettes []entities.BenchmarkVignette) error {
	seen := make(map[string]struct{}, len(vignettes))

	for i, v := range vignettes {
		if v.Name == "" {
			return fmt.Errorf("vignette at index %d: missing name", i)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("vignette at index %d: duplicate name %q", i, v.Name)
		}
		seen[v.Name] = struct{}{}

		if v.Intake.ChiefComplaint == "" {
			return fmt.Errorf("vignette %q: missing chief complaint", v.Name)
		}
		if !v.ExpectedTriage.IsValid() {
			return fmt.Errorf("vignette %q: invalid expected triage %q", v.Name, v.ExpectedTriage)
		}
		for _, cat := range v.ExpectedSafetyCategories {
			if !isKnownCategory(cat) {
				return fmt.Errorf("vignette %q: unknown safety category %q", v.Name, cat)
			}
		}
	}

	return nil
}

func isKnownCategory(cat entities.AlertCategory) bool {
	for _, known := range entities.AlertCategories() {
		if cat == known {
			return true
		}
	}
	return false
}
