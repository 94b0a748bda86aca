package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/predictval/predictval/pkg/prefilter"
)

// prefilterFile mirrors prefilter.Config's YAML shape, letting the
// keyword list and thresholds from spec.md §4.1/§4.2 be tuned without a
// rebuild.
type prefilterFile struct {
	FilterValidationConfidenceMin *float64 `yaml:"filter_validation_confidence_min"`
	PredictionQualityMin          *float64 `yaml:"prediction_quality_min"`
	LLMConfidenceMin              *float64 `yaml:"llm_confidence_min"`
	VaguenessMax                  *float64 `yaml:"vagueness_max"`
	Keywords                      []string `yaml:"keywords"`
}

// LoadPrefilterConfig loads the Pre-Filter's thresholds and keyword list
// from a YAML file at path, expanding ${VAR} references via ExpandEnv.
// An absent path falls back to prefilter.DefaultConfig() untouched,
// matching pkg/database/config.go's getEnvOrDefault fallback shape.
func LoadPrefilterConfig(path string) (prefilter.Config, error) {
	cfg := prefilter.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return prefilter.Config{}, fmt.Errorf("read prefilter config %s: %w", path, err)
	}

	var f prefilterFile
	if err := yaml.Unmarshal(ExpandEnv(data), &f); err != nil {
		return prefilter.Config{}, fmt.Errorf("parse prefilter config %s: %w", path, err)
	}

	if f.FilterValidationConfidenceMin != nil {
		cfg.FilterValidationConfidenceMin = *f.FilterValidationConfidenceMin
	}
	if f.PredictionQualityMin != nil {
		cfg.PredictionQualityMin = *f.PredictionQualityMin
	}
	if f.LLMConfidenceMin != nil {
		cfg.LLMConfidenceMin = *f.LLMConfidenceMin
	}
	if f.VaguenessMax != nil {
		cfg.VaguenessMax = *f.VaguenessMax
	}
	if len(f.Keywords) > 0 {
		cfg.Keywords = f.Keywords
	}

	return cfg, nil
}
