package footprint

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Top-level YAML keys that an overlay file may replace.
const (
	keyFactors     = "factors"
	keyFrequencies = "frequency_multipliers"
	keyDiet        = "diet"
	keyAdvice      = "advice"
	keyBaselines   = "baselines"
	keyWindowDays  = "window_days"
	keyRanking     = "ranking"
)

// Config holds the immutable tables the engine computes with.
type Config struct {
	Factors              []DefaultFactor    `yaml:"factors"`
	FrequencyMultipliers map[string]float64 `yaml:"frequency_multipliers"`
	Diet                 DietConfig         `yaml:"diet"`
	Advice               []AdviceRule       `yaml:"advice"`
	Baselines            Baselines          `yaml:"baselines"`
	WindowDays           int                `yaml:"window_days"`
	Ranking              RankingConfig      `yaml:"ranking"`
}

type DefaultFactor struct {
	Category string  `yaml:"category"`
	Name     string  `yaml:"name"`
	Value    float64 `yaml:"value"`
	Unit     string  `yaml:"unit"`
}

// DietConfig controls the sourcing adjustment applied to diet factors:
// base × (1 − local% × LocalReduction + organic% × OrganicPremium).
type DietConfig struct {
	LocalReduction float64 `yaml:"local_reduction"`
	OrganicPremium float64 `yaml:"organic_premium"`
	WeeksPerYear   float64 `yaml:"weeks_per_year"`
}

type AdviceRule struct {
	Category  string   `yaml:"category"`
	Threshold float64  `yaml:"threshold"`
	Messages  []string `yaml:"messages"`
}

// Baselines are per-person annual reference emissions in kg CO2e.
type Baselines struct {
	National float64 `yaml:"national" json:"national"`
	Global   float64 `yaml:"global" json:"global"`
}

type RankingConfig struct {
	TopCategories   int     `yaml:"top_categories"`
	TipsPerCategory int     `yaml:"tips_per_category"`
	ImpactCap       float64 `yaml:"impact_cap"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		panic(fmt.Sprintf("footprint: invalid embedded defaults: %v", err))
	}
	return &cfg
}

// LoadConfig returns the built-in configuration, overlaid with the file at
// path when path is non-empty.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if err := mergeOverlay(cfg, path); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports configuration that would make results meaningless.
func (c *Config) Validate() error {
	if c.WindowDays <= 0 {
		return errors.New("window_days must be positive")
	}
	if c.Diet.WeeksPerYear <= 0 {
		return errors.New("diet.weeks_per_year must be positive")
	}
	if c.Ranking.TopCategories < 0 || c.Ranking.TipsPerCategory < 0 {
		return errors.New("ranking limits must not be negative")
	}
	if c.Ranking.ImpactCap < 0 || c.Ranking.ImpactCap > 1 {
		return errors.New("ranking.impact_cap must be within [0, 1]")
	}
	for _, f := range c.Factors {
		if f.Name == "" {
			return errors.New("factor with empty name")
		}
		if f.Value < 0 {
			return fmt.Errorf("factor %q has negative value", f.Name)
		}
	}
	return nil
}

// FactorTable returns the default factors keyed by name. Later entries
// with the same name win.
func (c *Config) FactorTable() StaticFactors {
	table := make(StaticFactors, len(c.Factors))
	for _, f := range c.Factors {
		table[f.Name] = f.Value
	}
	return table
}

// Multiplier returns the trips-per-year multiplier for frequency, or 1 when
// the frequency is unknown.
func (c *Config) Multiplier(frequency string) float64 {
	if m, ok := c.FrequencyMultipliers[frequency]; ok {
		return m
	}
	return 1
}

// mergeOverlay replaces each top-level section present in the overlay file.
// Sections absent from the overlay keep their current values.
func mergeOverlay(target *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", path, err)
	}

	var overlay map[string]yaml.Node
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", path, err)
	}

	for key, node := range overlay {
		if err := decodeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// decodeSection decodes node into a fresh value so the section is replaced
// rather than merged into the existing map or slice.
func decodeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyFactors:
		var v []DefaultFactor
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Factors = v
	case keyFrequencies:
		var v map[string]float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.FrequencyMultipliers = v
	case keyDiet:
		var v DietConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Diet = v
	case keyAdvice:
		var v []AdviceRule
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Advice = v
	case keyBaselines:
		var v Baselines
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Baselines = v
	case keyWindowDays:
		var v int
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.WindowDays = v
	case keyRanking:
		var v RankingConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Ranking = v
	}
	return nil
}
