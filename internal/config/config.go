// YAML runtime config loader with CUE validation integration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"hacklab-sim/internal/battle"
)

// AttackOverride replaces or extends one entry of the built-in attack table.
type AttackOverride struct {
	Kind            string  `yaml:"kind"`
	Name            string  `yaml:"name"`
	Description     string  `yaml:"description,omitempty"`
	Severity        string  `yaml:"severity"`
	BasePoints      float64 `yaml:"base_points"`
	DurationSeconds float64 `yaml:"duration_seconds"`
}

// DefenseOverride replaces or extends one entry of the built-in defense table.
type DefenseOverride struct {
	Kind        string   `yaml:"kind"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	StrengthMin float64  `yaml:"strength_min"`
	StrengthMax float64  `yaml:"strength_max"`
	Blocks      []string `yaml:"blocks"`
}

// Config is the root runtime configuration for the battle simulator.
type Config struct {
	BackendURL          string            `yaml:"backend_url,omitempty"`
	PollIntervalSeconds int               `yaml:"poll_interval_seconds,omitempty"`
	EventLogCapacity    int               `yaml:"event_log_capacity,omitempty"`
	RedTeamAggression   float64           `yaml:"red_team_aggression,omitempty"`
	Attacks             []AttackOverride  `yaml:"attacks,omitempty"`
	Defenses            []DefenseOverride `yaml:"defenses,omitempty"`
}

// PollInterval returns the backend poll interval, or 0 to use the engine
// default.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Load loads YAML config and validates it against a CUE schema. An empty
// schema path skips validation.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Registry builds the battle registry: the built-in tables merged with any
// overrides from the config file.
func (c *Config) Registry() (*battle.Registry, error) {
	if len(c.Attacks) == 0 && len(c.Defenses) == 0 {
		return battle.DefaultRegistry(), nil
	}

	attacks := map[string]battle.AttackSpec{}
	for _, a := range battle.DefaultAttacks() {
		attacks[a.Kind] = a
	}
	for _, o := range c.Attacks {
		attacks[o.Kind] = battle.AttackSpec{
			Kind:        o.Kind,
			Name:        o.Name,
			Description: o.Description,
			Severity:    battle.Severity(o.Severity),
			BasePoints:  o.BasePoints,
			Duration:    time.Duration(o.DurationSeconds * float64(time.Second)),
		}
	}
	defenses := map[string]battle.DefenseSpec{}
	for _, d := range battle.DefaultDefenses() {
		defenses[d.Kind] = d
	}
	for _, o := range c.Defenses {
		defenses[o.Kind] = battle.DefenseSpec{
			Kind:        o.Kind,
			Name:        o.Name,
			Description: o.Description,
			StrengthMin: o.StrengthMin,
			StrengthMax: o.StrengthMax,
			Blocks:      o.Blocks,
		}
	}

	var attackList []battle.AttackSpec
	for _, a := range attacks {
		attackList = append(attackList, a)
	}
	var defenseList []battle.DefenseSpec
	for _, d := range defenses {
		defenseList = append(defenseList, d)
	}
	reg, err := battle.NewRegistry(attackList, defenseList)
	if err != nil {
		return nil, fmt.Errorf("config registry: %w", err)
	}
	return reg, nil
}
