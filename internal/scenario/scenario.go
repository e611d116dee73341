package scenario

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is the full ordered configuration for one battle. It is loaded
// once at battle start and never mutated by the engine.
type Scenario struct {
	ID            string      `yaml:"id"`
	Name          string      `yaml:"name"`
	Description   string      `yaml:"description,omitempty"`
	TargetSystems []string    `yaml:"target_systems"`
	Multipliers   Multipliers `yaml:"multipliers"`
	AutoAttack    AutoAttack  `yaml:"auto_attack"`
	Phases        []Phase     `yaml:"phases"`
}

// Multipliers tune scenario difficulty without altering base point tables.
type Multipliers struct {
	Red  float64 `yaml:"red"`
	Blue float64 `yaml:"blue"`
}

// AutoAttack configures the scripted red-team attack generator.
type AutoAttack struct {
	Enabled         bool     `yaml:"enabled"`
	IntervalSeconds int      `yaml:"interval_seconds"`
	Kinds           []string `yaml:"kinds,omitempty"`
}

// Interval returns the auto-attack interval as a duration.
func (a AutoAttack) Interval() time.Duration {
	return time.Duration(a.IntervalSeconds) * time.Second
}

// Phase is one timed segment of a scenario. The enabled kind sets gate which
// attacks can launch and which defenses are active while the phase runs.
type Phase struct {
	Name            string   `yaml:"name"`
	DisplayName     string   `yaml:"display_name,omitempty"`
	DurationSeconds int      `yaml:"duration_seconds"`
	Attacks         []string `yaml:"attacks"`
	Defenses        []string `yaml:"defenses"`
}

// Duration returns the phase length as a duration.
func (p Phase) Duration() time.Duration {
	return time.Duration(p.DurationSeconds) * time.Second
}

// AttackEnabled reports whether kind may launch during this phase.
func (p Phase) AttackEnabled(kind string) bool {
	for _, k := range p.Attacks {
		if k == kind {
			return true
		}
	}
	return false
}

// TotalDuration sums all phase durations.
func (s *Scenario) TotalDuration() time.Duration {
	var total time.Duration
	for _, p := range s.Phases {
		total += p.Duration()
	}
	return total
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks structural requirements before a scenario is handed to the
// engine. Kind names are validated later against the battle registry.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario id required")
	}
	if len(s.Phases) == 0 {
		return fmt.Errorf("scenario %s has no phases", s.ID)
	}
	for i, p := range s.Phases {
		if p.Name == "" {
			return fmt.Errorf("scenario %s: phase %d has no name", s.ID, i)
		}
		if p.DurationSeconds <= 0 {
			return fmt.Errorf("scenario %s: phase %s duration must be positive", s.ID, p.Name)
		}
	}
	if len(s.TargetSystems) == 0 {
		return fmt.Errorf("scenario %s has no target systems", s.ID)
	}
	if s.AutoAttack.Enabled && s.AutoAttack.IntervalSeconds <= 0 {
		return fmt.Errorf("scenario %s: auto attack interval must be positive", s.ID)
	}
	if s.Multipliers.Red <= 0 || s.Multipliers.Blue <= 0 {
		return fmt.Errorf("scenario %s: multipliers must be positive", s.ID)
	}
	return nil
}
