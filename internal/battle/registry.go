package battle

import (
	"fmt"
	"time"
)

// AttackSpec describes one attack kind: display metadata, scoring weight,
// and how long the attack stays in flight before it resolves.
type AttackSpec struct {
	Kind        string        `yaml:"kind"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Severity    Severity      `yaml:"severity"`
	BasePoints  float64       `yaml:"base_points"`
	Duration    time.Duration `yaml:"duration"`
}

// DefenseSpec describes one defense kind, the strength band a new instance
// is randomized within, and the attack kinds it can block.
type DefenseSpec struct {
	Kind        string   `yaml:"kind"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	StrengthMin float64  `yaml:"strength_min"`
	StrengthMax float64  `yaml:"strength_max"`
	Blocks      []string `yaml:"blocks"`
}

// CanBlock reports whether the defense kind is registered against attackKind.
func (d DefenseSpec) CanBlock(attackKind string) bool {
	for _, k := range d.Blocks {
		if k == attackKind {
			return true
		}
	}
	return false
}

// Registry holds the attack and defense lookup tables for one battle.
type Registry struct {
	attacks  map[string]AttackSpec
	defenses map[string]DefenseSpec
}

// NewRegistry builds a registry from explicit spec lists.
func NewRegistry(attacks []AttackSpec, defenses []DefenseSpec) (*Registry, error) {
	r := &Registry{
		attacks:  make(map[string]AttackSpec, len(attacks)),
		defenses: make(map[string]DefenseSpec, len(defenses)),
	}
	for _, a := range attacks {
		if a.Kind == "" || a.Duration <= 0 || a.BasePoints < 0 {
			return nil, fmt.Errorf("invalid attack spec %q", a.Kind)
		}
		if severityFactor(a.Severity) == 0 {
			return nil, fmt.Errorf("attack %s: unknown severity %q", a.Kind, a.Severity)
		}
		r.attacks[a.Kind] = a
	}
	for _, d := range defenses {
		if d.Kind == "" || d.StrengthMin < 0 || d.StrengthMax > 100 || d.StrengthMin > d.StrengthMax {
			return nil, fmt.Errorf("invalid defense spec %q", d.Kind)
		}
		for _, b := range d.Blocks {
			if _, ok := r.attacks[b]; !ok {
				return nil, fmt.Errorf("defense %s blocks unknown attack kind %q", d.Kind, b)
			}
		}
		r.defenses[d.Kind] = d
	}
	return r, nil
}

// Attack looks up an attack spec by kind.
func (r *Registry) Attack(kind string) (AttackSpec, bool) {
	a, ok := r.attacks[kind]
	return a, ok
}

// Defense looks up a defense spec by kind.
func (r *Registry) Defense(kind string) (DefenseSpec, bool) {
	d, ok := r.defenses[kind]
	return d, ok
}

// severityFactor scales block probability down as severity rises. Returns 0
// for unknown severities so registry validation can catch them.
func severityFactor(s Severity) float64 {
	switch s {
	case SeverityLow:
		return 1.0
	case SeverityMedium:
		return 0.85
	case SeverityHigh:
		return 0.70
	case SeverityCritical:
		return 0.55
	default:
		return 0
	}
}

// DefaultRegistry returns the built-in attack and defense catalog.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultAttacks(), DefaultDefenses())
	if err != nil {
		// The built-in tables are constants; a failure here is a programming error.
		panic(err)
	}
	return r
}

// DefaultAttacks returns the built-in attack catalog.
func DefaultAttacks() []AttackSpec {
	return []AttackSpec{
		{Kind: "port_scan", Name: "Port Scan", Description: "Sweep exposed ports for service fingerprints.", Severity: SeverityLow, BasePoints: 5, Duration: 2 * time.Second},
		{Kind: "honeypot_probe", Name: "Honeypot Probe", Description: "Poke a suspiciously open service.", Severity: SeverityLow, BasePoints: 5, Duration: 2 * time.Second},
		{Kind: "brute_force", Name: "Brute Force", Description: "Hammer the login form with a credential list.", Severity: SeverityMedium, BasePoints: 15, Duration: 4 * time.Second},
		{Kind: "xss", Name: "Cross-Site Scripting", Description: "Inject script payloads into user-facing fields.", Severity: SeverityMedium, BasePoints: 15, Duration: 3 * time.Second},
		{Kind: "phishing", Name: "Phishing Campaign", Description: "Lure staff credentials with a cloned portal.", Severity: SeverityMedium, BasePoints: 15, Duration: 4 * time.Second},
		{Kind: "sql_injection", Name: "SQL Injection", Description: "Smuggle queries through an unsanitized parameter.", Severity: SeverityHigh, BasePoints: 25, Duration: 5 * time.Second},
		{Kind: "idor", Name: "IDOR", Description: "Walk object IDs to reach other users' records.", Severity: SeverityHigh, BasePoints: 20, Duration: 4 * time.Second},
		{Kind: "privilege_escalation", Name: "Privilege Escalation", Description: "Pivot from a user session to admin rights.", Severity: SeverityCritical, BasePoints: 35, Duration: 6 * time.Second},
		{Kind: "ddos", Name: "DDoS Flood", Description: "Saturate the edge with junk traffic.", Severity: SeverityCritical, BasePoints: 40, Duration: 8 * time.Second},
		{Kind: "data_exfiltration", Name: "Data Exfiltration", Description: "Siphon records out through a covert channel.", Severity: SeverityCritical, BasePoints: 45, Duration: 7 * time.Second},
	}
}

// DefaultDefenses returns the built-in defense catalog.
func DefaultDefenses() []DefenseSpec {
	return []DefenseSpec{
		{Kind: "waf", Name: "Web Application Firewall", StrengthMin: 70, StrengthMax: 95, Blocks: []string{"sql_injection", "xss"}},
		{Kind: "rate_limiter", Name: "Rate Limiter", StrengthMin: 60, StrengthMax: 90, Blocks: []string{"brute_force", "ddos", "port_scan"}},
		{Kind: "honeypot", Name: "Honeypot", StrengthMin: 50, StrengthMax: 80, Blocks: []string{"honeypot_probe", "data_exfiltration"}},
		{Kind: "ids", Name: "Intrusion Detection", StrengthMin: 55, StrengthMax: 85, Blocks: []string{"port_scan", "privilege_escalation", "data_exfiltration"}},
		{Kind: "mfa", Name: "Multi-Factor Auth", StrengthMin: 75, StrengthMax: 95, Blocks: []string{"brute_force", "phishing"}},
		{Kind: "input_validation", Name: "Input Validation", StrengthMin: 65, StrengthMax: 90, Blocks: []string{"sql_injection", "xss", "idor"}},
		{Kind: "firewall", Name: "Network Firewall", StrengthMin: 60, StrengthMax: 90, Blocks: []string{"ddos", "port_scan"}},
		{Kind: "access_control", Name: "Access Control", StrengthMin: 65, StrengthMax: 90, Blocks: []string{"idor", "privilege_escalation"}},
	}
}
