package battle

import "math/rand"

// Honeypots are defined to always detect probes, regardless of strength.
const (
	kindHoneypot      = "honeypot"
	kindHoneypotProbe = "honeypot_probe"
)

// resolver implements the blocking-probability algorithm. The random source
// is injected so battle outcomes are reproducible in tests.
type resolver struct {
	registry *Registry
	rand     *rand.Rand
}

// Resolve decides the outcome of an attack against the active defenses.
// It returns the blocking defense, or nil if the attack succeeds.
//
// Eligible candidates are the active defenses whose kind is registered
// against the attack's kind. One candidate is picked uniformly at random;
// the tie-break is intentionally not priority-ordered. The pick blocks with
// probability (strength/100) × severity factor.
func (r *resolver) Resolve(att *Attack, defenses []*Defense) *Defense {
	var candidates []*Defense
	for _, d := range defenses {
		if d.Status == DefenseCompromised {
			continue
		}
		spec, ok := r.registry.Defense(d.Kind)
		if !ok || !spec.CanBlock(att.Kind) {
			continue
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return nil
	}
	d := candidates[r.rand.Intn(len(candidates))]
	if d.Kind == kindHoneypot && att.Kind == kindHoneypotProbe {
		return d
	}
	p := d.Strength / 100 * severityFactor(att.Severity)
	if r.rand.Float64() < p {
		return d
	}
	return nil
}
