package battle

import (
	"math/rand"
	"testing"
)

func testResolver(t *testing.T) *resolver {
	t.Helper()
	return &resolver{registry: DefaultRegistry(), rand: rand.New(rand.NewSource(42))}
}

func TestResolve_NoCandidates(t *testing.T) {
	r := testResolver(t)
	att := &Attack{Kind: "sql_injection", Severity: SeverityHigh}

	if def := r.Resolve(att, nil); def != nil {
		t.Errorf("attack with no defenses must succeed, got block by %s", def.Kind)
	}

	// A defense not registered against the attack kind is not a candidate.
	defs := []*Defense{{Kind: "mfa", Status: DefenseActive, Strength: 100}}
	if def := r.Resolve(att, defs); def != nil {
		t.Errorf("mfa cannot block sql_injection, got block")
	}
}

func TestResolve_CompromisedDefenseSkipped(t *testing.T) {
	r := testResolver(t)
	att := &Attack{Kind: "sql_injection", Severity: SeverityHigh}
	defs := []*Defense{{Kind: "waf", Status: DefenseCompromised, Strength: 100}}
	if def := r.Resolve(att, defs); def != nil {
		t.Errorf("compromised defense must not block")
	}
}

func TestResolve_HoneypotAlwaysCatchesProbe(t *testing.T) {
	r := testResolver(t)
	att := &Attack{Kind: kindHoneypotProbe, Severity: SeverityLow}
	defs := []*Defense{{Kind: kindHoneypot, Status: DefenseActive, Strength: 0}}
	for i := 0; i < 100; i++ {
		if def := r.Resolve(att, defs); def == nil {
			t.Fatal("honeypot must always catch a probe regardless of strength")
		}
	}
}

func TestResolve_FullStrengthLowSeverityAlwaysBlocks(t *testing.T) {
	r := testResolver(t)
	// strength 100 and severity factor 1.0 give p = 1.
	att := &Attack{Kind: "port_scan", Severity: SeverityLow}
	defs := []*Defense{{Kind: "firewall", Status: DefenseActive, Strength: 100}}
	for i := 0; i < 100; i++ {
		if def := r.Resolve(att, defs); def == nil {
			t.Fatal("full strength defense must always block a low severity attack")
		}
	}
}

func TestResolve_ZeroStrengthNeverBlocks(t *testing.T) {
	r := testResolver(t)
	att := &Attack{Kind: "port_scan", Severity: SeverityLow}
	defs := []*Defense{{Kind: "firewall", Status: DefenseActive, Strength: 0}}
	for i := 0; i < 100; i++ {
		if def := r.Resolve(att, defs); def != nil {
			t.Fatal("zero strength defense must never block")
		}
	}
}

func TestResolve_SeverityLowersBlockRate(t *testing.T) {
	reg := DefaultRegistry()
	att := func(kind string, sev Severity) *Attack { return &Attack{Kind: kind, Severity: sev} }
	defs := []*Defense{{Kind: "ids", Status: DefenseActive, Strength: 80}}

	blocks := func(a *Attack) int {
		r := &resolver{registry: reg, rand: rand.New(rand.NewSource(1))}
		n := 0
		for i := 0; i < 2000; i++ {
			if r.Resolve(a, defs) != nil {
				n++
			}
		}
		return n
	}

	low := blocks(att("port_scan", SeverityLow))
	critical := blocks(att("privilege_escalation", SeverityCritical))
	if critical >= low {
		t.Errorf("critical attacks must be blocked less often: low=%d critical=%d", low, critical)
	}
}
