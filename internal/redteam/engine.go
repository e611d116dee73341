// Package redteam drives the scripted attacker side of a battle.
package redteam

import (
	"math/rand"
	"time"

	"hacklab-sim/internal/battle"
)

// Engine picks the next auto-attack kind from the phase-enabled pool,
// biased toward more severe attacks as aggression rises.
type Engine struct {
	registry   *battle.Registry
	rand       *rand.Rand
	aggression float64
}

// NewEngine creates a red-team picker. aggression is clamped to [0,1];
// 0 picks uniformly, 1 applies the full severity weighting.
func NewEngine(reg *battle.Registry, rnd *rand.Rand, aggression float64) *Engine {
	if reg == nil {
		reg = battle.DefaultRegistry()
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if aggression < 0 {
		aggression = 0
	} else if aggression > 1 {
		aggression = 1
	}
	return &Engine{registry: reg, rand: rnd, aggression: aggression}
}

func severityRank(s battle.Severity) float64 {
	switch s {
	case battle.SeverityMedium:
		return 2
	case battle.SeverityHigh:
		return 3
	case battle.SeverityCritical:
		return 4
	default:
		return 1
	}
}

// Pick implements battle.AttackPicker with a severity-weighted random draw.
func (e *Engine) Pick(enabled []string) (string, bool) {
	if len(enabled) == 0 {
		return "", false
	}
	weights := make([]float64, len(enabled))
	var total float64
	for i, kind := range enabled {
		spec, ok := e.registry.Attack(kind)
		if !ok {
			continue
		}
		weights[i] = 1 + e.aggression*(severityRank(spec.Severity)-1)
		total += weights[i]
	}
	if total == 0 {
		return "", false
	}
	draw := e.rand.Float64() * total
	for i, w := range weights {
		draw -= w
		if draw < 0 && w > 0 {
			return enabled[i], true
		}
	}
	// Floating point spill; fall back to the last weighted kind.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return enabled[i], true
		}
	}
	return "", false
}

var _ battle.AttackPicker = (*Engine)(nil)
