package battle

import "sort"

// advantageThreshold is the point differential beyond which one team leads.
const advantageThreshold = 20

const (
	AdvantageRed     = "red"
	AdvantageBlue    = "blue"
	AdvantageNeutral = "neutral"
)

// scoreboard maintains per-team scores, counters, and derived metrics for
// one battle. All mutation happens under the engine mutex.
type scoreboard struct {
	score       Score
	multRed     float64
	multBlue    float64
	targets     []string
	compromised map[string]bool

	totalAttacks int
	totalBlocks  int
	successful   int
}

func newScoreboard(targets []string, multRed, multBlue float64) *scoreboard {
	if multRed <= 0 {
		multRed = 1
	}
	if multBlue <= 0 {
		multBlue = 1
	}
	b := &scoreboard{
		multRed:     multRed,
		multBlue:    multBlue,
		targets:     append([]string(nil), targets...),
		compromised: make(map[string]bool),
	}
	b.score.Advantage = AdvantageNeutral
	return b
}

// addPoints applies the team multiplier, accumulates, and recomputes the
// advantage. Raw points are never negative, so totals only grow. Returns the
// applied (multiplied) amount.
func (b *scoreboard) addPoints(team Team, raw float64) float64 {
	if raw < 0 {
		raw = 0
	}
	var applied float64
	switch team {
	case TeamRed:
		applied = raw * b.multRed
		b.score.RedPoints += applied
	case TeamBlue:
		applied = raw * b.multBlue
		b.score.BluePoints += applied
	}
	diff := b.score.RedPoints - b.score.BluePoints
	switch {
	case diff > advantageThreshold:
		b.score.Advantage = AdvantageRed
	case diff < -advantageThreshold:
		b.score.Advantage = AdvantageBlue
	default:
		b.score.Advantage = AdvantageNeutral
	}
	return applied
}

func (b *scoreboard) recordLaunch() {
	b.score.Red.AttacksLaunched++
	b.totalAttacks++
}

func (b *scoreboard) recordBlock(honeypot bool) {
	b.score.Blue.AttacksBlocked++
	if honeypot {
		b.score.Blue.HoneypotsHit++
	}
	b.totalBlocks++
}

// recordSuccess marks a successful attack against target. Returns true only
// the first time target is compromised; the system never returns to intact.
func (b *scoreboard) recordSuccess(target string) bool {
	b.score.Red.AttacksSuccessful++
	b.successful++
	if b.compromised[target] {
		return false
	}
	b.compromised[target] = true
	b.score.Red.SystemsCompromised++
	return true
}

// setIntel overwrites the externally sourced blue counters with the latest
// backend readings.
func (b *scoreboard) setIntel(bannedIPs, incidents int) {
	b.score.Blue.BannedIPs = bannedIPs
	b.score.Blue.IncidentsResolved = incidents
}

func (b *scoreboard) snapshot() Score { return b.score }

func (b *scoreboard) metrics() Metrics {
	m := Metrics{
		TotalAttacks: b.totalAttacks,
		TotalBlocks:  b.totalBlocks,
	}
	if b.totalAttacks > 0 {
		m.SuccessRate = float64(b.successful) / float64(b.totalAttacks)
	}
	for _, t := range b.targets {
		if b.compromised[t] {
			m.Compromised = append(m.Compromised, t)
		} else {
			m.Intact = append(m.Intact, t)
		}
	}
	sort.Strings(m.Compromised)
	sort.Strings(m.Intact)
	return m
}

// intactTargets returns systems not yet compromised, in scenario order.
func (b *scoreboard) intactTargets() []string {
	var out []string
	for _, t := range b.targets {
		if !b.compromised[t] {
			out = append(out, t)
		}
	}
	return out
}
