// Core battle entity types shared by the engine and its writers.
package battle

import (
	"time"

	"hacklab-sim/internal/scenario"
)

// Team identifies one side of the battle.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

// Severity grades an attack kind. More severe attacks are worth more points
// and are proportionally harder to block.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Attack status values. Transitions only move forward:
// launching -> in_flight -> blocked | success.
const (
	AttackLaunching = "launching"
	AttackInFlight  = "in_flight"
	AttackBlocked   = "blocked"
	AttackSuccess   = "success"
)

// Defense status values. active and blocking cycle; compromised is reserved
// for future escalation logic and never set by the current resolver.
const (
	DefenseActive      = "active"
	DefenseBlocking    = "blocking"
	DefenseCompromised = "compromised"
)

// Attack is a single offensive action instance owned by the engine.
type Attack struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Severity Severity  `json:"severity"`
	Status   string    `json:"status"`
	Progress float64   `json:"progress"`
	Target   string    `json:"target"`
	Created  time.Time `json:"created"`
}

// Defense is an active protective control owned by the engine.
type Defense struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Status   string    `json:"status"`
	Strength float64   `json:"strength"`
	Blocked  int       `json:"blocked"`
	Created  time.Time `json:"created"`
}

// RedCounters tracks offensive statistics.
type RedCounters struct {
	AttacksLaunched    int `json:"attacks_launched"`
	AttacksSuccessful  int `json:"attacks_successful"`
	SystemsCompromised int `json:"systems_compromised"`
}

// BlueCounters tracks defensive statistics. BannedIPs and IncidentsResolved
// come from the external intel poll and default to zero without a backend.
type BlueCounters struct {
	AttacksBlocked    int `json:"attacks_blocked"`
	HoneypotsHit      int `json:"honeypots_hit"`
	BannedIPs         int `json:"banned_ips"`
	IncidentsResolved int `json:"incidents_resolved"`
}

// Score holds per-team point totals and counters plus the derived advantage.
type Score struct {
	RedPoints  float64      `json:"red_points"`
	BluePoints float64      `json:"blue_points"`
	Red        RedCounters  `json:"red"`
	Blue       BlueCounters `json:"blue"`
	Advantage  string       `json:"advantage"`
}

// Metrics are derived continuously from resolved attacks.
type Metrics struct {
	TotalAttacks int      `json:"total_attacks"`
	TotalBlocks  int      `json:"total_blocks"`
	SuccessRate  float64  `json:"success_rate"`
	Compromised  []string `json:"compromised"`
	Intact       []string `json:"intact"`
}

// EventType classifies battle events.
type EventType string

const (
	EventAttackLaunched    EventType = "attack_launched"
	EventAttackBlocked     EventType = "attack_blocked"
	EventAttackSuccess     EventType = "attack_success"
	EventDefenseActivated  EventType = "defense_activated"
	EventPhaseChange       EventType = "phase_change"
	EventScoreUpdate       EventType = "score_update"
	EventCriticalMoment    EventType = "critical_moment"
	EventBattleComplete    EventType = "battle_complete"
	EventSystemCompromised EventType = "system_compromised"
)

// Event is one entry in the battle event stream.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Team      Team      `json:"team"`
	Message   string    `json:"message"`
	Points    float64   `json:"points"`
	AttackID  string    `json:"attack_id,omitempty"`
	DefenseID string    `json:"defense_id,omitempty"`
	Severity  Severity  `json:"severity,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// EventRow is the flattened sink record for one battle event.
type EventRow struct {
	BattleID  string    `json:"battle_id"` // TAG
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"` // TAG
	Team      string    `json:"team"` // TAG
	Phase     string    `json:"phase"`
	Message   string    `json:"message"`
	Points    float64   `json:"points"`
	AttackID  string    `json:"attack_id,omitempty"`
	DefenseID string    `json:"defense_id,omitempty"`
	Severity  string    `json:"severity,omitempty"`
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// ScoreRow captures per-tick score and metric state for sinks.
type ScoreRow struct {
	BattleID     string    `json:"battle_id"` // TAG
	Phase        string    `json:"phase"`
	RedPoints    float64   `json:"red_points"`
	BluePoints   float64   `json:"blue_points"`
	Advantage    string    `json:"advantage"`
	TotalAttacks int       `json:"total_attacks"`
	TotalBlocks  int       `json:"total_blocks"`
	SuccessRate  float64   `json:"success_rate"`
	Compromised  int       `json:"compromised"`
	Paused       bool      `json:"paused"`
	Timestamp    time.Time `json:"ts"` // TIME INDEX
}

// Snapshot is a copy of the full engine state for polling consumers.
type Snapshot struct {
	BattleID      string             `json:"battle_id"`
	Scenario      *scenario.Scenario `json:"scenario"`
	Running       bool               `json:"running"`
	Paused        bool               `json:"paused"`
	PhaseIndex    int                `json:"phase_index"`
	Phase         string             `json:"phase"`
	PhaseRemain   time.Duration      `json:"phase_remaining"`
	ActiveAttacks []Attack           `json:"active_attacks"`
	Defenses      []Defense          `json:"defenses"`
	Score         Score              `json:"score"`
	Metrics       Metrics            `json:"metrics"`
	Events        []Event            `json:"events"`
	Winner        Team               `json:"winner,omitempty"`
}
