// Engine orchestrating the red-vs-blue battle simulation.
package battle

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"hacklab-sim/internal/scenario"
)

// EventWriter is an interface to support different event sinks.
type EventWriter interface {
	WriteEvent(EventRow) error
}

// Optional: event writers may support batch mode.
type batchEventWriter interface {
	WriteEvents([]EventRow) error
}

// ScoreWriter receives per-tick score and metric rows.
type ScoreWriter interface {
	WriteScore(ScoreRow) error
}

// IntelSummary carries live counts from the demo backend.
type IntelSummary struct {
	BannedIPs int
	Incidents int
}

// IntelProvider is the external incident/ban lookup collaborator. Failures
// are treated as "no update this cycle" and never surface to engine callers.
type IntelProvider interface {
	Fetch(ctx context.Context) (IntelSummary, error)
}

// AttackPicker chooses the next auto-attack kind from the enabled pool.
type AttackPicker interface {
	Pick(enabled []string) (string, bool)
}

const (
	tickInterval    = time.Second
	launchAward     = 5
	blockedAward    = 10
	compromiseBonus = 25

	// Cosmetic windows the host UI animates over.
	launchWindow   = 500 * time.Millisecond
	blockingWindow = 1500 * time.Millisecond
	displayWindow  = 2 * time.Second

	defaultPollInterval = 10 * time.Second
	defaultIntelTimeout = 3 * time.Second
)

// WinnerDraw marks a battle ending with equal points.
const WinnerDraw Team = "draw"

// Config carries the engine's injected collaborators. Zero values fall back
// to sensible defaults; only writers and intel are truly optional.
type Config struct {
	Registry     *Registry
	Writer       EventWriter
	ScoreWriter  ScoreWriter
	Intel        IntelProvider
	Picker       AttackPicker
	Rand         *rand.Rand
	Now          func() time.Time
	Logger       *slog.Logger
	EventLogCap  int
	PollInterval time.Duration
}

// Engine runs one battle at a time. It is an explicit instance with injected
// configuration so independent battles and tests never share state.
type Engine struct {
	mu       sync.Mutex
	log      *slog.Logger
	registry *Registry
	writer   EventWriter
	scoreW   ScoreWriter
	intel    IntelProvider
	picker   AttackPicker
	rand     *rand.Rand
	now      func() time.Time
	res      *resolver

	pollInterval time.Duration
	intelTimeout time.Duration
	eventLogCap  int

	battleID   string
	scn        *scenario.Scenario
	sched      *scheduler
	running    bool
	paused     bool
	phaseIdx   int
	phaseStart time.Time
	pausedAt   time.Time
	winner     Team

	attacks  map[string]*Attack
	history  []*Attack
	defenses []*Defense
	board    *scoreboard
	events   *EventLog
	handlers map[EventType]func(Event)
	done     chan struct{}
}

// NewEngine creates an engine ready to start a battle.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		log:          cfg.Logger,
		registry:     cfg.Registry,
		writer:       cfg.Writer,
		scoreW:       cfg.ScoreWriter,
		intel:        cfg.Intel,
		picker:       cfg.Picker,
		rand:         cfg.Rand,
		now:          cfg.Now,
		pollInterval: cfg.PollInterval,
		intelTimeout: defaultIntelTimeout,
		eventLogCap:  cfg.EventLogCap,
		handlers:     make(map[EventType]func(Event)),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.pollInterval <= 0 {
		e.pollInterval = defaultPollInterval
	}
	e.res = &resolver{registry: e.registry, rand: e.rand}
	return e
}

// Subscribe registers the handler for one event type. The engine holds a
// single slot per type; the last registration wins. Handlers run on the
// engine's timer callbacks and must be short and non-blocking.
func (e *Engine) Subscribe(t EventType, h func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[t] = h
}

// Start begins a battle for the given scenario. It fails if a battle is
// already running or the scenario references unknown kinds.
func (e *Engine) Start(scn *scenario.Scenario) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return fmt.Errorf("battle %s already running", e.battleID)
	}
	if err := scn.Validate(); err != nil {
		return err
	}
	for _, p := range scn.Phases {
		for _, k := range p.Attacks {
			if _, ok := e.registry.Attack(k); !ok {
				return fmt.Errorf("phase %s: unknown attack kind %q", p.Name, k)
			}
		}
		for _, k := range p.Defenses {
			if _, ok := e.registry.Defense(k); !ok {
				return fmt.Errorf("phase %s: unknown defense kind %q", p.Name, k)
			}
		}
	}
	for _, k := range scn.AutoAttack.Kinds {
		if _, ok := e.registry.Attack(k); !ok {
			return fmt.Errorf("auto attack: unknown attack kind %q", k)
		}
	}

	e.battleID = uuid.New().String()
	e.scn = scn
	e.sched = newScheduler(e.now)
	e.running = true
	e.paused = false
	e.phaseIdx = 0
	e.phaseStart = e.now()
	e.winner = ""
	e.attacks = make(map[string]*Attack)
	e.history = nil
	e.defenses = nil
	e.board = newScoreboard(scn.TargetSystems, scn.Multipliers.Red, scn.Multipliers.Blue)
	e.events = newEventLog(e.eventLogCap)
	e.done = make(chan struct{})

	e.log.Info("battle started", "battle_id", e.battleID, "scenario", scn.ID, "phases", len(scn.Phases))
	e.enterPhaseLocked()

	e.sched.Every(taskPhaseTick, tickInterval, e.tick)
	if scn.AutoAttack.Enabled {
		e.sched.Every(taskAutoAttack, scn.AutoAttack.Interval(), e.autoAttack)
	}
	if e.intel != nil {
		e.sched.Every(taskIntelPoll, e.pollInterval, e.pollIntel)
	}
	return nil
}

// Done returns a channel closed when the battle completes or is stopped.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Winner returns the result of a completed battle, or "" while running or
// after a manual stop.
func (e *Engine) Winner() Team {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.winner
}

// tick runs once per second: advances attack progress, emits a score row,
// and moves the scenario to the next phase when the current one expires.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.paused {
		return
	}

	for _, a := range e.attacks {
		if a.Status != AttackLaunching && a.Status != AttackInFlight {
			continue
		}
		spec, ok := e.registry.Attack(a.Kind)
		if !ok || spec.Duration <= 0 {
			continue
		}
		a.Progress += float64(tickInterval) / float64(spec.Duration) * 100
		if a.Progress > 100 {
			a.Progress = 100
		}
	}

	if e.scoreW != nil {
		if err := e.scoreW.WriteScore(e.scoreRowLocked()); err != nil {
			e.log.Error("score write failed", "err", err)
		}
	}

	phase := e.scn.Phases[e.phaseIdx]
	if e.now().Sub(e.phaseStart) < phase.Duration() {
		return
	}
	e.phaseIdx++
	if e.phaseIdx >= len(e.scn.Phases) {
		e.completeLocked()
		return
	}
	e.phaseStart = e.now()
	e.enterPhaseLocked()
}

// enterPhaseLocked emits the phase change and swaps the active defense set
// to the kinds the new phase enables.
func (e *Engine) enterPhaseLocked() {
	phase := e.scn.Phases[e.phaseIdx]

	kept := e.defenses[:0]
	for _, d := range e.defenses {
		enabled := false
		for _, k := range phase.Defenses {
			if d.Kind == k {
				enabled = true
				break
			}
		}
		if enabled {
			kept = append(kept, d)
		}
	}
	e.defenses = kept

	e.emitLocked(Event{
		Type:    EventPhaseChange,
		Team:    TeamBlue,
		Message: fmt.Sprintf("Entering phase %s", phase.Name),
	})

	for _, k := range phase.Defenses {
		if e.defenseActiveLocked(k) {
			continue
		}
		spec, _ := e.registry.Defense(k)
		d := &Defense{
			ID:       uuid.New().String(),
			Kind:     k,
			Status:   DefenseActive,
			Strength: spec.StrengthMin + e.rand.Float64()*(spec.StrengthMax-spec.StrengthMin),
			Created:  e.now(),
		}
		e.defenses = append(e.defenses, d)
		e.emitLocked(Event{
			Type:      EventDefenseActivated,
			Team:      TeamBlue,
			Message:   fmt.Sprintf("%s online at %.0f%% strength", spec.Name, d.Strength),
			DefenseID: d.ID,
		})
	}
}

func (e *Engine) defenseActiveLocked(kind string) bool {
	for _, d := range e.defenses {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// completeLocked ends the battle at the scenario's natural end: the team
// with strictly higher points wins, equal points is a draw.
func (e *Engine) completeLocked() {
	score := e.board.snapshot()
	switch {
	case score.RedPoints > score.BluePoints:
		e.winner = TeamRed
	case score.BluePoints > score.RedPoints:
		e.winner = TeamBlue
	default:
		e.winner = WinnerDraw
	}
	e.emitLocked(Event{
		Type:    EventBattleComplete,
		Team:    e.winner,
		Message: fmt.Sprintf("Battle complete: %s (red %.0f, blue %.0f)", e.winner, score.RedPoints, score.BluePoints),
	})
	e.log.Info("battle complete", "battle_id", e.battleID, "winner", e.winner)
	e.shutdownLocked()
}

// Stop aborts the battle, cancelling every outstanding timer across all
// categories. No event is emitted after Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.log.Info("battle stopped", "battle_id", e.battleID)
	e.shutdownLocked()
}

func (e *Engine) shutdownLocked() {
	e.running = false
	e.paused = false
	e.sched.Stop()
	close(e.done)
}

// TogglePause suspends or resumes the battle and returns the new paused
// state. Pausing preserves phase and attack countdowns exactly.
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	if !e.paused {
		e.paused = true
		e.pausedAt = e.now()
		e.sched.Pause()
		e.log.Info("battle paused", "battle_id", e.battleID)
		return true
	}
	e.paused = false
	e.phaseStart = e.phaseStart.Add(e.now().Sub(e.pausedAt))
	e.sched.Resume()
	e.log.Info("battle resumed", "battle_id", e.battleID)
	return false
}

// LaunchAttack launches one attack of the given kind. Launches are rejected
// while paused or stopped and for kinds the current phase does not enable;
// rejections are logged and leave all state unchanged.
func (e *Engine) LaunchAttack(kind string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.launchLocked(kind)
}

func (e *Engine) launchLocked(kind string) error {
	if !e.running {
		e.log.Warn("launch rejected: no battle running", "kind", kind)
		return fmt.Errorf("no battle running")
	}
	if e.paused {
		e.log.Warn("launch rejected: battle paused", "kind", kind)
		return fmt.Errorf("battle paused")
	}
	spec, ok := e.registry.Attack(kind)
	if !ok {
		e.log.Warn("launch rejected: unknown attack kind", "kind", kind)
		return fmt.Errorf("unknown attack kind %q", kind)
	}
	phase := e.scn.Phases[e.phaseIdx]
	if !phase.AttackEnabled(kind) {
		e.log.Warn("launch rejected: kind not enabled in phase", "kind", kind, "phase", phase.Name)
		return fmt.Errorf("attack %q not enabled in phase %s", kind, phase.Name)
	}

	att := &Attack{
		ID:       uuid.New().String(),
		Kind:     kind,
		Severity: spec.Severity,
		Status:   AttackLaunching,
		Target:   e.pickTargetLocked(),
		Created:  e.now(),
	}
	e.attacks[att.ID] = att
	e.history = append(e.history, att)
	e.board.recordLaunch()
	pts := e.board.addPoints(TeamRed, launchAward)
	e.emitLocked(Event{
		Type:     EventAttackLaunched,
		Team:     TeamRed,
		Message:  fmt.Sprintf("%s launched against %s", spec.Name, att.Target),
		Points:   pts,
		AttackID: att.ID,
		Severity: att.Severity,
	})

	id := att.ID
	e.sched.After(taskDisplay, launchWindow, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.running {
			return
		}
		if a, ok := e.attacks[id]; ok && a.Status == AttackLaunching {
			a.Status = AttackInFlight
		}
	})
	e.sched.After(taskResolve, spec.Duration, func() { e.resolveAttack(id) })
	return nil
}

// pickTargetLocked picks a random intact target system, or any target when
// everything is already compromised.
func (e *Engine) pickTargetLocked() string {
	pool := e.board.intactTargets()
	if len(pool) == 0 {
		pool = e.scn.TargetSystems
	}
	return pool[e.rand.Intn(len(pool))]
}

// resolveAttack decides blocked vs success at the end of the attack's
// configured duration. Each attack resolves via exactly this one scheduled
// callback, so a terminal status is reached exactly once.
func (e *Engine) resolveAttack(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	att, ok := e.attacks[id]
	if !ok || (att.Status != AttackLaunching && att.Status != AttackInFlight) {
		return
	}
	spec, _ := e.registry.Attack(att.Kind)
	att.Progress = 100

	if def := e.res.Resolve(att, e.defenses); def != nil {
		att.Status = AttackBlocked
		def.Blocked++
		def.Status = DefenseBlocking
		e.board.recordBlock(def.Kind == kindHoneypot)
		pts := e.board.addPoints(TeamBlue, blockedAward)
		dspec, _ := e.registry.Defense(def.Kind)
		e.emitLocked(Event{
			Type:      EventAttackBlocked,
			Team:      TeamBlue,
			Message:   fmt.Sprintf("%s blocked %s", dspec.Name, spec.Name),
			Points:    pts,
			AttackID:  att.ID,
			DefenseID: def.ID,
			Severity:  att.Severity,
		})
		defID := def.ID
		e.sched.After(taskDisplay, blockingWindow, func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			if !e.running {
				return
			}
			for _, d := range e.defenses {
				if d.ID == defID && d.Status == DefenseBlocking {
					d.Status = DefenseActive
				}
			}
		})
	} else {
		att.Status = AttackSuccess
		pts := e.board.addPoints(TeamRed, spec.BasePoints)
		first := e.board.recordSuccess(att.Target)
		e.emitLocked(Event{
			Type:     EventAttackSuccess,
			Team:     TeamRed,
			Message:  fmt.Sprintf("%s succeeded against %s", spec.Name, att.Target),
			Points:   pts,
			AttackID: att.ID,
			Severity: att.Severity,
		})
		if first {
			bonus := e.board.addPoints(TeamRed, compromiseBonus)
			e.emitLocked(Event{
				Type:     EventSystemCompromised,
				Team:     TeamRed,
				Message:  fmt.Sprintf("%s compromised", att.Target),
				Points:   bonus,
				AttackID: att.ID,
				Severity: att.Severity,
			})
		}
		if first || att.Severity == SeverityCritical {
			e.emitLocked(Event{
				Type:     EventCriticalMoment,
				Team:     TeamRed,
				Message:  fmt.Sprintf("Critical: %s against %s", spec.Name, att.Target),
				AttackID: att.ID,
				Severity: att.Severity,
			})
		}
	}

	// History keeps the record; only the active set is trimmed.
	e.sched.After(taskDisplay, displayWindow, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.running {
			return
		}
		delete(e.attacks, id)
	})
}

// autoAttack launches a scripted red-team attack from the phase pool.
func (e *Engine) autoAttack() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.paused {
		return
	}
	enabled := e.scn.Phases[e.phaseIdx].Attacks
	if len(e.scn.AutoAttack.Kinds) > 0 {
		var pool []string
		for _, k := range e.scn.AutoAttack.Kinds {
			if e.scn.Phases[e.phaseIdx].AttackEnabled(k) {
				pool = append(pool, k)
			}
		}
		enabled = pool
	}
	if len(enabled) == 0 {
		return
	}
	var kind string
	if e.picker != nil {
		k, ok := e.picker.Pick(enabled)
		if !ok {
			return
		}
		kind = k
	} else {
		kind = enabled[e.rand.Intn(len(enabled))]
	}
	if err := e.launchLocked(kind); err != nil {
		e.log.Debug("auto attack skipped", "kind", kind, "err", err)
	}
}

// pollIntel fetches ban/incident counts from the demo backend without ever
// stalling the tick loop: the fetch runs off the timer callback with its own
// timeout and any failure means no update this cycle.
func (e *Engine) pollIntel() {
	ctx, cancel := context.WithTimeout(context.Background(), e.intelTimeout)
	go func() {
		defer cancel()
		sum, err := e.intel.Fetch(ctx)
		if err != nil {
			e.log.Debug("intel poll failed", "err", err)
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.running {
			return
		}
		e.board.setIntel(sum.BannedIPs, sum.Incidents)
	}()
}

// emitLocked stamps, logs, and fans out one event. Emission never fails:
// writer errors are logged and a missing subscriber slot is a no-op.
// score_update notifications go to the subscriber only, not into the
// bounded log.
func (e *Engine) emitLocked(ev Event) {
	ev.ID = uuid.New().String()
	ev.Timestamp = e.now().UTC()
	e.events.Append(ev)
	if e.writer != nil {
		if err := e.writer.WriteEvent(e.eventRowLocked(ev)); err != nil {
			e.log.Error("event write failed", "type", ev.Type, "err", err)
		}
	}
	if h := e.handlers[ev.Type]; h != nil {
		h(ev)
	}
	if ev.Points != 0 {
		if h := e.handlers[EventScoreUpdate]; h != nil {
			h(Event{ID: ev.ID, Type: EventScoreUpdate, Team: ev.Team, Points: ev.Points, Timestamp: ev.Timestamp})
		}
	}
}

// currentPhaseNameLocked clamps the index so the final battle_complete event
// still reports the last phase.
func (e *Engine) currentPhaseNameLocked() string {
	idx := e.phaseIdx
	if idx >= len(e.scn.Phases) {
		idx = len(e.scn.Phases) - 1
	}
	return e.scn.Phases[idx].Name
}

func (e *Engine) eventRowLocked(ev Event) EventRow {
	return EventRow{
		BattleID:  e.battleID,
		EventID:   ev.ID,
		Type:      string(ev.Type),
		Team:      string(ev.Team),
		Phase:     e.currentPhaseNameLocked(),
		Message:   ev.Message,
		Points:    ev.Points,
		AttackID:  ev.AttackID,
		DefenseID: ev.DefenseID,
		Severity:  string(ev.Severity),
		Timestamp: ev.Timestamp,
	}
}

func (e *Engine) scoreRowLocked() ScoreRow {
	score := e.board.snapshot()
	m := e.board.metrics()
	return ScoreRow{
		BattleID:     e.battleID,
		Phase:        e.currentPhaseNameLocked(),
		RedPoints:    score.RedPoints,
		BluePoints:   score.BluePoints,
		Advantage:    score.Advantage,
		TotalAttacks: m.TotalAttacks,
		TotalBlocks:  m.TotalBlocks,
		SuccessRate:  m.SuccessRate,
		Compromised:  len(m.Compromised),
		Paused:       e.paused,
		Timestamp:    e.now().UTC(),
	}
}

// Snapshot returns a copy of the full current state for polling consumers.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{
		BattleID: e.battleID,
		Scenario: e.scn,
		Running:  e.running,
		Paused:   e.paused,
		Winner:   e.winner,
	}
	if e.scn == nil {
		return snap
	}
	snap.PhaseIndex = e.phaseIdx
	idx := e.phaseIdx
	if idx >= len(e.scn.Phases) {
		idx = len(e.scn.Phases) - 1
	}
	phase := e.scn.Phases[idx]
	snap.Phase = phase.Name
	if e.running {
		elapsed := e.now().Sub(e.phaseStart)
		if e.paused {
			elapsed = e.pausedAt.Sub(e.phaseStart)
		}
		if remain := phase.Duration() - elapsed; remain > 0 {
			snap.PhaseRemain = remain
		}
	}
	for _, a := range e.attacks {
		snap.ActiveAttacks = append(snap.ActiveAttacks, *a)
	}
	for _, d := range e.defenses {
		snap.Defenses = append(snap.Defenses, *d)
	}
	if e.board != nil {
		snap.Score = e.board.snapshot()
		snap.Metrics = e.board.metrics()
	}
	if e.events != nil {
		snap.Events = e.events.Events()
	}
	return snap
}
