package battle

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"hacklab-sim/internal/scenario"
)

// MockWriter collects event and score rows for validation.
type MockWriter struct {
	mu     sync.Mutex
	Rows   []EventRow
	Scores []ScoreRow
}

func (w *MockWriter) WriteEvent(row EventRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Rows = append(w.Rows, row)
	return nil
}

func (w *MockWriter) WriteScore(row ScoreRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Scores = append(w.Scores, row)
	return nil
}

func (w *MockWriter) byType(t EventType) []EventRow {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []EventRow
	for _, r := range w.Rows {
		if r.Type == string(t) {
			out = append(out, r)
		}
	}
	return out
}

func (w *MockWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.Rows)
}

// fakeClock drives the engine's notion of time for phase tests; scheduled
// timers still run on real time.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fastRegistry uses short attack durations so resolution tests finish quickly.
// The shield always blocks strikes (strength 100, low severity); nothing
// blocks a nuke.
func fastRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(
		[]AttackSpec{
			{Kind: "strike", Name: "Strike", Severity: SeverityLow, BasePoints: 10, Duration: 30 * time.Millisecond},
			{Kind: "nuke", Name: "Nuke", Severity: SeverityCritical, BasePoints: 40, Duration: 30 * time.Millisecond},
		},
		[]DefenseSpec{
			{Kind: "shield", Name: "Shield", StrengthMin: 100, StrengthMax: 100, Blocks: []string{"strike"}},
		},
	)
	if err != nil {
		t.Fatalf("fastRegistry: %v", err)
	}
	return reg
}

func fastScenario(phases ...scenario.Phase) *scenario.Scenario {
	return &scenario.Scenario{
		ID:            "engine-test",
		Name:          "Engine Test",
		TargetSystems: []string{"web-server", "database"},
		Multipliers:   scenario.Multipliers{Red: 1, Blue: 1},
		Phases:        phases,
	}
}

func phaseAll(name string, seconds int) scenario.Phase {
	return scenario.Phase{
		Name:            name,
		DisplayName:     name,
		DurationSeconds: seconds,
		Attacks:         []string{"strike", "nuke"},
		Defenses:        []string{"shield"},
	}
}

func newTestEngine(t *testing.T, w *MockWriter, clock *fakeClock) *Engine {
	t.Helper()
	cfg := Config{
		Registry: fastRegistry(t),
		Rand:     rand.New(rand.NewSource(7)),
	}
	if w != nil {
		cfg.Writer = w
		cfg.ScoreWriter = w
	}
	if clock != nil {
		cfg.Now = clock.Now
	}
	e := NewEngine(cfg)
	t.Cleanup(e.Stop)
	return e
}

func TestEngine_StartEmitsPhaseAndDefenses(t *testing.T) {
	w := &MockWriter{}
	e := newTestEngine(t, w, nil)
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := w.byType(EventPhaseChange); len(got) != 1 {
		t.Errorf("expected 1 phase_change, got %d", len(got))
	}
	if got := w.byType(EventDefenseActivated); len(got) != 1 {
		t.Errorf("expected 1 defense_activated, got %d", len(got))
	}

	snap := e.Snapshot()
	if !snap.Running || snap.Phase != "recon" {
		t.Errorf("unexpected snapshot: running=%v phase=%q", snap.Running, snap.Phase)
	}
	if len(snap.Defenses) != 1 || snap.Defenses[0].Strength != 100 {
		t.Errorf("expected shield at strength 100, got %+v", snap.Defenses)
	}
}

func TestEngine_StartRejections(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	bad := fastScenario(phaseAll("recon", 60))
	bad.Phases[0].Attacks = []string{"ghost"}
	if err := e.Start(bad); err == nil {
		t.Error("expected error for unknown attack kind")
	}

	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err == nil {
		t.Error("expected error for second concurrent battle")
	}
}

func TestEngine_LaunchAttack(t *testing.T) {
	w := &MockWriter{}
	e := newTestEngine(t, w, nil)
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := e.LaunchAttack("strike"); err != nil {
		t.Fatalf("LaunchAttack: %v", err)
	}

	snap := e.Snapshot()
	if len(snap.ActiveAttacks) != 1 {
		t.Fatalf("expected 1 active attack, got %d", len(snap.ActiveAttacks))
	}
	att := snap.ActiveAttacks[0]
	if att.Status != AttackLaunching {
		t.Errorf("fresh attack must be launching, got %s", att.Status)
	}
	if att.Target != "web-server" && att.Target != "database" {
		t.Errorf("target must come from the scenario, got %q", att.Target)
	}
	if snap.Score.RedPoints != launchAward {
		t.Errorf("expected launch award %v, got %v", float64(launchAward), snap.Score.RedPoints)
	}
	if snap.Score.Red.AttacksLaunched != 1 {
		t.Errorf("expected 1 launched, got %d", snap.Score.Red.AttacksLaunched)
	}
	if got := w.byType(EventAttackLaunched); len(got) != 1 {
		t.Errorf("expected 1 attack_launched row, got %d", len(got))
	}
}

func TestEngine_LaunchRejections(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	if err := e.LaunchAttack("strike"); err == nil {
		t.Error("launch before start must fail")
	}

	scn := fastScenario(phaseAll("recon", 60))
	scn.Phases[0].Attacks = []string{"strike"}
	if err := e.Start(scn); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.LaunchAttack("ghost"); err == nil {
		t.Error("unknown kind must fail")
	}
	if err := e.LaunchAttack("nuke"); err == nil {
		t.Error("kind outside the phase pool must fail")
	}

	e.TogglePause()
	if err := e.LaunchAttack("strike"); err == nil {
		t.Error("launch while paused must fail")
	}
	e.TogglePause()

	if len(e.Snapshot().ActiveAttacks) != 0 {
		t.Error("rejected launches must not create attacks")
	}
}

func TestEngine_AttackBlocked(t *testing.T) {
	w := &MockWriter{}
	e := newTestEngine(t, w, nil)
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := e.LaunchAttack("strike"); err != nil {
		t.Fatalf("LaunchAttack: %v", err)
	}
	time.Sleep(150 * time.Millisecond)

	blocked := w.byType(EventAttackBlocked)
	if len(blocked) != 1 {
		t.Fatalf("expected exactly 1 attack_blocked, got %d", len(blocked))
	}
	snap := e.Snapshot()
	if snap.Score.BluePoints != blockedAward {
		t.Errorf("expected blue award %v, got %v", float64(blockedAward), snap.Score.BluePoints)
	}
	if snap.Score.Blue.AttacksBlocked != 1 {
		t.Errorf("expected 1 blocked, got %d", snap.Score.Blue.AttacksBlocked)
	}
	if snap.Score.Red.AttacksLaunched != 1 || snap.Score.Red.AttacksSuccessful != 0 {
		t.Errorf("launched must count, successful must not: %+v", snap.Score.Red)
	}
	if len(snap.Defenses) != 1 || snap.Defenses[0].Blocked != 1 {
		t.Errorf("expected shield block counter 1, got %+v", snap.Defenses)
	}
	if len(snap.Metrics.Compromised) != 0 {
		t.Errorf("blocked attack must not compromise: %v", snap.Metrics.Compromised)
	}
}

func TestEngine_AttackSucceedsWithoutDefense(t *testing.T) {
	w := &MockWriter{}
	e := newTestEngine(t, w, nil)
	scn := fastScenario(phaseAll("recon", 60))
	scn.TargetSystems = []string{"web-server"}
	scn.Phases[0].Defenses = nil
	if err := e.Start(scn); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := e.LaunchAttack("nuke"); err != nil {
		t.Fatalf("LaunchAttack: %v", err)
	}
	time.Sleep(150 * time.Millisecond)

	if got := w.byType(EventAttackSuccess); len(got) != 1 {
		t.Fatalf("expected 1 attack_success, got %d", len(got))
	}
	if got := w.byType(EventSystemCompromised); len(got) != 1 {
		t.Fatalf("expected 1 system_compromised, got %d", len(got))
	}
	if got := w.byType(EventCriticalMoment); len(got) == 0 {
		t.Error("critical severity success must emit a critical_moment")
	}

	snap := e.Snapshot()
	want := float64(launchAward + 40 + compromiseBonus)
	if snap.Score.RedPoints != want {
		t.Errorf("expected red points %v, got %v", want, snap.Score.RedPoints)
	}

	// A second success against the same target earns no second bonus.
	before := snap.Score.RedPoints
	if err := e.LaunchAttack("nuke"); err != nil {
		t.Fatalf("LaunchAttack: %v", err)
	}
	time.Sleep(150 * time.Millisecond)

	if got := w.byType(EventSystemCompromised); len(got) != 1 {
		t.Errorf("compromise bonus must be one-time, got %d events", len(got))
	}
	snap = e.Snapshot()
	if snap.Score.RedPoints != before+launchAward+40 {
		t.Errorf("expected %v red points, got %v", before+launchAward+40, snap.Score.RedPoints)
	}
	if snap.Score.Red.SystemsCompromised != 1 {
		t.Errorf("expected 1 compromised system, got %d", snap.Score.Red.SystemsCompromised)
	}
}

func TestEngine_TerminalStatusExactlyOnce(t *testing.T) {
	w := &MockWriter{}
	e := newTestEngine(t, w, nil)
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.LaunchAttack("strike"); err != nil {
		t.Fatalf("LaunchAttack: %v", err)
	}
	id := e.Snapshot().ActiveAttacks[0].ID
	time.Sleep(100 * time.Millisecond)

	// Extra resolution attempts against a terminal attack are no-ops.
	e.resolveAttack(id)
	e.resolveAttack(id)

	if got := w.byType(EventAttackBlocked); len(got) != 1 {
		t.Errorf("terminal status must be reached exactly once, got %d blocks", len(got))
	}
	if snap := e.Snapshot(); snap.Score.BluePoints != blockedAward {
		t.Errorf("expected single block award, got %v", snap.Score.BluePoints)
	}
}

func TestEngine_PhaseAdvance(t *testing.T) {
	w := &MockWriter{}
	clock := newFakeClock()
	e := newTestEngine(t, w, clock)
	scn := fastScenario(phaseAll("recon", 60), phaseAll("assault", 60))
	scn.Phases[1].Defenses = nil
	if err := e.Start(scn); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.Advance(61 * time.Second)
	e.tick()

	snap := e.Snapshot()
	if snap.PhaseIndex != 1 || snap.Phase != "assault" {
		t.Errorf("expected phase assault, got index %d phase %q", snap.PhaseIndex, snap.Phase)
	}
	if got := w.byType(EventPhaseChange); len(got) != 2 {
		t.Errorf("expected 2 phase_change events, got %d", len(got))
	}
	// The shield is not enabled in assault and must be retired.
	if len(snap.Defenses) != 0 {
		t.Errorf("expected defenses retired on phase change, got %+v", snap.Defenses)
	}
}

func TestEngine_CompleteAndWinner(t *testing.T) {
	w := &MockWriter{}
	clock := newFakeClock()
	e := newTestEngine(t, w, clock)
	scn := fastScenario(phaseAll("recon", 60))
	scn.Phases[0].Defenses = nil
	if err := e.Start(scn); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := e.LaunchAttack("strike"); err != nil {
		t.Fatalf("LaunchAttack: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	clock.Advance(61 * time.Second)
	e.tick()

	select {
	case <-e.Done():
	default:
		t.Fatal("done channel must be closed after completion")
	}
	if got := w.byType(EventBattleComplete); len(got) != 1 {
		t.Errorf("expected 1 battle_complete, got %d", len(got))
	}
	if e.Winner() != TeamRed {
		t.Errorf("expected red winner, got %q", e.Winner())
	}
	if e.Snapshot().Running {
		t.Error("engine must not be running after completion")
	}
	if err := e.LaunchAttack("strike"); err == nil {
		t.Error("launch after completion must fail")
	}
}

func TestEngine_DrawOnEqualPoints(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, nil, clock)
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.Advance(61 * time.Second)
	e.tick()

	if e.Winner() != WinnerDraw {
		t.Errorf("expected draw with no points, got %q", e.Winner())
	}
}

func TestEngine_TogglePause(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	if e.TogglePause() {
		t.Error("toggling a stopped engine must report not paused")
	}

	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !e.TogglePause() {
		t.Error("first toggle must pause")
	}
	if !e.Snapshot().Paused {
		t.Error("snapshot must report paused")
	}
	if e.TogglePause() {
		t.Error("second toggle must resume")
	}
	if e.Snapshot().Paused {
		t.Error("snapshot must report resumed")
	}
}

func TestEngine_PauseFreezesPhaseClock(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, nil, clock)
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.Advance(10 * time.Second)
	e.TogglePause()
	clock.Advance(20 * time.Second)

	if remain := e.Snapshot().PhaseRemain; remain != 50*time.Second {
		t.Errorf("expected 50s remaining while paused, got %s", remain)
	}

	e.TogglePause()
	if remain := e.Snapshot().PhaseRemain; remain != 50*time.Second {
		t.Errorf("expected 50s remaining after resume, got %s", remain)
	}

	// The paused interval must not count toward the phase.
	clock.Advance(30 * time.Second)
	e.tick()
	if snap := e.Snapshot(); snap.PhaseIndex != 0 {
		t.Errorf("phase advanced during pause accounting, index %d", snap.PhaseIndex)
	}
}

func TestEngine_StopSilencesAllTimers(t *testing.T) {
	w := &MockWriter{}
	e := newTestEngine(t, w, nil)
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := e.LaunchAttack("strike"); err != nil {
			t.Fatalf("LaunchAttack: %v", err)
		}
	}

	e.Stop()
	count := w.count()

	select {
	case <-e.Done():
	default:
		t.Fatal("done channel must be closed after stop")
	}
	if e.Winner() != "" {
		t.Errorf("manual stop must leave no winner, got %q", e.Winner())
	}

	// Well past every pending resolution and display window.
	time.Sleep(200 * time.Millisecond)
	if got := w.count(); got != count {
		t.Errorf("events emitted after stop: %d -> %d", count, got)
	}
	e.Stop() // idempotent
}

func TestEngine_EventLogBounded(t *testing.T) {
	e := NewEngine(Config{
		Registry:    fastRegistry(t),
		Rand:        rand.New(rand.NewSource(7)),
		EventLogCap: 5,
	})
	t.Cleanup(e.Stop)
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := e.LaunchAttack("strike"); err != nil {
			t.Fatalf("LaunchAttack: %v", err)
		}
	}
	if got := len(e.Snapshot().Events); got != 5 {
		t.Errorf("expected 5 retained events, got %d", got)
	}
}

func TestEngine_SubscribeLastWins(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	var mu sync.Mutex
	var calls []string
	e.Subscribe(EventAttackLaunched, func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, "first")
	})
	e.Subscribe(EventAttackLaunched, func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, "second")
	})
	var scoreEvents []Event
	e.Subscribe(EventScoreUpdate, func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		scoreEvents = append(scoreEvents, ev)
	})

	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.LaunchAttack("strike"); err != nil {
		t.Fatalf("LaunchAttack: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 || calls[0] != "second" {
		t.Errorf("expected only the last handler to run, got %v", calls)
	}
	if len(scoreEvents) == 0 {
		t.Fatal("expected score_update notifications for scoring events")
	}
	for _, ev := range scoreEvents {
		if ev.Points == 0 {
			t.Error("score_update must carry the applied points")
		}
	}
	// score_update is a notification, not part of the bounded log.
	for _, ev := range e.Snapshot().Events {
		if ev.Type == EventScoreUpdate {
			t.Error("score_update must not be appended to the event log")
		}
	}
}

func TestEngine_AutoAttack(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	scn := fastScenario(phaseAll("recon", 60))
	scn.AutoAttack = scenario.AutoAttack{Enabled: true, IntervalSeconds: 60, Kinds: []string{"strike"}}
	if err := e.Start(scn); err != nil {
		t.Fatalf("Start: %v", err)
	}

	e.autoAttack()
	snap := e.Snapshot()
	if len(snap.ActiveAttacks) != 1 || snap.ActiveAttacks[0].Kind != "strike" {
		t.Fatalf("expected one auto strike, got %+v", snap.ActiveAttacks)
	}

	e.TogglePause()
	e.autoAttack()
	if got := len(e.Snapshot().ActiveAttacks); got != 1 {
		t.Errorf("auto attack must not fire while paused, got %d attacks", got)
	}
}

type stubIntel struct {
	sum IntelSummary
	err error
}

func (s *stubIntel) Fetch(ctx context.Context) (IntelSummary, error) { return s.sum, s.err }

func TestEngine_IntelPoll(t *testing.T) {
	provider := &stubIntel{sum: IntelSummary{BannedIPs: 4, Incidents: 2}}
	e := NewEngine(Config{
		Registry: fastRegistry(t),
		Rand:     rand.New(rand.NewSource(7)),
		Intel:    provider,
	})
	t.Cleanup(e.Stop)
	if err := e.Start(fastScenario(phaseAll("recon", 60))); err != nil {
		t.Fatalf("Start: %v", err)
	}

	e.pollIntel()
	time.Sleep(50 * time.Millisecond)
	blue := e.Snapshot().Score.Blue
	if blue.BannedIPs != 4 || blue.IncidentsResolved != 2 {
		t.Errorf("intel counters not applied: %+v", blue)
	}

	// A failing poll leaves the previous readings in place.
	provider.err = fmt.Errorf("backend down")
	provider.sum = IntelSummary{}
	e.pollIntel()
	time.Sleep(50 * time.Millisecond)
	blue = e.Snapshot().Score.Blue
	if blue.BannedIPs != 4 || blue.IncidentsResolved != 2 {
		t.Errorf("failed poll must not change counters: %+v", blue)
	}
}
