package sim

import (
	"testing"

	"github.com/hexaflex/skirmish/arch"
	"github.com/hexaflex/skirmish/asm"
	"github.com/hexaflex/skirmish/trace"
)

func compile(t *testing.T, cfg Config, source string) *arch.Program {
	t.Helper()
	prog, err := asm.Assemble(source, cfg.Constants())
	if err != nil {
		t.Fatalf("assembly failed: %v", err)
	}
	return prog
}

const idleProgram = "idle: jmp idle"

const gunnerProgram = `
	select 2
	fire 1.0
idle:
	jmp idle
`

func newTestMatch(t *testing.T, cfg Config, sources ...string) *Match {
	t.Helper()

	specs := make([]RobotSpec, len(sources))
	for i, src := range sources {
		specs[i] = RobotSpec{
			Name:    "robot",
			Program: compile(t, cfg, src),
		}
	}

	m, err := NewMatch(cfg, 1, specs)
	if err != nil {
		t.Fatalf("match setup failed: %v", err)
	}
	return m
}

func TestProjectileHitsOpponent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0
	cfg.MaxTurns = 2

	// The gunner spawns facing the centre, directly at the idler.
	m := newTestMatch(t, cfg, gunnerProgram, idleProgram)
	result := m.Run()

	if result.Winner != -1 {
		t.Fatalf("both robots survive: want a draw, have winner %d", result.Winner)
	}
	if have := m.Robots()[1].Health; have != 90 {
		t.Fatalf("want the idler at 90 health after one hit, have %v", have)
	}
	if have := m.Robots()[0].Health; have != 100 {
		t.Fatalf("the gunner must be unharmed, have %v", have)
	}
}

func TestLethalShotEndsMatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0
	cfg.ProjectileDamage = 100

	m := newTestMatch(t, cfg, gunnerProgram, idleProgram)
	result := m.Run()

	if result.Winner != 0 {
		t.Fatalf("want the gunner to win, have %d", result.Winner)
	}
	if m.Robots()[1].Status != Destroyed {
		t.Fatalf("want the idler destroyed, have %s", m.Robots()[1].Status)
	}
	if result.Turns >= cfg.MaxTurns {
		t.Fatal("a lethal hit must end the match early")
	}
}

func TestIdleMatchIsDraw(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0
	cfg.MaxTurns = 2

	m := newTestMatch(t, cfg, idleProgram, idleProgram)
	result := m.Run()

	if result.Winner != -1 {
		t.Fatalf("want a draw, have winner %d", result.Winner)
	}
	if result.Turns != 2 {
		t.Fatalf("want the full 2 turns, have %d", result.Turns)
	}
}

func TestMeleeStrike(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0
	cfg.MaxTurns = 1
	cfg.MeleeRange = 20 // everything in reach

	m := newTestMatch(t, cfg, "select 2\nattack\nidle: jmp idle", idleProgram)
	m.Run()

	if have := m.Robots()[1].Health; have != 100-cfg.MeleeDamage {
		t.Fatalf("want melee damage applied, health %v", have)
	}
}

func TestFaultIsolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0
	cfg.MaxTurns = 1

	m := newTestMatch(t, cfg, "pop @d0", idleProgram)
	m.Run()

	broken, bystander := m.Robots()[0], m.Robots()[1]

	if broken.VM.Fault() != arch.FaultStackUnderflow {
		t.Fatalf("want stack underflow, have %v", broken.VM.Fault())
	}
	if !broken.Alive() {
		t.Fatal("a faulted robot stays in the arena")
	}
	if bystander.VM.Fault() != arch.FaultNone {
		t.Fatal("faults must not leak between robots")
	}
}

func TestMatchDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTurns = 3

	play := func() Result {
		m := newTestMatch(t, cfg, gunnerProgram, "select 1\ndrive 3\nidle: jmp idle")
		return m.Run()
	}

	a := play()
	b := play()

	if a.Winner != b.Winner || a.Turns != b.Turns {
		t.Fatalf("outcomes differ: %+v vs %+v", a, b)
	}
	for i := range a.Robots {
		ra, rb := a.Robots[i], b.Robots[i]
		if ra.X != rb.X || ra.Y != rb.Y || ra.Health != rb.Health {
			t.Fatalf("robot %d state diverged: (%v,%v,%v) vs (%v,%v,%v)",
				i, ra.X, ra.Y, ra.Health, rb.X, rb.Y, rb.Health)
		}
	}
}

func TestScanFindsOpponent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0
	cfg.MaxTurns = 1

	// The scanner spawns facing the centre, so the opponent sits dead
	// ahead inside the cone.
	m := newTestMatch(t, cfg, "select 2\nscan\nidle: jmp idle", idleProgram)
	m.Run()

	scanner := m.Robots()[0].VM
	if have := scanner.Registers().Get(arch.TargetDistance); have == 0 {
		t.Fatal("want the scan to find the opponent")
	}
}

func TestRecorderSnapshots(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ObstacleDensity = 0
	cfg.MaxTurns = 3

	m := newTestMatch(t, cfg, idleProgram, idleProgram)
	rec := trace.NewRecorder(1)
	m.SetRecorder(rec)
	m.Run()

	replay := rec.Replay()
	if len(replay.Snapshots) != 3 {
		t.Fatalf("want 3 snapshots, have %d", len(replay.Snapshots))
	}
	if len(replay.Snapshots[0].Robots) != 2 {
		t.Fatalf("want 2 robots per snapshot, have %d", len(replay.Snapshots[0].Robots))
	}
	if replay.Winner != -1 || replay.Turns != 3 {
		t.Fatalf("unexpected outcome in replay: winner %d, turns %d", replay.Winner, replay.Turns)
	}
}
