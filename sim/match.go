package sim

import (
	"math"

	"github.com/pkg/errors"
	"github.com/tliron/commonlog"

	"github.com/hexaflex/skirmish/arch"
	"github.com/hexaflex/skirmish/trace"
	"github.com/hexaflex/skirmish/vm"
)

var log = commonlog.GetLogger("skirmish.sim")

// hitRadius is the distance at which a projectile strikes a robot.
const hitRadius = 0.5

// moveMargin keeps robots from driving flush into obstacles.
const moveMargin = 0.1

// RobotSpec describes one combatant to enter into a match.
type RobotSpec struct {
	Name    string
	Program *arch.Program
}

// Result is the outcome of a finished match.
type Result struct {
	Winner int // winning robot id, or -1 on a draw
	Turns  int
	Robots []*Robot
}

// projectile is one shot in flight. Speed is in units per cycle.
type projectile struct {
	x, y    float64
	heading float64
	speed   float64
	damage  float64
	source  int
}

// Match owns the arena, the robots and the deterministic scheduler.
// Within a cycle every VM ticks in stable id order; all physics
// resolve after the last VM has ticked, so no robot sees mid-cycle
// state of another.
type Match struct {
	cfg    Config
	seed   int64
	arena  *Arena
	robots []*Robot

	projectiles []projectile
	melee       []int // attacker ids queued this cycle

	turn int
	rec  *trace.Recorder
}

// NewMatch lays out the arena and creates one VM per robot spec.
// Robots spawn on a ring around the arena centre, facing inward.
func NewMatch(cfg Config, seed int64, specs []RobotSpec) (*Match, error) {
	if len(specs) < 1 {
		return nil, errors.New("a match needs at least one robot")
	}

	m := &Match{cfg: cfg, seed: seed}

	spawns := spawnRing(cfg, len(specs))
	m.arena = NewArena(cfg, seed, spawns)

	cx, cy := cfg.ArenaWidth/2, cfg.ArenaHeight/2
	vmcfg := cfg.VM()

	for i, spec := range specs {
		x, y := spawns[i][0], spawns[i][1]
		r := &Robot{
			ID:     i,
			Name:   spec.Name,
			X:      x,
			Y:      y,
			Health: cfg.StartingHealth,
			Status: Idle,
		}
		heading := r.headingTo(cx, cy)
		r.VM = vm.New(i, seed, heading, spec.Program, vmcfg, m, nil)
		m.robots = append(m.robots, r)
	}

	return m, nil
}

// spawnRing places n spawn points evenly on a circle around the
// arena centre.
func spawnRing(cfg Config, n int) [][2]float64 {
	cx, cy := cfg.ArenaWidth/2, cfg.ArenaHeight/2
	radius := math.Min(cfg.ArenaWidth, cfg.ArenaHeight) / 3

	out := make([][2]float64, n)
	for i := range out {
		rad := float64(i) / float64(n) * 2 * math.Pi
		out[i] = [2]float64{cx + radius*math.Cos(rad), cy + radius*math.Sin(rad)}
	}
	return out
}

// SetRecorder attaches a trace recorder receiving one snapshot per turn.
func (m *Match) SetRecorder(rec *trace.Recorder) {
	m.rec = rec
}

// Robots returns the combatants in id order.
func (m *Match) Robots() []*Robot {
	return m.robots
}

// Run plays the match to completion and returns the result.
func (m *Match) Run() Result {
	log.Infof("match start: %d robots, seed %d", len(m.robots), m.seed)

	for m.turn = 0; m.turn < m.cfg.MaxTurns; m.turn++ {
		for cycle := 0; cycle < m.cfg.CyclesPerTurn; cycle++ {
			m.stepCycle(m.turn, cycle)
			if m.aliveCount() <= 1 {
				m.record()
				return m.finish()
			}
		}
		m.record()
	}

	return m.finish()
}

// stepCycle advances the whole match by one cycle: every VM ticks,
// then the arena resolves physics.
func (m *Match) stepCycle(turn, cycle int) {
	for _, r := range m.robots {
		if !r.Alive() {
			continue
		}
		if r.Status == Idle {
			r.Status = Active
		}

		r.VM.SetStatus(r.Health, r.X, r.Y)
		if intent := r.VM.Tick(turn, cycle); intent != nil {
			m.apply(r, intent)
		}
		r.VM.StepComponents()
	}

	m.moveRobots()
	m.stepProjectiles()
	m.resolveMelee()
}

// apply consumes a component intent emitted by a VM this cycle.
// Rotation, drive and scan intents have already taken effect inside
// the VM's component machines; the arena acts on fire and melee.
func (m *Match) apply(r *Robot, intent *vm.Intent) {
	switch intent.Kind {
	case vm.IntentFire:
		t := r.VM.Turret()
		rad := t.Direction * math.Pi / 180
		m.projectiles = append(m.projectiles, projectile{
			x:       r.X + math.Cos(rad)*hitRadius,
			y:       r.Y + math.Sin(rad)*hitRadius,
			heading: t.Direction,
			speed:   m.cfg.ProjectileSpeed,
			damage:  m.cfg.ProjectileDamage * intent.Value,
			source:  r.ID,
		})
		log.Debugf("robot %d fired (power %.2f)", r.ID, intent.Value)

	case vm.IntentMelee:
		m.melee = append(m.melee, r.ID)

	default:
		log.Debugf("robot %d intent %s (%.2f)", r.ID, intent.Kind, intent.Value)
	}
}

// moveRobots advances every live robot along its drive heading,
// clamped against walls and obstacles.
func (m *Match) moveRobots() {
	for _, r := range m.robots {
		if !r.Alive() {
			continue
		}

		d := r.VM.Drive()
		step := d.Velocity / float64(m.cfg.CyclesPerTurn)
		if math.Abs(step) < 1e-9 {
			continue
		}

		heading := d.Direction
		if step < 0 {
			heading = math.Mod(heading+180, 360)
			step = -step
		}

		room := m.arena.Clearance(r.X, r.Y, heading) - moveMargin
		if room <= 0 {
			continue
		}
		if step > room {
			step = room
		}

		rad := heading * math.Pi / 180
		r.X += math.Cos(rad) * step
		r.Y += math.Sin(rad) * step
	}
}

// stepProjectiles advances every projectile and resolves hits.
// Earlier robots fired earlier, so shots resolve in id order.
func (m *Match) stepProjectiles() {
	live := m.projectiles[:0]

	for _, p := range m.projectiles {
		rad := p.heading * math.Pi / 180
		p.x += math.Cos(rad) * p.speed
		p.y += math.Sin(rad) * p.speed

		if m.arena.Blocked(p.x, p.y) {
			continue
		}

		if hit := m.projectileHit(p); hit != nil {
			hit.damage(p.damage, hit.headingTo(p.x, p.y))
			log.Debugf("robot %d hit robot %d for %.1f", p.source, hit.ID, p.damage)
			continue
		}

		live = append(live, p)
	}

	m.projectiles = live
}

// projectileHit returns the first robot in id order struck by the
// projectile, if any.
func (m *Match) projectileHit(p projectile) *Robot {
	for _, r := range m.robots {
		if r.ID == p.source || !r.Alive() {
			continue
		}
		if math.Hypot(r.X-p.x, r.Y-p.y) < hitRadius {
			return r
		}
	}
	return nil
}

// resolveMelee applies queued melee strikes in attacker id order.
func (m *Match) resolveMelee() {
	for _, id := range m.melee {
		attacker := m.robots[id]
		if !attacker.Alive() {
			continue
		}

		for _, r := range m.robots {
			if r.ID == id || !r.Alive() {
				continue
			}
			if math.Hypot(r.X-attacker.X, r.Y-attacker.Y) <= m.cfg.MeleeRange {
				r.damage(m.cfg.MeleeDamage, r.headingTo(attacker.X, attacker.Y))
				log.Debugf("robot %d struck robot %d in melee", id, r.ID)
			}
		}
	}

	m.melee = m.melee[:0]
}

func (m *Match) aliveCount() int {
	n := 0
	for _, r := range m.robots {
		if r.Alive() {
			n++
		}
	}
	return n
}

// record appends a per turn snapshot to the attached recorder.
func (m *Match) record() {
	if m.rec == nil {
		return
	}

	snap := trace.Snapshot{Turn: m.turn}
	for _, r := range m.robots {
		snap.Robots = append(snap.Robots, trace.RobotState{
			ID:     r.ID,
			Name:   r.Name,
			X:      r.X,
			Y:      r.Y,
			Health: r.Health,
			Power:  r.VM.Power(),
			Fault:  int(r.VM.Fault()),
			Alive:  r.Alive(),
		})
	}
	m.rec.Add(snap)
}

// finish determines the outcome.
func (m *Match) finish() Result {
	res := Result{Winner: -1, Turns: m.turn, Robots: m.robots}

	var winner *Robot
	for _, r := range m.robots {
		if !r.Alive() {
			continue
		}
		if winner != nil {
			winner = nil
			break
		}
		winner = r
	}

	if winner != nil {
		res.Winner = winner.ID
		log.Infof("match over: %s wins after %d turns", winner.Name, m.turn)
	} else {
		log.Infof("match over: draw after %d turns", m.turn)
	}

	if m.rec != nil {
		m.rec.Finish(res.Winner, res.Turns)
	}

	return res
}

// Clearance implements vm.Query.
func (m *Match) Clearance(x, y, heading float64) float64 {
	return m.arena.Clearance(x, y, heading)
}

// NearestTarget implements vm.Query. It returns the closest live
// robot inside the scan cone that has an unobstructed line of sight
// from the scanner.
func (m *Match) NearestTarget(self int, x, y, heading, fov, maxRange float64) (float64, float64, bool) {
	var (
		found    bool
		bestDist float64
		bestDir  float64
	)

	for _, r := range m.robots {
		if r.ID == self || !r.Alive() {
			continue
		}

		dist := math.Hypot(r.X-x, r.Y-y)
		if dist > maxRange || (found && dist >= bestDist) {
			continue
		}

		dir := math.Atan2(r.Y-y, r.X-x) * 180 / math.Pi
		if dir < 0 {
			dir += 360
		}

		if math.Abs(angleDiff(dir, heading)) > fov/2 {
			continue
		}

		// Line of sight: nothing blocks the ray short of the target.
		if m.arena.Clearance(x, y, dir) < dist-1e-6 {
			continue
		}

		found = true
		bestDist = dist
		bestDir = dir
	}

	return bestDist, bestDir, found
}

// angleDiff returns the signed smallest difference a-b in degrees,
// normalized to [-180, 180].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	switch {
	case d > 180:
		d -= 360
	case d < -180:
		d += 360
	}
	return d
}
