package systems

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/noise"
)

// State is a guard's alert state.
type State uint8

const (
	StatePatrol State = iota
	StateSuspicious
	StateAlerted
	StateChasing
)

func (s State) String() string {
	switch s {
	case StatePatrol:
		return "patrol"
	case StateSuspicious:
		return "suspicious"
	case StateAlerted:
		return "alerted"
	case StateChasing:
		return "chasing"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// GuardConfig holds the tuning shared by all guards.
type GuardConfig struct {
	SuspiciousTimeout float64
	AlertedTimeout    float64
	CatchDistance     float64
	ChaseDistance     float64 // Alerted escalates when the player is strictly closer than this

	PatrolSpeed     float64
	SuspiciousSpeed float64
	AlertedSpeed    float64
	ChaseSpeed      float64
	TurnRate        float64 // facing smoothing rate while suspicious, per second

	ArrivalTolerance float64

	Footstep         noise.Profile
	FootstepInterval float64
	FootstepMinSpeed float64
}

// DefaultGuardConfig returns the stock guard tuning.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		SuspiciousTimeout: 4,
		AlertedTimeout:    6,
		CatchDistance:     1.5,
		ChaseDistance:     4.5,
		PatrolSpeed:       2,
		SuspiciousSpeed:   1.5,
		AlertedSpeed:      3,
		ChaseSpeed:        5,
		TurnRate:          3,
		ArrivalTolerance:  DefaultArrivalTolerance,
		Footstep: noise.Profile{
			Loudness: 0.1,
			Radius:   4,
			Color:    noise.Color{R: 1, G: 0.24, B: 0, A: 1},
		},
		FootstepInterval: 0.6,
		FootstepMinSpeed: 0.1,
	}
}

// CatchReporter receives the player-caught notification.
type CatchReporter interface {
	PlayerCaught()
}

// TransitionFunc observes guard state changes.
type TransitionFunc func(g *Guard, from, to State)

// GuardSpec describes one guard to construct.
type GuardSpec struct {
	ID       uuid.UUID
	Name     string
	Position r3.Vec
	Config   GuardConfig
	Hearing  HearingConfig
	Route    PatrolRoute
}

// GuardDeps are the collaborators a guard talks to.
type GuardDeps struct {
	Bus          *noise.Bus
	Nav          Navigator
	Reporter     CatchReporter
	OnTransition TransitionFunc
	OnHeard      HeardFunc
	Rng          *rand.Rand
	Logger       *slog.Logger
}

// guardState is the per-state payload. Each state carries only the data it
// uses, so a timer left over from one state cannot leak into another.
type guardState interface {
	kind() State
}

type patrolling struct{}

type suspicious struct {
	timer float64
}

type alerted struct {
	timer float64
}

type chasing struct {
	caught bool // latched while the player stays inside catch distance
}

func (*patrolling) kind() State { return StatePatrol }
func (*suspicious) kind() State { return StateSuspicious }
func (*alerted) kind() State    { return StateAlerted }
func (*chasing) kind() State    { return StateChasing }

// Guard is the per-guard perception and decision state machine.
//
//	Patrol     --noise-->            Suspicious
//	Suspicious --noise-->            Alerted
//	Suspicious --timeout-->          Patrol
//	Alerted    --noise-->            Alerted (new target, timer restarted)
//	Alerted    --arrived+timeout-->  Patrol
//	Alerted    --player close-->     Chasing
//
// Chasing has no exit; it reports a catch when the player is within reach.
// The guard also emits its own footsteps onto the bus while moving.
type Guard struct {
	id   uuid.UUID
	name string
	cfg  GuardConfig

	nav          Navigator
	bus          *noise.Bus
	reporter     CatchReporter
	onTransition TransitionFunc
	logger       *slog.Logger

	patrol  *Patrol
	hearing *Hearing

	state         guardState
	pos           r3.Vec
	facing        float64 // yaw in radians, 0 faces +Z
	lastHeard     r3.Vec
	footstepTimer float64
}

// NewGuard builds a guard, subscribes its hearing to the bus and enters Patrol.
func NewGuard(spec GuardSpec, deps GuardDeps) *Guard {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := spec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	g := &Guard{
		id:           id,
		name:         spec.Name,
		cfg:          spec.Config,
		nav:          deps.Nav,
		bus:          deps.Bus,
		reporter:     deps.Reporter,
		onTransition: deps.OnTransition,
		logger:       logger,
		patrol:       NewPatrol(spec.Route, spec.Config.ArrivalTolerance),
		pos:          spec.Position,
	}
	g.hearing = NewHearing(id, spec.Hearing, deps.Rng, g)
	g.hearing.SetObserver(deps.OnHeard)
	if g.bus != nil {
		g.hearing.Attach(g.bus)
	}

	g.state = &patrolling{}
	g.enterPatrol()
	return g
}

// ID returns the guard's identity, used as the source of its own noises.
func (g *Guard) ID() uuid.UUID { return g.id }

// Name returns the guard's display name.
func (g *Guard) Name() string { return g.name }

// State returns the current alert state.
func (g *Guard) State() State { return g.state.kind() }

// Position returns the position from the last Update or SetPosition.
func (g *Guard) Position() r3.Vec { return g.pos }

// SetPosition moves the guard's listening position without running its state
// machine. Call it for every guard once movement is resolved in a tick so noises
// emitted during other guards' updates are judged against current positions.
func (g *Guard) SetPosition(pos r3.Vec) { g.pos = pos }

// Facing returns the yaw in radians.
func (g *Guard) Facing() float64 { return g.facing }

// LastHeardPosition returns where the guard believes the last noise came from.
func (g *Guard) LastHeardPosition() r3.Vec { return g.lastHeard }

// Patrol returns the guard's patrol controller.
func (g *Guard) Patrol() *Patrol { return g.patrol }

// Timer returns the countdown of the current state, or 0 for untimed states.
func (g *Guard) Timer() float64 {
	switch s := g.state.(type) {
	case *suspicious:
		return s.timer
	case *alerted:
		return s.timer
	}
	return 0
}

// AlertLevel maps the state onto [0, 1] for display.
func (g *Guard) AlertLevel() float64 {
	return float64(g.state.kind()) / float64(StateChasing)
}

// Detach releases the guard's bus subscription. Call when removing the guard.
func (g *Guard) Detach() {
	g.hearing.Detach()
}

// OnNoiseHeard is called by the guard's hearing with the perceived origin.
func (g *Guard) OnNoiseHeard(perceived r3.Vec, loudness float64) {
	g.lastHeard = perceived

	switch s := g.state.(type) {
	case *patrolling:
		g.enterSuspicious()
	case *suspicious:
		g.enterAlerted()
	case *alerted:
		// Refresh, never demote
		if g.nav != nil {
			g.nav.SetDestination(g.lastHeard)
		}
		s.timer = g.cfg.AlertedTimeout
	case *chasing:
		// Keep chasing; the new position is only remembered
	}
}

// Update runs one tick. pos is the guard's current position; player is the
// live player position, or nil if there is no player.
func (g *Guard) Update(dt float64, pos r3.Vec, player *r3.Vec) {
	g.pos = pos

	switch s := g.state.(type) {
	case *suspicious:
		s.timer -= dt
	case *alerted:
		s.timer -= dt
	}

	switch s := g.state.(type) {
	case *patrolling:
		g.patrol.Advance(dt, g.nav)
		g.faceVelocity()
	case *suspicious:
		g.faceToward(g.lastHeard, dt)
		if s.timer <= 0 {
			g.enterPatrol()
		}
	case *alerted:
		g.updateAlerted(s, player)
		g.faceVelocity()
	case *chasing:
		g.updateChasing(s, player)
		g.faceVelocity()
	}

	g.updateFootsteps(dt)
}

func (g *Guard) updateAlerted(s *alerted, player *r3.Vec) {
	if g.arrived() && s.timer <= 0 {
		g.enterPatrol()
		return
	}

	if player != nil && g.distanceTo(*player) < g.cfg.ChaseDistance {
		g.enterChasing()
	}
}

func (g *Guard) updateChasing(s *chasing, player *r3.Vec) {
	if player == nil {
		return
	}
	if g.nav != nil {
		g.nav.SetDestination(*player)
	}

	if g.distanceTo(*player) > g.cfg.CatchDistance {
		s.caught = false
		return
	}
	if s.caught {
		return
	}
	s.caught = true
	g.logger.Info("player caught", "guard", g.name)
	if g.reporter != nil {
		g.reporter.PlayerCaught()
	}
}

// arrived reports whether navigation has reached its destination.
func (g *Guard) arrived() bool {
	if g.nav == nil {
		return true
	}
	return !g.nav.PathPending() && g.nav.RemainingDistance() < g.cfg.ArrivalTolerance
}

func (g *Guard) distanceTo(p r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, g.pos))
}

func (g *Guard) enterPatrol() {
	g.setState(&patrolling{})
	g.setSpeed(g.cfg.PatrolSpeed)
	g.patrol.Resume()
	g.patrol.SetDestination(g.nav)
}

func (g *Guard) enterSuspicious() {
	g.setState(&suspicious{timer: g.cfg.SuspiciousTimeout})
	g.setSpeed(g.cfg.SuspiciousSpeed)
	if g.nav != nil {
		g.nav.ResetPath() // stop and look
	}
}

func (g *Guard) enterAlerted() {
	g.setState(&alerted{timer: g.cfg.AlertedTimeout})
	g.setSpeed(g.cfg.AlertedSpeed)
	if g.nav != nil {
		g.nav.SetDestination(g.lastHeard)
	}
}

func (g *Guard) enterChasing() {
	g.setState(&chasing{})
	g.setSpeed(g.cfg.ChaseSpeed)
}

func (g *Guard) setState(next guardState) {
	from := g.state.kind()
	g.state = next
	to := next.kind()

	if from == to {
		return
	}
	g.logger.Debug("guard state", "guard", g.name, "from", from.String(), "to", to.String())
	if g.onTransition != nil {
		g.onTransition(g, from, to)
	}
}

func (g *Guard) setSpeed(speed float64) {
	if g.nav != nil {
		g.nav.SetSpeed(speed)
	}
}

// faceToward turns the guard toward target at the configured smoothing rate.
func (g *Guard) faceToward(target r3.Vec, dt float64) {
	dir := r3.Sub(target, g.pos)
	dir.Y = 0
	if r3.Norm(dir) <= 0.1 {
		return
	}
	want := math.Atan2(dir.X, dir.Z)
	t := min(dt*g.cfg.TurnRate, 1)
	g.facing = normalizeAngle(g.facing + normalizeAngle(want-g.facing)*t)
}

// faceVelocity points the guard along its horizontal movement.
func (g *Guard) faceVelocity() {
	if g.nav == nil {
		return
	}
	v := g.nav.Velocity()
	v.Y = 0
	if r3.Norm(v) < g.cfg.FootstepMinSpeed || r3.Norm(v) == 0 {
		return
	}
	g.facing = math.Atan2(v.X, v.Z)
}

// updateFootsteps emits a quiet footstep noise on a fixed interval while moving.
func (g *Guard) updateFootsteps(dt float64) {
	if g.nav == nil || g.bus == nil {
		return
	}
	if r3.Norm(g.nav.Velocity()) < g.cfg.FootstepMinSpeed {
		return
	}

	g.footstepTimer -= dt
	if g.footstepTimer > 0 {
		return
	}
	g.footstepTimer = g.cfg.FootstepInterval
	g.bus.Emit(g.cfg.Footstep.At(g.pos, g.id))
}

// normalizeAngle wraps angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
