package systems

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/noise"
)

// Pulse is a single expanding sonar ring.
type Pulse struct {
	Origin         r3.Vec
	CurrentRadius  float64
	MaxRadius      float64
	ExpansionSpeed float64
	RingThickness  float64
	Age            float64
	MaxAge         float64
	Color          noise.Color
}

// Alive reports whether the pulse has time left.
func (p *Pulse) Alive() bool {
	return p.Age < p.MaxAge
}

// Fade returns 1 for a fresh pulse falling to 0 at MaxAge.
func (p *Pulse) Fade() float64 {
	if p.MaxAge <= 0 {
		return 0
	}
	return clamp01(1 - p.Age/p.MaxAge)
}

// advance ages the pulse and grows its radius up to MaxRadius.
func (p *Pulse) advance(dt float64) {
	p.Age += dt
	p.CurrentRadius = min(p.CurrentRadius+p.ExpansionSpeed*dt, p.MaxRadius)
}

// PulseSlot is one entry of the fixed-width render snapshot.
// Unused slots are zero: radius 0, fade 0, transparent color.
type PulseSlot struct {
	Origin    r3.Vec
	Radius    float64
	Thickness float64
	Fade      float64
	Color     noise.Color
}

// PulseRenderer consumes a fixed-length slot array once per tick.
// live is the number of leading slots that hold real pulses.
type PulseRenderer interface {
	RenderPulses(slots []PulseSlot, live int)
}

// PulseDefaults are the per-pulse parameters the pool applies on spawn.
type PulseDefaults struct {
	ExpansionSpeed float64
	RingThickness  float64
	MaxAge         float64
}

// PulsePool owns the bounded set of live pulses, oldest first.
// When full, admitting a new pulse evicts the oldest one.
type PulsePool struct {
	mu       sync.Mutex
	pulses   []Pulse
	capacity int
	defaults PulseDefaults

	spawned int
	evicted int
}

// NewPulsePool creates a pool holding at most capacity pulses.
// A capacity of zero or less rejects every spawn.
func NewPulsePool(capacity int, defaults PulseDefaults) *PulsePool {
	if capacity < 0 {
		capacity = 0
	}
	return &PulsePool{
		pulses:   make([]Pulse, 0, capacity),
		capacity: capacity,
		defaults: defaults,
	}
}

// OnNoise spawns a ring for a noise event. It is the pool's bus handler.
func (p *PulsePool) OnNoise(ev noise.Event) {
	p.Spawn(ev.Origin, ev.SonarRadius, ev.SonarColor)
}

// Spawn admits a new pulse. Returns false if the pool has no capacity.
func (p *PulsePool) Spawn(origin r3.Vec, maxRadius float64, color noise.Color) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.capacity == 0 {
		return false
	}
	if maxRadius < 0 {
		maxRadius = 0
	}

	if len(p.pulses) >= p.capacity {
		// Drop the oldest ring
		copy(p.pulses, p.pulses[1:])
		p.pulses = p.pulses[:len(p.pulses)-1]
		p.evicted++
	}

	p.pulses = append(p.pulses, Pulse{
		Origin:         origin,
		MaxRadius:      maxRadius,
		ExpansionSpeed: p.defaults.ExpansionSpeed,
		RingThickness:  p.defaults.RingThickness,
		MaxAge:         p.defaults.MaxAge,
		Color:          color,
	})
	p.spawned++
	return true
}

// Tick advances every pulse by dt and removes the expired ones,
// keeping survivors in order.
func (p *PulsePool) Tick(dt float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	alive := 0
	for i := range p.pulses {
		pulse := &p.pulses[i]
		pulse.advance(dt)
		if !pulse.Alive() {
			continue
		}
		p.pulses[alive] = p.pulses[i]
		alive++
	}
	clear(p.pulses[alive:])
	p.pulses = p.pulses[:alive]
}

// SnapshotInto fills every entry of dst: live pulses first, zeroed slots
// after. Returns the number of live entries written.
func (p *PulsePool) SnapshotInto(dst []PulseSlot) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	live := min(len(p.pulses), len(dst))
	for i := 0; i < live; i++ {
		pulse := &p.pulses[i]
		dst[i] = PulseSlot{
			Origin:    pulse.Origin,
			Radius:    pulse.CurrentRadius,
			Thickness: pulse.RingThickness,
			Fade:      pulse.Fade(),
			Color:     pulse.Color,
		}
	}
	clear(dst[live:])
	return live
}

// Snapshot returns exactly maxSlots entries.
func (p *PulsePool) Snapshot(maxSlots int) []PulseSlot {
	if maxSlots < 0 {
		maxSlots = 0
	}
	slots := make([]PulseSlot, maxSlots)
	p.SnapshotInto(slots)
	return slots
}

// Publish writes the snapshot into buf and hands it to r.
// Call after Tick, never concurrently with it.
func (p *PulsePool) Publish(r PulseRenderer, buf []PulseSlot) {
	if r == nil {
		return
	}
	live := p.SnapshotInto(buf)
	r.RenderPulses(buf, live)
}

// Pulses returns a copy of the live pulses, oldest first.
func (p *PulsePool) Pulses() []Pulse {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Pulse, len(p.pulses))
	copy(out, p.pulses)
	return out
}

// Count returns the number of live pulses.
func (p *PulsePool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pulses)
}

// Capacity returns the pool size fixed at construction.
func (p *PulsePool) Capacity() int {
	return p.capacity
}

// Counters returns cumulative spawn and eviction counts.
func (p *PulsePool) Counters() (spawned, evicted int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.spawned, p.evicted
}

// Reset drops every live pulse and zeroes the counters.
func (p *PulsePool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.pulses)
	p.pulses = p.pulses[:0]
	p.spawned = 0
	p.evicted = 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
