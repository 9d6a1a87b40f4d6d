package systems

import (
	"math/rand"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/noise"
)

// HearingConfig holds per-agent hearing parameters.
type HearingConfig struct {
	BaseRange float64 // hearing range for a loudness-1 noise
	MaxError  float64 // perception error radius at the edge of range
}

// Listener is the agent a Hearing reports to.
type Listener interface {
	Position() r3.Vec
	OnNoiseHeard(perceived r3.Vec, loudness float64)
}

// Hearing decides whether an agent hears a noise and where it thinks the
// noise came from. Precision falls off smoothly with distance: a noise at
// point-blank range is located exactly, one at the edge of range is
// displaced by up to MaxError in the horizontal plane.
type Hearing struct {
	self     uuid.UUID
	cfg      HearingConfig
	rng      *rand.Rand
	listener Listener

	bus    *noise.Bus
	handle noise.Handle

	observer HeardFunc
}

// HeardFunc observes every noise a Hearing accepts, with its true event and
// the perceived origin, before the listener is told.
type HeardFunc func(ev noise.Event, perceived r3.Vec)

// NewHearing creates a hearing component for the agent identified by self.
func NewHearing(self uuid.UUID, cfg HearingConfig, rng *rand.Rand, listener Listener) *Hearing {
	return &Hearing{
		self:     self,
		cfg:      cfg,
		rng:      rng,
		listener: listener,
	}
}

// SetObserver installs fn as the heard-noise observer. nil removes it.
func (h *Hearing) SetObserver(fn HeardFunc) {
	h.observer = fn
}

// Attach subscribes to bus. Attaching again moves the subscription.
func (h *Hearing) Attach(bus *noise.Bus) {
	h.Detach()
	h.bus = bus
	h.handle = bus.Subscribe(h.HandleNoise)
}

// Detach releases the bus subscription, if any.
func (h *Hearing) Detach() {
	if h.bus == nil {
		return
	}
	h.bus.Unsubscribe(h.handle)
	h.bus = nil
	h.handle = 0
}

// Attached reports whether the component holds a live subscription.
func (h *Hearing) Attached() bool {
	return h.bus != nil
}

// HandleNoise is the bus handler: it filters, perceives and forwards.
func (h *Hearing) HandleNoise(ev noise.Event) {
	if h.listener == nil {
		return
	}
	perceived, ok := h.Perceive(h.listener.Position(), ev)
	if !ok {
		return
	}
	if h.observer != nil {
		h.observer(ev, perceived)
	}
	h.listener.OnNoiseHeard(perceived, ev.Loudness)
}

// Perceive evaluates ev for a listener at pos. It returns the perceived
// origin and whether the noise is audible. The agent's own noises are never
// audible.
func (h *Hearing) Perceive(pos r3.Vec, ev noise.Event) (r3.Vec, bool) {
	if ev.Source != uuid.Nil && ev.Source == h.self {
		return r3.Vec{}, false
	}

	effectiveRange := h.cfg.BaseRange * ev.Loudness
	if effectiveRange <= 0 {
		return r3.Vec{}, false
	}

	distance := r3.Norm(r3.Sub(ev.Origin, pos))
	if distance > effectiveRange {
		return r3.Vec{}, false
	}

	radius := ErrorRadius(h.cfg.MaxError, distance, effectiveRange)
	offset := r3.Scale(radius, randomInUnitSphere(h.rng))
	offset.Y = 0

	return r3.Add(ev.Origin, offset), true
}

// ErrorRadius is the perception error bound for a noise heard at distance
// within effectiveRange: maxError * (1 - accuracy), accuracy = 1 - d/range.
func ErrorRadius(maxError, distance, effectiveRange float64) float64 {
	if effectiveRange <= 0 || maxError <= 0 {
		return 0
	}
	accuracy := 1 - distance/effectiveRange
	return maxError * (1 - clamp01(accuracy))
}

// randomInUnitSphere samples uniformly inside the unit ball by rejection.
func randomInUnitSphere(rng *rand.Rand) r3.Vec {
	if rng == nil {
		return r3.Vec{}
	}
	for {
		v := r3.Vec{
			X: rng.Float64()*2 - 1,
			Y: rng.Float64()*2 - 1,
			Z: rng.Float64()*2 - 1,
		}
		if r3.Norm2(v) <= 1 {
			return v
		}
	}
}
