package systems

import (
	"math/rand"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/echothief/components"
	"github.com/pthm-cable/echothief/noise"
)

// minAmbientInterval keeps a badly configured source from pinging every tick.
const minAmbientInterval = 0.05

// AmbientJitter supplies smooth, seeded interval jitter for ambient sources.
type AmbientJitter struct {
	field opensimplex.Noise
}

// NewAmbientJitter creates a jitter source.
func NewAmbientJitter(seed int64) *AmbientJitter {
	return &AmbientJitter{field: opensimplex.NewNormalized(seed)}
}

// Sample returns a value in [-1, 1] for the given source and ping count.
func (j *AmbientJitter) Sample(seed float64, n int) float64 {
	if j == nil {
		return 0
	}
	v := j.field.Eval2(seed, float64(n)*0.37)*2 - 1
	return max(-1, min(1, v))
}

// InitAmbient places the first ping at a random phase in [0, interval) so
// sources placed together do not ping in lockstep.
func InitAmbient(em *components.AmbientEmitter, rng *rand.Rand) {
	if rng == nil || em.Interval <= 0 {
		em.Timer = em.Interval
		return
	}
	em.Timer = rng.Float64() * em.Interval
	em.Seed = rng.Float64() * 1000
}

// UpdateAmbient advances one source and emits a ping when its timer runs out.
// It returns whether a ping was emitted.
func UpdateAmbient(dt float64, pos r3.Vec, source uuid.UUID, em *components.AmbientEmitter, bus *noise.Bus, jitter *AmbientJitter) bool {
	if em.Interval <= 0 || bus == nil {
		return false
	}

	em.Timer -= dt
	if em.Timer > 0 {
		return false
	}

	bus.Emit(em.Profile.At(pos, source))
	em.Emitted++

	next := em.Interval + em.Variance*jitter.Sample(em.Seed, em.Emitted)
	em.Timer = max(next, minAmbientInterval)
	return true
}
