package rhythm

import (
	"math"

	"github.com/bretbouchard/whiteroom-rhythm/core"
	"github.com/bretbouchard/whiteroom-rhythm/parameter"
	"github.com/bretbouchard/whiteroom-rhythm/vmath"
)

// scheduleMicroBurst expands one step cell into a burst of sample-accurate
// micro-hits on the mode's grid. effAmount is the composition layer's
// effective drill amount for this step.
//
// Burst times are computed in seconds from the step start and materialised
// to sample offsets at dispatch only, with round-half-to-even.
func (s *Sequencer) scheduleMicroBurst(voice core.VoiceType, cell *StepCell, mode DrillMode, effAmount float64) {
	sps := s.samplesPerStep
	stepDur := sps / s.sampleRate // seconds

	// The drill path derives its own timing; the groove offset for this
	// trigger is zero.
	cell.TimingOffset = 0

	if !mode.Enabled || effAmount <= parameter.DrillAmountEpsilon || mode.MaxBurst <= 1 {
		// Single-hit fallback. The offset is validated against the step
		// window but the hit is emitted at offset 0; see release notes.
		sampleDelay := int(math.RoundToEven(cell.TimingOffset * sps))
		if sampleDelay >= 0 && float64(sampleDelay) < sps {
			s.dispatch(voice, quantizeVelocity(float64(cell.Velocity)/127.0), 0)
		}
		return
	}

	lo := mode.MinBurst
	if lo < 1 {
		lo = 1
	}
	hi := mode.MaxBurst
	if hi < lo {
		hi = lo
	}
	if hi > parameter.MaxBurst {
		hi = parameter.MaxBurst
	}

	effAmt := effAmount * mode.TemporalAggression

	burst := int(math.Round(float64(lo) + effAmt*float64(hi-lo)))
	burst = vmath.ClampInt(burst, lo, hi)

	// Mutation re-samples the burst size uniformly. The chance draw is
	// consumed even when the rate is zero so the stream stays aligned.
	if s.rng.Next01() < mode.MutationRate*mode.TemporalAggression*effAmt {
		burst = s.rng.RangeInt(lo, hi)
	}

	chaos := mode.Chaos
	dropout := mode.Dropout
	if cell.UseDrill {
		burst = vmath.ClampInt(cell.BurstCount, 1, parameter.MaxCellBurst)
		chaos = cell.BurstChaos
		dropout = cell.BurstDropout
	}

	slots := burst
	switch mode.Grid {
	case core.GridTriplet:
		slots = 3
	case core.GridQuintuplet:
		slots = 5
	case core.GridSeptuplet:
		slots = 7
	case core.GridRandomPrime:
		u := s.rng.Next01()
		switch {
		case u < 0.45:
			slots = 5
		case u < 0.90:
			slots = 7
		default:
			slots = 11
		}
	}
	if slots < 1 {
		slots = 1
	}

	chaosSec := chaos * mode.TemporalAggression * effAmt * (mode.Spread * stepDur * 0.35)

	for i := 0; i < burst; i++ {
		pos01 := 0.0
		if burst > 1 {
			pos01 = float64(i) / float64(burst-1)
		}
		slot := vmath.ClampInt(int(math.Round(pos01*float64(slots-1))), 0, slots-1)
		slotPos01 := 0.0
		if slots > 1 {
			slotPos01 = float64(slot) / float64(slots-1)
		}

		t := slotPos01 * stepDur * mode.Spread
		t += s.rng.NextSigned() * chaosSec
		t = vmath.Clamp(t, 0, stepDur)

		if s.rng.Next01() < dropout*effAmt {
			continue
		}

		v := float64(cell.Velocity) / 127.0
		v *= math.Pow(1.0-mode.VelDecay, float64(i))
		if s.rng.Next01() < mode.AccentFlip*effAmt {
			v *= 0.8 + s.rng.Next01()*0.6
		}
		v = vmath.Clamp01(v)

		so := int(math.RoundToEven(t / stepDur * sps))
		if so < 0 {
			so = 0
		}
		for float64(so) >= sps {
			so--
		}

		if !s.dispatch(voice, quantizeVelocity(v), so) {
			// Block cap reached: the remainder of this burst is dropped.
			break
		}
	}
}

// quantizeVelocity collapses a unit velocity onto the 7-bit MIDI grid so the
// dispatched value is identical across platforms.
func quantizeVelocity(v float64) float64 {
	m := int(vmath.Clamp01(v) * 127.0)
	return float64(m) / 127.0
}
