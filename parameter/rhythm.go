package parameter

// Grid geometry. The core is fixed 4/4 at 16th-note resolution.
const (
	NumTracks    = 16
	PatternSteps = 16 // cells per track
	StepsPerBeat = 4  // 16th notes
	BeatsPerBar  = 4
	StepsPerBar  = StepsPerBeat * BeatsPerBar // 16
)

// Tempo and timing.
const (
	DefaultBPM = 120.0
	MinBPM     = 20.0
	MaxBPM     = 999.0

	DefaultSwing = 0.0
	MaxSwing     = 1.0
)

// Drill limits.
const (
	MaxBurst             = 24  // micro-hits per burst, absolute ceiling
	MaxCellBurst         = 16  // per-cell burst count ceiling
	MaxMicroHitsPerBlock = 256 // hard per-block trigger cap
	DrillAmountEpsilon   = 1e-4
)

// Groove timing defaults (fractions of a step).
const (
	DefaultPocketOffset = 0.0
	DefaultPushOffset   = -0.04
	DefaultPullOffset   = +0.06
	DefaultMaxDrift     = 0.05
)

// Flam pre-hit lead time in seconds and its velocity scale.
const (
	FlamLeadSeconds  = 0.010
	FlamVelocityMul  = 0.7
	MaxRollNotes     = PatternSteps
	DefaultVelocity  = 100
	MaxMIDIVelocity  = 127
)

// Audio.
const (
	DefaultSampleRate = 48000.0
	MinSampleRate     = 8000.0
	DefaultBlockSize  = 512
)

// SamplesPerStep returns the 16th-note step duration in samples.
// Duration = 60*sampleRate / (bpm*4).
func SamplesPerStep(bpm, sampleRate float64) float64 {
	return sampleRate * 60.0 / (bpm * StepsPerBeat)
}

// SamplesPerBar returns the bar duration in samples.
func SamplesPerBar(bpm, sampleRate float64) float64 {
	return SamplesPerStep(bpm, sampleRate) * StepsPerBar
}
