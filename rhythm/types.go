// Package rhythm is the rhythm-generation core: a deterministic sixteen-track
// step sequencer with groove timing (swing, role offsets, Dilla drift), a
// micro-burst drill engine, and a bar-indexed composition layer (automation,
// fills, gating, phrase awareness). The only external surface it needs is a
// VoiceBank to excite.
package rhythm

import (
	"github.com/bretbouchard/whiteroom-rhythm/core"
	"github.com/bretbouchard/whiteroom-rhythm/parameter"
	"github.com/bretbouchard/whiteroom-rhythm/vmath"
)

// VoiceBank is the only external surface the sequencer requires. Trigger and
// Render run on the audio path and must be allocation-free.
type VoiceBank interface {
	// Trigger schedules one percussive excitation sampleOffset samples into
	// the current step.
	Trigger(v core.VoiceType, velocity float64, sampleOffset uint32)
	// Render additively writes numSamples into out. Output is deterministic
	// given identical prior trigger history.
	Render(v core.VoiceType, out []float32, numSamples int)
	// Reset silences all voices.
	Reset()
	// AnyActive reports whether any voice envelope still produces output.
	AnyActive() bool
	// ActiveCount returns the number of currently sounding voices.
	ActiveCount() int
}

// StepCell is one cell in the 16-step grid of one track.
type StepCell struct {
	Active      bool
	Velocity    int // 0-127
	Probability float64

	HasFlam   bool
	IsRoll    bool
	RollNotes int

	// TimingOffset is the groove offset as a fraction of the step duration,
	// derived at each trigger. It is never persisted across triggers.
	TimingOffset float64

	UseDrill     bool
	BurstCount   int // 1-16
	BurstChaos   float64
	BurstDropout float64
	Intent       core.DrillIntent
}

// DefaultStepCell returns an inactive cell with sensible per-hit defaults.
func DefaultStepCell() StepCell {
	return StepCell{
		Velocity:    parameter.DefaultVelocity,
		Probability: 1.0,
		RollNotes:   1,
		BurstCount:  4,
		Intent:      core.IntentOptional,
	}
}

// Track holds 16 step cells plus per-track voicing and timing character.
type Track struct {
	Steps [parameter.PatternSteps]StepCell

	Voice core.VoiceType
	Role  core.TimingRole

	Volume float64
	Pan    float64 // -1..+1
	Pitch  int     // semitone offset for tom-like voices; stored and persisted, not applied to the voice (the bank tunes toms via voice.Params.Tune)

	// DrillOverride, when set, shadows the global drill mode for this track.
	DrillOverride *DrillMode
}

// RoleTiming holds the per-role base offsets, as fractions of a step.
type RoleTiming struct {
	PocketOffset float64
	PushOffset   float64
	PullOffset   float64
}

func DefaultRoleTiming() RoleTiming {
	return RoleTiming{
		PocketOffset: parameter.DefaultPocketOffset,
		PushOffset:   parameter.DefaultPushOffset,
		PullOffset:   parameter.DefaultPullOffset,
	}
}

// DillaParams shape the bounded random-walk timing drift.
type DillaParams struct {
	Amount    float64
	HatBias   float64 // 0 = pull, 1 = push
	SnareLate float64
	KickTight float64
	MaxDrift  float64 // cap on absolute drift
}

func DefaultDillaParams() DillaParams {
	return DillaParams{
		Amount:    0.3,
		HatBias:   0.5,
		SnareLate: 0.35,
		KickTight: 0.8,
		MaxDrift:  parameter.DefaultMaxDrift,
	}
}

// DillaState is one track's drift accumulator.
type DillaState struct {
	Drift float64
}

// DrillMode configures the micro-burst generator.
type DrillMode struct {
	Enabled bool
	Amount  float64 // global intensity / gate, 0-1

	MinBurst int // micro-hits per burst, 1..24
	MaxBurst int

	Spread     float64 // fraction of the step the burst occupies
	Chaos      float64 // time-jitter amount
	Dropout    float64 // per-hit skip probability
	VelDecay   float64 // exponential velocity falloff, 0-0.95
	AccentFlip float64 // probability of a random velocity spike per hit

	MutationRate       float64
	TemporalAggression float64 // macro multiplier, >= 0, typically around 1

	Grid core.DrillGrid

	// TransitionBeats is an advisory crossfade target between the groove and
	// drill paths. The step decision switches hard; the field is stored and
	// persisted but not read by dispatch.
	TransitionBeats float64
}

func DefaultDrillMode() DrillMode {
	return DrillMode{
		Amount:             0.5,
		MinBurst:           2,
		MaxBurst:           8,
		Spread:             1.0,
		VelDecay:           0.12,
		TemporalAggression: 1.0,
		Grid:               core.GridStraight,
		TransitionBeats:    1.0,
	}
}

// sanitize clamps a drill mode into its documented ranges.
func (m DrillMode) sanitize() DrillMode {
	m.Amount = vmath.Clamp01(m.Amount)
	m.MinBurst = vmath.ClampInt(m.MinBurst, 1, parameter.MaxBurst)
	m.MaxBurst = vmath.ClampInt(m.MaxBurst, 1, parameter.MaxBurst)
	m.Spread = vmath.Clamp01(m.Spread)
	m.Chaos = vmath.Clamp01(m.Chaos)
	m.Dropout = vmath.Clamp01(m.Dropout)
	m.VelDecay = vmath.Clamp(m.VelDecay, 0, 0.95)
	m.AccentFlip = vmath.Clamp01(m.AccentFlip)
	m.MutationRate = vmath.Clamp01(m.MutationRate)
	if m.TemporalAggression < 0 {
		m.TemporalAggression = 0
	}
	return m
}

// DefaultTracks assigns the sixteen voices in canonical order with their
// habitual timing roles.
func DefaultTracks() [parameter.NumTracks]Track {
	roles := map[core.VoiceType]core.TimingRole{
		core.VoiceSnare:       core.RolePull,
		core.VoiceClap:        core.RolePull,
		core.VoicePercussion:  core.RolePull,
		core.VoiceHiHatClosed: core.RolePush,
		core.VoiceHiHatOpen:   core.RolePush,
		core.VoiceShaker:      core.RolePush,
		core.VoiceTambourine:  core.RolePush,
	}

	var tracks [parameter.NumTracks]Track
	for i := range tracks {
		v := core.VoiceType(i)
		tracks[i] = Track{
			Voice:  v,
			Role:   roles[v], // zero value is RolePocket
			Volume: 1.0,
		}
		for s := range tracks[i].Steps {
			tracks[i].Steps[s] = DefaultStepCell()
		}
	}
	return tracks
}

// trackWantsDrill reports whether a voice type defaults to the drill path.
// Kicks, toms and cymbals hold the groove.
func trackWantsDrill(v core.VoiceType) bool {
	switch v {
	case core.VoiceSnare, core.VoiceHiHatClosed, core.VoiceHiHatOpen,
		core.VoiceClap, core.VoiceShaker, core.VoiceTambourine, core.VoicePercussion:
		return true
	}
	return false
}
