package rhythm

import (
	"math"

	"github.com/bretbouchard/whiteroom-rhythm/core"
	"github.com/bretbouchard/whiteroom-rhythm/parameter"
	"github.com/bretbouchard/whiteroom-rhythm/vmath"
)

// Sequencer is the rhythm-generation core: a 16-track, 16-step machine that
// decides per 16th-note tick whether, when and how hard each track sounds.
//
// One instance owns its pattern, RNG, drift and composition state exclusively
// during Advance and RenderTrack. Everything on that path is allocation-free
// and lock-free; cross-thread parameter edits must arrive between blocks.
type Sequencer struct {
	rng  *vmath.FastRand
	bank VoiceBank

	sampleRate   float64
	maxBlockSize int
	prepared     bool

	tempo          float64
	pendingTempo   float64
	samplesPerStep float64

	swing float64

	patternLength        int
	pendingPatternLength int

	tracks [parameter.NumTracks]Track
	dilla  [parameter.NumTracks]DillaState

	roleTiming  RoleTiming
	dillaParams DillaParams
	feelMode    core.RhythmFeelMode

	drill      DrillMode
	automation DrillAutomationLane
	fillPolicy DrillFillPolicy
	fillState  DrillFillState
	gatePolicy DrillGatePolicy
	gateState  DrillGateState

	phrase        PhraseDetector
	pendingPhrase PhraseDetector

	// Clock. position counts samples into the current step as a double so
	// fractional step lengths never accumulate drift.
	position    float64
	currentStep int
	stepInBar   int
	currentBar  int
	started     bool

	microHitsThisBlock int
	droppedMicroHits   uint64
}

// New creates a sequencer with a deterministic RNG seed. Prepare must be
// called before Advance.
func New(seed uint32) *Sequencer {
	s := &Sequencer{
		rng:                  vmath.NewFastRand(seed),
		tempo:                parameter.DefaultBPM,
		pendingTempo:         parameter.DefaultBPM,
		swing:                parameter.DefaultSwing,
		patternLength:        parameter.PatternSteps,
		pendingPatternLength: parameter.PatternSteps,
		tracks:               DefaultTracks(),
		roleTiming:           DefaultRoleTiming(),
		dillaParams:          DefaultDillaParams(),
		drill:                DefaultDrillMode(),
		phrase:               PhraseDetector{BarsPerPhrase: 4},
		pendingPhrase:        PhraseDetector{BarsPerPhrase: 4},
	}
	return s
}

// SetVoiceBank injects the voice bank the sequencer dispatches to.
func (s *Sequencer) SetVoiceBank(b VoiceBank) { s.bank = b }

// Prepare sizes internal state for the given sample rate and block size.
func (s *Sequencer) Prepare(sampleRate float64, maxBlockSize int) {
	if sampleRate < parameter.MinSampleRate {
		sampleRate = parameter.DefaultSampleRate
	}
	if maxBlockSize < 1 {
		maxBlockSize = parameter.DefaultBlockSize
	}
	s.sampleRate = sampleRate
	s.maxBlockSize = maxBlockSize
	s.tempo = s.pendingTempo
	s.patternLength = s.pendingPatternLength
	s.phrase = s.pendingPhrase
	s.samplesPerStep = parameter.SamplesPerStep(s.tempo, s.sampleRate)
	s.prepared = true
}

// Reset clears transient state: clock position, drift, gate and fill state,
// and the voice bank. Pattern data, parameters and the bar counter are kept.
func (s *Sequencer) Reset() {
	s.position = 0
	s.currentStep = 0
	s.stepInBar = 0
	s.started = false
	for i := range s.dilla {
		s.dilla[i] = DillaState{}
	}
	s.gateState = DrillGateState{}
	s.fillState = DrillFillState{}
	s.microHitsThisBlock = 0
	if s.bank != nil {
		s.bank.Reset()
	}
}

// --- Parameter setters (idempotent, clamped; clock-coupled ones become
// visible at the next step boundary) ---

// SetTempo accepts 20-999 BPM, effective at the next step boundary.
func (s *Sequencer) SetTempo(bpm float64) {
	s.pendingTempo = vmath.Clamp(bpm, parameter.MinBPM, parameter.MaxBPM)
	if !s.prepared {
		s.tempo = s.pendingTempo
	}
}

func (s *Sequencer) SetSwing(amount float64) {
	s.swing = vmath.Clamp01(amount)
}

// SetPatternLength clamps to [1,16]; effective at the next step boundary.
func (s *Sequencer) SetPatternLength(steps int) {
	s.pendingPatternLength = vmath.ClampInt(steps, 1, parameter.PatternSteps)
	if !s.prepared {
		s.patternLength = s.pendingPatternLength
	}
}

func (s *Sequencer) SetRoleTiming(rt RoleTiming)  { s.roleTiming = rt }
func (s *Sequencer) SetDillaParams(p DillaParams) { s.dillaParams = p }

func (s *Sequencer) SetRhythmFeelMode(m core.RhythmFeelMode) { s.feelMode = m }

func (s *Sequencer) SetDrillMode(m DrillMode) { s.drill = m.sanitize() }

func (s *Sequencer) SetDrillAutomation(lane DrillAutomationLane) { s.automation = lane }
func (s *Sequencer) SetDrillFillPolicy(p DrillFillPolicy)        { s.fillPolicy = p }
func (s *Sequencer) SetDrillGatePolicy(p DrillGatePolicy)        { s.gatePolicy = p }

// SetPhraseDetector snaps to 4/8/16 bars; effective at the next step boundary.
func (s *Sequencer) SetPhraseDetector(p PhraseDetector) {
	s.pendingPhrase = p.sanitize()
	if !s.prepared {
		s.phrase = s.pendingPhrase
	}
}

// ApplyIdmMacroPreset installs the preset's drill, fill and gate policies as
// one atomic bundle.
func (s *Sequencer) ApplyIdmMacroPreset(p IdmMacroPreset) {
	s.drill = p.Drill.sanitize()
	s.fillPolicy = p.Fill
	s.gatePolicy = p.Gate
}

// SetTrack replaces track i. Out-of-range indices are ignored.
func (s *Sequencer) SetTrack(i int, t Track) {
	if i < 0 || i >= parameter.NumTracks {
		return
	}
	s.tracks[i] = t
}

// GetTrack returns a copy of track i, or a zero Track out of range.
func (s *Sequencer) GetTrack(i int) Track {
	if i < 0 || i >= parameter.NumTracks {
		return Track{}
	}
	return s.tracks[i]
}

// SetStep replaces one cell of one track. Out-of-range indices are ignored.
func (s *Sequencer) SetStep(track, step int, cell StepCell) {
	if track < 0 || track >= parameter.NumTracks {
		return
	}
	if step < 0 || step >= parameter.PatternSteps {
		return
	}
	s.tracks[track].Steps[step] = cell
}

// --- Observers ---

func (s *Sequencer) CurrentStep() int { return s.currentStep }
func (s *Sequencer) CurrentBar() int  { return s.currentBar }

func (s *Sequencer) ActiveVoiceCount() int {
	if s.bank == nil {
		return 0
	}
	return s.bank.ActiveCount()
}

// DroppedMicroHits returns the lifetime count of triggers discarded by the
// per-block cap. Diagnostic only; never feeds back into control flow.
func (s *Sequencer) DroppedMicroHits() uint64 { return s.droppedMicroHits }

func (s *Sequencer) Tempo() float64                { return s.pendingTempo }
func (s *Sequencer) Swing() float64                { return s.swing }
func (s *Sequencer) PatternLength() int            { return s.pendingPatternLength }
func (s *Sequencer) RoleTiming() RoleTiming        { return s.roleTiming }
func (s *Sequencer) DillaParams() DillaParams      { return s.dillaParams }
func (s *Sequencer) FeelMode() core.RhythmFeelMode { return s.feelMode }
func (s *Sequencer) DrillMode() DrillMode          { return s.drill }
func (s *Sequencer) FillPolicy() DrillFillPolicy   { return s.fillPolicy }
func (s *Sequencer) GatePolicy() DrillGatePolicy   { return s.gatePolicy }
func (s *Sequencer) Phrase() PhraseDetector        { return s.pendingPhrase }
func (s *Sequencer) AutomationLane() DrillAutomationLane {
	return NewDrillAutomationLane(s.automation.Points()...)
}

// DriftOf returns track i's current Dilla drift, clamped on read so a
// runtime MaxDrift reduction is honoured immediately.
func (s *Sequencer) DriftOf(i int) float64 {
	if i < 0 || i >= parameter.NumTracks {
		return 0
	}
	d := s.dilla[i].Drift
	if s.dillaParams.MaxDrift <= 0 {
		return 0
	}
	if math.Abs(d) > s.dillaParams.MaxDrift {
		if d > 0 {
			return s.dillaParams.MaxDrift
		}
		return -s.dillaParams.MaxDrift
	}
	return d
}

// --- Block driver ---

// Advance drives the clock by numSamples. Steps whose start falls inside
// this block fire their triggers; a step landing exactly on the block end
// belongs to the next block. The per-block micro-hit counter resets first.
// Calling before Prepare is a no-op.
func (s *Sequencer) Advance(numSamples int) {
	if !s.prepared || numSamples <= 0 {
		return
	}
	s.microHitsThisBlock = 0

	if !s.started {
		s.started = true
		s.applyPending()
		s.stepBoundary()
	}

	remaining := float64(numSamples)
	for {
		toBoundary := s.samplesPerStep - s.position
		if toBoundary < 0 {
			// A tempo change at the previous boundary shrank the step while
			// a crossing was already pending; fire it immediately.
			toBoundary = 0
		}
		if toBoundary >= remaining {
			s.position += remaining
			break
		}
		remaining -= toBoundary
		s.position = 0
		s.advanceStep()
		s.applyPending()
		s.stepBoundary()
	}
}

// advanceStep moves the pattern and bar clocks one step forward.
func (s *Sequencer) advanceStep() {
	s.currentStep = (s.currentStep + 1) % s.patternLength
	s.stepInBar = (s.stepInBar + 1) % parameter.StepsPerBar
	if s.stepInBar == 0 {
		s.currentBar++
	}
}

// applyPending makes queued parameter changes visible. Runs only at step
// boundaries so mid-step state can never observe a half-applied change.
func (s *Sequencer) applyPending() {
	if s.pendingTempo != s.tempo {
		s.tempo = s.pendingTempo
		s.samplesPerStep = parameter.SamplesPerStep(s.tempo, s.sampleRate)
	}
	if s.pendingPatternLength != s.patternLength {
		s.patternLength = s.pendingPatternLength
		if s.currentStep >= s.patternLength {
			s.currentStep %= s.patternLength
		}
	}
	s.phrase = s.pendingPhrase
}

// stepBoundary runs the composition layer and all per-track triggering for
// the current step.
func (s *Sequencer) stepBoundary() {
	paFill, paGate := s.phraseAwarePolicies()

	// Fresh fill decision once per bar. The draw is consumed even when the
	// policy is disabled so the RNG stream does not depend on the toggle.
	if s.stepInBar == 0 {
		u := s.rng.Next01()
		s.fillState.Active = paFill.Enabled && u < paFill.TriggerChance
	}

	d := s.evaluateStep(paFill, paGate)

	for i := range s.tracks {
		tr := &s.tracks[i]
		cell := &tr.Steps[s.currentStep]
		if !cell.Active {
			continue
		}

		amt := d.effectiveAmount
		if d.gated {
			if s.rng.Next01() < 1.0-d.gate.BurstChance {
				continue // true silence
			}
			amt = 1.0 // gate-induced extreme burst
		}

		mode := s.drill
		if tr.DrillOverride != nil {
			mode = tr.DrillOverride.sanitize()
		}

		if cellWantsDrill(cell, mode, amt) && trackWantsDrill(tr.Voice) &&
			(s.feelMode == core.FeelDrill || cell.UseDrill || amt > 0) {
			s.scheduleMicroBurst(tr.Voice, cell, mode, amt)
		} else {
			s.triggerGroove(i, tr, cell)
		}
	}
}

// cellWantsDrill applies the cell's semantic drill intent against the
// effective amount.
func cellWantsDrill(cell *StepCell, mode DrillMode, amount float64) bool {
	if !mode.Enabled || amount <= 0.001 {
		return false
	}
	switch cell.Intent {
	case core.IntentOptional:
		return amount > 0.25
	case core.IntentEmphasize:
		return amount > 0.05
	}
	return false
}

// triggerGroove runs the groove path: timing resolution, probability, flam
// and roll handling, then dispatch.
func (s *Sequencer) triggerGroove(trackIdx int, tr *Track, cell *StepCell) {
	cell.TimingOffset = s.resolveGrooveOffset(s.currentStep, tr.Role, &s.dilla[trackIdx])

	if s.rng.Next01() > cell.Probability {
		return
	}

	vel := quantizeVelocity(float64(cell.Velocity) / 127.0)

	if cell.IsRoll && cell.RollNotes >= 1 {
		// Rolls are their own grid: equal spacing across the step at full
		// velocity, no swing, role or drift.
		n := vmath.ClampInt(cell.RollNotes, 1, parameter.MaxRollNotes)
		for j := 0; j < n; j++ {
			so := s.offsetSamples(float64(j) / float64(n))
			s.dispatch(tr.Voice, vel, so)
		}
		return
	}

	mainOff := s.offsetSamples(cell.TimingOffset)

	if cell.HasFlam {
		lead := int(math.Round(parameter.FlamLeadSeconds * s.sampleRate))
		flamOff := mainOff - lead
		if flamOff < 0 {
			flamOff = 0
		}
		s.dispatch(tr.Voice, quantizeVelocity(float64(cell.Velocity)/127.0*parameter.FlamVelocityMul), flamOff)
	}

	s.dispatch(tr.Voice, vel, mainOff)
}

// offsetSamples materialises a step-fraction to a sample offset inside the
// step window, round-half-to-even, clamped to [0, samplesPerStep).
func (s *Sequencer) offsetSamples(frac float64) int {
	so := int(math.RoundToEven(frac * s.samplesPerStep))
	if so < 0 {
		return 0
	}
	for float64(so) >= s.samplesPerStep {
		so--
	}
	return so
}

// dispatch is the single point that touches the voice bank. It enforces the
// per-block micro-hit cap and reports whether the trigger was emitted.
func (s *Sequencer) dispatch(v core.VoiceType, velocity float64, sampleOffset int) bool {
	if s.microHitsThisBlock >= parameter.MaxMicroHitsPerBlock {
		s.droppedMicroHits++
		return false
	}
	s.microHitsThisBlock++
	if s.bank != nil {
		s.bank.Trigger(v, velocity, uint32(sampleOffset))
	}
	return true
}

// RenderTrack pulls numSamples of track i's voice into out, additively.
func (s *Sequencer) RenderTrack(i int, out []float32, numSamples int) {
	if !s.prepared || s.bank == nil {
		return
	}
	if i < 0 || i >= parameter.NumTracks {
		return
	}
	s.bank.Render(s.tracks[i].Voice, out, numSamples)
}
