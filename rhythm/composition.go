package rhythm

import (
	"sort"

	"github.com/bretbouchard/whiteroom-rhythm/parameter"
	"github.com/bretbouchard/whiteroom-rhythm/vmath"
)

// AutomationPoint maps a bar index to a drill amount.
type AutomationPoint struct {
	Bar    int
	Amount float64
}

// DrillAutomationLane is a bar-indexed step function over drill amount.
// Points are kept sorted by bar; evaluation takes the latest point at or
// before the queried bar, with no interpolation.
type DrillAutomationLane struct {
	points []AutomationPoint
}

// NewDrillAutomationLane builds a lane from the given points.
func NewDrillAutomationLane(points ...AutomationPoint) DrillAutomationLane {
	l := DrillAutomationLane{}
	for _, p := range points {
		l.Add(p.Bar, p.Amount)
	}
	return l
}

// Add inserts a point, replacing any existing point at the same bar.
func (l *DrillAutomationLane) Add(bar int, amount float64) {
	amount = vmath.Clamp01(amount)
	for i := range l.points {
		if l.points[i].Bar == bar {
			l.points[i].Amount = amount
			return
		}
	}
	l.points = append(l.points, AutomationPoint{Bar: bar, Amount: amount})
	sort.Slice(l.points, func(i, j int) bool { return l.points[i].Bar < l.points[j].Bar })
}

// Len returns the number of points in the lane.
func (l *DrillAutomationLane) Len() int { return len(l.points) }

// Points returns a copy of the lane's points in bar order.
func (l *DrillAutomationLane) Points() []AutomationPoint {
	out := make([]AutomationPoint, len(l.points))
	copy(out, l.points)
	return out
}

// Clear removes all points.
func (l *DrillAutomationLane) Clear() { l.points = l.points[:0] }

// EvaluateAt returns the step-function value at bar. The second return is
// false when no point lies at or before bar. The lookup assumes sorted
// points; if a caller managed to insert out of order the lane re-sorts
// before reading.
func (l *DrillAutomationLane) EvaluateAt(bar int) (float64, bool) {
	if len(l.points) == 0 {
		return 0, false
	}
	if !sort.SliceIsSorted(l.points, func(i, j int) bool { return l.points[i].Bar < l.points[j].Bar }) {
		sort.Slice(l.points, func(i, j int) bool { return l.points[i].Bar < l.points[j].Bar })
	}
	value := 0.0
	found := false
	for _, p := range l.points {
		if p.Bar > bar {
			break
		}
		value = p.Amount
		found = true
	}
	return value, found
}

// DrillFillPolicy escalates drill intensity over the last steps of a bar.
type DrillFillPolicy struct {
	Enabled         bool
	FillLengthSteps int
	TriggerChance   float64
	FillAmount      float64
	DecayPerStep    float64
}

// DrillFillState holds the once-per-bar fill decision.
type DrillFillState struct {
	Active bool
}

// DrillGatePolicy stochastically silences runs of steps, optionally replacing
// silenced hits with an extreme burst.
type DrillGatePolicy struct {
	Enabled        bool
	SilenceChance  float64
	BurstChance    float64
	MinSilentSteps int
	MaxSilentSteps int
}

// DrillGateState counts down the current silent run.
type DrillGateState struct {
	SilentStepsRemaining int
}

// PhraseDetector derives musical-form position from the bar counter.
type PhraseDetector struct {
	BarsPerPhrase int // 4, 8 or 16
}

// sanitize snaps BarsPerPhrase onto the supported set.
func (p PhraseDetector) sanitize() PhraseDetector {
	switch {
	case p.BarsPerPhrase >= 16:
		p.BarsPerPhrase = 16
	case p.BarsPerPhrase >= 8:
		p.BarsPerPhrase = 8
	default:
		p.BarsPerPhrase = 4
	}
	return p
}

// IsPhraseEnd reports whether bar is the last bar of its phrase.
func (p PhraseDetector) IsPhraseEnd(bar int) bool {
	if p.BarsPerPhrase <= 0 {
		return false
	}
	return bar%p.BarsPerPhrase == p.BarsPerPhrase-1
}

// IdmMacroPreset bundles drill, fill and gate policies into one behavioural
// identity, applied atomically.
type IdmMacroPreset struct {
	Name  string
	Drill DrillMode
	Fill  DrillFillPolicy
	Gate  DrillGatePolicy
}

// stepDecision is the transient per-step record produced by the top-down
// composition evaluation and consumed by the per-track logic. The policies
// inside are the phrase-aware local copies; stored policies are never
// mutated by evaluation.
type stepDecision struct {
	effectiveAmount float64
	gated           bool
	fill            DrillFillPolicy
	gate            DrillGatePolicy
}

// phraseAwarePolicies builds the per-step local fill and gate copies. At a
// phrase end the fill is forced hot and the gate is forced on; inside the
// phrase both are reined in.
func (s *Sequencer) phraseAwarePolicies() (DrillFillPolicy, DrillGatePolicy) {
	fill := s.fillPolicy
	gate := s.gatePolicy

	if s.phrase.IsPhraseEnd(s.currentBar) {
		if fill.TriggerChance < 0.9 {
			fill.TriggerChance = 0.9
		}
		if fill.FillAmount < 1.0 {
			fill.FillAmount = 1.0
		}
		gate.Enabled = true
	} else {
		if fill.TriggerChance > 0.4 {
			fill.TriggerChance = 0.4
		}
		if fill.FillAmount > 0.6 {
			fill.FillAmount = 0.6
		}
	}
	return fill, gate
}

// evaluateStep runs the composition layer for the current step: automation,
// fill window, and the global gate draw.
func (s *Sequencer) evaluateStep(fill DrillFillPolicy, gate DrillGatePolicy) stepDecision {
	d := stepDecision{fill: fill, gate: gate}

	d.effectiveAmount = s.drill.Amount
	if s.automation.Len() > 0 {
		if v, ok := s.automation.EvaluateAt(s.currentBar); ok {
			d.effectiveAmount = v
		}
	}

	fillLen := vmath.ClampInt(fill.FillLengthSteps, 0, parameter.StepsPerBar)
	if s.fillState.Active && fillLen > 0 && s.stepInBar >= parameter.StepsPerBar-fillLen {
		k := s.stepInBar - (parameter.StepsPerBar - fillLen)
		decayed := 1.0 - float64(k)*fill.DecayPerStep
		if decayed < 0 {
			decayed = 0
		}
		fillAmt := fill.FillAmount * decayed
		if fillAmt > d.effectiveAmount {
			d.effectiveAmount = fillAmt
		}
	}

	if gate.Enabled {
		if s.gateState.SilentStepsRemaining > 0 {
			s.gateState.SilentStepsRemaining--
			d.gated = true
		} else if s.rng.Next01() < gate.SilenceChance {
			n := s.rng.RangeInt(gate.MinSilentSteps, gate.MaxSilentSteps)
			if n < 1 {
				n = 1
			}
			// This step is the first of the run.
			s.gateState.SilentStepsRemaining = n - 1
			d.gated = true
		}
	}

	return d
}
