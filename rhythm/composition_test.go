package rhythm

import (
	"testing"
)

func TestAutomationLaneStepFunction(t *testing.T) {
	lane := NewDrillAutomationLane(
		AutomationPoint{Bar: 0, Amount: 0.1},
		AutomationPoint{Bar: 4, Amount: 0.5},
		AutomationPoint{Bar: 8, Amount: 0.9},
	)

	cases := []struct {
		bar  int
		want float64
	}{
		{0, 0.1}, {3, 0.1}, {4, 0.5}, {7, 0.5}, {8, 0.9}, {100, 0.9},
	}
	for _, c := range cases {
		got, ok := lane.EvaluateAt(c.bar)
		if !ok {
			t.Fatalf("Bar %d: expected a value", c.bar)
		}
		if got != c.want {
			t.Errorf("Bar %d: expected %v, got %v", c.bar, c.want, got)
		}
	}
}

func TestAutomationLaneBeforeFirstPoint(t *testing.T) {
	lane := NewDrillAutomationLane(AutomationPoint{Bar: 4, Amount: 0.5})
	if _, ok := lane.EvaluateAt(2); ok {
		t.Error("Expected no value before the first point")
	}
}

func TestAutomationLaneResortsOnRead(t *testing.T) {
	// Simulate out-of-order insertion past the public API.
	lane := DrillAutomationLane{points: []AutomationPoint{
		{Bar: 8, Amount: 0.9},
		{Bar: 2, Amount: 0.2},
	}}
	got, ok := lane.EvaluateAt(3)
	if !ok || got != 0.2 {
		t.Errorf("Expected re-sorted lookup to find 0.2, got %v (ok=%v)", got, ok)
	}
}

func TestAutomationLaneReplaceAndSort(t *testing.T) {
	lane := DrillAutomationLane{}
	lane.Add(8, 0.9)
	lane.Add(2, 0.3)
	lane.Add(8, 0.7) // replaces
	pts := lane.Points()
	if len(pts) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(pts))
	}
	if pts[0].Bar != 2 || pts[1].Bar != 8 {
		t.Errorf("Expected sorted bars [2 8], got %+v", pts)
	}
	if pts[1].Amount != 0.7 {
		t.Errorf("Expected replacement amount 0.7, got %v", pts[1].Amount)
	}
}

// A monotone lane evaluates monotonically over bars.
func TestAutomationMonotonicity(t *testing.T) {
	lane := NewDrillAutomationLane(
		AutomationPoint{Bar: 0, Amount: 0.0},
		AutomationPoint{Bar: 2, Amount: 0.25},
		AutomationPoint{Bar: 5, Amount: 0.5},
		AutomationPoint{Bar: 9, Amount: 1.0},
	)
	prev := -1.0
	for bar := 0; bar < 20; bar++ {
		v, _ := lane.EvaluateAt(bar)
		if v < prev {
			t.Fatalf("Bar %d: amount %v dropped below %v", bar, v, prev)
		}
		prev = v
	}
}

// Inside the fill window the effective amount dominates the
// decayed fill amount.
func TestFillBoundary(t *testing.T) {
	s, _ := newTestSeq(1)
	fill := DrillFillPolicy{
		Enabled: true, FillLengthSteps: 4,
		TriggerChance: 1.0, FillAmount: 0.8, DecayPerStep: 0.1,
	}
	s.fillState.Active = true
	s.drill.Amount = 0.0

	for stepInBar := 12; stepInBar < 16; stepInBar++ {
		s.stepInBar = stepInBar
		k := stepInBar - 12
		want := 0.8 * (1.0 - float64(k)*0.1)
		d := s.evaluateStep(fill, DrillGatePolicy{})
		if d.effectiveAmount < want-1e-12 {
			t.Errorf("Fill step %d: expected amount >= %v, got %v",
				k, want, d.effectiveAmount)
		}
	}

	// Outside the window the base amount rules.
	s.stepInBar = 5
	d := s.evaluateStep(fill, DrillGatePolicy{})
	if d.effectiveAmount != 0 {
		t.Errorf("Expected base amount outside fill window, got %v", d.effectiveAmount)
	}
}

func TestFillInactiveWithoutTrigger(t *testing.T) {
	s, _ := newTestSeq(1)
	fill := DrillFillPolicy{
		Enabled: true, FillLengthSteps: 4,
		TriggerChance: 1.0, FillAmount: 0.8, DecayPerStep: 0.1,
	}
	s.fillState.Active = false
	s.stepInBar = 14
	d := s.evaluateStep(fill, DrillGatePolicy{})
	if d.effectiveAmount != s.drill.Amount {
		t.Errorf("Expected inactive fill to leave the amount alone, got %v",
			d.effectiveAmount)
	}
}

func TestPhraseAwareOverrides(t *testing.T) {
	s, _ := newTestSeq(1)
	s.SetDrillFillPolicy(DrillFillPolicy{
		Enabled: true, FillLengthSteps: 4,
		TriggerChance: 0.5, FillAmount: 0.7, DecayPerStep: 0.1,
	})
	s.SetDrillGatePolicy(DrillGatePolicy{Enabled: false, SilenceChance: 0.2})

	// Mid-phrase: fill reined in, gate untouched.
	s.currentBar = 1
	fill, gate := s.phraseAwarePolicies()
	if fill.TriggerChance != 0.4 {
		t.Errorf("Mid-phrase: expected trigger chance clamped to 0.4, got %v",
			fill.TriggerChance)
	}
	if fill.FillAmount != 0.6 {
		t.Errorf("Mid-phrase: expected fill amount clamped to 0.6, got %v",
			fill.FillAmount)
	}
	if gate.Enabled {
		t.Error("Mid-phrase: expected stored gate state kept")
	}

	// Phrase end (bar 3 of a 4-bar phrase): fill hot, gate forced on.
	s.currentBar = 3
	fill, gate = s.phraseAwarePolicies()
	if fill.TriggerChance < 0.9 {
		t.Errorf("Phrase end: expected trigger chance >= 0.9, got %v", fill.TriggerChance)
	}
	if fill.FillAmount < 1.0 {
		t.Errorf("Phrase end: expected fill amount >= 1.0, got %v", fill.FillAmount)
	}
	if !gate.Enabled {
		t.Error("Phrase end: expected gate forced on")
	}

	// Stored policies are never mutated by evaluation.
	if s.fillPolicy.TriggerChance != 0.5 || s.fillPolicy.FillAmount != 0.7 {
		t.Error("Expected stored fill policy untouched")
	}
	if s.gatePolicy.Enabled {
		t.Error("Expected stored gate policy untouched")
	}
}

func TestPhraseDetector(t *testing.T) {
	p := PhraseDetector{BarsPerPhrase: 4}
	ends := map[int]bool{3: true, 7: true, 11: true}
	for bar := 0; bar < 12; bar++ {
		if got := p.IsPhraseEnd(bar); got != ends[bar] {
			t.Errorf("Bar %d: IsPhraseEnd = %v, want %v", bar, got, ends[bar])
		}
	}

	if (PhraseDetector{BarsPerPhrase: 5}).sanitize().BarsPerPhrase != 4 {
		t.Error("Expected 5 to snap to 4")
	}
	if (PhraseDetector{BarsPerPhrase: 9}).sanitize().BarsPerPhrase != 8 {
		t.Error("Expected 9 to snap to 8")
	}
	if (PhraseDetector{BarsPerPhrase: 100}).sanitize().BarsPerPhrase != 16 {
		t.Error("Expected 100 to snap to 16")
	}
}

func TestIdmMacroAppliedAtomically(t *testing.T) {
	s, _ := newTestSeq(1)
	macro, ok := IdmMacroPresetByName("AntiGroove")
	if !ok {
		t.Fatal("AntiGroove macro missing")
	}
	s.ApplyIdmMacroPreset(macro)

	if s.DrillMode() != macro.Drill.sanitize() {
		t.Error("Expected drill mode from macro")
	}
	if s.FillPolicy() != macro.Fill {
		t.Error("Expected fill policy from macro")
	}
	if s.GatePolicy() != macro.Gate {
		t.Error("Expected gate policy from macro")
	}
}
