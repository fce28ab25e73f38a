package rhythm

import (
	"math"
	"testing"

	"github.com/bretbouchard/whiteroom-rhythm/core"
	"github.com/bretbouchard/whiteroom-rhythm/parameter"
)

func drillSeq(mode DrillMode) (*Sequencer, *recordBank) {
	s, b := newTestSeq(42)
	s.SetDrillMode(mode)
	activateSteps(s, 1, 127, 0)
	return s, b
}

// MaxBurst <= 1 falls back to a single hit at offset 0 (the resolved offset
// is validated and then discarded).
func TestDrillSingleHitFallback(t *testing.T) {
	s, b := drillSeq(DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 1, MaxBurst: 1,
		Spread: 1.0, TemporalAggression: 1.0,
	})
	s.SetSwing(1.0)

	s.Advance(testSPS)

	if len(b.trigs) != 1 {
		t.Fatalf("Expected single-hit fallback, got %d triggers", len(b.trigs))
	}
	if b.trigs[0].Offset != 0 {
		t.Errorf("Expected fallback offset 0, got %d", b.trigs[0].Offset)
	}
}

// A cell-level drill override replaces burst count, chaos and dropout.
func TestDrillPerCellOverride(t *testing.T) {
	s, b := newTestSeq(42)
	s.SetDrillMode(DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 4, MaxBurst: 8,
		Spread: 1.0, TemporalAggression: 1.0,
	})
	// Force the drill path via the cell override; its burst count (5) must
	// win over the mode's own 4..8 range.
	tr := s.GetTrack(1)
	tr.Steps[0].Active = true
	tr.Steps[0].Velocity = 127
	tr.Steps[0].UseDrill = true
	tr.Steps[0].BurstCount = 5
	tr.Steps[0].Intent = core.IntentEmphasize
	s.SetTrack(1, tr)
	s.SetRhythmFeelMode(core.FeelDrill)

	s.Advance(testSPS)
	if len(b.trigs) != 5 {
		t.Errorf("Expected per-cell burst count 5, got %d", len(b.trigs))
	}
}

func TestDrillBurstCountFromAmount(t *testing.T) {
	cases := []struct {
		amount float64
		want   int
	}{
		{0.01, 2}, // below even the Emphasize threshold: groove single hit, checked below
		{0.5, 5},  // round(2 + 0.5*6) = 5
		{1.0, 8},
	}
	for _, c := range cases {
		s, b := newTestSeq(42)
		s.SetDrillMode(DrillMode{
			Enabled: true, Amount: c.amount,
			MinBurst: 2, MaxBurst: 8,
			Spread: 1.0, TemporalAggression: 1.0,
			Grid: core.GridStraight,
		})
		tr := s.GetTrack(1)
		tr.Steps[0].Active = true
		tr.Steps[0].Velocity = 127
		tr.Steps[0].Intent = core.IntentEmphasize
		s.SetTrack(1, tr)

		s.Advance(testSPS)
		if c.amount <= 0.05 {
			// Emphasize needs amount > 0.05; below that the groove path runs.
			if len(b.trigs) != 1 {
				t.Errorf("Amount %v: expected groove single hit, got %d", c.amount, len(b.trigs))
			}
			continue
		}
		if len(b.trigs) != c.want {
			t.Errorf("Amount %v: expected %d micro-hits, got %d", c.amount, c.want, len(b.trigs))
		}
	}
}

// Triplet grid lands 6 hits on 3 slots: each slot is struck twice.
func TestDrillTripletGrid(t *testing.T) {
	s, b := drillSeq(DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 6, MaxBurst: 6,
		Spread: 1.0, TemporalAggression: 1.0,
		Grid: core.GridTriplet,
	})
	s.Advance(testSPS)

	if len(b.trigs) != 6 {
		t.Fatalf("Expected 6 micro-hits, got %d", len(b.trigs))
	}
	slots := map[uint32]int{}
	for _, tr := range b.trigs {
		slots[tr.Offset]++
	}
	if len(slots) != 3 {
		t.Errorf("Expected 3 distinct triplet slots, got %v", slots)
	}
	for off, n := range slots {
		if n != 2 {
			t.Errorf("Slot %d: expected 2 hits, got %d", off, n)
		}
	}
}

// RandomPrime draws only 5, 7 or 11 slots.
func TestDrillRandomPrimeSlots(t *testing.T) {
	s, b := newTestSeq(42)
	s.SetDrillMode(DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 12, MaxBurst: 12,
		Spread: 1.0, TemporalAggression: 1.0,
		Grid: core.GridRandomPrime,
	})
	activateSteps(s, 1, 127, allSteps()...)

	counts := map[int]bool{}
	for i := 0; i < 64; i++ {
		before := len(b.trigs)
		s.Advance(testSPS)
		slots := map[uint32]bool{}
		for _, tr := range b.trigs[before:] {
			slots[tr.Offset] = true
		}
		counts[len(slots)] = true
	}
	for n := range counts {
		if n != 5 && n != 7 && n != 11 {
			t.Errorf("Observed %d distinct slots; expected only 5, 7 or 11", n)
		}
	}
}

func TestDrillVelocityDecay(t *testing.T) {
	s, b := drillSeq(DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 4, MaxBurst: 4,
		Spread: 1.0, VelDecay: 0.5, TemporalAggression: 1.0,
		Grid: core.GridStraight,
	})
	s.Advance(testSPS)

	if len(b.trigs) != 4 {
		t.Fatalf("Expected 4 micro-hits, got %d", len(b.trigs))
	}
	want := []float64{127, 63, 31, 15}
	for i, tr := range b.trigs {
		if math.Abs(tr.Vel-want[i]/127.0) > 1e-12 {
			t.Errorf("Hit %d: expected velocity %v/127, got %v", i, want[i], tr.Vel)
		}
	}
}

// Full dropout silences every micro-hit.
func TestDrillFullDropout(t *testing.T) {
	s, b := drillSeq(DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 8, MaxBurst: 8,
		Spread: 1.0, Dropout: 1.0, TemporalAggression: 1.0,
		Grid: core.GridStraight,
	})
	s.Advance(testSPS)
	if len(b.trigs) != 0 {
		t.Errorf("Expected full dropout to silence the burst, got %d hits", len(b.trigs))
	}
}

// Chaos keeps every hit inside the step window.
func TestDrillChaosStaysInWindow(t *testing.T) {
	s, b := newTestSeq(42)
	s.SetDrillMode(DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 16, MaxBurst: 16,
		Spread: 1.0, Chaos: 1.0, TemporalAggression: 1.5,
		Grid: core.GridStraight,
	})
	activateSteps(s, 1, 127, allSteps()...)

	for i := 0; i < 64; i++ {
		s.Advance(testSPS)
	}
	for i, tr := range b.trigs {
		if tr.Offset >= testSPS {
			t.Fatalf("Hit %d: chaos pushed offset %d outside the step", i, tr.Offset)
		}
	}
}

// A track-level drill override shadows the global mode: burst bounds and
// grid come from the override, not from SetDrillMode.
func TestDrillOverridePerTrack(t *testing.T) {
	s, b := newTestSeq(42)
	s.SetDrillMode(DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 4, MaxBurst: 4,
		Spread: 1.0, TemporalAggression: 1.0,
		Grid: core.GridStraight,
	})

	tr := s.GetTrack(1)
	tr.DrillOverride = &DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 6, MaxBurst: 6,
		Spread: 1.0, TemporalAggression: 1.0,
		Grid: core.GridTriplet,
	}
	tr.Steps[0].Active = true
	tr.Steps[0].Velocity = 127
	s.SetTrack(1, tr)

	// A second drill-capable track keeps the global mode for contrast.
	activateSteps(s, 2, 127, 0)

	s.Advance(testSPS)

	var snare, hat []recordedTrig
	for _, trig := range b.trigs {
		switch trig.Voice {
		case core.VoiceSnare:
			snare = append(snare, trig)
		case core.VoiceHiHatClosed:
			hat = append(hat, trig)
		}
	}

	if len(snare) != 6 {
		t.Fatalf("Expected 6 override micro-hits on snare, got %d", len(snare))
	}
	if len(hat) != 4 {
		t.Fatalf("Expected 4 global micro-hits on hat, got %d", len(hat))
	}

	// Triplet grid: six hits on three distinct slots.
	slots := map[uint32]int{}
	for _, trig := range snare {
		slots[trig.Offset]++
	}
	if len(slots) != 3 {
		t.Errorf("Expected 3 triplet slots from the override grid, got %v", slots)
	}
	straight := map[uint32]bool{}
	for _, trig := range hat {
		straight[trig.Offset] = true
	}
	if len(straight) != 4 {
		t.Errorf("Expected 4 straight slots from the global grid, got %v", straight)
	}
}

// Min above max collapses the range instead of failing.
func TestDrillMinAboveMax(t *testing.T) {
	s, b := drillSeq(DrillMode{
		Enabled: true, Amount: 1.0,
		MinBurst: 6, MaxBurst: 2,
		Spread: 1.0, TemporalAggression: 1.0,
		Grid: core.GridStraight,
	})
	s.Advance(testSPS)
	if len(b.trigs) != 6 {
		t.Errorf("Expected collapsed range to emit 6 hits, got %d", len(b.trigs))
	}
}

// Sanitize clamps out-of-range drill fields.
func TestDrillModeSanitize(t *testing.T) {
	m := DrillMode{
		Amount: 2.0, MinBurst: 0, MaxBurst: 99,
		Spread: -1, Chaos: 3, Dropout: -0.5,
		VelDecay: 0.99, AccentFlip: 2, MutationRate: -1,
		TemporalAggression: -2,
	}.sanitize()

	if m.Amount != 1 || m.Spread != 0 || m.Chaos != 1 || m.Dropout != 0 {
		t.Errorf("Unit fields not clamped: %+v", m)
	}
	if m.MinBurst != 1 || m.MaxBurst != parameter.MaxBurst {
		t.Errorf("Burst bounds not clamped: %+v", m)
	}
	if m.VelDecay != 0.95 {
		t.Errorf("VelDecay not clamped to 0.95: %v", m.VelDecay)
	}
	if m.TemporalAggression != 0 {
		t.Errorf("TemporalAggression not clamped: %v", m.TemporalAggression)
	}
}
