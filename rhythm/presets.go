package rhythm

import "github.com/bretbouchard/whiteroom-rhythm/core"

// NamedDrillMode pairs a drill mode with its display name.
type NamedDrillMode struct {
	Name string
	Mode DrillMode
}

// DrillModePresets is the published bank of twenty drill behaviours, from a
// barely-there ratchet to full signal destruction. Field values are part of
// the stable surface; tests pin them.
func DrillModePresets() []NamedDrillMode {
	return []NamedDrillMode{
		{"DrillLite", DrillMode{
			Enabled: true, Amount: 0.25, MinBurst: 2, MaxBurst: 4,
			Spread: 0.75, Chaos: 0.05, Dropout: 0.05, VelDecay: 0.10,
			AccentFlip: 0.05, MutationRate: 0.05, TemporalAggression: 1.0,
			Grid: core.GridStraight, TransitionBeats: 1.0,
		}},
		{"AphexSnareHell", DrillMode{
			Enabled: true, Amount: 0.95, MinBurst: 6, MaxBurst: 16,
			Spread: 1.0, Chaos: 0.55, Dropout: 0.10, VelDecay: 0.08,
			AccentFlip: 0.35, MutationRate: 0.40, TemporalAggression: 1.25,
			Grid: core.GridSeptuplet, TransitionBeats: 0.5,
		}},
		{"VenetianMode", DrillMode{
			Enabled: true, Amount: 0.85, MinBurst: 4, MaxBurst: 12,
			Spread: 0.9, Chaos: 0.70, Dropout: 0.25, VelDecay: 0.15,
			AccentFlip: 0.25, MutationRate: 0.55, TemporalAggression: 1.1,
			Grid: core.GridRandomPrime, TransitionBeats: 0.25,
		}},
		{"GlitchAccent", DrillMode{
			Enabled: true, Amount: 0.45, MinBurst: 2, MaxBurst: 6,
			Spread: 0.5, Chaos: 0.30, Dropout: 0.15, VelDecay: 0.05,
			AccentFlip: 0.60, MutationRate: 0.20, TemporalAggression: 1.0,
			Grid: core.GridStraight, TransitionBeats: 1.0,
		}},
		{"BrokenGroove", DrillMode{
			Enabled: true, Amount: 0.55, MinBurst: 3, MaxBurst: 8,
			Spread: 0.85, Chaos: 0.40, Dropout: 0.35, VelDecay: 0.12,
			AccentFlip: 0.15, MutationRate: 0.30, TemporalAggression: 0.9,
			Grid: core.GridTriplet, TransitionBeats: 2.0,
		}},
		{"NeoIDMFill", DrillMode{
			Enabled: true, Amount: 0.70, MinBurst: 4, MaxBurst: 10,
			Spread: 1.0, Chaos: 0.25, Dropout: 0.08, VelDecay: 0.18,
			AccentFlip: 0.20, MutationRate: 0.25, TemporalAggression: 1.0,
			Grid: core.GridQuintuplet, TransitionBeats: 1.0,
		}},
		{"GhostMachinery", DrillMode{
			Enabled: true, Amount: 0.40, MinBurst: 3, MaxBurst: 7,
			Spread: 0.95, Chaos: 0.20, Dropout: 0.45, VelDecay: 0.30,
			AccentFlip: 0.10, MutationRate: 0.15, TemporalAggression: 0.8,
			Grid: core.GridStraight, TransitionBeats: 2.0,
		}},
		{"AphexMicrofracture", DrillMode{
			Enabled: true, Amount: 0.90, MinBurst: 8, MaxBurst: 20,
			Spread: 0.6, Chaos: 0.65, Dropout: 0.12, VelDecay: 0.06,
			AccentFlip: 0.30, MutationRate: 0.50, TemporalAggression: 1.4,
			Grid: core.GridSeptuplet, TransitionBeats: 0.25,
		}},
		{"WindowlickerSnare", DrillMode{
			Enabled: true, Amount: 0.80, MinBurst: 5, MaxBurst: 12,
			Spread: 1.0, Chaos: 0.35, Dropout: 0.05, VelDecay: 0.10,
			AccentFlip: 0.45, MutationRate: 0.35, TemporalAggression: 1.15,
			Grid: core.GridQuintuplet, TransitionBeats: 0.5,
		}},
		{"PolygonWindow", DrillMode{
			Enabled: true, Amount: 0.60, MinBurst: 3, MaxBurst: 9,
			Spread: 0.8, Chaos: 0.15, Dropout: 0.10, VelDecay: 0.20,
			AccentFlip: 0.12, MutationRate: 0.18, TemporalAggression: 1.0,
			Grid: core.GridTriplet, TransitionBeats: 1.0,
		}},
		{"ClockDesync", DrillMode{
			Enabled: true, Amount: 0.65, MinBurst: 4, MaxBurst: 11,
			Spread: 1.0, Chaos: 0.85, Dropout: 0.20, VelDecay: 0.08,
			AccentFlip: 0.18, MutationRate: 0.60, TemporalAggression: 1.2,
			Grid: core.GridRandomPrime, TransitionBeats: 0.25,
		}},
		{"DrillNBassCore", DrillMode{
			Enabled: true, Amount: 0.75, MinBurst: 4, MaxBurst: 12,
			Spread: 0.9, Chaos: 0.30, Dropout: 0.10, VelDecay: 0.14,
			AccentFlip: 0.22, MutationRate: 0.28, TemporalAggression: 1.1,
			Grid: core.GridStraight, TransitionBeats: 0.5,
		}},
		{"VenetianGhosts", DrillMode{
			Enabled: true, Amount: 0.50, MinBurst: 3, MaxBurst: 10,
			Spread: 0.95, Chaos: 0.60, Dropout: 0.50, VelDecay: 0.25,
			AccentFlip: 0.08, MutationRate: 0.45, TemporalAggression: 0.9,
			Grid: core.GridRandomPrime, TransitionBeats: 1.0,
		}},
		{"AmenShredder", DrillMode{
			Enabled: true, Amount: 0.88, MinBurst: 6, MaxBurst: 16,
			Spread: 1.0, Chaos: 0.45, Dropout: 0.15, VelDecay: 0.10,
			AccentFlip: 0.28, MutationRate: 0.38, TemporalAggression: 1.3,
			Grid: core.GridStraight, TransitionBeats: 0.25,
		}},
		{"OverclockedSnare", DrillMode{
			Enabled: true, Amount: 1.0, MinBurst: 8, MaxBurst: 24,
			Spread: 1.0, Chaos: 0.25, Dropout: 0.05, VelDecay: 0.05,
			AccentFlip: 0.15, MutationRate: 0.20, TemporalAggression: 1.5,
			Grid: core.GridStraight, TransitionBeats: 0.25,
		}},
		{"TimeGrinder", DrillMode{
			Enabled: true, Amount: 0.72, MinBurst: 5, MaxBurst: 14,
			Spread: 0.7, Chaos: 0.75, Dropout: 0.30, VelDecay: 0.16,
			AccentFlip: 0.20, MutationRate: 0.65, TemporalAggression: 1.2,
			Grid: core.GridSeptuplet, TransitionBeats: 0.5,
		}},
		{"DigitalSeizure", DrillMode{
			Enabled: true, Amount: 1.0, MinBurst: 10, MaxBurst: 24,
			Spread: 1.0, Chaos: 0.90, Dropout: 0.18, VelDecay: 0.04,
			AccentFlip: 0.40, MutationRate: 0.75, TemporalAggression: 1.6,
			Grid: core.GridRandomPrime, TransitionBeats: 0.25,
		}},
		{"StaticEngine", DrillMode{
			Enabled: true, Amount: 0.35, MinBurst: 2, MaxBurst: 5,
			Spread: 1.0, Chaos: 0.10, Dropout: 0.25, VelDecay: 0.35,
			AccentFlip: 0.05, MutationRate: 0.10, TemporalAggression: 0.85,
			Grid: core.GridStraight, TransitionBeats: 2.0,
		}},
		{"RatchetBuilder", DrillMode{
			Enabled: true, Amount: 0.58, MinBurst: 2, MaxBurst: 8,
			Spread: 0.5, Chaos: 0.08, Dropout: 0.02, VelDecay: 0.22,
			AccentFlip: 0.10, MutationRate: 0.12, TemporalAggression: 1.0,
			Grid: core.GridStraight, TransitionBeats: 1.0,
		}},
		{"FillGenerator", DrillMode{
			Enabled: true, Amount: 0.68, MinBurst: 4, MaxBurst: 12,
			Spread: 1.0, Chaos: 0.20, Dropout: 0.06, VelDecay: 0.12,
			AccentFlip: 0.25, MutationRate: 0.22, TemporalAggression: 1.05,
			Grid: core.GridQuintuplet, TransitionBeats: 1.0,
		}},
	}
}

// DrillModePresetByName returns the named preset, or false when unknown.
func DrillModePresetByName(name string) (DrillMode, bool) {
	for _, p := range DrillModePresets() {
		if p.Name == name {
			return p.Mode, true
		}
	}
	return DrillMode{}, false
}

// IdmMacroPresets is the published bank of five composite behavioural
// identities: each bundles a drill mode, a fill policy and a gate policy,
// applied atomically via ApplyIdmMacroPreset.
func IdmMacroPresets() []IdmMacroPreset {
	ghost, _ := DrillModePresetByName("GhostMachinery")
	hell, _ := DrillModePresetByName("AphexSnareHell")
	desync, _ := DrillModePresetByName("ClockDesync")
	venetian, _ := DrillModePresetByName("VenetianMode")
	broken, _ := DrillModePresetByName("BrokenGroove")

	return []IdmMacroPreset{
		{
			Name:  "GhostFill",
			Drill: ghost,
			Fill: DrillFillPolicy{
				Enabled: true, FillLengthSteps: 4,
				TriggerChance: 0.35, FillAmount: 0.8, DecayPerStep: 0.15,
			},
			Gate: DrillGatePolicy{
				Enabled: false, SilenceChance: 0.05, BurstChance: 0.3,
				MinSilentSteps: 1, MaxSilentSteps: 2,
			},
		},
		{
			Name:  "SnareHallucination",
			Drill: hell,
			Fill: DrillFillPolicy{
				Enabled: true, FillLengthSteps: 6,
				TriggerChance: 0.5, FillAmount: 1.0, DecayPerStep: 0.08,
			},
			Gate: DrillGatePolicy{
				Enabled: false, SilenceChance: 0.1, BurstChance: 0.6,
				MinSilentSteps: 1, MaxSilentSteps: 3,
			},
		},
		{
			Name:  "BrokenTransport",
			Drill: desync,
			Fill: DrillFillPolicy{
				Enabled: true, FillLengthSteps: 4,
				TriggerChance: 0.3, FillAmount: 0.9, DecayPerStep: 0.12,
			},
			Gate: DrillGatePolicy{
				Enabled: true, SilenceChance: 0.25, BurstChance: 0.4,
				MinSilentSteps: 1, MaxSilentSteps: 4,
			},
		},
		{
			Name:  "VenetianCollapse",
			Drill: venetian,
			Fill: DrillFillPolicy{
				Enabled: true, FillLengthSteps: 8,
				TriggerChance: 0.45, FillAmount: 1.0, DecayPerStep: 0.05,
			},
			Gate: DrillGatePolicy{
				Enabled: true, SilenceChance: 0.35, BurstChance: 0.5,
				MinSilentSteps: 2, MaxSilentSteps: 6,
			},
		},
		{
			Name:  "AntiGroove",
			Drill: broken,
			Fill: DrillFillPolicy{
				Enabled: false, FillLengthSteps: 4,
				TriggerChance: 0.2, FillAmount: 0.6, DecayPerStep: 0.2,
			},
			Gate: DrillGatePolicy{
				Enabled: true, SilenceChance: 0.5, BurstChance: 0.2,
				MinSilentSteps: 2, MaxSilentSteps: 8,
			},
		},
	}
}

// IdmMacroPresetByName returns the named macro, or false when unknown.
func IdmMacroPresetByName(name string) (IdmMacroPreset, bool) {
	for _, p := range IdmMacroPresets() {
		if p.Name == name {
			return p, true
		}
	}
	return IdmMacroPreset{}, false
}
