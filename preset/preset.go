// Package preset persists sequencer and kit state as JSON. Three sections —
// global, pattern, kit — save and load independently; field names are part
// of the stable surface. Nothing here runs on the audio path.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bretbouchard/whiteroom-rhythm/core"
	"github.com/bretbouchard/whiteroom-rhythm/parameter"
	"github.com/bretbouchard/whiteroom-rhythm/rhythm"
	"github.com/bretbouchard/whiteroom-rhythm/voice"
)

// Section selects which parts of a File are populated.
type Section uint8

const (
	SectionGlobal Section = 1 << iota
	SectionPattern
	SectionKit
	SectionAll = SectionGlobal | SectionPattern | SectionKit
)

var ErrEmptyPreset = errors.New("preset: no sections present")

// File is the on-disk document. Absent sections marshal away entirely.
type File struct {
	Global  *Global  `json:"global,omitempty"`
	Pattern *Pattern `json:"pattern,omitempty"`
	Kit     *Kit     `json:"kit,omitempty"`
}

// Global is the flat object of sequencer-wide parameters.
type Global struct {
	Tempo          float64 `json:"tempo"`
	Swing          float64 `json:"swing"`
	PatternLength  int     `json:"patternLength"`
	RhythmFeelMode string  `json:"rhythmFeelMode"`

	PocketOffset float64 `json:"pocketOffset"`
	PushOffset   float64 `json:"pushOffset"`
	PullOffset   float64 `json:"pullOffset"`

	DillaAmount    float64 `json:"dillaAmount"`
	DillaHatBias   float64 `json:"dillaHatBias"`
	DillaSnareLate float64 `json:"dillaSnareLate"`
	DillaKickTight float64 `json:"dillaKickTight"`
	DillaMaxDrift  float64 `json:"dillaMaxDrift"`

	DrillEnabled            bool    `json:"drillEnabled"`
	DrillAmount             float64 `json:"drillAmount"`
	DrillMinBurst           int     `json:"drillMinBurst"`
	DrillMaxBurst           int     `json:"drillMaxBurst"`
	DrillSpread             float64 `json:"drillSpread"`
	DrillChaos              float64 `json:"drillChaos"`
	DrillDropout            float64 `json:"drillDropout"`
	DrillVelDecay           float64 `json:"drillVelDecay"`
	DrillAccentFlip         float64 `json:"drillAccentFlip"`
	DrillMutationRate       float64 `json:"drillMutationRate"`
	DrillTemporalAggression float64 `json:"drillTemporalAggression"`
	DrillGrid               string  `json:"drillGrid"`
	DrillTransitionBeats    float64 `json:"drillTransitionBeats"`

	FillEnabled       bool    `json:"fillEnabled"`
	FillLengthSteps   int     `json:"fillLengthSteps"`
	FillTriggerChance float64 `json:"fillTriggerChance"`
	FillAmount        float64 `json:"fillAmount"`
	FillDecayPerStep  float64 `json:"fillDecayPerStep"`

	GateEnabled        bool    `json:"gateEnabled"`
	GateSilenceChance  float64 `json:"gateSilenceChance"`
	GateBurstChance    float64 `json:"gateBurstChance"`
	GateMinSilentSteps int     `json:"gateMinSilentSteps"`
	GateMaxSilentSteps int     `json:"gateMaxSilentSteps"`

	BarsPerPhrase int `json:"barsPerPhrase"`

	DrillAutomation []AutomationPoint `json:"drillAutomation,omitempty"`
}

type AutomationPoint struct {
	Bar    int     `json:"bar"`
	Amount float64 `json:"amount"`
}

// Pattern is the 16-track step grid.
type Pattern struct {
	Tracks []TrackState `json:"tracks"`
}

type TrackState struct {
	Voice  string      `json:"voice"`
	Role   string      `json:"role"`
	Volume float64     `json:"volume"`
	Pan    float64     `json:"pan"`
	Pitch  int         `json:"pitch"`
	Steps  []StepState `json:"steps"`

	// DrillOverride, when present, shadows the global drill mode for this
	// track.
	DrillOverride *DrillModeState `json:"drillOverride,omitempty"`
}

// DrillModeState is the JSON shape of one drill mode, used for per-track
// overrides.
type DrillModeState struct {
	Enabled            bool    `json:"enabled"`
	Amount             float64 `json:"amount"`
	MinBurst           int     `json:"minBurst"`
	MaxBurst           int     `json:"maxBurst"`
	Spread             float64 `json:"spread"`
	Chaos              float64 `json:"chaos"`
	Dropout            float64 `json:"dropout"`
	VelDecay           float64 `json:"velDecay"`
	AccentFlip         float64 `json:"accentFlip"`
	MutationRate       float64 `json:"mutationRate"`
	TemporalAggression float64 `json:"temporalAggression"`
	Grid               string  `json:"grid"`
	TransitionBeats    float64 `json:"transitionBeats"`
}

func snapshotDrillMode(m rhythm.DrillMode) DrillModeState {
	return DrillModeState{
		Enabled:            m.Enabled,
		Amount:             m.Amount,
		MinBurst:           m.MinBurst,
		MaxBurst:           m.MaxBurst,
		Spread:             m.Spread,
		Chaos:              m.Chaos,
		Dropout:            m.Dropout,
		VelDecay:           m.VelDecay,
		AccentFlip:         m.AccentFlip,
		MutationRate:       m.MutationRate,
		TemporalAggression: m.TemporalAggression,
		Grid:               m.Grid.String(),
		TransitionBeats:    m.TransitionBeats,
	}
}

func applyDrillMode(st DrillModeState) rhythm.DrillMode {
	return rhythm.DrillMode{
		Enabled:            st.Enabled,
		Amount:             st.Amount,
		MinBurst:           st.MinBurst,
		MaxBurst:           st.MaxBurst,
		Spread:             st.Spread,
		Chaos:              st.Chaos,
		Dropout:            st.Dropout,
		VelDecay:           st.VelDecay,
		AccentFlip:         st.AccentFlip,
		MutationRate:       st.MutationRate,
		TemporalAggression: st.TemporalAggression,
		Grid:               core.DrillGridFromName(st.Grid),
		TransitionBeats:    st.TransitionBeats,
	}
}

type StepState struct {
	Active      bool    `json:"active"`
	Velocity    int     `json:"velocity"`
	Probability float64 `json:"probability"`

	Flam      bool `json:"flam"`
	Roll      bool `json:"roll"`
	RollNotes int  `json:"rollNotes"`

	UseDrill     bool    `json:"useDrill"`
	BurstCount   int     `json:"burstCount"`
	BurstChaos   float64 `json:"burstChaos"`
	BurstDropout float64 `json:"burstDropout"`
	DrillIntent  string  `json:"drillIntent"`
}

// Kit is the voice-parameter block.
type Kit struct {
	Voices []VoiceState `json:"voices"`
}

type VoiceState struct {
	Voice string  `json:"voice"`
	Decay float64 `json:"decay"`
	Tune  int     `json:"tune"`
	Level float64 `json:"level"`
}

// Snapshot captures the requested sections from a sequencer and bank. Either
// may be nil when its sections are not requested.
func Snapshot(s *rhythm.Sequencer, b *voice.Bank, sections Section) *File {
	f := &File{}
	if sections&SectionGlobal != 0 && s != nil {
		f.Global = snapshotGlobal(s)
	}
	if sections&SectionPattern != 0 && s != nil {
		f.Pattern = snapshotPattern(s)
	}
	if sections&SectionKit != 0 && b != nil {
		f.Kit = snapshotKit(b)
	}
	return f
}

// Apply installs whichever sections the file carries.
func Apply(f *File, s *rhythm.Sequencer, b *voice.Bank) error {
	if f == nil || (f.Global == nil && f.Pattern == nil && f.Kit == nil) {
		return ErrEmptyPreset
	}
	if f.Global != nil && s != nil {
		applyGlobal(s, f.Global)
	}
	if f.Pattern != nil && s != nil {
		if err := applyPattern(s, f.Pattern); err != nil {
			return err
		}
	}
	if f.Kit != nil && b != nil {
		applyKit(b, f.Kit)
	}
	return nil
}

// Marshal encodes the file as indented JSON.
func Marshal(f *File) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// Unmarshal decodes a preset document.
func Unmarshal(data []byte) (*File, error) {
	f := &File{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("preset: decode: %w", err)
	}
	return f, nil
}

func snapshotGlobal(s *rhythm.Sequencer) *Global {
	rt := s.RoleTiming()
	dp := s.DillaParams()
	dm := s.DrillMode()
	fp := s.FillPolicy()
	gp := s.GatePolicy()

	g := &Global{
		Tempo:          s.Tempo(),
		Swing:          s.Swing(),
		PatternLength:  s.PatternLength(),
		RhythmFeelMode: s.FeelMode().String(),

		PocketOffset: rt.PocketOffset,
		PushOffset:   rt.PushOffset,
		PullOffset:   rt.PullOffset,

		DillaAmount:    dp.Amount,
		DillaHatBias:   dp.HatBias,
		DillaSnareLate: dp.SnareLate,
		DillaKickTight: dp.KickTight,
		DillaMaxDrift:  dp.MaxDrift,

		DrillEnabled:            dm.Enabled,
		DrillAmount:             dm.Amount,
		DrillMinBurst:           dm.MinBurst,
		DrillMaxBurst:           dm.MaxBurst,
		DrillSpread:             dm.Spread,
		DrillChaos:              dm.Chaos,
		DrillDropout:            dm.Dropout,
		DrillVelDecay:           dm.VelDecay,
		DrillAccentFlip:         dm.AccentFlip,
		DrillMutationRate:       dm.MutationRate,
		DrillTemporalAggression: dm.TemporalAggression,
		DrillGrid:               dm.Grid.String(),
		DrillTransitionBeats:    dm.TransitionBeats,

		FillEnabled:       fp.Enabled,
		FillLengthSteps:   fp.FillLengthSteps,
		FillTriggerChance: fp.TriggerChance,
		FillAmount:        fp.FillAmount,
		FillDecayPerStep:  fp.DecayPerStep,

		GateEnabled:        gp.Enabled,
		GateSilenceChance:  gp.SilenceChance,
		GateBurstChance:    gp.BurstChance,
		GateMinSilentSteps: gp.MinSilentSteps,
		GateMaxSilentSteps: gp.MaxSilentSteps,

		BarsPerPhrase: s.Phrase().BarsPerPhrase,
	}

	automationLane := s.AutomationLane()
	for _, p := range automationLane.Points() {
		g.DrillAutomation = append(g.DrillAutomation, AutomationPoint{Bar: p.Bar, Amount: p.Amount})
	}
	return g
}

func applyGlobal(s *rhythm.Sequencer, g *Global) {
	s.SetTempo(g.Tempo)
	s.SetSwing(g.Swing)
	s.SetPatternLength(g.PatternLength)
	s.SetRhythmFeelMode(core.RhythmFeelModeFromName(g.RhythmFeelMode))

	s.SetRoleTiming(rhythm.RoleTiming{
		PocketOffset: g.PocketOffset,
		PushOffset:   g.PushOffset,
		PullOffset:   g.PullOffset,
	})
	s.SetDillaParams(rhythm.DillaParams{
		Amount:    g.DillaAmount,
		HatBias:   g.DillaHatBias,
		SnareLate: g.DillaSnareLate,
		KickTight: g.DillaKickTight,
		MaxDrift:  g.DillaMaxDrift,
	})
	s.SetDrillMode(rhythm.DrillMode{
		Enabled:            g.DrillEnabled,
		Amount:             g.DrillAmount,
		MinBurst:           g.DrillMinBurst,
		MaxBurst:           g.DrillMaxBurst,
		Spread:             g.DrillSpread,
		Chaos:              g.DrillChaos,
		Dropout:            g.DrillDropout,
		VelDecay:           g.DrillVelDecay,
		AccentFlip:         g.DrillAccentFlip,
		MutationRate:       g.DrillMutationRate,
		TemporalAggression: g.DrillTemporalAggression,
		Grid:               core.DrillGridFromName(g.DrillGrid),
		TransitionBeats:    g.DrillTransitionBeats,
	})
	s.SetDrillFillPolicy(rhythm.DrillFillPolicy{
		Enabled:         g.FillEnabled,
		FillLengthSteps: g.FillLengthSteps,
		TriggerChance:   g.FillTriggerChance,
		FillAmount:      g.FillAmount,
		DecayPerStep:    g.FillDecayPerStep,
	})
	s.SetDrillGatePolicy(rhythm.DrillGatePolicy{
		Enabled:        g.GateEnabled,
		SilenceChance:  g.GateSilenceChance,
		BurstChance:    g.GateBurstChance,
		MinSilentSteps: g.GateMinSilentSteps,
		MaxSilentSteps: g.GateMaxSilentSteps,
	})
	s.SetPhraseDetector(rhythm.PhraseDetector{BarsPerPhrase: g.BarsPerPhrase})

	lane := rhythm.DrillAutomationLane{}
	for _, p := range g.DrillAutomation {
		lane.Add(p.Bar, p.Amount)
	}
	s.SetDrillAutomation(lane)
}

func snapshotPattern(s *rhythm.Sequencer) *Pattern {
	p := &Pattern{Tracks: make([]TrackState, parameter.NumTracks)}
	for i := 0; i < parameter.NumTracks; i++ {
		tr := s.GetTrack(i)
		ts := TrackState{
			Voice:  tr.Voice.String(),
			Role:   tr.Role.String(),
			Volume: tr.Volume,
			Pan:    tr.Pan,
			Pitch:  tr.Pitch,
			Steps:  make([]StepState, parameter.PatternSteps),
		}
		if tr.DrillOverride != nil {
			st := snapshotDrillMode(*tr.DrillOverride)
			ts.DrillOverride = &st
		}
		for j, cell := range tr.Steps {
			ts.Steps[j] = StepState{
				Active:       cell.Active,
				Velocity:     cell.Velocity,
				Probability:  cell.Probability,
				Flam:         cell.HasFlam,
				Roll:         cell.IsRoll,
				RollNotes:    cell.RollNotes,
				UseDrill:     cell.UseDrill,
				BurstCount:   cell.BurstCount,
				BurstChaos:   cell.BurstChaos,
				BurstDropout: cell.BurstDropout,
				DrillIntent:  cell.Intent.String(),
			}
		}
		p.Tracks[i] = ts
	}
	return p
}

func applyPattern(s *rhythm.Sequencer, p *Pattern) error {
	if len(p.Tracks) != parameter.NumTracks {
		return fmt.Errorf("preset: expected %d tracks, got %d", parameter.NumTracks, len(p.Tracks))
	}
	for i, ts := range p.Tracks {
		if len(ts.Steps) != parameter.PatternSteps {
			return fmt.Errorf("preset: track %d: expected %d steps, got %d",
				i, parameter.PatternSteps, len(ts.Steps))
		}
		tr := rhythm.Track{
			Voice:  core.VoiceTypeFromName(ts.Voice),
			Role:   core.TimingRoleFromName(ts.Role),
			Volume: ts.Volume,
			Pan:    ts.Pan,
			Pitch:  ts.Pitch,
		}
		if ts.DrillOverride != nil {
			mode := applyDrillMode(*ts.DrillOverride)
			tr.DrillOverride = &mode
		}
		for j, st := range ts.Steps {
			tr.Steps[j] = rhythm.StepCell{
				Active:       st.Active,
				Velocity:     st.Velocity,
				Probability:  st.Probability,
				HasFlam:      st.Flam,
				IsRoll:       st.Roll,
				RollNotes:    st.RollNotes,
				UseDrill:     st.UseDrill,
				BurstCount:   st.BurstCount,
				BurstChaos:   st.BurstChaos,
				BurstDropout: st.BurstDropout,
				Intent:       core.DrillIntentFromName(st.DrillIntent),
			}
		}
		s.SetTrack(i, tr)
	}
	return nil
}

func snapshotKit(b *voice.Bank) *Kit {
	k := &Kit{Voices: make([]VoiceState, core.VoiceTypeCount)}
	for v := core.VoiceType(0); v < core.VoiceTypeCount; v++ {
		p := b.VoiceParams(v)
		k.Voices[v] = VoiceState{
			Voice: v.String(),
			Decay: p.Decay,
			Tune:  p.Tune,
			Level: p.Level,
		}
	}
	return k
}

func applyKit(b *voice.Bank, k *Kit) {
	for _, vs := range k.Voices {
		v := core.VoiceTypeFromName(vs.Voice)
		b.SetVoiceParams(v, voice.Params{
			Decay: vs.Decay,
			Tune:  vs.Tune,
			Level: vs.Level,
		})
	}
}
