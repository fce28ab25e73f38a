package rhythm

import (
	"math"

	"github.com/bretbouchard/whiteroom-rhythm/core"
)

// resolveGrooveOffset combines swing, role timing and Dilla drift into a
// per-hit offset expressed as a fraction of the step duration.
//
// Swing is frozen while the feel mode is Drill: the drill scheduler supplies
// its own timing and layering swing on top smears the burst grids.
func (s *Sequencer) resolveGrooveOffset(step int, role core.TimingRole, st *DillaState) float64 {
	swing := 0.0
	if step%2 == 1 && s.feelMode != core.FeelDrill {
		sw := s.swing
		if sw <= 0.5 {
			swing = sw * 0.5
		} else {
			eased := (sw - 0.5) * 2.0
			swing = 0.25 + eased*eased*0.25
		}
		if swing > 0.5 {
			swing = 0.5
		}
	}

	var roleOff float64
	switch role {
	case core.RolePocket:
		roleOff = s.roleTiming.PocketOffset
	case core.RolePush:
		roleOff = s.roleTiming.PushOffset
		if step%2 == 1 {
			roleOff *= 1.2 // groove accent on the off-beats
		}
	case core.RolePull:
		roleOff = s.roleTiming.PullOffset
		if step%4 == 2 {
			roleOff *= 1.15 // backbeat drag
		}
	}

	return swing + roleOff + s.updateDrift(role, st)
}

// updateDrift advances one track's bounded random walk and returns the new
// drift. The walk is an Ornstein-Uhlenbeck-style process: random excitation,
// a pull toward zero, and a soft tanh clamp at MaxDrift. The closed-form
// update means a runtime MaxDrift change can never leave the drift outside
// the new bound past the next trigger.
func (s *Sequencer) updateDrift(role core.TimingRole, st *DillaState) float64 {
	p := s.dillaParams

	var instability, bias, correction float64
	switch role {
	case core.RolePocket:
		instability = 0.015 * p.Amount * (1.0 - p.KickTight)
		correction = 0.02
	case core.RolePush:
		instability = 0.07 * p.Amount
		bias = -p.HatBias*0.08 + (1.0-p.HatBias)*0.02
		correction = 0.005
	case core.RolePull:
		instability = 0.05 * p.Amount
		bias = p.SnareLate * 0.10
		correction = 0.008
	}

	u := s.rng.Next01()
	delta := (u-0.5)*instability + 0.5*bias

	d := st.Drift
	d = 0.98*d + 0.02*delta
	d *= 1.0 - correction

	if p.MaxDrift <= 0 {
		d = 0
	} else if math.Abs(d) > p.MaxDrift {
		d = math.Tanh(d/p.MaxDrift) * p.MaxDrift
	}

	st.Drift = d
	return d
}
