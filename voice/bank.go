// Package voice is the synthesised percussion voice bank: sixteen one-shot
// drum voices rendered to unity-gain buffers at prepare time and played back
// through fixed polyphony pools. The audio path (Trigger/Render) never
// allocates; buffer generation happens only in Prepare and SetVoiceParams.
package voice

import (
	"github.com/bretbouchard/whiteroom-rhythm/core"
	"github.com/bretbouchard/whiteroom-rhythm/parameter"
	"github.com/bretbouchard/whiteroom-rhythm/vmath"
)

// Polyphony is the number of overlapping hits one voice type can sustain.
// Micro-bursts retrigger fast; additional hits steal the oldest playhead.
const Polyphony = 8

// playhead is one in-flight excitation: a delayed, velocity-scaled read of
// the voice's buffer.
type playhead struct {
	delay  int // samples until the hit starts
	pos    int // read position in the buffer
	vel    float32
	active bool
}

type channel struct {
	buffer []float32
	heads  [Polyphony]playhead
}

// Bank implements rhythm.VoiceBank.
type Bank struct {
	sampleRate float64
	seed       uint32
	prepared   bool

	params   [core.VoiceTypeCount]Params
	channels [core.VoiceTypeCount]channel
}

// NewBank creates a bank whose noise components derive from seed, so two
// banks with equal seeds and parameters render identically.
func NewBank(seed uint32) *Bank {
	return &Bank{
		seed:   seed,
		params: DefaultKit(),
	}
}

// Prepare renders every voice's excitation buffer for the given sample rate.
// Must be called before Trigger/Render, and again after a rate change.
func (b *Bank) Prepare(sampleRate float64) {
	if sampleRate < parameter.MinSampleRate {
		sampleRate = parameter.DefaultSampleRate
	}
	b.sampleRate = sampleRate
	for v := core.VoiceType(0); v < core.VoiceTypeCount; v++ {
		b.regenerate(v)
	}
	b.prepared = true
}

// regenerate rebuilds one voice's buffer with a per-voice seeded generator.
func (b *Bank) regenerate(v core.VoiceType) {
	rng := vmath.NewFastRand(b.seed ^ uint32(v)*0x9e3779b9)
	b.channels[v].buffer = generateVoice(v, b.params[v], b.sampleRate, rng)
}

// SetVoiceParams replaces one voice's parameters and re-renders its buffer.
// Not for the audio path.
func (b *Bank) SetVoiceParams(v core.VoiceType, p Params) {
	if v < 0 || v >= core.VoiceTypeCount {
		return
	}
	if p.Level < 0 {
		p.Level = 0
	}
	if p.Decay <= 0 {
		p.Decay = 0.01
	}
	b.params[v] = p
	if b.prepared {
		b.regenerate(v)
	}
}

// VoiceParams returns one voice's parameters.
func (b *Bank) VoiceParams(v core.VoiceType) Params {
	if v < 0 || v >= core.VoiceTypeCount {
		return Params{}
	}
	return b.params[v]
}

// Trigger schedules one excitation sampleOffset samples into the current
// block. Allocation-free and O(Polyphony).
func (b *Bank) Trigger(v core.VoiceType, velocity float64, sampleOffset uint32) {
	if !b.prepared || v < 0 || v >= core.VoiceTypeCount {
		return
	}
	ch := &b.channels[v]

	head := -1
	oldestPos := -1
	for i := range ch.heads {
		if !ch.heads[i].active {
			head = i
			break
		}
		if ch.heads[i].pos > oldestPos {
			oldestPos = ch.heads[i].pos
			head = i
		}
	}

	ch.heads[head] = playhead{
		delay:  int(sampleOffset),
		vel:    float32(vmath.Clamp01(velocity)),
		active: true,
	}
}

// Render additively writes numSamples of voice v into out.
func (b *Bank) Render(v core.VoiceType, out []float32, numSamples int) {
	if !b.prepared || v < 0 || v >= core.VoiceTypeCount {
		return
	}
	if numSamples > len(out) {
		numSamples = len(out)
	}
	ch := &b.channels[v]
	buf := ch.buffer

	for h := range ch.heads {
		head := &ch.heads[h]
		if !head.active {
			continue
		}

		start := 0
		if head.delay > 0 {
			if head.delay >= numSamples {
				head.delay -= numSamples
				continue
			}
			start = head.delay
			head.delay = 0
		}

		for i := start; i < numSamples && head.pos < len(buf); i++ {
			out[i] += buf[head.pos] * head.vel
			head.pos++
		}
		if head.pos >= len(buf) {
			head.active = false
		}
	}
}

// Reset silences all voices.
func (b *Bank) Reset() {
	for v := range b.channels {
		for h := range b.channels[v].heads {
			b.channels[v].heads[h] = playhead{}
		}
	}
}

// AnyActive reports whether any playhead still produces output.
func (b *Bank) AnyActive() bool {
	return b.ActiveCount() > 0
}

// ActiveCount returns the number of in-flight playheads.
func (b *Bank) ActiveCount() int {
	n := 0
	for v := range b.channels {
		for h := range b.channels[v].heads {
			if b.channels[v].heads[h].active {
				n++
			}
		}
	}
	return n
}
