package voice

import (
	"github.com/bretbouchard/whiteroom-rhythm/core"
	"github.com/bretbouchard/whiteroom-rhythm/vmath"
)

// Params tune one synthesised voice. Decay is the excitation length in
// seconds; Tune shifts tom-like voices in semitones; Level is the voice's
// unity-gain scale in the mix.
type Params struct {
	Decay float64
	Tune  int
	Level float64
}

// DefaultKit returns the factory voice parameters.
func DefaultKit() [core.VoiceTypeCount]Params {
	var kit [core.VoiceTypeCount]Params
	for i := range kit {
		kit[i] = Params{Decay: 0.2, Level: 1.0}
	}
	kit[core.VoiceKick] = Params{Decay: 0.15, Level: 1.0}
	kit[core.VoiceSnare] = Params{Decay: 0.12, Level: 0.9}
	kit[core.VoiceHiHatClosed] = Params{Decay: 0.06, Level: 0.7}
	kit[core.VoiceHiHatOpen] = Params{Decay: 0.35, Level: 0.7}
	kit[core.VoiceClap] = Params{Decay: 0.14, Level: 0.85}
	kit[core.VoiceTomLow] = Params{Decay: 0.30, Level: 0.9}
	kit[core.VoiceTomMid] = Params{Decay: 0.25, Level: 0.9}
	kit[core.VoiceTomHigh] = Params{Decay: 0.20, Level: 0.9}
	kit[core.VoiceCrash] = Params{Decay: 1.2, Level: 0.75}
	kit[core.VoiceRide] = Params{Decay: 0.8, Level: 0.65}
	kit[core.VoiceCowbell] = Params{Decay: 0.18, Level: 0.8}
	kit[core.VoiceShaker] = Params{Decay: 0.08, Level: 0.6}
	kit[core.VoiceTambourine] = Params{Decay: 0.22, Level: 0.65}
	kit[core.VoicePercussion] = Params{Decay: 0.12, Level: 0.8}
	kit[core.VoiceSpecial] = Params{Decay: 0.25, Level: 0.8}
	kit[core.VoiceSpecial2] = Params{Decay: 0.30, Level: 0.8}
	return kit
}

// generateVoice renders one voice's excitation buffer. The rng seeds the
// noise components; identical seeds produce identical buffers.
func generateVoice(v core.VoiceType, p Params, sampleRate float64, rng *vmath.FastRand) []float32 {
	samples := int(sampleRate * p.Decay)
	if samples < 1 {
		samples = 1
	}

	var buf floatBuffer
	switch v {
	case core.VoiceKick:
		buf = generateKick(samples, sampleRate)
	case core.VoiceSnare:
		buf = generateSnare(samples, sampleRate, rng)
	case core.VoiceHiHatClosed:
		buf = generateHat(samples, sampleRate, rng, 15.0)
	case core.VoiceHiHatOpen:
		buf = generateHat(samples, sampleRate, rng, 5.0)
	case core.VoiceClap:
		buf = generateClap(samples, sampleRate, rng)
	case core.VoiceTomLow:
		buf = generateTom(samples, sampleRate, 80.0, p.Tune)
	case core.VoiceTomMid:
		buf = generateTom(samples, sampleRate, 120.0, p.Tune)
	case core.VoiceTomHigh:
		buf = generateTom(samples, sampleRate, 170.0, p.Tune)
	case core.VoiceCrash:
		buf = generateCymbal(samples, sampleRate, rng, 4500.0, 3.0)
	case core.VoiceRide:
		buf = generateRide(samples, sampleRate, rng)
	case core.VoiceCowbell:
		buf = generateCowbell(samples, sampleRate, rng)
	case core.VoiceShaker:
		buf = generateShaker(samples, sampleRate, rng)
	case core.VoiceTambourine:
		buf = generateTambourine(samples, sampleRate, rng)
	case core.VoicePercussion:
		buf = generatePercBlip(samples, sampleRate)
	case core.VoiceSpecial:
		buf = generateSpecial(samples, sampleRate, rng)
	case core.VoiceSpecial2:
		buf = generateZapSweep(samples, sampleRate, rng)
	default:
		buf = make(floatBuffer, samples)
	}

	return toFloat32(buf, p.Level)
}

func generateKick(samples int, sampleRate float64) floatBuffer {
	buf := oscillatorSweep(150.0, 40.0, samples, sampleRate)
	applyExpDecay(buf, 5.0)
	applyTanh(buf, 2.0)
	return buf
}

func generateSnare(samples int, sampleRate float64, rng *vmath.FastRand) floatBuffer {
	// 200Hz body under band-passed wire noise.
	tone := oscillator(waveSine, 200.0, samples, sampleRate, rng)
	applyExpDecay(tone, 10.0)

	noise := oscillator(waveNoise, 0, samples, sampleRate, rng)
	applyExpDecay(noise, 8.0)
	filterBiquadBP(noise, 2000.0, 1.5, sampleRate)

	buf := mixFloatBuffers(tone, noise, 1.0)
	normalizePeak(buf, 0.9)
	return buf
}

func generateHat(samples int, sampleRate float64, rng *vmath.FastRand, decayRate float64) floatBuffer {
	buf := oscillator(waveNoise, 0, samples, sampleRate, rng)
	applyExpDecay(buf, decayRate)
	filterBiquadHP(buf, 7000.0, 0.707, sampleRate)
	normalizePeak(buf, 0.9)
	return buf
}

func generateClap(samples int, sampleRate float64, rng *vmath.FastRand) floatBuffer {
	// Three short pre-bursts roughly 10ms apart, then the body.
	burstLen := int(sampleRate * 0.008)
	gapLen := int(sampleRate * 0.010)

	var buf floatBuffer
	for i := 0; i < 3; i++ {
		burst := oscillator(waveNoise, 0, burstLen, sampleRate, rng)
		applyExpDecay(burst, 6.0)
		buf = concatFloatBuffers(buf, burst)
		buf = concatFloatBuffers(buf, make(floatBuffer, gapLen-burstLen))
	}

	bodyLen := samples - len(buf)
	if bodyLen < 1 {
		bodyLen = 1
	}
	body := oscillator(waveNoise, 0, bodyLen, sampleRate, rng)
	applyExpDecay(body, 9.0)
	buf = concatFloatBuffers(buf, body)

	filterBiquadBP(buf, 1200.0, 1.0, sampleRate)
	normalizePeak(buf, 0.9)
	return buf
}

func generateTom(samples int, sampleRate float64, baseFreq float64, tune int) floatBuffer {
	f := baseFreq * semitoneRatio(tune)
	buf := oscillatorSweep(f*1.6, f, samples, sampleRate)
	applyExpDecay(buf, 6.0)
	applyTanh(buf, 1.5)
	return buf
}

func generateCymbal(samples int, sampleRate float64, rng *vmath.FastRand, hpHz, decayRate float64) floatBuffer {
	buf := oscillator(waveNoise, 0, samples, sampleRate, rng)
	applyExpDecay(buf, decayRate)
	filterBiquadHP(buf, hpHz, 0.707, sampleRate)
	normalizePeak(buf, 0.85)
	return buf
}

func generateRide(samples int, sampleRate float64, rng *vmath.FastRand) floatBuffer {
	wash := oscillator(waveNoise, 0, samples, sampleRate, rng)
	applyExpDecay(wash, 2.5)
	filterBiquadHP(wash, 6000.0, 0.707, sampleRate)

	// Stick ping on top of the wash.
	ping := oscillator(waveSine, 3500.0, samples, sampleRate, rng)
	applyExpDecay(ping, 7.0)

	buf := mixFloatBuffers(wash, ping, 0.2)
	normalizePeak(buf, 0.8)
	return buf
}

func generateCowbell(samples int, sampleRate float64, rng *vmath.FastRand) floatBuffer {
	// Two inharmonic square partials, the classic 808 pair.
	p1 := oscillator(waveSquare, 560.0, samples, sampleRate, rng)
	p2 := oscillator(waveSquare, 845.0, samples, sampleRate, rng)
	buf := mixFloatBuffers(p1, p2, 0.8)
	applyExpDecay(buf, 9.0)
	filterBiquadBP(buf, 2500.0, 1.0, sampleRate)
	normalizePeak(buf, 0.85)
	return buf
}

func generateShaker(samples int, sampleRate float64, rng *vmath.FastRand) floatBuffer {
	buf := oscillator(waveNoise, 0, samples, sampleRate, rng)
	applyExpDecay(buf, 18.0)
	filterBiquadBP(buf, 8000.0, 1.2, sampleRate)
	normalizePeak(buf, 0.85)
	return buf
}

func generateTambourine(samples int, sampleRate float64, rng *vmath.FastRand) floatBuffer {
	noise := oscillator(waveNoise, 0, samples, sampleRate, rng)
	applyExpDecay(noise, 10.0)
	filterBiquadHP(noise, 6000.0, 0.707, sampleRate)

	// Jingle partials ring slightly longer than the noise.
	j1 := oscillator(waveSine, 5200.0, samples, sampleRate, rng)
	j2 := oscillator(waveSine, 7600.0, samples, sampleRate, rng)
	jingle := mixFloatBuffers(j1, j2, 0.7)
	applyExpDecay(jingle, 6.0)

	buf := mixFloatBuffers(noise, jingle, 0.35)
	normalizePeak(buf, 0.8)
	return buf
}

func generatePercBlip(samples int, sampleRate float64) floatBuffer {
	buf := oscillatorFM(400.0, 620.0, 2.0, samples, sampleRate)
	applyExpDecay(buf, 12.0)
	return buf
}

func generateSpecial(samples int, sampleRate float64, rng *vmath.FastRand) floatBuffer {
	// Metallic FM ring with a noise transient.
	ring := oscillatorFM(820.0, 1170.0, 4.0, samples, sampleRate)
	applyExpDecay(ring, 6.0)

	transientLen := int(sampleRate * 0.01)
	if transientLen > samples {
		transientLen = samples
	}
	transient := oscillator(waveNoise, 0, transientLen, sampleRate, rng)
	applyExpDecay(transient, 8.0)
	filterBiquadHP(transient, 3000.0, 0.707, sampleRate)

	buf := mixFloatBuffers(ring, transient, 0.4)
	normalizePeak(buf, 0.85)
	return buf
}

func generateZapSweep(samples int, sampleRate float64, rng *vmath.FastRand) floatBuffer {
	sweep := oscillatorSweep(2400.0, 120.0, samples, sampleRate)
	applyExpDecay(sweep, 7.0)

	grit := oscillator(waveNoise, 0, samples, sampleRate, rng)
	applyExpDecay(grit, 10.0)
	filterBiquadBP(grit, 1500.0, 2.0, sampleRate)

	buf := mixFloatBuffers(sweep, grit, 0.3)
	applyTanh(buf, 1.8)
	normalizePeak(buf, 0.85)
	return buf
}
