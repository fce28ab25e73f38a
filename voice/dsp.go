package voice

import (
	"math"

	"github.com/bretbouchard/whiteroom-rhythm/vmath"
)

// floatBuffer holds generated audio at unity gain. Generation runs in
// float64 and is converted once at the end; playback stays float32.
type floatBuffer []float64

const (
	waveSine = iota
	waveSquare
	waveSaw
	waveNoise
)

// oscillator generates a raw wave. Noise draws from rng so identically
// seeded banks render bit-identical buffers.
func oscillator(waveType int, freq float64, samples int, sampleRate float64, rng *vmath.FastRand) floatBuffer {
	buf := make(floatBuffer, samples)
	phase := 0.0
	for i := range buf {
		switch waveType {
		case waveSine:
			buf[i] = math.Sin(2 * math.Pi * phase)
		case waveSquare:
			if phase < 0.5 {
				buf[i] = 1.0
			} else {
				buf[i] = -1.0
			}
		case waveSaw:
			buf[i] = 2.0 * (phase - 0.5)
		case waveNoise:
			buf[i] = rng.NextSigned()
		}
		phase += freq / sampleRate
		phase -= math.Floor(phase)
	}
	return buf
}

// oscillatorSweep generates a sine with an exponential pitch drop from
// startFreq to endFreq across the buffer.
func oscillatorSweep(startFreq, endFreq float64, samples int, sampleRate float64) floatBuffer {
	buf := make(floatBuffer, samples)
	phase := 0.0
	for i := range buf {
		t := float64(i) / float64(samples)
		freq := endFreq + (startFreq-endFreq)*math.Exp(-8*t)
		buf[i] = math.Sin(2 * math.Pi * phase)
		phase += freq / sampleRate
	}
	return buf
}

// oscillatorFM generates carrier modulated by a sine at modFreq.
func oscillatorFM(carrierFreq, modFreq, modIndex float64, samples int, sampleRate float64) floatBuffer {
	buf := make(floatBuffer, samples)
	cPhase, mPhase := 0.0, 0.0
	for i := range buf {
		mod := math.Sin(2 * math.Pi * mPhase)
		buf[i] = math.Sin(2*math.Pi*cPhase + modIndex*mod)
		cPhase += carrierFreq / sampleRate
		mPhase += modFreq / sampleRate
		cPhase -= math.Floor(cPhase)
		mPhase -= math.Floor(mPhase)
	}
	return buf
}

// applyExpDecay multiplies the buffer by exp(-rate*t), t in [0,1].
func applyExpDecay(buf floatBuffer, rate float64) {
	n := float64(len(buf))
	for i := range buf {
		t := float64(i) / n
		buf[i] *= math.Exp(-rate * t)
	}
}

// applyTanh soft-saturates the buffer for punch.
func applyTanh(buf floatBuffer, drive float64) {
	for i := range buf {
		buf[i] = math.Tanh(buf[i] * drive)
	}
}

func mixFloatBuffers(a, b floatBuffer, bScale float64) floatBuffer {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make(floatBuffer, n)
	for i := range out {
		if i < len(a) {
			out[i] += a[i]
		}
		if i < len(b) {
			out[i] += b[i] * bScale
		}
	}
	return out
}

func concatFloatBuffers(a, b floatBuffer) floatBuffer {
	out := make(floatBuffer, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

// --- Biquad filters (RBJ cookbook coefficients) ---

func biquad(buf floatBuffer, b0, b1, b2, a1, a2 float64) {
	var x1, x2, y1, y2 float64
	for i := range buf {
		x := buf[i]
		y := b0*x + b1*x1 + b2*x2 - a1*y1 - a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		buf[i] = y
	}
}

func filterBiquadLP(buf floatBuffer, cutoffHz, q, sampleRate float64) {
	w := 2 * math.Pi * cutoffHz / sampleRate
	alpha := math.Sin(w) / (2 * q)
	cosw := math.Cos(w)
	a0 := 1 + alpha
	biquad(buf,
		(1-cosw)/2/a0, (1-cosw)/a0, (1-cosw)/2/a0,
		-2*cosw/a0, (1-alpha)/a0)
}

func filterBiquadHP(buf floatBuffer, cutoffHz, q, sampleRate float64) {
	w := 2 * math.Pi * cutoffHz / sampleRate
	alpha := math.Sin(w) / (2 * q)
	cosw := math.Cos(w)
	a0 := 1 + alpha
	biquad(buf,
		(1+cosw)/2/a0, -(1+cosw)/a0, (1+cosw)/2/a0,
		-2*cosw/a0, (1-alpha)/a0)
}

func filterBiquadBP(buf floatBuffer, centerHz, q, sampleRate float64) {
	w := 2 * math.Pi * centerHz / sampleRate
	alpha := math.Sin(w) / (2 * q)
	cosw := math.Cos(w)
	a0 := 1 + alpha
	biquad(buf,
		alpha/a0, 0, -alpha/a0,
		-2*cosw/a0, (1-alpha)/a0)
}

// normalizePeak scales the buffer so the max absolute value equals target.
func normalizePeak(buf floatBuffer, target float64) {
	var peak float64
	for _, v := range buf {
		if abs := math.Abs(v); abs > peak {
			peak = abs
		}
	}
	if peak < 0.0001 {
		return
	}
	scale := target / peak
	for i := range buf {
		buf[i] *= scale
	}
}

// toFloat32 converts a generated buffer to the playback format, applying a
// final level.
func toFloat32(buf floatBuffer, level float64) []float32 {
	out := make([]float32, len(buf))
	for i, v := range buf {
		out[i] = float32(v * level)
	}
	return out
}

// semitoneRatio returns the frequency ratio for a semitone offset.
func semitoneRatio(semitones int) float64 {
	return math.Pow(2, float64(semitones)/12.0)
}
