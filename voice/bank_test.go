package voice

import (
	"testing"

	"github.com/bretbouchard/whiteroom-rhythm/core"
)

func preparedBank(seed uint32) *Bank {
	b := NewBank(seed)
	b.Prepare(48000)
	return b
}

func renderAll(b *Bank, v core.VoiceType, blocks, blockSize int) []float32 {
	out := make([]float32, 0, blocks*blockSize)
	buf := make([]float32, blockSize)
	for i := 0; i < blocks; i++ {
		for j := range buf {
			buf[j] = 0
		}
		b.Render(v, buf, blockSize)
		out = append(out, buf...)
	}
	return out
}

// The bank contract requires deterministic output for identical trigger
// history.
func TestBankDeterministicRender(t *testing.T) {
	run := func() []float32 {
		b := preparedBank(99)
		b.Trigger(core.VoiceSnare, 1.0, 0)
		b.Trigger(core.VoiceSnare, 0.5, 100)
		return renderAll(b, core.VoiceSnare, 16, 512)
	}
	a, c := run(), run()
	for i := range a {
		if a[i] != c[i] {
			t.Fatalf("Render diverged at sample %d: %v vs %v", i, a[i], c[i])
		}
	}
}

func TestBankSampleOffsetDelaysStart(t *testing.T) {
	b := preparedBank(7)
	b.Trigger(core.VoiceKick, 1.0, 100)

	out := make([]float32, 512)
	b.Render(core.VoiceKick, out, 512)

	for i := 0; i < 100; i++ {
		if out[i] != 0 {
			t.Fatalf("Expected silence before offset, sample %d = %v", i, out[i])
		}
	}
	nonZero := false
	for i := 100; i < 512; i++ {
		if out[i] != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("Expected audio after the offset")
	}
}

func TestBankOffsetBeyondBlockCarriesOver(t *testing.T) {
	b := preparedBank(7)
	b.Trigger(core.VoiceKick, 1.0, 700)

	out := make([]float32, 512)
	b.Render(core.VoiceKick, out, 512)
	for i, s := range out {
		if s != 0 {
			t.Fatalf("Expected first block silent, sample %d = %v", i, s)
		}
	}

	for i := range out {
		out[i] = 0
	}
	b.Render(core.VoiceKick, out, 512)
	// The hit starts 188 samples into the second block.
	for i := 0; i < 188; i++ {
		if out[i] != 0 {
			t.Fatalf("Expected silence before carried offset, sample %d = %v", i, out[i])
		}
	}
	nonZero := false
	for i := 188; i < 512; i++ {
		if out[i] != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("Expected audio after the carried offset")
	}
}

func TestBankRenderIsAdditive(t *testing.T) {
	b := preparedBank(7)
	b.Trigger(core.VoiceKick, 1.0, 0)

	out := make([]float32, 64)
	sentinel := float32(10)
	for i := range out {
		out[i] = sentinel
	}
	b.Render(core.VoiceKick, out, 64)

	changed := false
	for _, s := range out {
		if s != sentinel {
			changed = true
		}
		if s == 0 {
			t.Fatal("Render overwrote instead of adding")
		}
	}
	if !changed {
		t.Error("Expected render to add signal on top of existing content")
	}
}

func TestBankPolyphonyStealsOldest(t *testing.T) {
	b := preparedBank(7)
	for i := 0; i < Polyphony+4; i++ {
		b.Trigger(core.VoiceHiHatClosed, 1.0, 0)
	}
	if got := b.ActiveCount(); got != Polyphony {
		t.Errorf("Expected %d active playheads after overflow, got %d", Polyphony, got)
	}
}

func TestBankActiveLifecycle(t *testing.T) {
	b := preparedBank(7)
	if b.AnyActive() {
		t.Error("Expected a fresh bank to be silent")
	}

	b.Trigger(core.VoiceShaker, 1.0, 0)
	if !b.AnyActive() {
		t.Error("Expected activity after trigger")
	}

	// Shaker decay is 0.08s = 3840 samples at 48k; drain well past it.
	renderAll(b, core.VoiceShaker, 16, 512)
	if b.AnyActive() {
		t.Error("Expected voice to finish after its buffer drained")
	}

	b.Trigger(core.VoiceShaker, 1.0, 0)
	b.Reset()
	if b.AnyActive() {
		t.Error("Expected Reset to silence all voices")
	}
}

func TestBankVelocityScales(t *testing.T) {
	loud := preparedBank(7)
	soft := preparedBank(7)
	loud.Trigger(core.VoiceKick, 1.0, 0)
	soft.Trigger(core.VoiceKick, 0.5, 0)

	outLoud := make([]float32, 256)
	outSoft := make([]float32, 256)
	loud.Render(core.VoiceKick, outLoud, 256)
	soft.Render(core.VoiceKick, outSoft, 256)

	for i := range outLoud {
		if outSoft[i] != outLoud[i]*0.5 {
			t.Fatalf("Sample %d: expected exact half-velocity scale, got %v vs %v",
				i, outSoft[i], outLoud[i])
		}
	}
}

func TestBankTomTuneChangesBuffer(t *testing.T) {
	b := preparedBank(7)
	b.Trigger(core.VoiceTomLow, 1.0, 0)
	before := renderAll(b, core.VoiceTomLow, 4, 512)

	p := b.VoiceParams(core.VoiceTomLow)
	p.Tune = 7
	b.SetVoiceParams(core.VoiceTomLow, p)
	b.Reset()
	b.Trigger(core.VoiceTomLow, 1.0, 0)
	after := renderAll(b, core.VoiceTomLow, 4, 512)

	same := true
	for i := range before {
		if before[i] != after[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Expected retuned tom to render differently")
	}
}

func TestBankIgnoresInvalidVoice(t *testing.T) {
	b := preparedBank(7)
	b.Trigger(core.VoiceType(-1), 1.0, 0)
	b.Trigger(core.VoiceTypeCount, 1.0, 0)
	out := make([]float32, 16)
	b.Render(core.VoiceType(-1), out, 16)
	if b.ActiveCount() != 0 {
		t.Error("Expected invalid voice triggers to be ignored")
	}
}

func TestBankUnpreparedIsNoop(t *testing.T) {
	b := NewBank(1)
	b.Trigger(core.VoiceKick, 1.0, 0)
	out := make([]float32, 16)
	b.Render(core.VoiceKick, out, 16)
	for _, s := range out {
		if s != 0 {
			t.Fatal("Expected no output before Prepare")
		}
	}
}
