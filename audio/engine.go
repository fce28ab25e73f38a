// Package audio hosts the sequencer in a real-time playback engine built on
// beep. The engine owns one sequencer and one voice bank, renders mixed
// stereo blocks on the speaker goroutine, and drains a single-producer
// command queue between blocks so parameter edits always land on step
// boundaries.
package audio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/bretbouchard/whiteroom-rhythm/parameter"
	"github.com/bretbouchard/whiteroom-rhythm/rhythm"
	"github.com/bretbouchard/whiteroom-rhythm/voice"
)

// Config holds engine construction parameters.
type Config struct {
	Seed       uint32
	SampleRate int
	BlockSize  int
	// CommandQueueSize bounds pending edits; overflow drops and counts.
	CommandQueueSize int
}

func DefaultConfig() Config {
	return Config{
		Seed:             1,
		SampleRate:       int(parameter.DefaultSampleRate),
		BlockSize:        parameter.DefaultBlockSize,
		CommandQueueSize: 64,
	}
}

// Command mutates sequencer or bank state. Commands run on the audio
// goroutine between blocks; they must not block or allocate heavily.
type Command func(*rhythm.Sequencer, *voice.Bank)

// Engine is the playback host. It implements beep.Streamer.
type Engine struct {
	cfg  Config
	seq  *rhythm.Sequencer
	bank *voice.Bank

	cmds chan Command

	// Scratch buffers, sized once at construction. The streaming path does
	// not allocate.
	trackBuf []float32

	masterVolume atomic.Int64 // Q16.16
	running      atomic.Bool

	blocksRendered   atomic.Uint64
	commandOverflows atomic.Uint64
}

// NewEngine builds the sequencer + bank pair and prepares both.
func NewEngine(cfg Config) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = int(parameter.DefaultSampleRate)
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = parameter.DefaultBlockSize
	}
	if cfg.CommandQueueSize <= 0 {
		cfg.CommandQueueSize = 64
	}

	seq := rhythm.New(cfg.Seed)
	bank := voice.NewBank(cfg.Seed)
	bank.Prepare(float64(cfg.SampleRate))
	seq.SetVoiceBank(bank)
	seq.Prepare(float64(cfg.SampleRate), cfg.BlockSize)

	e := &Engine{
		cfg:      cfg,
		seq:      seq,
		bank:     bank,
		cmds:     make(chan Command, cfg.CommandQueueSize),
		trackBuf: make([]float32, cfg.BlockSize),
	}
	e.masterVolume.Store(1 << 16)
	return e
}

// Start initialises the speaker and begins playback.
func (e *Engine) Start() error {
	rate := beep.SampleRate(e.cfg.SampleRate)
	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("audio: speaker init: %w", err)
	}
	e.running.Store(true)
	speaker.Play(e)
	return nil
}

// Stop halts playback. The streamer keeps producing silence so the speaker
// stays healthy; Resume restarts playback.
func (e *Engine) Stop() {
	e.running.Store(false)
	speaker.Lock()
	e.seq.Reset()
	speaker.Unlock()
}

// Resume restarts a stopped engine without reinitialising the speaker.
func (e *Engine) Resume() {
	e.running.Store(true)
}

// IsRunning reports playback state.
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// SetMasterVolume sets output gain, clamped to [0,1].
func (e *Engine) SetMasterVolume(vol float64) {
	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	e.masterVolume.Store(int64(vol * (1 << 16)))
}

// Do submits a command for the next block boundary. Non-blocking; a full
// queue drops the command and counts the overflow.
func (e *Engine) Do(cmd Command) bool {
	select {
	case e.cmds <- cmd:
		return true
	default:
		e.commandOverflows.Add(1)
		return false
	}
}

// Sync runs fn under the speaker lock for reads that must see a consistent
// snapshot (the TUI uses this for step/bar display).
func (e *Engine) Sync(fn func(*rhythm.Sequencer, *voice.Bank)) {
	speaker.Lock()
	fn(e.seq, e.bank)
	speaker.Unlock()
}

// Stats returns blocks rendered and dropped commands.
func (e *Engine) Stats() (blocks, overflows uint64) {
	return e.blocksRendered.Load(), e.commandOverflows.Load()
}

// drainCommands applies queued edits. Runs between blocks only.
func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.cmds:
			cmd(e.seq, e.bank)
		default:
			return
		}
	}
}

// Stream implements beep.Streamer: advance the sequencer block-wise and mix
// all sixteen tracks with volume and pan into the stereo output.
func (e *Engine) Stream(samples [][2]float64) (int, bool) {
	if !e.running.Load() {
		for i := range samples {
			samples[i][0] = 0
			samples[i][1] = 0
		}
		return len(samples), true
	}

	vol := float64(e.masterVolume.Load()) / float64(1<<16)

	done := 0
	for done < len(samples) {
		n := len(samples) - done
		if n > e.cfg.BlockSize {
			n = e.cfg.BlockSize
		}

		e.drainCommands()
		e.seq.Advance(n)

		out := samples[done : done+n]
		for i := range out {
			out[i][0] = 0
			out[i][1] = 0
		}

		for t := 0; t < parameter.NumTracks; t++ {
			tr := e.seq.GetTrack(t)
			buf := e.trackBuf[:n]
			for i := range buf {
				buf[i] = 0
			}
			e.seq.RenderTrack(t, buf, n)

			l, r := panGains(tr.Pan)
			gl := tr.Volume * l * vol
			gr := tr.Volume * r * vol
			for i := range buf {
				s := float64(buf[i])
				out[i][0] += s * gl
				out[i][1] += s * gr
			}
		}

		done += n
		e.blocksRendered.Add(1)
	}

	return len(samples), true
}

func (e *Engine) Err() error { return nil }

// panGains maps pan in [-1,1] to left/right gains.
func panGains(pan float64) (float64, float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	l := 1.0
	r := 1.0
	if pan > 0 {
		l = 1 - pan
	} else if pan < 0 {
		r = 1 + pan
	}
	return l, r
}
