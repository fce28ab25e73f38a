// groovebox is a terminal front-end for the rhythm core: a 16x16 step grid,
// transport controls, drill preset cycling and a SQLite preset library.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/bretbouchard/whiteroom-rhythm/audio"
	"github.com/bretbouchard/whiteroom-rhythm/parameter"
	"github.com/bretbouchard/whiteroom-rhythm/preset"
	"github.com/bretbouchard/whiteroom-rhythm/rhythm"
	"github.com/bretbouchard/whiteroom-rhythm/store"
	"github.com/bretbouchard/whiteroom-rhythm/voice"
)

const presetName = "groovebox-session"

type app struct {
	screen tcell.Screen
	engine *audio.Engine
	db     *store.DB
	logger *slog.Logger

	curTrack int
	curStep  int

	drillPresetIdx int
	macroIdx       int
	status         string
}

func main() {
	configPath := flag.String("config", "groovebox.toml", "path to TOML config")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	db, err := store.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Error("preset store open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	engine := audio.NewEngine(audio.Config{
		Seed:       cfg.Seed,
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
	})
	engine.SetMasterVolume(cfg.MasterVolume)
	engine.Do(func(s *rhythm.Sequencer, _ *voice.Bank) {
		s.SetTempo(cfg.Tempo)
		s.SetSwing(cfg.Swing)
	})

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Error("screen init failed", "err", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		logger.Error("screen init failed", "err", err)
		os.Exit(1)
	}
	defer screen.Fini()

	if err := engine.Start(); err != nil {
		screen.Fini()
		logger.Error("audio start failed", "err", err)
		os.Exit(1)
	}
	defer engine.Stop()

	a := &app{
		screen:         screen,
		engine:         engine,
		db:             db,
		logger:         logger,
		drillPresetIdx: -1,
		macroIdx:       -1,
		status:         "space: toggle  p: play/stop  d/m: presets  s/l: save/load  q: quit",
	}
	a.run()
}

func (a *app) run() {
	events := make(chan tcell.Event, 8)
	go func() {
		for {
			events <- a.screen.PollEvent()
		}
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !a.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				a.screen.Sync()
			}
		case <-ticker.C:
		}
		a.draw()
	}
}

func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch {
	case ev.Key() == tcell.KeyEscape || ev.Rune() == 'q':
		return false

	case ev.Key() == tcell.KeyUp:
		a.curTrack = (a.curTrack + parameter.NumTracks - 1) % parameter.NumTracks
	case ev.Key() == tcell.KeyDown:
		a.curTrack = (a.curTrack + 1) % parameter.NumTracks
	case ev.Key() == tcell.KeyLeft:
		a.curStep = (a.curStep + parameter.PatternSteps - 1) % parameter.PatternSteps
	case ev.Key() == tcell.KeyRight:
		a.curStep = (a.curStep + 1) % parameter.PatternSteps

	case ev.Rune() == ' ':
		track, step := a.curTrack, a.curStep
		a.engine.Do(func(s *rhythm.Sequencer, _ *voice.Bank) {
			tr := s.GetTrack(track)
			cell := &tr.Steps[step]
			cell.Active = !cell.Active
			if cell.Velocity == 0 {
				cell.Velocity = parameter.DefaultVelocity
			}
			s.SetTrack(track, tr)
		})

	case ev.Rune() == 'p':
		if a.engine.IsRunning() {
			a.engine.Stop()
			a.status = "stopped"
		} else {
			a.engine.Resume()
			a.status = "playing"
		}

	case ev.Rune() == '+' || ev.Rune() == '=':
		a.nudgeTempo(+2)
	case ev.Rune() == '-':
		a.nudgeTempo(-2)

	case ev.Rune() == '[':
		a.nudgeSwing(-0.05)
	case ev.Rune() == ']':
		a.nudgeSwing(+0.05)

	case ev.Rune() == 'd':
		presets := rhythm.DrillModePresets()
		a.drillPresetIdx = (a.drillPresetIdx + 1) % len(presets)
		p := presets[a.drillPresetIdx]
		a.engine.Do(func(s *rhythm.Sequencer, _ *voice.Bank) {
			s.SetDrillMode(p.Mode)
		})
		a.status = "drill: " + p.Name

	case ev.Rune() == 'm':
		macros := rhythm.IdmMacroPresets()
		a.macroIdx = (a.macroIdx + 1) % len(macros)
		m := macros[a.macroIdx]
		a.engine.Do(func(s *rhythm.Sequencer, _ *voice.Bank) {
			s.ApplyIdmMacroPreset(m)
		})
		a.status = "macro: " + m.Name

	case ev.Rune() == 's':
		a.savePreset()
	case ev.Rune() == 'l':
		a.loadPreset()
	}
	return true
}

func (a *app) nudgeTempo(delta float64) {
	a.engine.Do(func(s *rhythm.Sequencer, _ *voice.Bank) {
		s.SetTempo(s.Tempo() + delta)
	})
}

func (a *app) nudgeSwing(delta float64) {
	a.engine.Do(func(s *rhythm.Sequencer, _ *voice.Bank) {
		s.SetSwing(s.Swing() + delta)
	})
}

func (a *app) savePreset() {
	var data []byte
	var err error
	a.engine.Sync(func(s *rhythm.Sequencer, b *voice.Bank) {
		data, err = preset.Marshal(preset.Snapshot(s, b, preset.SectionAll))
	})
	if err == nil {
		err = a.db.Save(presetName, data)
	}
	if err != nil {
		a.logger.Error("preset save failed", "err", err)
		a.status = "save failed"
		return
	}
	a.status = "saved " + presetName
}

func (a *app) loadPreset() {
	data, err := a.db.Load(presetName)
	if err != nil {
		a.logger.Error("preset load failed", "err", err)
		a.status = "load failed"
		return
	}
	f, err := preset.Unmarshal(data)
	if err != nil {
		a.logger.Error("preset decode failed", "err", err)
		a.status = "load failed"
		return
	}
	a.engine.Do(func(s *rhythm.Sequencer, b *voice.Bank) {
		if err := preset.Apply(f, s, b); err != nil {
			a.logger.Error("preset apply failed", "err", err)
		}
	})
	a.status = "loaded " + presetName
}

var (
	styleDefault = tcell.StyleDefault
	styleCursor  = tcell.StyleDefault.Reverse(true)
	styleActive  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	stylePlaying = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

func (a *app) draw() {
	var tracks [parameter.NumTracks]rhythm.Track
	var playStep, bar int
	var tempo, swing float64
	a.engine.Sync(func(s *rhythm.Sequencer, _ *voice.Bank) {
		for i := range tracks {
			tracks[i] = s.GetTrack(i)
		}
		playStep = s.CurrentStep()
		bar = s.CurrentBar()
		tempo = s.Tempo()
		swing = s.Swing()
	})

	a.screen.Clear()

	header := fmt.Sprintf("groovebox  %3.0f bpm  swing %.2f  bar %d", tempo, swing, bar)
	drawText(a.screen, 0, 0, styleDefault, header)

	for t := 0; t < parameter.NumTracks; t++ {
		label := tracks[t].Voice.String()
		if len(label) > 12 {
			label = label[:12]
		}
		drawText(a.screen, 0, t+2, styleDim, fmt.Sprintf("%-12s", label))

		for st := 0; st < parameter.PatternSteps; st++ {
			x := 13 + st*2
			y := t + 2

			ch := "·"
			style := styleDim
			if tracks[t].Steps[st].Active {
				ch = "■"
				style = styleActive
			}
			if st == playStep && a.engine.IsRunning() {
				style = stylePlaying
			}
			if t == a.curTrack && st == a.curStep {
				style = styleCursor
			}
			drawText(a.screen, x, y, style, ch)
		}
	}

	drawText(a.screen, 0, parameter.NumTracks+3, styleDim, a.status)
	a.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
