package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"

	"github.com/sfrankau/sb2sound"
	"github.com/sfrankau/sb2sound/internal/comb"
)

var (
	white  = color.New(color.FgWhite).SprintfFunc()
	cyan   = color.New(color.FgCyan).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
)

const audioBufferSize = 756 / 2

// AudioPlayer drives realtime playback: a PortAudio stream pulling mixed
// audio from a LockedSynth, an optional post-mix reverb stage, a simple
// status line, and keyboard-driven per-channel stop, with cancel-once
// shutdown shared between SIGINT and the escape key.
type AudioPlayer struct {
	synth  *sb2sound.LockedSynth
	reverb comb.Reverber
	stream *portaudio.Stream

	scratch []int16
	nc      uint16
	hz      int

	selectedChannel int

	ctx            context.Context
	cancelFn       context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// NewAudioPlayer creates a player for synth, with nc output channels at hz.
func NewAudioPlayer(synth *sb2sound.LockedSynth, reverb comb.Reverber, nc uint16, hz int) *AudioPlayer {
	ctx, cancel := context.WithCancel(context.Background())
	return &AudioPlayer{
		synth:          synth,
		reverb:         reverb,
		scratch:        make([]int16, 16*1024),
		nc:             nc,
		hz:             hz,
		ctx:            ctx,
		cancelFn:       cancel,
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run initializes PortAudio, starts the stream, installs signal and
// keyboard handlers, and blocks rendering a status line until shutdown.
func (ap *AudioPlayer) Run() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}

	stream, err := portaudio.OpenDefaultStream(0, int(ap.nc), float64(ap.hz), audioBufferSize, ap.streamCallback)
	if err != nil {
		return err
	}
	ap.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}

	ap.setupSignalHandlers()
	ap.setupKeyboardHandlers()

	fmt.Print(hideCursor)

	for {
		select {
		case <-ap.ctx.Done():
			goto exit
		default:
		}
		fmt.Printf("\r%s channel %s %s  (q stop, arrows select, esc quit)  ", white("sb2play"), cyan("%d", ap.selectedChannel), green("playing"))
		time.Sleep(100 * time.Millisecond)
	}

exit:
	fmt.Print(showCursor + "\n")

	select {
	case <-ap.keyboardDoneCh:
	case <-time.After(500 * time.Millisecond):
	}

	ap.wg.Wait()
	return nil
}

func (ap *AudioPlayer) streamCallback(out []int16) {
	sc := ap.scratch[:len(out)]
	ap.synth.FillBufferInt16(ap.nc, uint32(ap.hz), sc)

	ap.reverb.InputSamples(sc)
	n := ap.reverb.GetAudio(out)
	if n < len(out) {
		clear(out[n:])
	}
}

func (ap *AudioPlayer) setupSignalHandlers() {
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT)

	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		select {
		case <-ap.ctx.Done():
		case <-sigch:
			ap.Stop()
		}
	}()
}

func (ap *AudioPlayer) setupKeyboardHandlers() {
	ap.wg.Add(1)
	go func() {
		defer ap.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ap.Stop()
				return true, nil
			}
			ap.handleKeyPress(key)
			return false, nil
		})
		close(ap.keyboardDoneCh)
	}()
}

func (ap *AudioPlayer) handleKeyPress(key keys.Key) {
	switch key.Code {
	case keys.Left:
		if ap.selectedChannel > 0 {
			ap.selectedChannel--
		}
	case keys.Right:
		if ap.selectedChannel < sb2sound.NumChannels-1 {
			ap.selectedChannel++
		}
	case keys.RuneKey:
		if len(key.Runes) > 0 && key.Runes[0] == 'q' {
			sel := ap.selectedChannel
			ap.synth.Edit(func(s *sb2sound.Synth) { s.Stop(sel) })
			fmt.Printf("\n%s\n", yellow("stopped channel %d", sel))
		}
	}
}

// Stop cancels the render loop and tears down the stream exactly once.
func (ap *AudioPlayer) Stop() {
	ap.stopOnce.Do(func() {
		ap.cancelFn()

		if ap.stream != nil {
			ap.stream.Stop()
			ap.stream.Close()
		}
		if !ap.terminated {
			portaudio.Terminate()
			ap.terminated = true
		}

		fmt.Print(showCursor)
	})
}

func playLive(synth *sb2sound.LockedSynth, reverb comb.Reverber) error {
	ap := NewAudioPlayer(synth, reverb, numChannels(), *flagHz)
	defer ap.Stop()
	return ap.Run()
}
