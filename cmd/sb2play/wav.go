package main

import (
	"context"
	"os"

	"github.com/sfrankau/sb2sound"
	"github.com/sfrankau/sb2sound/internal/comb"
	"github.com/sfrankau/sb2sound/wav"
)

// wavFrameBatch is the fixed render granularity: 441 frames is exactly
// 10ms at 44.1kHz, small enough to keep memory bounded and large enough
// to amortize the per-call mixing overhead.
const wavFrameBatch = 441

// renderWav drives Synth.Route's clone-and-background-render path, reading
// fixed batches back out and writing them through the optional reverb
// stage into a WAV file at path.
func renderWav(synth *sb2sound.LockedSynth, reverb comb.Reverber, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	nc := int(numChannels())
	w, err := wav.NewWriter(f, *flagHz, nc)
	if err != nil {
		return err
	}
	defer w.Finish()

	reverbScratch := make([]int16, wavFrameBatch*nc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := synth.Route(ctx, numChannels(), uint32(*flagHz), wavFrameBatch, func(samples []int16) error {
		reverb.InputSamples(samples)
		out := reverbScratch[:len(samples)]
		n := reverb.GetAudio(out)
		if n < len(out) {
			clear(out[n:])
		}
		return w.WriteFrame(out)
	})

	return <-done
}
