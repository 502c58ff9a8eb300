package sb2sound

import (
	"context"
	"math"
	"reflect"

	goclone "github.com/huandu/go-clone"
	clone "github.com/huandu/go-clone/generic"
)

// NumChannels is the number of simultaneously mixed voices.
const NumChannels = 4

func init() {
	// A Bank is immutable after NewBank, so offline-render clones share
	// the live synth's bank pointer rather than deep-copying the whole
	// sample image.
	goclone.MarkAsOpaquePointer(reflect.TypeOf((*Bank)(nil)))
}

// Synth mixes exactly four SoundChannels against a shared Bank. It is the
// single point of mutation during an audio callback; all of its exported
// methods are safe to call from the realtime fill-buffer path.
type Synth struct {
	bank     *Bank
	channels [NumChannels]*SoundChannel

	Stereo bool
	MaxLen float32 // seconds, offline-render cutoff

	mixScratch  []float32
	chanScratch []float32
}

// NewSynth creates a Synth with four idle channels bound to bank.
func NewSynth(bank *Bank) *Synth {
	s := &Synth{bank: bank, MaxLen: 180}
	for i := range s.channels {
		s.channels[i] = NewSoundChannel(bank)
	}
	return s
}

// Bank returns the bank this synth mixes against.
func (s *Synth) Bank() *Bank { return s.bank }

// Channel returns sound channel idx (0..NumChannels-1).
func (s *Synth) Channel(idx int) *SoundChannel { return s.channels[idx] }

// PlayInstrument triggers an instrument directly on channel idx.
func (s *Synth) PlayInstrument(idx int, instr Instrument) {
	s.channels[idx].PlayInstrument(instr)
}

// PlaySequence attaches sequence seqIdx to channel idx.
func (s *Synth) PlaySequence(idx, seqIdx int) {
	s.channels[idx].PlaySequence(s.bank, s.bank.SequenceAddr(seqIdx))
}

// Stop silences channel idx.
func (s *Synth) Stop(idx int) { s.channels[idx].Stop() }

// StopAll silences every channel.
func (s *Synth) StopAll() {
	for _, ch := range s.channels {
		ch.Stop()
	}
}

// IsActive reports whether channel idx currently holds a sequence or a
// playing instrument.
func (s *Synth) IsActive(idx int) bool { return s.channels[idx].IsActive() }

// AnyActive reports whether any of the four channels is still producing
// sound.
func (s *Synth) AnyActive() bool {
	for _, ch := range s.channels {
		if ch.IsActive() {
			return true
		}
	}
	return false
}

// SetLerp toggles linear interpolation on every channel.
func (s *Synth) SetLerp(on bool) {
	for _, ch := range s.channels {
		ch.SetLerp(on)
	}
}

// mix renders `frames` samples per channel lane into a reusable scratch
// buffer of length frames*int(numChannels). In stereo, channel c writes
// lane c&1 at stride numChannels (lanes >=2 stay at equilibrium); in mono
// every scratch sample is added to every lane of its frame. Mixing is
// 0.25-scaled signed-amplitude addition so unsigned output formats see no
// bias.
func (s *Synth) mix(numChannels uint16, sampleRate uint32, frames int) []float32 {
	total := frames * int(numChannels)
	if cap(s.mixScratch) < total {
		s.mixScratch = make([]float32, total)
	}
	out := s.mixScratch[:total]
	for i := range out {
		out[i] = 0
	}

	if cap(s.chanScratch) < frames {
		s.chanScratch = make([]float32, frames)
	}
	chanOut := s.chanScratch[:frames]

	stereo := s.Stereo && numChannels > 1
	nc := int(numChannels)

	for c, ch := range s.channels {
		for i := range chanOut {
			chanOut[i] = 0
		}
		ch.FillBuffer(sampleRate, chanOut, s.bank.sequences, s.bank.instruments)

		if stereo {
			lane := c & 1
			for i, v := range chanOut {
				out[i*nc+lane] += v * 0.25
			}
		} else {
			for i, v := range chanOut {
				base := i * nc
				scaled := v * 0.25
				for lane := 0; lane < nc; lane++ {
					out[base+lane] += scaled
				}
			}
		}
	}

	return out
}

func clampUnit(v float32) float32 {
	return float32(math.Min(1, math.Max(-1, float64(v))))
}

// FillBufferInt16 fills out with signed 16-bit PCM.
func (s *Synth) FillBufferInt16(numChannels uint16, sampleRate uint32, out []int16) {
	mixed := s.mix(numChannels, sampleRate, len(out)/int(numChannels))
	for i, v := range mixed {
		out[i] = int16(clampUnit(v) * 32767)
	}
}

// FillBufferUint16 fills out with unsigned 16-bit PCM (equilibrium at
// 32768).
func (s *Synth) FillBufferUint16(numChannels uint16, sampleRate uint32, out []uint16) {
	mixed := s.mix(numChannels, sampleRate, len(out)/int(numChannels))
	for i, v := range mixed {
		out[i] = uint16(int32(clampUnit(v)*32767) + 32768)
	}
}

// FillBufferFloat32 fills out with 32-bit float PCM in [-1, 1].
func (s *Synth) FillBufferFloat32(numChannels uint16, sampleRate uint32, out []float32) {
	mixed := s.mix(numChannels, sampleRate, len(out)/int(numChannels))
	for i, v := range mixed {
		out[i] = clampUnit(v)
	}
}

// clone deep-copies the whole Synth (channels, sequences, effect state and
// all) with clone.Clone on a value, not a pointer receiver,
// because the library clones unexported fields too and a value result
// avoids aliasing the original's scratch buffers. The *Bank is registered
// as an opaque pointer above, so every bank reference in the clone still
// points at the live synth's (read-only) bank.
func (s *Synth) clone() *Synth {
	c := clone.Clone(*s)
	c.mixScratch = nil
	c.chanScratch = nil
	return &c
}

// Route hands a snapshot of the synth off to an offline render: it clones
// the whole Synth under the caller's chosen locking (see LockedSynth.Route)
// and runs the render on its own goroutine, signaling completion over the
// returned channel rather than blocking its caller on render progress.
func (s *Synth) Route(ctx context.Context, numChannels uint16, sampleRate uint32, frameBatch int, write func([]int16) error) <-chan error {
	snap := s.clone()

	done := make(chan error, 1)
	go func() {
		done <- renderOffline(ctx, snap, numChannels, sampleRate, frameBatch, write)
	}()
	return done
}

func renderOffline(ctx context.Context, snap *Synth, numChannels uint16, sampleRate uint32, frameBatch int, write func([]int16) error) error {
	maxFrames := int(snap.MaxLen * float32(sampleRate))
	buf := make([]int16, frameBatch*int(numChannels))

	frames := 0
	for snap.AnyActive() && frames < maxFrames {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch := frameBatch
		if frames+batch > maxFrames {
			batch = maxFrames - frames
		}
		out := buf[:batch*int(numChannels)]
		snap.FillBufferInt16(numChannels, sampleRate, out)
		if err := write(out); err != nil {
			return err
		}
		frames += batch
	}
	return nil
}
