package sb2sound

import (
	"context"
	"sync"
)

// LockedSynth serializes all mutation and realtime rendering through a
// single mutex: the audio backend's stream callback and any UI goroutine
// triggering or stopping voices both go through it, so one buffer fill is
// the longest the lock is ever held.
type LockedSynth struct {
	mu    sync.Mutex
	synth *Synth
}

// NewLockedSynth wraps synth for concurrent use.
func NewLockedSynth(synth *Synth) *LockedSynth {
	return &LockedSynth{synth: synth}
}

// Edit runs fn against the live Synth under lock. UI-goroutine mutations
// (trigger/stop/option changes) always go through here.
func (l *LockedSynth) Edit(fn func(*Synth)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.synth)
}

// FillBufferInt16 renders directly from the live Synth under lock; this is
// what an audio backend's stream callback calls every buffer.
func (l *LockedSynth) FillBufferInt16(numChannels uint16, sampleRate uint32, out []int16) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.synth.FillBufferInt16(numChannels, sampleRate, out)
}

// FillBufferUint16 renders unsigned 16-bit PCM from the live Synth under
// lock, for backends whose negotiated stream format is unsigned.
func (l *LockedSynth) FillBufferUint16(numChannels uint16, sampleRate uint32, out []uint16) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.synth.FillBufferUint16(numChannels, sampleRate, out)
}

// FillBufferFloat32 renders float PCM from the live Synth under lock.
func (l *LockedSynth) FillBufferFloat32(numChannels uint16, sampleRate uint32, out []float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.synth.FillBufferFloat32(numChannels, sampleRate, out)
}

// Route snapshots the live Synth and dispatches the offline render to its
// own goroutine. The snapshot (Synth.Route's clone step) happens under the
// lock so the audio callback can't be mid-fill while the state is copied;
// the lock is released before the (possibly slow) file write loop starts,
// so realtime playback against the same LockedSynth is never blocked by it.
func (l *LockedSynth) Route(ctx context.Context, numChannels uint16, sampleRate uint32, frameBatch int, write func([]int16) error) <-chan error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.synth.Route(ctx, numChannels, sampleRate, frameBatch, write)
}
