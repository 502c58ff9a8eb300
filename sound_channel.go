package sb2sound

// FramesPerSecond is the sequence VM's frame-tick rate. Frame ticks are
// delivered at exact multiples of sampleRate/FramesPerSecond, keeping VM
// updates sample-accurately aligned with the audio stream.
const FramesPerSecond = 50

// Options are the per-channel user settings the GUI/CLI toggles: whether
// tremolo/vibrato deltas are pushed to the sample channel, and whether a
// Restart (0x88) opcode loops the sequence back to its start.
type Options struct {
	Tremolo bool
	Vibrato bool
	Repeats bool
}

// SoundChannel is one of the four simultaneously mixed voices: it owns a
// SampleChannel, an optional running Sequence, and the frame-tick
// accounting that keeps the two in sync.
type SoundChannel struct {
	sample *SampleChannel
	seq    *Sequence

	samplesRemaining int // samples left until the next 50Hz frame tick
	Opts             Options
}

// NewSoundChannel creates an idle channel bound to bank.
func NewSoundChannel(bank *Bank) *SoundChannel {
	return &SoundChannel{sample: NewSampleChannel(bank)}
}

// PlayInstrument triggers instr directly on the sample channel, bypassing
// any sequence (the GUI's "play_instr" action).
func (ch *SoundChannel) PlayInstrument(instr Instrument) {
	ch.seq = nil
	ch.sample.Play(instr)
}

// PlaySequence attaches a fresh Sequence starting at startAddr (the GUI's
// "play_seq"/"play_sound" actions).
func (ch *SoundChannel) PlaySequence(bank *Bank, startAddr uint32) {
	ch.seq = NewSequence(bank, startAddr)
}

// Stop silences the channel: the sample channel is hard-stopped and any
// running sequence is detached.
func (ch *SoundChannel) Stop() {
	ch.seq = nil
	ch.sample.StopHard()
}

// SetLerp toggles linear interpolation on the underlying sample channel.
func (ch *SoundChannel) SetLerp(on bool) { ch.sample.SetLerp(on) }

// IsActive returns true iff a sequence is attached or the sample channel
// holds an instrument.
func (ch *SoundChannel) IsActive() bool {
	return ch.seq != nil || ch.sample.IsActive()
}

// FillBuffer renders len(out) mono float samples, interleaving sample
// synthesis with 50Hz sequence frame ticks so that VM state changes land
// exactly on sample boundaries.
func (ch *SoundChannel) FillBuffer(sampleRate uint32, out []float32, sequences []uint32, instruments []Instrument) {
	samplesPerFrame := int(sampleRate) / FramesPerSecond
	if ch.samplesRemaining <= 0 {
		ch.samplesRemaining = samplesPerFrame
	}

	for len(out) >= ch.samplesRemaining {
		n := ch.samplesRemaining
		ch.sample.FillBuffer(sampleRate, out[:n])

		if ch.seq != nil {
			if ch.seq.StepFrame(ch.sample, ch.Opts, sequences, instruments) == FrameEnded {
				ch.seq = nil
			}
		}

		out = out[n:]
		ch.samplesRemaining = samplesPerFrame
	}

	if len(out) > 0 {
		ch.sample.FillBuffer(sampleRate, out)
		ch.samplesRemaining -= len(out)
	}
}
