package sb2sound

// SampleChannel emulates one Paula-like voice: sample playback with
// one-shot or looping termination, arbitrary pitch via a period-to-step
// conversion, optional linear interpolation, and a volume/pitch that can
// be adjusted on top of their nominal values by the effect runner.
type SampleChannel struct {
	bank  *Bank
	instr *Instrument // a clone of the triggered instrument, or nil

	volume       float32 // nominal volume, 0..1
	volumeAdjust float32 // added to volume each sample

	pitch       int   // quarter-semitone index into PITCHES
	pitchAdjust int16 // signed delta added to the looked-up period

	phase float32 // fractional sample index into the instrument sample
	lerp  bool    // linear interpolation on/off
}

// NewSampleChannel creates a silent channel bound to bank for sample
// lookups.
func NewSampleChannel(bank *Bank) *SampleChannel {
	return &SampleChannel{bank: bank}
}

// Play triggers instr immediately, cloning it so that a later Stop()
// mutating is_one_shot never edits the bank's own copy.
func (c *SampleChannel) Play(instr Instrument) {
	clone := instr
	c.instr = &clone
	c.phase = 0
}

// Stop lets the currently playing instrument die at its next loop point:
// if one is loaded, its (cloned) is_one_shot flag is set so the voice
// naturally falls off the end of its sample instead of looping forever.
func (c *SampleChannel) Stop() {
	if c.instr != nil {
		c.instr.IsOneShot = true
	}
}

// StopHard drops the loaded instrument immediately.
func (c *SampleChannel) StopHard() {
	c.instr = nil
}

// StopLoop drops the instrument immediately only if it has no loop point
// (loop_offset == 0); this is the original driver's "Rest" opcode quirk.
func (c *SampleChannel) StopLoop() {
	if c.instr != nil && c.instr.LoopOffset == 0 {
		c.instr = nil
	}
}

// IsActive reports whether an instrument is currently loaded.
func (c *SampleChannel) IsActive() bool { return c.instr != nil }

// SetVolume sets the nominal volume from a 0..64 byte value.
func (c *SampleChannel) SetVolume(vol byte) { c.volume = float32(vol) / 64 }

// SetVolumeAdjust sets the per-sample volume delta pushed by the effect
// runner.
func (c *SampleChannel) SetVolumeAdjust(adjust float32) { c.volumeAdjust = adjust }

// SetPitch sets the quarter-semitone pitch index.
func (c *SampleChannel) SetPitch(pitch int) { c.pitch = pitch }

// SetPitchAdjust sets the signed period delta pushed by the effect runner.
func (c *SampleChannel) SetPitchAdjust(adjust int16) { c.pitchAdjust = adjust }

// SetLerp toggles linear interpolation.
func (c *SampleChannel) SetLerp(on bool) { c.lerp = on }

// FillBuffer generates len(out) mono float samples, silence-filling first
// so that a voice with no instrument (or one that terminates partway
// through) leaves the remainder at equilibrium.
func (c *SampleChannel) FillBuffer(sampleRate uint32, out []float32) {
	for i := range out {
		out[i] = 0
	}

	if c.instr == nil {
		return
	}

	noteIdx := baseNote(*c.instr) + c.pitch
	if noteIdx < 0 || noteIdx >= len(PITCHES) {
		// Malformed pitch state (a transposition run wild, or a garbage
		// base octave). The audio callback must never panic, so silence
		// the voice and carry on.
		c.instr = nil
		return
	}
	period := uint16(int32(PITCHES[noteIdx]) + int32(c.pitchAdjust))
	timeStep := float32(period) * ClockIntervalS
	if timeStep <= 0 {
		return
	}
	step := 1 / (timeStep * float32(sampleRate))
	vol := c.volume + c.volumeAdjust

	sampleLen := int(c.instr.SampleLen) * 2 // bytes
	if sampleLen == 0 || (!c.instr.IsOneShot && int(c.instr.LoopOffset) >= sampleLen) {
		// A zero-length sample, or a loop point at/past the end, would
		// make the wrap below a no-op and walk the read index off the
		// image. Terminate the voice instead.
		c.instr = nil
		return
	}

	for i := range out {
		idx := int(c.phase)

		if idx >= sampleLen {
			if c.instr.IsOneShot {
				c.instr = nil
				return
			}
			c.phase -= float32(sampleLen - int(c.instr.LoopOffset))
			idx = int(c.phase)
		}

		v := float32(c.bank.sampleAt(c.instr.SampleAddr + uint32(idx)))
		if c.lerp {
			var vNext float32
			nextIdx := idx + 1
			if nextIdx >= sampleLen {
				if c.instr.IsOneShot {
					vNext = 0
				} else {
					vNext = float32(c.bank.sampleAt(c.instr.SampleAddr + uint32(c.instr.LoopOffset)))
				}
			} else {
				vNext = float32(c.bank.sampleAt(c.instr.SampleAddr + uint32(nextIdx)))
			}
			frac := c.phase - float32(idx)
			v += (vNext - v) * frac
		}

		out[i] = vol * v / 128
		c.phase += step
	}
}
