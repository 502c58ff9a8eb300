package sb2sound

import "math"

// OctaveSize is the number of quarter-semitones per octave (12 semitones *
// 4 quarter-semitones) used to index PITCHES.
const OctaveSize = 48

// ClockIntervalS is the PAL Amiga period-tick clock interval in seconds,
// 0.281937 microseconds per Paula period tick.
const ClockIntervalS = 0.281937e-6

// numPitchEntries is generous headroom: the VM's Note opcode sets pitch to
// code*4+transposition, where code is a byte (0..0x7F), and the table is
// addressed at base_note+pitch where base_note is (BaseOctave+1)*OctaveSize.
// 1536 entries (32 octaves) does not cover every combination: a large base
// octave, or a transposition that drives the index below zero or past the
// end, falls outside the table, and SampleChannel.FillBuffer then silences
// the voice.
const numPitchEntries = 1536

// PITCHES is the static table of Amiga period-tick counts addressed as
// PITCHES[base_note+pitch] (see baseNote). The original driver ships this
// table as a literal disassembled asset; the bytes of that asset are not
// part of this tree, so the table is generated once at package init time
// from the standard exponential period/pitch relationship (period halves
// every OctaveSize quarter-semitone steps, i.e. every octave). See
// DESIGN.md for the reasoning.
var PITCHES [numPitchEntries]uint16

func init() {
	// periodAtZero is an arbitrary but plausible low-note anchor; only the
	// octave-halving shape is load-bearing for the VM and mixer logic, not
	// the absolute pitch of "index zero".
	const periodAtZero = 53760.0
	for i := range PITCHES {
		period := periodAtZero / math.Exp2(float64(i)/float64(OctaveSize))
		period = math.Min(65535, math.Max(1, period))
		PITCHES[i] = uint16(math.Round(period))
	}
}

// baseNote implements the "+1 octave shift" quirk from the original
// driver: the lowest base octave in the instrument table maps one octave
// above the lowest table entry. Preserved for audible fidelity; see
// DESIGN.md's Open Questions.
func baseNote(instr Instrument) int {
	return int(instr.BaseOctave+1) * OctaveSize
}
