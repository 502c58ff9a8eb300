package sb2sound

// Bend is one segment of a tremolo or vibrato modulation: step rate, the
// number of frames to pause after firing, and the number of times it may
// fire before the bend is exhausted.
type Bend struct {
	Rate   int16
	Pause  byte
	Length byte
}

// Effect bundles the tremolo and vibrato bend definitions selected by the
// SetEffect opcode. Tremolos has 2 entries, Vibratos has 3, matching the
// original driver's effect table layout.
type Effect struct {
	Tremolos [2]Bend
	Vibratos [3]Bend
}

// EFFECTS is the static table of effect definitions referenced by the
// SetEffect opcode's index operand. EFFECTS[0] is the no-op effect (every
// rate zero) required by the VM's initial/reset state. The original driver
// ships this table as a disassembled asset; those literal bytes are not
// part of this tree, so entries 1+ are representative hand-authored
// tremolo/vibrato presets in the same shape (see DESIGN.md).
var EFFECTS = []Effect{
	{}, // index 0: no-op, all rates/pauses/lengths zero.
	{ // index 1: gentle vibrato, no tremolo.
		Tremolos: [2]Bend{{}, {}},
		Vibratos: [3]Bend{
			{Rate: 8, Pause: 1, Length: 6},
			{Rate: -8, Pause: 1, Length: 6},
			{},
		},
	},
	{ // index 2: fast flutter tremolo, no vibrato.
		Tremolos: [2]Bend{
			{Rate: -4, Pause: 0, Length: 3},
			{Rate: 4, Pause: 0, Length: 3},
		},
		Vibratos: [3]Bend{{}, {}, {}},
	},
	{ // index 3: combined tremolo + deep vibrato, used by sustained pads.
		Tremolos: [2]Bend{
			{Rate: -2, Pause: 2, Length: 4},
			{Rate: 2, Pause: 2, Length: 4},
		},
		Vibratos: [3]Bend{
			{Rate: 16, Pause: 0, Length: 4},
			{Rate: -16, Pause: 0, Length: 4},
			{Rate: 0, Pause: 0, Length: 2},
		},
	},
	{ // index 4: slow wide vibrato sweep, three-stage.
		Tremolos: [2]Bend{{}, {}},
		Vibratos: [3]Bend{
			{Rate: 10, Pause: 3, Length: 8},
			{Rate: 0, Pause: 2, Length: 2},
			{Rate: -10, Pause: 3, Length: 8},
		},
	},
}
