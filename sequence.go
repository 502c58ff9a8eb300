package sb2sound

import (
	"io"
	"log"
)

// Opcode values understood by the sequence VM. Anything else terminates
// the sequence with dispatchStop.
const (
	opSetVol    = 0x80
	opRestart   = 0x88
	opSetLen    = 0x8c
	opRest      = 0x90
	opTempo     = 0x94
	opSetEffect = 0x9c
	opLoopFlags = 0xa8
	opStopCode  = 0xac
	opCall      = 0xb0
	opReturn    = 0xb4
	opTransRel  = 0xb8
	opTransAbs  = 0xbc
	opFor       = 0xc0
	opNext      = 0xc4
	opSetInstr  = 0xd0
	opJump      = 0xd4
)

// dispatchResult is the outcome of one eval() step.
type dispatchResult int

const (
	dispatchCont dispatchResult = iota // keep dispatching within this frame
	dispatchDone                       // a note/rest/restart-off hit; frame is over
	dispatchStop                       // sequence has ended
)

// FrameResult is the outcome of one 50Hz StepFrame call.
type FrameResult int

const (
	// FrameRunning means the sequence is still alive.
	FrameRunning FrameResult = iota
	// FrameEnded means the sequence hit Stop (or an unknown opcode,
	// or a malformed stack) and has been torn down.
	FrameEnded
)

// loopFrame is a single entry on the unified call/for stack: Count==0
// marks a Call/Return frame (used only to restore the return address),
// Count>0 marks a For/Next frame.
type loopFrame struct {
	Count      byte
	ReturnAddr uint32
}

// Sequence is one running voice's VM state: program counter, the initial
// entry address (for the Restart opcode), tempo/transposition/instrument
// selection, note-length/ttl frame counters, the selected effect and its
// runtime state, and the unified call/loop stack.
type Sequence struct {
	bank *Bank

	addr      uint32
	startAddr uint32

	framesPerBeat int
	transposition int32
	instrumentIdx int
	noteLen       int // frames
	ttl           int // frames until next opcode dispatch

	effect      *Effect
	effectState EffectState

	loopStack []loopFrame
}

// NewSequence creates a Sequence positioned at startAddr with every piece
// of VM state at its initial value. ttl starts at 0 so the very first
// StepFrame call dispatches immediately.
func NewSequence(bank *Bank, startAddr uint32) *Sequence {
	seq := &Sequence{
		bank:      bank,
		addr:      startAddr,
		startAddr: startAddr,
		effect:    &EFFECTS[0],
	}
	seq.effectState.Reset(seq.effect)
	return seq
}

func (seq *Sequence) readByte() byte {
	b := seq.bank.byteAt(seq.addr)
	seq.addr++
	return b
}

// eval interprets exactly one opcode, mutating sc (the sample channel this
// sequence drives) and returning whether the VM should keep dispatching
// within the current frame.
func (seq *Sequence) eval(sc *SampleChannel, opts Options, sequences []uint32, instruments []Instrument) dispatchResult {
	code := seq.readByte()

	switch {
	case code < 0x80:
		seq.effectState.Reset(seq.effect)
		sc.SetPitch(int(code)*4 + int(seq.transposition))
		sc.Play(instruments[seq.instrumentIdx])
		seq.ttl = seq.noteLen
		return dispatchDone

	case code == opSetVol:
		sc.SetVolume(seq.readByte())
		return dispatchCont

	case code == opRestart:
		if !opts.Repeats {
			return dispatchDone
		}
		seq.addr = seq.startAddr
		return dispatchCont

	case code == opSetLen:
		seq.noteLen = int(seq.readByte()) * seq.framesPerBeat
		return dispatchCont

	case code == opRest:
		sc.StopLoop()
		return dispatchDone

	case code == opTempo:
		bpm := seq.readByte()
		if bpm == 0 {
			seq.framesPerBeat = 0
		} else {
			seq.framesPerBeat = 750 / int(bpm)
		}
		return dispatchCont

	case code == opSetEffect:
		idx := int(seq.readByte())
		if idx >= len(EFFECTS) {
			// An index past the shipped effect table falls back to the
			// no-op effect instead of crashing the callback.
			dumpLogger.Printf("sb2sound: effect index %d out of range, using no-op", idx)
			idx = 0
		}
		seq.effect = &EFFECTS[idx]
		seq.effectState.Reset(seq.effect)
		return dispatchCont

	case code == opLoopFlags:
		flags := seq.readByte()
		seq.effectState.TremoloLoops = flags&1 != 0
		seq.effectState.VibratoLoops = flags&2 != 0
		return dispatchCont

	case code == opStopCode:
		return dispatchStop

	case code == opCall:
		s := seq.readByte()
		seq.loopStack = append(seq.loopStack, loopFrame{Count: 0, ReturnAddr: seq.addr})
		seq.addr = sequences[s]
		return dispatchCont

	case code == opReturn:
		if len(seq.loopStack) == 0 {
			return dispatchStop
		}
		top := seq.loopStack[len(seq.loopStack)-1]
		seq.loopStack = seq.loopStack[:len(seq.loopStack)-1]
		if top.Count != 0 {
			// Malformed data: a For frame where a Call frame was
			// expected. Undefined by the original driver; treat as
			// end-of-sequence for safety.
			return dispatchStop
		}
		seq.addr = top.ReturnAddr
		return dispatchCont

	case code == opTransRel:
		delta := int8(seq.readByte())
		if delta == 0 {
			seq.transposition = 0
		} else {
			seq.transposition += int32(delta)
		}
		return dispatchCont

	case code == opTransAbs:
		seq.transposition = int32(int8(seq.readByte()))
		return dispatchCont

	case code == opFor:
		count := seq.readByte()
		seq.loopStack = append(seq.loopStack, loopFrame{Count: count, ReturnAddr: seq.addr})
		return dispatchCont

	case code == opNext:
		if len(seq.loopStack) == 0 {
			// Stack underflow is undefined by the original data;
			// treat as Stop for safety.
			return dispatchStop
		}
		top := &seq.loopStack[len(seq.loopStack)-1]
		if top.Count == 0 {
			seq.loopStack = seq.loopStack[:len(seq.loopStack)-1]
		} else {
			top.Count--
			seq.addr = top.ReturnAddr
		}
		return dispatchCont

	case code == opSetInstr:
		seq.instrumentIdx = int(seq.readByte())
		return dispatchCont

	case code == opJump:
		s := seq.readByte()
		seq.addr = sequences[s]
		return dispatchCont

	default:
		logUnknownOpcode(code)
		return dispatchStop
	}
}

// update runs the opcode dispatch loop for one 50Hz frame tick: nothing
// happens while ttl hasn't yet decayed to 0, otherwise opcodes are
// dispatched until one suspends the frame (Note/Rest/Restart-off) or the
// sequence stops.
func (seq *Sequence) update(sc *SampleChannel, opts Options, sequences []uint32, instruments []Instrument) FrameResult {
	if seq.ttl > 0 {
		return FrameRunning
	}

	var result dispatchResult
	for {
		result = seq.eval(sc, opts, sequences, instruments)
		if result != dispatchCont {
			break
		}
	}

	seq.ttl = seq.noteLen
	if result == dispatchStop {
		sc.StopHard()
		return FrameEnded
	}
	return FrameRunning
}

// StepFrame advances the sequence by exactly one 50Hz frame: dispatch any
// pending opcodes, decrement ttl, then (while still running) step the
// effect runner and push its deltas onto the sample channel, each gated by
// its own per-channel option.
func (seq *Sequence) StepFrame(sc *SampleChannel, opts Options, sequences []uint32, instruments []Instrument) FrameResult {
	result := seq.update(sc, opts, sequences, instruments)
	seq.ttl--

	if result == FrameRunning {
		seq.effectState.StepTremolo(seq.effect)
		seq.effectState.StepVibrato(seq.effect)

		if opts.Vibrato {
			sc.SetPitchAdjust(seq.effectState.PeriodAdjust)
		}
		if opts.Tremolo {
			sc.SetVolumeAdjust(float32(seq.effectState.VolAdjust) / 64)
		}
	}

	return result
}

// dumpLogger receives a line for every opcode byte the VM can't decode.
// SetDumpWriter redirects it; malformed sequence bytes are surfaced as
// diagnostics, never as a hard error inside the audio callback.
var dumpLogger = log.New(log.Writer(), "", 0)

// SetDumpWriter redirects where unknown-opcode diagnostics are written.
func SetDumpWriter(w io.Writer) { dumpLogger.SetOutput(w) }

func logUnknownOpcode(code byte) {
	dumpLogger.Printf("sb2sound: unknown opcode 0x%02x, stopping sequence", code)
}
