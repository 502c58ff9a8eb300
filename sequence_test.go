package sb2sound

import (
	"encoding/binary"
	"testing"
)

// bankWithProgram builds a Bank whose raw image holds prog at progAddr and
// a sequence table built from seqs, leaving room for a single zeroed
// instrument at the end (enough for SetInstr/Note dispatch in tests).
func bankWithProgram(t *testing.T, prog []byte, progAddr uint32, seqs []uint32) *Bank {
	t.Helper()

	// The instrument table and sequence table both live strictly after the
	// program bytes, so neither can ever be clobbered by the copy below
	// regardless of how far progAddr/len(prog) reach.
	instrTableOff := progAddr + uint32(len(prog))
	seqTableOff := instrTableOff + instrumentSize
	size := seqTableOff + uint32(len(seqs))*4

	img := make([]byte, size)
	binary.BigEndian.PutUint32(img[0:4], seqTableOff)
	binary.BigEndian.PutUint32(img[4:8], instrTableOff)
	for i, s := range seqs {
		binary.BigEndian.PutUint32(img[seqTableOff+uint32(i)*4:], s)
	}
	copy(img[progAddr:], prog)

	b, err := NewBank(img, len(seqs), 1)
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	return b
}

// TestSequenceTrivialNote runs a Tempo/SetLen/SetInstr/SetVol/Note/Stop
// program end to end.
func TestSequenceTrivialNote(t *testing.T) {
	prog := []byte{0x94, 150, 0x8c, 4, 0xd0, 0, 0x80, 40, 0x3c, 0xac}
	bank := bankWithProgram(t, prog, 0x10, []uint32{0x10})

	seq := NewSequence(bank, bank.SequenceAddr(0))
	sc := NewSampleChannel(bank)

	res := seq.StepFrame(sc, Options{}, bank.sequences, bank.instruments)
	if res != FrameRunning {
		t.Fatalf("first StepFrame = %v, want FrameRunning", res)
	}
	if seq.framesPerBeat != 5 {
		t.Errorf("framesPerBeat = %d, want 5", seq.framesPerBeat)
	}
	if seq.noteLen != 20 {
		t.Errorf("noteLen = %d, want 20", seq.noteLen)
	}
	if seq.instrumentIdx != 0 {
		t.Errorf("instrumentIdx = %d, want 0", seq.instrumentIdx)
	}
	if sc.volume != float32(40)/64 {
		t.Errorf("volume = %v, want %v", sc.volume, float32(40)/64)
	}
	if !sc.IsActive() {
		t.Fatal("sample channel should be active after Note")
	}

	ended := false
	for i := 0; i < 30 && !ended; i++ {
		if seq.StepFrame(sc, Options{}, bank.sequences, bank.instruments) == FrameEnded {
			ended = true
		}
	}
	if !ended {
		t.Fatal("sequence never reached Stop")
	}
	if sc.IsActive() {
		t.Error("sample channel still active after Stop")
	}
}

// TestSequenceForNextLoop runs a For/Jump/Next loop that iterates its
// body 4 times before falling through to Stop.
func TestSequenceForNextLoop(t *testing.T) {
	prog := []byte{0xc0, 3, 0xd4, 1, 0xc4, 0xac}
	// sequences[1] points at the Next opcode embedded in the same bytes.
	bank := bankWithProgram(t, prog, 0x10, []uint32{0x10, 0x10 + 4})

	seq := NewSequence(bank, bank.SequenceAddr(0))
	sc := NewSampleChannel(bank)

	res := seq.update(sc, Options{}, bank.sequences, bank.instruments)
	if res != FrameEnded {
		t.Fatalf("result = %v, want FrameEnded", res)
	}
	if len(seq.loopStack) != 0 {
		t.Errorf("loopStack not empty after loop: %+v", seq.loopStack)
	}
}

// TestSequenceCallReturn: Call executes a subsequence until its own
// Return restores the caller's address.
func TestSequenceCallReturn(t *testing.T) {
	// Main program: Call 2, then Stop. sequences[2] is a tiny
	// subsequence consisting of just Return.
	main := []byte{0xb0, 2, 0xac}
	sub := []byte{0xb4}

	const mainAddr = 0x10
	const subAddr = 0x40
	prog := make([]byte, subAddr-mainAddr+uint32(len(sub)))
	copy(prog, main)
	copy(prog[subAddr-mainAddr:], sub)

	bank := bankWithProgram(t, prog, mainAddr, []uint32{0, 0, subAddr})

	seq := NewSequence(bank, mainAddr)
	sc := NewSampleChannel(bank)

	res := seq.update(sc, Options{}, bank.sequences, bank.instruments)
	if res != FrameEnded {
		t.Fatalf("result = %v, want FrameEnded", res)
	}
	if len(seq.loopStack) != 0 {
		t.Errorf("loopStack not empty after call/return: %+v", seq.loopStack)
	}
}

// TestSequenceReturnEmptyStackEnds verifies a bare Return with nothing on
// the stack is treated as end-of-sequence, not a crash.
func TestSequenceReturnEmptyStackEnds(t *testing.T) {
	bank := bankWithProgram(t, []byte{0xb4}, 0x10, []uint32{0x10})
	seq := NewSequence(bank, bank.SequenceAddr(0))
	sc := NewSampleChannel(bank)

	if res := seq.update(sc, Options{}, bank.sequences, bank.instruments); res != FrameEnded {
		t.Fatalf("result = %v, want FrameEnded", res)
	}
}

// TestSequenceUnknownOpcodeStops verifies an unrecognized opcode
// terminates the sequence rather than fabricating behavior.
func TestSequenceUnknownOpcodeStops(t *testing.T) {
	bank := bankWithProgram(t, []byte{0x84}, 0x10, []uint32{0x10})
	seq := NewSequence(bank, bank.SequenceAddr(0))
	sc := NewSampleChannel(bank)

	if res := seq.update(sc, Options{}, bank.sequences, bank.instruments); res != FrameEnded {
		t.Fatalf("result = %v, want FrameEnded for unknown opcode", res)
	}
}

// TestSequenceSetEffectOutOfRangeFallsBack verifies an effect index past
// the table selects the no-op effect rather than panicking mid-callback.
func TestSequenceSetEffectOutOfRangeFallsBack(t *testing.T) {
	prog := []byte{0x9c, 200, 0xac}
	bank := bankWithProgram(t, prog, 0x10, []uint32{0x10})
	seq := NewSequence(bank, bank.SequenceAddr(0))
	sc := NewSampleChannel(bank)

	if res := seq.update(sc, Options{}, bank.sequences, bank.instruments); res != FrameEnded {
		t.Fatalf("result = %v, want FrameEnded (Stop after the fallback)", res)
	}
	if seq.effect != &EFFECTS[0] {
		t.Error("out-of-range effect index should fall back to EFFECTS[0]")
	}
}

// TestSequenceRestartGate verifies the repeats option gates the Restart
// (0x88) opcode: disabled, it behaves as end-of-frame and never revisits
// the sequence start.
func TestSequenceRestartGate(t *testing.T) {
	prog := []byte{0x88}
	bank := bankWithProgram(t, prog, 0x10, []uint32{0x10})
	seq := NewSequence(bank, bank.SequenceAddr(0))
	sc := NewSampleChannel(bank)

	res := seq.update(sc, Options{Repeats: false}, bank.sequences, bank.instruments)
	if res != FrameRunning {
		t.Fatalf("result = %v, want FrameRunning (Done, not Stop)", res)
	}
	if seq.addr != bank.SequenceAddr(0)+1 {
		t.Errorf("addr advanced past Restart byte, got %#x", seq.addr)
	}
}
