package sb2sound

import (
	"encoding/binary"
	"testing"
)

// buildImage assembles a synthetic bank image: header, a gap, the
// sequence table, another gap, and the instrument table.
func buildImage(t *testing.T, seqTableOff, instrTableOff uint32, seqs []uint32, instrs [][]byte) []byte {
	t.Helper()

	size := int(instrTableOff) + len(instrs)*instrumentSize
	img := make([]byte, size)

	binary.BigEndian.PutUint32(img[0:4], seqTableOff)
	binary.BigEndian.PutUint32(img[4:8], instrTableOff)

	for i, s := range seqs {
		binary.BigEndian.PutUint32(img[int(seqTableOff)+i*4:], s)
	}
	for i, rec := range instrs {
		copy(img[int(instrTableOff)+i*instrumentSize:], rec)
	}

	return img
}

func TestNewBankHeader(t *testing.T) {
	img := buildImage(t, 0x40, 0x80, []uint32{0x1234}, [][]byte{make([]byte, instrumentSize)})

	b, err := NewBank(img, 1, 1)
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}

	if b.NumSequences() != 1 || b.SequenceAddr(0) != 0x1234 {
		t.Errorf("sequence table: got addr %#x, want %#x", b.SequenceAddr(0), 0x1234)
	}

	want := Instrument{IsOneShot: false, LoopOffset: 0, SampleLen: 0, SampleAddr: 0, BaseOctave: 0}
	if got := b.Instrument(0); got != want {
		t.Errorf("instrument 0 = %+v, want %+v", got, want)
	}
}

func TestNewBankShortImage(t *testing.T) {
	if _, err := NewBank([]byte{1, 2, 3}, 1, 1); err == nil {
		t.Fatal("expected error for short image")
	}
}

func TestNewBankTableOverrun(t *testing.T) {
	img := buildImage(t, 0x10, 0x20, []uint32{1, 2}, [][]byte{make([]byte, instrumentSize)})
	// Ask for more sequences than the image can hold.
	if _, err := NewBank(img, 100, 1); err == nil {
		t.Fatal("expected error for sequence table overrun")
	}
}

func TestDecodeInstrument(t *testing.T) {
	rec := make([]byte, instrumentSize)
	binary.BigEndian.PutUint16(rec[0:2], 1)
	binary.BigEndian.PutUint16(rec[2:4], 100)
	binary.BigEndian.PutUint16(rec[4:6], 200)
	binary.BigEndian.PutUint32(rec[6:10], 0x1000)
	binary.BigEndian.PutUint32(rec[10:14], 3)

	got := decodeInstrument(rec)
	want := Instrument{IsOneShot: true, LoopOffset: 100, SampleLen: 200, SampleAddr: 0x1000, BaseOctave: 3}
	if got != want {
		t.Errorf("decodeInstrument = %+v, want %+v", got, want)
	}
}
