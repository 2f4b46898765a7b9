package vcdiff

import "testing"

func TestBuildDefaultCodeTableKeyEntries(t *testing.T) {
	ct := BuildDefaultCodeTable()

	if inst := ct.Get(0, 0); inst.Type != Run {
		t.Errorf("opcode 0 slot 0 = %v, want RUN", inst.Type)
	}
	if inst := ct.Get(0, 1); inst.Type != NoOp {
		t.Errorf("opcode 0 slot 1 = %v, want NOOP", inst.Type)
	}

	// Opcodes 1-18: ADD with fixed sizes 0-17.
	for i := byte(0); i < 18; i++ {
		inst := ct.Get(i+1, 0)
		if inst.Type != Add || inst.Size != i {
			t.Errorf("opcode %d = %v size %d, want ADD size %d", i+1, inst.Type, inst.Size, i)
		}
	}

	// Opcode 19: COPY mode 0, size read from stream.
	inst := ct.Get(19, 0)
	if inst.Type != Copy || inst.Mode != 0 || inst.Size != 0 {
		t.Errorf("opcode 19 = %+v, want COPY mode 0 size 0", inst)
	}

	// Opcode 20: COPY mode 0, fixed size 4 (first fixed COPY size).
	inst = ct.Get(20, 0)
	if inst.Type != Copy || inst.Mode != 0 || inst.Size != 4 {
		t.Errorf("opcode 20 = %+v, want COPY mode 0 size 4", inst)
	}

	// Opcode 255: last entry, COPY(4, mode 8) + ADD(1).
	inst1, inst2 := ct.Lookup(255)
	if inst1.Type != Copy || inst1.Mode != 8 || inst1.Size != 4 {
		t.Errorf("opcode 255 slot 0 = %+v, want COPY mode 8 size 4", inst1)
	}
	if inst2.Type != Add || inst2.Size != 1 {
		t.Errorf("opcode 255 slot 1 = %+v, want ADD size 1", inst2)
	}
}

func TestDefaultCodeTableIsValid(t *testing.T) {
	if !DefaultCodeTable.valid() {
		t.Error("DefaultCodeTable has an opcode with two NOOP slots")
	}
}

func TestCodeTableImageRoundTrip(t *testing.T) {
	image := codeTableImage(DefaultCodeTable)
	if len(image) != codeTableImageSize {
		t.Fatalf("codeTableImage length = %d, want %d", len(image), codeTableImageSize)
	}

	loaded, err := LoadCustomCodeTable(image)
	if err != nil {
		t.Fatalf("LoadCustomCodeTable: %v", err)
	}

	for i := 0; i < 256; i++ {
		want1, want2 := DefaultCodeTable.Lookup(byte(i))
		got1, got2 := loaded.Lookup(byte(i))
		if got1 != want1 || got2 != want2 {
			t.Errorf("opcode %d round-trip mismatch: got (%+v,%+v), want (%+v,%+v)", i, got1, got2, want1, want2)
		}
	}
}

func TestLoadCustomCodeTableWrongSize(t *testing.T) {
	if _, err := LoadCustomCodeTable(make([]byte, 100)); err == nil {
		t.Error("expected error for wrong-sized code table image")
	}
}

func TestLoadCustomCodeTableRejectsDoubleNoOp(t *testing.T) {
	image := codeTableImage(DefaultCodeTable)
	// Force opcode 0's second slot to stay NOOP while clearing its
	// first slot too, producing an opcode with two NOOP slots.
	image[0] = byte(NoOp) // inst1[0] was RUN; make it NOOP as well.

	if _, err := LoadCustomCodeTable(image); err == nil {
		t.Error("expected error for an opcode with two NOOP slots")
	}
}

func TestDecodeInstRejectsInvalidByte(t *testing.T) {
	if _, err := decodeInst(4); err == nil {
		t.Error("expected error for instruction byte outside {NOOP,ADD,RUN,COPY}")
	}
}
