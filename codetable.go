package vcdiff

// The 256-opcode instruction table from RFC 3284. Each opcode maps to
// up to two (inst, size, mode) triplets. The default table is a
// compile-time constant built once at package init; a delta with
// VCD_CODETABLE set replaces the active table with a custom one.

const codeTableImageSize = 1536

// CodeTable is 256 opcodes, each with two instruction slots.
type CodeTable struct {
	entries [256][2]Instruction
}

// Lookup returns both instruction slots for an opcode.
func (ct *CodeTable) Lookup(opcode byte) (Instruction, Instruction) {
	return ct.entries[opcode][0], ct.entries[opcode][1]
}

// Get returns a single slot (0 or 1) for an opcode.
func (ct *CodeTable) Get(opcode byte, slot int) Instruction {
	return ct.entries[opcode][slot]
}

// valid reports whether no opcode encodes two NO_OPs, which RFC 3284
// disallows for any code table, default or custom.
func (ct *CodeTable) valid() bool {
	for _, pair := range ct.entries {
		if pair[0].Type == NoOp && pair[1].Type == NoOp {
			return false
		}
	}
	return true
}

// BuildDefaultCodeTable constructs the RFC 3284 §5.4 default table.
func BuildDefaultCodeTable() *CodeTable {
	ct := &CodeTable{}

	for i := 0; i < 256; i++ {
		ct.entries[i][0] = NewInstruction(NoOp, 0, 0)
		ct.entries[i][1] = NewInstruction(NoOp, 0, 0)
	}

	// Entry 0: RUN, size read from stream.
	ct.entries[0][0] = NewInstruction(Run, 0, 0)

	// Entries 1-18: ADD with sizes 0-17.
	for i := byte(0); i < 18; i++ {
		ct.entries[i+1][0] = NewInstruction(Add, i, 0)
	}

	index := 19

	// Entries 19-162: COPY, 9 modes x (size-from-stream, sizes 4-18).
	for mode := byte(0); mode < 9; mode++ {
		ct.entries[index][0] = NewInstruction(Copy, 0, mode)
		index++
		for size := byte(4); size < 19; size++ {
			ct.entries[index][0] = NewInstruction(Copy, size, mode)
			index++
		}
	}

	// Entries 163-234: ADD(1-4) + COPY(4-6) for modes 0-5.
	for mode := byte(0); mode < 6; mode++ {
		for addSize := byte(1); addSize < 5; addSize++ {
			for copySize := byte(4); copySize < 7; copySize++ {
				ct.entries[index][0] = NewInstruction(Add, addSize, 0)
				ct.entries[index][1] = NewInstruction(Copy, copySize, mode)
				index++
			}
		}
	}

	// Entries 235-246: ADD(1-4) + COPY(4) for modes 6-8.
	for mode := byte(6); mode < 9; mode++ {
		for addSize := byte(1); addSize < 5; addSize++ {
			ct.entries[index][0] = NewInstruction(Add, addSize, 0)
			ct.entries[index][1] = NewInstruction(Copy, 4, mode)
			index++
		}
	}

	// Entries 247-255: COPY(4) + ADD(1) for all 9 modes.
	for mode := byte(0); mode < 9; mode++ {
		ct.entries[index][0] = NewInstruction(Copy, 4, mode)
		ct.entries[index][1] = NewInstruction(Add, 1, 0)
		index++
	}

	return ct
}

// DefaultCodeTable is the package-wide default instance; it is never
// mutated, only consulted or replaced (per-decode) by a custom table.
var DefaultCodeTable = BuildDefaultCodeTable()

// codeTableImage serializes ct into the same 1536-byte layout
// LoadCustomCodeTable parses, the inverse operation. It is used to
// derive the dictionary a custom code table's nested delta is decoded
// against: the default table's own wire image.
func codeTableImage(ct *CodeTable) []byte {
	img := make([]byte, codeTableImageSize)
	for i := 0; i < 256; i++ {
		e0, e1 := ct.entries[i][0], ct.entries[i][1]
		img[i] = byte(e0.Type)
		img[256+i] = byte(e1.Type)
		img[512+i] = e0.Size
		img[768+i] = e1.Size
		img[1024+i] = e0.Mode
		img[1280+i] = e1.Mode
	}
	return img
}

var defaultCodeTableImageBytes = codeTableImage(DefaultCodeTable)

// defaultCodeTableImage returns the compiled-in default table's
// 1536-byte wire image.
func defaultCodeTableImage() []byte {
	return defaultCodeTableImageBytes
}

// decodeInst maps a raw table byte to an InstructionType, rejecting
// values outside {NOOP, ADD, RUN, COPY} as a bad-opcode error.
func decodeInst(b byte) (InstructionType, error) {
	switch InstructionType(b) {
	case NoOp, Add, Run, Copy:
		return InstructionType(b), nil
	default:
		return 0, newErr(KindBadOpcode, "instruction code table entry has invalid inst byte %d", b)
	}
}

// LoadCustomCodeTable parses a 1536-byte code table image into a
// CodeTable. The image is six parallel 256-entry arrays in RFC 3284's
// order: inst1, inst2, size1, size2, mode1, mode2.
func LoadCustomCodeTable(image []byte) (*CodeTable, error) {
	if len(image) != codeTableImageSize {
		return nil, newErr(KindMalformedHeader, "custom code table image is %d bytes, want %d", len(image), codeTableImageSize)
	}

	inst1 := image[0:256]
	inst2 := image[256:512]
	size1 := image[512:768]
	size2 := image[768:1024]
	mode1 := image[1024:1280]
	mode2 := image[1280:1536]

	ct := &CodeTable{}
	for i := 0; i < 256; i++ {
		t1, err := decodeInst(inst1[i])
		if err != nil {
			return nil, err
		}
		t2, err := decodeInst(inst2[i])
		if err != nil {
			return nil, err
		}
		ct.entries[i][0] = NewInstruction(t1, size1[i], mode1[i])
		ct.entries[i][1] = NewInstruction(t2, size2[i], mode2[i])
	}

	if !ct.valid() {
		return nil, newErr(KindBadOpcode, "custom code table has an opcode with two NOOP slots")
	}
	return ct, nil
}
