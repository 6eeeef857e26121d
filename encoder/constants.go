package encoder

// Condition field values shared by Bcc/IT and the high-level emit helpers.
type Cond uint8

const (
	CondEQ Cond = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
)

// Reg names a Thumb-2 general purpose register. R13/R14/R15 have the
// conventional SP/LR/PC aliases.
type Reg uint8

const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC
)

// Op names a data-processing opcode for K12/ThumbExpandImm encoding and
// the emit_* helpers. The values double as an index into the inverse-op
// table (opInverse), matching the upstream emit_invai table's layout.
type Op uint8

const (
	OpAND Op = iota
	OpBIC
	OpMOV
	OpMVN
	OpEOR
	opReserved5
	opReserved6
	opReserved7
	OpADD
	opReserved9
	OpADC
	OpSBC
	opReserved13
	OpSUB
	OpRSB
	// OpNodef marks an opcode with no Thumb-2 encoding in this pack's
	// grounding material (the VFP/V* family and ARMI_RSC upstream):
	// spec.md §9 asks that these be refused rather than guessed.
	OpNodef
)

// Thumb-2 32-bit instruction prefixes used by patchrel's branch-form
// classifier (spec.md §4.5) and by the emit_* helpers that construct
// those forms directly.
const (
	prefixBcc        = 0xD000 // conditional short branch, imm8
	prefixLdrdStrd   = 0xE800 // LDR/STR dual-register table form, imm8 byte-scaled
	prefixLdrLiteral = 0x4800 // LDR literal, imm8 word-scaled
	prefixBShort     = 0xE000 // unconditional short branch, imm11
	prefixBLong      = 0xF000 // B<cond>/B/BL long form, 20 or 24 bit
	maskF800         = 0xF800
	maskF000         = 0xF000
	maskFE00         = 0xFE00
)

// alignNOP is written repeatedly by pass 3's ALIGN handling until the
// output cursor is aligned (spec.md §4.5).
const alignNOP uint16 = 0xBF00
