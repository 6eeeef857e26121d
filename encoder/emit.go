package encoder

import "math/bits"

// thumbWord packs a 32-bit Thumb-2 instruction the way the teacher's
// ARMY_* macros do (lj_target_thumb.h): the first half-word emitted sits
// in bits 0-15, the second (operand/register-field) half-word in bits
// 16-31. Field packers below OR register numbers into a base template
// at the bit positions lj_target_thumb.h's ARMF_* macros define.
type thumbWord uint32

func (w thumbWord) halves() (first, second uint16) {
	return uint16(w), uint16(w >> 16)
}

// Register field packers, ported from ARMF_D/N/M/M2/T (lj_target_thumb.h).
func fieldD(r Reg) thumbWord  { return thumbWord(r) << 24 }
func fieldN(r Reg) thumbWord  { return thumbWord(r) << 0 }
func fieldM(r Reg) thumbWord  { return thumbWord(r) << 8 }
func fieldM2(r Reg) thumbWord { return thumbWord(r) << 16 }
func fieldT(r Reg) thumbWord  { return thumbWord(r) << 28 }

// emitDNM/emitDNM2/emitDN/emitTN/emitDM/emitDM2/emitD mirror ARMY_DNM and its
// siblings: they pack a base instruction template with the register
// fields an instruction form needs.
func emitDNM(base thumbWord, rd, rn, rm Reg) thumbWord {
	return base | fieldD(rd) | fieldN(rn) | fieldM(rm)
}
func emitDNM2(base thumbWord, rd, rn, rm Reg) thumbWord {
	return base | fieldD(rd) | fieldN(rn) | fieldM2(rm)
}
func emitDN(base thumbWord, rd, rn Reg) thumbWord { return base | fieldD(rd) | fieldN(rn) }
func emitTN(base thumbWord, rt, rn Reg) thumbWord { return base | fieldT(rt) | fieldN(rn) }
func emitDM(base thumbWord, rd, rm Reg) thumbWord { return base | fieldD(rd) | fieldM(rm) }
func emitDM2(base thumbWord, rd, rm Reg) thumbWord {
	return base | fieldD(rd) | fieldM2(rm)
}
func emitD(base thumbWord, rd Reg) thumbWord { return base | fieldD(rd) }

// Base instruction templates, ported verbatim from lj_target_thumb.h's
// ARMI_* enumerators (register-operand forms; K12 immediate forms are
// derived below via opK12Template).
const (
	thMOV  thumbWord = 0x0000ea4f
	thMVN  thumbWord = 0x0000ea6f
	thAND  thumbWord = 0x0000ea00
	thBIC  thumbWord = 0x0000ea20
	thORR  thumbWord = 0x0000ea40
	thEOR  thumbWord = 0x0000ea80
	thADD  thumbWord = 0x0000eb00
	thADC  thumbWord = 0x0000eb40
	thSBC  thumbWord = 0x0000eb60
	thSUB  thumbWord = 0x0000eba0
	thRSB  thumbWord = 0x0000ebc0
	thLDR  thumbWord = 0x0800f850
	thSTR  thumbWord = 0x0800f840
	thLDRD thumbWord = 0x0000e85f
	thSTRD thumbWord = 0x0000e840
	thMOVW thumbWord = 0x0000f240
	thMOVT thumbWord = 0x0000f2c0
	thB    thumbWord = 0xb800f000
	thBL   thumbWord = 0xf800f000
	thNOP  thumbWord = 0xbf00bf00

	// k12Xor is ARMI_K12 from lj_target_thumb.h: XORing it into a
	// register-form base template yields that opcode's modified-immediate
	// (K12) form.
	k12Xor thumbWord = 0x00001a00
)

// opRegTemplate maps Op to its register-operand base template, indexed
// the same way as opInverse (emit_invai's layout). Reserved/NODEF slots
// are left at their zero value and rejected explicitly by k12Template.
var opRegTemplate = [16]thumbWord{
	OpAND: thAND, OpBIC: thBIC, OpMOV: thMOV, OpMVN: thMVN, OpEOR: thEOR,
	OpADD: thADD, OpADC: thADC, OpSBC: thSBC, OpSUB: thSUB, OpRSB: thRSB,
}

var opHasK12Template = [16]bool{
	OpAND: true, OpBIC: true, OpMOV: true, OpMVN: true, OpEOR: true,
	OpADD: true, OpADC: true, OpSBC: true, OpSUB: true, OpRSB: true,
}

// k12Template returns op's modified-immediate base template (ARMY_OP_BODY
// applied against ARMY_K12(0,_), i.e. the register template XORed with
// k12Xor), or ok=false for NODEF/reserved opcodes.
func k12Template(op Op) (thumbWord, bool) {
	if int(op) >= len(opRegTemplate) || !opHasK12Template[op] {
		return 0, false
	}
	return opRegTemplate[op] ^ k12Xor, true
}

// packK12Field ORs a 12-bit ThumbExpandImm field (spec.md §4.1 layout,
// i:imm3:imm8) into a K12 instruction template at the bit positions
// ARMY_K12's B argument uses.
func packK12Field(tmpl thumbWord, field uint16) thumbWord {
	b := uint32(field)
	return tmpl | thumbWord((b&0xff)<<16) | thumbWord((b&0x700)<<20) | thumbWord((b&0x800)>>1)
}

// K12Base returns op's data-processing K12 template with rd/rn already
// packed in but the immediate field left unset, for callers building an
// action list that defers the immediate encoding to an IMMTHUMB action
// (spec.md §4.1) instead of resolving it eagerly via EmitDataProcImm.
func K12Base(op Op, rd, rn Reg) (first, second uint16, ok bool) {
	tmpl, ok := k12Template(op)
	if !ok {
		return 0, 0, false
	}
	w := emitDN(tmpl, rd, rn)
	first, second = w.halves()
	return first, second, true
}

// MovK12Base is K12Base for MOV, which takes no Rn.
func MovK12Base(rd Reg) (first, second uint16, ok bool) {
	tmpl, ok := k12Template(OpMOV)
	if !ok {
		return 0, 0, false
	}
	w := emitD(tmpl, rd)
	first, second = w.halves()
	return first, second, true
}

// LoadStoreBase returns the fixed half-words of an LDR/STR Rd,[Rn,#_]
// with the offset field left unset, for callers that defer the
// immediate to an IMM action rather than EmitLoadStore's eager encode.
func LoadStoreBase(form LoadStoreForm, rd, rn Reg) (first, second uint16) {
	base := thLDR
	if form == FormSTR {
		base = thSTR
	}
	w := emitTN(base, rd, rn)
	return w.halves()
}

// BranchShortWord is the single literal half-word a short (16-bit)
// unconditional branch's fixed prefix contributes before a REL_LG/REL_PC
// action patches in its imm11 target (patchrel's "unconditional short
// branch" form, spec.md §4.5).
const BranchShortWord uint16 = 0xE000

// BranchLongWords returns BL's (or a long-form B's) two fixed half-words
// before a REL_LG/REL_PC action patches in the J1/J2-encoded target.
func BranchLongWords(link bool) (first, second uint16) {
	base := thB
	if link {
		base = thBL
	}
	return base.halves()
}

// EmitDataProcImm builds a data-processing instruction with an immediate
// operand, folding through the inverse opcode if n doesn't fit op's own
// ThumbExpandImm encoding directly (spec.md §4.6, IsK12). Returns the two
// half-words in emission order, or ok=false if neither op nor its
// inverse can encode n, or op has no Thumb-2 K12 form (OpNodef).
func EmitDataProcImm(op Op, rd, rn Reg, n int32) (first, second uint16, ok bool) {
	res, ok := IsK12(op, n)
	if !ok {
		return 0, 0, false
	}
	tmpl, ok := k12Template(res.Op)
	if !ok {
		return 0, 0, false
	}
	field, _ := ExpandThumbImm(res.Value)
	w := packK12Field(emitDN(tmpl, rd, rn), field)
	first, second = w.halves()
	return first, second, true
}

// EmitMovImm builds MOV Rd, #n (or its MVN fold), the single-register
// form of EmitDataProcImm (rn is unused by MOV/MVN).
func EmitMovImm(rd Reg, n int32) (first, second uint16, ok bool) {
	res, ok := IsK12(OpMOV, n)
	if !ok {
		return 0, 0, false
	}
	tmpl, ok := k12Template(res.Op)
	if !ok {
		return 0, 0, false
	}
	field, _ := ExpandThumbImm(res.Value)
	w := packK12Field(emitD(tmpl, rd), field)
	first, second = w.halves()
	return first, second, true
}

// EmitLoadImmediate materializes a 32-bit constant into rd, mirroring
// emit_loadi's cascade (lj_emit_thumb.h): a direct (or inverse-folded)
// K12 form first, then MOVW alone when the upper 16 bits are zero, and
// otherwise a MOVW/MOVT 16+16 split. It never falls back to an OR cascade
// (see EmitOrCascade). Returns the instructions to emit in order (each as
// its two half-words, emission order already flattened).
func EmitLoadImmediate(rd Reg, n uint32) []uint16 {
	if first, second, ok := EmitMovImm(rd, int32(n)); ok {
		return []uint16{first, second}
	}

	if n>>16 == 0 {
		w := movwThumb(rd, uint16(n))
		first, second := w.halves()
		return []uint16{first, second}
	}

	lo := movwThumb(rd, uint16(n))
	hi := movwThumb2(thMOVT, rd, uint16(n>>16))
	f1, s1 := lo.halves()
	f2, s2 := hi.halves()
	return []uint16{f1, s1, f2, s2}
}

func movwThumb(rd Reg, imm16 uint16) thumbWord {
	return movwThumb2(thMOVW, rd, imm16)
}

// movwThumb2 packs MOVW/MOVT's imm16 operand per ARMY_MOVTW
// (lj_target_thumb.h): imm4 in the low template's bits 0-3, i in bit 10,
// imm3 in bits 28-30, imm8 in bits 16-23, plus Rd in bits 24-27.
func movwThumb2(base thumbWord, rd Reg, imm16 uint16) thumbWord {
	k := uint32(imm16)
	w := base |
		thumbWord((k&0xff)<<16) |
		thumbWord(((k>>8)&0x7)<<28) |
		thumbWord(((k>>11)&0x1)<<10) |
		thumbWord((k>>12)&0xf)
	return w | fieldD(rd)
}

// EmitOrCascade constructs the fallback path of emit_loadi: when n fits
// neither a K12 form nor a MOVW/MOVT split, build it with a MOV of the
// lowest 8-bit chunk (starting at an even bit position) followed by ORR
// instructions for each remaining chunk, the same one-byte-at-a-time approach as the original
// (lj_ffs-driven), given here as an explicit alternative to
// EmitLoadImmediate for callers that want to avoid MOVW/MOVT (e.g.
// targeting ARMv6 without Thumb-2 32-bit immediate loads).
func EmitOrCascade(rd Reg, n uint32) []uint16 {
	if n == 0 {
		first, second, _ := EmitMovImm(rd, 0)
		return []uint16{first, second}
	}

	orrTemplate := thORR ^ k12Xor
	movTemplate, _ := k12Template(OpMOV)

	var out []uint16
	first := true
	for n != 0 {
		sh := bits.TrailingZeros32(n) &^ 1
		m := n & (0xff << uint(sh))
		n &^= m
		field, ok := ExpandThumbImm(int32(m))
		if !ok {
			// m is at most 8 bits wide, so ExpandThumbImm accepts it as a
			// zero-extended byte (m < 0x100) or as the rotated single-byte
			// pattern; this path is unreachable for any m produced above.
			continue
		}
		tmpl := orrTemplate
		if first {
			tmpl = movTemplate
		}
		w := packK12Field(emitDN(tmpl, rd, rd), field)
		f, s := w.halves()
		out = append(out, f, s)
		first = false
	}
	return out
}

// EmitMoveReg builds MOV Rd, Rm (register form), folding away a no-op
// move when src already equals dst (emit_movrr's "swap early registers"
// peephole is a register-allocator concern out of scope here; the
// same-register fold is not).
func EmitMoveReg(dst, src Reg) (first, second uint16, ok bool) {
	if dst == src {
		return 0, 0, false
	}
	w := emitDM2(thMOV, dst, src)
	first, second = w.halves()
	return first, second, true
}

// LoadStoreForm distinguishes LDR from STR for EmitLoadStore/TryFuseLSO.
type LoadStoreForm int

const (
	FormLDR LoadStoreForm = iota
	FormSTR
)

// PendingLoadStore describes one LDR/STR Rd, [Rn, #ofs] the caller is
// about to emit, for TryFuseLoadStorePair's lookback check.
type PendingLoadStore struct {
	Form LoadStoreForm
	Rd   Reg
	Rn   Reg
	Ofs  int32
}

// TryFuseLoadStorePair is emit_lso's "combine LDR/STR pairs to LDRD/STRD"
// peephole (lj_emit_thumb.h), adapted to a pure function: given the
// previously emitted load/store and the one about to be emitted, it
// reports whether they fuse into a single LDRD/STRD and, if so, the
// fused instruction's half-words. Fusion requires adjacent registers
// (rd^1 pairing), a 4-byte-apart, 8-byte-aligned offset pair, and both
// accesses on the same form and base register.
func TryFuseLoadStorePair(prev, next PendingLoadStore) (first, second uint16, ok bool) {
	if prev.Form != next.Form || prev.Rn != next.Rn || prev.Rd == next.Rn || next.Rd != prev.Rd^1 {
		return 0, 0, false
	}
	if next.Ofs != prev.Ofs^4 {
		return 0, 0, false
	}
	ofs := prev.Ofs &^ 4
	rd := prev.Rd &^ 1
	if (prev.Rd^Reg(prev.Ofs>>2))&1 != 0 {
		return 0, 0, false
	}
	if uint32(prev.Ofs) > 252 || prev.Ofs&3 != 0 {
		return 0, 0, false
	}
	base := thLDRD
	if prev.Form == FormSTR {
		base = thSTRD
	}
	w := emitTN(base, rd, prev.Rn) | thumbWord((ofs&0xff)>>2)<<16
	first, second = w.halves()
	return first, second, true
}

// EmitLoadStore builds a plain LDR/STR Rd, [Rn, #ofs] (no fusion),
// ported from emit_lso's non-fused path. ofs must be in [-255, 4095]
// (spec.md's Thumb-2 immediate load/store range): a non-negative offset
// uses the T3 imm12 form, a negative one the T4 form with P=1, U=0, W=0
// and an 8-bit magnitude. Callers needing the LDRD/STRD fusion should
// consult TryFuseLoadStorePair first.
func EmitLoadStore(form LoadStoreForm, rd, rn Reg, ofs int32) (first, second uint16, ok bool) {
	if ofs < -255 || ofs > 4095 {
		return 0, 0, false
	}
	base := thLDR
	if form == FormSTR {
		base = thSTR
	}
	w := emitTN(base, rd, rn)
	if ofs < 0 {
		w |= thumbWord(0x400|(-ofs)&0xff) << 16 // T4: P=1, U=0, W=0, imm8
	} else {
		w = (w ^ 0x08000080) | thumbWord(ofs&0xfff)<<16 // T3: imm12
	}
	first, second = w.halves()
	return first, second, true
}

// EmitSPLoad and EmitSPStore are emit_spload/emit_spstore: SP-relative
// convenience forms for spill/fill sequences.
func EmitSPLoad(rd Reg, ofs int32) (first, second uint16, ok bool) {
	return EmitLoadStore(FormLDR, rd, SP, ofs)
}
func EmitSPStore(rd Reg, ofs int32) (first, second uint16, ok bool) {
	return EmitLoadStore(FormSTR, rd, SP, ofs)
}

// EmitBranch builds an unconditional B to a target whose byte delta
// (target - (pc-of-branch) - 4) is already known, for intra-program
// calls whose destination doesn't need REL_PC patching (emit_branch).
// delta must be even and within [-1048576, 1048574]; returns ok=false
// otherwise so the caller can fall back to an action-stream REL_PC
// branch routed through Put/Encode/patchrel instead.
func EmitBranch(delta int32) (first, second uint16, ok bool) {
	if delta < -1048576 || delta > 1048574 || delta&1 != 0 {
		return 0, 0, false
	}
	offset := uint32(delta>>1) + 2
	w := packLongBranch(thB, offset, false)
	first, second = w.halves()
	return first, second, true
}

// EmitCall builds a BL to a target reached by delta (emit_call's direct
// path; the indirect-via-register fallback needs a register allocator
// and is out of scope without one — see DESIGN.md).
func EmitCall(delta int32) (first, second uint16, ok bool) {
	if delta < -1048576 || delta > 1048574 || delta&1 != 0 {
		return 0, 0, false
	}
	offset := uint32(delta>>1) + 2
	w := packLongBranch(thBL, offset, true)
	first, second = w.halves()
	return first, second, true
}

// packLongBranch mirrors patchrel's long-branch J1/J2 sign encoding
// (spec.md §4.5) for a branch whose target is already known at build
// time, rather than deferred to a REL_PC patch.
func packLongBranch(base thumbWord, offset uint32, wide bool) thumbWord {
	S := (offset & 0x800000) >> 23
	J1 := (offset & 0x400000) >> 22
	J2 := (offset & 0x200000) >> 21
	if wide {
		J1 = (^J1) & 1
		J2 = (^J2) & 1
		J1 ^= S
		J2 ^= S
	}
	var hi, lo uint32
	if wide {
		hi = (S << 10) | ((offset >> 11) & 0x3ff)
	} else {
		hi = (S << 10) | ((offset >> 11) & 0x3f)
	}
	lo = (J1 << 13) | (J2 << 11) | (offset & 0x7ff)
	return base | thumbWord(hi) | thumbWord(lo)<<16
}
