package encoder

import "testing"

// assembleOne runs the full three-pass pipeline against one action list
// built directly with the package's internal escape/action helpers (the
// six concrete end-to-end scenarios this mirrors are documented in
// spec.md §8).
func assembleOne(t *testing.T, maxSections int, actions []uint16, args ...int32) ([]uint16, Status) {
	t.Helper()
	s := New(maxSections)
	globals := make([]uintptr, 30)
	s.SetupGlobal(globals, 20)
	s.GrowPC(8)
	s.Setup(actions)

	s.Put(0, args...)
	if st := s.LatchedStatus(); st != StatusOK {
		return nil, st
	}

	codesize, st := s.Link()
	if st != StatusOK {
		return nil, st
	}

	dest := make([]uint16, codesize/2)
	if st := s.Encode(dest, 0); st != StatusOK {
		return nil, st
	}
	return dest, StatusOK
}

// TestPutLinkEncodeMovImmediate pins down spec.md §8 scenario 2: MOV
// R2,#42 through the IMMTHUMB action patches to the exact half-words
// 0xF04F 0x022A, with the first half-word left untouched.
func TestPutLinkEncodeMovImmediate(t *testing.T) {
	first, second, ok := MovK12Base(R2)
	if !ok {
		t.Fatal("MovK12Base(R2): expected ok")
	}
	actions := []uint16{
		first, second,
		escapeWord, packAction(ActionImmThumb, 0),
		escapeWord, packAction(ActionStop, 0),
	}

	dest, st := assembleOne(t, 1, actions, 42)
	if st != StatusOK {
		t.Fatalf("pipeline failed: %v", st.Err())
	}
	want := []uint16{0xF04F, 0x022A}
	if len(dest) != len(want) || dest[0] != want[0] || dest[1] != want[1] {
		t.Errorf("MOV R2,#42 encoded to %#v, want %#v", dest, want)
	}
}

// TestPutLinkEncodeForwardBranch pins down an unconditional forward
// branch's patched imm11 field to its exact value, derived by hand from
// patchrel's bit layout rather than restated from the prefix alone: the
// branch is the very first half-word written (pos==1 when patchrel
// runs), one alignNOP separates it from its target, so the patched
// displacement is -2 bytes -> field (0x7FF)+1 == 0x800.
func TestPutLinkEncodeForwardBranch(t *testing.T) {
	const targetID = 20 // first global id
	actions := []uint16{
		BranchShortWord,
		escapeWord, packAction(ActionRelLG, uint16(targetID+10)),
		alignNOP, // a filler instruction between the branch and its target
		escapeWord, packAction(ActionLabelLG, uint16(targetID+10)),
		escapeWord, packAction(ActionStop, 0),
	}

	s := New(1)
	globals := make([]uintptr, 30)
	s.SetupGlobal(globals, 20)
	s.GrowPC(8)
	s.Setup(actions)
	s.Put(0)
	if st := s.LatchedStatus(); st != StatusOK {
		t.Fatalf("Put failed: %v", st.Err())
	}
	codesize, st := s.Link()
	if st != StatusOK {
		t.Fatalf("Link failed: %v", st.Err())
	}
	dest := make([]uint16, codesize/2)
	if st := s.Encode(dest, 0); st != StatusOK {
		t.Fatalf("Encode failed: %v", st.Err())
	}

	want := []uint16{0xE800, alignNOP}
	if len(dest) != len(want) || dest[0] != want[0] || dest[1] != want[1] {
		t.Errorf("forward branch encoded to %#v, want %#v", dest, want)
	}
	if got := globals[targetID-10]; got != 4 {
		t.Errorf("globals[%d] = %d, want 4 (the label's byte offset)", targetID-10, got)
	}
}

// TestPutLinkEncodeBackwardBranch mirrors the forward case for a branch
// whose target is already defined: the patched displacement is -8
// bytes -> field (0x7FC)+1 == 0x7FD.
func TestPutLinkEncodeBackwardBranch(t *testing.T) {
	const loopID = 20
	actions := []uint16{
		escapeWord, packAction(ActionLabelLG, uint16(loopID+10)),
		alignNOP,
		BranchShortWord,
		escapeWord, packAction(ActionRelLG, uint16(loopID+10)),
		escapeWord, packAction(ActionStop, 0),
	}

	dest, st := assembleOne(t, 1, actions)
	if st != StatusOK {
		t.Fatalf("pipeline failed: %v", st.Err())
	}
	want := []uint16{alignNOP, 0xE7FD}
	if len(dest) != len(want) || dest[0] != want[0] || dest[1] != want[1] {
		t.Errorf("backward branch encoded to %#v, want %#v", dest, want)
	}
}

// TestPutLinkEncodeConditionalBranch pins down a conditional (Bcc) short
// branch, whose patch site is also the very first half-word written
// (pos==1): patchrel must treat the missing "hi" half-word as not
// matching the LDRD/STRD table form rather than reading out of bounds.
func TestPutLinkEncodeConditionalBranch(t *testing.T) {
	const condEQ uint16 = 0xD000
	const targetID = 20
	actions := []uint16{
		condEQ,
		escapeWord, packAction(ActionRelLG, uint16(targetID+10)),
		alignNOP,
		alignNOP,
		escapeWord, packAction(ActionLabelLG, uint16(targetID+10)),
		escapeWord, packAction(ActionStop, 0),
	}

	dest, st := assembleOne(t, 1, actions)
	if st != StatusOK {
		t.Fatalf("pipeline failed: %v", st.Err())
	}
	want := []uint16{0xD001, alignNOP, alignNOP}
	if len(dest) != len(want) {
		t.Fatalf("BEQ encoded to %#v, want %d half-words", dest, len(want))
	}
	for i := range want {
		if dest[i] != want[i] {
			t.Errorf("BEQ encoded to %#v, want %#v", dest, want)
			break
		}
	}
}

func TestEncodeFailsOnUndefinedGlobal(t *testing.T) {
	actions := []uint16{
		BranchShortWord,
		escapeWord, packAction(ActionRelLG, uint16(20+10)),
		escapeWord, packAction(ActionStop, 0),
	}

	_, st := assembleOne(t, 1, actions)
	if st.Kind() != StatusUndefLabel {
		t.Fatalf("expected StatusUndefLabel, got %v", st.Kind())
	}
}

func TestPutRejectsOutOfRangeImmThumb(t *testing.T) {
	first, second, ok := MovK12Base(R0)
	if !ok {
		t.Fatal("MovK12Base(R0): expected ok")
	}
	actions := []uint16{
		first, second,
		escapeWord, packAction(ActionImmThumb, 0),
		escapeWord, packAction(ActionStop, 0),
	}

	// 0x123 has no ThumbExpandImm encoding (see imm_test.go).
	_, st := assembleOne(t, 1, actions, 0x123)
	if st.Kind() != StatusRangeImm {
		t.Fatalf("expected StatusRangeImm, got %v", st.Kind())
	}
}

func TestAlignPadsToBoundary(t *testing.T) {
	actions := []uint16{
		alignNOP, // one odd-sized instruction, so the next boundary needs padding
		escapeWord, packAction(ActionAlign, 0x3), // align to 4 bytes
		alignNOP,
		escapeWord, packAction(ActionStop, 0),
	}

	dest, st := assembleOne(t, 1, actions)
	if st != StatusOK {
		t.Fatalf("pipeline failed: %v", st.Err())
	}
	if len(dest) != 3 {
		t.Fatalf("expected 3 half-words (1 + 1 pad + 1), got %d: %#v", len(dest), dest)
	}
}

func TestMultiSectionRuns(t *testing.T) {
	firstA, secondA, _ := MovK12Base(R0)
	firstB, secondB, _ := MovK12Base(R1)

	actions := []uint16{
		firstA, secondA,
		escapeWord, packAction(ActionImmThumb, 0),
		escapeWord, packAction(ActionSection, 1),
		// run 2 (section 1) starts here
		firstB, secondB,
		escapeWord, packAction(ActionImmThumb, 0),
		escapeWord, packAction(ActionStop, 0),
	}

	s := New(2)
	globals := make([]uintptr, 30)
	s.SetupGlobal(globals, 20)
	s.Setup(actions)

	s.Put(0, 1)
	if st := s.LatchedStatus(); st != StatusOK {
		t.Fatalf("run 1 Put failed: %v", st.Err())
	}
	// The section-0 run ends at the ActionSection word; run 2 begins at
	// the index just past it in the flat action list.
	run2Start := 6
	s.Put(run2Start, 2)
	if st := s.LatchedStatus(); st != StatusOK {
		t.Fatalf("run 2 Put failed: %v", st.Err())
	}

	codesize, st := s.Link()
	if st != StatusOK {
		t.Fatalf("Link failed: %v", st.Err())
	}
	dest := make([]uint16, codesize/2)
	if st := s.Encode(dest, 0); st != StatusOK {
		t.Fatalf("Encode failed: %v", st.Err())
	}
	if len(dest) != 4 {
		t.Fatalf("expected 4 half-words across both sections, got %d", len(dest))
	}
}
