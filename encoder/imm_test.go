package encoder

import "testing"

func TestExpandThumbImmRoundTrip(t *testing.T) {
	values := []uint32{
		0, 1, 0x7F, 0xFF, // simple byte
		0x00AB00AB, 0x00FF00FF, // pattern 01
		0xAB00AB00, 0xFF00FF00, // pattern 10
		0xABABABAB, 0x7E7E7E7E, 0xFFFFFFFF, // pattern 11
		0x80000000, 0x000000F0, 0x00000180, 0x40000000, 0x00000100, // rotated single byte
	}
	for _, v := range values {
		field, ok := ExpandThumbImm(int32(v))
		if !ok {
			t.Errorf("ExpandThumbImm(%#x): expected ok=true", v)
			continue
		}
		if got := CollapseThumbImm(field); got != v {
			t.Errorf("ExpandThumbImm(%#x) -> field %#x -> CollapseThumbImm = %#x, want %#x",
				v, field, got, v)
		}
	}
}

func TestExpandThumbImmRejectsUnrepresentable(t *testing.T) {
	bad := []int32{-2, 0x1FF, 0x101, 0x123, -5}
	for _, v := range bad {
		if _, ok := ExpandThumbImm(v); ok {
			t.Errorf("ExpandThumbImm(%#x): expected ok=false", v)
		}
	}
}

func TestIsK12DirectEncode(t *testing.T) {
	res, ok := IsK12(OpADD, 5)
	if !ok || res.Op != OpADD || res.Value != 5 {
		t.Errorf("IsK12(ADD, 5) = %+v, %v; want direct ADD 5", res, ok)
	}
}

func TestIsK12InverseAdditiveFold(t *testing.T) {
	// ADD #-5 has no direct ThumbExpandImm encoding as a raw negative
	// value, but folds to SUB #5 (spec.md §4.6).
	res, ok := IsK12(OpADD, -5)
	if !ok {
		t.Fatal("IsK12(ADD, -5): expected an inverse fold to succeed")
	}
	if res.Op != OpSUB || res.Value != 5 {
		t.Errorf("IsK12(ADD, -5) = %+v; want SUB 5", res)
	}
}

func TestIsK12NoInverseFails(t *testing.T) {
	// EOR has no inverse opcode (opNone); an unrepresentable value must
	// fail outright rather than silently falling back to something else.
	if _, ok := IsK12(OpEOR, 0x123); ok {
		t.Error("IsK12(EOR, 0x123): expected ok=false, EOR has no inverse fold")
	}
}

