package encoder

import "testing"

func TestSec2posRoundTrip(t *testing.T) {
	for sec := 0; sec < 4; sec++ {
		pos := sec2pos(sec)
		if got := pos2sec(pos); got != sec {
			t.Errorf("pos2sec(sec2pos(%d)) = %d, want %d", sec, got, sec)
		}
		if got := pos2idx(pos); got != 0 {
			t.Errorf("pos2idx(sec2pos(%d)) = %d, want 0", sec, got)
		}
	}
}

func TestSectionReserveGrowsAndTracksBias(t *testing.T) {
	s := newSection(2)
	if pos2sec(s.pos) != 2 {
		t.Fatalf("newSection(2).pos has section %d, want 2", pos2sec(s.pos))
	}

	s.reserve()
	if len(s.buf) == 0 {
		t.Fatal("reserve() should have allocated a buffer")
	}
	if pos2bias(s.epos) != sec2pos(2) {
		t.Errorf("epos bias = %#x, want section-2 bias %#x", pos2bias(s.epos), sec2pos(2))
	}

	s.setAt(s.pos, 42)
	if got := s.at(s.pos); got != 42 {
		t.Errorf("at(pos) after setAt = %d, want 42", got)
	}
}

func TestSectionReserveIsNoOpWithHeadroom(t *testing.T) {
	s := newSection(0)
	s.reserve()
	buf := s.buf
	s.reserve() // pos unchanged, still below epos: must not reallocate
	if &s.buf[0] != &buf[0] {
		t.Error("reserve() reallocated even though pos was still below epos")
	}
}

func TestSectionResetRebiasesWithoutTouchingBuffer(t *testing.T) {
	s := newSection(0)
	s.reserve()
	buf := s.buf
	s.ofs = 10
	s.reset(3)
	if len(s.buf) != len(buf) || &s.buf[0] != &buf[0] {
		t.Error("reset() replaced the section buffer")
	}
	if pos2sec(s.pos) != 3 {
		t.Errorf("reset(3).pos section = %d, want 3", pos2sec(s.pos))
	}
	if s.ofs != 0 {
		t.Errorf("reset() should zero ofs, got %d", s.ofs)
	}
}
