package encoder

// Put is pass 1 (spec.md §4.3): it walks the action list from start,
// recording encoded actions into the active section's buffer and linking
// label forward-reference chains through that buffer. args supplies one
// value per action that declares a vararg (REL_PC, LABEL_PC, IMM,
// IMMTHUMB, IMMLONG, IMMSHIFT), consumed in action-list order.
//
// Pass 1 returns early on the first range-check failure, latching status
// (spec.md §7); once latched, further calls on this State are no-ops
// until a fresh Setup.
func (s *State) Put(start int, args ...int32) {
	if s.status != StatusOK {
		return
	}

	sec := s.sections[s.activeSec]
	sec.reserve()
	pos := sec.pos
	ofs := sec.ofs

	argIdx := 0
	nextArg := func() int32 {
		v := args[argIdx]
		argIdx++
		return v
	}

	sec.setAt(pos, int32(start))
	pos++

	fail := func(kind Status, p int) {
		s.status = withPayload(kind, p)
	}

	p := start
loop:
	for {
		ins := s.actionList[p]
		p++
		if ins != escapeWord {
			ofs += 2
			continue
		}

		word := s.actionList[p]
		p++
		kind := actionKind(word)
		var n int32
		if kind.hasVararg() {
			n = nextArg()
		}

		switch kind {
		case ActionStop:
			break loop

		case ActionSection:
			idx := int(word & 0xFF)
			if idx >= len(s.sections) {
				fail(StatusRangeSec, p-1)
				return
			}
			s.activeSec = idx
			break loop

		case ActionEsc:
			p++ // literal half-word copied verbatim in pass 3
			ofs += 2

		case ActionRelExt:
			// nothing at pass 1

		case ActionAlign:
			ofs += int32(word & 0xFF)
			sec.setAt(pos, ofs)
			pos++

		case ActionRelLG:
			id := int(word&2047) - 10
			if !s.lglabels.inRange(id) {
				fail(StatusRangeLabel, p-1)
				return
			}
			// Either the definition position or the previous chain head.
			v, _ := s.lglabels.resolve(id, pos)
			sec.setAt(pos, v)
			pos++

		case ActionRelPC:
			if !s.pclabels.inRange(int(n)) {
				fail(StatusRangePC, p-1)
				return
			}
			v, _ := s.pclabels.resolve(int(n), pos)
			sec.setAt(pos, v)
			pos++

		case ActionLabelLG:
			id := int(word&2047) - 10
			if !s.lglabels.inRange(id) {
				fail(StatusRangeLabel, p-1)
				return
			}
			s.collapseChain(s.lglabels, id, pos)
			sec.setAt(pos, ofs)
			pos++

		case ActionLabelPC:
			if !s.pclabels.inRange(int(n)) {
				fail(StatusRangePC, p-1)
				return
			}
			s.collapseChain(s.pclabels, int(n), pos)
			sec.setAt(pos, ofs)
			pos++

		case ActionImm:
			if !checkImmRange(word, n) {
				fail(StatusRangeImm, p-1)
				return
			}
			sec.setAt(pos, n)
			pos++

		case ActionImmShift:
			if n < 0 || n >= 32 {
				fail(StatusRangeImm, p-1)
				return
			}
			sec.setAt(pos, n)
			pos++

		case ActionImmLong:
			if n <= 0 {
				fail(StatusRangeImm, p-1)
				return
			}
			sec.setAt(pos, n)
			pos++

		case ActionImmThumb:
			if _, ok := ExpandThumbImm(n); !ok {
				fail(StatusRangeImm, p-1)
				return
			}
			sec.setAt(pos, n)
			pos++
		}
	}

	sec.pos = pos
	sec.ofs = ofs
}

// collapseChain defines a label at defPos and walks whatever pending
// forward-reference chain it had (threaded through the section buffers
// the references live in), retargeting every pending slot to defPos
// (spec.md §4.3 "LABEL_LG / LABEL_PC").
func (s *State) collapseChain(t *labelTable, id int, defPos int32) {
	n := t.define(id, defPos)
	for n > 0 {
		next := s.bufAt(n)
		s.setBufAt(n, defPos)
		n = next
	}
}

// checkImmRange implements the signed-IMM range check (spec.md §4.3,
// §9): if the field is signed and n<0, validate |n| against scale (must
// be a multiple of 1<<scale) and bits; otherwise validate n itself. This
// mirrors DASM_CHECKS' two branches in dasm_put exactly. Encode does not
// repeat the check: pass 3 packs the values pass 1 already accepted.
func checkImmRange(word uint16, n int32) bool {
	scale := immScale(word)
	bits := immBits(word)
	magnitude := n
	if immSigned(word) != 0 && n < 0 {
		magnitude = -n
	}
	if magnitude&((1<<scale)-1) != 0 {
		return false
	}
	if (magnitude>>scale)>>bits != 0 {
		return false
	}
	return true
}
