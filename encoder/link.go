package encoder

// Link is pass 2 (spec.md §4.4): it verifies every PC label got defined,
// collapses any global label left undefined in this translation unit to
// an external-resolution marker, then replays the action list per
// section — without writing output — to convert pass-1's worst-case
// ALIGN estimates into exact post-alignment label offsets and compute
// the final codesize.
func (s *State) Link() (codesize int, status Status) {
	if s.status != StatusOK {
		return 0, s.status
	}

	if s.pclabels != nil {
		for pc, v := range s.pclabels.slots {
			if v > 0 {
				s.status = withPayload(StatusUndefPC, pc)
				return 0, s.status
			}
		}
	}

	// Any global label (id>=20) still holding a forward-reference chain
	// was never defined by a LABEL_LG in this translation unit: collapse
	// the chain to -id so Encode's REL_LG check recognizes it as
	// unresolved rather than misreading a stale chain pointer as an
	// offset.
	if s.lglabels != nil {
		for id := globalLabelMin; id < len(s.lglabels.slots); id++ {
			n := s.lglabels.slots[id]
			for n > 0 {
				next := s.bufAt(n)
				s.setBufAt(n, int32(-id))
				n = next
			}
		}
	}

	var ofs int32
	for secIdx, sec := range s.sections {
		pos := sec2pos(secIdx)
		lastpos := sec.pos
		for pos != lastpos {
			start := sec.at(pos)
			pos++
			p := int(start)
		replay:
			for {
				ins := s.actionList[p]
				p++
				if ins != escapeWord {
					continue
				}
				word := s.actionList[p]
				p++
				kind := actionKind(word)
				switch kind {
				case ActionStop, ActionSection:
					break replay
				case ActionEsc:
					p++
				case ActionRelExt:
				case ActionAlign:
					mask := int32(word & 0xFF)
					ofs -= (sec.at(pos) + ofs) & mask
					pos++
				case ActionRelLG, ActionRelPC:
					pos++
				case ActionLabelLG, ActionLabelPC:
					sec.setAt(pos, sec.at(pos)+ofs)
					pos++
				case ActionImm, ActionImmThumb, ActionImmLong, ActionImmShift:
					pos++
				}
			}
		}
		ofs += sec.ofs
	}

	s.codesize = int(ofs)
	return s.codesize, StatusOK
}
