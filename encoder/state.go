package encoder

// State is the core DynASM-style encoding state (spec.md §3, §6): it owns
// a set of section buffers, the local/global and pc label tables, and the
// action list being interpreted. One State corresponds to one assembly
// unit; multiple States may run concurrently provided each owns its own
// sections, buffers and label tables (spec.md §5).
type State struct {
	actionList []uint16
	sections   []*Section
	activeSec  int
	lglabels   *labelTable
	pclabels   *labelTable
	globals    []uintptr // globals[id-10] per spec.md §3 "Globals"
	status     Status
	codesize   int
	externResolver ExternResolver
}

// New allocates encoder state with room for maxSections sections
// (spec.md §6 init(max_sections)).
func New(maxSections int) *State {
	s := &State{sections: make([]*Section, maxSections)}
	for i := range s.sections {
		s.sections[i] = newSection(i)
	}
	return s
}

// SetupGlobal installs the globals output slot array and sizes lglabels
// to hold ids 0..9+maxGlobalID (spec.md §6 setup_global).
func (s *State) SetupGlobal(globals []uintptr, maxGlobalID int) {
	s.globals = globals
	s.lglabels = newLabelTable(10 + maxGlobalID)
}

// GrowPC ensures pclabels holds at least maxPC ids, zero-initializing any
// newly added slots (spec.md §6 grow_pc). Can be called after Setup too.
func (s *State) GrowPC(maxPC int) {
	if s.pclabels == nil {
		s.pclabels = newLabelTable(maxPC)
		return
	}
	s.pclabels.grow(maxPC)
}

// Setup resets positions, zeros labels, selects section 0 as active, and
// installs a new action list (spec.md §6 setup(action_list)).
func (s *State) Setup(actionList []uint16) {
	s.actionList = actionList
	s.status = StatusOK
	s.activeSec = 0
	if s.lglabels != nil {
		s.lglabels.reset()
	}
	if s.pclabels != nil {
		s.pclabels.reset()
	}
	for i, sec := range s.sections {
		sec.reset(i)
	}
}

// LatchedStatus reports the latched status (spec.md §7): non-zero means every
// subsequent Put/Link/Encode call on this State is undefined until a
// fresh Setup.
func (s *State) LatchedStatus() Status { return s.status }

// GetPCLabel returns the byte offset of pc label id if defined, -1 if
// undefined, or -2 if id is unused/out of range (spec.md §6
// get_pclabel).
func (s *State) GetPCLabel(id int) int {
	if s.pclabels == nil || !s.pclabels.inRange(id) {
		return -2
	}
	pos := s.pclabels.slots[id]
	switch {
	case pos < 0:
		return int(s.sections[pos2sec(-pos)].at(-pos))
	case pos > 0:
		return -1
	default:
		return -2
	}
}

// CheckStep is the optional debug sanity check (spec.md §6 checkstep):
// it verifies no local label (1..9) is still a pending forward reference
// and, if secMatch >= 0, that the active section equals secMatch.
func (s *State) CheckStep(secMatch int) Status {
	if s.status == StatusOK {
		for i := localLabelMin; i <= localLabelMax; i++ {
			if s.lglabels.slots[i] > 0 {
				s.status = withPayload(StatusUndefLabel, i)
				break
			}
			s.lglabels.slots[i] = 0
		}
	}
	if s.status == StatusOK && secMatch >= 0 && s.activeSec != secMatch {
		s.status = withPayload(StatusMatchSec, s.activeSec)
	}
	return s.status
}

// bufAt and setBufAt dereference a biased position through whichever
// section it names (DASM_POS2PTR upstream): a forward-reference chain
// threaded through the buffer may span positions recorded by different
// Put calls against different sections' label tables, so lookups always
// resolve the section from the position itself rather than assuming the
// currently active one.
func (s *State) bufAt(pos int32) int32    { return s.sections[pos2sec(pos)].at(pos) }
func (s *State) setBufAt(pos int32, v int32) { s.sections[pos2sec(pos)].setAt(pos, v) }

// Free releases state. Go's garbage collector reclaims the backing
// storage; Free exists for API parity with the upstream free() (spec.md
// §6) and to make ownership release sites discoverable.
func (s *State) Free() {
	s.sections = nil
	s.lglabels = nil
	s.pclabels = nil
	s.globals = nil
	s.actionList = nil
}
