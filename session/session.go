package session

import (
	"sync"
	"time"

	"github.com/dynasm-thumb2/dynasm/assembler"
)

// Session wraps one assembler.Program across repeated Build calls, the
// way a debugger session wraps one running VM in the teacher's
// api/session_manager.go.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	source  string
	program *assembler.Program
	err     error
	bus     *Broadcaster
}

// Build assembles source against the session's Program and publishes
// the outcome (success with any warnings, or a build error) to the
// session's broadcaster.
func (s *Session) Build(source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = source
	err := s.program.Assemble(source)
	s.err = err

	evt := Event{Type: EventBuilt, SessionID: s.ID, At: time.Now()}
	if err != nil {
		evt.Type = EventBuildFailed
		evt.Error = err.Error()
	} else {
		evt.Warnings = s.program.Warnings()
	}
	s.bus.Publish(evt)
	return err
}

func (s *Session) Program() *assembler.Program {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program
}

func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
