package assembler

import (
	"fmt"

	"github.com/dynasm-thumb2/dynasm/config"
	"github.com/dynasm-thumb2/dynasm/encoder"
)

// Program owns one encoder.State and the Builder of its last successful
// Assemble (SPEC_FULL.md §C.2): Assemble runs Put once per section run, then
// Link and Encode, and Program exposes the finished machine code and
// resolved global label addresses.
type Program struct {
	cfg     config.AssemblerConfig
	builder *Builder
	state   *encoder.State

	code     []uint16
	globals  []uintptr
	warnings []string
}

// NewProgram returns a Program configured by cfg; its encoder.State is
// allocated and sized per cfg on the first Assemble (spec.md §6
// init/setup_global/grow_pc).
func NewProgram(cfg config.AssemblerConfig) *Program {
	return &Program{cfg: cfg}
}

// Assemble parses source, runs all three passes, and leaves the
// finished machine code and diagnostics available via Code/Warnings/
// GlobalAddr. Assemble may be called again on the same Program to
// rebuild from new source (it resets all encoder state via Setup).
func (p *Program) Assemble(source string) error {
	b := NewBuilder(p.cfg.PoolWarnThreshold)
	if err := b.Parse(source); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	if p.state == nil {
		p.state = encoder.New(p.cfg.MaxSections)
		p.globals = make([]uintptr, p.cfg.MaxGlobalLabels+10)
		p.state.SetupGlobal(p.globals, p.cfg.MaxGlobalLabels)
		p.state.GrowPC(p.cfg.MaxPCLabels)
	}
	p.state.Setup(b.actions)

	for _, r := range b.runs {
		p.state.Put(r.start, r.args...)
		if err := p.state.LatchedStatus().Err(); err != nil {
			return fmt.Errorf("assemble: %w", err)
		}
	}

	codesize, status := p.state.Link()
	if err := status.Err(); err != nil {
		return fmt.Errorf("link: %w", err)
	}

	dest := make([]uint16, codesize/2)
	if status := p.state.Encode(dest, 0); status != encoder.StatusOK {
		return fmt.Errorf("encode: %w", status.Err())
	}

	p.builder = b
	p.code = dest
	p.warnings = b.warnings
	return nil
}

// Code returns the assembled half-words. Valid only after a successful Assemble.
func (p *Program) Code() []uint16 { return p.code }

// Warnings returns literal-pool-style diagnostics accumulated while
// parsing (SPEC_FULL.md §D.3), e.g. an oversized instruction count.
func (p *Program) Warnings() []string { return p.warnings }

// GlobalAddr returns the absolute address Encode assigned a defined
// global label, given base 0 (spec.md §4.5 "Globals"). ok is false only
// if name was never referenced or defined; a referenced global with no
// defining label makes Assemble fail with an undefined-label error.
func (p *Program) GlobalAddr(name string) (addr uintptr, ok bool) {
	id, known := p.builder.globalIDs[name]
	if !known {
		return 0, false
	}
	return p.globals[id-10], true
}

// Labels returns every global label name this program referenced or
// defined, mapped to its assigned id (for inspector/API consumers that
// want to list labels without reaching into Builder directly).
func (p *Program) Labels() map[string]int {
	out := make(map[string]int, len(p.builder.globalIDs))
	for name, id := range p.builder.globalIDs {
		out[name] = id
	}
	return out
}
