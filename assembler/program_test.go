package assembler

import (
	"strings"
	"testing"

	"github.com/dynasm-thumb2/dynasm/config"
)

func testConfig() config.AssemblerConfig {
	cfg := config.DefaultConfig().Assembler
	return cfg
}

func TestAssembleDataProcessing(t *testing.T) {
	p := NewProgram(testConfig())
	err := p.Assemble(`
MOV R0, #1
ADD R0, R0, #1
`)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(p.Code()) != 4 {
		t.Fatalf("expected 4 half-words (two 32-bit instructions), got %d", len(p.Code()))
	}
}

func TestAssembleForwardAndBackwardBranch(t *testing.T) {
	p := NewProgram(testConfig())
	err := p.Assemble(`
B skip
MOV R0, #1
skip:
MOV R1, #2
back:
ADD R1, R1, #1
B back
`)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(p.Code()) == 0 {
		t.Fatal("expected non-empty code")
	}
	labels := p.Labels()
	if _, ok := labels["skip"]; !ok {
		t.Error("expected label \"skip\" to be registered")
	}
	if _, ok := labels["back"]; !ok {
		t.Error("expected label \"back\" to be registered")
	}
}

// TestGlobalAddrReturnsDefinedLabelOffset pins down the byte offset
// GlobalAddr reports for each label in TestAssembleForwardAndBackwardBranch's
// program, exercising the encoder's un-biased globals[] write end to
// end: "skip" sits after one short B (2 bytes) and one K12 MOV (4
// bytes), "back" sits four bytes further on, after the second MOV.
func TestGlobalAddrReturnsDefinedLabelOffset(t *testing.T) {
	p := NewProgram(testConfig())
	err := p.Assemble(`
B skip
MOV R0, #1
skip:
MOV R1, #2
back:
ADD R1, R1, #1
B back
`)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	skip, ok := p.GlobalAddr("skip")
	if !ok {
		t.Fatal(`GlobalAddr("skip"): expected ok`)
	}
	if skip != 6 {
		t.Errorf(`GlobalAddr("skip") = %d, want 6`, skip)
	}

	back, ok := p.GlobalAddr("back")
	if !ok {
		t.Fatal(`GlobalAddr("back"): expected ok`)
	}
	if back != 10 {
		t.Errorf(`GlobalAddr("back") = %d, want 10`, back)
	}
}

func TestAssembleLoadStore(t *testing.T) {
	p := NewProgram(testConfig())
	err := p.Assemble(`
LDR R0, [SP, #4]
STR R0, [SP, #8]
`)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(p.Code()) != 4 {
		t.Fatalf("expected 4 half-words, got %d", len(p.Code()))
	}
}

func TestAssembleMultiSection(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSections = 2
	p := NewProgram(cfg)
	err := p.Assemble(`
MOV R0, #1
.section 1
MOV R1, #2
`)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(p.Code()) != 4 {
		t.Fatalf("expected 4 half-words across both sections, got %d", len(p.Code()))
	}
}

func TestAssembleUnsupportedMnemonic(t *testing.T) {
	p := NewProgram(testConfig())
	err := p.Assemble("FOO R0, #1\n")
	if err == nil {
		t.Fatal("expected an error for an unrecognized mnemonic")
	}
	if !strings.Contains(err.Error(), "FOO") {
		t.Errorf("expected error to mention the bad mnemonic, got %v", err)
	}
}

func TestAssembleUndefinedLabel(t *testing.T) {
	p := NewProgram(testConfig())
	err := p.Assemble("B nowhere\n")
	if err == nil {
		t.Fatal("expected an error for a branch to an undefined global label")
	}
}

func TestAssemblePoolWarnThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.PoolWarnThreshold = 1
	p := NewProgram(cfg)
	err := p.Assemble(`
MOV R0, #1
MOV R1, #2
MOV R2, #3
`)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(p.Warnings()) == 0 {
		t.Error("expected a pool-warning diagnostic past the configured threshold")
	}
}
