// Package assembler implements a small line-oriented Thumb-2 mnemonic
// syntax on top of encoder's action-stream machinery: Builder turns
// source text into the escaped action list Put/Link/Encode expect,
// and Program (program.go) drives the three passes to a finished
// machine-code block.
package assembler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dynasm-thumb2/dynasm/encoder"
)

// run is one Put call's worth of action list: the offset it starts at
// within the shared, flat action list, and the vararg values its
// REL_PC/LABEL_PC/IMM*/IMMTHUMB actions consume in order (spec.md §4.3).
// A run ends wherever ActionSection or ActionStop appears, matching
// dasm_put's own "ends a Put call" behavior.
type run struct {
	start int
	args  []int32
}

// Builder accumulates a flat action list from assembly source text,
// splitting it into per-section runs the way multiple |.code/|.data
// markers would in a hand-written action list.
type Builder struct {
	actions []uint16
	runs    []run
	runStart int
	curArgs []int32

	globalIDs  map[string]int
	nextGlobal int

	instrCount        int
	poolWarnThreshold int
	warnings          []string
}

// NewBuilder returns a Builder that warns (via Program.Warnings) once
// more than poolWarnThreshold instructions have been assembled, loosely
// modeling a literal-pool capacity warning (spec.md §9, SPEC_FULL.md §D.3).
func NewBuilder(poolWarnThreshold int) *Builder {
	return &Builder{
		globalIDs:         make(map[string]int),
		nextGlobal:        20,
		poolWarnThreshold: poolWarnThreshold,
	}
}

// Actions returns the finished flat action list. Valid only after Parse.
func (b *Builder) Actions() []uint16 { return b.actions }

// Parse tokenizes source line by line and appends to the action list.
// Blank lines and ';' or "//" comments are ignored.
func (b *Builder) Parse(source string) error {
	for i, raw := range strings.Split(source, "\n") {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		if err := b.parseLine(line); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	b.emitAction(encoder.ActionStop, 0, nil)
	b.finishRun()

	if b.poolWarnThreshold > 0 && b.instrCount > b.poolWarnThreshold {
		b.warnings = append(b.warnings, fmt.Sprintf(
			"program has %d instructions, past the configured pool warning threshold of %d",
			b.instrCount, b.poolWarnThreshold))
	}
	return nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return line
}

func (b *Builder) parseLine(line string) error {
	switch {
	case strings.HasPrefix(line, ".section"):
		n, err := parseDirectiveInt(line, ".section")
		if err != nil {
			return err
		}
		return b.switchSection(n)

	case strings.HasPrefix(line, ".align"):
		n, err := parseDirectiveInt(line, ".align")
		if err != nil || n <= 0 {
			return fmt.Errorf("bad alignment in %q", line)
		}
		b.emitAction(encoder.ActionAlign, uint16(n-1), nil)
		return nil

	case strings.HasSuffix(line, ":"):
		return b.defineLabel(strings.TrimSuffix(line, ":"))
	}

	mnemonic, rest := splitMnemonic(line)
	upper := strings.ToUpper(mnemonic)

	if upper == "B" || upper == "BL" {
		return b.emitBranch(strings.TrimSpace(rest), 0, false, upper == "BL")
	}
	if len(upper) == 3 && upper[0] == 'B' {
		if cond, ok := condSuffixes[upper[1:]]; ok {
			return b.emitBranch(strings.TrimSpace(rest), cond, true, false)
		}
	}
	if upper == "LDR" {
		return b.emitLoadStore(encoder.FormLDR, splitOperands(rest))
	}
	if upper == "STR" {
		return b.emitLoadStore(encoder.FormSTR, splitOperands(rest))
	}
	if spec, ok := dataOps[upper]; ok {
		return b.emitDataOp(upper, spec, splitOperands(rest))
	}
	return fmt.Errorf("%w: %q", encoder.ErrUnsupportedOp, mnemonic)
}

func parseDirectiveInt(line, directive string) (int, error) {
	tok := strings.TrimSpace(strings.TrimPrefix(line, directive))
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("bad operand %q for %s: %w", tok, directive, err)
	}
	return n, nil
}

func splitMnemonic(line string) (mnemonic, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], line[i+1:]
}

func splitOperands(rest string) []string {
	rest = strings.NewReplacer("[", "", "]", "").Replace(rest)
	parts := strings.Split(rest, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseImm(tok string) (int32, error) {
	tok = strings.TrimSpace(tok)
	neg := false
	if strings.HasPrefix(tok, "-") {
		neg = true
		tok = tok[1:]
	}
	tok = strings.TrimPrefix(tok, "#")
	n, err := strconv.ParseInt(tok, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad immediate %q: %w", tok, err)
	}
	if neg {
		n = -n
	}
	return int32(n), nil
}

// emitAction appends an escaped action word to the flat action list and,
// if arg is non-nil, records its vararg for the run currently in
// progress (spec.md §4.3: REL_PC, LABEL_PC, IMM, IMMTHUMB, IMMLONG and
// IMMSHIFT consume one vararg each; REL_LG/LABEL_LG carry their id in
// the payload and need none).
func (b *Builder) emitAction(kind encoder.ActionKind, payload uint16, arg *int32) {
	b.actions = append(b.actions, encoder.EscapeWord, encoder.PackAction(kind, payload))
	if arg != nil {
		b.curArgs = append(b.curArgs, *arg)
	}
}

func (b *Builder) emitWord(w uint16) { b.actions = append(b.actions, w) }

func (b *Builder) finishRun() {
	b.runs = append(b.runs, run{start: b.runStart, args: append([]int32(nil), b.curArgs...)})
	b.runStart = len(b.actions)
	b.curArgs = nil
}

func (b *Builder) switchSection(n int) error {
	if n < 0 {
		return fmt.Errorf("negative section index %d", n)
	}
	b.emitAction(encoder.ActionSection, uint16(n), nil)
	b.finishRun()
	return nil
}

// labelID resolves a label name to its REL_LG/LABEL_LG id: ".L1".."L9"
// (sic, ".L" + one digit) map directly to the local, freely rebindable
// ids 1-9; any other identifier is a global label, assigned the next
// free id starting at 20 on first sight (spec.md §3 id ranges).
func (b *Builder) labelID(name string) (int, error) {
	if len(name) == 3 && name[0] == '.' && name[1] == 'L' && name[2] >= '1' && name[2] <= '9' {
		return int(name[2] - '0'), nil
	}
	if name == "" {
		return 0, fmt.Errorf("empty label name")
	}
	if id, ok := b.globalIDs[name]; ok {
		return id, nil
	}
	id := b.nextGlobal
	b.nextGlobal++
	b.globalIDs[name] = id
	return id, nil
}

func (b *Builder) defineLabel(name string) error {
	id, err := b.labelID(name)
	if err != nil {
		return err
	}
	b.emitAction(encoder.ActionLabelLG, uint16(id+10), nil)
	return nil
}

func (b *Builder) emitBranch(target string, cond encoder.Cond, hasCond, link bool) error {
	id, err := b.labelID(target)
	if err != nil {
		return err
	}
	switch {
	case hasCond:
		b.emitWord(0xD000 | uint16(cond)<<8)
	case link:
		first, second := encoder.BranchLongWords(true)
		b.emitWord(first)
		b.emitWord(second)
	default:
		b.emitWord(encoder.BranchShortWord)
	}
	b.emitAction(encoder.ActionRelLG, uint16(id+10), nil)
	b.instrCount++
	return nil
}

func (b *Builder) emitDataOp(mnemonic string, spec dataOp, operands []string) error {
	want := 2
	if spec.wantsRn {
		want = 3
	}
	if len(operands) != want {
		return fmt.Errorf("%s wants %d operands, got %d", mnemonic, want, len(operands))
	}
	rd, err := parseReg(operands[0])
	if err != nil {
		return err
	}

	var first, second uint16
	var ok bool
	var immTok string
	if spec.wantsRn {
		rn, err := parseReg(operands[1])
		if err != nil {
			return err
		}
		immTok = operands[2]
		first, second, ok = encoder.K12Base(spec.op, rd, rn)
	} else {
		immTok = operands[1]
		first, second, ok = encoder.K12Base(spec.op, rd, 0) // MOV/MVN templates already carry Rn=PC
	}
	if !ok {
		return fmt.Errorf("%w: %s", encoder.ErrUnsupportedOp, mnemonic)
	}
	imm, err := parseImm(immTok)
	if err != nil {
		return err
	}

	b.emitWord(first)
	b.emitWord(second)
	b.emitAction(encoder.ActionImmThumb, 0, &imm)
	b.instrCount++
	return nil
}

func (b *Builder) emitLoadStore(form encoder.LoadStoreForm, operands []string) error {
	if len(operands) != 3 {
		return fmt.Errorf("expected Rd, [Rn, #imm], got %v", operands)
	}
	rd, err := parseReg(operands[0])
	if err != nil {
		return err
	}
	rn, err := parseReg(operands[1])
	if err != nil {
		return err
	}
	imm, err := parseImm(operands[2])
	if err != nil {
		return err
	}
	if imm < 0 || imm > 4095 {
		return fmt.Errorf("offset %d out of LDR/STR immediate range 0-4095", imm)
	}

	first, second := encoder.LoadStoreBase(form, rd, rn)
	b.emitWord(first)
	b.emitWord(second)
	payload := encoder.PackImmParam(0, 12, 0, false)
	b.emitAction(encoder.ActionImm, payload, &imm)
	b.instrCount++
	return nil
}
