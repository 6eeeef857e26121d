package assembler

import (
	"fmt"
	"strings"

	"github.com/dynasm-thumb2/dynasm/encoder"
)

// dataOp describes one "MNEMONIC Rd, Rn, #imm" or "MNEMONIC Rd, #imm"
// data-processing line: op is the K12 opcode, wantsRn reports whether a
// second register operand precedes the immediate (spec.md §4.1's
// register-form template always carries an Rn field; MOV/MVN's is
// unused and left zero).
type dataOp struct {
	op      encoder.Op
	wantsRn bool
}

var dataOps = map[string]dataOp{
	"AND": {encoder.OpAND, true},
	"BIC": {encoder.OpBIC, true},
	"EOR": {encoder.OpEOR, true},
	"ADD": {encoder.OpADD, true},
	"ADC": {encoder.OpADC, true},
	"SBC": {encoder.OpSBC, true},
	"SUB": {encoder.OpSUB, true},
	"RSB": {encoder.OpRSB, true},
	"MOV": {encoder.OpMOV, false},
	"MVN": {encoder.OpMVN, false},
}

// condSuffixes maps a Bcc mnemonic suffix to its 4-bit condition field
// (constants.go's Cond enumeration), for the "Bxx label" conditional
// short-branch form (patchrel's Bcc case, spec.md §4.5).
var condSuffixes = map[string]encoder.Cond{
	"EQ": encoder.CondEQ, "NE": encoder.CondNE,
	"CS": encoder.CondCS, "CC": encoder.CondCC,
	"MI": encoder.CondMI, "PL": encoder.CondPL,
	"VS": encoder.CondVS, "VC": encoder.CondVC,
	"HI": encoder.CondHI, "LS": encoder.CondLS,
	"GE": encoder.CondGE, "LT": encoder.CondLT,
	"GT": encoder.CondGT, "LE": encoder.CondLE,
}

var regNames = map[string]encoder.Reg{
	"R0": encoder.R0, "R1": encoder.R1, "R2": encoder.R2, "R3": encoder.R3,
	"R4": encoder.R4, "R5": encoder.R5, "R6": encoder.R6, "R7": encoder.R7,
	"R8": encoder.R8, "R9": encoder.R9, "R10": encoder.R10, "R11": encoder.R11,
	"R12": encoder.R12, "SP": encoder.SP, "LR": encoder.LR, "PC": encoder.PC,
}

func parseReg(tok string) (encoder.Reg, error) {
	r, ok := regNames[strings.ToUpper(strings.TrimSpace(tok))]
	if !ok {
		return 0, fmt.Errorf("unknown register %q", tok)
	}
	return r, nil
}
