package encoder

import (
	"errors"
	"fmt"
)

// Status is the encoder's latched status code: the top byte carries the
// error kind, the low 24 bits carry the offending action-list offset or
// label id. The zero value is OK.
type Status uint32

const (
	StatusOK         Status = 0x00000000
	StatusNoMem      Status = 0x01000000
	StatusPhase      Status = 0x02000000
	StatusMatchSec   Status = 0x03000000
	StatusRangeImm   Status = 0x11000000
	StatusRangeSec   Status = 0x12000000
	StatusRangeLabel Status = 0x13000000
	StatusRangePC    Status = 0x14000000
	StatusRangeRel   Status = 0x15000000
	StatusUndefLabel Status = 0x21000000
	StatusUndefPC    Status = 0x22000000
)

const statusKindMask = 0xFF000000
const statusPayloadMask = 0x00FFFFFF

// Kind returns the status with its payload masked off.
func (s Status) Kind() Status { return s & statusKindMask }

// Payload returns the offending action-list offset or label id.
func (s Status) Payload() uint32 { return uint32(s) & statusPayloadMask }

// withPayload latches a payload (action-list offset or label id) onto a kind.
func withPayload(kind Status, payload int) Status {
	return kind | Status(uint32(payload)&statusPayloadMask)
}

var (
	ErrNoMem         = errors.New("encoder: allocation failure growing a buffer or label array")
	ErrPhase         = errors.New("encoder: pass 2 and pass 3 disagree on code size")
	ErrMatchSection  = errors.New("encoder: active section does not match expected section")
	ErrRangeImm      = errors.New("encoder: immediate out of its declared bits/scale, or fails ThumbExpandImm")
	ErrRangeSection  = errors.New("encoder: section index out of range")
	ErrRangeLabel    = errors.New("encoder: local/global label id out of range")
	ErrRangePC       = errors.New("encoder: pc label id out of range")
	ErrRangeReloc    = errors.New("encoder: branch target out of reach, or unrecognized prior instruction")
	ErrUndefLabel    = errors.New("encoder: pass 3 reached a still-undefined local/global label")
	ErrUndefPC       = errors.New("encoder: pass 3 (or pass 2) reached a still-undefined pc label")
	ErrUnsupportedOp = errors.New("encoder: opcode has no Thumb-2 encoding (NODEF)")
)

func (s Status) sentinel() error {
	switch s.Kind() {
	case StatusOK:
		return nil
	case StatusNoMem:
		return ErrNoMem
	case StatusPhase:
		return ErrPhase
	case StatusMatchSec:
		return ErrMatchSection
	case StatusRangeImm:
		return ErrRangeImm
	case StatusRangeSec:
		return ErrRangeSection
	case StatusRangeLabel:
		return ErrRangeLabel
	case StatusRangePC:
		return ErrRangePC
	case StatusRangeRel:
		return ErrRangeReloc
	case StatusUndefLabel:
		return ErrUndefLabel
	case StatusUndefPC:
		return ErrUndefPC
	default:
		return fmt.Errorf("encoder: unknown status kind %#x", uint32(s.Kind()))
	}
}

// StatusError adapts a latched Status to the Go error interface, in the
// manner of the teacher's EncodingError: it carries enough context
// (offending offset/id) to point a caller back at the action list.
type StatusError struct {
	Status  Status
	Wrapped error
}

func newStatusError(s Status) error {
	if s == StatusOK {
		return nil
	}
	return &StatusError{Status: s, Wrapped: s.sentinel()}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (offset/id %d)", e.Wrapped, e.Status.Payload())
}

func (e *StatusError) Unwrap() error { return e.Wrapped }

// Err adapts s to the Go error interface (nil for StatusOK), for callers
// at the encoder/assembler API boundary (spec.md §7).
func (s Status) Err() error { return newStatusError(s) }
