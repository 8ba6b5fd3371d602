package types

import (
	"encoding/json"
	"errors"
)

type InstructionKind uint8

const (
	InstrUnknown         InstructionKind = 0
	InstrChangeConfig    InstructionKind = 1
	InstrChangePolicy    InstructionKind = 2
	InstrAddMember       InstructionKind = 3
	InstrRemoveMember    InstructionKind = 4
	InstrFunctionCall    InstructionKind = 5
	InstrTransfer        InstructionKind = 6
	InstrAddBounty       InstructionKind = 7
	InstrBountyDone      InstructionKind = 8
	InstrChangeKindRules InstructionKind = 9
	InstrText            InstructionKind = 10
)

var (
	ErrUnsupportedInstr = errors.New("unsupported instruction kind")
	ErrInstrPayload     = errors.New("instruction payload mismatch")
)

// Config is the display configuration of the organization, mutable only via
// an approved ChangeConfig instruction.
type Config struct {
	Name     string `json:"name"`
	Purpose  string `json:"purpose"`
	Metadata string `json:"metadata,omitempty"`
}

type ChangeConfigInstr struct {
	Config Config `json:"config"`
}

type ChangePolicyInstr struct {
	Policy Policy `json:"policy"`
}

type AddMemberInstr struct {
	Member string `json:"member"`
	Role   string `json:"role"`
}

type RemoveMemberInstr struct {
	Member string `json:"member"`
	Role   string `json:"role"`
}

// CallAction is one method invocation inside a FunctionCall instruction.
type CallAction struct {
	Method  string `json:"method"`
	Args    []byte `json:"args"`
	Deposit uint64 `json:"deposit"`
}

// FunctionCallInstr invokes methods on an external receiver. It is the only
// instruction that completes asynchronously: execution suspends until the
// relay delivers a completion callback.
type FunctionCallInstr struct {
	Receiver string       `json:"receiver"`
	Calls    []CallAction `json:"calls"`
}

type TransferInstr struct {
	Receiver string `json:"receiver"`
	Amount   uint64 `json:"amount"`
}

type AddBountyInstr struct {
	Bounty Bounty `json:"bounty"`
}

type BountyDoneInstr struct {
	BountyID uint64 `json:"bountyId"`
	Receiver string `json:"receiver"`
}

type ChangeKindRulesInstr struct {
	Kinds []ProposalKind `json:"kinds"`
}

// TextInstr is a signaling instruction with no execution effect.
type TextInstr struct {
	Memo string `json:"memo,omitempty"`
}

// Instruction is one atomic executable action of a proposal: a kind
// discriminator plus the kind-specific payload.
type Instruction struct {
	Kind    InstructionKind `json:"kind"`
	Payload any             `json:"payload,omitempty"`
}

type instrTmpl[P any] struct {
	Kind    InstructionKind `json:"kind"`
	Payload P               `json:"payload,omitempty"`
}

func decodeInstr[P any](dat []byte, in *Instruction) error {
	var t instrTmpl[P]
	if err := json.Unmarshal(dat, &t); err != nil {
		return err
	}
	in.Kind = t.Kind
	in.Payload = &t.Payload
	return nil
}

func (in *Instruction) UnmarshalJSON(dat []byte) error {
	var probe struct {
		Kind InstructionKind `json:"kind"`
	}
	if err := json.Unmarshal(dat, &probe); err != nil {
		return err
	}
	switch probe.Kind {
	case InstrChangeConfig:
		return decodeInstr[ChangeConfigInstr](dat, in)
	case InstrChangePolicy:
		return decodeInstr[ChangePolicyInstr](dat, in)
	case InstrAddMember:
		return decodeInstr[AddMemberInstr](dat, in)
	case InstrRemoveMember:
		return decodeInstr[RemoveMemberInstr](dat, in)
	case InstrFunctionCall:
		return decodeInstr[FunctionCallInstr](dat, in)
	case InstrTransfer:
		return decodeInstr[TransferInstr](dat, in)
	case InstrAddBounty:
		return decodeInstr[AddBountyInstr](dat, in)
	case InstrBountyDone:
		return decodeInstr[BountyDoneInstr](dat, in)
	case InstrChangeKindRules:
		return decodeInstr[ChangeKindRulesInstr](dat, in)
	case InstrText:
		return decodeInstr[TextInstr](dat, in)
	default:
		return ErrUnsupportedInstr
	}
}

// InstructionKinds collects the kind set of an instruction list.
func InstructionKinds(instructions []Instruction) map[InstructionKind]struct{} {
	kinds := make(map[InstructionKind]struct{}, len(instructions))
	for i := range instructions {
		kinds[instructions[i].Kind] = struct{}{}
	}
	return kinds
}

// Standalone instruction kinds must be the sole instruction of a proposal.
func (k InstructionKind) Standalone() bool {
	switch k {
	case InstrChangePolicy, InstrChangeKindRules, InstrBountyDone, InstrText:
		return true
	}
	return false
}

// ValidInstructionSet enforces the standalone rule over a candidate set.
func ValidInstructionSet(instructions []Instruction) bool {
	if len(instructions) <= 1 {
		return true
	}
	for i := range instructions {
		if instructions[i].Kind.Standalone() {
			return false
		}
	}
	return true
}
