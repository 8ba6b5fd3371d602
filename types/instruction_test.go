package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstructionUnmarshalTypedPayload(t *testing.T) {
	var in Instruction
	err := json.Unmarshal([]byte(`{"kind":6,"payload":{"receiver":"AA","amount":42}}`), &in)
	require.NoError(t, err)
	require.Equal(t, InstrTransfer, in.Kind)
	payload, ok := in.Payload.(*TransferInstr)
	require.True(t, ok)
	require.Equal(t, "AA", payload.Receiver)
	require.Equal(t, uint64(42), payload.Amount)
}

func TestInstructionUnmarshalRoundTrip(t *testing.T) {
	in := Instruction{Kind: InstrAddMember, Payload: &AddMemberInstr{Member: "AA", Role: "council"}}
	dat, err := json.Marshal(in)
	require.NoError(t, err)

	var out Instruction
	require.NoError(t, json.Unmarshal(dat, &out))
	require.Equal(t, in.Kind, out.Kind)
	require.Equal(t, in.Payload, out.Payload)
}

func TestInstructionUnmarshalUnknownKind(t *testing.T) {
	var in Instruction
	err := json.Unmarshal([]byte(`{"kind":99,"payload":{}}`), &in)
	require.ErrorIs(t, err, ErrUnsupportedInstr)
}

func TestStandaloneKinds(t *testing.T) {
	require.True(t, InstrChangePolicy.Standalone())
	require.True(t, InstrChangeKindRules.Standalone())
	require.True(t, InstrBountyDone.Standalone())
	require.True(t, InstrText.Standalone())
	require.False(t, InstrTransfer.Standalone())
	require.False(t, InstrFunctionCall.Standalone())
}

func TestValidInstructionSet(t *testing.T) {
	transfer := Instruction{Kind: InstrTransfer, Payload: &TransferInstr{}}
	text := Instruction{Kind: InstrText, Payload: &TextInstr{}}

	require.True(t, ValidInstructionSet(nil))
	require.True(t, ValidInstructionSet([]Instruction{text}))
	require.True(t, ValidInstructionSet([]Instruction{transfer, transfer}))
	// standalone kinds refuse company
	require.False(t, ValidInstructionSet([]Instruction{text, transfer}))
}

func TestInstructionKinds(t *testing.T) {
	kinds := InstructionKinds([]Instruction{
		{Kind: InstrTransfer}, {Kind: InstrTransfer}, {Kind: InstrAddMember},
	})
	require.Len(t, kinds, 2)
	require.Contains(t, kinds, InstrTransfer)
	require.Contains(t, kinds, InstrAddMember)
}
