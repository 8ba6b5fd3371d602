package tx

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencordis/cordis/types"
)

func TestUnmarshalGovTxTypedPayload(t *testing.T) {
	in := &GovTx{
		Version: GovTxVersion1,
		Type:    GovTxTypeVote,
		Nonce:   3,
		Sender:  "AA",
		Tx:      &VoteTx{Proposal: 7, Kind: types.VoteApprove, Version: 1},
	}
	dat, err := MarshalGovTx(in)
	require.NoError(t, err)

	out, err := UnmarshalGovTx(dat)
	require.NoError(t, err)
	require.Equal(t, GovTxTypeVote, out.Type)
	require.Equal(t, uint64(3), out.Nonce)
	require.Equal(t, "AA", out.Sender)
	vtx, ok := out.Tx.(*VoteTx)
	require.True(t, ok)
	require.Equal(t, uint64(7), vtx.Proposal)
	require.Equal(t, types.VoteApprove, vtx.Kind)
	require.Equal(t, uint8(1), vtx.Version)
}

func TestUnmarshalGovTxProposeInstructions(t *testing.T) {
	in := &GovTx{
		Version: GovTxVersion1,
		Type:    GovTxTypePropose,
		Sender:  "AA",
		Tx: &ProposeTx{
			Description: "fund the relay",
			Instructions: []types.Instruction{{
				Kind:    types.InstrTransfer,
				Payload: &types.TransferInstr{Receiver: "BB", Amount: 42},
			}},
			Bond: 1000,
		},
	}
	dat, err := MarshalGovTx(in)
	require.NoError(t, err)

	out, err := UnmarshalGovTx(dat)
	require.NoError(t, err)
	ptx, ok := out.Tx.(*ProposeTx)
	require.True(t, ok)
	require.Equal(t, "fund the relay", ptx.Description)
	require.Len(t, ptx.Instructions, 1)
	payload, ok := ptx.Instructions[0].Payload.(*types.TransferInstr)
	require.True(t, ok)
	require.Equal(t, uint64(42), payload.Amount)
}

func TestUnmarshalGovTxUnknownType(t *testing.T) {
	_, err := UnmarshalGovTx([]byte(`{"version":1,"type":99,"sender":"AA"}`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalGovTx([]byte(`not json`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)
}

func TestSigDataReplacesSignature(t *testing.T) {
	in := &GovTx{
		Version: GovTxVersion1,
		Type:    GovTxTypeFinalize,
		Sender:  "AA",
		Tx:      &FinalizeTx{Proposal: 1},
		Sig:     [][]byte{[]byte("existing signature")},
	}
	dat, err := in.SigData([]byte("test-chain"))
	require.NoError(t, err)

	var probe struct {
		Sig [][]byte `json:"sig"`
	}
	require.NoError(t, json.Unmarshal(dat, &probe))
	require.Equal(t, [][]byte{[]byte("test-chain")}, probe.Sig)
	// the envelope itself keeps its signature
	require.Equal(t, [][]byte{[]byte("existing signature")}, in.Sig)

	// sign bytes are deterministic for a fixed envelope and chain id
	dat2, err := in.SigData([]byte("test-chain"))
	require.NoError(t, err)
	require.Equal(t, dat, dat2)

	other, err := in.SigData([]byte("other-chain"))
	require.NoError(t, err)
	require.NotEqual(t, dat, other)
}
