package tx

import (
	"encoding/json"

	"github.com/opencordis/cordis/types"
)

// GovTx is the signed envelope every governance transaction travels in.
// Sender is the account address whose key produced Sig; the signed payload
// is the JSON encoding of the envelope with Sig replaced by the chain id.
type GovTx struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Sender  string    `json:"sender"`
	Tx      any       `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

type ProposeTx struct {
	Description  string              `json:"description"`
	Instructions []types.Instruction `json:"instructions"`
	Bond         uint64              `json:"bond"`
}

type CounterProposeTx struct {
	Proposal     uint64              `json:"proposal"`
	Description  string              `json:"description"`
	Instructions []types.Instruction `json:"instructions"`
	Bond         uint64              `json:"bond"`
}

type VoteTx struct {
	Proposal uint64         `json:"proposal"`
	Kind     types.VoteKind `json:"kind"`
	Version  uint8          `json:"version,omitempty"`
}

type WithdrawTx struct {
	Proposal uint64 `json:"proposal"`
	Version  uint8  `json:"version"`
}

type AmendTx struct {
	Proposal     uint64              `json:"proposal"`
	Version      uint8               `json:"version"`
	Description  string              `json:"description"`
	Instructions []types.Instruction `json:"instructions"`
}

type FinalizeTx struct {
	Proposal uint64 `json:"proposal"`
}

type ExecuteTx struct {
	Proposal uint64 `json:"proposal"`
}

// CallbackTx is submitted by the relay to resume a proposal suspended on an
// external function call.
type CallbackTx struct {
	Proposal uint64 `json:"proposal"`
	Seq      uint64 `json:"seq"`
	Success  bool   `json:"success"`
	Result   []byte `json:"result,omitempty"`
}

type BountyClaimTx struct {
	Bounty       uint64 `json:"bounty"`
	DeadlineSecs uint64 `json:"deadlineSecs"`
}

type BountyDoneTx struct {
	Bounty      uint64 `json:"bounty"`
	Description string `json:"description"`
}

type BountyGiveupTx struct {
	Bounty uint64 `json:"bounty"`
}

type govTxTmpl[Tx any] struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Sender  string    `json:"sender"`
	Tx      Tx        `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

func (tx *GovTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseGovTxType(dat []byte) GovTxType {
	var tx struct {
		Type GovTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return GovTxTypeUnknown
	}
	return tx.Type
}

func unmarshalGovTx[Tx any](dat []byte) (btx *GovTx, err error) {
	var txt govTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	btx = new(GovTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalGovTx(dat []byte) (btx *GovTx, err error) {
	tp := parseGovTxType(dat)
	switch tp {
	case GovTxTypePropose:
		return unmarshalGovTx[ProposeTx](dat)
	case GovTxTypeCounter:
		return unmarshalGovTx[CounterProposeTx](dat)
	case GovTxTypeVote:
		return unmarshalGovTx[VoteTx](dat)
	case GovTxTypeWithdraw:
		return unmarshalGovTx[WithdrawTx](dat)
	case GovTxTypeAmend:
		return unmarshalGovTx[AmendTx](dat)
	case GovTxTypeFinalize:
		return unmarshalGovTx[FinalizeTx](dat)
	case GovTxTypeExecute:
		return unmarshalGovTx[ExecuteTx](dat)
	case GovTxTypeCallback:
		return unmarshalGovTx[CallbackTx](dat)
	case GovTxTypeBountyClaim:
		return unmarshalGovTx[BountyClaimTx](dat)
	case GovTxTypeBountyDone:
		return unmarshalGovTx[BountyDoneTx](dat)
	case GovTxTypeBountyGiveup:
		return unmarshalGovTx[BountyGiveupTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalGovTx(btx *GovTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
