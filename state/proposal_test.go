package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

func TestWithdrawRefundsBond(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)

	idx := e.propose(0, textInstrs("changed my mind"))
	_, err := e.st.Withdraw(&tx.WithdrawTx{Proposal: idx, Version: 0}, e.addrs[0], false)
	require.NoError(t, err)

	p := e.proposal(idx)
	require.Equal(t, types.ProposalStatusWithdrawn, p.Status)
	require.True(t, p.Removed[0])

	a := e.account(0)
	require.Equal(t, uint64(10*testBond), a.Balance)
	require.Zero(t, a.Bonded)
}

func TestWithdrawKeepsProposalOpenWithLiveVersions(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)

	idx := e.propose(0, textInstrs("v0"))
	_, err := e.st.CounterPropose(&tx.CounterProposeTx{
		Proposal:     idx,
		Description:  "v1",
		Instructions: textInstrs("v1"),
		Bond:         testBond,
	}, e.addrs[1], false)
	require.NoError(t, err)

	_, err = e.st.Withdraw(&tx.WithdrawTx{Proposal: idx, Version: 1}, e.addrs[1], false)
	require.NoError(t, err)

	p := e.proposal(idx)
	require.Equal(t, types.ProposalStatusOpen, p.Status)
	require.True(t, p.Removed[1])
	require.Equal(t, 1, p.LiveVersionCount())
}

func TestWithdrawGuards(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)

	idx := e.propose(0, textInstrs("guarded"))

	// not the proposer
	_, err := e.st.Withdraw(&tx.WithdrawTx{Proposal: idx, Version: 0}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrNotProposer)

	// unknown version
	_, err = e.st.Withdraw(&tx.WithdrawTx{Proposal: idx, Version: 5}, e.addrs[0], false)
	require.ErrorIs(t, err, ErrVersionNoexists)

	// once any vote landed on the version it is locked in
	e.vote(1, idx, types.VoteApprove, 0)
	_, err = e.st.Withdraw(&tx.WithdrawTx{Proposal: idx, Version: 0}, e.addrs[0], false)
	require.ErrorIs(t, err, ErrVotesAlreadyCast)
}

func TestWithdrawLockedEvenAfterRetraction(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)

	idx := e.propose(0, textInstrs("locked"))
	e.vote(1, idx, types.VoteApprove, 0)
	e.vote(1, idx, types.VoteReject, 0)

	require.Zero(t, e.proposal(idx).ApproveWeight[0])
	_, err := e.st.Withdraw(&tx.WithdrawTx{Proposal: idx, Version: 0}, e.addrs[0], false)
	require.ErrorIs(t, err, ErrVotesAlreadyCast)
}

func TestAmendReplacesVersionInPlace(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)

	idx := e.propose(0, textInstrs("draft"))
	_, err := e.st.Amend(&tx.AmendTx{
		Proposal:     idx,
		Version:      0,
		Description:  "final",
		Instructions: textInstrs("polished"),
	}, e.addrs[0], false)
	require.NoError(t, err)

	p := e.proposal(idx)
	require.Equal(t, "final", p.Versions[0].Description)
	payload, ok := p.Versions[0].Instructions[0].Payload.(*types.TextInstr)
	require.True(t, ok)
	require.Equal(t, "polished", payload.Memo)
	require.Len(t, p.Versions, 1)
}

func TestAmendGuards(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)

	e.setPolicy(func(p *types.Policy) {
		p.ProposalKinds = []types.ProposalKind{{
			Name:           "treasury",
			RequiredInstrs: []types.InstructionKind{types.InstrTransfer},
			VotePolicy:     types.DefaultVotePolicy(),
		}}
	})

	transfer := []types.Instruction{{
		Kind:    types.InstrTransfer,
		Payload: &types.TransferInstr{Receiver: e.addrs[1], Amount: 5},
	}}
	idx := e.propose(0, transfer)

	// amending must not change the proposal kind
	_, err := e.st.Amend(&tx.AmendTx{
		Proposal:     idx,
		Version:      0,
		Description:  "off kind",
		Instructions: textInstrs("text"),
	}, e.addrs[0], false)
	require.ErrorIs(t, err, ErrKindMismatch)

	_, err = e.st.Amend(&tx.AmendTx{
		Proposal:     idx,
		Version:      0,
		Description:  "not mine",
		Instructions: transfer,
	}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrNotProposer)

	e.vote(1, idx, types.VoteApprove, 0)
	_, err = e.st.Amend(&tx.AmendTx{
		Proposal:     idx,
		Version:      0,
		Description:  "too late",
		Instructions: transfer,
	}, e.addrs[0], false)
	require.ErrorIs(t, err, ErrVotesAlreadyCast)
}

func TestFinalizeExpiredProposal(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)
	e.setPolicy(func(p *types.Policy) { p.ProposalPeriodSecs = 60 })

	idx := e.propose(0, textInstrs("stale"))

	_, err := e.st.Finalize(&tx.FinalizeTx{Proposal: idx}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrProposalNotExpired)

	e.st.SetBlockTime(1000 + 61)
	_, err = e.st.Finalize(&tx.FinalizeTx{Proposal: idx}, e.addrs[1], false)
	require.NoError(t, err)

	p := e.proposal(idx)
	require.Equal(t, types.ProposalStatusExpired, p.Status)
	require.Equal(t, uint64(10*testBond), e.account(0).Balance)

	// terminal, nothing further applies
	_, err = e.st.Finalize(&tx.FinalizeTx{Proposal: idx}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrProposalNotOpen)
	_, err = e.st.CastVote(&tx.VoteTx{Proposal: idx, Kind: types.VoteApprove}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrProposalNotOpen)
}

func TestCounterProposalOnClosedProposal(t *testing.T) {
	e := newTestEnv(t, 0, 10*testBond, 10*testBond, 10*testBond)

	idx := e.propose(0, textInstrs("short lived"))
	_, err := e.st.Withdraw(&tx.WithdrawTx{Proposal: idx, Version: 0}, e.addrs[0], false)
	require.NoError(t, err)

	_, err = e.st.CounterPropose(&tx.CounterProposeTx{
		Proposal:     idx,
		Description:  "too late",
		Instructions: textInstrs("late"),
		Bond:         testBond,
	}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrProposalNotOpen)
}
