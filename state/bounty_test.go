package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

const testBountyBond = types.DefaultBountyBond

// addBounty runs the full governance path for an AddBounty instruction and
// returns the new bounty's index.
func (e *testEnv) addBounty(amount, times, maxDeadlineSecs uint64) uint64 {
	e.t.Helper()
	instrs := []types.Instruction{{
		Kind: types.InstrAddBounty,
		Payload: &types.AddBountyInstr{Bounty: types.Bounty{
			Description:     "write docs",
			Amount:          amount,
			Times:           times,
			MaxDeadlineSecs: maxDeadlineSecs,
		}},
	}}
	idx := e.propose(0, instrs)
	e.approve(idx, 1, 2)
	_, err := e.st.ExecuteProposal(&tx.ExecuteTx{Proposal: idx}, e.addrs[0], false)
	require.NoError(e.t, err)
	return e.st.GetBountyMax()
}

func TestAddBountyViaProposal(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)

	id := e.addBounty(500, 2, 3600)
	require.Equal(t, uint64(1), id)

	b, err := e.st.GetBounty(id)
	require.NoError(t, err)
	require.Equal(t, id, b.ID)
	require.Equal(t, uint64(500), b.Amount)
	require.Equal(t, uint64(2), b.Times)
	require.Equal(t, "write docs", b.Description)
}

func TestClaimBounty(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	id := e.addBounty(500, 2, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.NoError(t, err)

	claim, err := e.st.GetBountyClaim(id, e.addrs[1])
	require.NoError(t, err)
	require.Equal(t, int64(1000), claim.StartTime)
	require.Equal(t, uint64(600), claim.DeadlineSecs)
	require.Equal(t, testBountyBond, claim.Bond)
	require.False(t, claim.Completed)
	require.Equal(t, 10*testBond-testBountyBond, e.account(1).Balance)
	require.Equal(t, testBountyBond, e.account(1).Bonded)

	// one claim per account
	_, err = e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrClaimAlreadyExists)

	// a second account may claim concurrently
	_, err = e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[2], false)
	require.NoError(t, err)
}

func TestClaimBountyGuards(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	id := e.addBounty(500, 1, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: 77, DeadlineSecs: 600}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrBountyNoexists)

	_, err = e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 7200}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrDeadlineTooLong)
}

func TestClaimExhaustedBounty(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	id := e.addBounty(500, 0, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrBountyExhausted)
}

func TestDoneBountyOpensPayoutProposal(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	id := e.addBounty(500, 1, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.NoError(t, err)

	_, err = e.st.DoneBounty(&tx.BountyDoneTx{Bounty: id, Description: "done"}, e.addrs[1], false)
	require.NoError(t, err)

	claim, err := e.st.GetBountyClaim(id, e.addrs[1])
	require.NoError(t, err)
	require.True(t, claim.Completed)

	p := e.proposal(e.st.GetProposalMax())
	require.Equal(t, e.addrs[1], p.Versions[0].Proposer)
	require.Equal(t, uint64(0), p.Versions[0].Bond)
	require.Equal(t, types.InstrBountyDone, p.Versions[0].Instructions[0].Kind)

	// the pending payout blocks both a second submission and giving up
	_, err = e.st.DoneBounty(&tx.BountyDoneTx{Bounty: id, Description: "again"}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrClaimCompleted)
	_, err = e.st.GiveupBounty(&tx.BountyGiveupTx{Bounty: id}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrClaimCompleted)
}

func TestDoneBountyAfterDeadline(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	id := e.addBounty(500, 1, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 60}, e.addrs[1], false)
	require.NoError(t, err)

	e.st.SetBlockTime(1061)
	_, err = e.st.DoneBounty(&tx.BountyDoneTx{Bounty: id, Description: "late"}, e.addrs[1], false)
	require.ErrorIs(t, err, ErrClaimExpired)
}

func TestBountyPayout(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	id := e.addBounty(500, 1, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.NoError(t, err)
	_, err = e.st.DoneBounty(&tx.BountyDoneTx{Bounty: id, Description: "done"}, e.addrs[1], false)
	require.NoError(t, err)

	payout := e.st.GetProposalMax()
	e.approve(payout, 0, 2)
	require.Equal(t, types.ProposalStatusApproved, e.proposal(payout).Status)

	_, err = e.st.ExecuteProposal(&tx.ExecuteTx{Proposal: payout}, e.addrs[0], false)
	require.NoError(t, err)
	require.Equal(t, types.ProposalStatusExecuted, e.proposal(payout).Status)

	// amount paid, bond released, payout slot consumed, claim retired
	require.Equal(t, uint64(500), e.st.Treasury())
	require.Equal(t, 10*testBond+500, e.account(1).Balance)
	require.Equal(t, uint64(0), e.account(1).Bonded)
	b, err := e.st.GetBounty(id)
	require.NoError(t, err)
	require.Equal(t, uint64(0), b.Times)
	_, err = e.st.GetBountyClaim(id, e.addrs[1])
	require.ErrorIs(t, err, ErrClaimNoexists)
}

func TestRejectedPayoutReleasesClaim(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	id := e.addBounty(500, 1, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.NoError(t, err)
	_, err = e.st.DoneBounty(&tx.BountyDoneTx{Bounty: id, Description: "half done"}, e.addrs[1], false)
	require.NoError(t, err)

	payout := e.st.GetProposalMax()
	e.vote(0, payout, types.VoteReject, 0)
	e.vote(2, payout, types.VoteReject, 0)
	require.Equal(t, types.ProposalStatusRejected, e.proposal(payout).Status)

	// the claim is released, not stuck pending a payout that will never run
	_, err = e.st.GetBountyClaim(id, e.addrs[1])
	require.ErrorIs(t, err, ErrClaimNoexists)
	require.Equal(t, 10*testBond, e.account(1).Balance)
	require.Equal(t, uint64(0), e.account(1).Bonded)

	// bounty slot untouched, the claimer may try again
	b, err := e.st.GetBounty(id)
	require.NoError(t, err)
	require.Equal(t, uint64(1), b.Times)
	_, err = e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.NoError(t, err)
}

func TestExpiredPayoutReleasesClaim(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	e.setPolicy(func(p *types.Policy) { p.ProposalPeriodSecs = 60 })
	id := e.addBounty(500, 1, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.NoError(t, err)
	_, err = e.st.DoneBounty(&tx.BountyDoneTx{Bounty: id, Description: "done"}, e.addrs[1], false)
	require.NoError(t, err)

	payout := e.st.GetProposalMax()
	e.st.SetBlockTime(e.proposal(payout).SubmissionTime + 61)
	_, err = e.st.Finalize(&tx.FinalizeTx{Proposal: payout}, e.addrs[0], false)
	require.NoError(t, err)
	require.Equal(t, types.ProposalStatusExpired, e.proposal(payout).Status)

	_, err = e.st.GetBountyClaim(id, e.addrs[1])
	require.ErrorIs(t, err, ErrClaimNoexists)
	require.Equal(t, 10*testBond, e.account(1).Balance)
	require.Equal(t, uint64(0), e.account(1).Bonded)
}

func TestGiveupBountyWithinForgiveness(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	id := e.addBounty(500, 1, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.NoError(t, err)

	_, err = e.st.GiveupBounty(&tx.BountyGiveupTx{Bounty: id}, e.addrs[1], false)
	require.NoError(t, err)
	require.Equal(t, 10*testBond, e.account(1).Balance)
	require.Equal(t, uint64(0), e.account(1).Bonded)
	_, err = e.st.GetBountyClaim(id, e.addrs[1])
	require.ErrorIs(t, err, ErrClaimNoexists)
}

func TestGiveupBountyAfterForgiveness(t *testing.T) {
	e := newTestEnv(t, 1000, 10*testBond, 10*testBond, 10*testBond)
	e.setPolicy(func(p *types.Policy) { p.BountyForgiveSecs = 100 })
	id := e.addBounty(500, 1, 3600)

	_, err := e.st.ClaimBounty(&tx.BountyClaimTx{Bounty: id, DeadlineSecs: 600}, e.addrs[1], false)
	require.NoError(t, err)

	e.st.SetBlockTime(1200)
	_, err = e.st.GiveupBounty(&tx.BountyGiveupTx{Bounty: id}, e.addrs[1], false)
	require.NoError(t, err)

	// bond forfeited to the treasury
	require.Equal(t, 10*testBond-testBountyBond, e.account(1).Balance)
	require.Equal(t, uint64(0), e.account(1).Bonded)
	require.Equal(t, uint64(1000+testBountyBond), e.st.Treasury())
}
