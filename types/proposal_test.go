package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func councilProposal() (*Proposal, Policy) {
	policy := DefaultPolicy([]string{"A", "B", "C"})
	p := NewProposal(1, DefaultKindName, policy.DefaultVotePolicy,
		ProposalVersion{Proposer: "A", Description: "v0"}, 1, 1000)
	return p, policy
}

func TestUpdateVoteRetractsPrevious(t *testing.T) {
	p, _ := councilProposal()

	p.UpdateVote("B", ApproveTarget(0), 1)
	require.Equal(t, uint64(1), p.ApproveWeight[0])
	require.True(t, p.Voted[0])

	p.UpdateVote("B", RejectTarget(), 1)
	require.Equal(t, uint64(0), p.ApproveWeight[0])
	require.Equal(t, uint64(1), p.RejectWeight)
	require.Equal(t, Ballot{VoteTarget: RejectTarget(), Weight: 1}, p.Votes["B"])
	// a retracted approval still pins the version
	require.True(t, p.Voted[0])

	// re-casting the active target changes nothing
	p.UpdateVote("B", RejectTarget(), 1)
	require.Equal(t, uint64(1), p.RejectWeight)
}

func TestUpdateVoteRetractsAppliedWeight(t *testing.T) {
	p, _ := councilProposal()

	// the voter's weight shrinks between the two casts; retraction must use
	// the weight recorded in the ballot, not the current one
	p.UpdateVote("B", ApproveTarget(0), 10)
	require.Equal(t, uint64(10), p.ApproveWeight[0])

	p.UpdateVote("B", RejectTarget(), 9)
	require.Equal(t, uint64(0), p.ApproveWeight[0])
	require.Equal(t, uint64(9), p.RejectWeight)
	require.Equal(t, Ballot{VoteTarget: RejectTarget(), Weight: 9}, p.Votes["B"])
}

func TestAddVersionGrowsTallies(t *testing.T) {
	p, _ := councilProposal()

	v := p.AddVersion(ProposalVersion{Proposer: "B", Description: "v1"})
	require.Equal(t, uint8(1), v)
	require.Len(t, p.ApproveWeight, 2)
	require.Len(t, p.RemoveWeight, 2)
	require.True(t, p.VersionLive(1))
	require.False(t, p.HasVersion(2))
	require.Equal(t, 2, p.LiveVersionCount())
}

func TestRemoveVersionDropsItsVotes(t *testing.T) {
	p, _ := councilProposal()
	p.AddVersion(ProposalVersion{Proposer: "B", Description: "v1"})

	p.UpdateVote("A", ApproveTarget(1), 1)
	p.UpdateVote("B", RemoveTarget(1), 1)
	p.UpdateVote("C", RejectTarget(), 1)

	p.RemoveVersion(1)
	require.False(t, p.VersionLive(1))
	require.Equal(t, uint64(0), p.ApproveWeight[1])
	require.Equal(t, uint64(0), p.RemoveWeight[1])
	// voters on the removed version get their ballot back
	require.NotContains(t, p.Votes, "A")
	require.NotContains(t, p.Votes, "B")
	// reject ballots are proposal-wide and survive
	require.Contains(t, p.Votes, "C")
	require.Equal(t, uint64(1), p.RejectWeight)
}

func TestEvaluateApprovesLowestQualifyingVersion(t *testing.T) {
	p, policy := councilProposal()
	p.AddVersion(ProposalVersion{Proposer: "B", Description: "v1"})

	// both versions carry threshold weight in the same pass
	p.ApproveWeight[0] = 2
	p.ApproveWeight[1] = 2
	p.Evaluate(&policy, 0)
	require.Equal(t, ProposalStatusApproved, p.Status)
	require.Equal(t, uint8(0), p.ApprovedVersion)
}

func TestEvaluateApprovalBeatsRejection(t *testing.T) {
	p, policy := councilProposal()
	p.ApproveWeight[0] = 2
	p.RejectWeight = 2
	p.Evaluate(&policy, 0)
	require.Equal(t, ProposalStatusApproved, p.Status)
}

func TestEvaluateSkipsRemovedVersions(t *testing.T) {
	p, policy := councilProposal()
	p.AddVersion(ProposalVersion{Proposer: "B", Description: "v1"})

	p.RemoveWeight[0] = 2
	p.ApproveWeight[1] = 2
	p.Evaluate(&policy, 0)
	require.False(t, p.VersionLive(0))
	require.Equal(t, ProposalStatusApproved, p.Status)
	require.Equal(t, uint8(1), p.ApprovedVersion)
}

func TestEvaluateRejectsWhenNoVersionSurvives(t *testing.T) {
	p, policy := councilProposal()
	p.RemoveWeight[0] = 2
	p.Evaluate(&policy, 0)
	require.Equal(t, ProposalStatusRejected, p.Status)
}

func TestEvaluateRejectThreshold(t *testing.T) {
	p, policy := councilProposal()
	p.RejectWeight = 2
	p.Evaluate(&policy, 0)
	require.Equal(t, ProposalStatusRejected, p.Status)
}

func TestEvaluateBelowThresholdStaysOpen(t *testing.T) {
	p, policy := councilProposal()
	p.ApproveWeight[0] = 1
	p.RejectWeight = 1
	p.Evaluate(&policy, 0)
	require.Equal(t, ProposalStatusOpen, p.Status)
}

func TestEvaluateClosedProposalUnchanged(t *testing.T) {
	p, policy := councilProposal()
	p.Status = ProposalStatusWithdrawn
	p.ApproveWeight[0] = 3
	p.Evaluate(&policy, 0)
	require.Equal(t, ProposalStatusWithdrawn, p.Status)
}

func TestExpiredAt(t *testing.T) {
	p, policy := councilProposal()
	period := int64(policy.ProposalPeriodSecs)
	require.False(t, p.ExpiredAt(&policy, 1000+period))
	require.True(t, p.ExpiredAt(&policy, 1000+period+1))
}
