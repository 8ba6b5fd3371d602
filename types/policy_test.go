package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleKindMatchUser(t *testing.T) {
	everyone := EveryoneRole()
	require.True(t, everyone.MatchUser(UserInfo{Address: "A"}))

	member := MemberRole(100)
	require.True(t, member.MatchUser(UserInfo{Address: "A", Balance: 100}))
	require.False(t, member.MatchUser(UserInfo{Address: "A", Balance: 99}))

	group := GroupRole("A", "B")
	require.True(t, group.MatchUser(UserInfo{Address: "B"}))
	require.False(t, group.MatchUser(UserInfo{Address: "C"}))
}

func TestRoleKindMembership(t *testing.T) {
	group := GroupRole("A", "B")

	require.NoError(t, group.AddMember("C"))
	require.Equal(t, []string{"A", "B", "C"}, group.Group)
	// adding twice is a no-op
	require.NoError(t, group.AddMember("C"))
	require.Equal(t, []string{"A", "B", "C"}, group.Group)

	require.NoError(t, group.RemoveMember("B"))
	require.Equal(t, []string{"A", "C"}, group.Group)
	// removing a stranger is a no-op
	require.NoError(t, group.RemoveMember("Z"))

	member := MemberRole(1)
	require.ErrorIs(t, member.AddMember("A"), ErrRoleWrongKind)
	require.ErrorIs(t, member.RemoveMember("A"), ErrRoleWrongKind)
}

func TestPermissionWildcards(t *testing.T) {
	r := RolePermission{Permissions: []string{"treasury:vote_approve", "config:*", "*:finalize"}}
	require.True(t, r.allows("treasury", ActionVoteApprove))
	require.False(t, r.allows("treasury", ActionVoteReject))
	require.True(t, r.allows("config", ActionExecute))
	require.True(t, r.allows("anything", ActionFinalize))
	require.False(t, r.allows("anything", ActionPropose))

	super := RolePermission{Permissions: []string{"*:*"}}
	require.True(t, super.allows("anything", ActionExecute))
}

func TestToWeight(t *testing.T) {
	// ratio rounds past the exact fraction
	require.Equal(t, uint64(2), Ratio(1, 2).ToWeight(3))
	require.Equal(t, uint64(51), Ratio(1, 2).ToWeight(100))
	// never exceeds the total
	require.Equal(t, uint64(3), Ratio(1, 1).ToWeight(3))
	require.Equal(t, uint64(1), Ratio(1, 2).ToWeight(1))

	require.Equal(t, uint64(5), FixedWeight(5).ToWeight(100))
	require.Equal(t, uint64(3), FixedWeight(5).ToWeight(3))
}

func TestMatchProposalKindOrder(t *testing.T) {
	p := Policy{ProposalKinds: []ProposalKind{
		{Name: "treasury", RequiredInstrs: []InstructionKind{InstrTransfer}},
		{Name: "anything"},
	}}

	transfer := []Instruction{{Kind: InstrTransfer, Payload: &TransferInstr{}}}
	text := []Instruction{{Kind: InstrText, Payload: &TextInstr{}}}

	// first matching kind in declaration order wins
	require.Equal(t, "treasury", p.MatchProposalKind(transfer))
	require.Equal(t, "anything", p.MatchProposalKind(text))

	// nothing declared matches, fall back to the default kind
	bare := Policy{}
	require.Equal(t, DefaultKindName, bare.MatchProposalKind(text))
}

func TestVotePolicyFor(t *testing.T) {
	strict := VotePolicy{WeightKind: RoleWeight, Quorum: 3, Threshold: Ratio(2, 3)}
	p := Policy{
		ProposalKinds:     []ProposalKind{{Name: "treasury", VotePolicy: strict}},
		DefaultVotePolicy: DefaultVotePolicy(),
	}
	require.Equal(t, strict, p.VotePolicyFor("treasury"))
	require.Equal(t, p.DefaultVotePolicy, p.VotePolicyFor("unknown"))
	require.Equal(t, p.DefaultVotePolicy, p.VotePolicyFor(DefaultKindName))
}

func TestThresholdRoleWeight(t *testing.T) {
	p := DefaultPolicy([]string{"A", "B", "C"})
	vp := p.DefaultVotePolicy

	// council of three, majority of two
	require.Equal(t, uint64(2), p.Threshold(vp, vp.Threshold, 0, DefaultKindName))

	// only group roles allowed to vote count toward the total
	p.Roles = append(p.Roles, RolePermission{
		Name:        "observers",
		Kind:        GroupRole("X", "Y"),
		Permissions: []string{"*:" + string(ActionPropose)},
	})
	require.Equal(t, uint64(2), p.Threshold(vp, vp.Threshold, 0, DefaultKindName))

	// quorum floors the result
	vp.Quorum = 3
	require.Equal(t, uint64(3), p.Threshold(vp, vp.Threshold, 0, DefaultKindName))
}

func TestThresholdTokenWeight(t *testing.T) {
	p := DefaultPolicy([]string{"A", "B", "C"})
	vp := VotePolicy{WeightKind: TokenWeight, Threshold: Ratio(1, 2)}
	require.Equal(t, uint64(501), p.Threshold(vp, vp.Threshold, 1000, DefaultKindName))
}

func TestPolicyRoleMutation(t *testing.T) {
	p := DefaultPolicy([]string{"A", "B"})

	require.NoError(t, p.AddMemberToRole("council", "C"))
	require.Contains(t, p.Roles[1].Kind.Group, "C")
	require.NoError(t, p.RemoveMemberFromRole("council", "A"))
	require.NotContains(t, p.Roles[1].Kind.Group, "A")

	require.Error(t, p.AddMemberToRole("nosuch", "C"))
	require.Error(t, p.AddMemberToRole("all", "C"))
}

func TestUserRoleNames(t *testing.T) {
	p := DefaultPolicy([]string{"A"})
	require.Equal(t, []string{"all", "council"}, p.UserRoleNames(UserInfo{Address: "A"}))
	require.Equal(t, []string{"all"}, p.UserRoleNames(UserInfo{Address: "B"}))
}
