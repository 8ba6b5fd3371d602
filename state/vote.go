package state

import (
	abci_types "github.com/cometbft/cometbft/abci/types"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

// CastVote replaces the sender's active vote on the proposal and runs one
// resolution pass over the updated tallies. Removal outcomes forfeit the
// removed version's bond; approval and rejection settle bonds per policy.
func (s *State) CastVote(vtx *tx.VoteTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply vote", "sender", sender, "proposal", vtx.Proposal, "kind", vtx.Kind, "version", vtx.Version)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	p, err := s.GetProposal(vtx.Proposal)
	if err != nil {
		return
	}
	if p.Status != types.ProposalStatusOpen {
		return nil, ErrProposalNotOpen
	}
	policy, err := s.Policy()
	if err != nil {
		return
	}
	if p.ExpiredAt(policy, s.header.Time) {
		return nil, ErrProposalExpired
	}
	target := types.VoteTarget{Kind: vtx.Kind, Version: vtx.Version}
	switch target.Kind {
	case types.VoteApprove, types.VoteRemove:
		if !p.HasVersion(target.Version) {
			return nil, ErrVersionNoexists
		}
		if p.Removed[target.Version] {
			return nil, ErrVersionRemoved
		}
	case types.VoteReject:
		target.Version = 0
	default:
		return nil, tx.ErrInvalidTx
	}
	if !policy.QualifiesToVote(a.UserInfo(), p.Kind, target) {
		return nil, ErrPermissionDenied
	}
	weight := voteWeight(p.VotePolicy, a)
	if weight == 0 {
		return nil, ErrNoVotingWeight
	}
	if checkOnly {
		return
	}

	removedBefore := make([]bool, len(p.Removed))
	copy(removedBefore, p.Removed)

	p.UpdateVote(sender, target, weight)
	p.Evaluate(policy, s.header.TotalSupply)

	for i := range p.Removed {
		if p.Removed[i] && !removedBefore[i] && p.Versions[i].Bond != 0 {
			if err = s.forfeitBond(p.Versions[i].Proposer, p.Versions[i].Bond); err != nil {
				return
			}
			p.Versions[i].Bond = 0
		}
	}

	events = append(events, types.EncodeEventVote(&types.EventVote{
		Proposal:     p.Index,
		VoterAddress: sender,
		Kind:         uint64(target.Kind),
		Version:      uint64(target.Version),
		Weight:       weight,
	}))

	if p.Status != types.ProposalStatusOpen {
		var resolved []abci_types.Event
		resolved, err = s.settleResolution(p, policy)
		if err != nil {
			return
		}
		events = append(events, resolved...)
	}

	s.putProposal(p)
	s.bumpNonce(a)
	return
}

// settleResolution applies the bond consequences of a status transition out
// of Open and emits the resolution event.
func (s *State) settleResolution(p *types.Proposal, policy *types.Policy) (events []abci_types.Event, err error) {
	switch p.Status {
	case types.ProposalStatusApproved:
		err = s.releaseLiveBonds(p)
	case types.ProposalStatusRejected:
		if policy.BondForfeitOnReject {
			err = s.forfeitLiveBonds(p)
		} else {
			err = s.releaseLiveBonds(p)
		}
		if err != nil {
			return
		}
		// a rejected payout never runs, free its bounty claim
		err = s.releaseFailedPayouts(p)
	}
	if err != nil {
		return
	}
	events = append(events, types.EncodeEventResolution(&types.EventResolution{
		Proposal: p.Index,
		Status:   uint64(p.Status),
		Version:  uint64(p.ApprovedVersion),
	}))
	return
}
