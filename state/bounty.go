package state

import (
	abci_types "github.com/cometbft/cometbft/abci/types"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

// ClaimBounty registers the sender's claim on a bounty against the bounty
// bond. One claim per account per bounty.
func (s *State) ClaimBounty(btx *tx.BountyClaimTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply bounty claim", "sender", sender, "bounty", btx.Bounty)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	b, err := s.GetBounty(btx.Bounty)
	if err != nil {
		return
	}
	if b.Times == 0 {
		return nil, ErrBountyExhausted
	}
	if btx.DeadlineSecs > b.MaxDeadlineSecs {
		return nil, ErrDeadlineTooLong
	}
	if _, cerr := s.GetBountyClaim(btx.Bounty, sender); cerr == nil {
		return nil, ErrClaimAlreadyExists
	}
	policy, err := s.Policy()
	if err != nil {
		return
	}
	if checkOnly {
		if a.Balance < policy.BountyBond {
			return nil, ErrInsufficientBond
		}
		return
	}
	if err = s.bond(a, policy.BountyBond); err != nil {
		return
	}
	s.putBountyClaim(sender, &types.BountyClaim{
		BountyID:     btx.Bounty,
		StartTime:    s.header.Time,
		DeadlineSecs: btx.DeadlineSecs,
		Bond:         policy.BountyBond,
	})
	s.bumpNonce(a)
	events = append(events, types.EncodeEventBounty(&types.EventBounty{
		Bounty:  btx.Bounty,
		Account: sender,
		Change:  types.BountyEventClaimed,
	}))
	return
}

// DoneBounty marks the sender's claim delivered and opens the payout
// proposal carrying a single BountyDone instruction. The claim bond stays
// escrowed until the payout proposal resolves.
func (s *State) DoneBounty(btx *tx.BountyDoneTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply bounty done", "sender", sender, "bounty", btx.Bounty)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	claim, err := s.GetBountyClaim(btx.Bounty, sender)
	if err != nil {
		return
	}
	if claim.Completed {
		return nil, ErrClaimCompleted
	}
	if claim.Expired(s.header.Time) {
		return nil, ErrClaimExpired
	}
	instructions := []types.Instruction{{
		Kind:    types.InstrBountyDone,
		Payload: &types.BountyDoneInstr{BountyID: btx.Bounty, Receiver: sender},
	}}
	policy, err := s.Policy()
	if err != nil {
		return
	}
	if checkOnly {
		kind := policy.MatchProposalKind(instructions)
		if !policy.CanExecuteAction(a.UserInfo(), kind, types.ActionPropose) {
			return nil, ErrPermissionDenied
		}
		return
	}
	// The claim bond already backs this submission, so the payout proposal
	// carries no additional bond.
	p, err := s.createProposal(a, btx.Description, instructions, 0, 0)
	if err != nil {
		return
	}
	claim.Completed = true
	s.putBountyClaim(sender, claim)
	s.bumpNonce(a)
	events = append(events,
		types.EncodeEventBounty(&types.EventBounty{
			Bounty:  btx.Bounty,
			Account: sender,
			Change:  types.BountyEventDone,
		}),
		types.EncodeEventProposal(&types.EventProposal{
			Proposal:        p.Index,
			Kind:            p.Kind,
			ProposerAddress: sender,
			Status:          uint64(p.Status),
		}),
	)
	return
}

// GiveupBounty abandons the sender's claim. Inside the forgiveness period
// the bond comes back; after it the bond goes to the treasury.
func (s *State) GiveupBounty(btx *tx.BountyGiveupTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply bounty giveup", "sender", sender, "bounty", btx.Bounty)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	claim, err := s.GetBountyClaim(btx.Bounty, sender)
	if err != nil {
		return
	}
	if claim.Completed {
		return nil, ErrClaimCompleted
	}
	policy, err := s.Policy()
	if err != nil {
		return
	}
	if checkOnly {
		return
	}
	if claim.WithinForgiveness(policy, s.header.Time) {
		err = s.releaseBond(sender, claim.Bond)
	} else {
		err = s.forfeitBond(sender, claim.Bond)
	}
	if err != nil {
		return
	}
	s.dropBountyClaim(btx.Bounty, sender)
	s.bumpNonce(a)
	events = append(events, types.EncodeEventBounty(&types.EventBounty{
		Bounty:  btx.Bounty,
		Account: sender,
		Change:  types.BountyEventGiveup,
	}))
	return
}

// releaseFailedPayouts runs when a proposal resolves without a chance to
// execute. Every BountyDone instruction it carried gets its claim released:
// the bond comes back and the claimer may claim or deliver again. Versions
// removed during voting are scanned too, their payouts are just as dead.
func (s *State) releaseFailedPayouts(p *types.Proposal) error {
	for _, v := range p.Versions {
		for _, in := range v.Instructions {
			done, ok := in.Payload.(*types.BountyDoneInstr)
			if !ok {
				continue
			}
			claim, err := s.GetBountyClaim(done.BountyID, done.Receiver)
			if err != nil || !claim.Completed {
				continue
			}
			if err := s.releaseBond(done.Receiver, claim.Bond); err != nil {
				return err
			}
			s.dropBountyClaim(done.BountyID, done.Receiver)
		}
	}
	return nil
}

// payoutBounty runs during BountyDone instruction execution: pays the bounty
// amount from the treasury, releases the claim bond and retires the claim.
func (s *State) payoutBounty(bountyID uint64, receiver string) error {
	b, err := s.GetBounty(bountyID)
	if err != nil {
		return err
	}
	if b.Times == 0 {
		return ErrBountyExhausted
	}
	claim, err := s.GetBountyClaim(bountyID, receiver)
	if err != nil {
		return err
	}
	if err := s.payFromTreasury(receiver, b.Amount); err != nil {
		return err
	}
	if err := s.releaseBond(receiver, claim.Bond); err != nil {
		return err
	}
	b.Times -= 1
	s.putBounty(b)
	s.dropBountyClaim(bountyID, receiver)
	return nil
}
