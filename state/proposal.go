package state

import (
	abci_types "github.com/cometbft/cometbft/abci/types"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

func validateInstructions(instructions []types.Instruction) error {
	if len(instructions) == 0 {
		return ErrEmptyInstructions
	}
	if !types.ValidInstructionSet(instructions) {
		return ErrStandaloneInstruction
	}
	return nil
}

// createProposal classifies the instruction set, snapshots the vote policy
// for the matched kind and opens the proposal with version 0.
func (s *State) createProposal(a *Account, description string, instructions []types.Instruction, bondOffered uint64, requiredBond uint64) (p *types.Proposal, err error) {
	policy, err := s.Policy()
	if err != nil {
		return
	}
	kind := policy.MatchProposalKind(instructions)
	if !policy.CanExecuteAction(a.UserInfo(), kind, types.ActionPropose) {
		err = ErrPermissionDenied
		return
	}
	if bondOffered < requiredBond {
		err = ErrInsufficientBond
		return
	}
	if err = s.bond(a, bondOffered); err != nil {
		return
	}
	s.proposalMaxIndex += 1
	p = types.NewProposal(s.proposalMaxIndex, kind, policy.VotePolicyFor(kind), types.ProposalVersion{
		Proposer:     a.Address(),
		Description:  description,
		Instructions: instructions,
		Bond:         bondOffered,
	}, s.header.Height, s.header.Time)
	s.putProposal(p)
	return
}

// Propose opens a new proposal from the transaction's instruction set.
func (s *State) Propose(ptx *tx.ProposeTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply propose", "sender", sender, "height", s.header.Height)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	if err = validateInstructions(ptx.Instructions); err != nil {
		return
	}
	policy, err := s.Policy()
	if err != nil {
		return
	}
	if checkOnly {
		kind := policy.MatchProposalKind(ptx.Instructions)
		if !policy.CanExecuteAction(a.UserInfo(), kind, types.ActionPropose) {
			return nil, ErrPermissionDenied
		}
		if ptx.Bond < policy.ProposalBond || a.Balance < ptx.Bond {
			return nil, ErrInsufficientBond
		}
		return
	}
	p, err := s.createProposal(a, ptx.Description, ptx.Instructions, ptx.Bond, policy.ProposalBond)
	if err != nil {
		return
	}
	s.bumpNonce(a)
	events = append(events,
		types.EncodeEventProposal(&types.EventProposal{
			Proposal:        p.Index,
			Kind:            p.Kind,
			ProposerAddress: a.Address(),
			Status:          uint64(p.Status),
		}),
		types.EncodeEventVersion(&types.EventVersion{
			Proposal:        p.Index,
			Version:         0,
			ProposerAddress: a.Address(),
		}),
	)
	return
}

// CounterPropose attaches a competing version to an open proposal. The new
// instruction set must classify to the same kind, so the snapshot vote
// policy keeps applying to every version.
func (s *State) CounterPropose(ctx *tx.CounterProposeTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply counter propose", "sender", sender, "proposal", ctx.Proposal, "height", s.header.Height)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	if err = validateInstructions(ctx.Instructions); err != nil {
		return
	}
	p, err := s.GetProposal(ctx.Proposal)
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
	if policy.MatchProposalKind(ctx.Instructions) != p.Kind {
		return nil, ErrKindMismatch
	}
	if !policy.CanExecuteAction(a.UserInfo(), p.Kind, types.ActionPropose) {
		return nil, ErrPermissionDenied
	}
	if ctx.Bond < policy.ProposalBond {
		return nil, ErrInsufficientBond
	}
	if checkOnly {
		if a.Balance < ctx.Bond {
			return nil, ErrInsufficientBond
		}
		return
	}
	if err = s.bond(a, ctx.Bond); err != nil {
		return
	}
	version := p.AddVersion(types.ProposalVersion{
		Proposer:     a.Address(),
		Description:  ctx.Description,
		Instructions: ctx.Instructions,
		Bond:         ctx.Bond,
	})
	s.putProposal(p)
	s.bumpNonce(a)
	events = append(events, types.EncodeEventVersion(&types.EventVersion{
		Proposal:        p.Index,
		Version:         uint64(version),
		ProposerAddress: a.Address(),
	}))
	return
}

// versionMutable guards withdraw and amend: the version must exist, be live,
// belong to the sender and never have carried approve or remove votes.
func (s *State) versionMutable(p *types.Proposal, version uint8, sender string) error {
	if p.Status != types.ProposalStatusOpen {
		return ErrProposalNotOpen
	}
	if !p.HasVersion(version) {
		return ErrVersionNoexists
	}
	if p.Removed[version] {
		return ErrVersionRemoved
	}
	if p.Versions[version].Proposer != sender {
		return ErrNotProposer
	}
	if p.Voted[version] {
		return ErrVotesAlreadyCast
	}
	return nil
}

// Withdraw retires the sender's own unvoted version and refunds its bond.
// Withdrawing the last live version closes the proposal.
func (s *State) Withdraw(wtx *tx.WithdrawTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply withdraw", "sender", sender, "proposal", wtx.Proposal, "version", wtx.Version)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	p, err := s.GetProposal(wtx.Proposal)
	if err != nil {
		return
	}
	if err = s.versionMutable(p, wtx.Version, sender); err != nil {
		return
	}
	policy, err := s.Policy()
	if err != nil {
		return
	}
	if !policy.CanExecuteAction(a.UserInfo(), p.Kind, types.ActionWithdraw) {
		return nil, ErrPermissionDenied
	}
	if checkOnly {
		return
	}
	bond := p.Versions[wtx.Version].Bond
	p.Versions[wtx.Version].Bond = 0
	p.RemoveVersion(wtx.Version)
	if err = s.releaseBond(sender, bond); err != nil {
		return
	}
	if p.LiveVersionCount() == 0 {
		p.Status = types.ProposalStatusWithdrawn
		events = append(events, types.EncodeEventResolution(&types.EventResolution{
			Proposal: p.Index,
			Status:   uint64(p.Status),
		}))
	}
	s.putProposal(p)
	s.bumpNonce(a)
	return
}

// Amend replaces the content of the sender's own unvoted version in place.
func (s *State) Amend(atx *tx.AmendTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply amend", "sender", sender, "proposal", atx.Proposal, "version", atx.Version)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	if err = validateInstructions(atx.Instructions); err != nil {
		return
	}
	p, err := s.GetProposal(atx.Proposal)
	if err != nil {
		return
	}
	if err = s.versionMutable(p, atx.Version, sender); err != nil {
		return
	}
	policy, err := s.Policy()
	if err != nil {
		return
	}
	if policy.MatchProposalKind(atx.Instructions) != p.Kind {
		return nil, ErrKindMismatch
	}
	if !policy.CanExecuteAction(a.UserInfo(), p.Kind, types.ActionAmend) {
		return nil, ErrPermissionDenied
	}
	if checkOnly {
		return
	}
	p.Versions[atx.Version].Description = atx.Description
	p.Versions[atx.Version].Instructions = atx.Instructions
	s.putProposal(p)
	s.bumpNonce(a)
	events = append(events, types.EncodeEventVersion(&types.EventVersion{
		Proposal:        p.Index,
		Version:         uint64(atx.Version),
		ProposerAddress: sender,
	}))
	return
}

// Finalize closes an open proposal whose voting period elapsed without
// resolution, refunding the live version bonds.
func (s *State) Finalize(ftx *tx.FinalizeTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply finalize", "sender", sender, "proposal", ftx.Proposal)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	p, err := s.GetProposal(ftx.Proposal)
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
	if !p.ExpiredAt(policy, s.header.Time) {
		return nil, ErrProposalNotExpired
	}
	if !policy.CanExecuteAction(a.UserInfo(), p.Kind, types.ActionFinalize) {
		return nil, ErrPermissionDenied
	}
	if checkOnly {
		return
	}
	p.Status = types.ProposalStatusExpired
	if err = s.releaseLiveBonds(p); err != nil {
		return
	}
	// expired payout proposals free their bounty claims too
	if err = s.releaseFailedPayouts(p); err != nil {
		return
	}
	s.putProposal(p)
	s.bumpNonce(a)
	events = append(events, types.EncodeEventResolution(&types.EventResolution{
		Proposal: p.Index,
		Status:   uint64(p.Status),
	}))
	return
}

// releaseLiveBonds refunds the bond of every live version once no further
// vote can remove it.
func (s *State) releaseLiveBonds(p *types.Proposal) error {
	for i := range p.Versions {
		if p.Removed[i] || p.Versions[i].Bond == 0 {
			continue
		}
		if err := s.releaseBond(p.Versions[i].Proposer, p.Versions[i].Bond); err != nil {
			return err
		}
		p.Versions[i].Bond = 0
	}
	return nil
}

// forfeitLiveBonds moves every live version bond to the treasury.
func (s *State) forfeitLiveBonds(p *types.Proposal) error {
	for i := range p.Versions {
		if p.Removed[i] || p.Versions[i].Bond == 0 {
			continue
		}
		if err := s.forfeitBond(p.Versions[i].Proposer, p.Versions[i].Bond); err != nil {
			return err
		}
		p.Versions[i].Bond = 0
	}
	return nil
}
