package state

import (
	"fmt"

	abci_types "github.com/cometbft/cometbft/abci/types"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

// ExecuteProposal starts executing the approved version's instructions.
// Execution either completes synchronously or suspends on the first
// FunctionCall instruction, leaving the proposal Executing until the relay
// delivers the completion callback.
func (s *State) ExecuteProposal(etx *tx.ExecuteTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply execute", "sender", sender, "proposal", etx.Proposal)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	p, err := s.GetProposal(etx.Proposal)
	if err != nil {
		return
	}
	switch p.Status {
	case types.ProposalStatusApproved:
	case types.ProposalStatusExecuting:
		return nil, ErrAlreadyExecuting
	default:
		return nil, ErrNotApproved
	}
	policy, err := s.Policy()
	if err != nil {
		return
	}
	if !policy.CanExecuteAction(a.UserInfo(), p.Kind, types.ActionExecute) {
		return nil, ErrPermissionDenied
	}
	if checkOnly {
		return
	}
	p.Status = types.ProposalStatusExecuting
	p.ExecCursor = 0
	events, err = s.runInstructions(p)
	if err != nil {
		return
	}
	s.putProposal(p)
	s.bumpNonce(a)
	return
}

// CompleteCall resumes a proposal suspended on an external call. A failed
// call fails the whole execution; a successful one advances the cursor and
// keeps running.
func (s *State) CompleteCall(ctx *tx.CallbackTx, sender string, checkOnly bool) (events []abci_types.Event, err error) {
	s.logger.Debug("apply callback", "sender", sender, "proposal", ctx.Proposal, "seq", ctx.Seq)
	a, err := s.senderAccount(sender)
	if err != nil {
		return
	}
	p, err := s.GetProposal(ctx.Proposal)
	if err != nil {
		return
	}
	if p.Status != types.ProposalStatusExecuting || p.PendingCall == nil {
		return nil, ErrNotExecuting
	}
	if p.PendingCall.Seq != ctx.Seq {
		return nil, ErrCallSeqMismatch
	}
	if checkOnly {
		return
	}
	p.PendingCall = nil
	if !ctx.Success {
		p.Status = types.ProposalStatusFailedExecution
		events = append(events, types.EncodeEventExecution(&types.EventExecution{
			Proposal: p.Index,
			Version:  uint64(p.ApprovedVersion),
			Success:  false,
			Detail:   fmt.Sprintf("external call %v failed: %s", ctx.Seq, string(ctx.Result)),
		}))
	} else {
		p.ExecCursor += 1
		events, err = s.runInstructions(p)
		if err != nil {
			return
		}
	}
	s.putProposal(p)
	s.bumpNonce(a)
	return
}

// runInstructions applies the approved version's instructions from the
// persisted cursor until done, failure, or suspension on a FunctionCall.
func (s *State) runInstructions(p *types.Proposal) (events []abci_types.Event, err error) {
	instrs := p.Versions[p.ApprovedVersion].Instructions
	for p.ExecCursor < len(instrs) {
		in := instrs[p.ExecCursor]
		if in.Kind == types.InstrFunctionCall {
			call, ok := in.Payload.(*types.FunctionCallInstr)
			if !ok {
				return s.failExecution(p, "malformed function call payload"), nil
			}
			p.CallSeq += 1
			p.PendingCall = &types.PendingCall{
				Seq:      p.CallSeq,
				Receiver: call.Receiver,
				Calls:    call.Calls,
			}
			events = append(events, types.EncodeEventExternalCall(&types.EventExternalCall{
				Proposal: p.Index,
				Seq:      p.CallSeq,
				Receiver: call.Receiver,
				Calls:    call.Calls,
			}))
			return
		}
		if applyErr := s.applyInstruction(p, in); applyErr != nil {
			s.logger.Info("instruction failed", "proposal", p.Index, "cursor", p.ExecCursor, "err", applyErr)
			return s.failExecution(p, applyErr.Error()), nil
		}
		p.ExecCursor += 1
	}
	p.Status = types.ProposalStatusExecuted
	events = append(events, types.EncodeEventExecution(&types.EventExecution{
		Proposal: p.Index,
		Version:  uint64(p.ApprovedVersion),
		Success:  true,
	}))
	return
}

func (s *State) failExecution(p *types.Proposal, detail string) []abci_types.Event {
	p.Status = types.ProposalStatusFailedExecution
	return []abci_types.Event{types.EncodeEventExecution(&types.EventExecution{
		Proposal: p.Index,
		Version:  uint64(p.ApprovedVersion),
		Success:  false,
		Detail:   detail,
	})}
}

// applyInstruction performs one synchronous instruction. Effects of
// instructions applied before a later failure stand; only the remaining
// instructions are skipped.
func (s *State) applyInstruction(p *types.Proposal, in types.Instruction) error {
	switch payload := in.Payload.(type) {
	case *types.ChangeConfigInstr:
		cfg := payload.Config
		s.setConfig(&cfg)
	case *types.ChangePolicyInstr:
		pol := payload.Policy
		s.setPolicy(&pol)
	case *types.AddMemberInstr:
		policy, err := s.mutablePolicy()
		if err != nil {
			return err
		}
		// a missing or non-group role never fails execution, the
		// instruction just has no effect
		if err := policy.AddMemberToRole(payload.Role, payload.Member); err != nil {
			s.logger.Info("add member skipped", "proposal", p.Index, "role", payload.Role, "err", err)
			return nil
		}
		s.setPolicy(policy)
	case *types.RemoveMemberInstr:
		policy, err := s.mutablePolicy()
		if err != nil {
			return err
		}
		if err := policy.RemoveMemberFromRole(payload.Role, payload.Member); err != nil {
			s.logger.Info("remove member skipped", "proposal", p.Index, "role", payload.Role, "err", err)
			return nil
		}
		s.setPolicy(policy)
	case *types.TransferInstr:
		return s.payFromTreasury(payload.Receiver, payload.Amount)
	case *types.AddBountyInstr:
		s.bountyMaxIndex += 1
		b := payload.Bounty
		b.ID = s.bountyMaxIndex
		s.putBounty(&b)
	case *types.BountyDoneInstr:
		return s.payoutBounty(payload.BountyID, payload.Receiver)
	case *types.ChangeKindRulesInstr:
		policy, err := s.mutablePolicy()
		if err != nil {
			return err
		}
		policy.ProposalKinds = payload.Kinds
		s.setPolicy(policy)
	case *types.TextInstr:
	default:
		return fmt.Errorf("unexecutable instruction kind %v", in.Kind)
	}
	return nil
}
