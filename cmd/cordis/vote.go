package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

type voteArguments struct {
	Url      string
	Nonce    uint64
	Skey     string
	Proposal uint64
	Kind     string
	Version  uint8
	NoSend   bool
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast or replace a vote on an open proposal",
	Long:  `Kind is one of approve, reject or remove. Approve and remove target a version.`,
	Run:   voteRun,
}

func init() {
	urlFlag(voteCmd, &voteArgs.Url)
	skeyFlag(voteCmd, &voteArgs.Skey)
	voteCmd.Flags().Uint64VarP(&voteArgs.Nonce, "nonce", "n", 0, "account nonce")
	voteCmd.Flags().Uint64VarP(&voteArgs.Proposal, "proposal", "p", 0, "proposal index")
	voteCmd.Flags().StringVarP(&voteArgs.Kind, "kind", "k", "approve", "vote kind: approve, reject or remove")
	voteCmd.Flags().Uint8VarP(&voteArgs.Version, "version", "v", 0, "version index")
	voteCmd.Flags().BoolVarP(&voteArgs.NoSend, "nosend", "", false, "not send transaction but print signature")
}

func voteRun(cmd *cobra.Command, args []string) {
	var kind types.VoteKind
	switch voteArgs.Kind {
	case "approve":
		kind = types.VoteApprove
	case "reject":
		kind = types.VoteReject
	case "remove":
		kind = types.VoteRemove
	default:
		fmt.Printf("unknown vote kind:%v\n", voteArgs.Kind)
		return
	}
	stx := &tx.VoteTx{
		Proposal: voteArgs.Proposal,
		Kind:     kind,
		Version:  voteArgs.Version,
	}
	sendGovTx(voteArgs.Url, voteArgs.Skey, voteArgs.Nonce, tx.GovTxTypeVote, stx, voteArgs.NoSend)
}
