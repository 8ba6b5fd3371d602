package main

import (
	"github.com/spf13/cobra"

	"github.com/opencordis/cordis/tx"
)

type bountyArguments struct {
	Url          string
	Nonce        uint64
	Skey         string
	Bounty       uint64
	DeadlineSecs uint64
	Description  string
	NoSend       bool
}

var bountyArgs bountyArguments

var bountyCmd = &cobra.Command{
	Use:   "bounty",
	Short: "Claim, complete or give up a bounty",
	Long:  ``,
}

var bountyClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim a bounty for work",
	Long:  ``,
	Run:   bountyClaimRun,
}

var bountyDoneCmd = &cobra.Command{
	Use:   "done",
	Short: "Report a claimed bounty as done",
	Long:  ``,
	Run:   bountyDoneRun,
}

var bountyGiveupCmd = &cobra.Command{
	Use:   "giveup",
	Short: "Give up a claimed bounty",
	Long:  ``,
	Run:   bountyGiveupRun,
}

func init() {
	for _, cmd := range []*cobra.Command{bountyClaimCmd, bountyDoneCmd, bountyGiveupCmd} {
		urlFlag(cmd, &bountyArgs.Url)
		skeyFlag(cmd, &bountyArgs.Skey)
		cmd.Flags().Uint64VarP(&bountyArgs.Nonce, "nonce", "n", 0, "account nonce")
		cmd.Flags().Uint64VarP(&bountyArgs.Bounty, "bounty", "b", 0, "bounty id")
		cmd.Flags().BoolVarP(&bountyArgs.NoSend, "nosend", "", false, "not send transaction but print signature")
	}
	bountyClaimCmd.Flags().Uint64VarP(&bountyArgs.DeadlineSecs, "deadline", "t", 0, "claim deadline in seconds")
	bountyDoneCmd.Flags().StringVarP(&bountyArgs.Description, "description", "m", "", "payout proposal description")
	bountyCmd.AddCommand(bountyClaimCmd)
	bountyCmd.AddCommand(bountyDoneCmd)
	bountyCmd.AddCommand(bountyGiveupCmd)
}

func bountyClaimRun(cmd *cobra.Command, args []string) {
	stx := &tx.BountyClaimTx{
		Bounty:       bountyArgs.Bounty,
		DeadlineSecs: bountyArgs.DeadlineSecs,
	}
	sendGovTx(bountyArgs.Url, bountyArgs.Skey, bountyArgs.Nonce, tx.GovTxTypeBountyClaim, stx, bountyArgs.NoSend)
}

func bountyDoneRun(cmd *cobra.Command, args []string) {
	stx := &tx.BountyDoneTx{
		Bounty:      bountyArgs.Bounty,
		Description: bountyArgs.Description,
	}
	sendGovTx(bountyArgs.Url, bountyArgs.Skey, bountyArgs.Nonce, tx.GovTxTypeBountyDone, stx, bountyArgs.NoSend)
}

func bountyGiveupRun(cmd *cobra.Command, args []string) {
	stx := &tx.BountyGiveupTx{
		Bounty: bountyArgs.Bounty,
	}
	sendGovTx(bountyArgs.Url, bountyArgs.Skey, bountyArgs.Nonce, tx.GovTxTypeBountyGiveup, stx, bountyArgs.NoSend)
}
