package main

import (
	"github.com/spf13/cobra"

	"github.com/opencordis/cordis/tx"
)

type executeArguments struct {
	Url      string
	Nonce    uint64
	Skey     string
	Proposal uint64
	NoSend   bool
}

var executeArgs executeArguments

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute an approved proposal's instructions",
	Long:  ``,
	Run:   executeRun,
}

func init() {
	urlFlag(executeCmd, &executeArgs.Url)
	skeyFlag(executeCmd, &executeArgs.Skey)
	executeCmd.Flags().Uint64VarP(&executeArgs.Nonce, "nonce", "n", 0, "account nonce")
	executeCmd.Flags().Uint64VarP(&executeArgs.Proposal, "proposal", "p", 0, "proposal index")
	executeCmd.Flags().BoolVarP(&executeArgs.NoSend, "nosend", "", false, "not send transaction but print signature")
}

func executeRun(cmd *cobra.Command, args []string) {
	stx := &tx.ExecuteTx{
		Proposal: executeArgs.Proposal,
	}
	sendGovTx(executeArgs.Url, executeArgs.Skey, executeArgs.Nonce, tx.GovTxTypeExecute, stx, executeArgs.NoSend)
}
