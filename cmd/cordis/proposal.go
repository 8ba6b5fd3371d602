package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencordis/cordis/tx"
	"github.com/opencordis/cordis/types"
)

type proposeArguments struct {
	Url          string
	Nonce        uint64
	Skey         string
	Description  string
	Instructions string
	Bond         uint64
	NoSend       bool
}

var proposeArgs proposeArguments

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Submit a new proposal",
	Long:  `Instructions are given as a JSON array, e.g. '[{"kind":10,"payload":{"text":"hello"}}]'.`,
	Run:   proposeRun,
}

func init() {
	urlFlag(proposeCmd, &proposeArgs.Url)
	skeyFlag(proposeCmd, &proposeArgs.Skey)
	proposeCmd.Flags().Uint64VarP(&proposeArgs.Nonce, "nonce", "n", 0, "account nonce")
	proposeCmd.Flags().StringVarP(&proposeArgs.Description, "description", "m", "", "proposal description")
	proposeCmd.Flags().StringVarP(&proposeArgs.Instructions, "instructions", "x", "", "instructions json array")
	proposeCmd.Flags().Uint64VarP(&proposeArgs.Bond, "bond", "b", 0, "bond amount, 0 uses the policy bond")
	proposeCmd.Flags().BoolVarP(&proposeArgs.NoSend, "nosend", "", false, "not send transaction but print signature")
}

func parseInstructions(dat string) ([]types.Instruction, error) {
	var instrs []types.Instruction
	if err := json.Unmarshal([]byte(dat), &instrs); err != nil {
		return nil, fmt.Errorf("invalid instructions: %w", err)
	}
	return instrs, nil
}

func proposeRun(cmd *cobra.Command, args []string) {
	instrs, err := parseInstructions(proposeArgs.Instructions)
	if err != nil {
		fmt.Println(err)
		return
	}
	stx := &tx.ProposeTx{
		Description:  proposeArgs.Description,
		Instructions: instrs,
		Bond:         proposeArgs.Bond,
	}
	sendGovTx(proposeArgs.Url, proposeArgs.Skey, proposeArgs.Nonce, tx.GovTxTypePropose, stx, proposeArgs.NoSend)
}

type counterArguments struct {
	Url          string
	Nonce        uint64
	Skey         string
	Proposal     uint64
	Description  string
	Instructions string
	Bond         uint64
	NoSend       bool
}

var counterArgs counterArguments

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Submit a counter-proposal version on an open proposal",
	Long:  ``,
	Run:   counterRun,
}

func init() {
	urlFlag(counterCmd, &counterArgs.Url)
	skeyFlag(counterCmd, &counterArgs.Skey)
	counterCmd.Flags().Uint64VarP(&counterArgs.Nonce, "nonce", "n", 0, "account nonce")
	counterCmd.Flags().Uint64VarP(&counterArgs.Proposal, "proposal", "p", 0, "proposal index")
	counterCmd.Flags().StringVarP(&counterArgs.Description, "description", "m", "", "version description")
	counterCmd.Flags().StringVarP(&counterArgs.Instructions, "instructions", "x", "", "instructions json array")
	counterCmd.Flags().Uint64VarP(&counterArgs.Bond, "bond", "b", 0, "bond amount, 0 uses the policy bond")
	counterCmd.Flags().BoolVarP(&counterArgs.NoSend, "nosend", "", false, "not send transaction but print signature")
}

func counterRun(cmd *cobra.Command, args []string) {
	instrs, err := parseInstructions(counterArgs.Instructions)
	if err != nil {
		fmt.Println(err)
		return
	}
	stx := &tx.CounterProposeTx{
		Proposal:     counterArgs.Proposal,
		Description:  counterArgs.Description,
		Instructions: instrs,
		Bond:         counterArgs.Bond,
	}
	sendGovTx(counterArgs.Url, counterArgs.Skey, counterArgs.Nonce, tx.GovTxTypeCounter, stx, counterArgs.NoSend)
}

type withdrawArguments struct {
	Url      string
	Nonce    uint64
	Skey     string
	Proposal uint64
	Version  uint8
	NoSend   bool
}

var withdrawArgs withdrawArguments

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw an unvoted proposal version",
	Long:  ``,
	Run:   withdrawRun,
}

func init() {
	urlFlag(withdrawCmd, &withdrawArgs.Url)
	skeyFlag(withdrawCmd, &withdrawArgs.Skey)
	withdrawCmd.Flags().Uint64VarP(&withdrawArgs.Nonce, "nonce", "n", 0, "account nonce")
	withdrawCmd.Flags().Uint64VarP(&withdrawArgs.Proposal, "proposal", "p", 0, "proposal index")
	withdrawCmd.Flags().Uint8VarP(&withdrawArgs.Version, "version", "v", 0, "version index")
	withdrawCmd.Flags().BoolVarP(&withdrawArgs.NoSend, "nosend", "", false, "not send transaction but print signature")
}

func withdrawRun(cmd *cobra.Command, args []string) {
	stx := &tx.WithdrawTx{
		Proposal: withdrawArgs.Proposal,
		Version:  withdrawArgs.Version,
	}
	sendGovTx(withdrawArgs.Url, withdrawArgs.Skey, withdrawArgs.Nonce, tx.GovTxTypeWithdraw, stx, withdrawArgs.NoSend)
}

type amendArguments struct {
	Url          string
	Nonce        uint64
	Skey         string
	Proposal     uint64
	Version      uint8
	Description  string
	Instructions string
	NoSend       bool
}

var amendArgs amendArguments

var amendCmd = &cobra.Command{
	Use:   "amend",
	Short: "Amend an unvoted proposal version in place",
	Long:  ``,
	Run:   amendRun,
}

func init() {
	urlFlag(amendCmd, &amendArgs.Url)
	skeyFlag(amendCmd, &amendArgs.Skey)
	amendCmd.Flags().Uint64VarP(&amendArgs.Nonce, "nonce", "n", 0, "account nonce")
	amendCmd.Flags().Uint64VarP(&amendArgs.Proposal, "proposal", "p", 0, "proposal index")
	amendCmd.Flags().Uint8VarP(&amendArgs.Version, "version", "v", 0, "version index")
	amendCmd.Flags().StringVarP(&amendArgs.Description, "description", "m", "", "version description")
	amendCmd.Flags().StringVarP(&amendArgs.Instructions, "instructions", "x", "", "instructions json array")
	amendCmd.Flags().BoolVarP(&amendArgs.NoSend, "nosend", "", false, "not send transaction but print signature")
}

func amendRun(cmd *cobra.Command, args []string) {
	instrs, err := parseInstructions(amendArgs.Instructions)
	if err != nil {
		fmt.Println(err)
		return
	}
	stx := &tx.AmendTx{
		Proposal:     amendArgs.Proposal,
		Version:      amendArgs.Version,
		Description:  amendArgs.Description,
		Instructions: instrs,
	}
	sendGovTx(amendArgs.Url, amendArgs.Skey, amendArgs.Nonce, tx.GovTxTypeAmend, stx, amendArgs.NoSend)
}

type finalizeArguments struct {
	Url      string
	Nonce    uint64
	Skey     string
	Proposal uint64
	NoSend   bool
}

var finalizeArgs finalizeArguments

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Expire an open proposal past its voting period",
	Long:  ``,
	Run:   finalizeRun,
}

func init() {
	urlFlag(finalizeCmd, &finalizeArgs.Url)
	skeyFlag(finalizeCmd, &finalizeArgs.Skey)
	finalizeCmd.Flags().Uint64VarP(&finalizeArgs.Nonce, "nonce", "n", 0, "account nonce")
	finalizeCmd.Flags().Uint64VarP(&finalizeArgs.Proposal, "proposal", "p", 0, "proposal index")
	finalizeCmd.Flags().BoolVarP(&finalizeArgs.NoSend, "nosend", "", false, "not send transaction but print signature")
}

func finalizeRun(cmd *cobra.Command, args []string) {
	stx := &tx.FinalizeTx{
		Proposal: finalizeArgs.Proposal,
	}
	sendGovTx(finalizeArgs.Url, finalizeArgs.Skey, finalizeArgs.Nonce, tx.GovTxTypeFinalize, stx, finalizeArgs.NoSend)
}
