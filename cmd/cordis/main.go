package main

import (
	"fmt"
	"os"
)

func main() {
	clCmd.AddCommand(accountCmd)
	clCmd.AddCommand(initCmd)
	clCmd.AddCommand(versionCmd)
	clCmd.AddCommand(pubkeyCmd)
	clCmd.AddCommand(signCmd)
	clCmd.AddCommand(proposeCmd)
	clCmd.AddCommand(counterCmd)
	clCmd.AddCommand(voteCmd)
	clCmd.AddCommand(withdrawCmd)
	clCmd.AddCommand(amendCmd)
	clCmd.AddCommand(finalizeCmd)
	clCmd.AddCommand(executeCmd)
	clCmd.AddCommand(bountyCmd)
	clCmd.AddCommand(proposalCmd)
	clCmd.AddCommand(policyCmd)
	clCmd.AddCommand(orgConfigCmd)
	clCmd.AddCommand(bountyQueryCmd)
	if err := clCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
