package main

import (
	"context"
	"fmt"

	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

type queryArguments struct {
	Url      string
	Proposal uint64
	Max      bool
	Bounty   uint64
	Claimant string
}

var queryArgs queryArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Query a proposal by index",
	Long:  ``,
	Run:   proposalQueryRun,
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Query the current governance policy",
	Long:  ``,
	Run:   policyQueryRun,
}

var orgConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Query the organization configuration",
	Long:  ``,
	Run:   configQueryRun,
}

var bountyQueryCmd = &cobra.Command{
	Use:   "bountyinfo",
	Short: "Query a bounty, or a claim when a claimant address is given",
	Long:  ``,
	Run:   bountyQueryRun,
}

func init() {
	urlFlag(proposalCmd, &queryArgs.Url)
	proposalCmd.Flags().Uint64VarP(&queryArgs.Proposal, "proposal", "p", 0, "proposal index")
	proposalCmd.Flags().BoolVarP(&queryArgs.Max, "max", "", false, "query the highest proposal index")
	urlFlag(policyCmd, &queryArgs.Url)
	urlFlag(orgConfigCmd, &queryArgs.Url)
	urlFlag(bountyQueryCmd, &queryArgs.Url)
	bountyQueryCmd.Flags().Uint64VarP(&queryArgs.Bounty, "bounty", "b", 0, "bounty index")
	bountyQueryCmd.Flags().StringVarP(&queryArgs.Claimant, "claimant", "c", "", "claimant address")
}

func abciQuery(url string, path string, dat []byte) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		fmt.Printf("new client err:%v\n", err)
		return
	}
	res, err := cli.ABCIQuery(context.Background(), path, dat)
	if err != nil {
		fmt.Printf("request err:%v\n", err)
		return
	}
	if res.Response.Code != 0 {
		fmt.Printf("%#v\n", res)
		return
	}
	fmt.Printf("%s\n", string(res.Response.Value))
}

func proposalQueryRun(cmd *cobra.Command, args []string) {
	dat := []byte(fmt.Sprintf("%v", queryArgs.Proposal))
	if queryArgs.Max {
		dat = []byte("max")
	}
	abciQuery(queryArgs.Url, "/proposals/", dat)
}

func policyQueryRun(cmd *cobra.Command, args []string) {
	abciQuery(queryArgs.Url, "/policy/", nil)
}

func configQueryRun(cmd *cobra.Command, args []string) {
	abciQuery(queryArgs.Url, "/config/", nil)
}

func bountyQueryRun(cmd *cobra.Command, args []string) {
	dat := fmt.Sprintf("%v", queryArgs.Bounty)
	if queryArgs.Claimant != "" {
		dat = fmt.Sprintf("%v/%s", queryArgs.Bounty, queryArgs.Claimant)
	}
	abciQuery(queryArgs.Url, "/bounties/", []byte(dat))
}
