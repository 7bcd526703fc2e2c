package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/calehh/charity-dao/types"
	"github.com/spf13/cobra"
)

type queryArguments struct {
	Url     string
	ID      uint64
	Address string
	Spender string
	Project string
	Offset  int
	Limit   int
}

var queryArgs queryArguments

var queryPaths = []string{
	types.QueryParams,
	types.QueryMembers,
	types.QueryProposals,
	types.QueryVotes,
	types.QueryProjects,
	types.QueryDonors,
	types.QueryToken,
	types.QueryAccounts,
}

var queryCmd = &cobra.Command{
	Use:   "query <path>",
	Short: "Query committed DAO state",
	Long:  "Query committed DAO state. Paths: " + strings.Join(queryPaths, " "),
	Args:  cobra.ExactArgs(1),
	RunE:  queryRun,
}

func init() {
	urlFlag(queryCmd, &queryArgs.Url)
	queryCmd.Flags().Uint64Var(&queryArgs.ID, "id", 0, "proposal id")
	queryCmd.Flags().StringVarP(&queryArgs.Address, "address", "a", "", "member, holder or account address")
	queryCmd.Flags().StringVar(&queryArgs.Spender, "spender", "", "allowance spender")
	queryCmd.Flags().StringVarP(&queryArgs.Project, "project", "p", "", "project address")
	queryCmd.Flags().IntVar(&queryArgs.Offset, "offset", 0, "list offset")
	queryCmd.Flags().IntVar(&queryArgs.Limit, "limit", 0, "list limit")
}

func queryRun(cmd *cobra.Command, args []string) error {
	path := "/" + strings.Trim(args[0], "/") + "/"
	req := &types.QueryRequest{ID: queryArgs.ID, Offset: queryArgs.Offset, Limit: queryArgs.Limit}
	if queryArgs.Address != "" {
		addr, err := parseAddress("address", queryArgs.Address)
		if err != nil {
			return err
		}
		req.Address = &addr
	}
	if queryArgs.Spender != "" {
		addr, err := parseAddress("spender", queryArgs.Spender)
		if err != nil {
			return err
		}
		req.Spender = &addr
	}
	if queryArgs.Project != "" {
		addr, err := parseAddress("project", queryArgs.Project)
		if err != nil {
			return err
		}
		req.Project = &addr
	}
	cli, err := newClient(queryArgs.Url)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	var out json.RawMessage
	if err = abciQuery(ctx, cli, path, req, &out); err != nil {
		return err
	}
	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}
