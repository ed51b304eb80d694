package main

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/calehh/council-app/agent"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

type queryArguments struct {
	Url string
	Key uint64
}

var queryArgs queryArguments

var queryPaths = map[string]string{
	"stage":      "/council/stage/",
	"candidates": "/council/candidates/",
	"members":    "/council/members/",
	"budget":     "/council/budget/",
	"referendum": "/referendum/stage/",
	"votes":      "/referendum/votes/",
}

var queryCmd = &cobra.Command{
	Use:       "query [stage|candidates|members|budget|referendum|votes]",
	Short:     "Query council state",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"stage", "candidates", "members", "budget", "referendum", "votes"},
	RunE:      queryRun,
}

func init() {
	urlFlag(queryCmd, &queryArgs.Url)
	queryCmd.Flags().Uint64VarP(&queryArgs.Key, "key", "k", 0, "member or account to look up, all when 0")
}

func queryRun(cmd *cobra.Command, args []string) error {
	path, ok := queryPaths[args[0]]
	if !ok {
		return fmt.Errorf("unknown query %v", args[0])
	}
	cli, err := http.New(queryArgs.Url, "/websocket")
	if err != nil {
		return err
	}
	var data []byte
	if queryArgs.Key != 0 {
		data = binary.BigEndian.AppendUint64(nil, queryArgs.Key)
	}
	dat, err := agent.Query(context.Background(), cli, path, data)
	if err != nil {
		return err
	}
	fmt.Println(string(dat))
	return nil
}
