package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/calehh/charity-dao/app"
	"github.com/calehh/charity-dao/config"
	"github.com/calehh/charity-dao/crypto"
	"github.com/calehh/charity-dao/tx"
	"github.com/calehh/charity-dao/types"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

const requestTimeout = 30 * time.Second

type txArguments struct {
	Url    string
	Key    string
	Nonce  int64
	NoSend bool
}

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	cmd.Flags().StringVarP(&args.Key, "key", "k", "", "hex private key file, defaults to the owner key under the home dir")
	cmd.Flags().Int64VarP(&args.Nonce, "nonce", "n", -1, "sender nonce, queried from the node when negative")
	cmd.Flags().BoolVar(&args.NoSend, "nosend", false, "print the signed transaction instead of sending it")
}

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

func abciQuery(ctx context.Context, cli *http.HTTP, path string, req *types.QueryRequest, out any) error {
	dat, err := json.Marshal(req)
	if err != nil {
		return err
	}
	res, err := cli.ABCIQuery(ctx, path, dat)
	if err != nil {
		return fmt.Errorf("query %s: %w", path, err)
	}
	if res.Response.Code != 0 {
		return fmt.Errorf("query %s: code %d: %s", path, res.Response.Code, res.Response.Log)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(res.Response.Value, out)
}

func queryNonce(ctx context.Context, cli *http.HTTP, addr common.Address) (uint64, error) {
	var acnt app.AccountState
	if err := abciQuery(ctx, cli, types.QueryAccounts, &types.QueryRequest{Address: &addr}, &acnt); err != nil {
		return 0, err
	}
	return acnt.Nonce, nil
}

// sendTx signs payload with the configured key and broadcasts it, waiting
// for the block that includes it.
func sendTx(args *txArguments, tp tx.TxType, payload any) error {
	keyPath := args.Key
	if keyPath == "" {
		keyPath = config.OwnerKeyPath(home())
	}
	key, err := crypto.LoadKey(keyPath)
	if err != nil {
		return err
	}
	cli, err := newClient(args.Url)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	status, err := cli.Status(ctx)
	if err != nil {
		return fmt.Errorf("get chain status: %w", err)
	}
	chainId := status.NodeInfo.Network

	nonce := uint64(args.Nonce)
	if args.Nonce < 0 {
		if nonce, err = queryNonce(ctx, cli, key.Address()); err != nil {
			return err
		}
	}
	btx := &tx.Tx{
		Version: tx.TxVersion0,
		Type:    tp,
		Nonce:   nonce,
		Tx:      payload,
	}
	if err = key.SignTx(btx, chainId); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalTx(btx)
	if err != nil {
		return err
	}
	if args.NoSend {
		fmt.Println(string(dat))
		return nil
	}
	res, err := cli.BroadcastTxCommit(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
	if res.CheckTx.Code != 0 {
		return fmt.Errorf("check tx failed: code %d: %s", res.CheckTx.Code, res.CheckTx.Log)
	}
	if res.TxResult.Code != 0 {
		return fmt.Errorf("tx failed: code %d: %s", res.TxResult.Code, res.TxResult.Log)
	}
	return nil
}
