package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/council-app/agent"
	"github.com/calehh/council-app/crypto"
	"github.com/calehh/council-app/tx"
	"github.com/cometbft/cometbft/rpc/client/http"
)

func sendTx(args *txArguments, tp tx.CouncilTxType, stx any) error {
	cli, err := http.New(args.Url, "/websocket")
	if err != nil {
		return fmt.Errorf("new client: %w", err)
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	nonce := args.Nonce
	if nonce == 0 {
		act, err := agent.QueryAccount(ctx, cli, args.Index, "")
		if err != nil {
			return fmt.Errorf("query signer: %w", err)
		}
		nonce = act.Nonce
	}
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	btx := tx.CouncilTx{
		Version: tx.CouncilTxVersion1,
		Type:    tp,
		Nonce:   nonce,
		Signer:  args.Index,
		Tx:      stx,
	}
	if err = pv.SignTx(&btx, gres.Genesis.ChainID); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalCouncilTx(&btx)
	if err != nil {
		return err
	}
	if args.NoSend {
		fmt.Println(string(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	if res.Code != 0 {
		return fmt.Errorf("tx %v rejected: code %v %v", tp, res.Code, res.Log)
	}
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
	return nil
}
