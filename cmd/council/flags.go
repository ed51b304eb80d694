package main

import "github.com/spf13/cobra"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "council node rpc url")
}

// txArguments are the flags shared by every tx command.
type txArguments struct {
	Url    string
	Index  uint64
	Nonce  uint64
	Skey   string
	NoSend bool
}

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	cmd.Flags().Uint64VarP(&args.Index, "index", "i", 0, "signer account index")
	cmd.Flags().Uint64VarP(&args.Nonce, "nonce", "n", 0, "signer nonce, queried from the node when 0")
	cmd.Flags().StringVarP(&args.Skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "print the signed tx instead of sending it")
	_ = cmd.MarkFlagRequired("index")
}
