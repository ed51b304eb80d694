package agent

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/calehh/council-app/state"
	"github.com/cometbft/cometbft/libs/bytes"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
)

var ErrQueryFail = errors.New("query fail")

// ChainClient is the part of the cometbft RPC client the agent uses.
type ChainClient interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	Block(ctx context.Context, height *int64) (*coretypes.ResultBlock, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
	ABCIQuery(ctx context.Context, path string, data bytes.HexBytes) (*coretypes.ResultABCIQuery, error)
}

// QueryAccount looks an account up by hex address, or by index when address
// is empty.
func QueryAccount(ctx context.Context, cli ChainClient, index uint64, address string) (*state.Account, error) {
	var dat []byte
	var err error
	if len(address) > 0 {
		dat, err = hex.DecodeString(address)
		if err != nil {
			return nil, fmt.Errorf("invalid address %v: %w", address, err)
		}
	} else {
		dat = binary.BigEndian.AppendUint64(nil, index)
	}
	res, err := cli.ABCIQuery(ctx, "/accounts/", dat)
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("%w: code %v", ErrQueryFail, res.Response.Code)
	}
	var act state.Account
	err = act.UnmarshalJSON(res.Response.Value)
	if err != nil {
		return nil, err
	}
	return &act, nil
}

// Query runs an ABCI query and returns the raw JSON value.
func Query(ctx context.Context, cli ChainClient, path string, data []byte) ([]byte, error) {
	res, err := cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("%w: %v code %v %v", ErrQueryFail, path, res.Response.Code, res.Response.Log)
	}
	return res.Response.Value, nil
}
