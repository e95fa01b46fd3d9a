// Package chainclient wraps the go-ethereum JSON-RPC client with the
// operations the router needs: a single eth_call, a batched eth_call
// dispatch and a gas-price lookup. It mirrors the EVMClient shape used by the slinky Uniswap V3
// fetcher, adapted for Uniswap-style quoter/multicall calldata instead of
// price feeds.
package chainclient

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client is the minimal surface the pool accessor and quoter rely on.
// SuggestGasPrice backs the orchestrator's GasPriceFunc.
type Client interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	BatchCall(ctx context.Context, batch []rpc.BatchElem) error
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

type client struct {
	eth *ethclient.Client
	rpc *rpc.Client
}

// Dial connects to rpcURL and returns a Client. rpcURL may be an http(s) or
// ws(s) endpoint, per go-ethereum's rpc.Dial.
func Dial(ctx context.Context, rpcURL string) (Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chainclient: dial %s: %w", rpcURL, err)
	}
	return &client{
		eth: ethclient.NewClient(rpcClient),
		rpc: rpcClient,
	}, nil
}

// New wraps already-constructed go-ethereum clients (useful for tests).
func New(eth *ethclient.Client, rpcClient *rpc.Client) Client {
	return &client{eth: eth, rpc: rpcClient}
}

func (c *client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

func (c *client) BatchCall(ctx context.Context, batch []rpc.BatchElem) error {
	return c.rpc.BatchCallContext(ctx, batch)
}

func (c *client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.eth.SuggestGasPrice(ctx)
}
