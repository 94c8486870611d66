// Package web3tools is a thin facade over a node RPC backend. Every method
// forwards to exactly one backend call, logs a fixed message when that call
// fails and returns the backend's error value unchanged.
package web3tools

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"web3tools/ethclient"
)

// Backend is the set of node calls the facade forwards to.
// *ethclient.Client implements it.
type Backend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockByNumberOrHash(ctx context.Context, id rpc.BlockNumberOrHash) (*ethclient.Block, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	Accounts(ctx context.Context) ([]common.Address, error)
	DeployContract(ctx context.Context, contractABI abi.ABI, bytecode string, from common.Address, gas uint64, params ...interface{}) (*ethclient.Deployment, error)
	NetworkID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BlockTransactionCount(ctx context.Context, id rpc.BlockNumberOrHash) (uint64, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Option configures a Tools created by New.
type Option func(*settings)

type settings struct {
	client ethclient.Config
	logger log.Logger
}

// WithTimeout sets the per-request timeout of the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.client.Timeout = d }
}

// WithPollInterval sets how often DeployContract checks for the receipt.
func WithPollInterval(d time.Duration) Option {
	return func(s *settings) { s.client.PollInterval = d }
}

// WithLogger sets the logger failed calls are reported to.
func WithLogger(l log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// Tools exposes node queries and contract deployment over a single backend.
// It keeps no state between calls and is safe for concurrent use as long as
// the backend is.
type Tools struct {
	backend Backend
	logger  log.Logger
}

// New creates a Tools connected to providerURL. The request timeout defaults
// to ethclient.DefaultTimeout (10s) and also bounds the dial. HTTP endpoints
// are not contacted until the first call, so an unreachable HTTP node
// surfaces there. WebSocket and IPC endpoints connect here and fail New when
// the node does not answer within the timeout. Unsupported schemes always
// fail New.
func New(providerURL string, opts ...Option) (*Tools, error) {
	s := settings{
		client: ethclient.DefaultConfig(),
		logger: log.Root(),
	}
	for _, opt := range opts {
		opt(&s)
	}

	ctx := context.Background()
	if s.client.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.client.Timeout)
		defer cancel()
	}
	client, err := ethclient.DialContext(ctx, providerURL, s.client)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(client, s.logger), nil
}

// NewWithBackend creates a Tools forwarding to b. A nil logger means log.Root().
func NewWithBackend(b Backend, logger log.Logger) *Tools {
	if logger == nil {
		logger = log.Root()
	}
	return &Tools{backend: b, logger: logger}
}

// Close releases the backend connection if the backend can be closed.
func (t *Tools) Close() {
	if c, ok := t.backend.(interface{ Close() }); ok {
		c.Close()
	}
}

// call runs fn and reports a failure once under msg before returning it.
func call[T any](t *Tools, msg string, fn func() (T, error)) (T, error) {
	res, err := fn()
	if err != nil {
		t.logger.Error(msg, "err", err)
	}
	return res, err
}

// FetchTransactionReceipt returns the receipt of txHash, or nil if the
// transaction is not mined yet.
func (t *Tools) FetchTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return call(t, "Error fetching transaction receipt", func() (*types.Receipt, error) {
		return t.backend.TransactionReceipt(ctx, txHash)
	})
}

// FetchBlockDetails returns the block identified by id.
func (t *Tools) FetchBlockDetails(ctx context.Context, id rpc.BlockNumberOrHash) (*ethclient.Block, error) {
	return call(t, "Error fetching block details", func() (*ethclient.Block, error) {
		return t.backend.BlockByNumberOrHash(ctx, id)
	})
}

// EstimateGasUsage returns the gas the node estimates msg would use.
func (t *Tools) EstimateGasUsage(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return call(t, "Error estimating gas usage", func() (uint64, error) {
		return t.backend.EstimateGas(ctx, msg)
	})
}

// FetchGasPrice returns the current gas price in wei.
func (t *Tools) FetchGasPrice(ctx context.Context) (*big.Int, error) {
	return call(t, "Error fetching gas price", func() (*big.Int, error) {
		return t.backend.SuggestGasPrice(ctx)
	})
}

// FetchUserAccounts returns the accounts known to the node.
func (t *Tools) FetchUserAccounts(ctx context.Context) ([]common.Address, error) {
	return call(t, "Error fetching user accounts", func() ([]common.Address, error) {
		return t.backend.Accounts(ctx)
	})
}

// DeployContract deploys bytecode from the node-managed account from and
// returns once the creation transaction is mined.
func (t *Tools) DeployContract(ctx context.Context, contractABI abi.ABI, bytecode string, from common.Address, gas uint64, params ...interface{}) (*ethclient.Deployment, error) {
	return call(t, "Error deploying contract", func() (*ethclient.Deployment, error) {
		return t.backend.DeployContract(ctx, contractABI, bytecode, from, gas, params...)
	})
}

// FetchNetworkID returns the node's network ID.
func (t *Tools) FetchNetworkID(ctx context.Context) (*big.Int, error) {
	return call(t, "Error fetching network ID", func() (*big.Int, error) {
		return t.backend.NetworkID(ctx)
	})
}

// FetchLatestBlockNumber returns the number of the most recent block.
func (t *Tools) FetchLatestBlockNumber(ctx context.Context) (uint64, error) {
	return call(t, "Error fetching latest block number", func() (uint64, error) {
		return t.backend.BlockNumber(ctx)
	})
}

// FetchBlockTransactionCount returns the number of transactions in the block
// identified by id.
func (t *Tools) FetchBlockTransactionCount(ctx context.Context, id rpc.BlockNumberOrHash) (uint64, error) {
	return call(t, "Error fetching transaction count for block", func() (uint64, error) {
		return t.backend.BlockTransactionCount(ctx, id)
	})
}
