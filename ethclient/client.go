package ethclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	// DefaultTimeout bounds every JSON-RPC request made by the client.
	DefaultTimeout = 10 * time.Second
	// DefaultPollInterval is how often a pending deployment's receipt is queried.
	DefaultPollInterval = time.Second
)

var (
	// ErrDeploymentReverted is returned when the deployment transaction was
	// mined with a failed status.
	ErrDeploymentReverted = errors.New("contract deployment reverted")

	// ErrNoCodeAfterDeploy is returned when the deployment was mined but no
	// code is present at the new contract address.
	ErrNoCodeAfterDeploy = errors.New("no contract code after deployment")
)

// Config holds the connection settings fixed at construction time.
type Config struct {
	// Timeout bounds each individual request. Zero disables the bound.
	Timeout time.Duration
	// PollInterval is the receipt query interval while waiting for a
	// deployment to be mined.
	PollInterval time.Duration
}

// DefaultConfig returns the settings used by Dial.
func DefaultConfig() Config {
	return Config{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
	}
}

// Client is a JSON-RPC client for Ethereum-compatible nodes. It is safe for
// concurrent use.
type Client struct {
	c   *rpc.Client
	url string
	cfg Config
}

// Dial connects to a node at the given URL using DefaultConfig.
func Dial(rawurl string) (*Client, error) {
	return DialContext(context.Background(), rawurl, DefaultConfig())
}

// DialContext connects to a node at the given URL. For HTTP endpoints no
// connection is made until the first request.
func DialContext(ctx context.Context, rawurl string, cfg Config) (*Client, error) {
	var opts []rpc.ClientOption
	if cfg.Timeout > 0 {
		opts = append(opts, rpc.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	c, err := rpc.DialOptions(ctx, rawurl, opts...)
	if err != nil {
		return nil, err
	}
	cl := NewClient(c, cfg)
	cl.url = rawurl
	return cl, nil
}

// NewClient creates a new Client from an existing RPC client.
func NewClient(c *rpc.Client, cfg Config) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Client{c: c, cfg: cfg}
}

// Close closes the underlying RPC connection.
func (c *Client) Close() {
	c.c.Close()
}

// Client returns the underlying RPC client.
func (c *Client) Client() *rpc.Client {
	return c.c
}

// URL returns the provider URL the client was dialed with.
func (c *Client) URL() string {
	return c.url
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.cfg.Timeout
}

// PollInterval returns the deployment receipt query interval.
func (c *Client) PollInterval() time.Duration {
	return c.cfg.PollInterval
}

// call performs a single request bounded by the configured timeout.
func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	return c.c.CallContext(ctx, result, method, args...)
}

// BlockNumber returns the most recent block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	err := c.call(ctx, &result, "eth_blockNumber")
	return uint64(result), err
}

// BlockByNumberOrHash returns the block record for the given identifier with
// transaction hashes only. ethereum.NotFound is returned for unknown blocks.
func (c *Client) BlockByNumberOrHash(ctx context.Context, id rpc.BlockNumberOrHash) (*Block, error) {
	var raw *Block
	var err error
	if hash, ok := id.Hash(); ok {
		err = c.call(ctx, &raw, "eth_getBlockByHash", hash, false)
	} else {
		err = c.call(ctx, &raw, "eth_getBlockByNumber", toBlockIDArg(id), false)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ethereum.NotFound
	}
	return raw, nil
}

// BlockTransactionCount returns the number of transactions in the given block.
func (c *Client) BlockTransactionCount(ctx context.Context, id rpc.BlockNumberOrHash) (uint64, error) {
	var num *hexutil.Uint64
	var err error
	if hash, ok := id.Hash(); ok {
		err = c.call(ctx, &num, "eth_getBlockTransactionCountByHash", hash)
	} else {
		err = c.call(ctx, &num, "eth_getBlockTransactionCountByNumber", toBlockIDArg(id))
	}
	if err != nil {
		return 0, err
	}
	if num == nil {
		return 0, ethereum.NotFound
	}
	return uint64(*num), nil
}

// TransactionReceipt returns the receipt of a transaction by transaction hash.
// A transaction that has not been mined yet yields a nil receipt and no error.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var r *types.Receipt
	if err := c.call(ctx, &r, "eth_getTransactionReceipt", txHash); err != nil {
		return nil, err
	}
	return r, nil
}

// EstimateGas tries to estimate the gas needed to execute a specific transaction
// based on the current state of the backend blockchain.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var hex hexutil.Uint64
	err := c.call(ctx, &hex, "eth_estimateGas", toCallArg(msg))
	if err != nil {
		return 0, err
	}
	return uint64(hex), nil
}

// SuggestGasPrice retrieves the currently suggested gas price in wei.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var hex hexutil.Big
	if err := c.call(ctx, &hex, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return (*big.Int)(&hex), nil
}

// Accounts returns the addresses managed by the node, in node order.
func (c *Client) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := c.call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// NetworkID returns the network ID reported by net_version.
func (c *Client) NetworkID(ctx context.Context) (*big.Int, error) {
	var ver string
	if err := c.call(ctx, &ver, "net_version"); err != nil {
		return nil, err
	}
	version, ok := new(big.Int).SetString(ver, 0)
	if !ok {
		return nil, fmt.Errorf("invalid net_version result %q", ver)
	}
	return version, nil
}

// CodeAt returns the contract code of the given account at the given block.
func (c *Client) CodeAt(ctx context.Context, account common.Address, id rpc.BlockNumberOrHash) ([]byte, error) {
	var result hexutil.Bytes
	err := c.call(ctx, &result, "eth_getCode", account, toBlockParam(id))
	return result, err
}

// toBlockIDArg renders the number part of a block identifier. An empty
// identifier means the latest block.
func toBlockIDArg(id rpc.BlockNumberOrHash) string {
	if num, ok := id.Number(); ok {
		return num.String()
	}
	return "latest"
}

// toBlockParam renders a block identifier for methods that accept the
// EIP-1898 block hash object as well as a number or tag.
func toBlockParam(id rpc.BlockNumberOrHash) interface{} {
	if hash, ok := id.Hash(); ok {
		return map[string]interface{}{
			"blockHash":        hash,
			"requireCanonical": id.RequireCanonical,
		}
	}
	return toBlockIDArg(id)
}

// toCallArg converts an ethereum.CallMsg to the appropriate RPC argument.
func toCallArg(msg ethereum.CallMsg) interface{} {
	arg := map[string]interface{}{
		"from": msg.From,
	}
	if msg.To != nil {
		arg["to"] = msg.To
	}
	if len(msg.Data) > 0 {
		arg["input"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	if msg.GasFeeCap != nil {
		arg["maxFeePerGas"] = (*hexutil.Big)(msg.GasFeeCap)
	}
	if msg.GasTipCap != nil {
		arg["maxPriorityFeePerGas"] = (*hexutil.Big)(msg.GasTipCap)
	}
	if msg.AccessList != nil {
		arg["accessList"] = msg.AccessList
	}
	return arg
}
