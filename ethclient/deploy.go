package ethclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// DeployContract creates a contract from the node-managed account from and
// blocks until the creation transaction is mined.
//
// bytecode is the hex encoded creation code, with or without 0x prefix.
// params are the constructor arguments and are packed according to
// contractABI. The transaction is sent with eth_sendTransaction, so the
// node must hold an unlocked key for from; the gas price is left to the node.
func (c *Client) DeployContract(ctx context.Context, contractABI abi.ABI, bytecode string, from common.Address, gas uint64, params ...interface{}) (*Deployment, error) {
	code, err := decodeBytecode(bytecode)
	if err != nil {
		return nil, err
	}
	input, err := contractABI.Pack("", params...)
	if err != nil {
		return nil, err
	}
	data := append(code, input...)

	var txHash common.Hash
	msg := ethereum.CallMsg{From: from, Gas: gas, Data: data}
	arg := toCallArg(msg).(map[string]interface{})
	// older node schemas only read the creation code from data
	arg["data"] = hexutil.Bytes(data)
	if err := c.call(ctx, &txHash, "eth_sendTransaction", arg); err != nil {
		return nil, err
	}

	receipt, err := c.WaitMined(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, fmt.Errorf("%w: transaction %s", ErrDeploymentReverted, txHash.Hex())
	}

	deployed, err := c.CodeAt(ctx, receipt.ContractAddress, rpc.BlockNumberOrHashWithNumber(rpc.LatestBlockNumber))
	if err != nil {
		return nil, err
	}
	if len(deployed) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCodeAfterDeploy, receipt.ContractAddress.Hex())
	}

	return &Deployment{
		Address: receipt.ContractAddress,
		TxHash:  txHash,
		Receipt: receipt,
	}, nil
}

// WaitMined queries the receipt of txHash every PollInterval until it is
// available or ctx is done. Request errors end the wait immediately.
func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	query := func() error {
		r, err := c.TransactionReceipt(ctx, txHash)
		if err != nil {
			return backoff.Permanent(err)
		}
		if r == nil {
			return ethereum.NotFound
		}
		receipt = r
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(c.cfg.PollInterval), ctx)
	if err := backoff.Retry(query, b); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return receipt, nil
}

func decodeBytecode(bytecode string) ([]byte, error) {
	if !strings.HasPrefix(bytecode, "0x") && !strings.HasPrefix(bytecode, "0X") {
		bytecode = "0x" + bytecode
	}
	return hexutil.Decode(bytecode)
}
