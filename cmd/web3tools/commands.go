package main

import (
	"encoding/json"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func (a *app) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "receipt",
			Usage:     "Print a transaction receipt, null if not mined yet",
			ArgsUsage: "<tx hash>",
			Action:    a.receipt,
		},
		{
			Name:      "block",
			Usage:     "Print a block with its transaction hashes",
			ArgsUsage: "<number|tag|hash>",
			Action:    a.block,
		},
		{
			Name:  "estimate-gas",
			Usage: "Estimate the gas a transaction would use",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "from"},
				&cli.StringFlag{Name: "to", Usage: "Recipient, empty for contract creation"},
				&cli.StringFlag{Name: "value", Usage: "Value in wei (decimal or 0x hex)"},
				&cli.StringFlag{Name: "data", Usage: "Hex encoded call data"},
				&cli.Uint64Flag{Name: "gas", Usage: "Gas cap for the estimation"},
			},
			Action: a.estimateGas,
		},
		{
			Name:   "gas-price",
			Usage:  "Print the current gas price in wei",
			Action: a.gasPrice,
		},
		{
			Name:   "accounts",
			Usage:  "List the accounts managed by the node",
			Action: a.accounts,
		},
		{
			Name:  "deploy",
			Usage: "Deploy a contract without constructor arguments from a node-managed account",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "abi", Usage: "Path to the contract ABI json", Required: true},
				&cli.StringFlag{Name: "bin", Usage: "Path to the hex encoded creation bytecode", Required: true},
				&cli.StringFlag{Name: "from", Usage: "Deployer account", Required: true},
				&cli.Uint64Flag{Name: "gas", Usage: "Gas limit", Value: 3000000},
			},
			Action: a.deploy,
		},
		{
			Name:   "network-id",
			Usage:  "Print the network ID",
			Action: a.networkID,
		},
		{
			Name:   "block-number",
			Usage:  "Print the latest block number",
			Action: a.blockNumber,
		},
		{
			Name:      "block-tx-count",
			Usage:     "Print the number of transactions in a block",
			ArgsUsage: "<number|tag|hash>",
			Action:    a.blockTxCount,
		},
	}
}

func (a *app) receipt(c *cli.Context) error {
	arg, err := singleArg(c)
	if err != nil {
		return err
	}
	hash, err := hexutil.Decode(arg)
	if err != nil || len(hash) != common.HashLength {
		return errors.Errorf("invalid transaction hash %q", arg)
	}
	receipt, err := a.tools.FetchTransactionReceipt(c.Context, common.BytesToHash(hash))
	if err != nil {
		return err
	}
	return printJSON(c, receipt)
}

func (a *app) block(c *cli.Context) error {
	id, err := blockArg(c)
	if err != nil {
		return err
	}
	block, err := a.tools.FetchBlockDetails(c.Context, id)
	if err != nil {
		return err
	}
	return printJSON(c, block)
}

func (a *app) estimateGas(c *cli.Context) error {
	msg, err := callMsgFromFlags(c)
	if err != nil {
		return err
	}
	gas, err := a.tools.EstimateGasUsage(c.Context, msg)
	if err != nil {
		return err
	}
	return printJSON(c, map[string]uint64{"gas": gas})
}

func (a *app) gasPrice(c *cli.Context) error {
	price, err := a.tools.FetchGasPrice(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, map[string]string{"gasPrice": price.String()})
}

func (a *app) accounts(c *cli.Context) error {
	accounts, err := a.tools.FetchUserAccounts(c.Context)
	if err != nil {
		return err
	}
	if accounts == nil {
		accounts = []common.Address{}
	}
	return printJSON(c, accounts)
}

func (a *app) deploy(c *cli.Context) error {
	abiFile, err := os.Open(c.String("abi"))
	if err != nil {
		return errors.Wrap(err, "failed to open abi")
	}
	defer abiFile.Close()
	parsed, err := abi.JSON(abiFile)
	if err != nil {
		return errors.Wrap(err, "failed to parse abi")
	}

	bin, err := os.ReadFile(c.String("bin"))
	if err != nil {
		return errors.Wrap(err, "failed to read bytecode")
	}
	from, err := addressArg(c.String("from"))
	if err != nil {
		return err
	}

	dep, err := a.tools.DeployContract(c.Context, parsed, strings.TrimSpace(string(bin)), from, c.Uint64("gas"))
	if err != nil {
		return err
	}
	return printJSON(c, dep)
}

func (a *app) networkID(c *cli.Context) error {
	id, err := a.tools.FetchNetworkID(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, map[string]string{"networkId": id.String()})
}

func (a *app) blockNumber(c *cli.Context) error {
	n, err := a.tools.FetchLatestBlockNumber(c.Context)
	if err != nil {
		return err
	}
	return printJSON(c, map[string]uint64{"blockNumber": n})
}

func (a *app) blockTxCount(c *cli.Context) error {
	id, err := blockArg(c)
	if err != nil {
		return err
	}
	n, err := a.tools.FetchBlockTransactionCount(c.Context, id)
	if err != nil {
		return err
	}
	return printJSON(c, map[string]uint64{"transactionCount": n})
}

func callMsgFromFlags(c *cli.Context) (ethereum.CallMsg, error) {
	var msg ethereum.CallMsg
	if s := c.String("from"); s != "" {
		from, err := addressArg(s)
		if err != nil {
			return msg, err
		}
		msg.From = from
	}
	if s := c.String("to"); s != "" {
		to, err := addressArg(s)
		if err != nil {
			return msg, err
		}
		msg.To = &to
	}
	if s := c.String("value"); s != "" {
		value, ok := new(big.Int).SetString(s, 0)
		if !ok || value.Sign() < 0 {
			return msg, errors.Errorf("invalid value %q", s)
		}
		msg.Value = value
	}
	if s := c.String("data"); s != "" {
		data, err := hexutil.Decode(s)
		if err != nil {
			return msg, errors.Wrap(err, "invalid data")
		}
		msg.Data = data
	}
	msg.Gas = c.Uint64("gas")
	return msg, nil
}

func singleArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.Errorf("expected 1 argument, got %d", c.NArg())
	}
	return c.Args().First(), nil
}

func blockArg(c *cli.Context) (rpc.BlockNumberOrHash, error) {
	arg, err := singleArg(c)
	if err != nil {
		return rpc.BlockNumberOrHash{}, err
	}
	return parseBlockID(arg)
}

func addressArg(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
