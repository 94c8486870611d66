package ethclient

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRPCServer creates a test HTTP server that responds to JSON-RPC requests.
func mockRPCServer(t *testing.T, handler func(method string, params []json.RawMessage) (interface{}, error)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID      json.RawMessage   `json:"id"`
			Method  string            `json:"method"`
			Params  []json.RawMessage `json:"params"`
			JSONRPC string            `json:"jsonrpc"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}

		result, err := handler(req.Method, req.Params)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if err != nil {
			resp["error"] = map[string]interface{}{
				"code":    -32000,
				"message": err.Error(),
			}
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func dialMock(t *testing.T, server *httptest.Server) *Client {
	client, err := Dial(server.URL)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func TestBlockNumber(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		assert.Equal(t, "eth_blockNumber", method)
		return "0x3039", nil
	})
	defer server.Close()

	client := dialMock(t, server)

	blockNum, err := client.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), blockNum)
}

func TestNetworkID(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		assert.Equal(t, "net_version", method)
		return "5777", nil
	})
	defer server.Close()

	client := dialMock(t, server)

	id, err := client.NetworkID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5777), id)
}

func TestNetworkID_Invalid(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return "not-a-number", nil
	})
	defer server.Close()

	client := dialMock(t, server)

	_, err := client.NetworkID(context.Background())
	assert.ErrorContains(t, err, "invalid net_version result")
}

func TestSuggestGasPrice(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		assert.Equal(t, "eth_gasPrice", method)
		return "0x77359400", nil // 2 Gwei
	})
	defer server.Close()

	client := dialMock(t, server)

	gasPrice, err := client.SuggestGasPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2000000000), gasPrice)
}

func TestSuggestGasPrice_RPCError(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return nil, errors.New("node unavailable")
	})
	defer server.Close()

	client := dialMock(t, server)

	_, err := client.SuggestGasPrice(context.Background())
	require.Error(t, err)
	assert.Equal(t, "node unavailable", err.Error())

	var rpcErr rpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32000, rpcErr.ErrorCode())
}

func TestAccounts(t *testing.T) {
	first := common.HexToAddress("0x1111111111111111111111111111111111111111")
	second := common.HexToAddress("0x2222222222222222222222222222222222222222")

	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		assert.Equal(t, "eth_accounts", method)
		assert.Empty(t, params)
		return []string{first.Hex(), second.Hex()}, nil
	})
	defer server.Close()

	client := dialMock(t, server)

	accounts, err := client.Accounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []common.Address{first, second}, accounts)
}

func TestEstimateGas(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0xabcdef1234567890abcdef1234567890abcdef12")

	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		assert.Equal(t, "eth_estimateGas", method)
		require.Len(t, params, 1)

		var arg map[string]string
		require.NoError(t, json.Unmarshal(params[0], &arg))
		assert.Equal(t, from, common.HexToAddress(arg["from"]))
		assert.Equal(t, to, common.HexToAddress(arg["to"]))
		assert.Equal(t, "0xde0b6b3a7640000", arg["value"])
		assert.Equal(t, "0x010203", arg["input"])

		return "0x5208", nil // 21000 gas
	})
	defer server.Close()

	client := dialMock(t, server)

	gas, err := client.EstimateGas(context.Background(), ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: big.NewInt(1000000000000000000), // 1 ETH
		Data:  []byte{0x01, 0x02, 0x03},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), gas)
}

func TestTransactionReceipt(t *testing.T) {
	txHash := common.HexToHash("0xaa")
	contract := common.HexToAddress("0x3333333333333333333333333333333333333333")

	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		assert.Equal(t, "eth_getTransactionReceipt", method)

		var got common.Hash
		require.NoError(t, json.Unmarshal(params[0], &got))
		assert.Equal(t, txHash, got)

		return minedReceipt(txHash, contract, types.ReceiptStatusSuccessful), nil
	})
	defer server.Close()

	client := dialMock(t, server)

	receipt, err := client.TransactionReceipt(context.Background(), txHash)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, txHash, receipt.TxHash)
	assert.Equal(t, contract, receipt.ContractAddress)
	assert.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
}

func TestTransactionReceipt_Pending(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return nil, nil
	})
	defer server.Close()

	client := dialMock(t, server)

	receipt, err := client.TransactionReceipt(context.Background(), common.HexToHash("0xbb"))
	require.NoError(t, err)
	assert.Nil(t, receipt)
}

func TestBlockByNumberOrHash(t *testing.T) {
	blockHash := common.HexToHash("0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef")
	txHash := common.HexToHash("0x01")
	block := map[string]interface{}{
		"number":       "0x3039",
		"hash":         blockHash.Hex(),
		"parentHash":   "0x0000000000000000000000000000000000000000000000000000000000000000",
		"miner":        "0x0000000000000000000000000000000000000000",
		"difficulty":   "0x0",
		"gasLimit":     "0x1c9c380",
		"gasUsed":      "0x5208",
		"timestamp":    "0x5f5e100",
		"extraData":    "0x",
		"transactions": []string{txHash.Hex()},
		"uncles":       []string{},
	}

	tests := []struct {
		name   string
		id     rpc.BlockNumberOrHash
		method string
		arg    string
	}{
		{"by number", rpc.BlockNumberOrHashWithNumber(12345), "eth_getBlockByNumber", "0x3039"},
		{"latest tag", rpc.BlockNumberOrHashWithNumber(rpc.LatestBlockNumber), "eth_getBlockByNumber", "latest"},
		{"by hash", rpc.BlockNumberOrHashWithHash(blockHash, false), "eth_getBlockByHash", blockHash.Hex()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
				assert.Equal(t, tt.method, method)
				require.Len(t, params, 2)

				var arg string
				require.NoError(t, json.Unmarshal(params[0], &arg))
				assert.Equal(t, tt.arg, arg)

				var fullTx bool
				require.NoError(t, json.Unmarshal(params[1], &fullTx))
				assert.False(t, fullTx)

				return block, nil
			})
			defer server.Close()

			client := dialMock(t, server)

			got, err := client.BlockByNumberOrHash(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, big.NewInt(12345), got.Number.ToInt())
			assert.Equal(t, blockHash, *got.Hash)
			assert.Equal(t, uint64(21000), uint64(got.GasUsed))
			assert.Equal(t, []common.Hash{txHash}, got.Transactions)
		})
	}
}

func TestBlockByNumberOrHash_Pending(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		assert.Equal(t, "eth_getBlockByNumber", method)

		var tag string
		require.NoError(t, json.Unmarshal(params[0], &tag))
		assert.Equal(t, "pending", tag)

		return map[string]interface{}{
			"number":       "0x303a",
			"hash":         nil,
			"nonce":        nil,
			"miner":        nil,
			"parentHash":   "0x0000000000000000000000000000000000000000000000000000000000000001",
			"gasUsed":      "0x0",
			"transactions": []string{},
		}, nil
	})
	defer server.Close()

	client := dialMock(t, server)

	got, err := client.BlockByNumberOrHash(context.Background(), rpc.BlockNumberOrHashWithNumber(rpc.PendingBlockNumber))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12346), got.Number.ToInt())
	assert.Nil(t, got.Hash)
	assert.Nil(t, got.Nonce)
	assert.Nil(t, got.Miner)
	assert.Empty(t, got.Transactions)
}

func TestBlockByNumberOrHash_KeepsNodeObject(t *testing.T) {
	served := `{
		"number": "0x3039",
		"hash": "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef",
		"miner": "0x0000000000000000000000000000000000000001",
		"parentBeaconBlockRoot": "0x00000000000000000000000000000000000000000000000000000000000000aa",
		"requestsHash": "0x00000000000000000000000000000000000000000000000000000000000000bb",
		"withdrawals": [{"index": "0x1", "validatorIndex": "0x2", "address": "0x0000000000000000000000000000000000000003", "amount": "0x4"}],
		"clientExtension": {"note": "kept"},
		"transactions": []
	}`

	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return json.RawMessage(served), nil
	})
	defer server.Close()

	client := dialMock(t, server)

	got, err := client.BlockByNumberOrHash(context.Background(), rpc.BlockNumberOrHashWithNumber(12345))
	require.NoError(t, err)

	assert.Equal(t, common.HexToHash("0xaa"), *got.ParentBeaconBlockRoot)
	assert.Equal(t, common.HexToHash("0xbb"), *got.RequestsHash)
	assert.Equal(t, common.HexToAddress("0x01"), *got.Miner)
	assert.JSONEq(t, served, string(got.Raw()))

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, served, string(out))
}

func TestBlock_MarshalWithoutRaw(t *testing.T) {
	miner := common.HexToAddress("0x01")
	block := &Block{GasUsed: 21000, Miner: &miner}

	out, err := json.Marshal(block)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &fields))
	assert.Equal(t, "0x5208", fields["gasUsed"])
	assert.Equal(t, miner.Hex(), common.HexToAddress(fields["miner"].(string)).Hex())
	assert.Nil(t, block.Raw())
}

func TestBlockByNumberOrHash_NotFound(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return nil, nil
	})
	defer server.Close()

	client := dialMock(t, server)

	_, err := client.BlockByNumberOrHash(context.Background(), rpc.BlockNumberOrHashWithNumber(999999999))
	assert.ErrorIs(t, err, ethereum.NotFound)
}

func TestBlockTransactionCount(t *testing.T) {
	blockHash := common.HexToHash("0xcc")

	tests := []struct {
		name   string
		id     rpc.BlockNumberOrHash
		method string
	}{
		{"by number", rpc.BlockNumberOrHashWithNumber(12345), "eth_getBlockTransactionCountByNumber"},
		{"by hash", rpc.BlockNumberOrHashWithHash(blockHash, false), "eth_getBlockTransactionCountByHash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
				assert.Equal(t, tt.method, method)
				assert.Len(t, params, 1)
				return "0x7", nil
			})
			defer server.Close()

			client := dialMock(t, server)

			count, err := client.BlockTransactionCount(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, uint64(7), count)
		})
	}
}

func TestBlockTransactionCount_NotFound(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return nil, nil
	})
	defer server.Close()

	client := dialMock(t, server)

	_, err := client.BlockTransactionCount(context.Background(), rpc.BlockNumberOrHashWithNumber(1))
	assert.ErrorIs(t, err, ethereum.NotFound)
}

func TestCodeAt(t *testing.T) {
	blockHash := common.HexToHash("0xcc")

	tests := []struct {
		name     string
		id       rpc.BlockNumberOrHash
		expected string
	}{
		{"latest", rpc.BlockNumberOrHashWithNumber(rpc.LatestBlockNumber), `"latest"`},
		{"by number", rpc.BlockNumberOrHashWithNumber(100), `"0x64"`},
		{"by hash", rpc.BlockNumberOrHashWithHash(blockHash, true), `{"blockHash":"` + blockHash.Hex() + `","requireCanonical":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
				assert.Equal(t, "eth_getCode", method)
				require.Len(t, params, 2)
				assert.JSONEq(t, tt.expected, string(params[1]))
				return "0x6001", nil
			})
			defer server.Close()

			client := dialMock(t, server)

			code, err := client.CodeAt(context.Background(), common.HexToAddress("0x01"), tt.id)
			require.NoError(t, err)
			assert.Equal(t, []byte{0x60, 0x01}, code)
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		time.Sleep(300 * time.Millisecond)
		return "0x1", nil
	})
	defer server.Close()

	client, err := DialContext(context.Background(), server.URL, Config{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer client.Close()

	start := time.Now()
	_, err = client.BlockNumber(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 300*time.Millisecond)
}

func TestToBlockIDArg(t *testing.T) {
	assert.Equal(t, "0x3039", toBlockIDArg(rpc.BlockNumberOrHashWithNumber(12345)))
	assert.Equal(t, "earliest", toBlockIDArg(rpc.BlockNumberOrHashWithNumber(rpc.EarliestBlockNumber)))
	assert.Equal(t, "latest", toBlockIDArg(rpc.BlockNumberOrHash{}))
}

func TestToBlockParam(t *testing.T) {
	hash := common.HexToHash("0xcc")

	assert.Equal(t, "0x3039", toBlockParam(rpc.BlockNumberOrHashWithNumber(12345)))
	assert.Equal(t, "pending", toBlockParam(rpc.BlockNumberOrHashWithNumber(rpc.PendingBlockNumber)))
	assert.Equal(t, map[string]interface{}{
		"blockHash":        hash,
		"requireCanonical": false,
	}, toBlockParam(rpc.BlockNumberOrHashWithHash(hash, false)))
}

func TestToCallArg(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")

	msg := ethereum.CallMsg{
		From:     from,
		To:       &to,
		Gas:      21000,
		GasPrice: big.NewInt(1000000000),
		Value:    big.NewInt(1000000000000000000),
		Data:     []byte{0x01, 0x02, 0x03},
	}

	result := toCallArg(msg).(map[string]interface{})

	assert.Equal(t, from, result["from"])
	assert.Equal(t, &to, result["to"])
	assert.NotNil(t, result["gas"])
	assert.NotNil(t, result["gasPrice"])
	assert.NotNil(t, result["value"])
	assert.NotNil(t, result["input"])
	assert.NotContains(t, result, "maxFeePerGas")
}

func TestToCallArg_ContractCreation(t *testing.T) {
	msg := ethereum.CallMsg{
		From:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Gas:       3000000,
		GasFeeCap: big.NewInt(2000000000),
		GasTipCap: big.NewInt(1000000000),
	}

	result := toCallArg(msg).(map[string]interface{})

	assert.NotContains(t, result, "to")
	assert.NotContains(t, result, "input")
	assert.NotContains(t, result, "gasPrice")
	assert.NotNil(t, result["maxFeePerGas"])
	assert.NotNil(t, result["maxPriorityFeePerGas"])
}

func TestNewClient(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return "0x1", nil
	})
	defer server.Close()

	rpcClient, err := rpc.Dial(server.URL)
	require.NoError(t, err)

	client := NewClient(rpcClient, Config{Timeout: time.Second})
	assert.NotNil(t, client)
	assert.Equal(t, rpcClient, client.Client())
	assert.Equal(t, time.Second, client.Timeout())
	assert.Equal(t, DefaultPollInterval, client.PollInterval())

	client.Close()
}

func TestDial(t *testing.T) {
	server := mockRPCServer(t, func(method string, params []json.RawMessage) (interface{}, error) {
		return "0x1", nil
	})
	defer server.Close()

	client, err := Dial(server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, client.URL())
	assert.Equal(t, DefaultTimeout, client.Timeout())
	client.Close()
}

func TestDialContext_UnsupportedScheme(t *testing.T) {
	_, err := DialContext(context.Background(), "ftp://localhost:8545", DefaultConfig())
	assert.Error(t, err)
}

// minedReceipt builds a receipt that survives the JSON round trip through
// the mock server.
func minedReceipt(txHash common.Hash, contract common.Address, status uint64) *types.Receipt {
	return &types.Receipt{
		Type:              types.LegacyTxType,
		Status:            status,
		CumulativeGasUsed: 21000,
		Logs:              []*types.Log{},
		TxHash:            txHash,
		ContractAddress:   contract,
		GasUsed:           21000,
		BlockNumber:       big.NewInt(1),
	}
}
