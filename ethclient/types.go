package ethclient

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block is a block record as returned by eth_getBlockByNumber and
// eth_getBlockByHash with transaction hashes instead of full bodies.
//
// The typed fields are a view of the common header fields. The node's object
// is kept as received: Raw returns it and MarshalJSON reproduces it, so
// fields without a typed counterpart (withdrawals, fork additions, client
// extensions) are not lost.
//
// Number, Hash, Nonce and Miner are nil for pending blocks. Fields introduced
// by later forks are nil when the node does not report them.
type Block struct {
	Number                *hexutil.Big      `json:"number"`
	Hash                  *common.Hash      `json:"hash"`
	ParentHash            common.Hash       `json:"parentHash"`
	Nonce                 *types.BlockNonce `json:"nonce"`
	MixHash               common.Hash       `json:"mixHash"`
	Sha3Uncles            common.Hash       `json:"sha3Uncles"`
	LogsBloom             *types.Bloom      `json:"logsBloom"`
	TransactionsRoot      common.Hash       `json:"transactionsRoot"`
	StateRoot             common.Hash       `json:"stateRoot"`
	ReceiptsRoot          common.Hash       `json:"receiptsRoot"`
	Miner                 *common.Address   `json:"miner"`
	Difficulty            *hexutil.Big      `json:"difficulty"`
	TotalDifficulty       *hexutil.Big      `json:"totalDifficulty,omitempty"`
	ExtraData             hexutil.Bytes     `json:"extraData"`
	Size                  hexutil.Uint64    `json:"size"`
	GasLimit              hexutil.Uint64    `json:"gasLimit"`
	GasUsed               hexutil.Uint64    `json:"gasUsed"`
	Timestamp             hexutil.Uint64    `json:"timestamp"`
	BaseFeePerGas         *hexutil.Big      `json:"baseFeePerGas,omitempty"`
	WithdrawalsRoot       *common.Hash      `json:"withdrawalsRoot,omitempty"`
	BlobGasUsed           *hexutil.Uint64   `json:"blobGasUsed,omitempty"`
	ExcessBlobGas         *hexutil.Uint64   `json:"excessBlobGas,omitempty"`
	ParentBeaconBlockRoot *common.Hash      `json:"parentBeaconBlockRoot,omitempty"`
	RequestsHash          *common.Hash      `json:"requestsHash,omitempty"`
	Transactions          []common.Hash     `json:"transactions"`
	Uncles                []common.Hash     `json:"uncles"`

	raw json.RawMessage
}

// UnmarshalJSON decodes the typed view and keeps a copy of input.
func (b *Block) UnmarshalJSON(input []byte) error {
	type block Block
	var dec block
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	*b = Block(dec)
	b.raw = append(json.RawMessage(nil), input...)
	return nil
}

// MarshalJSON returns the object as the node sent it. Blocks built in code
// are encoded from their typed fields.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.raw != nil {
		return b.raw, nil
	}
	type block Block
	return json.Marshal(block(b))
}

// Raw returns the block object as received from the node, nil for blocks
// not decoded from a response.
func (b *Block) Raw() json.RawMessage {
	return b.raw
}

// Deployment describes a mined contract creation.
type Deployment struct {
	Address common.Address `json:"address"`
	TxHash  common.Hash    `json:"transactionHash"`
	Receipt *types.Receipt `json:"receipt"`
}
