package main

import (
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

var blockTags = map[string]rpc.BlockNumber{
	"earliest":  rpc.EarliestBlockNumber,
	"latest":    rpc.LatestBlockNumber,
	"pending":   rpc.PendingBlockNumber,
	"safe":      rpc.SafeBlockNumber,
	"finalized": rpc.FinalizedBlockNumber,
}

// parseBlockID accepts a block tag, a decimal or 0x-prefixed number, or a
// 32 byte block hash.
func parseBlockID(s string) (rpc.BlockNumberOrHash, error) {
	s = strings.TrimSpace(s)
	if tag, ok := blockTags[strings.ToLower(s)]; ok {
		return rpc.BlockNumberOrHashWithNumber(tag), nil
	}

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if len(s) == 2+2*common.HashLength {
			hash, err := hexutil.Decode(s)
			if err != nil {
				return rpc.BlockNumberOrHash{}, errors.Wrapf(err, "invalid block hash %q", s)
			}
			return rpc.BlockNumberOrHashWithHash(common.BytesToHash(hash), false), nil
		}
		n, err := hexutil.DecodeUint64(s)
		if err != nil {
			return rpc.BlockNumberOrHash{}, errors.Wrapf(err, "invalid block number %q", s)
		}
		return withNumber(n)
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return rpc.BlockNumberOrHash{}, errors.Errorf("invalid block identifier %q", s)
	}
	return withNumber(n)
}

func withNumber(n uint64) (rpc.BlockNumberOrHash, error) {
	if n > math.MaxInt64 {
		return rpc.BlockNumberOrHash{}, errors.Errorf("block number %d too large", n)
	}
	return rpc.BlockNumberOrHashWithNumber(rpc.BlockNumber(n)), nil
}
