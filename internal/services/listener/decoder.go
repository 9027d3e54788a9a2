package listener

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/yoframe/yo-pipeline/internal/domain/jobs"
)

// YoEventSig is the topic0 of the contract's transfer event:
// YoEvent(address indexed from, address indexed to,
// uint256 indexed amount, bytes data).
var YoEventSig = crypto.Keccak256Hash([]byte("YoEvent(address,address,uint256,bytes)"))

var errMalformedLog = errors.New("log does not match the transfer event layout")

var dataArgs = func() abi.Arguments {
	t, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Name: "data", Type: t}}
}()

// DecodeLog turns a raw contract log into a queueable job. All three
// value fields are indexed, so they come from topics; only the opaque
// metadata bytes live in the log data.
func DecodeLog(lg types.Log) (jobs.OnchainMessage, error) {
	if len(lg.Topics) != 4 || lg.Topics[0] != YoEventSig || len(lg.Data) == 0 {
		return jobs.OnchainMessage{}, errMalformedLog
	}

	vals, err := dataArgs.Unpack(lg.Data)
	if err != nil {
		return jobs.OnchainMessage{}, errMalformedLog
	}
	data, ok := vals[0].([]byte)
	if !ok {
		return jobs.OnchainMessage{}, errMalformedLog
	}

	from := common.BytesToAddress(lg.Topics[1].Bytes())
	to := common.BytesToAddress(lg.Topics[2].Bytes())
	amount := new(big.Int).SetBytes(lg.Topics[3].Bytes())

	return jobs.OnchainMessage{
		TransactionHash: lg.TxHash.Hex(),
		LogIndex:        lg.Index,
		FromAddress:     from.Hex(),
		ToAddress:       to.Hex(),
		Amount:          amount.String(),
		Data:            data,
	}, nil
}
