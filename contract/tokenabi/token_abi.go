package tokenabi

//nolint:golint
import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/intraverse/tx-indexer/contract/abi"
)

//go:embed erc1155.json
var erc1155JSONABI string

const (
	TransferSingle = "event TransferSingle(address indexed operator, address indexed from, address indexed to, uint256 id, uint256 value)"
	TransferBatch  = "event TransferBatch(address indexed operator, address indexed from, address indexed to, uint256[] ids, uint256[] values)"
)

var ErrUnknownEvent = errors.New("unknown token event")

var (
	ERC1155ABI = abi.MustReadABI(erc1155JSONABI)

	TransferSingleEventSignature = ERC1155ABI.Events["TransferSingle"].ID
	TransferBatchEventSignature  = ERC1155ABI.Events["TransferBatch"].ID

	TransferEventSignatures = ERC1155ABI.EventIDs("TransferSingle", "TransferBatch")
)

type Transfer struct {
	Event    string
	Operator common.Address
	From     common.Address
	To       common.Address
}

// ParseTransfer decodes TransferSingle and TransferBatch logs.
func ParseTransfer(log *types.Log) (*Transfer, error) {
	event, data, err := ERC1155ABI.ParseLog(log)
	if err != nil {
		return nil, err
	}
	if event != TransferSingle && event != TransferBatch {
		return nil, fmt.Errorf("can't parse log %d in tx %s: %w", log.Index, log.TxHash, ErrUnknownEvent)
	}
	operator, _ := data["operator"].(common.Address)
	from, _ := data["from"].(common.Address)
	to, _ := data["to"].(common.Address)
	return &Transfer{
		Event:    event,
		Operator: operator,
		From:     from,
		To:       to,
	}, nil
}
