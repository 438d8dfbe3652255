package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/intraverse/tx-indexer/broadcast"
	"github.com/intraverse/tx-indexer/contract/tokenabi"
	"github.com/intraverse/tx-indexer/entity"
	"github.com/intraverse/tx-indexer/ethclient"
	"github.com/intraverse/tx-indexer/logging"
)

const maxTimestampRequests = 10

type Publisher interface {
	Publish(event broadcast.Event) int
}

// Fetcher indexes token transfer transactions of a single block range.
type Fetcher struct {
	logger       logging.Logger
	client       ethclient.Client
	txs          entity.TransactionsRepo
	publisher    Publisher
	contract     common.Address
	walletFilter *common.Address
}

func NewFetcher(logger logging.Logger, client ethclient.Client, txs entity.TransactionsRepo, publisher Publisher, contract common.Address, walletFilter *common.Address) *Fetcher {
	return &Fetcher{
		logger:       logger,
		client:       client,
		txs:          txs,
		publisher:    publisher,
		contract:     contract,
		walletFilter: walletFilter,
	}
}

// FetchRange returns the number of newly inserted transactions. Errors from eth_getLogs keep
// ethclient.ErrRangeTooLarge in their chain.
func (f *Fetcher) FetchRange(ctx context.Context, r *BlockRange) (uint, error) {
	logs, err := f.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(uint64(r.From)),
		ToBlock:   new(big.Int).SetUint64(uint64(r.To)),
		Addresses: []common.Address{f.contract},
		Topics:    [][]common.Hash{tokenabi.TransferEventSignatures},
	})
	if err != nil {
		return 0, fmt.Errorf("can't fetch logs in range %s: %w", r, err)
	}
	if len(logs) == 0 {
		return 0, nil
	}
	f.logger.WithFields(logrus.Fields{
		"count":      len(logs),
		"from_block": r.From,
		"to_block":   r.To,
	}).Debug("fetched logs in range")

	timestamps, err := f.blockTimestamps(ctx, logs)
	if err != nil {
		return 0, err
	}

	processed := make(map[common.Hash]bool, len(logs))
	var indexed uint
	for i := range logs {
		log := &logs[i]
		if log.Removed || processed[log.TxHash] {
			continue
		}
		transfer, err := tokenabi.ParseTransfer(log)
		if err != nil {
			return 0, fmt.Errorf("can't parse transfer log: %w", err)
		}
		if !f.matchesWalletFilter(transfer) {
			continue
		}
		processed[log.TxHash] = true

		method := entity.MethodUpgrade
		if transfer.From == (common.Address{}) {
			method = entity.MethodMint
		}
		inserted, err := f.indexTransaction(ctx, log, method, timestamps[log.BlockNumber])
		if err != nil {
			return 0, err
		}
		if inserted {
			indexed++
		}
	}
	return indexed, nil
}

func (f *Fetcher) matchesWalletFilter(transfer *tokenabi.Transfer) bool {
	if f.walletFilter == nil {
		return true
	}
	return transfer.From == *f.walletFilter || transfer.To == *f.walletFilter
}

func (f *Fetcher) blockTimestamps(ctx context.Context, logs []types.Log) (map[uint64]time.Time, error) {
	blocks := make([]uint64, 0, len(logs))
	seen := make(map[uint64]bool, len(logs))
	for _, log := range logs {
		if !seen[log.BlockNumber] {
			seen[log.BlockNumber] = true
			blocks = append(blocks, log.BlockNumber)
		}
	}

	res := make([]time.Time, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxTimestampRequests)
	for i, block := range blocks {
		i, block := i, block
		g.Go(func() error {
			header, err := f.client.HeaderByNumber(gctx, uint(block))
			if err != nil {
				return fmt.Errorf("can't request block header %d: %w", block, err)
			}
			res[i] = time.Unix(int64(header.Time), 0).UTC()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	timestamps := make(map[uint64]time.Time, len(blocks))
	for i, block := range blocks {
		timestamps[block] = res[i]
	}
	return timestamps, nil
}

func (f *Fetcher) indexTransaction(ctx context.Context, log *types.Log, method entity.Method, timestamp time.Time) (bool, error) {
	logger := f.logger.WithFields(logrus.Fields{
		"tx_hash":      log.TxHash,
		"block_number": log.BlockNumber,
		"method":       method,
	})
	receipt, err := f.client.TransactionReceipt(ctx, log.TxHash)
	if err != nil {
		return false, fmt.Errorf("can't get receipt of tx %s: %w", log.TxHash, err)
	}
	to := log.Address
	if receipt.To != nil {
		to = *receipt.To
	}
	tx := &entity.Transaction{
		Hash:              log.TxHash,
		BlockNumber:       uint(log.BlockNumber),
		Timestamp:         timestamp,
		FromAddress:       receipt.From,
		ToAddress:         to,
		Method:            method,
		GasUsed:           bigString(receipt.GasUsed),
		EffectiveGasPrice: bigString(receipt.EffectiveGasPrice),
	}
	inserted, err := f.txs.Ensure(ctx, tx)
	if err != nil {
		return false, fmt.Errorf("can't save tx %s: %w", log.TxHash, err)
	}
	if !inserted {
		logger.Trace("transaction already indexed")
		return false, nil
	}

	IndexedTransactions.WithLabelValues(string(method)).Inc()
	sent := f.publisher.Publish(broadcast.NewTxIndexedEvent(tx.Hash, string(method), tx.BlockNumber))
	logger.WithField("clients", sent).Debug("indexed transaction")
	return true, nil
}

func bigString(n *hexutil.Big) string {
	if n == nil {
		return "0"
	}
	return n.ToInt().String()
}
