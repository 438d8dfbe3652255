package indexer_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/intraverse/tx-indexer/broadcast"
	"github.com/intraverse/tx-indexer/contract/tokenabi"
	"github.com/intraverse/tx-indexer/entity"
	"github.com/intraverse/tx-indexer/ethclient"
)

var (
	errUnavailable = errors.New("upstream unavailable")

	contractAddress = common.HexToAddress("0xC82E0CE02623972330164657e8C3e568d8f351FA")
	operator        = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice           = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob             = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	carol           = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	sender          = common.HexToAddress("0x00000000000000000000000000000000000000ee")
)

const blockTimeOffset = 1_700_000_000

func transferLog(block uint64, txHash common.Hash, from, to common.Address) types.Log {
	data, err := tokenabi.ERC1155ABI.Events["TransferSingle"].Inputs.NonIndexed().Pack(big.NewInt(1), big.NewInt(1))
	if err != nil {
		panic(err)
	}
	return types.Log{
		Address:     contractAddress,
		Topics:      []common.Hash{tokenabi.TransferSingleEventSignature, operator.Hash(), from.Hash(), to.Hash()},
		Data:        data,
		BlockNumber: block,
		TxHash:      txHash,
	}
}

type fakeChain struct {
	mu           sync.Mutex
	heads        []uint
	headErrs     []error
	logs         []types.Log
	receipts     map[common.Hash]*ethclient.Receipt
	filterErr    func(from, to uint) error
	headerErr    error
	filterRanges [][2]uint
	headerCalls  int
	receiptCalls int
}

func newFakeChain(head uint, logs ...types.Log) *fakeChain {
	c := &fakeChain{
		heads:    []uint{head},
		logs:     logs,
		receipts: make(map[common.Hash]*ethclient.Receipt),
	}
	to := contractAddress
	for _, log := range logs {
		c.receipts[log.TxHash] = &ethclient.Receipt{
			TransactionHash:   log.TxHash,
			BlockNumber:       (*hexutil.Big)(new(big.Int).SetUint64(log.BlockNumber)),
			From:              sender,
			To:                &to,
			GasUsed:           (*hexutil.Big)(big.NewInt(21000)),
			EffectiveGasPrice: (*hexutil.Big)(big.NewInt(1_000_000_000)),
			Status:            1,
		}
	}
	return c
}

func (c *fakeChain) BlockNumber(ctx context.Context) (uint, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.headErrs) > 0 {
		err := c.headErrs[0]
		c.headErrs = c.headErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	head := c.heads[0]
	if len(c.heads) > 1 {
		c.heads = c.heads[1:]
	}
	return head, nil
}

func (c *fakeChain) HeaderByNumber(ctx context.Context, n uint) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headerCalls++
	if c.headerErr != nil {
		return nil, c.headerErr
	}
	return &types.Header{
		Number: new(big.Int).SetUint64(uint64(n)),
		Time:   uint64(blockTimeOffset + n),
	}, nil
}

func (c *fakeChain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	from, to := uint(q.FromBlock.Uint64()), uint(q.ToBlock.Uint64())
	c.mu.Lock()
	c.filterRanges = append(c.filterRanges, [2]uint{from, to})
	filterErr := c.filterErr
	c.mu.Unlock()
	if filterErr != nil {
		if err := filterErr(from, to); err != nil {
			return nil, err
		}
	}
	var res []types.Log
	for _, log := range c.logs {
		if log.BlockNumber >= uint64(from) && log.BlockNumber <= uint64(to) {
			res = append(res, log)
		}
	}
	return res, nil
}

func (c *fakeChain) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethclient.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiptCalls++
	receipt, ok := c.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (c *fakeChain) FilterRanges() [][2]uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][2]uint(nil), c.filterRanges...)
}

func (c *fakeChain) Calls() (headers, receipts int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headerCalls, c.receiptCalls
}

type fakeTransactionsRepo struct {
	mu  sync.Mutex
	txs map[common.Hash]*entity.Transaction
	err error
}

func newFakeTransactionsRepo() *fakeTransactionsRepo {
	return &fakeTransactionsRepo{txs: make(map[common.Hash]*entity.Transaction)}
}

func (r *fakeTransactionsRepo) Ensure(ctx context.Context, tx *entity.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	if _, ok := r.txs[tx.Hash]; ok {
		return false, nil
	}
	clone := *tx
	r.txs[tx.Hash] = &clone
	return true, nil
}

func (r *fakeTransactionsRepo) FindExistingHashes(ctx context.Context, hashes []common.Hash) ([]common.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []common.Hash
	for _, hash := range hashes {
		if _, ok := r.txs[hash]; ok {
			found = append(found, hash)
		}
	}
	return found, nil
}

func (r *fakeTransactionsRepo) FindPage(ctx context.Context, limit, offset uint) ([]*entity.Transaction, error) {
	return nil, nil
}

func (r *fakeTransactionsRepo) Count(ctx context.Context) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint(len(r.txs)), nil
}

func (r *fakeTransactionsRepo) Summary(ctx context.Context) (*entity.TransactionsSummary, error) {
	return &entity.TransactionsSummary{}, nil
}

func (r *fakeTransactionsRepo) DailyStats(ctx context.Context, from, to time.Time) ([]*entity.DailyStats, error) {
	return nil, nil
}

func (r *fakeTransactionsRepo) Get(hash common.Hash) *entity.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txs[hash]
}

type fakeStateRepo struct {
	mu      sync.Mutex
	block   uint
	updates []uint
}

func (r *fakeStateRepo) GetLastIndexedBlock(ctx context.Context) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.block, nil
}

func (r *fakeStateRepo) UpdateLastIndexedBlock(ctx context.Context, blockNumber uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, blockNumber)
	if blockNumber > r.block {
		r.block = blockNumber
	}
	return nil
}

func (r *fakeStateRepo) Updates() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint(nil), r.updates...)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *fakePublisher) Publish(event broadcast.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return 1
}

func (p *fakePublisher) Events() []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]broadcast.Event(nil), p.events...)
}
