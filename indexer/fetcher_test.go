package indexer_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/intraverse/tx-indexer/broadcast"
	"github.com/intraverse/tx-indexer/entity"
	"github.com/intraverse/tx-indexer/ethclient"
	"github.com/intraverse/tx-indexer/indexer"
	"github.com/intraverse/tx-indexer/logging"
)

func newTestFetcher(chain *fakeChain, txs *fakeTransactionsRepo, publisher *fakePublisher, walletFilter *common.Address) *indexer.Fetcher {
	return indexer.NewFetcher(logging.New(), chain, txs, publisher, contractAddress, walletFilter)
}

func TestFetcher_FetchRange_Mint(t *testing.T) {
	t.Parallel()

	hash := common.HexToHash("0x01")
	chain := newFakeChain(100, transferLog(50, hash, common.Address{}, alice))
	txs, publisher := newFakeTransactionsRepo(), new(fakePublisher)

	n, err := newTestFetcher(chain, txs, publisher, nil).FetchRange(context.Background(), &indexer.BlockRange{From: 1, To: 100})
	require.NoError(t, err)
	require.Equal(t, uint(1), n)

	tx := txs.Get(hash)
	require.NotNil(t, tx)
	require.Equal(t, &entity.Transaction{
		Hash:              hash,
		BlockNumber:       50,
		Timestamp:         time.Unix(blockTimeOffset+50, 0).UTC(),
		FromAddress:       sender,
		ToAddress:         contractAddress,
		Method:            entity.MethodMint,
		GasUsed:           "21000",
		EffectiveGasPrice: "1000000000",
	}, tx)
	require.Equal(t, []broadcast.Event{broadcast.NewTxIndexedEvent(hash, "mint", 50)}, publisher.Events())
}

func TestFetcher_FetchRange_Upgrade(t *testing.T) {
	t.Parallel()

	hash := common.HexToHash("0x02")
	chain := newFakeChain(100, transferLog(60, hash, alice, bob))
	txs, publisher := newFakeTransactionsRepo(), new(fakePublisher)

	n, err := newTestFetcher(chain, txs, publisher, nil).FetchRange(context.Background(), &indexer.BlockRange{From: 60, To: 60})
	require.NoError(t, err)
	require.Equal(t, uint(1), n)
	require.Equal(t, entity.MethodUpgrade, txs.Get(hash).Method)
	require.Equal(t, "upgrade", publisher.Events()[0].Method)
}

func TestFetcher_FetchRange_NoLogs(t *testing.T) {
	t.Parallel()

	chain := newFakeChain(100)
	txs, publisher := newFakeTransactionsRepo(), new(fakePublisher)

	n, err := newTestFetcher(chain, txs, publisher, nil).FetchRange(context.Background(), &indexer.BlockRange{From: 1, To: 100})
	require.NoError(t, err)
	require.Zero(t, n)
	headers, receipts := chain.Calls()
	require.Zero(t, headers)
	require.Zero(t, receipts)
	require.Empty(t, publisher.Events())
}

func TestFetcher_FetchRange_DeduplicatesByHash(t *testing.T) {
	t.Parallel()

	hash := common.HexToHash("0x03")
	chain := newFakeChain(100,
		transferLog(10, hash, common.Address{}, alice),
		transferLog(10, hash, common.Address{}, bob),
		transferLog(11, common.HexToHash("0x04"), alice, bob),
	)
	txs, publisher := newFakeTransactionsRepo(), new(fakePublisher)

	n, err := newTestFetcher(chain, txs, publisher, nil).FetchRange(context.Background(), &indexer.BlockRange{From: 1, To: 100})
	require.NoError(t, err)
	require.Equal(t, uint(2), n)
	headers, receipts := chain.Calls()
	require.Equal(t, 2, headers)
	require.Equal(t, 2, receipts)
	require.Len(t, publisher.Events(), 2)
}

func TestFetcher_FetchRange_Idempotent(t *testing.T) {
	t.Parallel()

	chain := newFakeChain(100,
		transferLog(10, common.HexToHash("0x05"), common.Address{}, alice),
		transferLog(20, common.HexToHash("0x06"), alice, bob),
	)
	txs, publisher := newFakeTransactionsRepo(), new(fakePublisher)
	fetcher := newTestFetcher(chain, txs, publisher, nil)
	r := &indexer.BlockRange{From: 1, To: 100}

	n, err := fetcher.FetchRange(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, uint(2), n)

	n, err = fetcher.FetchRange(context.Background(), r)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Len(t, publisher.Events(), 2)
	count, err := txs.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint(2), count)
}

func TestFetcher_FetchRange_WalletFilter(t *testing.T) {
	t.Parallel()

	shared := common.HexToHash("0x07")
	chain := newFakeChain(100,
		transferLog(10, common.HexToHash("0x08"), alice, bob),
		transferLog(11, shared, bob, alice),
		transferLog(11, shared, bob, carol),
		transferLog(12, common.HexToHash("0x09"), carol, bob),
		transferLog(13, common.HexToHash("0x0a"), common.Address{}, carol),
	)
	txs, publisher := newFakeTransactionsRepo(), new(fakePublisher)
	filter := common.HexToAddress("0x00000000000000000000000000000000000000C0")

	n, err := newTestFetcher(chain, txs, publisher, &filter).FetchRange(context.Background(), &indexer.BlockRange{From: 1, To: 100})
	require.NoError(t, err)
	require.Equal(t, uint(3), n)
	require.Nil(t, txs.Get(common.HexToHash("0x08")))
	require.NotNil(t, txs.Get(shared))
	require.NotNil(t, txs.Get(common.HexToHash("0x09")))
	require.NotNil(t, txs.Get(common.HexToHash("0x0a")))
}

func TestFetcher_FetchRange_ContractCreationReceipt(t *testing.T) {
	t.Parallel()

	hash := common.HexToHash("0x0b")
	chain := newFakeChain(100, transferLog(10, hash, common.Address{}, alice))
	chain.receipts[hash].To = nil
	chain.receipts[hash].EffectiveGasPrice = nil
	txs, publisher := newFakeTransactionsRepo(), new(fakePublisher)

	_, err := newTestFetcher(chain, txs, publisher, nil).FetchRange(context.Background(), &indexer.BlockRange{From: 1, To: 100})
	require.NoError(t, err)
	require.Equal(t, contractAddress, txs.Get(hash).ToAddress)
	require.Equal(t, "0", txs.Get(hash).EffectiveGasPrice)
}

func TestFetcher_FetchRange_Errors(t *testing.T) {
	t.Parallel()

	t.Run("range too large", func(t *testing.T) {
		t.Parallel()
		chain := newFakeChain(100)
		chain.filterErr = func(from, to uint) error {
			return fmt.Errorf("%w: query returned more than 10000 results", ethclient.ErrRangeTooLarge)
		}
		_, err := newTestFetcher(chain, newFakeTransactionsRepo(), new(fakePublisher), nil).FetchRange(context.Background(), &indexer.BlockRange{From: 1, To: 100})
		require.ErrorIs(t, err, ethclient.ErrRangeTooLarge)
	})

	t.Run("header", func(t *testing.T) {
		t.Parallel()
		chain := newFakeChain(100, transferLog(10, common.HexToHash("0x0c"), common.Address{}, alice))
		chain.headerErr = errUnavailable
		txs, publisher := newFakeTransactionsRepo(), new(fakePublisher)
		_, err := newTestFetcher(chain, txs, publisher, nil).FetchRange(context.Background(), &indexer.BlockRange{From: 1, To: 100})
		require.ErrorIs(t, err, errUnavailable)
		_, receipts := chain.Calls()
		require.Zero(t, receipts)
		require.Empty(t, publisher.Events())
	})

	t.Run("receipt", func(t *testing.T) {
		t.Parallel()
		hash := common.HexToHash("0x0d")
		chain := newFakeChain(100, transferLog(10, hash, common.Address{}, alice))
		delete(chain.receipts, hash)
		_, err := newTestFetcher(chain, newFakeTransactionsRepo(), new(fakePublisher), nil).FetchRange(context.Background(), &indexer.BlockRange{From: 1, To: 100})
		require.Error(t, err)
	})

	t.Run("store", func(t *testing.T) {
		t.Parallel()
		chain := newFakeChain(100, transferLog(10, common.HexToHash("0x0e"), common.Address{}, alice))
		txs, publisher := newFakeTransactionsRepo(), new(fakePublisher)
		txs.err = errUnavailable
		_, err := newTestFetcher(chain, txs, publisher, nil).FetchRange(context.Background(), &indexer.BlockRange{From: 1, To: 100})
		require.ErrorIs(t, err, errUnavailable)
		require.Empty(t, publisher.Events())
	})
}
