package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/intraverse/tx-indexer/config"
	"github.com/intraverse/tx-indexer/entity"
	"github.com/intraverse/tx-indexer/ethclient"
	"github.com/intraverse/tx-indexer/logging"
	"github.com/intraverse/tx-indexer/repository"
)

type RangeRunner interface {
	Run(ctx context.Context, r *BlockRange) (uint, error)
}

type Indexer struct {
	cfg        *config.IndexerConfig
	logger     logging.Logger
	client     ethclient.Client
	state      entity.IndexerStateRepo
	controller RangeRunner

	mu               sync.Mutex
	lastIndexedBlock uint
}

func NewIndexer(logger logging.Logger, client ethclient.Client, repo *repository.Repo, publisher Publisher, cfg *config.IndexerConfig) *Indexer {
	fetcher := NewFetcher(logger.WithField("component", "fetcher"), client, repo.Transactions, publisher, cfg.ContractAddress, cfg.WalletFilter)
	controller := NewController(logger.WithField("component", "controller"), fetcher, cfg.MaxAttempts, cfg.RetryBaseDelay, cfg.ChunkSize)
	return &Indexer{
		cfg:        cfg,
		logger:     logger,
		client:     client,
		state:      repo.IndexerState,
		controller: controller,
	}
}

// Start performs the historical sync and then polls for new blocks until ctx is cancelled.
func (ix *Indexer) Start(ctx context.Context) error {
	ix.logger.Info("indexer starting")
	last, err := ix.SyncHistorical(ctx)
	if err != nil {
		return fmt.Errorf("can't sync historical blocks: %w", err)
	}
	ix.Poll(ctx, last)
	return nil
}

func (ix *Indexer) LastIndexedBlock() uint {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.lastIndexedBlock
}

// recordIndexedBlock persists the watermark, values lower than the current one are ignored.
func (ix *Indexer) recordIndexedBlock(ctx context.Context, blockNumber uint) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if blockNumber < ix.lastIndexedBlock {
		return nil
	}
	if err := ix.state.UpdateLastIndexedBlock(ctx, blockNumber); err != nil {
		return fmt.Errorf("can't update last indexed block: %w", err)
	}
	ix.lastIndexedBlock = blockNumber
	LatestIndexedBlock.Set(float64(blockNumber))
	return nil
}
