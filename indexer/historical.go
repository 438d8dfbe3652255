package indexer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SyncHistorical indexes all blocks after the stored watermark up to the current head in
// waves of concurrently processed chunks. It returns the last indexed block.
func (ix *Indexer) SyncHistorical(ctx context.Context) (uint, error) {
	lastIndexed, err := ix.state.GetLastIndexedBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("can't get last indexed block: %w", err)
	}
	start := lastIndexed
	if ix.cfg.StartBlock > start {
		start = ix.cfg.StartBlock
	}
	ix.mu.Lock()
	if start > ix.lastIndexedBlock {
		ix.lastIndexedBlock = start
	}
	ix.mu.Unlock()

	head, err := ix.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("can't fetch latest block number: %w", err)
	}
	LatestHeadBlock.Set(float64(head))

	logger := ix.logger.WithFields(logrus.Fields{
		"start_block": start,
		"head_block":  head,
	})
	if head <= start {
		logger.Info("historical sync is not needed")
		return start, nil
	}
	logger.WithField("gap", head-start).Info("starting historical sync")

	chunks := SplitBlockRange(start+1, head, ix.cfg.ChunkSize)
	concurrency := int(ix.cfg.Concurrency)
	if concurrency < 1 {
		concurrency = 1
	}
	var total uint
	for i := 0; i < len(chunks); i += concurrency {
		end := i + concurrency
		if end > len(chunks) {
			end = len(chunks)
		}
		wave := chunks[i:end]

		found, err := ix.processWave(ctx, wave)
		if err != nil {
			return ix.LastIndexedBlock(), err
		}
		total += found

		waveTo := wave[len(wave)-1].To
		if err = ix.recordIndexedBlock(ctx, waveTo); err != nil {
			return ix.LastIndexedBlock(), err
		}
		ix.logger.WithFields(logrus.Fields{
			"from_block": wave[0].From,
			"to_block":   waveTo,
			"head_block": head,
			"txs_found":  found,
			"progress":   fmt.Sprintf("%d%%", (waveTo-start)*100/(head-start)),
		}).Info("processed blocks batch")
	}

	ix.logger.WithFields(logrus.Fields{
		"total_indexed":    total,
		"blocks_processed": head - start,
	}).Info("historical sync complete")
	return head, nil
}

func (ix *Indexer) processWave(ctx context.Context, wave []*BlockRange) (uint, error) {
	counts := make([]uint, len(wave))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range wave {
		i, r := i, r
		g.Go(func() error {
			n, err := ix.controller.Run(gctx, r)
			if err != nil {
				return fmt.Errorf("can't process block range %s: %w", r, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	var found uint
	for _, n := range counts {
		found += n
	}
	return found, nil
}
