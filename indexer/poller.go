package indexer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/intraverse/tx-indexer/utils"
)

// Poll indexes new blocks every poll interval, starting after lastProcessed. Failed cycles are
// logged and retried on the next tick. It returns when ctx is cancelled.
func (ix *Indexer) Poll(ctx context.Context, lastProcessed uint) {
	ix.logger.WithField("last_indexed_block", lastProcessed).Info("starting polling loop")
	current := lastProcessed
	for {
		next, err := ix.pollOnce(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			ix.logger.WithError(err).Error("polling failed, will retry next interval")
		} else {
			current = next
		}

		if utils.ContextSleep(ctx, ix.cfg.PollInterval) == nil {
			return
		}
	}
}

func (ix *Indexer) pollOnce(ctx context.Context, current uint) (uint, error) {
	head, err := ix.client.BlockNumber(ctx)
	if err != nil {
		return current, err
	}
	LatestHeadBlock.Set(float64(head))
	if head <= current {
		return current, nil
	}

	var found uint
	for _, r := range SplitBlockRange(current+1, head, ix.cfg.ChunkSize) {
		n, err := ix.controller.Run(ctx, r)
		if err != nil {
			return current, err
		}
		found += n
	}
	if err = ix.recordIndexedBlock(ctx, head); err != nil {
		return current, err
	}
	if found > 0 {
		ix.logger.WithFields(logrus.Fields{
			"from_block": current + 1,
			"to_block":   head,
			"txs_found":  found,
		}).Info("new blocks processed")
	}
	return head, nil
}
