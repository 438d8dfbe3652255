package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intraverse/tx-indexer/ethclient"
	"github.com/intraverse/tx-indexer/logging"
	"github.com/intraverse/tx-indexer/utils"
)

var (
	ErrSingleBlockTooLarge = errors.New("single block logs exceed node capacity")
	ErrBisectDepthExceeded = errors.New("block range bisection depth exceeded")
)

type RangeProcessor interface {
	FetchRange(ctx context.Context, r *BlockRange) (uint, error)
}

// Controller runs a RangeProcessor with bounded retries, splitting ranges rejected by the node
// because of their size.
type Controller struct {
	logger      logging.Logger
	processor   RangeProcessor
	maxAttempts uint
	baseDelay   time.Duration
	chunkSize   uint
	sleep       func(ctx context.Context, d time.Duration) *time.Time
}

func NewController(logger logging.Logger, processor RangeProcessor, maxAttempts uint, baseDelay time.Duration, chunkSize uint) *Controller {
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	return &Controller{
		logger:      logger,
		processor:   processor,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		chunkSize:   chunkSize,
		sleep:       utils.ContextSleep,
	}
}

// Run returns the total number of transactions indexed in r.
func (c *Controller) Run(ctx context.Context, r *BlockRange) (uint, error) {
	size := r.Size()
	if size < c.chunkSize {
		size = c.chunkSize
	}
	return c.run(ctx, r, 0, bits.Len(size))
}

func (c *Controller) run(ctx context.Context, r *BlockRange, depth, maxDepth int) (uint, error) {
	if depth > maxDepth {
		return 0, fmt.Errorf("range %s at depth %d: %w", r, depth, ErrBisectDepthExceeded)
	}
	logger := c.logger.WithFields(logrus.Fields{
		"from_block": r.From,
		"to_block":   r.To,
	})

	var err error
	for attempt := uint(1); attempt <= c.maxAttempts; attempt++ {
		var n uint
		n, err = c.processor.FetchRange(ctx, r)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, ethclient.ErrRangeTooLarge) {
			if r.From >= r.To {
				return 0, fmt.Errorf("block %d: %w: %w", r.From, ErrSingleBlockTooLarge, err)
			}
			return c.bisect(ctx, logger, r, depth, maxDepth)
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if attempt == c.maxAttempts {
			break
		}
		delay := utils.ExponentialBackoff(c.baseDelay, attempt)
		RangeRetries.Inc()
		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"backoff": delay,
		}).Warn("block range processing failed, retrying")
		if c.sleep(ctx, delay) == nil {
			return 0, ctx.Err()
		}
	}
	return 0, fmt.Errorf("can't process range %s after %d attempts: %w", r, c.maxAttempts, err)
}

func (c *Controller) bisect(ctx context.Context, logger logging.Logger, r *BlockRange, depth, maxDepth int) (uint, error) {
	left, right := r.Bisect()
	RangeBisections.Inc()
	logger.WithField("mid_block", left.To).Warn("block range is too large, bisecting")

	a, err := c.run(ctx, left, depth+1, maxDepth)
	if err != nil {
		return 0, err
	}
	b, err := c.run(ctx, right, depth+1, maxDepth)
	if err != nil {
		return 0, err
	}
	return a + b, nil
}
