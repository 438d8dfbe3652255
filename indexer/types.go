package indexer

import "fmt"

// BlockRange is an inclusive range of block numbers.
type BlockRange struct {
	From uint
	To   uint
}

func (r *BlockRange) Size() uint {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

func (r *BlockRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.From, r.To)
}

// Bisect splits the range in two halves, the first one is never smaller than the second.
func (r *BlockRange) Bisect() (*BlockRange, *BlockRange) {
	mid := r.From + (r.To-r.From)/2
	return &BlockRange{From: r.From, To: mid}, &BlockRange{From: mid + 1, To: r.To}
}

func SplitBlockRange(fromBlock uint, toBlock uint, maxSize uint) []*BlockRange {
	batches := make([]*BlockRange, 0, 10)
	if maxSize == 0 {
		maxSize = toBlock - fromBlock + 1
	}
	for fromBlock <= toBlock {
		batchToBlock := fromBlock + maxSize - 1
		if batchToBlock > toBlock || batchToBlock < fromBlock {
			batchToBlock = toBlock
		}
		batches = append(batches, &BlockRange{
			From: fromBlock,
			To:   batchToBlock,
		})
		if batchToBlock == toBlock {
			break
		}
		fromBlock = batchToBlock + 1
	}
	return batches
}
