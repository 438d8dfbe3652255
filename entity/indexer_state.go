package entity

import (
	"context"
	"time"
)

// IndexerState is the single-row watermark, blocks up to LastIndexedBlock are fully indexed.
type IndexerState struct {
	ID               uint       `db:"id"`
	LastIndexedBlock uint       `db:"last_indexed_block"`
	CreatedAt        *time.Time `db:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at"`
}

type IndexerStateRepo interface {
	GetLastIndexedBlock(ctx context.Context) (uint, error)
	UpdateLastIndexedBlock(ctx context.Context, blockNumber uint) error
}
