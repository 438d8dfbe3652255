package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/intraverse/tx-indexer/db"
	"github.com/intraverse/tx-indexer/entity"
)

const indexerStateID = 1

type indexerStateRepo basePostgresRepo

func NewIndexerStateRepo(table string, db *db.DB) entity.IndexerStateRepo {
	return (*indexerStateRepo)(newBasePostgresRepo(table, db))
}

func (r *indexerStateRepo) GetLastIndexedBlock(ctx context.Context) (uint, error) {
	q, args, err := sq.Select("last_indexed_block").
		From(r.table).
		Where(sq.Eq{"id": indexerStateID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("can't build query: %w", err)
	}
	var block uint
	err = r.db.GetContext(ctx, &block, q, args...)
	if errors.Is(err, db.ErrNotFound) {
		return 0, r.create(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("can't get last indexed block: %w", err)
	}
	return block, nil
}

func (r *indexerStateRepo) create(ctx context.Context) error {
	q, args, err := sq.Insert(r.table).
		Columns("id", "last_indexed_block").
		Values(indexerStateID, 0).
		Suffix("ON CONFLICT (id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't create indexer state: %w", err)
	}
	return nil
}

// UpdateLastIndexedBlock never lowers the stored value.
func (r *indexerStateRepo) UpdateLastIndexedBlock(ctx context.Context, blockNumber uint) error {
	q, args, err := sq.Insert(r.table).
		Columns("id", "last_indexed_block").
		Values(indexerStateID, blockNumber).
		Suffix("ON CONFLICT (id) DO UPDATE SET updated_at = NOW(), last_indexed_block = GREATEST(" + r.table + ".last_indexed_block, EXCLUDED.last_indexed_block)").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't update last indexed block: %w", err)
	}
	return nil
}
