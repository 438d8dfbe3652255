package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"
	"github.com/lib/pq"

	"github.com/intraverse/tx-indexer/db"
	"github.com/intraverse/tx-indexer/entity"
)

type transactionsRepo basePostgresRepo

func NewTransactionsRepo(table string, db *db.DB) entity.TransactionsRepo {
	return (*transactionsRepo)(newBasePostgresRepo(table, db))
}

func (r *transactionsRepo) Ensure(ctx context.Context, tx *entity.Transaction) (bool, error) {
	q, args, err := sq.Insert(r.table).
		Columns("hash", "block_number", "timestamp", "from_address", "to_address", "method", "gas_used", "effective_gas_price").
		Values(tx.Hash, tx.BlockNumber, tx.Timestamp.UTC(), tx.FromAddress, tx.ToAddress, tx.Method, tx.GasUsed, tx.EffectiveGasPrice).
		Suffix("ON CONFLICT (hash) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("can't insert transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("can't get affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *transactionsRepo) FindExistingHashes(ctx context.Context, hashes []common.Hash) ([]common.Hash, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	raw := make(pq.ByteaArray, len(hashes))
	for i, hash := range hashes {
		raw[i] = hash.Bytes()
	}
	q, args, err := sq.Select("hash").
		From(r.table).
		Where(sq.Expr("hash = ANY(?)", raw)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	found := make([]common.Hash, 0, len(hashes))
	err = r.db.SelectContext(ctx, &found, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't find existing transaction hashes: %w", err)
	}
	return found, nil
}

func (r *transactionsRepo) FindPage(ctx context.Context, limit, offset uint) ([]*entity.Transaction, error) {
	q, args, err := sq.Select("id", "hash", "block_number", "timestamp", "from_address", "to_address", "method",
		"gas_used::TEXT AS gas_used", "effective_gas_price::TEXT AS effective_gas_price", "created_at").
		From(r.table).
		OrderBy("block_number DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	txs := make([]*entity.Transaction, 0, limit)
	err = r.db.SelectContext(ctx, &txs, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get transactions page: %w", err)
	}
	return txs, nil
}

func (r *transactionsRepo) Count(ctx context.Context) (uint, error) {
	q, args, err := sq.Select("COUNT(*)").
		From(r.table).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("can't build query: %w", err)
	}
	var count uint
	err = r.db.GetContext(ctx, &count, q, args...)
	if err != nil {
		return 0, fmt.Errorf("can't count transactions: %w", err)
	}
	return count, nil
}

func (r *transactionsRepo) Summary(ctx context.Context) (*entity.TransactionsSummary, error) {
	q, args, err := sq.Select(
		"COUNT(*) AS total_tx_count",
		"COALESCE(SUM(gas_used), 0)::TEXT AS total_gas_used",
		"COALESCE(SUM(gas_used * effective_gas_price), 0)::TEXT AS total_gas_cost",
		"MIN(timestamp) AS first_tx_date",
		"MAX(timestamp) AS last_tx_date",
	).
		From(r.table).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	summary := new(entity.TransactionsSummary)
	err = r.db.GetContext(ctx, summary, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get transactions summary: %w", err)
	}
	return summary, nil
}

func (r *transactionsRepo) DailyStats(ctx context.Context, from, to time.Time) ([]*entity.DailyStats, error) {
	q, args, err := sq.Select(
		"DATE(timestamp) AS date",
		"COUNT(*) AS tx_count",
		"COALESCE(SUM(gas_used), 0)::TEXT AS gas_used",
	).
		From(r.table).
		Where(sq.GtOrEq{"DATE(timestamp)": from.Format("2006-01-02")}).
		Where(sq.LtOrEq{"DATE(timestamp)": to.Format("2006-01-02")}).
		GroupBy("DATE(timestamp)").
		OrderBy("DATE(timestamp)").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	stats := make([]*entity.DailyStats, 0, 32)
	err = r.db.SelectContext(ctx, &stats, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get daily transaction stats: %w", err)
	}
	return stats, nil
}
