package entity

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Method string

const (
	MethodMint    Method = "mint"
	MethodUpgrade Method = "upgrade"
)

// Scan maps NULL to the empty method.
func (m *Method) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = ""
	case string:
		*m = Method(v)
	case []byte:
		*m = Method(v)
	default:
		return fmt.Errorf("can't scan %T into method", src)
	}
	return nil
}

func (m Method) Value() (driver.Value, error) {
	if m == "" {
		return nil, nil
	}
	return string(m), nil
}

type Transaction struct {
	ID                uint           `db:"id"`
	Hash              common.Hash    `db:"hash"`
	BlockNumber       uint           `db:"block_number"`
	Timestamp         time.Time      `db:"timestamp"`
	FromAddress       common.Address `db:"from_address"`
	ToAddress         common.Address `db:"to_address"`
	Method            Method         `db:"method"`
	GasUsed           string         `db:"gas_used"`
	EffectiveGasPrice string         `db:"effective_gas_price"`
	CreatedAt         *time.Time     `db:"created_at"`
}

type TransactionsSummary struct {
	TotalTxCount uint       `db:"total_tx_count"`
	TotalGasUsed string     `db:"total_gas_used"`
	TotalGasCost string     `db:"total_gas_cost"`
	FirstTxDate  *time.Time `db:"first_tx_date"`
	LastTxDate   *time.Time `db:"last_tx_date"`
}

type DailyStats struct {
	Date    time.Time `db:"date"`
	TxCount uint      `db:"tx_count"`
	GasUsed string    `db:"gas_used"`
}

type TransactionsRepo interface {
	// Ensure inserts the transaction unless a transaction with the same hash already exists.
	Ensure(ctx context.Context, tx *Transaction) (bool, error)
	FindExistingHashes(ctx context.Context, hashes []common.Hash) ([]common.Hash, error)
	FindPage(ctx context.Context, limit, offset uint) ([]*Transaction, error)
	Count(ctx context.Context) (uint, error)
	Summary(ctx context.Context) (*TransactionsSummary, error)
	DailyStats(ctx context.Context, from, to time.Time) ([]*DailyStats, error)
}
