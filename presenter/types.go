package presenter

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type HealthResult struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type SummaryResult struct {
	TotalTxCount uint       `json:"totalTxCount"`
	TotalGasUsed string     `json:"totalGasUsed"`
	TotalGasCost string     `json:"totalGasCost"`
	FirstTxDate  *time.Time `json:"firstTxDate"`
	LastTxDate   *time.Time `json:"lastTxDate"`
}

type DailyStatsResult struct {
	Date    string `json:"date"`
	TxCount uint   `json:"txCount"`
	GasUsed string `json:"gasUsed"`
}

type DailyStatsPage struct {
	Data []*DailyStatsResult `json:"data"`
}

type TransactionResult struct {
	Hash              common.Hash    `json:"hash"`
	BlockNumber       uint           `json:"blockNumber"`
	Timestamp         time.Time      `json:"timestamp"`
	From              common.Address `json:"from"`
	To                common.Address `json:"to"`
	Method            *string        `json:"method"`
	GasUsed           string         `json:"gasUsed"`
	EffectiveGasPrice string         `json:"effectiveGasPrice"`
}

type TransactionsPage struct {
	Data   []*TransactionResult `json:"data"`
	Total  uint                 `json:"total"`
	Limit  uint                 `json:"limit"`
	Offset uint                 `json:"offset"`
}

type CheckTxRequest struct {
	Hashes []string `json:"hashes"`
}

type CheckTxResult struct {
	Found []common.Hash `json:"found"`
}
