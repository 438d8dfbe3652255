package presenter

import (
	"time"

	"github.com/intraverse/tx-indexer/entity"
)

func summaryToResult(s *entity.TransactionsSummary) *SummaryResult {
	return &SummaryResult{
		TotalTxCount: s.TotalTxCount,
		TotalGasUsed: s.TotalGasUsed,
		TotalGasCost: s.TotalGasCost,
		FirstTxDate:  utcPtr(s.FirstTxDate),
		LastTxDate:   utcPtr(s.LastTxDate),
	}
}

func dailyStatsToResult(s *entity.DailyStats) *DailyStatsResult {
	return &DailyStatsResult{
		Date:    s.Date.Format(dateFormat),
		TxCount: s.TxCount,
		GasUsed: s.GasUsed,
	}
}

func transactionToResult(tx *entity.Transaction) *TransactionResult {
	res := &TransactionResult{
		Hash:              tx.Hash,
		BlockNumber:       tx.BlockNumber,
		Timestamp:         tx.Timestamp.UTC(),
		From:              tx.FromAddress,
		To:                tx.ToAddress,
		GasUsed:           tx.GasUsed,
		EffectiveGasPrice: tx.EffectiveGasPrice,
	}
	if tx.Method != "" {
		method := string(tx.Method)
		res.Method = &method
	}
	return res
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
