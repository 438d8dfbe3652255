package repository

import (
	"github.com/intraverse/tx-indexer/db"
	"github.com/intraverse/tx-indexer/entity"
	"github.com/intraverse/tx-indexer/repository/postgres"
)

type Repo struct {
	IndexerState entity.IndexerStateRepo
	Transactions entity.TransactionsRepo
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		IndexerState: postgres.NewIndexerStateRepo("indexer_state", db),
		Transactions: postgres.NewTransactionsRepo("transactions", db),
	}
}
