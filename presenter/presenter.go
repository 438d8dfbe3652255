package presenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/intraverse/tx-indexer/logging"
	"github.com/intraverse/tx-indexer/presenter/http/middleware"
	"github.com/intraverse/tx-indexer/presenter/http/render"
	"github.com/intraverse/tx-indexer/repository"
)

const (
	dateFormat         = "2006-01-02"
	maxCheckHashes     = 50
	maxRequestBodySize = 64 * 1024
	shutdownTimeout    = 5 * time.Second
)

var txHashRegexp = regexp.MustCompile("^0x[0-9a-fA-F]{64}$")

type Presenter struct {
	logger logging.Logger
	repo   *repository.Repo
	root   chi.Router
}

// NewPresenter builds the HTTP API. Live subscribers are served by wsHandler on /ws.
func NewPresenter(logger logging.Logger, repo *repository.Repo, wsHandler http.Handler) *Presenter {
	p := &Presenter{
		logger: logger,
		repo:   repo,
		root:   chi.NewMux(),
	}

	p.root.Use(chimiddleware.RequestID)
	p.root.Use(middleware.NewLoggerMiddleware(p.logger))
	p.root.Use(middleware.Recoverer)
	p.root.Use(middleware.CORS)
	p.root.NotFound(render.NotFound)
	p.root.MethodNotAllowed(render.NotFound)

	if wsHandler != nil {
		p.root.Get("/ws", wsHandler.ServeHTTP)
	}
	p.root.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Throttle(100))
		r.Get("/health", p.GetHealth)
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", p.GetSummary)
			r.With(middleware.GetDateRangeMiddleware).Get("/daily", p.GetDailyStats)
			r.With(middleware.GetPaginationMiddleware).Get("/txs", p.GetTransactions)
			r.Post("/tx/check", p.CheckTransactions)
		})
	})
	return p
}

func (p *Presenter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.root.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is cancelled.
func (p *Presenter) Serve(ctx context.Context, addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.root,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			p.logger.WithError(err).Warn("failed to shutdown presenter service")
		}
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("presenter service failed: %w", err)
	}
	return nil
}

func (p *Presenter) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, http.StatusOK, &HealthResult{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

func (p *Presenter) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := p.repo.Transactions.Summary(r.Context())
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to get transactions summary: %w", err))
		return
	}
	render.JSON(w, r, http.StatusOK, summaryToResult(summary))
}

func (p *Presenter) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dr := middleware.GetDateRange(ctx)

	stats, err := p.repo.Transactions.DailyStats(ctx, dr.From, dr.To)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to get daily stats: %w", err))
		return
	}
	res := &DailyStatsPage{Data: make([]*DailyStatsResult, len(stats))}
	for i, s := range stats {
		res.Data[i] = dailyStatsToResult(s)
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := middleware.GetPagination(ctx)

	txs, err := p.repo.Transactions.FindPage(ctx, page.Limit, page.Offset)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to find transactions: %w", err))
		return
	}
	total, err := p.repo.Transactions.Count(ctx)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to count transactions: %w", err))
		return
	}
	res := &TransactionsPage{
		Data:   make([]*TransactionResult, len(txs)),
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for i, tx := range txs {
		res.Data[i] = transactionToResult(tx)
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) CheckTransactions(w http.ResponseWriter, r *http.Request) {
	var req CheckTxRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := dec.Decode(&req); err != nil {
		render.ValidationError(w, r, "body: must be a JSON object with hashes array")
		return
	}
	if req.Hashes == nil {
		render.ValidationError(w, r, "hashes: required")
		return
	}
	if len(req.Hashes) > maxCheckHashes {
		render.ValidationError(w, r, fmt.Sprintf("hashes: must contain at most %d items", maxCheckHashes))
		return
	}

	hashes := make([]common.Hash, 0, len(req.Hashes))
	for _, s := range req.Hashes {
		// Malformed hashes can't be indexed, so they are never found.
		if txHashRegexp.MatchString(s) {
			hashes = append(hashes, common.HexToHash(s))
		}
	}
	found, err := p.repo.Transactions.FindExistingHashes(r.Context(), hashes)
	if err != nil {
		render.Error(w, r, fmt.Errorf("failed to check transactions: %w", err))
		return
	}
	if found == nil {
		found = []common.Hash{}
	}
	render.JSON(w, r, http.StatusOK, &CheckTxResult{Found: found})
}
