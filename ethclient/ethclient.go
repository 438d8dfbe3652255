package ethclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

var ErrIncompatibleChainID = errors.New("rpc url returned incompatible chainID")

type Client interface {
	BlockNumber(ctx context.Context) (uint, error)
	HeaderByNumber(ctx context.Context, n uint) (*types.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error)
}

// Receipt keeps the transaction receipt fields which are dropped by types.Receipt during decoding.
type Receipt struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	BlockNumber       *hexutil.Big    `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	GasUsed           *hexutil.Big    `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
	Status            hexutil.Uint64  `json:"status"`
}

type rpcClient struct {
	chainID   string
	url       string
	timeout   time.Duration
	limiter   *rate.Limiter
	rawClient *rpc.Client
	client    *ethclient.Client
}

// NewClient dials the given JSON RPC url. When chainID is not empty, it is compared with
// the one reported by the node. rps <= 0 disables request rate limiting.
func NewClient(url string, timeout time.Duration, rps float64, chainID string) (Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rawClient, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("can't dial JSON rpc url: %w", err)
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	client := &rpcClient{
		url:       url,
		timeout:   timeout,
		limiter:   limiter,
		rawClient: rawClient,
		client:    ethclient.NewClient(rawClient),
	}
	ctx2, cancel2 := context.WithTimeout(context.Background(), timeout)
	defer cancel2()
	rpcChainID, err := client.client.ChainID(ctx2)
	if err != nil {
		return nil, fmt.Errorf("can't get chainID: %w", err)
	}
	if chainID != "" && rpcChainID.String() != chainID {
		return nil, fmt.Errorf("received chainID %s != expected %s: %w", rpcChainID, chainID, ErrIncompatibleChainID)
	}
	client.chainID = rpcChainID.String()
	return client, nil
}

func (c *rpcClient) wait(ctx context.Context, query string) error {
	if c.limiter.Limit() == rate.Inf {
		return nil
	}
	r := c.limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		RateLimitWaits.WithLabelValues(c.chainID, query).Inc()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}

func (c *rpcClient) BlockNumber(ctx context.Context) (uint, error) {
	if err := c.wait(ctx, "eth_blockNumber"); err != nil {
		return 0, err
	}
	defer ObserveDuration(c.chainID, c.url, "eth_blockNumber")()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	n, err := c.client.BlockNumber(ctx)
	ObserveError(c.chainID, c.url, "eth_blockNumber", err)
	return uint(n), err
}

func (c *rpcClient) HeaderByNumber(ctx context.Context, n uint) (*types.Header, error) {
	if err := c.wait(ctx, "eth_getBlockByNumber"); err != nil {
		return nil, err
	}
	defer ObserveDuration(c.chainID, c.url, "eth_getBlockByNumber")()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(uint64(n)))
	ObserveError(c.chainID, c.url, "eth_getBlockByNumber", err)
	return header, err
}

// FilterLogs returns an error wrapping ErrRangeTooLarge when the node refuses the query
// because of its block range or response size.
func (c *rpcClient) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if err := c.wait(ctx, "eth_getLogs"); err != nil {
		return nil, err
	}
	defer ObserveDuration(c.chainID, c.url, "eth_getLogs")()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	logs, err := c.client.FilterLogs(ctx, q)
	ObserveError(c.chainID, c.url, "eth_getLogs", err)
	if err != nil {
		return nil, ClassifyLogsError(err)
	}
	return logs, nil
}

func (c *rpcClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	if err := c.wait(ctx, "eth_getTransactionReceipt"); err != nil {
		return nil, err
	}
	defer ObserveDuration(c.chainID, c.url, "eth_getTransactionReceipt")()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var receipt *Receipt
	err := c.rawClient.CallContext(ctx, &receipt, "eth_getTransactionReceipt", txHash)
	if err == nil && receipt == nil {
		err = ethereum.NotFound
	}
	ObserveError(c.chainID, c.url, "eth_getTransactionReceipt", err)
	if err != nil {
		return nil, err
	}
	return receipt, nil
}
