package ethclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// ErrRangeTooLarge marks eth_getLogs failures caused by the size of the requested block range
// or of its result set. Such queries may succeed if the range is narrowed.
var ErrRangeTooLarge = errors.New("logs query range is too large")

const (
	codeLimitExceeded = -32005
	codeInvalidParams = -32602
)

var rangeTooLargeSignals = []string{
	"range",
	"too many",
	"too large",
	"limit",
	"query returned more than",
	"response size",
	"max results",
}

// ClassifyLogsError wraps err with ErrRangeTooLarge when it signals a capacity limit of the node.
// HTTP 429 responses are rate limiting and stay transient.
func ClassifyLogsError(err error) error {
	if err == nil || errors.Is(err, ErrRangeTooLarge) {
		return err
	}
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		return err
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeLimitExceeded {
		return fmt.Errorf("%w: %w", ErrRangeTooLarge, err)
	}
	msg := strings.ToLower(err.Error())
	for _, signal := range rangeTooLargeSignals {
		if strings.Contains(msg, signal) {
			return fmt.Errorf("%w: %w", ErrRangeTooLarge, err)
		}
	}
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == codeInvalidParams && strings.Contains(msg, "block") {
		return fmt.Errorf("%w: %w", ErrRangeTooLarge, err)
	}
	return err
}
