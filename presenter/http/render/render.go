package render

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/intraverse/tx-indexer/logging"
)

type ErrorResult struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, res interface{}) {
	data, err := marshal(r, res)
	if err != nil {
		Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(data); err != nil {
		logging.LoggerFromContext(r.Context()).WithError(err).Warn("failed to write response")
	}
}

func marshal(r *http.Request, res interface{}) ([]byte, error) {
	if pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty")); pretty {
		return json.MarshalIndent(res, "", "  ")
	}
	return json.Marshal(res)
}

// Error logs err and responds with a generic 500 error.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.LoggerFromContext(r.Context())
	logger.WithError(err).Error("request handling failed")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(ErrorResult{Error: "Internal server error"})
}

func ValidationError(w http.ResponseWriter, r *http.Request, details ...string) {
	JSON(w, r, http.StatusBadRequest, ErrorResult{Error: "Validation error", Details: details})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusNotFound, ErrorResult{Error: "Not found"})
}
