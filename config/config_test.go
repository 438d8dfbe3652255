package config_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/intraverse/tx-indexer/config"
)

const testCfg = `
chain:
  rpc:
    host: https://rpc.example.org/${TEST_RPC_KEY}
    timeout: 20s
    rps: 5
  chain_id: 5031
indexer:
  contract_address: 0xC82E0CE02623972330164657e8C3e568d8f351FA
  wallet_filter: 0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643
  start_block: 1000
  poll_interval: ${TEST_POLL_INTERVAL:-5000}ms
  chunk_size: 500
postgres:
  user: test_user
  password: test_password
  host: test_host
  port: 5432
  database: test_db
log_level: debug
presenter:
  host: 0.0.0.0:3333
`

//nolint:paralleltest
func TestReadConfigWithEnv(t *testing.T) {
	t.Setenv("TEST_RPC_KEY", "12345678")
	t.Setenv("TEST_POLL_INTERVAL", "2500")
	cfg, err := config.ReadConfigWithEnv([]byte(testCfg))
	require.NoError(t, err)
	wallet := common.HexToAddress("0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643")
	require.Equal(t, &config.Config{
		Chain: &config.ChainConfig{
			RPC: &config.RPCConfig{
				Host:    "https://rpc.example.org/12345678",
				Timeout: 20 * time.Second,
				RPS:     5,
			},
			ChainID: "5031",
		},
		Indexer: &config.IndexerConfig{
			ContractAddress: common.HexToAddress("0xC82E0CE02623972330164657e8C3e568d8f351FA"),
			WalletFilter:    &wallet,
			StartBlock:      1000,
			PollInterval:    2500 * time.Millisecond,
			ChunkSize:       500,
			Concurrency:     3,
			MaxAttempts:     3,
			RetryBaseDelay:  time.Second,
		},
		Broadcast: &config.BroadcastConfig{
			HeartbeatInterval: 30 * time.Second,
		},
		DBConfig: &config.DBConfig{
			User:     "test_user",
			Password: "test_password",
			Host:     "test_host",
			Port:     5432,
			DB:       "test_db",
		},
		LogLevel: logrus.DebugLevel,
		Presenter: &config.PresenterConfig{
			Host: "0.0.0.0:3333",
		},
		Metrics: &config.MetricsConfig{
			Host: "0.0.0.0:2112",
		},
	}, cfg)
}

//nolint:paralleltest
func TestReadConfigFromFile_Default(t *testing.T) {
	t.Setenv("RPC_URL", "https://dream-rpc.somnia.network/")
	t.Setenv("INDEXED_WALLET_ADDRESS", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("START_BLOCK", "42")
	t.Setenv("PORT", "8080")
	cfg, err := config.ReadConfigFromFile("does-not-exist.yml")
	require.NoError(t, err)

	require.Equal(t, "https://dream-rpc.somnia.network/", cfg.Chain.RPC.Host)
	require.Equal(t, common.HexToAddress("0xC82E0CE02623972330164657e8C3e568d8f351FA"), cfg.Indexer.ContractAddress)
	require.Nil(t, cfg.Indexer.WalletFilter)
	require.Equal(t, 5*time.Second, cfg.Indexer.PollInterval)
	require.EqualValues(t, 42, cfg.Indexer.StartBlock)
	require.EqualValues(t, 2000, cfg.Indexer.ChunkSize)
	require.Equal(t, "0.0.0.0:8080", cfg.Presenter.Host)
	require.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestReadConfig_Invalid(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name string
		Cfg  string
	}{
		{
			Name: "missing rpc host",
			Cfg: `
indexer:
  contract_address: 0xC82E0CE02623972330164657e8C3e568d8f351FA
postgres:
  url: postgres://localhost/db
`,
		},
		{
			Name: "missing contract address",
			Cfg: `
chain:
  rpc:
    host: http://localhost:8545
indexer:
  start_block: 1
postgres:
  url: postgres://localhost/db
`,
		},
		{
			Name: "negative poll interval",
			Cfg: `
chain:
  rpc:
    host: http://localhost:8545
indexer:
  contract_address: 0xC82E0CE02623972330164657e8C3e568d8f351FA
  poll_interval: -5s
postgres:
  url: postgres://localhost/db
`,
		},
		{
			Name: "missing postgres",
			Cfg: `
chain:
  rpc:
    host: http://localhost:8545
indexer:
  contract_address: 0xC82E0CE02623972330164657e8C3e568d8f351FA
`,
		},
	} {
		_, err := config.ReadConfig([]byte(test.Cfg))
		require.ErrorIs(t, err, config.ErrInvalidConfig, test.Name)
	}
}

func TestReadConfig_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.ReadConfig([]byte(`
chain:
  rpc:
    host: http://localhost:8545
    unknown: true
`))
	require.Error(t, err)
	require.NotErrorIs(t, err, config.ErrInvalidConfig)
}
