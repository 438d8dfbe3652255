package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

//go:embed default.yml
var defaultConfig []byte

const (
	defaultRPCTimeout        = 30 * time.Second
	defaultPollInterval      = 5 * time.Second
	defaultChunkSize         = 2000
	defaultConcurrency       = 3
	defaultMaxAttempts       = 3
	defaultRetryBaseDelay    = time.Second
	defaultHeartbeatInterval = 30 * time.Second
	defaultPresenterHost     = "0.0.0.0:4000"
	defaultMetricsHost       = "0.0.0.0:2112"
)

var ErrInvalidConfig = errors.New("invalid config")

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
}

type ChainConfig struct {
	RPC     *RPCConfig `yaml:"rpc"`
	ChainID string     `yaml:"chain_id"`
}

type IndexerConfig struct {
	ContractAddress common.Address  `yaml:"contract_address"`
	WalletFilter    *common.Address `yaml:"wallet_filter"`
	StartBlock      uint            `yaml:"start_block"`
	PollInterval    time.Duration   `yaml:"poll_interval"`
	ChunkSize       uint            `yaml:"chunk_size"`
	Concurrency     uint            `yaml:"concurrency"`
	MaxAttempts     uint            `yaml:"max_attempts"`
	RetryBaseDelay  time.Duration   `yaml:"retry_base_delay"`
}

type BroadcastConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}

type DBConfig struct {
	URL      string `yaml:"url"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type MetricsConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Chain     *ChainConfig     `yaml:"chain"`
	Indexer   *IndexerConfig   `yaml:"indexer"`
	Broadcast *BroadcastConfig `yaml:"broadcast"`
	DBConfig  *DBConfig        `yaml:"postgres"`
	LogLevel  logrus.Level     `yaml:"log_level"`
	Presenter *PresenterConfig `yaml:"presenter"`
	Metrics   *MetricsConfig   `yaml:"metrics"`
}

func readYamlConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) init() error {
	if cfg.Chain == nil || cfg.Chain.RPC == nil || cfg.Chain.RPC.Host == "" {
		return fmt.Errorf("chain rpc host is not specified: %w", ErrInvalidConfig)
	}
	if cfg.Chain.RPC.Timeout == 0 {
		cfg.Chain.RPC.Timeout = defaultRPCTimeout
	}
	if cfg.Chain.RPC.RPS < 0 {
		return fmt.Errorf("rpc rps can't be negative: %w", ErrInvalidConfig)
	}

	if cfg.Indexer == nil {
		return fmt.Errorf("indexer section is not specified: %w", ErrInvalidConfig)
	}
	if err := cfg.Indexer.init(); err != nil {
		return err
	}

	if cfg.Broadcast == nil {
		cfg.Broadcast = new(BroadcastConfig)
	}
	if cfg.Broadcast.HeartbeatInterval == 0 {
		cfg.Broadcast.HeartbeatInterval = defaultHeartbeatInterval
	}

	if cfg.DBConfig == nil {
		return fmt.Errorf("postgres section is not specified: %w", ErrInvalidConfig)
	}
	if cfg.DBConfig.URL == "" && cfg.DBConfig.Host == "" {
		return fmt.Errorf("postgres url or host should be specified: %w", ErrInvalidConfig)
	}

	if cfg.Presenter == nil {
		cfg.Presenter = new(PresenterConfig)
	}
	if cfg.Presenter.Host == "" {
		cfg.Presenter.Host = defaultPresenterHost
	}
	if cfg.Metrics == nil {
		cfg.Metrics = new(MetricsConfig)
	}
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = defaultMetricsHost
	}
	return nil
}

func (cfg *IndexerConfig) init() error {
	if cfg.ContractAddress == (common.Address{}) {
		return fmt.Errorf("contract address is not specified: %w", ErrInvalidConfig)
	}
	if cfg.WalletFilter != nil && *cfg.WalletFilter == (common.Address{}) {
		cfg.WalletFilter = nil
	}
	if cfg.PollInterval < 0 {
		return fmt.Errorf("poll interval can't be negative: %w", ErrInvalidConfig)
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryBaseDelay < 0 {
		return fmt.Errorf("retry base delay can't be negative: %w", ErrInvalidConfig)
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	return nil
}

func ReadConfig(blob []byte) (*Config, error) {
	cfg, err := readYamlConfig(blob)
	if err != nil {
		return nil, err
	}
	if err = cfg.init(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig(expandEnv(blob))
}

// ReadConfigFromFile reads the config from the given path. When the file does not exist,
// the embedded default config is used, which is driven by environment variables only.
func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		blob = defaultConfig
	} else if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}
