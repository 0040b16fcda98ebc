// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Tokens    []TokenConfig   `mapstructure:"tokens"`
	DEXes     []DEXConfig     `mapstructure:"dexes"`
	Detection DetectionConfig `mapstructure:"detection"`
	Quotes    QuotesConfig    `mapstructure:"quotes"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ChainConfig holds chain node configuration.
type ChainConfig struct {
	WebSocketURL   string        `mapstructure:"websocket_url"`
	HTTPURL        string        `mapstructure:"http_url"`
	ChainID        uint64        `mapstructure:"chain_id"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

// TokenConfig describes one catalog token. Symbol and decimals are
// optional; missing metadata is resolved on chain at startup.
type TokenConfig struct {
	Address  string `mapstructure:"address"`
	Symbol   string `mapstructure:"symbol"`
	Decimals int    `mapstructure:"decimals"`
	Category string `mapstructure:"category"`
}

// AddressHex returns the token address as common.Address.
func (t *TokenConfig) AddressHex() common.Address {
	return common.HexToAddress(t.Address)
}

// DEXConfig describes one exchange adapter.
type DEXConfig struct {
	ID      string `mapstructure:"id"`
	Kind    string `mapstructure:"kind"` // "v2-router", "v3-quoter", "stableswap"
	Address string `mapstructure:"address"`
}

// AddressHex returns the contract address as common.Address.
func (d *DEXConfig) AddressHex() common.Address {
	return common.HexToAddress(d.Address)
}

// Adapter kinds.
const (
	DEXKindV2Router   = "v2-router"
	DEXKindV3Quoter   = "v3-quoter"
	DEXKindStableswap = "stableswap"
)

// DetectionConfig holds cycle discovery and evaluation configuration.
type DetectionConfig struct {
	CycleLengths     []int         `mapstructure:"cycle_lengths"`
	TestAmounts      []int64       `mapstructure:"test_amounts"` // whole base-asset units
	MinProfitBps     float64       `mapstructure:"min_profit_bps"`
	MaxProfitable    int           `mapstructure:"max_profitable"`
	BatchSize        int           `mapstructure:"batch_size"`
	ExplorationRatio float64       `mapstructure:"exploration_ratio"`
	Seed             int64         `mapstructure:"seed"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	CycleCacheTTL    time.Duration `mapstructure:"cycle_cache_ttl"`
}

// MinProfitPct returns the minimum profit threshold as a percentage.
func (d *DetectionConfig) MinProfitPct() float64 {
	return d.MinProfitBps / 100.0
}

// QuotesConfig holds quote aggregation configuration.
type QuotesConfig struct {
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	RatePerMinute int           `mapstructure:"rate_per_minute"`
	ProbeUnits    int64         `mapstructure:"probe_units"` // notional for startup pair priming
	PrimePairs    bool          `mapstructure:"prime_pairs"`
}

// Flash-loan protocols.
const (
	ProtocolAave     = "aave"
	ProtocolBalancer = "balancer"
	ProtocolCustom   = "custom"
)

// ExecutionConfig holds flash-loan execution configuration.
type ExecutionConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	Protocol            string        `mapstructure:"protocol"`
	ProviderAddress     string        `mapstructure:"provider_address"` // Aave pool / Balancer vault / custom executor
	ReceiverAddress     string        `mapstructure:"receiver_address"` // flash-loan receiver contract
	PrivateKey          string        `mapstructure:"private_key"`      // hex wallet key, env only
	GasBase             uint64        `mapstructure:"gas_base"`
	GasPerHop           uint64        `mapstructure:"gas_per_hop"`
	GasLowGwei          float64       `mapstructure:"gas_low_gwei"`
	GasHighGwei         float64       `mapstructure:"gas_high_gwei"`
	MaxGasPriceGwei     float64       `mapstructure:"max_gas_price_gwei"`
	CongestionSurcharge float64       `mapstructure:"congestion_surcharge"` // max relative bump at full congestion
	SlippageBps         int64         `mapstructure:"slippage_bps"`
	MinProfitUSD        float64       `mapstructure:"min_profit_usd"`
	ReferenceProfitUSD  float64       `mapstructure:"reference_profit_usd"`
	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout"`
}

// ProviderAddressHex returns the protocol entry-point address.
func (e *ExecutionConfig) ProviderAddressHex() common.Address {
	return common.HexToAddress(e.ProviderAddress)
}

// ReceiverAddressHex returns the receiver contract address.
func (e *ExecutionConfig) ReceiverAddressHex() common.Address {
	return common.HexToAddress(e.ReceiverAddress)
}

// MaxGasPriceWei returns the gas price cap in wei.
func (e *ExecutionConfig) MaxGasPriceWei() *big.Int {
	gwei := decimal.NewFromFloat(e.MaxGasPriceGwei)
	return gwei.Mul(decimal.New(1, 9)).BigInt()
}

// MinProfitUSDDecimal returns the USD profit floor as a decimal.
func (e *ExecutionConfig) MinProfitUSDDecimal() decimal.Decimal {
	return decimal.NewFromFloat(e.MinProfitUSD)
}

// OracleConfig holds USD price feed configuration. Prices here are a
// static fallback keyed by token address; a live feed client plugs in
// behind the same port.
type OracleConfig struct {
	StaticPrices map[string]float64 `mapstructure:"static_prices"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("FLC")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "FLC_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "FLC_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "FLC_LOG_LEVEL", "LOG_LEVEL")

	// Chain
	v.BindEnv("chain.websocket_url", "FLC_CHAIN_WS_URL", "ETH_WS_URL")
	v.BindEnv("chain.http_url", "FLC_CHAIN_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("chain.chain_id", "FLC_CHAIN_ID", "ETH_CHAIN_ID")

	// Detection
	v.BindEnv("detection.min_profit_bps", "FLC_MIN_PROFIT_BPS")
	v.BindEnv("detection.seed", "FLC_DETECTION_SEED")

	// Execution
	v.BindEnv("execution.enabled", "FLC_EXECUTION_ENABLED")
	v.BindEnv("execution.protocol", "FLC_EXECUTION_PROTOCOL")
	v.BindEnv("execution.provider_address", "FLC_EXECUTION_PROVIDER")
	v.BindEnv("execution.receiver_address", "FLC_EXECUTION_RECEIVER")
	v.BindEnv("execution.private_key", "FLC_EXECUTION_PRIVATE_KEY")
	v.BindEnv("execution.min_profit_usd", "FLC_MIN_PROFIT_USD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "FLC_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "FLC_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "FLC_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "flashcycle")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Chain defaults
	v.SetDefault("chain.chain_id", 1)
	v.SetDefault("chain.poll_interval", "12s") // ~1 block time
	v.SetDefault("chain.reconnect_delay", "5s")

	// Detection defaults
	v.SetDefault("detection.cycle_lengths", []int{3, 4, 5})
	v.SetDefault("detection.test_amounts", []int64{10, 100, 1000, 5000})
	v.SetDefault("detection.min_profit_bps", 5) // 0.05%
	v.SetDefault("detection.max_profitable", 10)
	v.SetDefault("detection.batch_size", 8)
	v.SetDefault("detection.exploration_ratio", 0.1)
	v.SetDefault("detection.seed", 1)
	v.SetDefault("detection.cooldown", "3s")
	v.SetDefault("detection.cycle_cache_ttl", "30s")

	// Quote defaults
	v.SetDefault("quotes.cache_ttl", "15s")
	v.SetDefault("quotes.rate_per_minute", 600)
	v.SetDefault("quotes.probe_units", 10)
	v.SetDefault("quotes.prime_pairs", true)

	// Execution defaults
	v.SetDefault("execution.enabled", false)
	v.SetDefault("execution.protocol", ProtocolAave)
	v.SetDefault("execution.gas_base", 400_000)
	v.SetDefault("execution.gas_per_hop", 150_000)
	v.SetDefault("execution.gas_low_gwei", 10)
	v.SetDefault("execution.gas_high_gwei", 150)
	v.SetDefault("execution.max_gas_price_gwei", 300)
	v.SetDefault("execution.congestion_surcharge", 0.5)
	v.SetDefault("execution.slippage_bps", 50)
	v.SetDefault("execution.min_profit_usd", 10)
	v.SetDefault("execution.reference_profit_usd", 100)
	v.SetDefault("execution.confirmation_timeout", "60s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "flashcycle")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Chain.HTTPURL == "" {
		return fmt.Errorf("chain.http_url is required")
	}
	for i, t := range c.Tokens {
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("invalid tokens[%d].address: %s", i, t.Address)
		}
	}
	for i, d := range c.DEXes {
		if !common.IsHexAddress(d.Address) {
			return fmt.Errorf("invalid dexes[%d].address: %s", i, d.Address)
		}
		switch d.Kind {
		case DEXKindV2Router, DEXKindV3Quoter, DEXKindStableswap:
		default:
			return fmt.Errorf("unknown dexes[%d].kind: %s", i, d.Kind)
		}
		if d.ID == "" {
			return fmt.Errorf("dexes[%d].id is required", i)
		}
	}
	for _, l := range c.Detection.CycleLengths {
		if l < 3 {
			return fmt.Errorf("detection.cycle_lengths must all be >= 3, got %d", l)
		}
	}
	if len(c.Detection.TestAmounts) == 0 {
		return fmt.Errorf("detection.test_amounts cannot be empty")
	}
	if c.Detection.ExplorationRatio < 0 || c.Detection.ExplorationRatio > 1 {
		return fmt.Errorf("detection.exploration_ratio must be in [0,1]")
	}
	if c.Execution.Enabled {
		if !common.IsHexAddress(c.Execution.ProviderAddress) {
			return fmt.Errorf("invalid execution.provider_address: %s", c.Execution.ProviderAddress)
		}
		if !common.IsHexAddress(c.Execution.ReceiverAddress) {
			return fmt.Errorf("invalid execution.receiver_address: %s", c.Execution.ReceiverAddress)
		}
		if c.Execution.GasHighGwei <= c.Execution.GasLowGwei {
			return fmt.Errorf("execution.gas_high_gwei must exceed execution.gas_low_gwei")
		}
		if c.Execution.PrivateKey == "" {
			return fmt.Errorf("execution.private_key is required when execution is enabled")
		}
	}
	return nil
}
