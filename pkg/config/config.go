package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Engine struct {
		Pairs              []string      `yaml:"pairs"`
		BaseTimeframe      string        `yaml:"base_timeframe"`
		Informative        []string      `yaml:"informative_timeframes"`
		ReferencePair      string        `yaml:"reference_pair"`
		ReferenceTimeframe string        `yaml:"reference_timeframe"`
		WarmupCandles      int           `yaml:"warmup_candles"`
		MaxOpenPairs       int           `yaml:"max_open_pairs"`
		SlippageRatio      float64       `yaml:"slippage_ratio"`
		BaseStake          string        `yaml:"base_stake"`
		SignalCacheTTL     time.Duration `yaml:"signal_cache_ttl"`
	} `yaml:"engine"`
	Trading struct {
		MarketMode         string       `yaml:"market_mode"`
		AllowShorts        *bool        `yaml:"allow_shorts"`
		HoldsFile          string       `yaml:"holds_file"`
		ConditionOverrides map[int]bool `yaml:"condition_overrides"`
	} `yaml:"trading"`
	Adjustment struct {
		Enabled          bool    `yaml:"enabled"`
		MaxAdjustments   int     `yaml:"max_adjustments"`
		StakeMultiplier  float64 `yaml:"stake_multiplier"`
		MaxStakeMultiple float64 `yaml:"max_stake_multiple"`
	} `yaml:"adjustment"`
	Hybrid struct {
		Enabled           bool          `yaml:"enabled"`
		ServiceURL        string        `yaml:"service_url"`
		Timeout           time.Duration `yaml:"timeout"`
		Horizon           string        `yaml:"horizon"`
		MinExpectedReturn float64       `yaml:"min_expected_return"`
		MinConfidence     float64       `yaml:"min_confidence"`
		RuleWeight        float64       `yaml:"rule_weight"`
		AcceptThreshold   float64       `yaml:"accept_threshold"`
	} `yaml:"hybrid"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		CandleTopic  string   `yaml:"candle_topic"`
		SignalTopic  string   `yaml:"signal_topic"`
		AdjustTopic  string   `yaml:"adjust_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("PAIRS"); v != "" {
		c.Engine.Pairs = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_CANDLE_TOPIC"); v != "" {
		c.Kafka.CandleTopic = v
	}
	if v := os.Getenv("HOLDS_FILE"); v != "" {
		c.Trading.HoldsFile = v
	}
	if v := os.Getenv("HYBRID_SERVICE_URL"); v != "" {
		c.Hybrid.ServiceURL = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Engine.Pairs) == 0 {
		return fmt.Errorf("engine.pairs cannot be empty")
	}
	if c.Engine.WarmupCandles <= 0 {
		return fmt.Errorf("engine.warmup_candles must be positive")
	}
	switch strings.ToLower(c.Trading.MarketMode) {
	case "spot", "futures", "margin":
	case "":
		return fmt.Errorf("trading.market_mode is required")
	default:
		return fmt.Errorf("trading.market_mode must be 'spot', 'futures' or 'margin', got '%s'", c.Trading.MarketMode)
	}
	if c.Adjustment.Enabled {
		if c.Adjustment.MaxAdjustments <= 0 {
			return fmt.Errorf("adjustment.max_adjustments must be positive")
		}
		if c.Adjustment.StakeMultiplier <= 0 {
			return fmt.Errorf("adjustment.stake_multiplier must be positive")
		}
		if c.Adjustment.MaxStakeMultiple < 1 {
			return fmt.Errorf("adjustment.max_stake_multiple must be at least 1")
		}
	}
	if c.Hybrid.Enabled {
		if c.Hybrid.ServiceURL == "" {
			return fmt.Errorf("hybrid.service_url is required when hybrid is enabled")
		}
		if c.Hybrid.RuleWeight < 0 || c.Hybrid.RuleWeight > 1 {
			return fmt.Errorf("hybrid.rule_weight must be in [0,1]")
		}
	}
	return nil
}
