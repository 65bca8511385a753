package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StageConfig defines one confirmation stage. Waits are cumulative since
// detection and expressed in confirmation-timeframe candles.
type StageConfig struct {
	WaitCandles         int     `yaml:"wait_candles" validate:"gt=0"`
	CandleCount         int     `yaml:"candle_count" default:"1" validate:"gt=0"`
	MinBodyRatio        float64 `yaml:"min_body_ratio" validate:"gte=0,lte=1"`
	MinVolumeRatio      float64 `yaml:"min_volume_ratio" validate:"gte=0"`
	MinDisplacementPct  float64 `yaml:"min_displacement_pct" validate:"gte=0"`
	MaxWickRatio        float64 `yaml:"max_wick_ratio" validate:"gte=0,lte=1"` // 0 disables the wick criterion
	ConfidenceThreshold float64 `yaml:"confidence_threshold" validate:"gt=0,lte=100"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Scanner struct {
		TickInterval time.Duration `yaml:"tick_interval" default:"60s" validate:"gt=0"`
		// Discovery selects the traded universe from the exchange's 24h
		// tickers each tick instead of a fixed symbol list.
		Discovery     bool     `yaml:"discovery"`
		Symbols       []string `yaml:"symbols"`
		WindowSize    int           `yaml:"window_size" default:"100" validate:"gte=30"`
		MinVolumeUSDT float64       `yaml:"min_volume_usdt" default:"1000000"`
		MinPrice      float64       `yaml:"min_price" default:"0.0001"`
		MaxPrice      float64       `yaml:"max_price" default:"150000"`
		ExcludedBases []string      `yaml:"excluded_bases"`
	} `yaml:"scanner"`
	Detectors struct {
		Gap struct {
			MinGapPct          float64 `yaml:"min_gap_pct" default:"0.005" validate:"gt=0,lt=1"`
			ProximityPct       float64 `yaml:"proximity_pct" default:"0.02" validate:"gt=0,lt=1"`
			VolumeConfirmRatio float64 `yaml:"volume_confirm_ratio" default:"1.5" validate:"gte=1"`
			VolumeWindow       int     `yaml:"volume_window" default:"20" validate:"gt=1"`
			MaxAgeCandles      int     `yaml:"max_age_candles" default:"50" validate:"gt=0"`
		} `yaml:"gap"`
		Pattern struct {
			TolerancePct  float64 `yaml:"tolerance_pct" default:"0.01" validate:"gt=0,lt=1"`
			MinConfidence float64 `yaml:"min_confidence" default:"70" validate:"gte=0,lte=100"`
			PivotDistance int     `yaml:"pivot_distance" default:"3" validate:"gt=0"`
			Lookback      int     `yaml:"lookback" default:"50" validate:"gte=15"`
		} `yaml:"pattern"`
		Trendline struct {
			Window            int     `yaml:"window" default:"20" validate:"gte=10"`
			BreakoutMarginPct float64 `yaml:"breakout_margin_pct" default:"0.01" validate:"gt=0,lt=1"`
			PivotDistance     int     `yaml:"pivot_distance" default:"2" validate:"gt=0"`
		} `yaml:"trendline"`
		Volume struct {
			Window          int     `yaml:"window" default:"10" validate:"gt=1"`
			SpikeRatio      float64 `yaml:"spike_ratio" default:"1.2" validate:"gt=1"`
			ExplosiveRatio  float64 `yaml:"explosive_ratio" default:"2.0" validate:"gt=1"`
			SaturationRatio float64 `yaml:"saturation_ratio" default:"5.0" validate:"gt=1"`
		} `yaml:"volume"`
		Momentum struct {
			ChangeWindow int `yaml:"change_window" default:"5" validate:"gt=1"`
			ATRPeriod    int `yaml:"atr_period" default:"14" validate:"gt=1"`
		} `yaml:"momentum"`
	} `yaml:"detectors"`
	Aggregator struct {
		Timeframes       []string           `yaml:"timeframes"`
		TimeframeWeights map[string]float64 `yaml:"timeframe_weights"`
		Caps             struct {
			Gap        float64 `yaml:"gap" default:"22" validate:"gt=0"`
			Pattern    float64 `yaml:"pattern" default:"22" validate:"gt=0"`
			Trendline  float64 `yaml:"trendline" default:"18" validate:"gt=0"`
			Volume     float64 `yaml:"volume" default:"12" validate:"gt=0"`
			Momentum   float64 `yaml:"momentum" default:"8" validate:"gt=0"`
			Confluence float64 `yaml:"confluence" default:"18" validate:"gt=0"`
		} `yaml:"caps"`
		CompositeMax    float64 `yaml:"composite_max" default:"110" validate:"gt=0"`
		StrongCutoff    float64 `yaml:"strong_cutoff" default:"80" validate:"gt=0"`
		ModerateCutoff  float64 `yaml:"moderate_cutoff" default:"60" validate:"gt=0"`
		PerfectBonus    float64 `yaml:"perfect_bonus" default:"4"`
		ConflictPenalty float64 `yaml:"conflict_penalty" default:"1.8"`
	} `yaml:"aggregator"`
	Confirmation struct {
		Timeframe    string        `yaml:"timeframe" default:"5m"`
		Stages       []StageConfig `yaml:"stages"`
		MaxRetries   int           `yaml:"max_retries" default:"5" validate:"gt=0"`
		MaxStaleness time.Duration `yaml:"max_staleness" default:"10m" validate:"gt=0"`
	} `yaml:"confirmation"`
	Cooldown struct {
		Window      time.Duration `yaml:"window" default:"30m" validate:"gt=0"`
		PurgeFactor int           `yaml:"purge_factor" default:"2" validate:"gte=1"`
	} `yaml:"cooldown"`
	Binance struct {
		RESTBaseURL    string        `yaml:"rest_base_url" default:"https://api.binance.com"`
		WSBaseURL      string        `yaml:"ws_base_url" default:"wss://stream.binance.com:9443/ws"`
		Timeout        time.Duration `yaml:"timeout" default:"10s"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		UseStream      bool          `yaml:"use_stream" default:"true"`
		MaxRPS         float64       `yaml:"max_rps" default:"10"`
	} `yaml:"binance"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"signals.confirmed"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"swingscan"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Cache struct {
		Enabled bool `yaml:"enabled"`
		Redis   struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		CandleTTL time.Duration `yaml:"candle_ttl" default:"30s" validate:"gt=0"`
	} `yaml:"cache"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies defaults, and
// validates it. Any validation failure is fatal for the caller: scanning
// must not start on a bad configuration.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	c.applyFallbacks()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML (plus an optional .env file) and
// overrides selected fields with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Scanner.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// applyFallbacks fills slice/map fields that struct-tag defaults cannot express.
func (c *Config) applyFallbacks() {
	// With discovery enabled an empty symbol list stays empty; the
	// scanner pulls its universe from the exchange instead.
	if !c.Scanner.Discovery && len(c.Scanner.Symbols) == 0 {
		c.Scanner.Symbols = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT"}
	}
	if len(c.Scanner.ExcludedBases) == 0 {
		c.Scanner.ExcludedBases = []string{"USDT", "BUSD", "USDC", "DAI", "TUSD"}
	}
	if len(c.Aggregator.Timeframes) == 0 {
		c.Aggregator.Timeframes = []string{"1h", "4h", "1d"}
	}
	if len(c.Aggregator.TimeframeWeights) == 0 {
		c.Aggregator.TimeframeWeights = map[string]float64{
			"1d": 0.40,
			"4h": 0.35,
			"1h": 0.25,
		}
	}
	if len(c.Confirmation.Stages) == 0 {
		c.Confirmation.Stages = []StageConfig{
			{WaitCandles: 1, CandleCount: 1, MinBodyRatio: 0.6, MinVolumeRatio: 1.2, MinDisplacementPct: 0, MaxWickRatio: 0, ConfidenceThreshold: 60},
			{WaitCandles: 2, CandleCount: 1, MinBodyRatio: 0.7, MinVolumeRatio: 1.5, MinDisplacementPct: 0, MaxWickRatio: 0.3, ConfidenceThreshold: 80},
			{WaitCandles: 3, CandleCount: 1, MinBodyRatio: 0.8, MinVolumeRatio: 2.0, MinDisplacementPct: 0.01, MaxWickRatio: 0.2, ConfidenceThreshold: 85},
			{WaitCandles: 5, CandleCount: 1, MinBodyRatio: 0.9, MinVolumeRatio: 3.0, MinDisplacementPct: 0.02, MaxWickRatio: 0.15, ConfidenceThreshold: 90},
		}
	}
}

// Validate checks structural tags plus the cross-field invariants the
// scan core depends on.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	if len(c.Aggregator.Timeframes) == 0 {
		return fmt.Errorf("aggregator.timeframes cannot be empty")
	}
	var weightSum float64
	for _, tf := range c.Aggregator.Timeframes {
		w, ok := c.Aggregator.TimeframeWeights[tf]
		if !ok {
			return fmt.Errorf("aggregator.timeframe_weights missing entry for %q", tf)
		}
		if w <= 0 {
			return fmt.Errorf("aggregator.timeframe_weights[%q] must be positive, got %v", tf, w)
		}
		weightSum += w
	}
	if math.Abs(weightSum-1.0) > 1e-6 {
		return fmt.Errorf("aggregator.timeframe_weights must sum to 1, got %v", weightSum)
	}

	if c.Aggregator.ModerateCutoff >= c.Aggregator.StrongCutoff {
		return fmt.Errorf("aggregator.moderate_cutoff (%v) must be below strong_cutoff (%v)",
			c.Aggregator.ModerateCutoff, c.Aggregator.StrongCutoff)
	}
	if c.Aggregator.StrongCutoff >= c.Aggregator.CompositeMax {
		return fmt.Errorf("aggregator.strong_cutoff (%v) must be below composite_max (%v)",
			c.Aggregator.StrongCutoff, c.Aggregator.CompositeMax)
	}

	if len(c.Confirmation.Stages) == 0 {
		return fmt.Errorf("confirmation.stages cannot be empty")
	}
	for i, st := range c.Confirmation.Stages {
		if i == 0 {
			continue
		}
		prev := c.Confirmation.Stages[i-1]
		if st.WaitCandles <= prev.WaitCandles {
			return fmt.Errorf("confirmation.stages[%d].wait_candles (%d) must exceed stage %d (%d)",
				i, st.WaitCandles, i-1, prev.WaitCandles)
		}
		if st.ConfidenceThreshold <= prev.ConfidenceThreshold {
			return fmt.Errorf("confirmation.stages[%d].confidence_threshold (%v) must exceed stage %d (%v)",
				i, st.ConfidenceThreshold, i-1, prev.ConfidenceThreshold)
		}
	}

	if c.Detectors.Volume.ExplosiveRatio <= c.Detectors.Volume.SpikeRatio {
		return fmt.Errorf("detectors.volume.explosive_ratio (%v) must exceed spike_ratio (%v)",
			c.Detectors.Volume.ExplosiveRatio, c.Detectors.Volume.SpikeRatio)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka.enabled")
	}
	return nil
}
