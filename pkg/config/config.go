package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// Operators accepted in rule comparisons.
var validOperators = map[string]bool{">": true, "<": true, ">=": true, "<=": true, "==": true}

// Indicator feed kinds.
const (
	SourceFred      = "fred"
	SourceQuotes    = "quotes"
	SourceEstimated = "estimated"
	SourceDerived   = "derived"
)

// EventConfig declares one risk event with its base prior and the critical
// classification threshold. High and moderate thresholds are fixed fractions
// of critical (0.7 and 0.4) and derived at load time.
type EventConfig struct {
	ID                string  `yaml:"id"`
	BasePrior         float64 `yaml:"base_prior"`
	CriticalThreshold float64 `yaml:"critical_threshold"`
}

// IndicatorConfig declares one indicator in the registry.
type IndicatorConfig struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	Source        string  `yaml:"source"` // fred, quotes, estimated, derived
	SeriesID      string  `yaml:"series_id,omitempty"`
	Transform     string  `yaml:"transform,omitempty"` // empty or yoy
	Symbol        string  `yaml:"symbol,omitempty"`
	Period        string  `yaml:"period"` // daily, monthly, quarterly
	Estimate      float64 `yaml:"estimate,omitempty"`
	ThresholdText string  `yaml:"threshold_text,omitempty"`
	Unit          string  `yaml:"unit,omitempty"`
	Decimals      int     `yaml:"decimals"`
}

// CompositeConfig makes a rule evaluate a derived scalar of two indicators
// instead of a single raw value.
type CompositeConfig struct {
	Op     string `yaml:"op"` // spread (a-b) or ratio (a/b)
	Second string `yaml:"second"`
}

// RuleConfig is one row of the risk rule table.
type RuleConfig struct {
	Event            string           `yaml:"event"`
	Indicator        string           `yaml:"indicator"`
	Operator         string           `yaml:"operator"`
	Value            float64          `yaml:"value"`
	BaseFactor       float64          `yaml:"base_factor"`
	Description      string           `yaml:"description"`
	InvertedForTrend bool             `yaml:"inverted_for_trend"`
	Composite        *CompositeConfig `yaml:"composite,omitempty"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type" default:"clickhouse"`
		BatchSize    int           `yaml:"batch_size" default:"500"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers           []string `yaml:"brokers"`
		AssessmentsTopic  string   `yaml:"assessments_topic" default:"risk.assessments"`
		ObservationsTopic string   `yaml:"observations_topic" default:"risk.observations"`
		AuditTopic        string   `yaml:"audit_topic" default:"risk.audit"`
		RequiredAcks      int      `yaml:"required_acks" default:"-1"`
		Compression       string   `yaml:"compression" default:"snappy"`
		Producer          struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			BatchTimeout time.Duration `yaml:"batch_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID     string        `yaml:"group_id" default:"riskpulse"`
			StartOffset string        `yaml:"start_offset" default:"earliest"`
			Workers     int           `yaml:"workers" default:"4"`
			BufferSize  int           `yaml:"buffer_size" default:"256"`
			RetryMax    int           `yaml:"retry_max" default:"3"`
			BackoffMin  time.Duration `yaml:"backoff_min"`
			BackoffMax  time.Duration `yaml:"backoff_max"`
			DLQTopic    string        `yaml:"dlq_topic"`
			MinBytes    int           `yaml:"min_bytes"`
			MaxBytes    int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"riskpulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"indicator_observations"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		PoolTimeout  time.Duration `yaml:"pool_timeout"`
		Prefix       string        `yaml:"prefix" default:"riskpulse"`
	} `yaml:"redis"`
	Queue struct {
		Name       string        `yaml:"name" default:"riskpulse:jobs"`
		Workers    int           `yaml:"workers" default:"2"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
		Mode       string        `yaml:"mode" default:"immediate"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"queue"`
	Fred struct {
		BaseURL string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"fred"`
	Quotes struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		APIKey         string        `yaml:"api_key"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"quotes"`
	Engine struct {
		RefreshInterval        time.Duration `yaml:"refresh_interval"`
		TrendWindow            int           `yaml:"trend_window" default:"12"`
		HighVelocityThreshold  float64       `yaml:"high_velocity_threshold" default:"2.0"`
		MultiplierFloor        float64       `yaml:"multiplier_floor" default:"0.5"`
		MultiplierCeil         float64       `yaml:"multiplier_ceil" default:"1.5"`
		DiscountTwoFactors     float64       `yaml:"discount_two_factors" default:"0.7"`
		DiscountManyFactors    float64       `yaml:"discount_many_factors" default:"0.5"`
		DisableTrendAdjustment bool          `yaml:"disable_trend_adjustment"`
		SnapshotTTL            time.Duration `yaml:"snapshot_ttl"`
		AssessmentTTL          time.Duration `yaml:"assessment_ttl"`
	} `yaml:"engine"`
	Events     []EventConfig     `yaml:"events"`
	Indicators []IndicatorConfig `yaml:"indicators"`
	Rules      []RuleConfig      `yaml:"rules"`
}

// Load reads and parses a YAML configuration file. Missing event, indicator,
// and rule sections fall back to the built-in table.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(c.Events) == 0 {
		c.Events = DefaultEvents()
	}
	if len(c.Indicators) == 0 {
		c.Indicators = DefaultIndicators()
	}
	if len(c.Rules) == 0 {
		c.Rules = DefaultRules()
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	c.applyDurationDefaults()

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
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.Fred.APIKey = v
	}
	if v := os.Getenv("QUOTES_API_KEY"); v != "" {
		c.Quotes.APIKey = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}

	return c, nil
}

// applyDurationDefaults backfills durations the defaults library does not cover.
func (c *Config) applyDurationDefaults() {
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Backend.BatchTimeout <= 0 {
		c.Backend.BatchTimeout = 2 * time.Second
	}
	if c.Kafka.Consumer.BackoffMin <= 0 {
		c.Kafka.Consumer.BackoffMin = 200 * time.Millisecond
	}
	if c.Kafka.Consumer.BackoffMax <= 0 {
		c.Kafka.Consumer.BackoffMax = 5 * time.Second
	}
	if c.Redis.PoolTimeout <= 0 {
		c.Redis.PoolTimeout = 4 * time.Second
	}
	if c.Queue.RetryDelay <= 0 {
		c.Queue.RetryDelay = 30 * time.Second
	}
	if c.Fred.Timeout <= 0 {
		c.Fred.Timeout = 10 * time.Second
	}
	if c.Quotes.ReconnectDelay <= 0 {
		c.Quotes.ReconnectDelay = 5 * time.Second
	}
	if c.Quotes.PingInterval <= 0 {
		c.Quotes.PingInterval = 30 * time.Second
	}
	if c.Engine.RefreshInterval <= 0 {
		c.Engine.RefreshInterval = 15 * time.Minute
	}
	if c.Engine.SnapshotTTL <= 0 {
		c.Engine.SnapshotTTL = 5 * time.Minute
	}
	if c.Engine.AssessmentTTL <= 0 {
		c.Engine.AssessmentTTL = c.Engine.RefreshInterval
	}
}

// Validate checks if the configuration is valid. Any error here is fatal:
// the engine must never start a cycle against a malformed rule table.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	indicators, err := c.validateIndicators()
	if err != nil {
		return err
	}
	if err := c.validateRules(indicators); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	e := &c.Engine
	if e.TrendWindow < 3 {
		return fmt.Errorf("engine.trend_window must be >= 3, got %d", e.TrendWindow)
	}
	if e.HighVelocityThreshold <= 0 {
		return fmt.Errorf("engine.high_velocity_threshold must be positive")
	}
	if e.MultiplierFloor <= 0 || e.MultiplierFloor > 1 {
		return fmt.Errorf("engine.multiplier_floor must be in (0,1], got %v", e.MultiplierFloor)
	}
	if e.MultiplierCeil < 1 {
		return fmt.Errorf("engine.multiplier_ceil must be >= 1, got %v", e.MultiplierCeil)
	}
	if e.DiscountTwoFactors <= 0 || e.DiscountTwoFactors > 1 {
		return fmt.Errorf("engine.discount_two_factors must be in (0,1], got %v", e.DiscountTwoFactors)
	}
	if e.DiscountManyFactors <= 0 || e.DiscountManyFactors > 1 {
		return fmt.Errorf("engine.discount_many_factors must be in (0,1], got %v", e.DiscountManyFactors)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if len(c.Events) == 0 {
		return fmt.Errorf("events cannot be empty")
	}
	seen := make(map[string]bool, len(c.Events))
	for i, ev := range c.Events {
		if ev.ID == "" {
			return fmt.Errorf("events[%d].id is required", i)
		}
		if seen[ev.ID] {
			return fmt.Errorf("event '%s' declared twice", ev.ID)
		}
		seen[ev.ID] = true
		if ev.BasePrior <= 0 || ev.BasePrior >= 1 {
			return fmt.Errorf("event '%s': base_prior must be in (0,1), got %v", ev.ID, ev.BasePrior)
		}
		if ev.CriticalThreshold <= 0 || ev.CriticalThreshold > 1 {
			return fmt.Errorf("event '%s': critical_threshold must be in (0,1], got %v", ev.ID, ev.CriticalThreshold)
		}
	}
	return nil
}

func (c *Config) validateIndicators() (map[string]bool, error) {
	if len(c.Indicators) == 0 {
		return nil, fmt.Errorf("indicators cannot be empty")
	}
	known := make(map[string]bool, len(c.Indicators))
	needsFredKey := false
	for i, ind := range c.Indicators {
		if ind.ID == "" {
			return nil, fmt.Errorf("indicators[%d].id is required", i)
		}
		if known[ind.ID] {
			return nil, fmt.Errorf("indicator '%s' declared twice", ind.ID)
		}
		known[ind.ID] = true
		switch ind.Source {
		case SourceFred:
			if ind.SeriesID == "" {
				return nil, fmt.Errorf("indicator '%s': series_id required for fred source", ind.ID)
			}
			if ind.Transform != "" && ind.Transform != "yoy" {
				return nil, fmt.Errorf("indicator '%s': unknown transform '%s'", ind.ID, ind.Transform)
			}
			needsFredKey = true
		case SourceQuotes:
			if ind.Symbol == "" {
				return nil, fmt.Errorf("indicator '%s': symbol required for quotes source", ind.ID)
			}
		case SourceEstimated, SourceDerived:
		default:
			return nil, fmt.Errorf("indicator '%s': unknown source '%s'", ind.ID, ind.Source)
		}
		switch ind.Period {
		case "daily", "monthly", "quarterly", "annual":
		default:
			return nil, fmt.Errorf("indicator '%s': unknown period '%s'", ind.ID, ind.Period)
		}
	}
	if needsFredKey && c.Fred.APIKey == "" {
		return nil, fmt.Errorf("fred.api_key is required when fred-sourced indicators are configured")
	}
	return known, nil
}

func (c *Config) validateRules(indicators map[string]bool) error {
	if len(c.Rules) == 0 {
		return fmt.Errorf("rules cannot be empty")
	}
	events := make(map[string]bool, len(c.Events))
	for _, ev := range c.Events {
		events[ev.ID] = true
	}
	// Trend statistics are computed once per indicator, so every rule naming
	// the same indicator must agree on its polarity.
	inverted := make(map[string]bool)
	for i, r := range c.Rules {
		if !events[r.Event] {
			return fmt.Errorf("rules[%d]: unknown event '%s'", i, r.Event)
		}
		if !indicators[r.Indicator] {
			return fmt.Errorf("rules[%d]: unknown indicator '%s'", i, r.Indicator)
		}
		if !validOperators[r.Operator] {
			return fmt.Errorf("rules[%d]: unknown operator '%s'", i, r.Operator)
		}
		if r.BaseFactor <= 1 {
			return fmt.Errorf("rules[%d]: base_factor must be > 1, got %v", i, r.BaseFactor)
		}
		if r.Composite != nil {
			if r.Composite.Op != "spread" && r.Composite.Op != "ratio" {
				return fmt.Errorf("rules[%d]: unknown composite op '%s'", i, r.Composite.Op)
			}
			if !indicators[r.Composite.Second] {
				return fmt.Errorf("rules[%d]: unknown composite indicator '%s'", i, r.Composite.Second)
			}
		}
		if prev, ok := inverted[r.Indicator]; ok && prev != r.InvertedForTrend {
			return fmt.Errorf("rules[%d]: indicator '%s' has conflicting inverted_for_trend flags", i, r.Indicator)
		}
		inverted[r.Indicator] = r.InvertedForTrend
	}
	return nil
}

// InvertedIndicators returns the per-indicator trend polarity derived from
// the rule table. Validation guarantees the flags are consistent.
func (c *Config) InvertedIndicators() map[string]bool {
	out := make(map[string]bool)
	for _, r := range c.Rules {
		out[r.Indicator] = r.InvertedForTrend
	}
	return out
}
