package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML accepts human-readable values
// like "2s" or "500ms" as well as raw nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler. Bare integers are taken
// as nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration for the GARP analysis pipeline.
type Config struct {
	Solvency   SolvencyConfig   `yaml:"solvency"`
	Quality    QualityConfig    `yaml:"quality"`
	Valuation  ValuationConfig  `yaml:"valuation"`
	Technical  TechnicalConfig  `yaml:"technical"`
	DCF        DCFConfig        `yaml:"dcf"`
	Overrides  OverrideConfig   `yaml:"overrides"`
	Simulation SimulationConfig `yaml:"simulation"`
	Backtest   BacktestConfig   `yaml:"backtest"`
	Provider   ProviderConfig   `yaml:"provider"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	HTTP       HTTPConfig       `yaml:"http"`
}

// SolvencyConfig holds solvency check thresholds.
type SolvencyConfig struct {
	MaxDebtToEquity float64 `yaml:"max_debt_to_equity"` // 200 (percent)
	MinCurrentRatio float64 `yaml:"min_current_ratio"`  // 1.0
}

// QualityConfig holds quality check thresholds.
type QualityConfig struct {
	HighROE    float64 `yaml:"high_roe"`    // 0.15 tags "High ROE"
	HighMargin float64 `yaml:"high_margin"` // 0.40 tags "High Margins"
}

// ValuationConfig holds valuation check thresholds. The PEG ceiling is
// dynamic: base + sensitivity * market sentiment z-score, clamped to
// [ceiling_min, ceiling_max].
type ValuationConfig struct {
	PEGBase           float64 `yaml:"peg_base"`            // 1.5
	PEGSensitivity    float64 `yaml:"peg_sensitivity"`     // 0.3
	PEGCeilingMin     float64 `yaml:"peg_ceiling_min"`     // 0.8
	PEGCeilingMax     float64 `yaml:"peg_ceiling_max"`     // 2.0
	SectorPEZFail     float64 `yaml:"sector_pe_z_fail"`    // 1.0 sector z-score above which trailing P/E fails
	TargetAdjustMax   float64 `yaml:"target_adjust_max"`   // 0.05 max sentiment adjustment of analyst target
	MarginGood        float64 `yaml:"margin_good"`         // 0.10
	MarginDeep        float64 `yaml:"margin_deep"`         // 0.20
	MarginOverpriced  float64 `yaml:"margin_overpriced"`   // -0.10
	ForwardPEDiscount float64 `yaml:"forward_pe_discount"` // 0.8 forward P/E must be below this fraction of trailing to excuse a high trailing P/E
}

// TechnicalConfig holds technical check thresholds.
type TechnicalConfig struct {
	RSIOverbought float64 `yaml:"rsi_overbought"` // 70
	RSIOversold   float64 `yaml:"rsi_oversold"`   // 30
}

// DCFConfig holds the two-stage DCF model parameters.
type DCFConfig struct {
	BaseDiscountRate float64 `yaml:"base_discount_rate"` // 0.09
	SentimentScale   float64 `yaml:"sentiment_scale"`    // 0.02 penalty = scale * tanh(z)
	GrowthFloor      float64 `yaml:"growth_floor"`       // 0.02
	TerminalGrowth   float64 `yaml:"terminal_growth"`    // 0.03
	ProjectionYears  int     `yaml:"projection_years"`   // 5
}

// OverrideConfig holds thresholds for the verdict override rules.
type OverrideConfig struct {
	ZScoreDistress     float64 `yaml:"z_score_distress"`     // 1.8 bankruptcy veto
	ZScoreSafe         float64 `yaml:"z_score_safe"`         // 3.0 quality rescue requirement
	FScoreVetoMax      int     `yaml:"f_score_veto_max"`     // 3 deteriorating financials veto
	FScoreRescueMin    int     `yaml:"f_score_rescue_min"`   // 7 quality rescue requirement
	SentimentScoreVeto float64 `yaml:"sentiment_score_veto"` // -50 news sentiment veto threshold
	SentimentConfVeto  float64 `yaml:"sentiment_conf_veto"`  // 0.6 news sentiment veto confidence
}

// SimulationConfig holds the resampling engine parameters.
type SimulationConfig struct {
	Paths            int `yaml:"paths"`              // 10000
	HorizonDays      int `yaml:"horizon_days"`       // 5 (1 week)
	MonthHorizonDays int `yaml:"month_horizon_days"` // 21 (1 month)
	MinRegimeSamples int `yaml:"min_regime_samples"` // 50 pool floor before falling back to full history
	Workers          int `yaml:"workers"`            // 0 = GOMAXPROCS
}

// BacktestConfig holds the walk-forward backtest parameters.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital"` // 10000
	SlippagePct    float64 `yaml:"slippage_pct"`    // 0.001
}

// ProviderConfig holds data provider failover parameters.
type ProviderConfig struct {
	MaxRetries     int      `yaml:"max_retries"`     // 3
	RetryDelay     Duration `yaml:"retry_delay"`     // 2s base, exponential
	RequestTimeout Duration `yaml:"request_timeout"` // 15s
	BenchmarkIndex string   `yaml:"benchmark_index"` // SPY
	VolatilityIdx  string   `yaml:"volatility_index"`
}

// PipelineConfig holds batch processing parameters.
type PipelineConfig struct {
	SymbolsPerSecond float64 `yaml:"symbols_per_second"` // 1.0 throttle for provider quotas
}

// RedisConfig holds snapshot store connection settings.
type RedisConfig struct {
	Addr     string   `yaml:"addr"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      Duration `yaml:"ttl"` // snapshot expiry, 0 = keep forever
}

// PostgresConfig holds archive store connection settings.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// HTTPConfig holds the read-only API server settings.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// Default returns production-ready defaults matching the documented
// GARP discipline thresholds.
func Default() *Config {
	return &Config{
		Solvency: SolvencyConfig{
			MaxDebtToEquity: 200.0,
			MinCurrentRatio: 1.0,
		},
		Quality: QualityConfig{
			HighROE:    0.15,
			HighMargin: 0.40,
		},
		Valuation: ValuationConfig{
			PEGBase:           1.5,
			PEGSensitivity:    0.3,
			PEGCeilingMin:     0.8,
			PEGCeilingMax:     2.0,
			SectorPEZFail:     1.0,
			TargetAdjustMax:   0.05,
			MarginGood:        0.10,
			MarginDeep:        0.20,
			MarginOverpriced:  -0.10,
			ForwardPEDiscount: 0.8,
		},
		Technical: TechnicalConfig{
			RSIOverbought: 70.0,
			RSIOversold:   30.0,
		},
		DCF: DCFConfig{
			BaseDiscountRate: 0.09,
			SentimentScale:   0.02,
			GrowthFloor:      0.02,
			TerminalGrowth:   0.03,
			ProjectionYears:  5,
		},
		Overrides: OverrideConfig{
			ZScoreDistress:     1.8,
			ZScoreSafe:         3.0,
			FScoreVetoMax:      3,
			FScoreRescueMin:    7,
			SentimentScoreVeto: -50.0,
			SentimentConfVeto:  0.6,
		},
		Simulation: SimulationConfig{
			Paths:            10000,
			HorizonDays:      5,
			MonthHorizonDays: 21,
			MinRegimeSamples: 50,
			Workers:          0,
		},
		Backtest: BacktestConfig{
			InitialCapital: 10000.0,
			SlippagePct:    0.001,
		},
		Provider: ProviderConfig{
			MaxRetries:     3,
			RetryDelay:     Duration(2 * time.Second),
			RequestTimeout: Duration(15 * time.Second),
			BenchmarkIndex: "SPY",
			VolatilityIdx:  "^VIX",
		},
		Pipeline: PipelineConfig{
			SymbolsPerSecond: 1.0,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  0,
		},
		HTTP: HTTPConfig{
			Listen: ":8087",
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would silently corrupt analysis results.
func (c *Config) Validate() error {
	if c.Solvency.MaxDebtToEquity <= 0 {
		return fmt.Errorf("solvency.max_debt_to_equity must be positive, got %.2f", c.Solvency.MaxDebtToEquity)
	}
	if c.Valuation.PEGCeilingMin > c.Valuation.PEGCeilingMax {
		return fmt.Errorf("valuation PEG ceiling band inverted: min %.2f > max %.2f",
			c.Valuation.PEGCeilingMin, c.Valuation.PEGCeilingMax)
	}
	if c.DCF.BaseDiscountRate <= c.DCF.TerminalGrowth {
		return fmt.Errorf("dcf.base_discount_rate %.3f must exceed terminal growth %.3f",
			c.DCF.BaseDiscountRate, c.DCF.TerminalGrowth)
	}
	if c.DCF.ProjectionYears <= 0 {
		return fmt.Errorf("dcf.projection_years must be positive, got %d", c.DCF.ProjectionYears)
	}
	if c.Simulation.Paths <= 0 {
		return fmt.Errorf("simulation.paths must be positive, got %d", c.Simulation.Paths)
	}
	if c.Simulation.HorizonDays <= 0 {
		return fmt.Errorf("simulation.horizon_days must be positive, got %d", c.Simulation.HorizonDays)
	}
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive, got %.2f", c.Backtest.InitialCapital)
	}
	if c.Backtest.SlippagePct < 0 || c.Backtest.SlippagePct >= 0.05 {
		return fmt.Errorf("backtest.slippage_pct %.4f outside sane range [0, 0.05)", c.Backtest.SlippagePct)
	}
	if c.Overrides.FScoreRescueMin <= c.Overrides.FScoreVetoMax {
		return fmt.Errorf("overrides: f_score_rescue_min %d must exceed f_score_veto_max %d",
			c.Overrides.FScoreRescueMin, c.Overrides.FScoreVetoMax)
	}
	return nil
}
