package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Broker struct {
	AccountID   string `mapstructure:"account_id"`
	AccessToken string `mapstructure:"access_token"`
	ApiURL      string `mapstructure:"api_url"`
	StreamURL   string `mapstructure:"stream_url"`
	MaxRetries  uint   `mapstructure:"max_retries"`
}

type Engine struct {
	Symbols     []string      `mapstructure:"symbols"`
	Timeframe   string        `mapstructure:"timeframe"`
	BarPeriod   time.Duration `mapstructure:"bar_period"`
	Heartbeat   time.Duration `mapstructure:"heartbeat"`
	PreloadBars int           `mapstructure:"preload_bars"`
	Capacity    int           `mapstructure:"capacity"`
}

type Strategy struct {
	SignalFile     string `mapstructure:"signal_file"`
	StopLossPips   int    `mapstructure:"stop_loss_pips"`
	TakeProfitPips int    `mapstructure:"take_profit_pips"`
}

type Sizing struct {
	Units float64 `mapstructure:"units"`
}

type Data struct {
	Source string    `mapstructure:"source"` // duckdb | binary
	Path   string    `mapstructure:"path"`
	From   time.Time `mapstructure:"from"`
	To     time.Time `mapstructure:"to"`
}

type Output struct {
	Directory      string  `mapstructure:"directory"`
	InitialCapital float64 `mapstructure:"initial_capital"`
}

type Config struct {
	Broker   Broker   `mapstructure:"broker"`
	Engine   Engine   `mapstructure:"engine"`
	Strategy Strategy `mapstructure:"strategy"`
	Sizing   Sizing   `mapstructure:"sizing"`
	Data     Data     `mapstructure:"data"`
	Output   Output   `mapstructure:"output"`
}

// Load reads the configuration file and applies environment overrides for
// the broker credentials.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("engine.timeframe", "M1")
	v.SetDefault("engine.bar_period", time.Minute)
	v.SetDefault("engine.heartbeat", time.Duration(0))
	v.SetDefault("engine.preload_bars", 0)
	v.SetDefault("engine.capacity", 128)
	v.SetDefault("sizing.units", 0.01)
	v.SetDefault("broker.max_retries", 1)
	v.SetDefault("output.directory", ".")
	v.SetDefault("output.initial_capital", 10000)

	if err := v.BindEnv("broker.account_id", "OANDA_API_ACCOUNT_ID"); err != nil {
		return Config{}, err
	}
	if err := v.BindEnv("broker.access_token", "OANDA_API_ACCESS_TOKEN"); err != nil {
		return Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("unable to read config %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if len(cfg.Engine.Symbols) == 0 {
		return Config{}, fmt.Errorf("engine.symbols must not be empty")
	}
	return cfg, nil
}
