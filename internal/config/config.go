package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"StockAnalyzer/internal/collector"
	"StockAnalyzer/internal/indicator"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider  string `yaml:"provider"` // "yahoo", "rest" or "mock"
		BaseURL   string `yaml:"base_url"`
		APIKey    string `yaml:"api_key"`
		Symbol    string `yaml:"symbol"`
		Period    string `yaml:"period"`
		StartDate string `yaml:"start_date"`
		EndDate   string `yaml:"end_date"`
	} `yaml:"data_source"`
	Indicators struct {
		MAWindow             int      `yaml:"ma_window"`
		RSIWindow            int      `yaml:"rsi_window"`
		MACDShort            int      `yaml:"macd_short"`
		MACDLong             int      `yaml:"macd_long"`
		MACDSignal           int      `yaml:"macd_signal"`
		FluctuationThreshold *float64 `yaml:"fluctuation_threshold"` // nil means the default; 0 is valid
	} `yaml:"indicators"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env and the YAML config file, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	overrideString(&cfg.DataSource.Provider, "DATA_PROVIDER")
	overrideString(&cfg.DataSource.BaseURL, "DATA_BASE_URL")
	overrideString(&cfg.DataSource.APIKey, "DATA_API_KEY")
	overrideString(&cfg.DataSource.Symbol, "SYMBOL")
	overrideString(&cfg.DataSource.Period, "PERIOD")
	overrideString(&cfg.DataSource.StartDate, "START_DATE")
	overrideString(&cfg.DataSource.EndDate, "END_DATE")
	// A date range from the environment replaces a period from the file.
	if os.Getenv("START_DATE") != "" && os.Getenv("END_DATE") != "" && os.Getenv("PERIOD") == "" {
		cfg.DataSource.Period = ""
	}
	overrideInt(&cfg.Indicators.MAWindow, "MA_WINDOW")
	overrideInt(&cfg.Indicators.RSIWindow, "RSI_WINDOW")
	overrideInt(&cfg.Indicators.MACDShort, "MACD_SHORT")
	overrideInt(&cfg.Indicators.MACDLong, "MACD_LONG")
	overrideInt(&cfg.Indicators.MACDSignal, "MACD_SIGNAL")
	if v := os.Getenv("FLUCTUATION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Indicators.FluctuationThreshold = &f
		}
	}
	overrideString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	overrideString(&cfg.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	overrideString(&cfg.Schedule.DailyCron, "CRON_DAILY")
	overrideString(&cfg.Database.SQLitePath, "SQLITE_PATH")
	overrideString(&cfg.Logging.Level, "LOG_LEVEL")
	overrideString(&cfg.Proxy, "HTTPS_PROXY")

	// Defaults
	defaults := indicator.DefaultParams()
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "AAPL"
	}
	if cfg.DataSource.Period == "" && cfg.DataSource.StartDate == "" && cfg.DataSource.EndDate == "" {
		cfg.DataSource.Period = "1mo"
	}
	if cfg.Indicators.MAWindow == 0 {
		cfg.Indicators.MAWindow = defaults.MAWindow
	}
	if cfg.Indicators.RSIWindow == 0 {
		cfg.Indicators.RSIWindow = defaults.RSIWindow
	}
	if cfg.Indicators.MACDShort == 0 {
		cfg.Indicators.MACDShort = defaults.MACDShort
	}
	if cfg.Indicators.MACDLong == 0 {
		cfg.Indicators.MACDLong = defaults.MACDLong
	}
	if cfg.Indicators.MACDSignal == 0 {
		cfg.Indicators.MACDSignal = defaults.MACDSignal
	}
	if cfg.Indicators.FluctuationThreshold == nil {
		t := defaults.FluctuationThreshold
		cfg.Indicators.FluctuationThreshold = &t
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if strings.TrimSpace(c.DataSource.Symbol) == "" {
		return fmt.Errorf("data_source.symbol is required")
	}
	if _, err := c.Request(); err != nil {
		return fmt.Errorf("data_source: %w", err)
	}
	if c.Indicators.MAWindow <= 0 || c.Indicators.RSIWindow <= 0 ||
		c.Indicators.MACDShort <= 0 || c.Indicators.MACDLong <= 0 || c.Indicators.MACDSignal <= 0 {
		return fmt.Errorf("indicators: windows must be positive")
	}
	if c.threshold() < 0 {
		return fmt.Errorf("indicators: fluctuation_threshold must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// Request builds the fetch request for the configured instrument.
func (c *Config) Request() (collector.Request, error) {
	start, err := collector.ParseDate(c.DataSource.StartDate)
	if err != nil {
		return collector.Request{}, err
	}
	end, err := collector.ParseDate(c.DataSource.EndDate)
	if err != nil {
		return collector.Request{}, err
	}
	req := collector.Request{
		Ticker: c.DataSource.Symbol,
		Period: c.DataSource.Period,
		Start:  start,
		End:    end,
	}
	return req, req.Validate()
}

// Params returns the indicator parameters.
func (c *Config) Params() indicator.Params {
	return indicator.Params{
		MAWindow:             c.Indicators.MAWindow,
		RSIWindow:            c.Indicators.RSIWindow,
		MACDShort:            c.Indicators.MACDShort,
		MACDLong:             c.Indicators.MACDLong,
		MACDSignal:           c.Indicators.MACDSignal,
		FluctuationThreshold: c.threshold(),
	}
}

func (c *Config) threshold() float64 {
	if c.Indicators.FluctuationThreshold == nil {
		return indicator.DefaultFluctuationThreshold
	}
	return *c.Indicators.FluctuationThreshold
}

// TelegramEnabled reports whether report delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
