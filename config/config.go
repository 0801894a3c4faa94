package config

import (
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr      = ":8080"
	defaultStartingBalance = 1000
	defaultCacheTTL        = time.Minute
	defaultProviderTimeout = 5 * time.Second
)

// Config is the resolved runtime configuration. Everything except the
// telegram token has a sane default.
type Config struct {
	TelegramToken   string
	ListenAddr      string
	StartingBalance decimal.Decimal
	CacheTTL        time.Duration
	ProviderTimeout time.Duration

	BirdeyeAPIKey string
	// Base URL overrides, empty means the provider's public endpoint.
	BirdeyeURL     string
	DexScreenerURL string
	PumpFunURL     string

	// SolPricer toggles the Binance-backed USD valuation of portfolios.
	SolPricer bool
}

type configTmp struct {
	TelegramToken      string        `yaml:"telegram_token,omitempty"`
	ListenAddr         string        `yaml:"listen_addr,omitempty"`
	StartingBalanceStr string        `yaml:"starting_balance,omitempty"`
	CacheTTL           time.Duration `yaml:"cache_ttl,omitempty"`
	ProviderTimeout    time.Duration `yaml:"provider_timeout,omitempty"`
	BirdeyeAPIKey      string        `yaml:"birdeye_api_key,omitempty"`
	BirdeyeURL         string        `yaml:"birdeye_url,omitempty"`
	DexScreenerURL     string        `yaml:"dexscreener_url,omitempty"`
	PumpFunURL         string        `yaml:"pumpfun_url,omitempty"`
	SolPricer          *bool         `yaml:"sol_pricer,omitempty"`
}

// Get reads the yaml config named by the -config flag, if any, and fills the
// gaps from environment variables and defaults.
func Get() (Config, error) {
	path := flag.String("config", "", "path to yaml config")
	flag.Parse()

	var tmp configTmp
	if *path != "" {
		f, err := os.ReadFile(*path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(f, &tmp); err != nil {
			return Config{}, errors.Wrap(err, "parse config file")
		}
	}

	return fromTmp(tmp)
}

func fromTmp(tmp configTmp) (Config, error) {
	cfg := Config{
		TelegramToken:   tmp.TelegramToken,
		ListenAddr:      tmp.ListenAddr,
		CacheTTL:        tmp.CacheTTL,
		ProviderTimeout: tmp.ProviderTimeout,
		BirdeyeAPIKey:   tmp.BirdeyeAPIKey,
		BirdeyeURL:      tmp.BirdeyeURL,
		DexScreenerURL:  tmp.DexScreenerURL,
		PumpFunURL:      tmp.PumpFunURL,
		SolPricer:       true,
	}
	if tmp.SolPricer != nil {
		cfg.SolPricer = *tmp.SolPricer
	}

	if cfg.TelegramToken == "" {
		cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if cfg.BirdeyeAPIKey == "" {
		cfg.BirdeyeAPIKey = os.Getenv("BIRDEYE_API_KEY")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}

	cfg.StartingBalance = decimal.NewFromInt(defaultStartingBalance)
	if tmp.StartingBalanceStr != "" {
		balance, err := decimal.NewFromString(tmp.StartingBalanceStr)
		if err != nil {
			return Config{}, errors.Wrap(err, "incorrect 'starting_balance' param in yaml config")
		}
		if !balance.IsPositive() {
			return Config{}, errors.New("'starting_balance' must be positive")
		}
		cfg.StartingBalance = balance
	}

	if cfg.TelegramToken == "" {
		return Config{}, errors.New("telegram token is required: set 'telegram_token' in the config or TELEGRAM_BOT_TOKEN in the environment")
	}

	return cfg, nil
}
