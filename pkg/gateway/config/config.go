// Package config loads the gateway's startup configuration. Everything is
// resolved once into a Config value that is passed explicitly; nothing reads
// the environment after startup.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Provider names. Credentials are scoped to these; a key configured for one
// provider is never used for another.
const (
	ProviderGrok        = "grok"
	ProviderMistral     = "mistral"
	ProviderPoe         = "poe"
	ProviderOddsAPI     = "oddsapi"
	ProviderYouCom      = "youcom"
	ProviderBetBurger   = "betburger"
	ProviderBallDontLie = "balldontlie"
)

// Providers lists every provider the gateway knows about, in the order the
// health endpoint reports them.
var Providers = []string{
	ProviderGrok,
	ProviderOddsAPI,
	ProviderYouCom,
	ProviderBetBurger,
	ProviderBallDontLie,
	ProviderPoe,
	ProviderMistral,
}

// Config is the gateway's startup configuration.
type Config struct {
	ListenAddr      string
	UpstreamTimeout time.Duration
	Keys            map[string]string // provider name -> default credential
}

// envKeys maps provider names to their config keys (env: SBA_<KEY>).
var envKeys = map[string]string{
	ProviderGrok:        "grok_api_key",
	ProviderMistral:     "mistral_api_key",
	ProviderPoe:         "poe_api_key",
	ProviderOddsAPI:     "odds_api_key",
	ProviderYouCom:      "youcom_api_key",
	ProviderBetBurger:   "betburger_api_key",
	ProviderBallDontLie: "balldontlie_api_key",
}

// Load reads configuration from SBA_* environment variables and, when
// cfgFile is non-empty, a YAML config file. File values lose to environment
// values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SBA")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("upstream_timeout", "30s")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:      v.GetString("listen_addr"),
		UpstreamTimeout: v.GetDuration("upstream_timeout"),
		Keys:            make(map[string]string, len(envKeys)),
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 30 * time.Second
	}

	for provider, key := range envKeys {
		cfg.Keys[provider] = v.GetString(key)
	}

	return cfg, nil
}
