package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"icc.tech/switch-agent/internal/log"
)

// Load reads, decodes, and validates the configuration file at path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SWITCH_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(), // core.MAC, netip.Addr, netip.Prefix
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Log == nil {
		cfg.Log = log.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dataplane.verify_checksum", true)
	v.SetDefault("dataplane.flood_group", 1)
	v.SetDefault("health.timeout", 30*time.Second)
	v.SetDefault("health.sweep_interval", 5*time.Second)
	v.SetDefault("health.assume_up", true)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9109")
	v.SetDefault("metrics.path", "/metrics")
}
