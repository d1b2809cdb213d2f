// Package config loads a policy.Options from the process environment
// using viper's BindEnv-then-Unmarshal style.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/go-respool/respool/policy"
)

// EnvKeys lists the environment variables Load reads, named the way the
// pooled resource's deployment manifest would set them.
var EnvKeys = map[string]string{
	"pool_name":                "POOL_NAME",
	"pool_size":                "POOL_SIZE",
	"pool_sync_get_timeout":    "POOL_SYNC_GET_TIMEOUT",
	"pool_async_get_capacity":  "POOL_ASYNC_GET_CAPACITY",
	"pool_check_interval":      "POOL_CHECK_INTERVAL",
	"pool_throw_on_get_timeout": "POOL_THROW_ON_GET_TIMEOUT",
}

func bindEnvVars() {
	for key, env := range EnvKeys {
		viper.BindEnv(key, env)
	}
}

// rawConfig mirrors policy.Options' field names in viper's lower-snake-case
// key convention so Unmarshal can populate it directly from the bound env
// vars, then Load converts the duration fields (viper unmarshals them as
// plain strings/ints, not time.Duration) into an Options.
type rawConfig struct {
	PoolName               string `mapstructure:"pool_name"`
	PoolSize               int    `mapstructure:"pool_size"`
	PoolSyncGetTimeout     string `mapstructure:"pool_sync_get_timeout"`
	PoolAsyncGetCapacity   int    `mapstructure:"pool_async_get_capacity"`
	PoolCheckInterval      string `mapstructure:"pool_check_interval"`
	PoolThrowOnGetTimeout  bool   `mapstructure:"pool_throw_on_get_timeout"`
}

// Load reads POOL_* environment variables into a policy.Options. POOL_SIZE
// must be set to at least 1, or Load returns an error. Other missing
// variables leave the corresponding Options field at its zero value, which
// policy.Options.withDefaults (applied by policy.NewBase) fills in.
func Load() (policy.Options, error) {
	bindEnvVars()
	viper.AutomaticEnv()

	var raw rawConfig
	if err := viper.Unmarshal(&raw); err != nil {
		return policy.Options{}, fmt.Errorf("config: unmarshal env: %w", err)
	}

	opts := policy.Options{
		Name:              raw.PoolName,
		PoolSize:          raw.PoolSize,
		AsyncGetCapacity:  raw.PoolAsyncGetCapacity,
		ThrowOnGetTimeout: raw.PoolThrowOnGetTimeout,
	}

	if raw.PoolSyncGetTimeout != "" {
		d, err := time.ParseDuration(raw.PoolSyncGetTimeout)
		if err != nil {
			return policy.Options{}, fmt.Errorf("config: invalid %s: %q", EnvKeys["pool_sync_get_timeout"], raw.PoolSyncGetTimeout)
		}
		opts.SyncGetTimeout = d
	}
	if raw.PoolCheckInterval != "" {
		d, err := time.ParseDuration(raw.PoolCheckInterval)
		if err != nil {
			return policy.Options{}, fmt.Errorf("config: invalid %s: %q", EnvKeys["pool_check_interval"], raw.PoolCheckInterval)
		}
		opts.CheckInterval = d
	}

	if opts.PoolSize < 1 {
		return policy.Options{}, fmt.Errorf("config: %s must be >= 1, got %d", EnvKeys["pool_size"], opts.PoolSize)
	}

	return opts, nil
}
