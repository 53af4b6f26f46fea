// Package config binds the engine's run parameters (spec §6 entry
// point) to viper, so they can come from a config file, environment
// variables, or flags with the usual precedence.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Run is the fully resolved set of parameters scheduler.Config needs
// beyond the target/builder factories, which only a target registration
// (Go code, not config) can supply.
type Run struct {
	Threads    int   `mapstructure:"threads"`
	Rounds     int   `mapstructure:"rounds"`
	StepBudget int   `mapstructure:"step_budget"`
	Seed       int64 `mapstructure:"seed"`
}

// defaults mirror a small, deterministic smoke run — enough to catch an
// obviously broken target without the caller having to tune anything.
func setDefaults(v *viper.Viper) {
	v.SetDefault("threads", 2)
	v.SetDefault("rounds", 50)
	v.SetDefault("step_budget", 10000)
	v.SetDefault("seed", 1)
}

// Load resolves a Run from (in ascending precedence) defaults, a config
// file named .ltest.yaml in the working directory or the user's home
// directory, and LTEST_-prefixed environment variables. cfgFile, if
// non-empty, overrides the default config file search.
func Load(cfgFile string) (*Run, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".ltest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix("LTEST")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var run Run
	if err := v.Unmarshal(&run); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &run, nil
}
