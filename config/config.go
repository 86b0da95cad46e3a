// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config builds the payflow runtime configuration from flags and
// PAYFLOW_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is the reported binary version.
const Version = "0.1.0"

const envPrefix = "payflow"

// Viper keys, shared with the flag names.
const (
	BlockSizeKey     = "block-size"
	ParsersKey       = "parsers"
	ShardsKey        = "shards"
	ChannelDepthKey  = "channel-depth"
	LogLevelKey      = "log-level"
	LogFileKey       = "log-file"
	LogMaxSizeKey    = "log-max-size"
	LogMaxBackupsKey = "log-max-backups"
	MetricsAddrKey   = "metrics-addr"
	VersionKey       = "version"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	BlockSize    int
	Parsers      int
	Shards       int
	ChannelDepth int

	LogLevel      string
	LogFile       string
	LogMaxSize    int // megabytes per rotated file
	LogMaxBackups int

	MetricsAddr string
}

// BuildFlagSet declares every flag with its default.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("payflow", pflag.ContinueOnError)
	fs.Int(BlockSizeKey, 0, "reader block size in bytes (0 = 64KiB)")
	fs.Int(ParsersKey, 0, "parser workers (0 = number of CPUs)")
	fs.Int(ShardsKey, 0, "account shards (0 = parser count)")
	fs.Int(ChannelDepthKey, 0, "bounded channel depth between stages (0 = auto)")
	fs.String(LogLevelKey, "info", "log verbosity (trace|debug|info|warn|error|crit)")
	fs.String(LogFileKey, "", "optional rotating JSON log file")
	fs.Int(LogMaxSizeKey, 100, "max size of a log file in MB before rotation")
	fs.Int(LogMaxBackupsKey, 3, "rotated log files to retain")
	fs.String(MetricsAddrKey, "", "serve prometheus metrics on this address during the run")
	fs.Bool(VersionKey, false, "print version and exit")
	return fs
}

// BuildViper parses args into fs and returns a viper bound to the flags
// and the PAYFLOW_ environment.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// BuildConfig resolves and validates the configuration held by v.
func BuildConfig(v *viper.Viper) (Config, error) {
	c := Config{
		BlockSize:     cast.ToInt(v.Get(BlockSizeKey)),
		Parsers:       cast.ToInt(v.Get(ParsersKey)),
		Shards:        cast.ToInt(v.Get(ShardsKey)),
		ChannelDepth:  cast.ToInt(v.Get(ChannelDepthKey)),
		LogLevel:      v.GetString(LogLevelKey),
		LogFile:       v.GetString(LogFileKey),
		LogMaxSize:    cast.ToInt(v.Get(LogMaxSizeKey)),
		LogMaxBackups: cast.ToInt(v.Get(LogMaxBackupsKey)),
		MetricsAddr:   v.GetString(MetricsAddrKey),
	}
	if c.BlockSize < 0 || c.Parsers < 0 || c.Shards < 0 || c.ChannelDepth < 0 {
		return Config{}, errors.New("pipeline sizing flags must not be negative")
	}
	if c.LogMaxSize <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", LogMaxSizeKey)
	}
	if c.LogMaxBackups < 0 {
		return Config{}, fmt.Errorf("%s must not be negative", LogMaxBackupsKey)
	}
	return c, nil
}
