package main

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

const envPrefix = "SOLKIT"

// BaseConfig is the configuration shared by every command.
type BaseConfig struct {
	RPC        string        `mapstructure:"rpc"`
	Commitment string        `mapstructure:"commitment"`
	Keypair    string        `mapstructure:"keypair"`
	Output     string        `mapstructure:"output"`
	RateLimit  float64       `mapstructure:"rate_limit"`
	Retries    uint          `mapstructure:"retries"`
	Timeout    time.Duration `mapstructure:"timeout"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

var defaultConfig = BaseConfig{
	RPC:        "devnet",
	Commitment: "confirmed",
	Output:     outputText,
	RateLimit:  10,
	Retries:    3,
	Timeout:    30 * time.Second,

	LogLevel:  "warn",
	LogFormat: "text",
}

// configKey pairs a persistent flag with its viper key.
type configKey struct {
	flag string
	key  string
}

var configKeys = []configKey{
	{"rpc", "rpc"},
	{"commitment", "commitment"},
	{"keypair", "keypair"},
	{"output", "output"},
	{"rate-limit", "rate_limit"},
	{"retries", "retries"},
	{"timeout", "timeout"},
	{"log-level", "log_level"},
	{"log-format", "log_format"},
	{"log-file", "log_file"},
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(key)
}

func registerFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "optional config file (json, yaml or toml)")
	flags.String("rpc", defaultConfig.RPC, "cluster moniker (mainnet-beta, devnet, testnet, localnet) or rpc url")
	flags.String("commitment", defaultConfig.Commitment, "commitment level for rpc queries")
	flags.String("keypair", defaultConfig.Keypair, "path to a solana cli keypair file")
	flags.StringP("output", "o", defaultConfig.Output, "output format: text, json or yaml")
	flags.Float64("rate-limit", defaultConfig.RateLimit, "max rpc requests per second per method, 0 disables")
	flags.Uint("retries", defaultConfig.Retries, "retries for rate limited or failed rpc requests")
	flags.Duration("timeout", defaultConfig.Timeout, "timeout for rpc commands")
	flags.String("log-level", defaultConfig.LogLevel, "log level")
	flags.String("log-format", defaultConfig.LogFormat, "log format: text or json")
	flags.String("log-file", defaultConfig.LogFile, "write logs to a rotated file instead of stderr")
}

// bindConfig wires each flag and its SOLKIT_* environment variable to v.
// Precedence is flag, then environment, then config file, then default.
func bindConfig(v *viper.Viper, cmd *cobra.Command) error {
	for _, k := range configKeys {
		if err := v.BindPFlag(k.key, cmd.PersistentFlags().Lookup(k.flag)); err != nil {
			return errors.Wrapf(err, "failed to bind flag %s", k.flag)
		}
		if err := v.BindEnv(k.key, envName(k.key)); err != nil {
			return errors.Wrapf(err, "failed to bind env %s", envName(k.key))
		}
	}
	return nil
}

func loadConfig(v *viper.Viper, configFile string) (BaseConfig, error) {
	if configFile == "" {
		configFile = os.Getenv(envName("config"))
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return BaseConfig{}, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.validate(); err != nil {
		return BaseConfig{}, err
	}
	return config, nil
}

func (c BaseConfig) validate() error {
	switch c.Output {
	case outputText, outputJSON, outputYAML:
	default:
		return errors.Errorf("unknown output format %q", c.Output)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.LogFormat)
	}

	if _, err := solana.ParseCommitment(c.Commitment); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}
