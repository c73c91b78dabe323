package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/frostgate/relayer/internal/relaydebug"
	"github.com/frostgate/relayer/internal/relayermetrics"
	"github.com/frostgate/relayer/relayer"
	"github.com/frostgate/relayer/relayer/provider"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ChainTypeMock selects the in-memory mock chain adapter.
const ChainTypeMock = "mock"

// Config represents the config file for the relayer
type Config struct {
	Global  GlobalConfig   `yaml:"global" json:"global"`
	Relayer relayer.Config `yaml:"relayer" json:"relayer"`
	Chains  ChainsConfig   `yaml:"chains" json:"chains"`
}

// GlobalConfig describes any global relayer settings
type GlobalConfig struct {
	DebugListenAddr   string `yaml:"debug-listen-addr" json:"debug-listen-addr"`
	MetricsListenAddr string `yaml:"metrics-listen-addr" json:"metrics-listen-addr"`
}

// ChainsConfig holds the two ends of the relay.
type ChainsConfig struct {
	Source      ChainConfig `yaml:"source" json:"source"`
	Destination ChainConfig `yaml:"destination" json:"destination"`
}

// ChainConfig selects and configures the adapter for one chain.
type ChainConfig struct {
	Type    string `yaml:"type" json:"type"`
	ChainID string `yaml:"chain-id" json:"chain-id"`

	// The remaining fields only apply to mock chains.
	EventsPerPoll int     `yaml:"events-per-poll,omitempty" json:"events-per-poll,omitempty"`
	WithProof     bool    `yaml:"with-proof,omitempty" json:"with-proof,omitempty"`
	FailureRate   float64 `yaml:"failure-rate,omitempty" json:"failure-rate,omitempty"`
}

func defaultConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			DebugListenAddr:   fmt.Sprintf("127.0.0.1:%d", relaydebug.DebugServerPort),
			MetricsListenAddr: fmt.Sprintf("127.0.0.1:%d", relayermetrics.MetricsServerPort),
		},
		Relayer: relayer.DefaultConfig(),
		Chains: ChainsConfig{
			Source: ChainConfig{
				Type:          ChainTypeMock,
				ChainID:       "mock-chain-1",
				EventsPerPoll: 1,
				WithProof:     true,
			},
			Destination: ChainConfig{
				Type:    ChainTypeMock,
				ChainID: "mock-chain-2",
			},
		},
	}
}

// Validate returns every problem found in c, combined.
func (c *Config) Validate() error {
	err := c.Relayer.Validate()
	err = multierr.Append(err, c.Chains.Source.validate("source"))
	err = multierr.Append(err, c.Chains.Destination.validate("destination"))
	if err == nil && c.Chains.Source.ChainID == c.Chains.Destination.ChainID {
		err = relayer.NewConfigurationError(fmt.Sprintf("source and destination chains are both %q", c.Chains.Source.ChainID))
	}
	return err
}

func (cc ChainConfig) validate(end string) error {
	var err error
	if cc.Type != ChainTypeMock {
		err = multierr.Append(err, relayer.NewConfigurationError(
			fmt.Sprintf("%s chain: unsupported chain type %q", end, cc.Type),
		))
	}
	if cc.ChainID == "" || provider.ChainID(cc.ChainID) == provider.ChainIDUnknown {
		err = multierr.Append(err, relayer.NewConfigurationError(
			fmt.Sprintf("%s chain: a known chain-id is required", end),
		))
	}
	if cc.EventsPerPoll < 0 {
		err = multierr.Append(err, relayer.NewConfigurationError(
			fmt.Sprintf("%s chain: events-per-poll cannot be negative", end),
		))
	}
	if cc.FailureRate < 0 || cc.FailureRate > 1 {
		err = multierr.Append(err, relayer.NewConfigurationError(
			fmt.Sprintf("%s chain: failure-rate must be between 0 and 1, got %g", end, cc.FailureRate),
		))
	}
	return err
}

// initConfig reads the config file into a.Config, if it exists.
// Values missing from the file keep their defaults.
func initConfig(cmd *cobra.Command, a *appState) error {
	cfgPath := a.configPath()
	if _, err := os.Stat(cfgPath); err != nil {
		// don't return error if file doesn't exist
		return nil
	}

	a.Viper.SetConfigFile(cfgPath)
	if err := a.Viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read in config: %w", err)
	}

	// read the config file bytes
	file, err := os.ReadFile(a.Viper.ConfigFileUsed())
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}

	a.Config = cfg
	return nil
}

func configCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage configuration file",
	}

	cmd.AddCommand(
		configShowCmd(a),
		configInitCmd(a),
		configSetCmd(a),
	)
	return cmd
}

// Command for printing current configuration
func configShowCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"s", "list", "l"},
		Short:   "Prints current configuration",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config show --home %s
$ %s cfg list`, appName, defaultHome, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Config == nil {
				if _, err := os.Stat(a.HomePath); os.IsNotExist(err) {
					return fmt.Errorf("home path does not exist: %s", a.HomePath)
				}
				return errConfigNotFound(a.configPath())
			}

			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}

			var out []byte
			if jsn {
				out, err = json.Marshal(a.Config)
			} else {
				out, err = yaml.Marshal(a.Config)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	return jsonFlag(a.Viper, cmd)
}

// Command for initializing an empty config at the --home location
func configInitCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "init",
		Aliases: []string{"i"},
		Short:   "Creates a default home directory at path defined by --home",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config init --home %s
$ %s cfg i`, appName, defaultHome, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := a.configPath()

			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := os.MkdirAll(a.configDir(), os.ModePerm); err != nil {
				return err
			}

			out, err := yaml.Marshal(defaultConfig())
			if err != nil {
				return err
			}

			if err := os.WriteFile(cfgPath, out, 0600); err != nil {
				return err
			}

			a.Log.Info("Created config", zap.String("path", cfgPath))
			return nil
		},
	}
	return cmd
}

// configSetters maps a settable key to the function applying its value.
var configSetters = map[string]func(c *Config, v string) error{
	"debug-listen-addr": func(c *Config, v string) error {
		c.Global.DebugListenAddr = v
		return nil
	},
	"metrics-listen-addr": func(c *Config, v string) error {
		c.Global.MetricsListenAddr = v
		return nil
	},
	"max-concurrent-messages": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Relayer.MaxConcurrentMessages = n
		return err
	},
	"max-retry-attempts": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		c.Relayer.MaxRetryAttempts = uint32(n)
		return err
	},
	"retry-delay-secs": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		c.Relayer.RetryDelaySecs = n
		return err
	},
	"enable-auto-pruning": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.Relayer.EnableAutoPruning = b
		return err
	},
	"message-history-hours": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		c.Relayer.MessageHistoryHours = n
		return err
	},
	"poll-interval": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.Relayer.PollInterval = d
		return err
	},
	"adapter-timeout-secs": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		c.Relayer.AdapterTimeoutSecs = n
		return err
	},
	"listen-retry-attempts": func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 0)
		c.Relayer.ListenRetryAttempts = uint(n)
		return err
	},
}

func configSetCmd(a *appState) *cobra.Command {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmd := &cobra.Command{
		Use:   "set key value",
		Short: "Updates a single setting in the configuration file",
		Long:  "Updates a single setting in the configuration file. Settable keys: " + strings.Join(keys, ", "),
		Args:  withUsage(cobra.ExactArgs(2)),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s config set max-concurrent-messages 4
$ %s cfg set poll-interval 500ms`, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Config == nil {
				return errNoConfig
			}

			set, ok := configSetters[args[0]]
			if !ok {
				return errUnknownConfigKey(args[0])
			}

			cfg := *a.Config
			if err := set(&cfg, args[1]); err != nil {
				return fmt.Errorf("invalid value %q for %s: %w", args[1], args[0], err)
			}

			return a.OverwriteConfig(&cfg)
		},
	}
	return cmd
}
