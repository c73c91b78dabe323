package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagHome                = "home"
	flagDebug               = "debug"
	flagLogFormat           = "log-format"
	flagJSON                = "json"
	flagEnableDebugServer   = "enable-debug-server"
	flagDebugAddr           = "debug-addr"
	flagEnableMetricsServer = "enable-metrics-server"
	flagMetricsAddr         = "metrics-listen-addr"
	flagMaxConcurrent       = "max-concurrent-messages"
)

func jsonFlag(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().BoolP(flagJSON, "j", false, "returns the response in json format")
	if err := v.BindPFlag(flagJSON, cmd.Flags().Lookup(flagJSON)); err != nil {
		panic(err)
	}
	return cmd
}

func debugServerFlags(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().Bool(flagEnableDebugServer, false, "enables the debug server (pprof, metrics and queue inspection)")
	if err := v.BindPFlag(flagEnableDebugServer, cmd.Flags().Lookup(flagEnableDebugServer)); err != nil {
		panic(err)
	}
	cmd.Flags().String(flagDebugAddr, "", "address to use for the debug server, overrides debug-listen-addr from the config file")
	if err := v.BindPFlag(flagDebugAddr, cmd.Flags().Lookup(flagDebugAddr)); err != nil {
		panic(err)
	}
	return cmd
}

func metricsServerFlags(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().Bool(flagEnableMetricsServer, false, "enables the prometheus metrics server")
	if err := v.BindPFlag(flagEnableMetricsServer, cmd.Flags().Lookup(flagEnableMetricsServer)); err != nil {
		panic(err)
	}
	cmd.Flags().String(flagMetricsAddr, "", "address to use for the metrics server, overrides metrics-listen-addr from the config file")
	if err := v.BindPFlag(flagMetricsAddr, cmd.Flags().Lookup(flagMetricsAddr)); err != nil {
		panic(err)
	}
	return cmd
}

func maxConcurrentFlag(v *viper.Viper, cmd *cobra.Command) *cobra.Command {
	cmd.Flags().Int(flagMaxConcurrent, 0, "number of messages relayed in parallel per iteration, overrides the config file when set")
	if err := v.BindPFlag(flagMaxConcurrent, cmd.Flags().Lookup(flagMaxConcurrent)); err != nil {
		panic(err)
	}
	return cmd
}
