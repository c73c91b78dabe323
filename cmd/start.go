/*
Package cmd includes relayer commands
Copyright © 2020 Jack Zampolin <jack.zampolin@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/frostgate/relayer/internal/relaydebug"
	"github.com/frostgate/relayer/internal/relayermetrics"
	"github.com/frostgate/relayer/relayer"
	"github.com/frostgate/relayer/relayer/chains/mock"
	"github.com/frostgate/relayer/relayer/provider"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
func startCmd(a *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"st"},
		Short:   "Start relaying messages from the source chain to the destination chain",
		Args:    withUsage(cobra.NoArgs),
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s start
$ %s start --max-concurrent-messages 4
$ %s start --enable-debug-server --debug-addr localhost:7597
$ %s start --enable-metrics-server --metrics-listen-addr localhost:7598`, appName, appName, appName, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.Config == nil {
				return errNoConfig
			}

			cfg := a.Config.Relayer
			if n := a.Viper.GetInt(flagMaxConcurrent); n > 0 {
				cfg.MaxConcurrentMessages = n
			}

			src, err := newChainAdapter(a.Log, a.Config.Chains.Source, provider.ChainID(a.Config.Chains.Destination.ChainID), true)
			if err != nil {
				return fmt.Errorf("failed to build source chain: %w", err)
			}
			dst, err := newChainAdapter(a.Log, a.Config.Chains.Destination, provider.ChainID(a.Config.Chains.Source.ChainID), false)
			if err != nil {
				return fmt.Errorf("failed to build destination chain: %w", err)
			}

			metrics := relayer.NewPrometheusMetrics()
			svc, err := relayer.NewService(a.Log, cfg, src, dst, relayer.WithMetrics(metrics))
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			if err := setupDebugServer(ctx, a, svc, metrics); err != nil {
				return err
			}
			if err := setupMetricsServer(ctx, a, svc, metrics); err != nil {
				return err
			}

			if err := svc.Start(ctx); err != nil {
				return err
			}

			// Block until the command is interrupted, then let both loops wind down.
			<-ctx.Done()
			svc.Stop()
			if err := svc.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				a.Log.Warn(
					"Relayer start error",
					zap.Error(err),
				)
				return err
			}

			a.Log.Info("Relayer stopped", zap.Int("queued_messages", svc.Queue().Len()))
			return nil
		},
	}
	cmd = debugServerFlags(a.Viper, cmd)
	cmd = metricsServerFlags(a.Viper, cmd)
	return maxConcurrentFlag(a.Viper, cmd)
}

// newChainAdapter returns the adapter selected by cc.
// counterparty is the chain id on the other end of the relay,
// which generated source messages are addressed to.
func newChainAdapter(log *zap.Logger, cc ChainConfig, counterparty provider.ChainID, isSource bool) (provider.ChainAdapter, error) {
	switch cc.Type {
	case ChainTypeMock:
		chainID := provider.ChainID(cc.ChainID)
		var opts []mock.Option
		if isSource {
			gen := mock.NewSequenceGenerator(chainID, counterparty, cc.EventsPerPoll, cc.WithProof)
			opts = append(opts, mock.WithEvents(gen.Events))
			if cc.FailureRate > 0 {
				opts = append(opts, mock.WithVerifyProof(mock.RandomVerifyFailure(cc.FailureRate)))
			}
		} else if cc.FailureRate > 0 {
			opts = append(opts, mock.WithSubmitMessage(mock.RandomSubmitFailure(cc.FailureRate)))
		}
		return mock.NewMockChainAdapter(log, chainID, opts...), nil
	default:
		return nil, relayer.NewConfigurationError(fmt.Sprintf("unsupported chain type %q", cc.Type))
	}
}

func setupDebugServer(ctx context.Context, a *appState, svc *relayer.Service, metrics *relayer.PrometheusMetrics) error {
	if !a.Viper.GetBool(flagEnableDebugServer) {
		return nil
	}

	debugAddr := a.Viper.GetString(flagDebugAddr)
	if debugAddr == "" {
		debugAddr = a.Config.Global.DebugListenAddr
	}

	if debugAddr == "" {
		a.Log.Warn("Disabled debug server due to missing debug-listen-addr setting in config file.")
		return nil
	}

	ln, err := net.Listen("tcp", debugAddr)
	if err != nil {
		a.Log.Error(
			"Failed to listen on debug address. If you have another relayer process open, use --" +
				flagDebugAddr +
				" to pick a different address.",
		)
		return fmt.Errorf("failed to listen on debug address %q: %w", debugAddr, err)
	}
	log := a.Log.With(zap.String("sys", "debughttp"))
	log.Info("Debug server listening", zap.String("addr", ln.Addr().String()))
	relaydebug.StartDebugServer(ctx, log, ln, svc.Queue(), metrics.Registry)
	return nil
}

func setupMetricsServer(ctx context.Context, a *appState, svc *relayer.Service, metrics *relayer.PrometheusMetrics) error {
	if !a.Viper.GetBool(flagEnableMetricsServer) {
		return nil
	}

	metricsAddr := a.Viper.GetString(flagMetricsAddr)
	if metricsAddr == "" {
		metricsAddr = a.Config.Global.MetricsListenAddr
	}

	if metricsAddr == "" {
		a.Log.Warn("Disabled metrics server due to missing metrics-listen-addr setting in config file.")
		return nil
	}

	a.Log.Info("Metrics server is enabled.")

	ln, err := net.Listen("tcp", metricsAddr)
	if err != nil {
		a.Log.Error(
			"Failed to listen on metrics address. If you have another relayer process open, use --" +
				flagMetricsAddr +
				" to pick a different address.",
		)
		return fmt.Errorf("failed to listen on metrics address %q: %w", metricsAddr, err)
	}
	log := a.Log.With(zap.String("sys", "metrichttp"))
	log.Info("Metrics server listening", zap.String("addr", ln.Addr().String()))
	relayermetrics.StartMetricsServer(ctx, log, ln, metrics, svc.Queue())
	return nil
}
