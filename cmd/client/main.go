package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/app"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/log"
)

type flags struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:          "wirechat-client",
		Short:        "Terminal chat client with public and private channels",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "path to config.yaml")
	fs.StringVarP(&f.overrides.Identity, "user", "u", "", "identity to chat as")
	fs.StringVarP(&f.overrides.Transport, "transport", "t", "", "transport: stomp, nats or memory")
	fs.StringVar(&f.overrides.ServerURL, "server", "", "STOMP WebSocket URL")
	fs.StringVar(&f.overrides.NATSURL, "nats", "", "NATS server URL")
	fs.StringVar(&f.overrides.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	fs.StringVar(&f.overrides.StatusAddr, "status-addr", "", "serve the status API on this address")
	fs.StringVar(&f.overrides.HistoryPath, "history", "", "transcript database path (default in memory)")
	return cmd
}

func run(parent context.Context, f flags, in io.Reader, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootLog := log.New("info", nil)
	cfg, cfgPath, err := config.Load(bootLog, f.configPath)
	if err != nil {
		return err
	}
	cfg.UpdateFrom(f.overrides)

	logger := log.New(cfg.LogLevel, nil)
	logger.Debug().Str("config", cfgPath).Str("transport", cfg.Transport).Msg("configuration loaded")

	application, err := app.New(ctx, cfg, out, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- application.Run(ctx) }()

	fmt.Fprintf(out, "Connected as %s over %s. Type /help for commands.\n", cfg.Identity, cfg.Transport)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case err := <-runErr:
			if err != nil {
				logger.Error().Err(err).Msg("session ended")
			}
			return err
		case line, ok := <-lines:
			if !ok {
				cancel()
				return <-runErr
			}
			input, err := app.ParseInput(line)
			if err != nil {
				application.Console().Notice(err.Error())
				continue
			}
			quit, err := application.Execute(ctx, input)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				application.Console().Notice("error: " + err.Error())
			}
			if quit {
				cancel()
				return <-runErr
			}
		}
	}
}
