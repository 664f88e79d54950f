package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/peersync/peersync/internal/peersync"
	"github.com/peersync/peersync/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "peersync",
	Short:   "PeerSync keeps a directory's files identical across a group of peers",
	Version: version.Detailed(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true

		d, err := peersync.New(cfg)
		if err != nil {
			return err
		}

		defer slog.Info("Bye!")
		return d.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("dir", "d", "", "Directory to keep in sync (required)")
	rootCmd.Flags().StringP("peers", "p", "", "Comma-separated peer hosts")
	rootCmd.Flags().Int("port", peersync.DefaultPort, "Listen port shared by the whole group")
	rootCmd.Flags().Int("delay", int(peersync.DefaultGraceDelay.Seconds()), "Seconds to wait after convergence before exiting")
}

func loadConfig(cmd *cobra.Command) (*peersync.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PEERSYNC")
	v.AutomaticEnv()

	for _, flag := range []string{"dir", "peers", "port", "delay"} {
		if err := v.BindPFlag(flag, cmd.Flags().Lookup(flag)); err != nil {
			return nil, err
		}
	}

	cfg := &peersync.Config{
		Dir:        v.GetString("dir"),
		Peers:      peersync.SplitPeers(v.GetString("peers")),
		Port:       v.GetInt("port"),
		GraceDelay: time.Duration(v.GetInt("delay")) * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006/01/02 15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}
