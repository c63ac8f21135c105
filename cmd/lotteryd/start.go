package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"cosmossdk.io/log"
	"github.com/cometbft/cometbft/abci/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cocomastoras/automated-lottery/internal/app"
	"github.com/cocomastoras/automated-lottery/internal/state"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the ABCI application server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			home, _ := cmd.Flags().GetString("home")

			v := viper.New()
			v.SetEnvPrefix(envPrefix)
			v.AutomaticEnv()
			v.SetConfigFile(filepath.Join(home, "config.yaml"))

			v.SetDefault("listen", "tcp://127.0.0.1:26658")
			v.SetDefault("transport", "socket")
			v.SetDefault("log_level", "info")
			v.SetDefault("min_entry_value", uint64(10_000_000))
			v.SetDefault("max_entries", uint32(50))
			v.SetDefault("round_duration_secs", uint64(300))
			v.SetDefault("fee_bps", uint32(1000))
			v.SetDefault("admin", "admin")
			v.SetDefault("oracle", "oracle")
			v.SetDefault("fee_sink", "admin")

			if err := v.ReadInConfig(); err != nil {
				// Config file is optional; defaults and env cover a bare devnet.
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
					return fmt.Errorf("read config: %w", err)
				}
			}

			filter, err := log.ParseLogLevel(v.GetString("log_level"))
			if err != nil {
				return fmt.Errorf("parse log_level: %w", err)
			}
			logger := log.NewLogger(os.Stderr, log.FilterOption(filter))

			cfg := state.Config{
				MinEntryValue:     v.GetUint64("min_entry_value"),
				MaxEntries:        v.GetUint32("max_entries"),
				RoundDurationSecs: v.GetUint64("round_duration_secs"),
				FeeBps:            v.GetUint32("fee_bps"),
				Admin:             v.GetString("admin"),
				Oracle:            v.GetString("oracle"),
				FeeSink:           v.GetString("fee_sink"),
			}

			a, err := app.New(home, cfg, logger)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			srv, err := server.NewServer(v.GetString("listen"), v.GetString("transport"), a)
			if err != nil {
				return fmt.Errorf("start abci server: %w", err)
			}
			if err := srv.Start(); err != nil {
				return fmt.Errorf("abci server start: %w", err)
			}
			defer func() { _ = srv.Stop() }()

			logger.Info("abci server started", "listen", v.GetString("listen"), "home", home)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}
	return cmd
}
