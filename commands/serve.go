package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gridmdp/server"

	"github.com/spf13/cobra"
)

// ServeCommand runs the http server until interrupted.
func ServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve problem uploads, run status, documents and live sweep playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Addr = resolveAddr(cmd.Flags().Changed("addr"), addr, cfg.Addr)

			srv, err := server.NewServer(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, defaults to $"+addrEnv+" or the config's addr")
	return cmd
}

// resolveAddr prefers the flag, then $GRIDMDP_ADDR, then the config.
func resolveAddr(flagSet bool, flagAddr, configAddr string) string {
	if flagSet {
		return flagAddr
	}
	if addr := os.Getenv(addrEnv); addr != "" {
		return addr
	}
	return configAddr
}
