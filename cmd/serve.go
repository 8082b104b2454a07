package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bz888/scribe/internal/api/server"
	"github.com/bz888/scribe/internal/config"
	"github.com/bz888/scribe/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server without the chat UI",
	Example: `  $ scribe serve
  $ scribe serve --host 0.0.0.0 --port 9000 --dev`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}

		// no TUI, so dev output goes to stderr
		if err := logger.InitLogger(cfg.Dev, cfg.LogPath, nil); err != nil {
			return err
		}
		defer logger.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg)
		if err != nil {
			return err
		}

		printInfo("Serving on %s", cfg.ServerURL())
		if !srv.Gateway.TextAvailable() {
			printWarning("Text generation is not configured for provider %q", cfg.Text.Provider)
		}
		if !srv.Gateway.ImageAvailable() {
			printWarning("Image generation is not configured (set CLOUDFLARE_ACCOUNT_ID and CLOUDFLARE_API_TOKEN)")
		}
		return srv.Run(ctx)
	},
}
