package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/bz888/scribe/internal/api"
	"github.com/bz888/scribe/internal/api/server"
	"github.com/bz888/scribe/internal/config"
	"github.com/bz888/scribe/internal/logger"
	"github.com/bz888/scribe/internal/ui"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:     "scribe",
	Short:   "AI writing assistant for the terminal",
	Version: version,
	Long: `Chat with a hosted language model, generate images, and fill in
writing templates from a terminal UI. The UI talks to a local API server
that keeps the conversation.`,
	Example: `  # Start the server and the chat UI
  $ scribe

  # Show the debug console and write logs to ./logs
  $ scribe --dev --log-path ./logs

  # Use a local Ollama model
  $ scribe --provider ollama --model llama3.2

  # Run only the API server
  $ scribe serve --port 9000`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	config.Flags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(templatesCmd)

	rootCmd.SetUsageTemplate(usageTemplate())
	rootCmd.SetHelpTemplate(usageTemplate())
}

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}` + styles.Bold.Render("GLOBAL OPTIONS") + `
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}

// runChat starts the API server in the background and the TUI in front.
func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.ServerAddr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error starting server on %s: %w", addr, err)
	}

	client, err := api.NewClient("http://" + ln.Addr().String())
	if err != nil {
		ln.Close()
		return err
	}
	view := ui.New(client, cfg.Dev)

	if err := logger.InitLogger(cfg.Dev, cfg.LogPath, view.DebugConsole()); err != nil {
		ln.Close()
		return err
	}
	defer logger.Close()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		ln.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ctx, ln)
	}()

	if err := view.Run(ctx); err != nil {
		return err
	}
	cancel()
	return <-serveErr
}
