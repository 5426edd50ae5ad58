package cmd

import (
	"os"

	"github.com/bz888/gramfix/internal/api/server"
	"github.com/bz888/gramfix/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	host     string
	port     int
	provider string
	model    string
	baseURL  string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the correction gateway",
	Long: `Run the HTTP correction gateway.

Routes:
  POST /correct     correct {"text", "apiKey"} and return {"corrected"}
  GET  /correct     liveness message
  OPTIONS /correct  CORS preflight
  /api/gemini       alias of /correct
  GET  /healthz     health probe`,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&serveFlags.host, "host", "", "Interface to listen on")
	flags.IntVar(&serveFlags.port, "port", 0, "Port to listen on")
	flags.StringVar(&serveFlags.provider, "provider", "", "Text provider: gemini, openai or ollama")
	flags.StringVar(&serveFlags.model, "model", "", "Provider model name")
	flags.StringVar(&serveFlags.baseURL, "base-url", "", "Override the provider endpoint")
}

func runServe(cmd *cobra.Command, args []string) error {
	defer localLogger.Close()

	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serveFlags.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = serveFlags.port
	}
	if flags.Changed("provider") {
		cfg.Server.Provider = serveFlags.provider
	}
	if flags.Changed("model") {
		cfg.Server.Model = serveFlags.model
	}
	if flags.Changed("base-url") {
		cfg.Server.BaseURL = serveFlags.baseURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.New(cfg.ServerConfig())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	color.New(color.FgGreen).Fprintf(os.Stderr, "Gateway listening on http://%s/ (provider %s)\n", srv.Addr(), cfg.Server.Provider)
	return srv.Run(ctx)
}
