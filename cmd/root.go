package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bz888/gramfix/internal/api"
	"github.com/bz888/gramfix/internal/assistant"
	"github.com/bz888/gramfix/internal/config"
	"github.com/bz888/gramfix/internal/logger"
	"github.com/bz888/gramfix/internal/session"
	"github.com/bz888/gramfix/internal/ui"
	"github.com/spf13/cobra"
)

var localLogger = logger.NewLogger("cmd")

var noServer bool

var rootCmd = &cobra.Command{
	Use:   "gramfix",
	Short: "Grammar correction assistant",
	Long: `gramfix corrects grammar and spelling with a generative-text provider.

Run without a subcommand to open the terminal assistant. It starts a
correction gateway in the same process unless --no-server is given.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd != cmd.Root() {
			logger.InitLogger(config.Dev, config.LogPath, nil)
		}
	},
	RunE: runInteractive,
}

func init() {
	config.Init(rootCmd)
	rootCmd.Flags().BoolVar(&noServer, "no-server", false, "Use an already running gateway instead of starting one")

	rootCmd.AddCommand(serveCmd, correctCmd, historyCmd, keyCmd, settingsCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ui.Init()
	debugConsole, err := ui.GetDebugConsole()
	if err != nil {
		return err
	}
	logger.InitLogger(config.Dev, config.LogPath, debugConsole)
	defer localLogger.Close()

	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	store, closeStore, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	gatewayURL := cfg.Client.GatewayURL
	if !noServer {
		gatewayURL, err = startGateway(ctx, cfg, cfg.ServerConfig().Addr())
		if err != nil {
			return err
		}
	}

	return ui.Run(assistant.New(api.NewClient(gatewayURL), store))
}

func openStore() (*session.Store, func() error, error) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, nil, err
	}
	return cfg.OpenStore()
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
