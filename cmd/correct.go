package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/bz888/gramfix/internal/api"
	"github.com/bz888/gramfix/internal/api/server"
	"github.com/bz888/gramfix/internal/assistant"
	"github.com/bz888/gramfix/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var correctLocal bool

var correctCmd = &cobra.Command{
	Use:   "correct [text]",
	Short: "Correct text and print the result",
	Long: `Correct the given text, or standard input when no text is given, and print
the corrected text. The correction is added to the history.`,
	Example: `  gramfix correct "she go to school yesterday"
  cat draft.txt | gramfix correct --tone formal --level heavy`,
	RunE: runCorrect,
}

func init() {
	addSettingsFlags(correctCmd)
	correctCmd.Flags().BoolVar(&correctLocal, "local", false, "Start a private gateway for this call instead of using client.gateway_url")
}

func runCorrect(cmd *cobra.Command, args []string) error {
	input, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	store, closeStore, err := cfg.OpenStore()
	if err != nil {
		return err
	}
	defer closeStore()

	settings, err := applySettingsFlags(cmd, store.LoadSettings())
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	gatewayURL := cfg.Client.GatewayURL
	if correctLocal {
		gatewayURL, err = startLocalGateway(ctx, cfg)
		if err != nil {
			return err
		}
	}

	result, err := assistant.New(api.NewClient(gatewayURL), store).Fix(ctx, input, settings)
	if err != nil {
		return withHint(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Corrected)
	stderr := cmd.ErrOrStderr()
	if result.Explanation != "" {
		color.New(color.FgCyan).Fprintf(stderr, "Changes: %s\n", result.Explanation)
	}
	color.New(color.Faint).Fprintf(stderr, "%d words -> %d words\n", result.InputWords, result.OutputWords)
	return nil
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

// startLocalGateway serves a gateway on a free loopback port until ctx ends.
func startLocalGateway(ctx context.Context, cfg *config.Config) (string, error) {
	return startGateway(ctx, cfg, "127.0.0.1:0")
}

// startGateway binds addr before returning, so a port already in use is
// reported to the caller, then serves on it until ctx ends. It returns the
// URL clients should dial.
func startGateway(ctx context.Context, cfg *config.Config, addr string) (string, error) {
	srv, err := server.New(cfg.ServerConfig())
	if err != nil {
		return "", err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start gateway on %s: %w", addr, err)
	}
	go func() {
		if err := srv.Serve(ctx, ln); err != nil {
			localLogger.Error("Gateway stopped: ", err)
		}
	}()
	return dialURL(ln.Addr()), nil
}

// dialURL turns a listener address into a URL, replacing a wildcard host
// with loopback.
func dialURL(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok {
		return "http://" + addr.String()
	}
	host := tcp.IP.String()
	if tcp.IP == nil || tcp.IP.IsUnspecified() {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(tcp.Port))
}

// withHint adds a hint on what to do next for the errors a user can fix.
func withHint(err error) error {
	if errors.Is(err, assistant.ErrMissingCredential) || api.IsAuthError(err) {
		return fmt.Errorf("%w Run: gramfix key set <key>", err)
	}
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		color.New(color.FgYellow).Fprintln(os.Stderr, "Start one with `gramfix serve` or pass --local.")
	}
	return err
}
