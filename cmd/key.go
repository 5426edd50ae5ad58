package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/bz888/gramfix/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the provider API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [key]",
	Short: "Save the API key (read from stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKeySet,
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved API key, masked",
	Args:  cobra.NoArgs,
	RunE:  runKeyShow,
}

var keyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the saved API key",
	Args:  cobra.NoArgs,
	RunE:  runKeyClear,
}

func init() {
	keyCmd.AddCommand(keySetCmd, keyShowCmd, keyClearCmd)
}

func runKeySet(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read key: %w", err)
		}
		key = line
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("key must not be blank")
	}

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.SaveCredential(key); err != nil {
		return err
	}
	color.Green("API key saved")
	return nil
}

func runKeyShow(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	key, ok, err := store.LoadCredential()
	if err != nil {
		return err
	}
	if !ok {
		color.Yellow("No API key saved")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), session.MaskKey(key))
	return nil
}

func runKeyClear(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.ClearCredential(); err != nil {
		return err
	}
	color.Green("API key removed")
	return nil
}
