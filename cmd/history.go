package cmd

import (
	"fmt"
	"time"

	"github.com/bz888/gramfix/internal/prompt"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear past corrections",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past corrections, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all past corrections",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyClearCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	history := store.LoadHistory()
	out := cmd.OutOrStdout()
	if len(history) == 0 {
		fmt.Fprintln(out, "No corrections yet.")
		return nil
	}

	header := color.New(color.FgCyan, color.Bold)
	faint := color.New(color.Faint)
	now := time.Now()
	for i, entry := range history {
		when := entry.Timestamp
		if t := entry.Time(); !t.IsZero() {
			when = humanize.RelTime(t, now, "ago", "from now")
		}
		header.Fprintf(out, "#%d  %s\n", i+1, when)
		faint.Fprintf(out, "    %s, %s, %s\n", entry.Settings.Tone, prompt.LanguageName(entry.Settings.Language), entry.Settings.ImprovementLevel)
		fmt.Fprintf(out, "    - %s\n", entry.Original)
		color.New(color.FgGreen).Fprintf(out, "    + %s\n", entry.Corrected)
		if entry.Explanation != "" {
			faint.Fprintf(out, "    %s\n", entry.Explanation)
		}
	}
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.ClearHistory(); err != nil {
		return err
	}
	color.Green("History cleared")
	return nil
}
