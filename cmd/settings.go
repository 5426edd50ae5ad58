package cmd

import (
	"fmt"

	"github.com/bz888/gramfix/internal/prompt"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settingsFlags struct {
	tone     string
	language string
	level    string
	words    int
	preserve bool
	explain  bool
}

// addSettingsFlags registers the correction options on cmd. Only flags the user
// sets override the saved settings.
func addSettingsFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&settingsFlags.tone, "tone", "", "Tone: formal, casual, funny, normal, persuasive or creative")
	flags.StringVar(&settingsFlags.language, "language", "", "Target language, e.g. english or spanish")
	flags.StringVar(&settingsFlags.level, "level", "", "Improvement level: light, moderate or heavy")
	flags.IntVar(&settingsFlags.words, "words", 0, "Target word count (0 for none)")
	flags.BoolVar(&settingsFlags.preserve, "preserve-formatting", true, "Keep line breaks and paragraphs")
	flags.BoolVar(&settingsFlags.explain, "explain", false, "Ask for an explanation of the changes")
}

func applySettingsFlags(cmd *cobra.Command, s prompt.Settings) (prompt.Settings, error) {
	flags := cmd.Flags()
	if flags.Changed("tone") {
		s.Tone = prompt.Tone(settingsFlags.tone)
	}
	if flags.Changed("language") {
		s.Language = settingsFlags.language
	}
	if flags.Changed("level") {
		s.ImprovementLevel = prompt.Level(settingsFlags.level)
	}
	if flags.Changed("words") {
		s.TargetWordCount = settingsFlags.words
	}
	if flags.Changed("preserve-formatting") {
		s.PreserveFormatting = settingsFlags.preserve
	}
	if flags.Changed("explain") {
		s.ShowExplanations = settingsFlags.explain
	}
	return s, s.Validate()
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or save the default correction options",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved options",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save options as the defaults",
	Long: `Save options as the defaults used by the assistant and the correct command.

Options not given keep their saved value.`,
	Args: cobra.NoArgs,
	RunE: runSettingsSave,
}

func init() {
	addSettingsFlags(settingsSaveCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSaveCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	out, err := yaml.Marshal(store.LoadSettings())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runSettingsSave(cmd *cobra.Command, args []string) error {
	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	settings, err := applySettingsFlags(cmd, store.LoadSettings())
	if err != nil {
		return err
	}
	if err := store.SaveSettings(settings); err != nil {
		return err
	}
	color.Green("Settings saved")
	return nil
}
