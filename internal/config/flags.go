package config

import "github.com/spf13/cobra"

var (
	Dev        bool
	LogPath    string
	ConfigPath string
)

// Init registers the global flags on the root command.
func Init(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.BoolVar(&Dev, "dev", false, "Development mode")
	flags.StringVar(&LogPath, "logPath", "", "Path to save the log file")
	flags.StringVar(&ConfigPath, "config", "", "Path to the YAML config file (default "+DefaultUserConfigPath()+")")
}

// Path returns the config file to load.
func Path() string {
	if ConfigPath != "" {
		return ConfigPath
	}
	return DefaultUserConfigPath()
}
