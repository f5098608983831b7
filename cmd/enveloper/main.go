package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/systmms/enveloper/cmd/enveloper/commands"
	"github.com/systmms/enveloper/internal/logging"
	"github.com/systmms/enveloper/internal/stores"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	env := &commands.Env{}

	rootCmd := &cobra.Command{
		Use:   "enveloper",
		Short: "Manage scoped secrets across local and cloud stores",
		Long: `enveloper stores secrets under a composite (domain, project, version)
scope and moves them between local stores and cloud secret managers.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			env.ConfigPath = configFile
			env.Logger = logging.New(debug, noColor)
			env.Registry = stores.NewRegistry()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default: nearest .enveloper.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewInitCommand(env),
		commands.NewGetCommand(env),
		commands.NewSetCommand(env),
		commands.NewUnsetCommand(env),
		commands.NewListCommand(env),
		commands.NewClearCommand(env),
		commands.NewPushCommand(env),
		commands.NewPullCommand(env),
		commands.NewExportCommand(env),
		commands.NewImportCommand(env),
		commands.NewServicesCommand(env),
	)

	return rootCmd.Execute()
}
