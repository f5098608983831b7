package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/enveloper/internal/config"
)

// NewPullCommand creates the pull command.
func NewPullCommand(env *Env) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Copy secrets from the scoped store into another store",
		Long: `Copy every secret of the scope out of the store the scope resolves to,
translating keys between the two encodings. The inverse of push.

  # fetch the prod secrets from SSM into the local keychain
  enveloper pull -d prod -p myapp -s aws

  # materialize them as a .env file instead
  enveloper pull --to file -d prod -p myapp -s aws`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, file, err := resolveScope(cmd, env)
			if err != nil {
				return err
			}
			return runTransfer(cmd, env, sc, file, sc.Service, to)
		},
	}

	addScopeFlags(cmd)
	cmd.Flags().StringVar(&to, "to", config.DefaultService, "Target store service")
	return cmd
}
