package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/enveloper/internal/config"
	"github.com/systmms/enveloper/internal/transfer"
	"github.com/systmms/enveloper/pkg/store"
)

// openStoreAs opens the store for the resolved scope with its service name
// swapped out, so push and pull can address two backends in one scope.
func openStoreAs(cmd *cobra.Command, env *Env, sc config.Scope, file *config.File, service string) (store.Store, error) {
	scoped := sc
	scoped.Service = service
	return env.Registry.Open(cmd.Context(), scoped, file)
}

// runTransfer copies the whole scope between two services and reports the
// outcome, including the partial state after an aborted run.
func runTransfer(cmd *cobra.Command, env *Env, sc config.Scope, file *config.File, fromService, toService string) error {
	source, err := openStoreAs(cmd, env, sc, file, fromService)
	if err != nil {
		return err
	}
	target, err := openStoreAs(cmd, env, sc, file, toService)
	if err != nil {
		return err
	}

	result, err := transfer.Copy(cmd.Context(), source, target, env.Logger)
	if err != nil {
		if len(result.Transferred) > 0 {
			env.Logger.Warn("Transfer aborted; %d secret(s) were already copied to the %s store:",
				len(result.Transferred), toService)
			for _, key := range result.Transferred {
				env.Logger.Warn("  %s", key)
			}
		}
		return err
	}

	env.Logger.Info("Copied %d secret(s) from %s to %s", len(result.Transferred), fromService, toService)
	if len(result.Skipped) > 0 {
		env.Logger.Warn("Skipped %d secret(s) that vanished during the transfer", len(result.Skipped))
	}
	return nil
}

// NewPushCommand creates the push command.
func NewPushCommand(env *Env) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Copy secrets from another store into the scoped store",
		Long: `Copy every secret of the scope from a source store into the store the
scope resolves to, translating keys between the two encodings.

  # publish the local keychain to SSM
  enveloper push -d prod -p myapp -s aws

  # publish a .env file to Azure Key Vault
  enveloper push --from file -d prod -p myapp -s azure`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, file, err := resolveScope(cmd, env)
			if err != nil {
				return err
			}
			return runTransfer(cmd, env, sc, file, from, sc.Service)
		},
	}

	addScopeFlags(cmd)
	cmd.Flags().StringVar(&from, "from", config.DefaultService, "Source store service")
	return cmd
}
