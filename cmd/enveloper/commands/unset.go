package commands

import (
	"github.com/spf13/cobra"

	dserrors "github.com/systmms/enveloper/internal/errors"
)

// NewUnsetCommand creates the unset command.
func NewUnsetCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset NAME",
		Short: "Remove a secret",
		Long: `Delete a secret from the scoped store.

Removing a secret that does not exist is not an error, so unset is safe to
run from cleanup scripts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, sc, err := openScopedStore(cmd, env)
			if err != nil {
				return err
			}

			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return dserrors.StoreError(sc.Service, "delete", err)
			}

			env.Logger.Info("Removed %s from %s store", s.ResolveKey(args[0]), sc.Service)
			return nil
		},
	}

	addScopeFlags(cmd)
	return cmd
}
