package commands

import (
	"github.com/spf13/cobra"

	dserrors "github.com/systmms/enveloper/internal/errors"
)

// NewClearCommand creates the clear command.
func NewClearCommand(env *Env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every secret in the scoped store",
		Long: `Delete all secrets stored for the resolved scope. The operation is
irreversible and therefore refuses to run without --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return dserrors.UserError{
					Message:    "Refusing to clear without confirmation",
					Suggestion: "Re-run with --yes to delete every secret in this scope",
				}
			}

			s, sc, err := openScopedStore(cmd, env)
			if err != nil {
				return err
			}

			if err := s.Clear(cmd.Context()); err != nil {
				return dserrors.StoreError(sc.Service, "clear", err)
			}

			env.Logger.Info("Cleared all secrets for project %s, domain %s from %s store",
				sc.Project, sc.Domain, sc.Service)
			return nil
		},
	}

	addScopeFlags(cmd)
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the irreversible deletion")
	return cmd
}
