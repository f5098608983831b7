package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/systmms/enveloper/pkg/store"
)

// NewGetCommand creates the get command.
func NewGetCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print a secret value",
		Long: `Retrieve a single secret and print its raw value to stdout.

Only the value is printed, so the command composes in shell pipelines:

  export DB_URL=$(enveloper get DB_URL -d prod -p myapp -s aws)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, sc, err := openScopedStore(cmd, env)
			if err != nil {
				return err
			}

			value, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				if store.IsNotFound(err) {
					return dserrors.UserError{
						Message:    fmt.Sprintf("Secret %q not found in %s store", args[0], sc.Service),
						Suggestion: fmt.Sprintf("Run 'enveloper list -s %s' to see what is stored for this scope", sc.Service),
						Err:        err,
					}
				}
				return dserrors.StoreError(sc.Service, "get", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	addScopeFlags(cmd)
	return cmd
}
