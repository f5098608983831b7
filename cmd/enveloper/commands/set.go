package commands

import (
	"github.com/spf13/cobra"

	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/systmms/enveloper/internal/secure"
)

// NewSetCommand creates the set command.
func NewSetCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set NAME [VALUE]",
		Short: "Store a secret value",
		Long: `Create or overwrite a secret in the scoped store.

With a single argument the value is read from stdin, which keeps it out of
shell history and process listings:

  echo -n "$TOKEN" | enveloper set API_TOKEN -d prod -s aws

The value is held in protected memory between reading and the store write.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, sc, err := openScopedStore(cmd, env)
			if err != nil {
				return err
			}

			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				buf, err := secure.ReadValue(cmd.InOrStdin())
				if err != nil {
					return dserrors.UserError{
						Message:    "Failed to read secret value from stdin",
						Details:    err.Error(),
						Suggestion: "Pipe the value in, or pass it as the second argument",
						Err:        err,
					}
				}
				defer buf.Destroy()

				value, err = buf.String()
				if err != nil {
					return err
				}
			}

			if err := s.Set(cmd.Context(), args[0], value); err != nil {
				return dserrors.StoreError(sc.Service, "set", err)
			}

			env.Logger.Info("Set %s in %s store", s.ResolveKey(args[0]), sc.Service)
			return nil
		},
	}

	addScopeFlags(cmd)
	return cmd
}
