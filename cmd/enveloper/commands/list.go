package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	dserrors "github.com/systmms/enveloper/internal/errors"
)

// NewListCommand creates the list command.
func NewListCommand(env *Env) *cobra.Command {
	var names bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List secrets in the scoped store",
		Long: `Print every key stored for the resolved scope, one per line, in the
store's native key form. With --names only the plain variable names are
printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, sc, err := openScopedStore(cmd, env)
			if err != nil {
				return err
			}

			keys, err := s.ListKeys(cmd.Context())
			if err != nil {
				return dserrors.StoreError(sc.Service, "list", err)
			}

			if len(keys) == 0 {
				env.Logger.Warn("No secrets stored for this scope in the %s store", sc.Service)
				return nil
			}

			for _, key := range keys {
				if names {
					key = s.Format().ExportName(key)
				}
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}

	addScopeFlags(cmd)
	cmd.Flags().BoolVar(&names, "names", false, "Print plain variable names instead of native keys")
	return cmd
}
