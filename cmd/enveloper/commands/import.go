package commands

import (
	"fmt"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	dserrors "github.com/systmms/enveloper/internal/errors"
)

// NewImportCommand creates the import command.
func NewImportCommand(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a dotenv file into the scoped store",
		Long: `Read a dotenv file and store every entry as a secret in the resolved
scope. The inverse of export.

  enveloper import .env.prod -d prod -p myapp -s aws`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := godotenv.Read(args[0])
			if err != nil {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Failed to read %s", args[0]),
					Details:    err.Error(),
					Suggestion: "Check that the file exists and is valid dotenv syntax",
					Err:        err,
				}
			}

			s, sc, err := openScopedStore(cmd, env)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				if err := s.Set(cmd.Context(), name, values[name]); err != nil {
					return dserrors.StoreError(sc.Service, "set", err)
				}
			}

			env.Logger.Info("Imported %d secret(s) from %s into %s store", len(names), args[0], sc.Service)
			return nil
		},
	}

	addScopeFlags(cmd)
	return cmd
}
