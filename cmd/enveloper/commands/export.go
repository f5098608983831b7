package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	dserrors "github.com/systmms/enveloper/internal/errors"
)

// NewExportCommand creates the export command.
func NewExportCommand(env *Env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the scoped store as dotenv lines",
		Long: `Read every secret of the scope and print it in dotenv form, keyed by the
plain variable name. Use --output to write a file instead of stdout.

  enveloper export -d prod -p myapp -s aws --output .env.prod`,
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

			values := make(map[string]string, len(keys))
			for _, key := range keys {
				value, err := s.Get(cmd.Context(), key)
				if err != nil {
					return dserrors.StoreError(sc.Service, "get", err)
				}
				values[s.Format().ExportName(key)] = value
			}

			content, err := godotenv.Marshal(values)
			if err != nil {
				return dserrors.UserError{
					Message: "Failed to render dotenv output",
					Details: err.Error(),
					Err:     err,
				}
			}

			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), content)
				return nil
			}

			if err := os.WriteFile(output, []byte(content+"\n"), 0o600); err != nil {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Failed to write %s", output),
					Details:    err.Error(),
					Suggestion: "Check directory permissions",
					Err:        err,
				}
			}
			env.Logger.Info("Exported %d secret(s) to %s", len(values), output)
			return nil
		},
	}

	addScopeFlags(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
