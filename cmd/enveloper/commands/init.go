package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/systmms/enveloper/internal/config"
	dserrors "github.com/systmms/enveloper/internal/errors"
)

// NewInitCommand creates the init command.
func NewInitCommand(env *Env) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.FileName + " in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(config.FileName); err == nil {
				return dserrors.UserError{
					Message:    config.FileName + " already exists",
					Suggestion: "Edit the existing file, or remove it first to start over",
				}
			}

			name := project
			if name == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				name = filepath.Base(cwd)
			}

			file := config.File{
				Project: &name,
				Service: ptrOf(config.DefaultService),
			}
			data, err := yaml.Marshal(file)
			if err != nil {
				return err
			}

			header := "# enveloper project configuration\n# See 'enveloper services' for available store backends.\n"
			if err := os.WriteFile(config.FileName, append([]byte(header), data...), 0o644); err != nil {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Failed to write %s", config.FileName),
					Details:    err.Error(),
					Suggestion: "Check directory permissions",
					Err:        err,
				}
			}

			env.Logger.Info("Created %s for project %s", config.FileName, name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name (default: current directory name)")
	return cmd
}

func ptrOf(s string) *string {
	return &s
}
