// Package commands implements the enveloper CLI commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/enveloper/internal/config"
	"github.com/systmms/enveloper/internal/logging"
	"github.com/systmms/enveloper/internal/stores"
	"github.com/systmms/enveloper/pkg/store"
)

// Env carries the shared state commands need: the logger built from the
// root flags, the backend registry, and the --config override. Tests build
// one directly with a buffer-backed logger.
type Env struct {
	ConfigPath string
	Logger     *logging.Logger
	Registry   *stores.Registry
}

// addScopeFlags registers the scope flags shared by every store-facing
// command.
func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("project", "p", "", "Project name (default \""+store.DefaultNamespace+"\")")
	cmd.Flags().StringP("domain", "d", "", "Domain, e.g. prod or staging (default \""+store.DefaultNamespace+"\")")
	cmd.Flags().StringP("service", "s", "", "Store service (default \""+config.DefaultService+"\")")
	cmd.Flags().String("version", "", "Scope version (default \""+store.DefaultVersion+"\")")
	cmd.Flags().String("path", "", "Dotenv file path for the file store (default \""+config.DefaultEnvFile+"\")")
}

// flagValue returns a pointer to the flag's value only when the user set
// the flag. Presence drives scope resolution, so an untouched flag must
// stay nil even though its value defaults to the empty string.
func flagValue(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

// resolveScope loads the configuration file and resolves the full scope
// from flags, environment and file.
func resolveScope(cmd *cobra.Command, env *Env) (config.Scope, *config.File, error) {
	file, err := config.Load(env.ConfigPath)
	if err != nil {
		return config.Scope{}, nil, err
	}

	opts := config.Options{
		Project: flagValue(cmd, "project"),
		Domain:  flagValue(cmd, "domain"),
		Service: flagValue(cmd, "service"),
		Version: flagValue(cmd, "version"),
		Path:    flagValue(cmd, "path"),
	}

	sc, err := config.Resolve(opts, os.LookupEnv, file)
	if err != nil {
		return config.Scope{}, nil, err
	}
	env.Logger.Debug("resolved scope: %s", sc)
	return sc, file, nil
}

// openScopedStore resolves the scope and opens the store it names.
func openScopedStore(cmd *cobra.Command, env *Env) (store.Store, config.Scope, error) {
	sc, file, err := resolveScope(cmd, env)
	if err != nil {
		return nil, config.Scope{}, err
	}
	s, err := env.Registry.Open(cmd.Context(), sc, file)
	if err != nil {
		return nil, config.Scope{}, err
	}
	return s, sc, nil
}
