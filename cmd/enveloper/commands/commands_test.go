package commands_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/enveloper/cmd/enveloper/commands"
	"github.com/systmms/enveloper/internal/config"
	"github.com/systmms/enveloper/internal/logging"
	"github.com/systmms/enveloper/internal/stores"
)

// newTestEnv builds an Env whose config path points at a file that does not
// exist, so tests never pick up a developer's real .enveloper.yaml, and whose
// logger writes into the returned buffer.
func newTestEnv(t *testing.T) (*commands.Env, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return &commands.Env{
		ConfigPath: filepath.Join(t.TempDir(), config.FileName),
		Logger:     logging.NewWithWriter(&buf, false, true),
		Registry:   stores.NewRegistry(),
	}, &buf
}

func runCmd(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func scopeArgs(envPath string) []string {
	return []string{"-s", "file", "--path", envPath, "-d", "prod", "-p", "myapp"}
}

func TestSetGetRoundTrip(t *testing.T) {
	env, _ := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")

	_, err := runCmd(t, commands.NewSetCommand(env), "",
		append([]string{"DB_URL", "postgres://prod"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)

	out, err := runCmd(t, commands.NewGetCommand(env), "",
		append([]string{"DB_URL"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)
	assert.Equal(t, "postgres://prod\n", out)
}

func TestSetReadsValueFromStdin(t *testing.T) {
	env, _ := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")

	_, err := runCmd(t, commands.NewSetCommand(env), "hunter2\n",
		append([]string{"API_TOKEN"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)

	out, err := runCmd(t, commands.NewGetCommand(env), "",
		append([]string{"API_TOKEN"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)
	assert.Equal(t, "hunter2\n", out)
}

func TestGetMissingSecret(t *testing.T) {
	env, _ := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")

	_, err := runCmd(t, commands.NewGetCommand(env), "",
		append([]string{"NOPE"}, scopeArgs(envPath)...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "enveloper list")
}

func TestUnsetRemovesSecret(t *testing.T) {
	env, _ := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")

	_, err := runCmd(t, commands.NewSetCommand(env), "",
		append([]string{"DB_URL", "x"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)

	_, err = runCmd(t, commands.NewUnsetCommand(env), "",
		append([]string{"DB_URL"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)

	_, err = runCmd(t, commands.NewGetCommand(env), "",
		append([]string{"DB_URL"}, scopeArgs(envPath)...)...)
	require.Error(t, err)

	// deleting again is still fine
	_, err = runCmd(t, commands.NewUnsetCommand(env), "",
		append([]string{"DB_URL"}, scopeArgs(envPath)...)...)
	assert.NoError(t, err)
}

func TestListPrintsKeys(t *testing.T) {
	env, _ := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")

	for _, name := range []string{"B_KEY", "A_KEY"} {
		_, err := runCmd(t, commands.NewSetCommand(env), "",
			append([]string{name, "v"}, scopeArgs(envPath)...)...)
		require.NoError(t, err)
	}

	out, err := runCmd(t, commands.NewListCommand(env), "", scopeArgs(envPath)...)
	require.NoError(t, err)
	assert.Equal(t, "A_KEY\nB_KEY\n", out)
}

func TestListEmptyScopeWarns(t *testing.T) {
	env, logs := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")

	out, err := runCmd(t, commands.NewListCommand(env), "", scopeArgs(envPath)...)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, logs.String(), "No secrets stored")
}

func TestClearRequiresConfirmation(t *testing.T) {
	env, _ := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")

	_, err := runCmd(t, commands.NewSetCommand(env), "",
		append([]string{"DB_URL", "x"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)

	_, err = runCmd(t, commands.NewClearCommand(env), "", scopeArgs(envPath)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Refusing to clear")

	// the refusal must not touch the store
	out, err := runCmd(t, commands.NewGetCommand(env), "",
		append([]string{"DB_URL"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)
	assert.Equal(t, "x\n", out)

	_, err = runCmd(t, commands.NewClearCommand(env), "",
		append([]string{"--yes"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)

	_, err = runCmd(t, commands.NewGetCommand(env), "",
		append([]string{"DB_URL"}, scopeArgs(envPath)...)...)
	assert.Error(t, err)
}

func TestPushReportsCopiedCount(t *testing.T) {
	env, logs := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, godotenv.Write(map[string]string{
		"DB_URL":    "postgres://prod",
		"API_TOKEN": "hunter2",
	}, envPath))

	_, err := runCmd(t, commands.NewPushCommand(env), "",
		"--from", "file", "--path", envPath, "-s", "memory", "-d", "prod", "-p", "myapp")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Copied 2 secret(s) from file to memory")
}

func TestPullReportsCopiedCount(t *testing.T) {
	env, logs := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, godotenv.Write(map[string]string{"DB_URL": "x"}, envPath))

	_, err := runCmd(t, commands.NewPullCommand(env), "",
		"--to", "memory", "--path", envPath, "-s", "file", "-d", "prod", "-p", "myapp")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Copied 1 secret(s) from file to memory")
}

func TestPushDeniedForWriteOnlySource(t *testing.T) {
	env, _ := newTestEnv(t)

	_, err := runCmd(t, commands.NewPushCommand(env), "",
		"--from", "github", "-s", "memory", "-d", "prod", "-p", "myapp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support read")
}

func TestExportToFile(t *testing.T) {
	env, _ := newTestEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	outPath := filepath.Join(dir, "out.env")

	for name, value := range map[string]string{"DB_URL": "postgres://prod", "PORT": "5432"} {
		_, err := runCmd(t, commands.NewSetCommand(env), "",
			append([]string{name, value}, scopeArgs(envPath)...)...)
		require.NoError(t, err)
	}

	_, err := runCmd(t, commands.NewExportCommand(env), "",
		append([]string{"--output", outPath}, scopeArgs(envPath)...)...)
	require.NoError(t, err)

	values, err := godotenv.Read(outPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DB_URL": "postgres://prod", "PORT": "5432"}, values)
}

func TestExportToStdout(t *testing.T) {
	env, _ := newTestEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")

	_, err := runCmd(t, commands.NewSetCommand(env), "",
		append([]string{"DB_URL", "postgres://prod"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)

	out, err := runCmd(t, commands.NewExportCommand(env), "", scopeArgs(envPath)...)
	require.NoError(t, err)

	values, err := godotenv.Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DB_URL": "postgres://prod"}, values)
}

func TestImportFromDotenv(t *testing.T) {
	env, logs := newTestEnv(t)
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.env")
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, godotenv.Write(map[string]string{
		"DB_URL": "postgres://prod",
		"PORT":   "5432",
	}, srcPath))

	_, err := runCmd(t, commands.NewImportCommand(env), "",
		append([]string{srcPath}, scopeArgs(envPath)...)...)
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "Imported 2 secret(s)")

	out, err := runCmd(t, commands.NewGetCommand(env), "",
		append([]string{"PORT"}, scopeArgs(envPath)...)...)
	require.NoError(t, err)
	assert.Equal(t, "5432\n", out)
}

func TestImportMissingFile(t *testing.T) {
	env, _ := newTestEnv(t)

	_, err := runCmd(t, commands.NewImportCommand(env), "",
		"no-such.env", "-s", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read no-such.env")
}

func TestServicesTable(t *testing.T) {
	env, _ := newTestEnv(t)

	out, err := runCmd(t, commands.NewServicesCommand(env), "")
	require.NoError(t, err)

	assert.Contains(t, out, "SERVICE")
	assert.Contains(t, out, "aws")
	assert.Contains(t, out, "RWLC")
	// github is write-only
	assert.Contains(t, out, "-WLC")
	// the keychain backend lists one row per platform
	assert.Equal(t, 3, strings.Count(out, "local"))
}

func TestInitWritesConfig(t *testing.T) {
	env, _ := newTestEnv(t)
	t.Chdir(t.TempDir())

	_, err := runCmd(t, commands.NewInitCommand(env), "", "-p", "myapp")
	require.NoError(t, err)

	file, err := config.Load(config.FileName)
	require.NoError(t, err)
	require.NotNil(t, file.Project)
	assert.Equal(t, "myapp", *file.Project)
	require.NotNil(t, file.Service)
	assert.Equal(t, config.DefaultService, *file.Service)

	_, err = runCmd(t, commands.NewInitCommand(env), "", "-p", "myapp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitDefaultsProjectToDirectoryName(t *testing.T) {
	env, _ := newTestEnv(t)
	dir := filepath.Join(t.TempDir(), "billing-api")
	require.NoError(t, os.Mkdir(dir, 0o755))
	t.Chdir(dir)

	_, err := runCmd(t, commands.NewInitCommand(env), "")
	require.NoError(t, err)

	file, err := config.Load(config.FileName)
	require.NoError(t, err)
	require.NotNil(t, file.Project)
	assert.Equal(t, "billing-api", *file.Project)
}
