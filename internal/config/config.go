package config

import (
	"os"
	"path/filepath"

	dserrors "github.com/systmms/enveloper/internal/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file searched for upward from the
// working directory, so commands behave identically from any subdirectory of
// a project.
const FileName = ".enveloper.yaml"

// File represents the parsed .enveloper.yaml structure. The four tunable
// fields are pointers because the resolver distinguishes "absent from the
// file" from "present but empty": only absence continues the search down the
// precedence chain.
type File struct {
	Project *string `yaml:"project,omitempty"`
	Domain  *string `yaml:"domain,omitempty"`
	Service *string `yaml:"service,omitempty"`
	Version *string `yaml:"version,omitempty"`

	Domains map[string]DomainConfig `yaml:"domains,omitempty"`

	AWS      AWSConfig      `yaml:"aws,omitempty"`
	GCP      GCPConfig      `yaml:"gcp,omitempty"`
	Azure    AzureConfig    `yaml:"azure,omitempty"`
	Vault    VaultConfig    `yaml:"vault,omitempty"`
	Akeyless AkeylessConfig `yaml:"akeyless,omitempty"`
	GitHub   GitHubConfig   `yaml:"github,omitempty"`

	// Path is where the file was found; empty when no file exists.
	Path string `yaml:"-"`
}

// DomainConfig holds per-domain overrides.
type DomainConfig struct {
	EnvFile *string `yaml:"env_file,omitempty"`
}

// AWSConfig holds AWS-specific settings shared by the aws (SSM) and asm
// (Secrets Manager) stores.
type AWSConfig struct {
	Profile         string `yaml:"profile,omitempty"`
	Region          string `yaml:"region,omitempty"`
	AssumeRole      string `yaml:"assume_role,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// GCPConfig holds Google Cloud Secret Manager settings.
type GCPConfig struct {
	Project         string `yaml:"project,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// AzureConfig holds Azure Key Vault settings.
type AzureConfig struct {
	VaultURL string `yaml:"vault_url,omitempty"`
}

// VaultConfig holds HashiCorp Vault settings. The token always comes from
// VAULT_TOKEN; storing it in a project file would defeat the point.
type VaultConfig struct {
	URL   string `yaml:"url,omitempty"`
	Mount string `yaml:"mount,omitempty"`
}

// AkeylessConfig holds Akeyless gateway settings.
type AkeylessConfig struct {
	GatewayURL string `yaml:"gateway_url,omitempty"`
	AccessID   string `yaml:"access_id,omitempty"`
	AccessKey  string `yaml:"access_key,omitempty"`
}

// GitHubConfig holds GitHub Actions secrets settings.
type GitHubConfig struct {
	Repo   string `yaml:"repo,omitempty"`
	Prefix string `yaml:"prefix,omitempty"`
}

// Find walks upward from start looking for the configuration file. Returns
// the path and true when found.
func Find(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Load reads and parses a configuration file. An empty path searches upward
// from the working directory; when no file exists anywhere, an empty File is
// returned so callers fall through to environment variables and defaults.
func Load(path string) (*File, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return &File{}, nil
		}
		found, ok := Find(cwd)
		if !ok {
			return &File{}, nil
		}
		path = found
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, dserrors.ConfigError{
			Field:      "file",
			Value:      path,
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}

	f.Path = path
	return &f, nil
}
