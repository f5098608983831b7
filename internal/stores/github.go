package stores

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"

	"github.com/systmms/enveloper/internal/config"
	"github.com/systmms/enveloper/pkg/store"
)

var githubDescriptor = store.Descriptor{
	Name:        "github",
	DisplayName: "GitHub Actions secrets",
	DocURL:      "https://docs.github.com/actions/security-guides/using-secrets-in-github-actions",
	Capabilities: store.Capabilities{
		// GitHub never returns Actions secret values.
		Read:  false,
		Write: true,
		List:  true,
		Clear: true,
	},
}

// githubNameRe matches every character GitHub rejects in a secret name.
// Only letters, digits and underscores are allowed.
var githubNameRe = regexp.MustCompile(`[^A-Z0-9_]`)

// GHRunner executes a gh CLI invocation and returns its stdout. This allows
// for mocking in tests.
type GHRunner interface {
	Run(ctx context.Context, stdin string, args ...string) (string, error)
}

// execGHRunner runs the real gh binary.
type execGHRunner struct{}

func (execGHRunner) Run(ctx context.Context, stdin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", err
		}
		return "", fmt.Errorf("%s: %w", msg, err)
	}
	return stdout.String(), nil
}

// GitHubStore pushes secrets into a repository's GitHub Actions secrets via
// the gh CLI. Secret names are env-var shaped, so segments join on a double
// underscore and the whole key is uppercased.
type GitHubStore struct {
	scoped
	runner GHRunner
	repo   string
}

// GitHubOption configures a GitHubStore.
type GitHubOption func(*GitHubStore)

// WithGHRunner sets a custom gh runner (for testing).
func WithGHRunner(runner GHRunner) GitHubOption {
	return func(s *GitHubStore) {
		s.runner = runner
	}
}

// NewGitHubStore creates a store over GitHub Actions secrets. With no repo
// configured, gh resolves the repository from the working directory's git
// remote, same as running the CLI by hand.
func NewGitHubStore(scope store.Scope, cfg config.GitHubConfig, opts ...GitHubOption) *GitHubStore {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ENVELOPER"
	}

	s := &GitHubStore{
		scoped: scoped{
			desc: githubDescriptor,
			format: store.KeyFormat{
				Prefix:           prefix,
				KeySeparator:     "__",
				VersionSeparator: "_",
				Namespace:        store.DefaultNamespace,
			},
			scope: scope,
		},
		repo: cfg.Repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = execGHRunner{}
	}
	return s
}

// ResolveKey applies GitHub's naming rules on top of the standard composite
// resolution: uppercase, underscores for anything else.
func (s *GitHubStore) ResolveKey(key string) string {
	return githubNameRe.ReplaceAllString(strings.ToUpper(s.scoped.ResolveKey(key)), "_")
}

// repoArgs appends the --repo flag when a repository is configured.
func (s *GitHubStore) repoArgs(args []string) []string {
	if s.repo != "" {
		args = append(args, "--repo", s.repo)
	}
	return args
}

// Get always fails: GitHub Actions secrets cannot be read back.
func (s *GitHubStore) Get(ctx context.Context, key string) (string, error) {
	return "", &store.CapabilityError{Store: s.desc.Name, Capability: store.CapRead}
}

func (s *GitHubStore) Set(ctx context.Context, key, value string) error {
	args := s.repoArgs([]string{"secret", "set", s.ResolveKey(key)})
	if _, err := s.runner.Run(ctx, value, args...); err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}
	return nil
}

func (s *GitHubStore) Delete(ctx context.Context, key string) error {
	args := s.repoArgs([]string{"secret", "delete", s.ResolveKey(key)})
	_, err := s.runner.Run(ctx, "", args...)
	if err != nil && !strings.Contains(err.Error(), "not found") {
		return &store.BackendError{Store: s.desc.Name, Op: "delete", Err: err}
	}
	return nil
}

func (s *GitHubStore) ListKeys(ctx context.Context) ([]string, error) {
	args := s.repoArgs([]string{"secret", "list", "--json", "name", "--jq", ".[].name"})
	out, err := s.runner.Run(ctx, "", args...)
	if err != nil {
		return nil, &store.BackendError{Store: s.desc.Name, Op: "list", Err: err}
	}

	// The filter prefix needs the same normalization written keys get.
	prefix := githubNameRe.ReplaceAllString(strings.ToUpper(s.scopePrefix()), "_")
	var keys []string
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name != "" && strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *GitHubStore) Clear(ctx context.Context) error {
	return store.DeleteAll(ctx, s)
}
