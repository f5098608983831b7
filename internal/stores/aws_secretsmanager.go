package stores

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"

	"github.com/systmms/enveloper/internal/config"
	"github.com/systmms/enveloper/pkg/store"
)

var secretsManagerDescriptor = store.Descriptor{
	Name:        "asm",
	DisplayName: "AWS Secrets Manager",
	DocURL:      "https://docs.aws.amazon.com/secretsmanager/latest/userguide/intro.html",
	Capabilities: store.Capabilities{
		Read:  true,
		Write: true,
		List:  true,
		Clear: true,
	},
}

// SecretsManagerClientAPI defines the interface for AWS Secrets Manager
// operations. This allows for mocking in tests.
type SecretsManagerClientAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	DeleteSecret(ctx context.Context, params *secretsmanager.DeleteSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
	ListSecrets(ctx context.Context, params *secretsmanager.ListSecretsInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.ListSecretsOutput, error)
}

// SecretsManagerStore stores secrets in AWS Secrets Manager, one secret per
// composite key. Unlike SSM there is no overwrite flag: the first write
// creates the secret, later writes add a new version via PutSecretValue.
type SecretsManagerStore struct {
	scoped
	client SecretsManagerClientAPI
}

// SecretsManagerOption configures a SecretsManagerStore.
type SecretsManagerOption func(*SecretsManagerStore)

// WithSecretsManagerClient sets a custom Secrets Manager client (for testing).
func WithSecretsManagerClient(client SecretsManagerClientAPI) SecretsManagerOption {
	return func(s *SecretsManagerStore) {
		s.client = client
	}
}

// NewSecretsManagerStore creates a store over AWS Secrets Manager.
func NewSecretsManagerStore(ctx context.Context, scope store.Scope, cfg config.AWSConfig, opts ...SecretsManagerOption) (*SecretsManagerStore, error) {
	s := &SecretsManagerStore{
		scoped: scoped{
			desc: secretsManagerDescriptor,
			format: store.KeyFormat{
				Prefix:           store.DefaultPrefix,
				KeySeparator:     "/",
				VersionSeparator: ".",
				Namespace:        store.DefaultNamespace,
			},
			scope: scope,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, &store.BackendError{Store: s.desc.Name, Op: "connect", Err: err}
		}
		s.client = secretsmanager.NewFromConfig(awsCfg)
	}
	return s, nil
}

func isSecretNotFound(err error) bool {
	var nf *types.ResourceNotFoundException
	return errors.As(err, &nf)
}

func (s *SecretsManagerStore) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.ResolveKey(key)),
	})
	if err != nil {
		if isSecretNotFound(err) {
			return "", store.ErrNotFound
		}
		return "", &store.BackendError{Store: s.desc.Name, Op: "get", Err: err}
	}
	if out.SecretString == nil {
		return "", store.ErrNotFound
	}
	return *out.SecretString, nil
}

func (s *SecretsManagerStore) Set(ctx context.Context, key, value string) error {
	resolved := s.ResolveKey(key)

	_, err := s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(resolved),
		SecretString: aws.String(value),
	})
	if err == nil {
		return nil
	}

	var exists *types.ResourceExistsException
	if !errors.As(err, &exists) {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}

	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(resolved),
		SecretString: aws.String(value),
	})
	if err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}
	return nil
}

func (s *SecretsManagerStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:                   aws.String(s.ResolveKey(key)),
		ForceDeleteWithoutRecovery: aws.Bool(true),
	})
	if err != nil && !isSecretNotFound(err) {
		return &store.BackendError{Store: s.desc.Name, Op: "delete", Err: err}
	}
	return nil
}

func (s *SecretsManagerStore) ListKeys(ctx context.Context) ([]string, error) {
	prefix := s.scopePrefix()

	var keys []string
	var nextToken *string
	for {
		out, err := s.client.ListSecrets(ctx, &secretsmanager.ListSecretsInput{
			Filters: []types.Filter{
				{Key: types.FilterNameStringTypeName, Values: []string{prefix}},
			},
			NextToken: nextToken,
		})
		if err != nil {
			return nil, &store.BackendError{Store: s.desc.Name, Op: "list", Err: err}
		}
		for _, entry := range out.SecretList {
			// The name filter matches loosely; keep only exact scope members.
			if entry.Name != nil && strings.HasPrefix(*entry.Name, prefix) {
				keys = append(keys, *entry.Name)
			}
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *SecretsManagerStore) Clear(ctx context.Context) error {
	return store.DeleteAll(ctx, s)
}
