package stores

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/systmms/enveloper/internal/config"
	"github.com/systmms/enveloper/pkg/store"
)

var ssmDescriptor = store.Descriptor{
	Name:        "aws",
	DisplayName: "AWS SSM Parameter Store",
	DocURL:      "https://docs.aws.amazon.com/systems-manager/latest/userguide/systems-manager-parameter-store.html",
	Capabilities: store.Capabilities{
		Read:  true,
		Write: true,
		List:  true,
		Clear: true,
	},
}

// SSMClientAPI defines the interface for AWS SSM Parameter Store operations.
// This allows for mocking in tests.
type SSMClientAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
	DeleteParameter(ctx context.Context, params *ssm.DeleteParameterInput, optFns ...func(*ssm.Options)) (*ssm.DeleteParameterOutput, error)
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// SSMStore stores secrets as SecureString parameters in AWS SSM Parameter
// Store. Keys are slash-delimited parameter paths with a leading slash, so
// one scope maps onto one parameter hierarchy.
type SSMStore struct {
	scoped
	client SSMClientAPI
}

// SSMOption configures an SSMStore.
type SSMOption func(*SSMStore)

// WithSSMClient sets a custom SSM client (for testing).
func WithSSMClient(client SSMClientAPI) SSMOption {
	return func(s *SSMStore) {
		s.client = client
	}
}

// NewSSMStore creates a store over AWS SSM Parameter Store.
func NewSSMStore(ctx context.Context, scope store.Scope, cfg config.AWSConfig, opts ...SSMOption) (*SSMStore, error) {
	s := &SSMStore{
		scoped: scoped{
			desc: ssmDescriptor,
			format: store.KeyFormat{
				Prefix:           store.DefaultPrefix,
				KeySeparator:     "/",
				VersionSeparator: ".",
				Namespace:        store.DefaultNamespace,
				LeadingSeparator: true,
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
		s.client = ssm.NewFromConfig(awsCfg)
	}
	return s, nil
}

func isParameterNotFound(err error) bool {
	var nf *types.ParameterNotFound
	return errors.As(err, &nf)
}

func (s *SSMStore) Get(ctx context.Context, key string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(s.ResolveKey(key)),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		if isParameterNotFound(err) {
			return "", store.ErrNotFound
		}
		return "", &store.BackendError{Store: s.desc.Name, Op: "get", Err: err}
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", store.ErrNotFound
	}
	return *out.Parameter.Value, nil
}

func (s *SSMStore) Set(ctx context.Context, key, value string) error {
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(s.ResolveKey(key)),
		Value:     aws.String(value),
		Type:      types.ParameterTypeSecureString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return &store.BackendError{Store: s.desc.Name, Op: "set", Err: err}
	}
	return nil
}

func (s *SSMStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteParameter(ctx, &ssm.DeleteParameterInput{
		Name: aws.String(s.ResolveKey(key)),
	})
	if err != nil && !isParameterNotFound(err) {
		return &store.BackendError{Store: s.desc.Name, Op: "delete", Err: err}
	}
	return nil
}

func (s *SSMStore) ListKeys(ctx context.Context) ([]string, error) {
	// GetParametersByPath wants the hierarchy without the trailing slash.
	path := strings.TrimSuffix(s.scopePrefix(), s.format.KeySeparator)

	var keys []string
	var nextToken *string
	for {
		out, err := s.client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:      aws.String(path),
			Recursive: aws.Bool(true),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, &store.BackendError{Store: s.desc.Name, Op: "list", Err: err}
		}
		for _, p := range out.Parameters {
			if p.Name != nil {
				keys = append(keys, *p.Name)
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

func (s *SSMStore) Clear(ctx context.Context) error {
	return store.DeleteAll(ctx, s)
}
