package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// StoreError enhances backend-specific errors with context
func StoreError(service string, operation string, err error) error {
	suggestion := getStoreSuggestion(service, err)

	return UserError{
		Message:    fmt.Sprintf("%s store error during %s", service, operation),
		Suggestion: suggestion,
		Err:        err,
	}
}

// getStoreSuggestion returns helpful suggestions based on the backend and error
func getStoreSuggestion(service string, err error) string {
	errStr := err.Error()

	switch service {
	case "local":
		if strings.Contains(errStr, "secret service") || strings.Contains(errStr, "dbus") {
			return "Make sure a Secret Service implementation (gnome-keyring, KWallet) is running"
		}

	case "aws", "asm":
		if strings.Contains(errStr, "credentials") || strings.Contains(errStr, "authorization") {
			return "Configure AWS credentials: 'aws configure' or set AWS_PROFILE"
		}
		if strings.Contains(errStr, "AccessDenied") {
			return "Check IAM permissions for SSM Parameter Store / Secrets Manager"
		}
		if strings.Contains(errStr, "ThrottlingException") {
			return "AWS rate limit exceeded. Wait a moment and try again"
		}

	case "gcp":
		if strings.Contains(errStr, "could not find default credentials") {
			return "Run 'gcloud auth application-default login' or set GOOGLE_APPLICATION_CREDENTIALS"
		}
		if strings.Contains(errStr, "PermissionDenied") {
			return "Check IAM permissions for Secret Manager (roles/secretmanager.admin)"
		}

	case "azure":
		if strings.Contains(errStr, "DefaultAzureCredential") {
			return "Run 'az login' or configure a service principal via AZURE_* environment variables"
		}
		if strings.Contains(errStr, "Forbidden") {
			return "Check Key Vault access policies or RBAC role assignments for secrets"
		}

	case "vault":
		if strings.Contains(errStr, "permission denied") || strings.Contains(errStr, "403") {
			return "Check VAULT_TOKEN and the token's policies for this path"
		}
		if strings.Contains(errStr, "connection refused") {
			return "Check VAULT_ADDR and that the Vault server is reachable"
		}

	case "akeyless":
		if strings.Contains(errStr, "authentication failed") {
			return "Check AKEYLESS_ACCESS_ID and AKEYLESS_ACCESS_KEY, or the [akeyless] block in .enveloper.yaml"
		}

	case "github":
		if strings.Contains(errStr, "executable file not found") {
			return "Install the GitHub CLI from https://cli.github.com/ and run 'gh auth login'"
		}
		if strings.Contains(errStr, "auth") {
			return "Run 'gh auth login' to authenticate the GitHub CLI"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and store configuration"
	}

	return ""
}
