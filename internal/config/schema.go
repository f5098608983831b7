package config

import (
	"encoding/json"
	"strings"

	dserrors "github.com/systmms/enveloper/internal/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// configSchema validates the structure of .enveloper.yaml before it is
// unmarshalled, so typos like "porject" surface as a clear error instead of
// being silently ignored.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "project": {"type": "string"},
    "domain": {"type": "string"},
    "service": {"type": "string"},
    "version": {"type": "string"},
    "domains": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "env_file": {"type": "string"}
        }
      }
    },
    "aws": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "profile": {"type": "string"},
        "region": {"type": "string"},
        "assume_role": {"type": "string"},
        "access_key_id": {"type": "string"},
        "secret_access_key": {"type": "string"}
      }
    },
    "gcp": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "project": {"type": "string"},
        "credentials_file": {"type": "string"}
      }
    },
    "azure": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "vault_url": {"type": "string"}
      }
    },
    "vault": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "url": {"type": "string"},
        "mount": {"type": "string"}
      }
    },
    "akeyless": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "gateway_url": {"type": "string"},
        "access_id": {"type": "string"},
        "access_key": {"type": "string"}
      }
    },
    "github": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "repo": {"type": "string"},
        "prefix": {"type": "string"}
      }
    }
  }
}`

// validateSchema checks raw YAML against the configuration schema. The YAML
// is decoded to a generic document and round-tripped through JSON because
// gojsonschema only speaks JSON.
func validateSchema(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return dserrors.ConfigError{
			Field:      "file",
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	if doc == nil {
		return nil
	}

	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return dserrors.ConfigError{
			Field:   "file",
			Message: "configuration file could not be converted for validation",
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(jsonDoc),
	)
	if err != nil {
		return dserrors.ConfigError{
			Field:   "file",
			Message: "schema validation failed: " + err.Error(),
		}
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return dserrors.ConfigError{
			Field:      "file",
			Message:    "invalid configuration: " + strings.Join(problems, "; "),
			Suggestion: "Check field names against the documented .enveloper.yaml format",
		}
	}
	return nil
}
