package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaFile string

//go:embed default.yaml
var DEFAULT []byte

var ErrInvalid = errors.New("invalid configuration")

type document = map[string]any

func readFile(path string) (document, error) {
	// Check if this is a valid file
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("does not exist")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	value := document{}
	switch filepath.Ext(path) {
	case ".json":
		err = json.Unmarshal(data, &value)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &value)
	default:
		return nil, fmt.Errorf("not in a valid format")
	}
	if err != nil {
		return nil, err
	}

	return value, nil
}

// merge copies src into dst. Nested objects are merged key by key, anything
// else (including lists) is replaced.
func merge(dst, src document) document {
	for key, value := range src {
		child, isObject := value.(document)
		existing, hasObject := dst[key].(document)
		if isObject && hasObject {
			dst[key] = merge(existing, child)
			continue
		}
		dst[key] = value
	}
	return dst
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader([]byte(schemaFile))); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// Process reads the provided configuration files in order and merges them
// over the default configuration. The result is validated against the
// configuration schema before it is decoded. Environment overrides are
// applied last.
func Process(configPaths []string) (*Config, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("could not compile schema: %w", err)
	}

	merged := document{}
	if err := yaml.Unmarshal(DEFAULT, &merged); err != nil {
		return nil, fmt.Errorf("invalid default config file: %w", err)
	}

	for _, path := range configPaths {
		value, err := readFile(path)
		if err != nil {
			return nil, fmt.Errorf(
				"could not process config file %s: %w",
				path,
				err,
			)
		}

		merged = merge(merged, value)
	}

	// Round trip through JSON so the validator sees plain JSON values
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf(
			"could not aggregate config: %w",
			err,
		)
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}

	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	config := Config{}
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	overrides, err := ParseOverrides()
	if err != nil {
		return nil, err
	}
	overrides.Apply(&config)

	return &config, nil
}
