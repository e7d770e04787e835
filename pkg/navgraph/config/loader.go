package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FromFile loads configuration from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (RouterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RouterConfig{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return RouterConfig{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses and validates YAML data.
func FromYAML(data []byte) (RouterConfig, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return RouterConfig{}, fmt.Errorf("parse yaml: %w", err)
	}
	return Decode(m)
}

// FromJSON parses and validates JSON data.
func FromJSON(data []byte) (RouterConfig, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return RouterConfig{}, fmt.Errorf("parse json: %w", err)
	}
	return Decode(m)
}

// Decode decodes a generic map on top of Default and validates the result.
//
// Decoding is weakly typed: a single path string becomes a one-element
// list, numeric strings become numbers and durations accept "30s" as well
// as a number of nanoseconds. Unknown keys are rejected.
func Decode(m map[string]any) (RouterConfig, error) {
	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return RouterConfig{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return RouterConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return RouterConfig{}, err
	}
	return cfg, nil
}
