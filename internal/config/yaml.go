package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// overlayYAMLFile reads the YAML file named by ECSS_CONFIG_FILE and merges
// its backend-specific extended parameters into cfg.Storage.Extended,
// keyed by top-level backend name (sqlite, s3, dynamodb, elasticsearch),
// per §6: "top-level key names backend, extended params".
func overlayYAMLFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	jb, err := yamlToJSON(b)
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	var raw map[string]map[string]string
	if err := json.Unmarshal(jb, &raw); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	if cfg.Storage.Extended == nil {
		cfg.Storage.Extended = map[string]map[string]string{}
	}
	for backend, params := range raw {
		resolved := make(map[string]string, len(params))
		for k, v := range params {
			resolved[k] = substitutePlaceholders(v)
		}
		cfg.Storage.Extended[strings.ToLower(strings.TrimSpace(backend))] = resolved
	}
	return nil
}

// yamlToJSON converts YAML bytes to JSON bytes so they can be decoded with
// encoding/json.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	v = normalizeYAML(v)
	j, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, nil
}

// normalizeYAML ensures all map keys are strings so the result can be JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
