package processing

import (
	"fmt"
	"os"
	"strings"

	"github.com/systemstart/step-runner/pkg/api"
	"gopkg.in/yaml.v3"
)

// LoadRuntimeFile reads a YAML file of runtime values.
func LoadRuntimeFile(filename string) (map[string]any, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading runtime file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing runtime file: %w", err)
	}

	if values == nil {
		values = make(map[string]any)
	}

	return values, nil
}

// ParseRuntimeValues parses key=value pairs. Values are decoded as YAML
// scalars or flow collections, so "a=[x, y]" yields a list.
func ParseRuntimeValues(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid runtime value %q: expected key=value", pair)
		}

		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
			v = raw
		}
		values[key] = v
	}
	return values, nil
}

// MergeContext deep-merges layers from lowest to highest precedence. Nested
// maps merge key by key; any other value replaces the lower one.
func MergeContext(layers ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, layer := range layers {
		mergeInto(merged, layer)
	}
	return merged
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		switch {
		case srcIsMap && dstIsMap:
			mergeInto(dstMap, srcMap)
		case srcIsMap:
			copied := make(map[string]any, len(srcMap))
			mergeInto(copied, srcMap)
			dst[k] = copied
		default:
			dst[k] = v
		}
	}
}

// SubStepConfig layers the static configuration of sub for environment:
// implementer defaults, global defaults, global environment defaults,
// sub-step config, sub-step environment config.
func SubStepConfig(cfg *api.Config, sub api.SubStepConfig, environment string, defaults map[string]any) map[string]any {
	layers := []map[string]any{defaults, cfg.GlobalDefaults}
	if environment != "" {
		layers = append(layers, cfg.GlobalEnvironmentDefaults[environment])
	}
	layers = append(layers, sub.Config)
	if environment != "" {
		layers = append(layers, sub.EnvironmentConfig[environment])
	}
	return MergeContext(layers...)
}
