package api

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"gopkg.in/yaml.v3"
)

type configFile struct {
	StepRunnerConfig yaml.Node `yaml:"step-runner-config"`
}

// LoadConfig reads and merges the given configuration files in order, then
// validates the result.
func LoadConfig(filenames ...string) (*Config, error) {
	if len(filenames) == 0 {
		return nil, fmt.Errorf("no configuration files given")
	}

	cfg := NewConfig()
	for _, filename := range filenames {
		part, err := parseFile(filename)
		if err != nil {
			return nil, err
		}
		if err := cfg.Merge(part); err != nil {
			return nil, fmt.Errorf("merging %s: %w", filename, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}

func parseFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}
	cfg.Files = []string{absPath}
	return cfg, nil
}

// Parse decodes one configuration document. Steps may hold a single
// sub-step mapping or a list of them.
func Parse(data []byte) (*Config, error) {
	var f configFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	cfg := NewConfig()
	root := &f.StepRunnerConfig
	if root.Kind == 0 {
		return nil, fmt.Errorf("missing %q key", RootKey)
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %q must be a mapping", root.Line, RootKey)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]
		key := keyNode.Value

		switch key {
		case GlobalDefaultsKey:
			if err := valueNode.Decode(&cfg.GlobalDefaults); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", keyNode.Line, key, err)
			}
		case GlobalEnvironmentDefaultsKey:
			if err := valueNode.Decode(&cfg.GlobalEnvironmentDefaults); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", keyNode.Line, key, err)
			}
		default:
			subSteps, err := decodeSubSteps(valueNode)
			if err != nil {
				return nil, fmt.Errorf("line %d: step %q: %w", keyNode.Line, key, err)
			}
			cfg.Steps[key] = append(cfg.Steps[key], subSteps...)
		}
	}

	return cfg, nil
}

func decodeSubSteps(node *yaml.Node) ([]SubStepConfig, error) {
	var subSteps []SubStepConfig

	switch node.Kind {
	case yaml.MappingNode:
		var s SubStepConfig
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		subSteps = append(subSteps, s)
	case yaml.SequenceNode:
		if err := node.Decode(&subSteps); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("expected a sub-step mapping or a list of sub-steps")
	}

	for i := range subSteps {
		if subSteps[i].Name == "" {
			subSteps[i].Name = subSteps[i].Implementer
		}
	}
	return subSteps, nil
}

// Merge folds other into c. Global defaults merge deeply and fail on
// conflicting values; sub-steps are appended per step.
func (c *Config) Merge(other *Config) error {
	if err := mergeValues(c.GlobalDefaults, other.GlobalDefaults, GlobalDefaultsKey); err != nil {
		return err
	}
	for env, defaults := range other.GlobalEnvironmentDefaults {
		dst, ok := c.GlobalEnvironmentDefaults[env]
		if !ok {
			dst = make(map[string]any)
			c.GlobalEnvironmentDefaults[env] = dst
		}
		if err := mergeValues(dst, defaults, GlobalEnvironmentDefaultsKey+"."+env); err != nil {
			return err
		}
	}
	for step, subSteps := range other.Steps {
		c.Steps[step] = append(c.Steps[step], subSteps...)
	}
	c.Files = append(c.Files, other.Files...)
	return nil
}

func mergeValues(dst, src map[string]any, path string) error {
	for k, v := range src {
		existing, ok := dst[k]
		if !ok {
			dst[k] = v
			continue
		}
		dstMap, dstIsMap := existing.(map[string]any)
		srcMap, srcIsMap := v.(map[string]any)
		if dstIsMap && srcIsMap {
			if err := mergeValues(dstMap, srcMap, path+"."+k); err != nil {
				return err
			}
			continue
		}
		if !reflect.DeepEqual(existing, v) {
			return fmt.Errorf("conflicting values for %s.%s: %v and %v", path, k, existing, v)
		}
	}
	return nil
}
