package api

const (
	// RootKey is the top-level key of a step-runner configuration file.
	RootKey = "step-runner-config"

	GlobalDefaultsKey            = "global-defaults"
	GlobalEnvironmentDefaultsKey = "global-environment-defaults"

	StepGenerateMetadata = "generate-metadata"
	StepPackage          = "package"
	StepPushArtifacts    = "push-artifacts"
	StepRenderTemplates  = "render-templates"
	StepDeploy           = "deploy"
	StepGenerateEvidence = "generate-evidence"

	ImplementerGit             = "Git"
	ImplementerNpm             = "Npm"
	ImplementerSemanticVersion = "SemanticVersion"
	ImplementerCommand         = "Command"
	ImplementerCopy            = "Copy"
	ImplementerTemplate        = "Template"
	ImplementerHelm            = "Helm"
	ImplementerKustomize       = "Kustomize"
	ImplementerSummary         = "Summary"

	DefaultFileInclude = "**/*"
)

// Config is the parsed step-runner configuration.
type Config struct {
	GlobalDefaults            map[string]any
	GlobalEnvironmentDefaults map[string]map[string]any
	Steps                     map[string][]SubStepConfig

	// Files lists the files the configuration was loaded from.
	Files []string
}

// SubStepConfig configures one implementer run within a step.
type SubStepConfig struct {
	// Name defaults to Implementer.
	Name              string                    `yaml:"name" validate:"omitempty,sub_step_name"`
	Implementer       string                    `yaml:"implementer" validate:"required,sub_step_name"`
	ContinueOnFailure bool                      `yaml:"continue-on-failure"`
	Config            map[string]any            `yaml:"config"`
	EnvironmentConfig map[string]map[string]any `yaml:"environment-config"`
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{
		GlobalDefaults:            make(map[string]any),
		GlobalEnvironmentDefaults: make(map[string]map[string]any),
		Steps:                     make(map[string][]SubStepConfig),
	}
}

// SubSteps returns the sub-steps configured for step, in file order.
func (c *Config) SubSteps(step string) []SubStepConfig {
	return c.Steps[step]
}
