package steps

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/systemstart/step-runner/pkg/results"
)

const shortCommitLength = 7

var preReleaseUnsafe = regexp.MustCompile(`[^0-9A-Za-z-]+`)

type semanticVersionConfig struct {
	AppVersion   string `mapstructure:"app-version" validate:"required"`
	CommitHash   string `mapstructure:"commit-hash"`
	Branch       string `mapstructure:"branch"`
	IsPreRelease bool   `mapstructure:"is-pre-release"`
}

type semanticVersionImplementer struct{}

// NewSemanticVersionImplementer creates the implementer that derives the
// build version and container image tag from earlier metadata.
func NewSemanticVersionImplementer() Implementer {
	return &semanticVersionImplementer{}
}

func (s *semanticVersionImplementer) Name() string { return "SemanticVersion" }

func (s *semanticVersionImplementer) Defaults() map[string]any { return nil }

func (s *semanticVersionImplementer) Run(ctx *StepContext, result *results.StepResult) error {
	var cfg semanticVersionConfig
	if err := ctx.Decode(&cfg); err != nil {
		return err
	}

	v, err := semver.StrictNewVersion(strings.TrimPrefix(cfg.AppVersion, "v"))
	if err != nil {
		result.Fail(fmt.Sprintf("app-version %q is not a semantic version: %v", cfg.AppVersion, err))
		return nil
	}

	version, err := buildVersion(v, cfg)
	if err != nil {
		result.Fail(err.Error())
		return nil
	}

	tag := strings.ReplaceAll(version.String(), "+", "_")
	ctx.Logger().Info("computed semantic version", "version", version.String(), "tag", tag)

	if err := result.AddArtifact("version", results.String(version.String()), "Semantic version of this build"); err != nil {
		return err
	}
	return result.AddArtifact("container-image-tag", results.String(tag), "Container image tag of this build")
}

func buildVersion(v *semver.Version, cfg semanticVersionConfig) (semver.Version, error) {
	version := *v

	if cfg.IsPreRelease {
		pre := preReleaseIdentifier(cfg.Branch)
		if pre == "" {
			return version, fmt.Errorf("pre-release build requires a branch name")
		}
		withPre, err := version.SetPrerelease(pre)
		if err != nil {
			return version, fmt.Errorf("setting pre-release %q: %w", pre, err)
		}
		version = withPre
	}

	if cfg.CommitHash != "" {
		build := cfg.CommitHash
		if len(build) > shortCommitLength {
			build = build[:shortCommitLength]
		}
		withMeta, err := version.SetMetadata(build)
		if err != nil {
			return version, fmt.Errorf("setting build metadata %q: %w", build, err)
		}
		version = withMeta
	}

	return version, nil
}

func preReleaseIdentifier(branch string) string {
	return strings.Trim(preReleaseUnsafe.ReplaceAllString(branch, "-"), "-")
}
