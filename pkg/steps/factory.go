package steps

import (
	"fmt"

	"github.com/systemstart/step-runner/pkg/api"
)

// NewImplementer creates the Implementer registered under name.
func NewImplementer(name string) (Implementer, error) {
	switch name {
	case api.ImplementerGit:
		return NewGitImplementer(), nil
	case api.ImplementerNpm:
		return NewNpmImplementer(), nil
	case api.ImplementerSemanticVersion:
		return NewSemanticVersionImplementer(), nil
	case api.ImplementerCommand:
		return NewCommandImplementer(), nil
	case api.ImplementerCopy:
		return NewCopyImplementer(), nil
	case api.ImplementerTemplate:
		return NewTemplateImplementer(), nil
	case api.ImplementerHelm:
		return NewHelmImplementer(), nil
	case api.ImplementerKustomize:
		return NewKustomizeImplementer(), nil
	case api.ImplementerSummary:
		return NewSummaryImplementer(), nil
	default:
		return nil, fmt.Errorf("unknown implementer: %s", name)
	}
}
