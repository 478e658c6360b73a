package steps

import (
	"testing"

	"github.com/systemstart/step-runner/pkg/results"
)

func TestSemanticVersionImplementer_Run(t *testing.T) {
	const commit = "0123456789abcdef"

	tests := []struct {
		name      string
		artifacts map[string]results.Value
		wantVer   string
		wantTag   string
	}{
		{
			name: "release",
			artifacts: map[string]results.Value{
				"app-version":    results.String("1.2.3"),
				"commit-hash":    results.String(commit),
				"branch":         results.String("main"),
				"is-pre-release": results.Bool(false),
			},
			wantVer: "1.2.3+0123456",
			wantTag: "1.2.3_0123456",
		},
		{
			name: "pre-release",
			artifacts: map[string]results.Value{
				"app-version":    results.String("v1.2.3"),
				"commit-hash":    results.String(commit),
				"branch":         results.String("feature/Login_Page"),
				"is-pre-release": results.Bool(true),
			},
			wantVer: "1.2.3-feature-Login-Page+0123456",
			wantTag: "1.2.3-feature-Login-Page_0123456",
		},
		{
			name: "no commit",
			artifacts: map[string]results.Value{
				"app-version": results.String("0.1.0"),
			},
			wantVer: "0.1.0",
			wantTag: "0.1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := results.NewWorkflowResult()
			priorResult(t, w, "generate-metadata", "", tt.artifacts)

			impl := NewSemanticVersionImplementer()
			result := runImplementer(t, impl, newTestContext(t, impl, "generate-metadata", nil, w))
			if !result.Success {
				t.Fatalf("unexpected failure: %s", result.Message)
			}
			if got := artifactString(t, result, "version"); got != tt.wantVer {
				t.Errorf("version = %q, want %q", got, tt.wantVer)
			}
			if got := artifactString(t, result, "container-image-tag"); got != tt.wantTag {
				t.Errorf("container-image-tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestSemanticVersionImplementer_Failures(t *testing.T) {
	tests := []struct {
		name      string
		artifacts map[string]results.Value
	}{
		{"not semver", map[string]results.Value{"app-version": results.String("release-7")}},
		{"pre-release without branch", map[string]results.Value{
			"app-version":    results.String("1.0.0"),
			"is-pre-release": results.Bool(true),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := results.NewWorkflowResult()
			priorResult(t, w, "generate-metadata", "", tt.artifacts)

			impl := NewSemanticVersionImplementer()
			result := runImplementer(t, impl, newTestContext(t, impl, "generate-metadata", nil, w))
			if result.Success {
				t.Fatal("expected failure")
			}
			if result.Message == "" {
				t.Error("failure should carry a message")
			}
		})
	}
}

func TestSemanticVersionImplementer_MissingAppVersion(t *testing.T) {
	impl := NewSemanticVersionImplementer()
	ctx := newTestContext(t, impl, "generate-metadata", nil, nil)
	if err := impl.Run(ctx, newStepResult(ctx, impl)); err == nil {
		t.Fatal("expected config error without app-version")
	}
}
