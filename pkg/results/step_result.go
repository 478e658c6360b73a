package results

import (
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Key identifies a step result within a workflow. Two results with the same
// key are runs of the same step.
type Key struct {
	StepName    string
	SubStepName string
	Environment string
}

func (k Key) String() string {
	if k.Environment == "" {
		return k.StepName + "/" + k.SubStepName
	}
	return k.StepName + "/" + k.SubStepName + "@" + k.Environment
}

// StepResult records the outcome of one sub-step run: identity, success,
// message, artifacts and evidence. An empty Environment means the result is
// not tied to an environment.
//
// Success=false is the way a step reports a business failure; callers check
// it before trusting the artifacts as complete.
type StepResult struct {
	StepName               string
	SubStepName            string
	SubStepImplementerName string
	Environment            string
	Success                bool
	Message                string

	artifacts map[string]Entry
	evidence  map[string]Entry
}

// NewStepResult creates a successful, empty result.
func NewStepResult(stepName, subStepName, implementerName, environment string) *StepResult {
	return &StepResult{
		StepName:               stepName,
		SubStepName:            subStepName,
		SubStepImplementerName: implementerName,
		Environment:            environment,
		Success:                true,
		artifacts:              make(map[string]Entry),
		evidence:               make(map[string]Entry),
	}
}

func (r *StepResult) Key() Key {
	return Key{StepName: r.StepName, SubStepName: r.SubStepName, Environment: r.Environment}
}

// Validate checks that the identity of r is complete.
func (r *StepResult) Validate() error {
	if r.StepName == "" {
		return fmt.Errorf("%w: step name is required", ErrValidation)
	}
	if r.SubStepName == "" {
		return fmt.Errorf("%w: step %q: sub-step name is required", ErrValidation, r.StepName)
	}
	return nil
}

// Fail marks r as failed with the given message.
func (r *StepResult) Fail(message string) {
	r.Success = false
	r.Message = message
}

// AppendMessage adds a line to the message, e.g. for warnings on an
// otherwise successful run.
func (r *StepResult) AppendMessage(message string) {
	if r.Message == "" {
		r.Message = message
		return
	}
	r.Message += "\n" + message
}

// AddArtifact inserts or overwrites the named artifact.
func (r *StepResult) AddArtifact(name string, value Value, description string) error {
	e, err := NewEntry(name, value, description)
	if err != nil {
		return fmt.Errorf("adding artifact to %s: %w", r.Key(), err)
	}
	if r.artifacts == nil {
		r.artifacts = make(map[string]Entry)
	}
	r.artifacts[name] = e
	return nil
}

// AddEvidence inserts or overwrites the named evidence item.
func (r *StepResult) AddEvidence(name string, value Value, description string) error {
	e, err := NewEntry(name, value, description)
	if err != nil {
		return fmt.Errorf("adding evidence to %s: %w", r.Key(), err)
	}
	if r.evidence == nil {
		r.evidence = make(map[string]Entry)
	}
	r.evidence[name] = e
	return nil
}

// GetArtifact returns the named artifact, or nil.
func (r *StepResult) GetArtifact(name string) *Entry {
	e, ok := r.artifacts[name]
	if !ok {
		return nil
	}
	return &e
}

// GetEvidence returns the named evidence item, or nil.
func (r *StepResult) GetEvidence(name string) *Entry {
	e, ok := r.evidence[name]
	if !ok {
		return nil
	}
	return &e
}

func (r *StepResult) Artifacts() map[string]Entry { return maps.Clone(r.artifacts) }

func (r *StepResult) Evidence() map[string]Entry { return maps.Clone(r.evidence) }

func (r *StepResult) ArtifactNames() []string { return sortedKeys(r.artifacts) }

func (r *StepResult) EvidenceNames() []string { return sortedKeys(r.evidence) }

// MergeArtifacts copies in every artifact whose name r does not already
// have. Entries already in r win.
func (r *StepResult) MergeArtifacts(other map[string]Entry) {
	r.artifacts = mergeMissing(r.artifacts, other)
}

// MergeEvidence is MergeArtifacts for evidence.
func (r *StepResult) MergeEvidence(other map[string]Entry) {
	r.evidence = mergeMissing(r.evidence, other)
}

func mergeMissing(dst, src map[string]Entry) map[string]Entry {
	if dst == nil {
		dst = make(map[string]Entry, len(src))
	}
	for name, e := range src {
		if _, ok := dst[name]; !ok {
			dst[name] = e
		}
	}
	return dst
}

// Equal compares every attribute of r and o, including artifacts and evidence.
func (r *StepResult) Equal(o *StepResult) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.StepName == o.StepName &&
		r.SubStepName == o.SubStepName &&
		r.SubStepImplementerName == o.SubStepImplementerName &&
		r.Environment == o.Environment &&
		r.Success == o.Success &&
		r.Message == o.Message &&
		maps.EqualFunc(r.artifacts, o.artifacts, Entry.Equal) &&
		maps.EqualFunc(r.evidence, o.evidence, Entry.Equal)
}

// clone returns a deep enough copy for storage: entries are values and
// Value contents are never mutated after construction.
func (r *StepResult) clone() *StepResult {
	c := *r
	c.artifacts = maps.Clone(r.artifacts)
	c.evidence = maps.Clone(r.evidence)
	if c.artifacts == nil {
		c.artifacts = make(map[string]Entry)
	}
	if c.evidence == nil {
		c.evidence = make(map[string]Entry)
	}
	return &c
}

// ToMap returns the report form of r keyed by its step name.
func (r *StepResult) ToMap() map[string]any {
	return map[string]any{r.StepName: r.body()}
}

func (r *StepResult) body() map[string]any {
	return map[string]any{
		"step-name":                 r.StepName,
		"sub-step-name":             r.SubStepName,
		"sub-step-implementer-name": r.SubStepImplementerName,
		"environment":               environmentValue(r.Environment),
		"success":                   r.Success,
		"message":                   r.Message,
		"artifacts":                 entriesMap(r.artifacts),
		"evidence":                  entriesMap(r.evidence),
	}
}

func environmentValue(env string) any {
	if env == "" {
		return nil
	}
	return env
}

func entriesMap(entries map[string]Entry) map[string]any {
	out := make(map[string]any, len(entries))
	for name, e := range entries {
		out[name] = e.toMap()
	}
	return out
}

func sortedKeys(m map[string]Entry) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Strings(keys)
	return keys
}
