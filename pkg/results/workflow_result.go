package results

import (
	"fmt"
	"slices"
)

// WorkflowResult is the ordered record of every step result of a pipeline
// run. At most one result is kept per Key; insertion order is kept for
// reporting and artifact searches.
//
// A WorkflowResult owns copies of the results added to it. Results returned
// by its accessors are copies as well, so stored results only ever change
// through AddStepResult.
type WorkflowResult struct {
	results []*StepResult
	index   map[Key]int
}

// NewWorkflowResult returns an empty workflow.
func NewWorkflowResult() *WorkflowResult {
	return &WorkflowResult{index: make(map[Key]int)}
}

func (w *WorkflowResult) Len() int { return len(w.results) }

// AddStepResult stores a copy of result. When a result with the same key is
// already stored, its artifacts and evidence that result lacks are merged
// forward and the new result takes the old one's position.
func (w *WorkflowResult) AddStepResult(result *StepResult) error {
	if result == nil {
		return fmt.Errorf("%w: step result is nil", ErrTypeMismatch)
	}
	if err := result.Validate(); err != nil {
		return fmt.Errorf("adding step result: %w", err)
	}
	if w.index == nil {
		w.reindex()
	}

	stored := result.clone()
	key := stored.Key()
	if pos, ok := w.index[key]; ok {
		old := w.results[pos]
		stored.MergeArtifacts(old.artifacts)
		stored.MergeEvidence(old.evidence)
		w.results[pos] = stored
		return nil
	}

	w.index[key] = len(w.results)
	w.results = append(w.results, stored)
	return nil
}

// Merge adds every result of other, in order.
func (w *WorkflowResult) Merge(other *WorkflowResult) error {
	if other == nil {
		return fmt.Errorf("%w: workflow result is nil", ErrTypeMismatch)
	}
	for _, r := range other.results {
		if err := w.AddStepResult(r); err != nil {
			return err
		}
	}
	return nil
}

// GetStepResult returns the result with the exact key, or nil.
func (w *WorkflowResult) GetStepResult(stepName, subStepName, environment string) *StepResult {
	pos, ok := w.index[Key{StepName: stepName, SubStepName: subStepName, Environment: environment}]
	if !ok {
		return nil
	}
	return w.results[pos].clone()
}

// FindStepResult returns the first result recorded for stepName whatever
// its sub-step or environment, or nil.
func (w *WorkflowResult) FindStepResult(stepName string) *StepResult {
	for _, r := range w.results {
		if r.StepName == stepName {
			return r.clone()
		}
	}
	return nil
}

// StepResults returns copies of all results in insertion order.
func (w *WorkflowResult) StepResults() []*StepResult {
	out := make([]*StepResult, len(w.results))
	for i, r := range w.results {
		out[i] = r.clone()
	}
	return out
}

// SearchForArtifact returns the first artifact called name, scanning
// results in insertion order, or nil.
func (w *WorkflowResult) SearchForArtifact(name string) *Entry {
	_, e := w.searchArtifact(name)
	return e
}

// SearchForArtifactVerbose is SearchForArtifact returning the report form of
// the owning step result instead of the artifact, or nil.
func (w *WorkflowResult) SearchForArtifactVerbose(name string) map[string]any {
	r, _ := w.searchArtifact(name)
	if r == nil {
		return nil
	}
	return r.ToMap()
}

func (w *WorkflowResult) searchArtifact(name string) (*StepResult, *Entry) {
	for _, r := range w.results {
		if e := r.GetArtifact(name); e != nil {
			return r, e
		}
	}
	return nil, nil
}

// Filter narrows artifact and evidence lookups. Empty fields match any
// result. An Environment also matches results without an environment.
type Filter struct {
	StepName    string
	SubStepName string
	Environment string
}

func (f Filter) matches(r *StepResult) bool {
	if f.StepName != "" && r.StepName != f.StepName {
		return false
	}
	if f.SubStepName != "" && r.SubStepName != f.SubStepName {
		return false
	}
	if f.Environment != "" && r.Environment != "" && r.Environment != f.Environment {
		return false
	}
	return true
}

// GetArtifactValue returns the value of the named artifact from the most
// recently added result matching f.
func (w *WorkflowResult) GetArtifactValue(name string, f Filter) (Value, bool) {
	return w.lastMatch(f, func(r *StepResult) *Entry { return r.GetArtifact(name) })
}

// GetEvidenceValue is GetArtifactValue for evidence.
func (w *WorkflowResult) GetEvidenceValue(name string, f Filter) (Value, bool) {
	return w.lastMatch(f, func(r *StepResult) *Entry { return r.GetEvidence(name) })
}

func (w *WorkflowResult) lastMatch(f Filter, get func(*StepResult) *Entry) (Value, bool) {
	for i := len(w.results) - 1; i >= 0; i-- {
		r := w.results[i]
		if !f.matches(r) {
			continue
		}
		if e := get(r); e != nil {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Equal reports whether w and o hold equal results in the same order.
func (w *WorkflowResult) Equal(o *WorkflowResult) bool {
	if w == nil || o == nil {
		return w == o
	}
	return slices.EqualFunc(w.results, o.results, (*StepResult).Equal)
}

func (w *WorkflowResult) reindex() {
	w.index = make(map[Key]int, len(w.results))
	for i, r := range w.results {
		w.index[r.Key()] = i
	}
}
