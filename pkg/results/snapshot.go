package results

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// SnapshotFilename is the snapshot file name inside a run's work directory.
const SnapshotFilename = "workflow-results.snapshot"

const (
	snapshotFormat  = "step-runner/workflow-result"
	snapshotVersion = 1
)

// The snapshot is a gob stream of a header followed by the workflow body.
// The header lets LoadSnapshot tell foreign or newer files from corrupt ones.
type snapshotHeader struct {
	Format  string
	Version int
}

type snapshotWorkflow struct {
	Results []snapshotStep
}

type snapshotStep struct {
	StepName               string
	SubStepName            string
	SubStepImplementerName string
	Environment            string
	Success                bool
	Message                string
	Artifacts              []snapshotEntry
	Evidence               []snapshotEntry
}

type snapshotEntry struct {
	Name        string
	Description string
	Value       snapshotValue
}

type snapshotValue struct {
	Kind Kind
	Str  string
	Bool bool
	List []snapshotValue
	Dict map[string]snapshotValue
}

// WriteSnapshot persists the complete workflow to path, creating parent
// directories as needed.
func (w *WorkflowResult) WriteSnapshot(path string) error {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(snapshotHeader{Format: snapshotFormat, Version: snapshotVersion}); err != nil {
		return fmt.Errorf("%w: encoding snapshot header: %w", ErrPersistence, err)
	}
	if err := enc.Encode(w.toSnapshot()); err != nil {
		return fmt.Errorf("%w: encoding snapshot: %w", ErrPersistence, err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: writing snapshot %s: %w", ErrPersistence, path, err)
	}
	return nil
}

// LoadSnapshot reads a workflow written by WriteSnapshot. A missing or empty
// file yields an empty workflow: that is the first step of a run.
func LoadSnapshot(path string) (*WorkflowResult, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path comes from runner configuration
	if err != nil {
		if os.IsNotExist(err) {
			return NewWorkflowResult(), nil
		}
		return nil, fmt.Errorf("%w: reading snapshot %s: %w", ErrPersistence, path, err)
	}
	if len(data) == 0 {
		return NewWorkflowResult(), nil
	}

	dec := gob.NewDecoder(bytes.NewReader(data))

	var header snapshotHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("%w: snapshot %s is corrupt: %w", ErrPersistence, path, err)
	}
	if header.Format != snapshotFormat {
		return nil, fmt.Errorf("%w: %s does not hold a workflow result (format %q)", ErrTypeMismatch, path, header.Format)
	}
	if header.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: %s has unsupported snapshot version %d", ErrTypeMismatch, path, header.Version)
	}

	var body snapshotWorkflow
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: snapshot %s is corrupt: %w", ErrPersistence, path, err)
	}

	w, err := fromSnapshot(body)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot %s: %w", ErrPersistence, path, err)
	}
	return w, nil
}

func (w *WorkflowResult) toSnapshot() snapshotWorkflow {
	out := snapshotWorkflow{Results: make([]snapshotStep, 0, len(w.results))}
	for _, r := range w.results {
		out.Results = append(out.Results, snapshotStep{
			StepName:               r.StepName,
			SubStepName:            r.SubStepName,
			SubStepImplementerName: r.SubStepImplementerName,
			Environment:            r.Environment,
			Success:                r.Success,
			Message:                r.Message,
			Artifacts:              toSnapshotEntries(r.artifacts),
			Evidence:               toSnapshotEntries(r.evidence),
		})
	}
	return out
}

func toSnapshotEntries(entries map[string]Entry) []snapshotEntry {
	out := make([]snapshotEntry, 0, len(entries))
	for _, name := range sortedKeys(entries) {
		e := entries[name]
		out = append(out, snapshotEntry{Name: e.Name, Description: e.Description, Value: toSnapshotValue(e.Value)})
	}
	return out
}

func toSnapshotValue(v Value) snapshotValue {
	sv := snapshotValue{Kind: v.kind, Str: v.str, Bool: v.b}
	if v.kind == KindList {
		sv.List = make([]snapshotValue, len(v.list))
		for i, item := range v.list {
			sv.List[i] = toSnapshotValue(item)
		}
	}
	if v.kind == KindDict {
		sv.Dict = make(map[string]snapshotValue, len(v.dict))
		for k, item := range v.dict {
			sv.Dict[k] = toSnapshotValue(item)
		}
	}
	return sv
}

func fromSnapshot(body snapshotWorkflow) (*WorkflowResult, error) {
	w := NewWorkflowResult()
	for _, s := range body.Results {
		r := NewStepResult(s.StepName, s.SubStepName, s.SubStepImplementerName, s.Environment)
		r.Success = s.Success
		r.Message = s.Message
		for _, e := range s.Artifacts {
			if err := r.AddArtifact(e.Name, fromSnapshotValue(e.Value), e.Description); err != nil {
				return nil, err
			}
		}
		for _, e := range s.Evidence {
			if err := r.AddEvidence(e.Name, fromSnapshotValue(e.Value), e.Description); err != nil {
				return nil, err
			}
		}
		if err := w.AddStepResult(r); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func fromSnapshotValue(sv snapshotValue) Value {
	v := Value{kind: sv.Kind, str: sv.Str, b: sv.Bool}
	switch sv.Kind {
	case KindList:
		v.list = make([]Value, len(sv.List))
		for i, item := range sv.List {
			v.list[i] = fromSnapshotValue(item)
		}
	case KindDict:
		v.dict = make(map[string]Value, len(sv.Dict))
		for k, item := range sv.Dict {
			v.dict[k] = fromSnapshotValue(item)
		}
	}
	return v
}
