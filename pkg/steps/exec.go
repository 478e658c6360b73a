package steps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// execResult is the captured outcome of an external command.
type execResult struct {
	Stdout []byte
	Stderr []byte
}

// runTool runs a binary that must be in PATH and captures its output. A
// missing binary and a non-zero exit are both errors; the latter carries
// stderr in its message.
func runTool(ctx context.Context, dir, name string, args []string, env []string) (*execResult, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s binary not found in PATH: %w", name, err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := &execResult{}
	err := cmd.Run()
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	if err != nil {
		return res, fmt.Errorf("%s %s failed: %w\nstderr: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return res, nil
}
