package steps

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/systemstart/step-runner/pkg/results"
)

type copyConfig struct {
	PackagePath   string `mapstructure:"package-path" validate:"required"`
	RepositoryDir string `mapstructure:"repository-dir" validate:"required"`
	RepositoryURL string `mapstructure:"repository-url" validate:"omitempty,url"`
}

type copyImplementer struct{}

// NewCopyImplementer creates the implementer that publishes a package by
// copying it into a repository directory.
func NewCopyImplementer() Implementer {
	return &copyImplementer{}
}

func (c *copyImplementer) Name() string { return "Copy" }

func (c *copyImplementer) Defaults() map[string]any { return nil }

func (c *copyImplementer) Run(ctx *StepContext, result *results.StepResult) error {
	var cfg copyConfig
	if err := ctx.Decode(&cfg); err != nil {
		return err
	}

	info, err := os.Stat(cfg.PackagePath)
	if err != nil {
		return fmt.Errorf("stat package: %w", err)
	}
	if info.IsDir() {
		result.Fail(fmt.Sprintf("package-path %s is a directory", cfg.PackagePath))
		return nil
	}

	name := filepath.Base(cfg.PackagePath)
	target := filepath.Join(cfg.RepositoryDir, name)
	sum, err := copyFile(cfg.PackagePath, target, info.Mode())
	if err != nil {
		return err
	}

	pushURL := "file://" + filepath.ToSlash(target)
	if cfg.RepositoryURL != "" {
		pushURL = strings.TrimSuffix(cfg.RepositoryURL, "/") + "/" + name
	}

	ctx.Logger().Info("pushed package", "source", cfg.PackagePath, "target", target, "url", pushURL)

	if err := result.AddArtifact("push-url", results.String(pushURL), "Location of the pushed package"); err != nil {
		return err
	}
	if err := result.AddEvidence("push-url", results.String(pushURL), "Location of the pushed package"); err != nil {
		return err
	}
	return result.AddEvidence("sha256", results.String(sum), "SHA-256 digest of the pushed package")
}

// copyFile copies src to dst, creating parent directories, and returns the
// hex SHA-256 digest of the copied content.
func copyFile(src, dst string, mode os.FileMode) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}

	h := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(out, h), in)
	if closeErr := out.Close(); closeErr != nil && copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return "", fmt.Errorf("writing %s: %w", dst, copyErr)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
