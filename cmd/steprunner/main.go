package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

var version = "dev"

const (
	_ = iota
	exitDotenvError
	exitLoggingSetupFailed
	exitInvalidSettings
	exitLoadConfigurationFailed
	exitToolErrors
	exitStepFailed
	exitArtifactNotFound
)

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitToolErrors
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("steprunner failed", "error", err)
		os.Exit(exitCode(err))
	}
}

// includeEnv loads .env from the current directory when present.
func includeEnv() (bool, error) {
	err := godotenv.Load()
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, withExitCode(exitDotenvError, fmt.Errorf("failed to load .env: %w", err))
}
