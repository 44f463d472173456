// Command glm-resources downloads the pretrained models and training data
// used by the GLM analysis engines.
//
// Configuration is loaded from environment variables:
//   - DEEPSEARCH_GLM_RESOURCES_DIR: Resources directory holding data.json and
//     models.json (optional, defaults to the platform data directory)
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	resources "github.com/deepsearch-glm/resources"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid command line arguments.
	ExitInvalidArgs = 2

	// ExitManifestError indicates a manifest could not be loaded.
	ExitManifestError = 3

	// ExitIncomplete indicates at least one artifact could not be fetched.
	ExitIncomplete = 4

	// ExitNetworkError indicates a network or connection failure.
	ExitNetworkError = 5

	// ExitStorageError indicates a filesystem operation failed.
	ExitStorageError = 7
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := resources.Config{
		AppName: "glm",
		// ResourcesDir can be set via DEEPSEARCH_GLM_RESOURCES_DIR (handled by the locator)
	}

	cmd := resources.NewCommand(cfg)
	cmd.Use = "glm-resources"
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(exitCodeFromError(err))
	}
}

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, resources.ErrManifestLoad):
		return ExitManifestError
	case errors.Is(err, resources.ErrTransfer):
		return ExitIncomplete
	case errors.Is(err, resources.ErrNetworkError):
		return ExitNetworkError
	case errors.Is(err, resources.ErrStorageError):
		return ExitStorageError
	case errors.Is(err, resources.ErrInvalidDataKind), errors.Is(err, resources.ErrNoResourcesDir):
		return ExitInvalidArgs
	default:
		return ExitGeneralError
	}
}
