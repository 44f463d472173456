package resources

import (
	"errors"
	"fmt"
)

// Sentinel errors for resource synchronization.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrManifestLoad indicates a manifest is missing, unreadable, malformed,
	// or lacks a required key.
	ErrManifestLoad = errors.New("resources: manifest load failed")

	// ErrTransfer indicates a single artifact could not be fetched.
	ErrTransfer = errors.New("resources: transfer failed")

	// ErrInconsistentState indicates an artifact ended up neither present
	// nor failed, which means the directory changed underneath the sync.
	ErrInconsistentState = errors.New("resources: inconsistent artifact state")

	// ErrNoResourcesDir indicates a locator could not supply a directory.
	ErrNoResourcesDir = errors.New("resources: resources directory not configured")

	// ErrInvalidDataKind indicates a data kind other than text, crf or fst.
	ErrInvalidDataKind = errors.New("resources: invalid data kind")

	// ErrNetworkError indicates a network or connection failure.
	ErrNetworkError = errors.New("resources: network error")

	// ErrStorageError indicates a filesystem operation failed.
	ErrStorageError = errors.New("resources: storage error")
)

// ManifestLoadError describes why a manifest could not be used.
// It matches ErrManifestLoad under errors.Is.
type ManifestLoadError struct {
	// Path is the manifest file path.
	Path string

	// Field is the dotted key that failed validation, e.g. "nlp.prefix".
	// Empty when the file itself could not be read or parsed.
	Field string

	// Err is the underlying cause.
	Err error
}

func (e *ManifestLoadError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("resources: manifest %s: %s: %v", e.Path, e.Field, e.Err)
	}
	return fmt.Sprintf("resources: manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestLoadError) Unwrap() error { return e.Err }

func (e *ManifestLoadError) Is(target error) bool { return target == ErrManifestLoad }

// TransferError records the failure of one artifact fetch.
// It matches ErrTransfer under errors.Is, and also ErrNetworkError or
// ErrStorageError depending on where the fetch broke.
type TransferError struct {
	// Name is the artifact name.
	Name string

	// URL is the source URL that was requested.
	URL string

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (e *TransferError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("resources: fetching %s from %s: status %d: %v", e.Name, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("resources: fetching %s from %s: %v", e.Name, e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

func (e *TransferError) Is(target error) bool { return target == ErrTransfer }
