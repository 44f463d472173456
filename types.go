package resources

import (
	"fmt"
	"strings"
)

// Config configures the resources module.
type Config struct {
	// AppName determines the default storage directory name.
	// Example: "glm" → ~/.local/share/glm/resources/ on Linux
	AppName string

	// ResourcesDir pins the resources directory.
	// If empty, the Syncer's ResourcePathProvider decides.
	// DEEPSEARCH_GLM_RESOURCES_DIR still takes priority when set.
	ResourcesDir string
}

// DataKind names a group of training data in data.json.
type DataKind string

// Data kinds declared by data.json.
const (
	DataKindText DataKind = "text"
	DataKindCRF  DataKind = "crf"
	DataKindFST  DataKind = "fst"
)

// DataKinds lists the valid data kinds in manifest order.
var DataKinds = []DataKind{DataKindText, DataKindCRF, DataKindFST}

// ParseDataKind validates s as a DataKind.
// Returns ErrInvalidDataKind for anything but text, crf or fst.
func ParseDataKind(s string) (DataKind, error) {
	k := DataKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case DataKindText, DataKindCRF, DataKindFST:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q (want text, crf or fst)", ErrInvalidDataKind, s)
}

// ArtifactSpec maps one remote object to a local file.
type ArtifactSpec struct {
	// Remote is relative to the object store URL and section prefix.
	Remote string `json:"remote" yaml:"remote"`

	// Local is relative to the resources directory.
	Local string `json:"local" yaml:"local"`
}

// NamedArtifact is an ArtifactSpec with its manifest key.
type NamedArtifact struct {
	Name string
	Spec ArtifactSpec
}

// Outcome classifies what happened to one artifact during a sync.
type Outcome int

const (
	// AlreadyPresent means the local file existed and force was not requested.
	AlreadyPresent Outcome = iota + 1

	// Downloaded means the local file was written during this run.
	Downloaded

	// Failed means the fetch failed; see ArtifactResult.Err.
	Failed

	// MissingSource means the artifact was believed present but its file
	// is gone, so the directory was modified during the run.
	MissingSource
)

var outcomeNames = map[Outcome]string{
	AlreadyPresent: "already-present",
	Downloaded:     "downloaded",
	Failed:         "failed",
	MissingSource:  "missing-source",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Available reports whether the artifact's file is usable after the sync.
func (o Outcome) Available() bool {
	return o == AlreadyPresent || o == Downloaded
}

// MarshalText renders the outcome as its lowercase name for JSON and YAML.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (o *Outcome) UnmarshalText(text []byte) error {
	for k, v := range outcomeNames {
		if v == string(text) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("resources: unknown outcome %q", text)
}

// ArtifactStatus describes a declared artifact and whether it is on disk.
// Listing artifacts never touches the network.
type ArtifactStatus struct {
	// Name is the manifest key.
	Name string `json:"name" yaml:"name"`

	// SourceURL is the resolved remote URL.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// TargetPath is the absolute local path.
	TargetPath string `json:"target_path" yaml:"target_path"`

	// Present is true when TargetPath exists.
	Present bool `json:"present" yaml:"present"`

	// Size is the local file size, or 0 when absent.
	Size int64 `json:"size" yaml:"size"`
}

// SyncProgress reports the state of one artifact during a sync.
type SyncProgress struct {
	// Name is the artifact being processed.
	Name string

	// Phase is "checking", "downloading", or "done".
	Phase string

	// BytesDownloaded is the bytes written so far for this artifact.
	BytesDownloaded int64

	// BytesTotal is the Content-Length, or -1 when unknown.
	BytesTotal int64

	// Outcome is set once Phase is "done".
	Outcome Outcome
}
