package resources

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// Manifest filenames at the root of the resources directory.
const (
	DataManifestFile   = "data.json"
	ModelsManifestFile = "models.json"
)

// Manifest is the typed form of data.json or models.json.
// It is read fresh on every sync and never modified after loading.
type Manifest struct {
	// Path is the file the manifest was read from.
	Path string

	// ObjectStore is the base URL artifacts are resolved against.
	ObjectStore string

	// Data is the "data" section of data.json, nil when absent.
	Data *DataSection

	// NLP is the "nlp" section of models.json, nil when absent.
	NLP *NLPSection
}

// DataSection holds training data grouped by kind.
type DataSection struct {
	Prefix string
	Groups map[DataKind]ArtifactSet
}

// NLPSection holds the pretrained models.
type NLPSection struct {
	Prefix        string
	TrainedModels ArtifactSet
}

// ArtifactSet is a manifest artifact mapping in declaration order.
type ArtifactSet []NamedArtifact

// Lookup returns the artifact with the given name.
func (s ArtifactSet) Lookup(name string) (NamedArtifact, bool) {
	for _, a := range s {
		if a.Name == name {
			return a, true
		}
	}
	return NamedArtifact{}, false
}

// Names returns the artifact names in declaration order.
func (s ArtifactSet) Names() []string {
	names := make([]string, len(s))
	for i, a := range s {
		names[i] = a.Name
	}
	return names
}

// Group returns the artifacts declared under data.<kind>.
// A missing group is a ManifestLoadError, as is a missing data section.
func (m *Manifest) Group(kind DataKind) (ArtifactSet, error) {
	if m.Data == nil {
		return nil, m.fieldError("data", errMissingKey)
	}
	set, ok := m.Data.Groups[kind]
	if !ok {
		return nil, m.fieldError("data."+string(kind), errMissingKey)
	}
	return set, nil
}

var errMissingKey = errors.New("required key is missing")

func (m *Manifest) fieldError(field string, err error) *ManifestLoadError {
	return &ManifestLoadError{Path: m.Path, Field: field, Err: err}
}

// LoadManifest reads and validates the named manifest in resourcesDir.
// The object-store key is always required; the data and nlp sections are
// validated when present. Callers that need a particular section use
// LoadDataManifest or LoadModelsManifest.
func LoadManifest(resourcesDir, filename string) (*Manifest, error) {
	path := filepath.Join(resourcesDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestLoadError{Path: path, Err: err}
	}
	return ParseManifest(path, data)
}

// ParseManifest validates manifest content. Path is used in error messages.
// Line and block comments and trailing commas are accepted.
func ParseManifest(path string, data []byte) (*Manifest, error) {
	m := &Manifest{Path: path}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &top); err != nil {
		return nil, &ManifestLoadError{Path: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if top == nil {
		return nil, &ManifestLoadError{Path: path, Err: errors.New("expected a JSON object")}
	}

	objectStore, err := requireString(top, "object-store")
	if err != nil {
		return nil, m.fieldError("object-store", err)
	}
	if objectStore == "" {
		return nil, m.fieldError("object-store", errors.New("must not be empty"))
	}
	m.ObjectStore = objectStore

	if raw, ok := top["data"]; ok {
		section, err := m.parseDataSection(raw)
		if err != nil {
			return nil, err
		}
		m.Data = section
	}

	if raw, ok := top["nlp"]; ok {
		section, err := m.parseNLPSection(raw)
		if err != nil {
			return nil, err
		}
		m.NLP = section
	}

	return m, nil
}

// LoadDataManifest loads data.json and requires its data section.
func LoadDataManifest(resourcesDir string) (*Manifest, error) {
	m, err := LoadManifest(resourcesDir, DataManifestFile)
	if err != nil {
		return nil, err
	}
	if m.Data == nil {
		return nil, m.fieldError("data", errMissingKey)
	}
	return m, nil
}

// LoadModelsManifest loads models.json and requires its nlp section.
func LoadModelsManifest(resourcesDir string) (*Manifest, error) {
	m, err := LoadManifest(resourcesDir, ModelsManifestFile)
	if err != nil {
		return nil, err
	}
	if m.NLP == nil {
		return nil, m.fieldError("nlp", errMissingKey)
	}
	return m, nil
}

func (m *Manifest) parseDataSection(raw json.RawMessage) (*DataSection, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, m.fieldError("data", errors.New("expected an object"))
	}

	prefix, err := requireString(obj, "prefix")
	if err != nil {
		return nil, m.fieldError("data.prefix", err)
	}

	section := &DataSection{Prefix: prefix, Groups: make(map[DataKind]ArtifactSet)}
	for _, kind := range DataKinds {
		groupRaw, ok := obj[string(kind)]
		if !ok {
			continue
		}
		set, err := m.parseArtifactSet(groupRaw, "data."+string(kind))
		if err != nil {
			return nil, err
		}
		section.Groups[kind] = set
	}
	return section, nil
}

func (m *Manifest) parseNLPSection(raw json.RawMessage) (*NLPSection, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, m.fieldError("nlp", errors.New("expected an object"))
	}

	prefix, err := requireString(obj, "prefix")
	if err != nil {
		return nil, m.fieldError("nlp.prefix", err)
	}

	modelsRaw, ok := obj["trained-models"]
	if !ok {
		return nil, m.fieldError("nlp.trained-models", errMissingKey)
	}
	set, err := m.parseArtifactSet(modelsRaw, "nlp.trained-models")
	if err != nil {
		return nil, err
	}
	return &NLPSection{Prefix: prefix, TrainedModels: set}, nil
}

// parseArtifactSet decodes {"name": [remote, local], ...} keeping key order.
func (m *Manifest) parseArtifactSet(raw json.RawMessage, field string) (ArtifactSet, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, m.fieldError(field, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, m.fieldError(field, errors.New("expected an object"))
	}

	set := ArtifactSet{}
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, m.fieldError(field, err)
		}
		name, _ := tok.(string)
		entryField := field + "." + name

		var pair []string
		if err := dec.Decode(&pair); err != nil || len(pair) != 2 {
			return nil, m.fieldError(entryField, errors.New("expected [remote, local] pair"))
		}
		if pair[0] == "" || pair[1] == "" {
			return nil, m.fieldError(entryField, errors.New("remote and local paths must not be empty"))
		}
		if seen[name] {
			return nil, m.fieldError(entryField, errors.New("duplicate artifact name"))
		}
		seen[name] = true

		set = append(set, NamedArtifact{
			Name: name,
			Spec: ArtifactSpec{Remote: pair[0], Local: pair[1]},
		})
	}
	return set, nil
}

func requireString(obj map[string]json.RawMessage, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", errMissingKey
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New("expected a string")
	}
	return s, nil
}
