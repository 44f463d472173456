package resources

// ArtifactResult is the outcome of one artifact in a sync run.
type ArtifactResult struct {
	// Name is the manifest key.
	Name string `json:"name" yaml:"name"`

	// Kind is the data kind for dataset artifacts, empty for models.
	Kind DataKind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// SourceURL is the resolved remote URL.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// TargetPath is the absolute local path.
	TargetPath string `json:"target_path" yaml:"target_path"`

	// Outcome classifies the result.
	Outcome Outcome `json:"outcome" yaml:"outcome"`

	// Bytes is the size written when Outcome is Downloaded.
	Bytes int64 `json:"bytes,omitempty" yaml:"bytes,omitempty"`

	// SHA256 is the hex digest of the written content when Outcome is Downloaded.
	SHA256 string `json:"sha256,omitempty" yaml:"sha256,omitempty"`

	// Err is the cause for Failed and MissingSource outcomes.
	Err error `json:"-" yaml:"-"`

	// Error mirrors Err for serialized reports.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// DatasetReport is the result of syncing one named dataset artifact.
type DatasetReport struct {
	// Done is false if and only if an attempted download failed.
	Done bool `json:"done" yaml:"done"`

	// Fetched maps the artifact name to its local path when it is available.
	// Empty when the name is not declared in the requested group.
	Fetched map[string]string `json:"fetched" yaml:"fetched"`

	// Results holds the per-artifact detail.
	Results []ArtifactResult `json:"results" yaml:"results"`
}

// ModelsReport is the result of syncing every pretrained model.
type ModelsReport struct {
	// Downloaded lists the models that are available after the run, in
	// manifest order, whether fetched now or already present.
	Downloaded []string `json:"downloaded" yaml:"downloaded"`

	// Results holds the per-artifact detail in manifest order.
	Results []ArtifactResult `json:"results" yaml:"results"`
}

// Failed returns the results whose outcome is Failed or MissingSource.
func (r ModelsReport) Failed() []ArtifactResult {
	return failedResults(r.Results)
}

// Failed returns the results whose outcome is Failed or MissingSource.
func (r DatasetReport) Failed() []ArtifactResult {
	return failedResults(r.Results)
}

func failedResults(results []ArtifactResult) []ArtifactResult {
	var out []ArtifactResult
	for _, res := range results {
		if !res.Outcome.Available() {
			out = append(out, res)
		}
	}
	return out
}

// aggregateDataset folds results into a DatasetReport.
// A Failed artifact flips Done; a MissingSource one is reported but, having
// been present when the run began, does not.
func aggregateDataset(results []ArtifactResult) DatasetReport {
	report := DatasetReport{
		Done:    true,
		Fetched: make(map[string]string),
		Results: results,
	}
	for _, res := range results {
		switch {
		case res.Outcome.Available():
			report.Fetched[res.Name] = res.TargetPath
		case res.Outcome == Failed:
			report.Done = false
		}
	}
	return report
}

// aggregateModels folds results into a ModelsReport, keeping manifest order.
func aggregateModels(results []ArtifactResult) ModelsReport {
	report := ModelsReport{
		Downloaded: []string{},
		Results:    results,
	}
	for _, res := range results {
		if res.Outcome.Available() {
			report.Downloaded = append(report.Downloaded, res.Name)
		}
	}
	return report
}
