package resources

import (
	"context"
	"fmt"
)

// AnalysisEngine is the language-analysis engine. Only its configured
// resource path is used here.
type AnalysisEngine interface {
	ResourcesPath() (string, error)
}

// GraphConfig is the structured configuration handed to the graph engine.
type GraphConfig map[string]any

// GraphQuery is a structured query for the graph engine.
type GraphQuery map[string]any

// GraphResult is the graph engine's reply. Status is "success" when the
// query ran; the remaining fields are engine-defined.
type GraphResult struct {
	Status string         `json:"status"`
	Fields map[string]any `json:"-"`
}

// GraphEngine is the graph-query engine.
type GraphEngine interface {
	Load(ctx context.Context, cfg GraphConfig) error
	Query(ctx context.Context, q GraphQuery) (GraphResult, error)
}

// NewGraphLoadConfig builds the config that loads a graph from root.
func NewGraphLoadConfig(root string) GraphConfig {
	return GraphConfig{
		"IO": map[string]any{
			"load": map[string]any{
				"root": root,
			},
		},
	}
}

// LoadGraph loads the graph stored under the resources directory.
func LoadGraph(ctx context.Context, engine GraphEngine, locator ResourcePathProvider) error {
	root, err := locator.ResourcesDir(ctx)
	if err != nil {
		return fmt.Errorf("resolving resources directory: %w", err)
	}
	if err := engine.Load(ctx, NewGraphLoadConfig(root)); err != nil {
		return fmt.Errorf("loading graph from %s: %w", root, err)
	}
	return nil
}
