// Package resources synchronizes the model files and training datasets the
// GLM analysis engines load from their local resources directory.
//
// The package serves two primary use cases:
//
//  1. Programmatic API via the Syncer interface - Provisioning code can use
//     NewSyncer to resolve the resources directory, read the data.json and
//     models.json manifests stored there, and fetch whatever is missing.
//
//  2. Embeddable CLI via NewCommand - Parent CLI tools can attach a complete
//     "resources" subcommand tree to their Cobra root command, providing
//     commands like "mytool resources models", "mytool resources data crf
//     <name>", etc.
//
// # Resources Directory
//
// The directory is resolved through a ResourcePathProvider. The default
// chain honors DEEPSEARCH_GLM_RESOURCES_DIR first and falls back to the
// path reported by the analysis engine. Callers that link no engine can
// use DefaultDirLocator, which picks a platform-appropriate directory:
//   - Linux: $XDG_DATA_HOME/<app>/resources/ or ~/.local/share/<app>/resources/
//   - macOS: ~/Library/Application Support/<app>/resources/
//   - Windows: %APPDATA%\<app>\resources\
//
// # Manifests
//
// Both manifests are JSON objects (comments and trailing commas are
// tolerated) that map artifact names to [remote, local] path pairs. Remote
// paths are resolved against the manifest's object-store URL and section
// prefix; local paths are relative to the resources directory.
//
// # Failure Isolation
//
// A failing artifact never aborts a sync run. Its failure is recorded in
// the returned report and the remaining artifacts are still attempted.
// Only a manifest that cannot be loaded fails the whole call.
package resources
