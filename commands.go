package resources

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// errIncomplete is returned by the sync commands when an artifact failed,
// after the report has been printed.
var errIncomplete = fmt.Errorf("%w: not every artifact is available", ErrTransfer)

// outputOptions are the flags shared by every subcommand.
type outputOptions struct {
	json        bool
	yaml        bool
	quiet       bool
	verbose     bool
	concurrency int
	timeout     time.Duration
}

func (o *outputOptions) register(fs *pflag.FlagSet) {
	fs.BoolVar(&o.json, "json", false, "Output in JSON format")
	fs.BoolVar(&o.yaml, "yaml", false, "Output in YAML format")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "Suppress non-essential output")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Narrate each artifact as it is processed")
	fs.IntVar(&o.concurrency, "concurrency", DefaultConcurrency, "Number of artifacts to download at once")
	fs.DurationVar(&o.timeout, "timeout", DefaultRequestTimeout, "Timeout for each artifact download (0 disables)")
}

// structured reports whether output should be machine-readable.
func (o *outputOptions) structured() bool {
	return o.json || o.yaml
}

func (o *outputOptions) syncOptions() []SyncOption {
	opts := []SyncOption{WithConcurrency(o.concurrency)}
	if o.verbose {
		opts = append(opts, WithVerbose())
	}
	return opts
}

// NewCommand creates a Cobra command tree for resource synchronization.
// The returned command should be added to a parent CLI's root command.
//
// Commands provided:
//   - resources dir
//   - resources data <kind> <name> [--force]
//   - resources models [--force]
//   - resources list data <kind>
//   - resources list models
//   - resources prune [--max-age] [--yes]
//
// Global flags: --json, --yaml, --quiet, --verbose, --concurrency, --timeout
func NewCommand(cfg Config, opts ...SyncerOption) *cobra.Command {
	out := &outputOptions{}

	// Syncer will be created in PersistentPreRunE
	var s Syncer

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Manage GLM model and training resources",
		Long:  "Download the pretrained models and training data declared in the resources directory's manifests.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip syncer creation for help commands
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			if out.json && out.yaml {
				return errors.New("--json and --yaml are mutually exclusive")
			}

			level := slog.LevelWarn
			if out.verbose {
				level = slog.LevelInfo
			}
			syncerOpts := []SyncerOption{
				WithLogger(NewLogger(cmd.ErrOrStderr(), level)),
				WithRequestTimeout(out.timeout),
			}
			syncerOpts = append(syncerOpts, opts...)

			var err error
			s, err = NewSyncer(cfg, syncerOpts...)
			if err != nil {
				return fmt.Errorf("failed to initialize syncer: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	out.register(cmd.PersistentFlags())

	cmd.AddCommand(dirCmd(&s))
	cmd.AddCommand(dataCmd(&s, out))
	cmd.AddCommand(modelsCmd(&s, out))
	cmd.AddCommand(listCmd(&s, out))
	cmd.AddCommand(pruneCmd(&s, out))

	return cmd
}

func dirCmd(s *Syncer) *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Print the resources directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := (*s).ResourcesDir(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func dataCmd(s *Syncer, out *outputOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "data <kind> <name>",
		Short: "Download a training data artifact",
		Long:  "Download the named artifact from the text, crf or fst group of data.json.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := ParseDataKind(args[0])
			if err != nil {
				return err
			}

			opts := out.syncOptions()
			if force {
				opts = append(opts, WithForce())
			}
			if !out.quiet && !out.structured() {
				opts = append(opts, WithProgress(newProgressPrinter(cmd.OutOrStdout())))
			}

			report, err := (*s).SyncDataset(cmd.Context(), kind, args[1], opts...)
			if err != nil {
				return err
			}

			if err := outputResults(cmd.OutOrStdout(), report, report.Results, out); err != nil {
				return err
			}
			if len(report.Results) == 0 && !out.quiet && !out.structured() {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s artifact named %q in data.json\n", kind, args[1])
			}
			if !report.Done {
				return errIncomplete
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Force re-download even if already present")
	return cmd
}

func modelsCmd(s *Syncer, out *outputOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "Download the pretrained models",
		Long:  "Download every pretrained model declared in models.json that is not already present.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := out.syncOptions()
			if force {
				opts = append(opts, WithForce())
			}
			if !out.quiet && !out.structured() {
				opts = append(opts, WithProgress(newProgressPrinter(cmd.OutOrStdout())))
			}

			report, err := (*s).SyncModels(cmd.Context(), opts...)
			if err != nil {
				return err
			}

			if err := outputResults(cmd.OutOrStdout(), report, report.Results, out); err != nil {
				return err
			}
			if len(report.Failed()) > 0 {
				return errIncomplete
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Force re-download even if already present")
	return cmd
}

func listCmd(s *Syncer, out *outputOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared artifacts",
		Long:  "List the artifacts declared in the manifests and whether each is present locally.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "data <kind>",
		Short: "List training data artifacts of one kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := ParseDataKind(args[0])
			if err != nil {
				return err
			}
			statuses, err := (*s).ListDatasets(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return outputStatuses(cmd.OutOrStdout(), statuses, out)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "models",
		Short: "List pretrained models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := (*s).ListModels(cmd.Context())
			if err != nil {
				return err
			}
			return outputStatuses(cmd.OutOrStdout(), statuses, out)
		},
	})

	return cmd
}

func pruneCmd(s *Syncer, out *outputOptions) *cobra.Command {
	var (
		yes    bool
		maxAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove abandoned partial downloads",
		Long:  "Remove .part files left in the resources directory by interrupted downloads.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Confirmation prompt
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Remove partial downloads older than %s? [y/N]: ", maxAge)
				if !confirmPrompt(cmd.InOrStdin()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			removed, err := (*s).PruneParts(cmd.Context(), maxAge)
			if err != nil {
				return err
			}

			if out.structured() {
				return encode(cmd.OutOrStdout(), removed, out)
			}
			if !out.quiet {
				for _, path := range removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d partial download(s) removed.\n", len(removed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	cmd.Flags().DurationVar(&maxAge, "max-age", PartMaxAge, "Only remove partial downloads older than this")
	return cmd
}

// confirmPrompt reads from stdin and returns true only if the user types 'y' or 'Y'.
// Returns false for empty input or any other response (default is no).
func confirmPrompt(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return response == "y" || response == "yes"
	}
	return false
}

// Output helpers

func encode(w io.Writer, v any, out *outputOptions) error {
	if out.yaml {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputResults(w io.Writer, report any, results []ArtifactResult, out *outputOptions) error {
	if out.structured() {
		return encode(w, report, out)
	}
	if out.quiet || len(results) == 0 {
		return nil
	}

	var data [][]string
	for _, r := range results {
		detail := r.TargetPath
		if r.Err != nil {
			detail = r.Err.Error()
		}
		size := "-"
		if r.Outcome == Downloaded {
			size = humanize.Bytes(uint64(r.Bytes))
		}
		data = append(data, []string{r.Name, r.Outcome.String(), size, detail})
	}

	renderTable(w, []string{"NAME", "OUTCOME", "SIZE", "DETAIL"}, data)
	return nil
}

func outputStatuses(w io.Writer, statuses []ArtifactStatus, out *outputOptions) error {
	if out.structured() {
		return encode(w, statuses, out)
	}

	if len(statuses) == 0 {
		fmt.Fprintln(w, "No artifacts declared")
		return nil
	}

	var data [][]string
	for _, st := range statuses {
		present, size := "no", "-"
		if st.Present {
			present, size = "yes", humanize.Bytes(uint64(st.Size))
		}
		data = append(data, []string{st.Name, present, size, st.TargetPath})
	}

	renderTable(w, []string{"NAME", "PRESENT", "SIZE", "PATH"}, data)
	return nil
}

func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

// newProgressPrinter renders a single updating line per download.
// Format: Downloading crf-model-en [1.2 MB / 4.5 MB]
func newProgressPrinter(w io.Writer) func(SyncProgress) {
	var mu sync.Mutex
	active := false

	return func(p SyncProgress) {
		mu.Lock()
		defer mu.Unlock()

		switch p.Phase {
		case "downloading":
			total := "?"
			if p.BytesTotal >= 0 {
				total = humanize.Bytes(uint64(p.BytesTotal))
			}
			fmt.Fprintf(w, "\r\x1b[KDownloading %s [%s / %s]", p.Name, humanize.Bytes(uint64(p.BytesDownloaded)), total)
			active = true
		case "done":
			if active {
				fmt.Fprint(w, "\r\x1b[K")
				active = false
			}
		}
	}
}
