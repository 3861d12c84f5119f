package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/loginflow/internal/action"
	"github.com/roach88/loginflow/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	FlowToken string // optional - restrict to one flow
	Kind      string // optional - filter to one action kind
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	FlowToken string          `json:"flow_token,omitempty"`
	Flows     []string        `json:"flows"`
	Timeline  []journal.Entry `json:"timeline"`
	Stats     TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalActions int            `json:"total_actions"`
	ByKind       map[string]int `json:"by_kind"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the action journal",
		Long: `Print the actions committed to a SQLite journal.

Without --flow every action is listed in commit order; with --flow only
that flow's actions are listed, by seq. Stats count the listed actions
by kind.

Examples:
  loginflow trace --db ./loginflow.db
  loginflow trace --db ./loginflow.db --flow 0192f1c2-...
  loginflow trace --db ./loginflow.db --kind login.failure --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.FlowToken, "flow", "", "flow token to trace")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one action kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Kind != "" {
		if _, err := action.ParseKind(opts.Kind); err != nil {
			return WrapExitError(ExitCommandError, "invalid --kind", err)
		}
	}

	// Opening creates missing files; a trace of nothing is a mistake.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	result, err := buildTrace(ctx, j, opts.FlowToken, opts.Kind)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	f := opts.formatter(cmd)
	if opts.Format == FormatJSON {
		return f.Success(result)
	}
	return outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
}

func buildTrace(ctx context.Context, j *journal.Journal, flow, kind string) (TraceResult, error) {
	var (
		entries []journal.Entry
		err     error
	)
	if flow != "" {
		entries, err = j.ReadFlow(ctx, flow)
	} else {
		entries, err = j.ReadAll(ctx)
	}
	if err != nil {
		return TraceResult{}, err
	}

	flows, err := j.Flows(ctx)
	if err != nil {
		return TraceResult{}, err
	}

	result := TraceResult{
		FlowToken: flow,
		Flows:     flows,
		Timeline:  []journal.Entry{},
		Stats:     TraceStats{ByKind: map[string]int{}},
	}
	for _, e := range entries {
		if kind != "" && string(e.Kind) != kind {
			continue
		}
		result.Timeline = append(result.Timeline, e)
		result.Stats.ByKind[string(e.Kind)]++
	}
	result.Stats.TotalActions = len(result.Timeline)

	if flow == "" && kind == "" {
		counts, err := j.CountByKind(ctx)
		if err != nil {
			return TraceResult{}, err
		}
		result.Stats.ByKind = make(map[string]int, len(counts))
		for k, n := range counts {
			result.Stats.ByKind[string(k)] = n
		}
	}
	return result, nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	if result.FlowToken != "" {
		fmt.Fprintf(w, "Trace for Flow: %s\n", result.FlowToken)
	} else {
		fmt.Fprintf(w, "Trace for %d flow(s)\n", len(result.Flows))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no actions)")
	}
	for _, e := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s %s", e.Seq, truncateID(e.FlowToken), e.Kind)
		if e.Payload != "{}" {
			fmt.Fprintf(w, " %s", e.Payload)
		}
		fmt.Fprintln(w)
		if verbose {
			fmt.Fprintf(w, "       ID: %s\n", truncateID(e.ID))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Actions: %d\n", result.Stats.TotalActions)
	kinds := make([]string, 0, len(result.Stats.ByKind))
	for k := range result.Stats.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-16s %d\n", k+":", result.Stats.ByKind[k])
	}

	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
