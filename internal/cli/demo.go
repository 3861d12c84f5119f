package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/roach88/loginflow/internal/effects"
	"github.com/roach88/loginflow/internal/engine"
	"github.com/roach88/loginflow/internal/render"
)

// Narration printed between demo steps.
const (
	stepLogin   = "~~~ Step 1: The user enters a username and password, and taps login."
	stepFriends = "~~~ Step 2: The app fetches the user's friends."
	pausePrompt = "Press Enter to continue..."
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Friends bool // fetch friends after a successful login
	Stats   bool // print store and effect metrics at the end
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through login and friends, printing the state after every change",
		Long: `Subscribe a renderer to the store, then log in and fetch friends.
After every committed action the whole state tree is printed between
STORE STATE markers and, on a terminal with render.pause set, the demo
waits for Enter.

Ctrl-C at a pause stops waiting for the rest of the run.

Examples:
  loginflow demo
  loginflow demo --pause=false --stats
  loginflow demo --friends=false --endpoint http://localhost:8080`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(opts, cmd)
		},
	}

	addRemoteFlags(cmd)
	cmd.Flags().Bool("pause", true, "wait for Enter after each state dump (render.pause)")
	cmd.Flags().BoolVar(&opts.Friends, "friends", true, "fetch friends after a successful login")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print metrics when done")

	return cmd
}

func runDemo(opts *DemoOptions, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	pauser, closePauser, err := opts.pauser()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open terminal", err)
	}
	defer closePauser()

	reg := prometheus.NewRegistry()
	if err := engine.RegisterMetrics(reg); err != nil {
		return WrapExitError(ExitCommandError, "failed to register metrics", err)
	}
	if err := effects.RegisterMetrics(reg); err != nil {
		return WrapExitError(ExitCommandError, "failed to register metrics", err)
	}

	s, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}

	renderer := render.New(out, pauser)
	unsubscribe := s.store.Subscribe(render.Listener(s.store.GetState, renderer, slog.Default()))

	cfg := opts.Config
	renderer.Step(stepLogin)
	runErr := s.run(ctx, effects.Login(s.requester, s.endpoints, cfg.Credentials.Username, cfg.Credentials.Password))

	if runErr == nil && opts.Friends && s.store.GetState().Auth.IsAuthenticated {
		renderer.Step(stepFriends)
		runErr = s.run(ctx, effects.FetchFriends(s.requester, s.endpoints))
	}

	unsubscribe()
	if err := s.close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return WrapExitError(ExitFailure, "demo failed", runErr)
	}

	if opts.Stats {
		if err := writeStats(out, reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
	}
	return nil
}

// pauser picks the operator pause: the override, readline when stdin is a
// terminal and pausing is on, or no pause.
func (o *DemoOptions) pauser() (render.Pauser, func(), error) {
	if o.Pauser != nil {
		return o.Pauser, func() {}, nil
	}
	if !o.Config.Render.Pause || !stdinIsTerminal() {
		return render.NoPause{}, func() {}, nil
	}

	p, err := render.NewReadlinePauser(pausePrompt)
	if err != nil {
		return nil, nil, err
	}
	return p, func() {
		if err := p.Close(); err != nil {
			slog.Debug("closing terminal", "error", err)
		}
	}, nil
}

func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// writeStats prints every counter and histogram sample in reg, sorted by
// family name.
func writeStats(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Stats ===")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "  %s%s %s\n", mf.GetName(), formatLabels(m.GetLabel()), formatSample(mf.GetType(), m))
		}
	}
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, len(labels))
	for i, l := range labels {
		pairs[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func formatSample(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%.6fs", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "?"
	}
}
