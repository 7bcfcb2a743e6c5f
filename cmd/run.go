// File: cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/driver"
	"github.com/xkilldash9x/pagekit/internal/driver/cdp"
	"github.com/xkilldash9x/pagekit/internal/flow"
	"github.com/xkilldash9x/pagekit/internal/observability"
	"github.com/xkilldash9x/pagekit/internal/page"
)

// sessionOpener starts a driver for one run. release tears down everything
// it started.
type sessionOpener func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (d driver.Driver, release func(context.Context) error, err error)

// Function variables swapped in tests.
var (
	openSession sessionOpener = launchSession
	// closeTimeout bounds browser shutdown after a run, including a cancelled one.
	closeTimeout = 15 * time.Second
)

type runOptions struct {
	url         string
	headless    bool
	strict      bool
	lenient     bool
	execPath    string
	wait        time.Duration
	findTimeout time.Duration
	output      string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run <flow.yaml>",
		Short: "Run a flow in a browser and print its JSON report",
		Long: `Run loads a YAML flow, launches Chromium, performs each step through the
page layer and prints a JSON report. The command fails when any step fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromContext(cmd.Context())
			if err != nil {
				return err
			}
			f, err := flow.Load(args[0])
			if err != nil {
				return err
			}
			if opts.url != "" {
				f.URL = opts.url
			}
			applyOverrides(cmd, cfg, opts)
			return runFlow(cmd.Context(), cmd.OutOrStdout(), cfg, f, opts)
		},
	}

	flags := runCmd.Flags()
	flags.StringVar(&opts.url, "url", "", "Open this URL before the first step, replacing the flow's url")
	flags.BoolVar(&opts.headless, "headless", true, "Run the browser without a window")
	flags.BoolVar(&opts.strict, "strict", false, "Propagate every element failure")
	flags.BoolVar(&opts.lenient, "lenient", false, "Suppress element lookup failures of suppressible actions")
	flags.StringVar(&opts.execPath, "browser", "", "Path to the Chromium executable")
	flags.DurationVar(&opts.wait, "wait", 0, "Explicit wait timeout for visibility and title waits")
	flags.DurationVar(&opts.findTimeout, "find-timeout", 10*time.Second, "How long targeted steps wait for their element")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the report to this file instead of stdout")
	runCmd.MarkFlagsMutuallyExclusive("strict", "lenient")

	return runCmd
}

// applyOverrides layers explicitly set flags over the loaded configuration.
func applyOverrides(cmd *cobra.Command, cfg config.Interface, opts *runOptions) {
	if cmd.Flags().Changed("headless") {
		cfg.SetBrowserHeadless(opts.headless)
	}
	if opts.execPath != "" {
		cfg.SetBrowserExecPath(opts.execPath)
	}
	switch {
	case opts.strict:
		cfg.SetPageErrorPolicy(config.ErrorPolicyStrict)
	case opts.lenient:
		cfg.SetPageErrorPolicy(config.ErrorPolicyLenient)
	}
	if opts.wait > 0 {
		cfg.SetPageExplicitWaitTimeout(opts.wait)
	}
}

// runFlow runs f against a fresh browser and writes the report, which is
// produced even when a step fails.
func runFlow(ctx context.Context, out io.Writer, cfg config.Interface, f *flow.Flow, opts *runOptions) error {
	logger := observability.GetLogger()

	d, release, err := openSession(ctx, cfg.Browser(), logger)
	if err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := release(closeCtx); cerr != nil {
			logger.Warn("Browser did not close cleanly.", zap.Error(cerr))
		}
	}()

	p := page.New(d, logger, cfg.Page())
	runner := flow.NewRunner(p, logger, flow.WithFindTimeout(opts.findTimeout))

	report, runErr := runner.Run(ctx, f)
	if report != nil {
		if werr := writeReport(out, opts.output, report); werr != nil {
			runErr = multierr.Append(runErr, werr)
		}
		if n := len(p.Suppressed()); n > 0 {
			logger.Info("Element failures were suppressed.", zap.Int("count", n))
		}
	}
	if runErr != nil {
		return fmt.Errorf("flow %q failed: %w", f.Name, runErr)
	}
	return nil
}

func writeReport(out io.Writer, path string, report *flow.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	observability.GetLogger().Info("Report written.", zap.String("path", path))
	return nil
}

// launchSession starts Chromium and opens one tab in it.
func launchSession(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (driver.Driver, func(context.Context) error, error) {
	b, err := cdp.Launch(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	s, err := b.NewSession(ctx)
	if err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		return nil, nil, multierr.Append(err, b.Close(closeCtx))
	}
	// Closing the browser closes its sessions.
	return s, b.Close, nil
}
