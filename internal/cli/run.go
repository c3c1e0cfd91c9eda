package cli

import (
	stdcontext "context"
	"fmt"

	"github.com/spf13/cobra"

	apihttp "github.com/Paintersrp/spawny/internal/api/http"
	"github.com/Paintersrp/spawny/internal/chain"
	"github.com/Paintersrp/spawny/internal/cliutil"
	"github.com/Paintersrp/spawny/internal/engine"
	"github.com/Paintersrp/spawny/internal/runtime"
	"github.com/Paintersrp/spawny/internal/runtime/process"
)

const eventBuffer = 64

var newLauncher = func(cfg *runConfig) runtime.Launcher {
	return process.New(process.WithProcessGroup(cfg.ProcessGroup))
}

func runChains(cmd *cobra.Command, ctx *context, args []string) error {
	set, _, err := ctx.loadChains(args)
	if err != nil {
		return err
	}
	format, err := ctx.logFormat()
	if err != nil {
		return err
	}

	orch := engine.NewOrchestrator(newLauncher(ctx.cfg))
	tracker := newStatusTracker(set)

	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = stdcontext.Background()
	}

	if ctx.cfg.Listen != "" {
		stopServer, err := startStatusServer(cmd, ctx.cfg.Listen, &statusController{orch: orch, tracker: tracker})
		if err != nil {
			return err
		}
		defer func() {
			if err := stopServer(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "spawny: warn: status server: %v\n", err)
			}
		}()
	}

	var printer *cliutil.EventPrinter
	if !ctx.cfg.Quiet {
		printer = cliutil.NewEventPrinter(cmd.ErrOrStderr(), format)
	}

	events := make(chan engine.Event, eventBuffer)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for evt := range events {
			tracker.Apply(evt)
			if printer != nil {
				printer.Print(evt)
			}
		}
	}()

	err = orch.Run(runCtx, set, events)
	close(events)
	<-drained
	return err
}

// startStatusServer binds the listen address before any chain starts and
// returns a function that shuts the server down.
func startStatusServer(cmd *cobra.Command, addr string, ctrl *statusController) (func() error, error) {
	server, err := apihttp.Listen(addr, ctrl)
	if err != nil {
		return nil, err
	}

	serverCtx, cancel := stdcontext.WithCancel(stdcontext.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(serverCtx)
	}()
	fmt.Fprintf(cmd.ErrOrStderr(), "spawny: status server listening on %s\n", server.Addr())

	return func() error {
		cancel()
		return <-errCh
	}, nil
}

func newPlanCmd(ctx *context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [flags] [<separator> <program> [args...] ...]",
		Short: "Print the chains that would run without starting them",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, source, err := ctx.loadChains(args)
			if err != nil {
				return err
			}
			printPlan(cmd, set, source)
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func printPlan(cmd *cobra.Command, set chain.Set, source string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d chain(s) loaded from %s\n", len(set), source)
	for i, c := range set {
		fmt.Fprintf(out, "%s:\n", c.Label(i))
		for j, step := range c.Steps {
			fmt.Fprintf(out, "  %d. %s\n", j+1, cliutil.RedactSecrets(step.String()))
		}
	}
}
