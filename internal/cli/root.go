package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Paintersrp/spawny/internal/chain"
	"github.com/Paintersrp/spawny/internal/cliutil"
)

// Version is stamped at build time via -ldflags "-X ...cli.Version=...".
var Version = "dev"

const longHelp = `spawny runs chains of programs. Chains run in parallel; the programs of a
chain run one after another. As soon as any chain finishes its last program,
or any program fails, every program still running is sent SIGTERM.

The first argument is the separator. A lone separator starts a new parallel
chain; the separator written twice starts the next step of the current chain:

  spawny :: ./server --port 8080 :: sleep 2 :::: ./client --param

runs "./server --port 8080" next to a chain that sleeps two seconds and then
runs "./client --param". Children share spawny's stdin, stdout and stderr.

Chains can also be described in a YAML file passed with --file.`

// NewRootCmd returns the spawny command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	cfg := configFromEnv()
	ctx := &context{cfg: &cfg}

	root := &cobra.Command{
		Use:     "spawny [flags] <separator> <program> [args...] [<separator> ...]",
		Short:   "Run parallel chains of sequential programs",
		Long:    longHelp,
		Version: Version,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChains(cmd, ctx, args)
		},
	}
	root.Flags().SetInterspersed(false)

	flags := root.PersistentFlags()
	flags.StringVarP(&cfg.File, "file", "f", cfg.File, "Path to a chain file to run instead of positional chains")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Diagnostic format: auto, text or json")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "Suppress spawny diagnostics")
	flags.BoolVar(&cfg.ProcessGroup, "process-group", cfg.ProcessGroup, "Start each program in its own process group and signal the whole group")
	flags.StringVar(&cfg.Listen, "listen", cfg.Listen, "Serve run status and metrics over HTTP on this address")

	root.AddCommand(newPlanCmd(ctx))

	root.CompletionOptions.DisableDefaultCmd = true
	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	root.SetArgs(markSeparator(root, os.Args[1:]))
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "spawny: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// markSeparator inserts "--" in front of a separator that looks like a flag,
// such as -:-, so cobra hands it to the command as the first positional
// argument instead of rejecting it as an unknown shorthand.
func markSeparator(root *cobra.Command, args []string) []string {
	root.InitDefaultHelpFlag()
	root.InitDefaultVersionFlag()

	cmd := root
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return args
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			if sub := subcommand(cmd, arg); sub != nil {
				sub.InitDefaultHelpFlag()
				cmd = sub
				continue
			}
			return args
		}

		flag, inlineValue := lookupFlag(cmd, arg)
		if flag == nil {
			marked := make([]string, 0, len(args)+1)
			marked = append(marked, args[:i]...)
			marked = append(marked, "--")
			return append(marked, args[i:]...)
		}
		if !inlineValue && flag.NoOptDefVal == "" {
			i++
		}
	}
	return args
}

func subcommand(cmd *cobra.Command, name string) *cobra.Command {
	if cmd.HasParent() {
		return nil
	}
	for _, sub := range cmd.Commands() {
		if sub.Name() == name || sub.HasAlias(name) {
			return sub
		}
	}
	return nil
}

// lookupFlag resolves a flag token against cmd and the persistent flags of
// its parents. inlineValue reports whether the token already carries the
// value, as in --file=x or -fx.
func lookupFlag(cmd *cobra.Command, arg string) (*pflag.Flag, bool) {
	find := func(lookup func(*pflag.FlagSet) *pflag.Flag) *pflag.Flag {
		for c := cmd; c != nil; c = c.Parent() {
			if c == cmd {
				if f := lookup(c.Flags()); f != nil {
					return f
				}
			}
			if f := lookup(c.PersistentFlags()); f != nil {
				return f
			}
		}
		return nil
	}

	if name, ok := strings.CutPrefix(arg, "--"); ok {
		name, _, hasValue := strings.Cut(name, "=")
		return find(func(fs *pflag.FlagSet) *pflag.Flag { return fs.Lookup(name) }), hasValue
	}
	short := arg[1:2]
	return find(func(fs *pflag.FlagSet) *pflag.Flag { return fs.ShorthandLookup(short) }), len(arg) > 2
}

type context struct {
	cfg *runConfig
}

type runConfig struct {
	File         string
	LogFormat    string
	Quiet        bool
	ProcessGroup bool
	Listen       string
}

// loadChains resolves the chain set from --file or from positional tokens.
func (c *context) loadChains(args []string) (chain.Set, string, error) {
	if c.cfg.File != "" {
		if len(args) > 0 {
			return nil, "", errors.New("positional chains cannot be combined with --file")
		}
		doc, err := chain.Load(c.cfg.File)
		if err != nil {
			return nil, "", err
		}
		return doc.Chains, doc.Source, nil
	}
	if len(args) == 0 {
		return nil, "", errors.New("missing separator and chains; see spawny --help")
	}
	set, err := chain.Split(args[0], args[1:])
	if err != nil {
		return nil, "", err
	}
	return set, "arguments", nil
}

func (c *context) logFormat() (cliutil.LogFormat, error) {
	return cliutil.ParseLogFormat(c.cfg.LogFormat)
}

func configFromEnv() runConfig {
	cfg := runConfig{LogFormat: string(cliutil.LogFormatAuto)}
	if value := strings.TrimSpace(os.Getenv("SPAWNY_LOG_FORMAT")); value != "" {
		cfg.LogFormat = value
	}
	if value := os.Getenv("SPAWNY_QUIET"); value != "" {
		if quiet, err := strconv.ParseBool(value); err == nil {
			cfg.Quiet = quiet
		}
	}
	if value := os.Getenv("SPAWNY_PROCESS_GROUP"); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			cfg.ProcessGroup = enabled
		}
	}
	cfg.Listen = strings.TrimSpace(os.Getenv("SPAWNY_LISTEN"))
	return cfg
}
