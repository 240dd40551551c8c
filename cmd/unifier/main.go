package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/iancoleman/strcase"
	"github.com/kr/pretty"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/vito/unifier/pkg/elab"
	"github.com/vito/unifier/pkg/ioctx"
	"github.com/vito/unifier/pkg/project"
	"github.com/vito/unifier/pkg/schema"
)

// Config holds the application configuration
type Config struct {
	Debug      bool
	ConfigPath string
	Schemas    []string
	NoPrelude  bool
	Prune      bool
	MaxPasses  int
}

var (
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	typeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// envPrefix prefixes the environment variable for every flag, e.g.
// UNIFIER_MAX_PASSES for --max-passes.
const envPrefix = "UNIFIER_"

func main() {
	ctx := context.Background()
	ctx = ioctx.StdoutToContext(ctx, os.Stdout)
	ctx = ioctx.StderrToContext(ctx, os.Stderr)
	if err := fang.Execute(ctx, newRootCmd(),
		fang.WithVersion("v0.1.0"),
		fang.WithCommit("dev"),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg Config

	rootCmd := &cobra.Command{
		Use:   "unifier [flags] EXPR...",
		Short: "Resolve the types of expressions",
		Long: `Unifier elaborates expressions against a schema of classes and generic
functions, choosing between overloads and inferring type arguments by
structural unification.`,
		Example: `  # Resolve an expression against the prelude
  unifier 'listOf(0).get(1)'

  # Load extra declarations
  unifier -s schema.toml 'pairOf(0, "a").swap(true)'

  # Print the declarations in scope
  unifier schema

  # Serve JSON-RPC on stdin/stdout
  unifier serve`,
		Args: cobra.MinimumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindEnv(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), cfg, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&cfg.Debug, "debug", "d", false, "Enable debug logging")
	flags.StringVar(&cfg.ConfigPath, "config", "", "Path to "+project.ConfigFile+" (searched for by default)")
	flags.StringArrayVarP(&cfg.Schemas, "schema", "s", nil, "Schema file to load (.toml, .yaml, .graphqls); repeatable")
	flags.BoolVar(&cfg.NoPrelude, "no-prelude", false, "Do not load the built-in declarations")
	flags.BoolVar(&cfg.Prune, "prune", false, "Resolve each candidate of an ambiguous name and keep the one that fits")
	flags.IntVar(&cfg.MaxPasses, "max-passes", 0, "Unification passes before giving up (default 3)")

	rootCmd.AddCommand(
		demoCmd(&cfg),
		schemaCmd(&cfg),
		serveCmd(&cfg),
	)

	return rootCmd
}

// bindEnv fills every flag not given on the command line from its
// environment variable.
func bindEnv(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}
		name := envPrefix + strcase.ToScreamingSnake(f.Name)
		val, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		if setErr := flags.Set(f.Name, val); setErr != nil {
			err = errors.Wrapf(setErr, "%s", name)
		}
	})
	return err
}

// session is everything a command needs to resolve expressions.
type session struct {
	registry *schema.Registry
	elab     *elab.Elaborator
	logger   *slog.Logger
}

func setup(ctx context.Context, cfg Config) (context.Context, *session, error) {
	proj, err := loadProject(cfg)
	if err != nil {
		return ctx, nil, err
	}

	level, err := proj.LogLevel()
	if err != nil {
		return ctx, nil, err
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := newLogger(ioctx.StderrFromContext(ctx), level)
	slog.SetDefault(logger)
	ctx = ioctx.LoggerToContext(ctx, logger)

	paths, err := proj.SchemaPaths()
	if err != nil {
		return ctx, nil, err
	}
	paths = append(paths, cfg.Schemas...)

	registry, err := project.BuildRegistry(proj.UsePrelude() && !cfg.NoPrelude, paths)
	if err != nil {
		return ctx, nil, err
	}
	logger.DebugContext(ctx, "loaded schema",
		"files", len(paths),
		"classes", len(registry.Classes()),
		"values", len(registry.Names()))

	opts := proj.ElabOptions()
	if cfg.Prune {
		opts = append(opts, elab.WithPruneCandidates(true))
	}
	opts = append(opts,
		elab.WithMaxPasses(cfg.MaxPasses),
		elab.WithLogger(logger))

	return ctx, &session{
		registry: registry,
		elab:     elab.New(registry, opts...),
		logger:   logger,
	}, nil
}

func loadProject(cfg Config) (*project.Config, error) {
	if cfg.ConfigPath != "" {
		return project.Load(cfg.ConfigPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	_, proj, err := project.Find(cwd)
	if err != nil {
		return nil, err
	}
	return proj, nil
}

// newLogger uses tint for terminals and plain text otherwise.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level: level,
		}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func runResolve(ctx context.Context, cfg Config, srcs []string) error {
	ctx, sess, err := setup(ctx, cfg)
	if err != nil {
		return err
	}

	exprs := make([]elab.Expr, len(srcs))
	for i, src := range srcs {
		expr, err := elab.Parse(src, sess.registry.Literals())
		if err != nil {
			return err
		}
		sess.logger.DebugContext(ctx, "parsed", "expr", pretty.Sprint(expr))
		exprs[i] = expr
	}

	traces := make([]*elab.Trace, len(exprs))
	eg, gctx := errgroup.WithContext(ctx)
	for i, expr := range exprs {
		eg.Go(func() error {
			trace, err := sess.elab.Resolve(gctx, expr)
			if err != nil {
				return err
			}
			traces[i] = trace
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	stdout := ioctx.StdoutFromContext(ctx)
	for _, trace := range traces {
		printTrace(stdout, trace)
	}
	return nil
}

func printTrace(w io.Writer, trace *elab.Trace) {
	fmt.Fprintln(w, headingStyle.Render(trace.Expr.String()), dimStyle.Render("::"), typeStyle.Render(trace.Type().String()))
	fmt.Fprint(w, trace.Render())
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("passes: %d", trace.Passes)))
}
