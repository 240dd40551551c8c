package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vito/unifier/pkg/elab"
	"github.com/vito/unifier/pkg/ioctx"
	"github.com/vito/unifier/pkg/rpc"
	"github.com/vito/unifier/pkg/schema"
)

// demoExpr is resolved by the demo command.
const demoExpr = "listOf(0).get(1)"

func demoCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Resolve " + demoExpr + " against the prelude",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), *cfg)
		},
	}
}

func runDemo(ctx context.Context, cfg Config) error {
	b := schema.NewBuilder()
	schema.Prelude(b)
	registry, err := b.Freeze()
	if err != nil {
		return err
	}

	expr, err := elab.Parse(demoExpr, registry.Literals())
	if err != nil {
		return err
	}

	opts := []elab.Option{elab.WithMaxPasses(cfg.MaxPasses)}
	if cfg.Debug {
		opts = append(opts, elab.WithLogger(newLogger(ioctx.StderrFromContext(ctx), slog.LevelDebug)))
	}
	trace, err := elab.New(registry, opts...).Resolve(ctx, expr)
	if err != nil {
		return err
	}

	printTrace(ioctx.StdoutFromContext(ctx), trace)
	return nil
}

func schemaCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "List the declarations in scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd.Context(), *cfg)
		},
	}
}

func runSchema(ctx context.Context, cfg Config) error {
	ctx, sess, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	w := ioctx.StdoutFromContext(ctx)

	fmt.Fprintln(w, headingStyle.Render("Classes"))
	for _, class := range sess.registry.Classes() {
		fmt.Fprintln(w, "  "+typeStyle.Render(class.String()))
		for _, m := range class.Members() {
			fmt.Fprintf(w, "    %s %s %s\n", m.Name, dimStyle.Render("::"), m.Type)
		}
	}

	fmt.Fprintln(w, headingStyle.Render("Values"))
	for _, name := range sess.registry.Names() {
		decls, err := sess.registry.Lookup(name)
		if err != nil {
			return err
		}
		for _, t := range decls {
			fmt.Fprintf(w, "  %s %s %s\n", name, dimStyle.Render("::"), typeStyle.Render(t.String()))
		}
	}
	return nil
}

func serveCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve JSON-RPC 2.0 on stdin/stdout, one message per line",
		Long: `Serve resolution requests over JSON-RPC 2.0 on stdin/stdout.

Methods:
  Resolve {"expr": "...", "trace": false} -> {"type", "resolved", "passes", "trace"}
  Schema  {}                              -> {"classes", "values"}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, sess, err := setup(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			return rpc.NewService(sess.registry, sess.elab).Serve(ctx, os.Stdin, os.Stdout)
		},
	}
}
