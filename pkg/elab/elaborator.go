package elab

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/vito/unifier/pkg/types"
)

// Lookup resolves value names to every declaration sharing the name.
type Lookup interface {
	Lookup(name string) ([]types.Type, error)
}

// DefaultMaxPasses bounds how many times Resolve unifies a tree with its
// own type before giving up.
const DefaultMaxPasses = 3

// Elaborator turns raw expressions into typed expression trees.
//
// An Elaborator holds no per-resolution state, so one value may serve
// concurrent Resolve calls as long as its Lookup is safe for concurrent
// reads.
type Elaborator struct {
	Schema Lookup

	// PruneCandidates resolves each candidate of an ambiguous expression
	// separately and keeps the one that succeeds, instead of rejecting the
	// expression outright.
	PruneCandidates bool

	MaxPasses int

	Logger *slog.Logger
}

type Option func(*Elaborator)

func WithPruneCandidates(prune bool) Option {
	return func(e *Elaborator) {
		e.PruneCandidates = prune
	}
}

func WithMaxPasses(n int) Option {
	return func(e *Elaborator) {
		if n > 0 {
			e.MaxPasses = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Elaborator) {
		if logger != nil {
			e.Logger = logger
		}
	}
}

func New(schema Lookup, opts ...Option) *Elaborator {
	e := &Elaborator{
		Schema:    schema,
		MaxPasses: DefaultMaxPasses,
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Candidates enumerates every typed interpretation of expr. Only name
// references branch; call arguments must each have exactly one
// interpretation.
func (e *Elaborator) Candidates(expr Expr) ([]TypedExpr, error) {
	switch x := expr.(type) {
	case *Const:
		return []TypedExpr{NewConstantValue(x)}, nil

	case *Ref:
		decls, err := e.Schema.Lookup(x.Name)
		if err != nil {
			return nil, err
		}
		candidates := make([]TypedExpr, len(decls))
		for i, t := range decls {
			candidates[i] = NewNameReference(x, t)
		}
		return candidates, nil

	case *Access:
		receivers, err := e.Candidates(x.Receiver)
		if err != nil {
			return nil, err
		}
		candidates := make([]TypedExpr, len(receivers))
		for i, r := range receivers {
			candidates[i] = NewUnresolvedMemberAccess(x, r)
		}
		return candidates, nil

	case *Call:
		args := make([]TypedExpr, len(x.Args))
		for i, arg := range x.Args {
			single, err := e.SingleCandidate(arg)
			if err != nil {
				return nil, errors.Wrapf(err, "argument %d of %s", i+1, x)
			}
			args[i] = single
		}
		receivers, err := e.Candidates(x.Receiver)
		if err != nil {
			return nil, err
		}
		candidates := make([]TypedExpr, len(receivers))
		for i, r := range receivers {
			candidates[i] = NewUnresolvedCall(x, r, args)
		}
		return candidates, nil

	default:
		return nil, errors.Errorf("unhandled expression %T", expr)
	}
}

// SingleCandidate requires expr to have exactly one interpretation.
func (e *Elaborator) SingleCandidate(expr Expr) (TypedExpr, error) {
	candidates, err := e.Candidates(expr)
	if err != nil {
		return nil, err
	}
	switch len(candidates) {
	case 0:
		return nil, &NoCandidatesError{Expr: expr}
	case 1:
		return candidates[0], nil
	default:
		return nil, &AmbiguousError{Expr: expr, Count: len(candidates)}
	}
}

// Trace records one resolution: the raw expression, the typed tree before
// unification and the tree it settled into.
type Trace struct {
	Expr   Expr
	Before TypedExpr
	After  TypedExpr
	Passes int
}

// Type returns the resolved type of the expression.
func (t *Trace) Type() types.Type {
	return t.After.Type()
}

func (t *Trace) Render() string {
	w := &Writer{}
	w.Print("Processing expression:")
	w.Indent()
	w.Print(t.Expr.String())
	w.Undent()
	w.Print("Converted to typed expressions:")
	w.Node(t.Before)
	w.Print("Unified typed expressions:")
	w.Node(t.After)
	return w.String()
}

// Resolve elaborates expr and drives it to a fixed point by repeatedly
// unifying the tree with its own type.
func (e *Elaborator) Resolve(ctx context.Context, expr Expr) (*Trace, error) {
	logger := e.Logger.With("expr", expr.String())

	if !e.PruneCandidates {
		node, err := e.SingleCandidate(expr)
		if err != nil {
			return nil, err
		}
		return e.settle(ctx, logger, expr, node)
	}

	candidates, err := e.Candidates(expr)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "candidates", "count", len(candidates))

	switch len(candidates) {
	case 0:
		return nil, &NoCandidatesError{Expr: expr}
	case 1:
		return e.settle(ctx, logger, expr, candidates[0])
	}

	var found []*Trace
	var errs []error
	for i, candidate := range candidates {
		trace, err := e.settle(ctx, logger.With("candidate", i), expr, candidate)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.DebugContext(ctx, "pruned candidate", "candidate", i, "error", err)
			errs = append(errs, errors.Wrapf(err, "candidate %d", i+1))
			continue
		}
		found = append(found, trace)
	}

	switch len(found) {
	case 0:
		return nil, &NoViableError{Expr: expr, Errs: errs}
	case 1:
		return found[0], nil
	default:
		return nil, &AmbiguousError{Expr: expr, Count: len(found)}
	}
}

func (e *Elaborator) settle(ctx context.Context, logger *slog.Logger, expr Expr, node TypedExpr) (*Trace, error) {
	trace := &Trace{
		Expr:   expr,
		Before: node,
	}

	prev := node.Type().String()
	for pass := 1; pass <= e.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, err := node.Unify(node.Type(), types.Empty, types.Empty, types.Empty)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %s", expr)
		}

		cur := next.Type().String()
		logger.DebugContext(ctx, "unified", "pass", pass, "type", cur, "resolved", next.Resolved())

		node = next
		if next.Resolved() && cur == prev {
			trace.After = node
			trace.Passes = pass
			return trace, nil
		}
		prev = cur
	}

	return nil, &FixpointError{Expr: expr, Passes: e.MaxPasses}
}
