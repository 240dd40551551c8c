// Package rpc serves resolution over JSON-RPC 2.0, one message per line.
package rpc

import (
	"context"
	"io"
	"log/slog"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"

	"github.com/vito/unifier/pkg/elab"
	"github.com/vito/unifier/pkg/ioctx"
	"github.com/vito/unifier/pkg/schema"
)

// ResolveFailed is the error code for expressions that parse but do not
// resolve.
const ResolveFailed jrpc2.Code = -32001

type ResolveParams struct {
	Expr  string `json:"expr"`
	Trace bool   `json:"trace,omitempty"`
}

type ResolveResult struct {
	Type     string `json:"type"`
	Resolved bool   `json:"resolved"`
	Passes   int    `json:"passes"`
	Trace    string `json:"trace,omitempty"`
}

type ClassInfo struct {
	Name    string       `json:"name"`
	Params  []string     `json:"params,omitempty"`
	Members []MemberInfo `json:"members,omitempty"`
}

type MemberInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type ValueInfo struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

type SchemaResult struct {
	Classes []ClassInfo `json:"classes"`
	Values  []ValueInfo `json:"values"`
}

type Service struct {
	registry *schema.Registry
	elab     *elab.Elaborator
}

func NewService(registry *schema.Registry, e *elab.Elaborator) *Service {
	return &Service{
		registry: registry,
		elab:     e,
	}
}

// Methods returns the method table: Resolve and Schema.
func (s *Service) Methods() handler.Map {
	return handler.Map{
		"Resolve": handler.New(s.Resolve),
		"Schema":  handler.New(s.Schema),
	}
}

func (s *Service) Resolve(ctx context.Context, params ResolveParams) (*ResolveResult, error) {
	if params.Expr == "" {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "missing expr")
	}

	expr, err := elab.Parse(params.Expr, s.registry.Literals())
	if err != nil {
		return nil, jrpc2.Errorf(jrpc2.InvalidParams, "%v", err)
	}

	trace, err := s.elab.Resolve(ctx, expr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, jrpc2.Errorf(ResolveFailed, "%v", err)
	}

	res := &ResolveResult{
		Type:     trace.Type().String(),
		Resolved: trace.After.Resolved(),
		Passes:   trace.Passes,
	}
	if params.Trace {
		res.Trace = trace.Render()
	}
	return res, nil
}

func (s *Service) Schema(ctx context.Context) (*SchemaResult, error) {
	res := &SchemaResult{}
	for _, class := range s.registry.Classes() {
		info := ClassInfo{Name: class.Name()}
		for _, tv := range class.TypeParams() {
			info.Params = append(info.Params, tv.Name())
		}
		for _, m := range class.Members() {
			info.Members = append(info.Members, MemberInfo{
				Name: m.Name,
				Type: m.Type.String(),
			})
		}
		res.Classes = append(res.Classes, info)
	}
	for _, name := range s.registry.Names() {
		decls, err := s.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		info := ValueInfo{Name: name}
		for _, t := range decls {
			info.Types = append(info.Types, t.String())
		}
		res.Values = append(res.Values, info)
	}
	return res, nil
}

// Serve handles requests read from r until it is closed or ctx is done.
func (s *Service) Serve(ctx context.Context, r io.Reader, w io.WriteCloser) error {
	logger := ioctx.LoggerFromContext(ctx)

	srv := jrpc2.NewServer(s.Methods(), &jrpc2.ServerOptions{
		Logger: func(text string) { logger.Debug(text) },
	})
	srv.Start(channel.Line(r, w))

	logger.InfoContext(ctx, "serving", "classes", len(s.registry.Classes()))

	stop := context.AfterFunc(ctx, srv.Stop)
	defer stop()

	err := srv.Wait()
	logger.InfoContext(ctx, "server closed", slog.Any("error", err))
	if ctx.Err() != nil {
		return nil
	}
	return err
}
