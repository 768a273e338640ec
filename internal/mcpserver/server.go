// ============================================================================
// meinRECHENWERK - Lokaler KI-Rechner
// ============================================================================
//
// Package:     mcpserver
// Description: Model Context Protocol tools over one calculator session
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package mcpserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/msto63/rechenwerk/internal/dispatch"
	"github.com/msto63/rechenwerk/internal/prompt"
	"github.com/msto63/rechenwerk/pkg/core/logging"
)

// Config holds MCP server configuration
type Config struct {
	Name    string
	Version string
}

// DefaultConfig returns default MCP server configuration
func DefaultConfig() Config {
	return Config{
		Name:    "rechenwerk",
		Version: "0.1.0",
	}
}

// OperandInput is the argument of tools that take a value
type OperandInput struct {
	Number any `json:"number,omitempty" jsonschema:"the operand, as a JSON number or a decimal string"`
}

// NoInput is the argument of tools without a value
type NoInput struct{}

// State is returned by every tool
type State struct {
	Total         string `json:"total"`
	UndoAvailable bool   `json:"undo_available"`
}

// Server exposes every calculator operation as an MCP tool. All tools share
// one session, so the total carries over between calls.
type Server struct {
	mcp     *mcp.Server
	session *dispatch.Session
	logger  *logging.Logger
}

// New creates an MCP server over session
func New(session *dispatch.Session, cfg Config) (*Server, error) {
	if session == nil {
		return nil, errors.New("mcpserver: session is required")
	}
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}

	s := &Server{
		mcp:     mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil),
		session: session,
		logger:  logging.New("mcpserver"),
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	for _, fn := range prompt.Functions() {
		op, err := dispatch.ParseOperation(fn.Name)
		if err != nil {
			continue
		}
		tool := &mcp.Tool{Name: fn.Name, Description: fn.Description}
		if op.NeedsOperand() {
			mcp.AddTool(s.mcp, tool, s.operandHandler(op))
		} else {
			mcp.AddTool(s.mcp, tool, s.plainHandler(op))
		}
	}
}

func (s *Server) operandHandler(op dispatch.Operation) mcp.ToolHandlerFor[OperandInput, State] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in OperandInput) (*mcp.CallToolResult, State, error) {
		return s.execute(ctx, dispatch.NewCall(op, in.Number))
	}
}

func (s *Server) plainHandler(op dispatch.Operation) mcp.ToolHandlerFor[NoInput, State] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NoInput) (*mcp.CallToolResult, State, error) {
		return s.execute(ctx, dispatch.NewCall(op, nil))
	}
}

// execute runs one call. A failed call becomes a tool error result; the
// session keeps its previous total.
func (s *Server) execute(ctx context.Context, call dispatch.Call) (*mcp.CallToolResult, State, error) {
	res := s.session.ExecuteCall(ctx, call)
	if res.Err != nil {
		s.logger.Warn("Tool call failed", "call", call.String(), "error", res.Err)
		return nil, State{}, res.Err
	}
	s.logger.Debug("Tool call", "call", call.String(), "total", res.Display)
	return nil, State{Total: res.Display, UndoAvailable: res.HasUndo}, nil
}

// Session returns the backing session
func (s *Server) Session() *dispatch.Session {
	return s.session
}

// Run serves MCP over stdin/stdout until ctx is done or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.RunTransport(ctx, &mcp.StdioTransport{})
}

// RunTransport serves MCP over t
func (s *Server) RunTransport(ctx context.Context, t mcp.Transport) error {
	s.logger.Info("Starting MCP server", "session", s.session.ID())
	if err := s.mcp.Run(ctx, t); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
