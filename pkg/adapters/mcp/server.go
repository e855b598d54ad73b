// Package mcp exposes the non-control commands of a shell as Model Context
// Protocol tools.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/aretw0/conshell/pkg/tokenizer"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CommandsURI is the resource listing every exposed command.
const CommandsURI = "conshell://commands"

var unsafeToolChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ToolName maps a command name to a valid MCP tool name.
func ToolName(name string) string {
	return "cmd_" + unsafeToolChars.ReplaceAllString(name, "_")
}

// CommandInfo is one entry of the commands resource.
type CommandInfo struct {
	Tool        string `json:"tool"`
	Token       string `json:"token"`
	Args        string `json:"args,omitempty"`
	Description string `json:"description"`
	Arity       int    `json:"arity"`
}

// Server wraps a dispatcher and exposes it as an MCP Server.
type Server struct {
	dispatcher registry.Dispatcher
	mcpServer  *server.MCPServer
	tools      map[string]string
	catalog    []CommandInfo
}

// NewServer creates a new MCP Server instance.
func NewServer(d registry.Dispatcher, name, version string) *Server {
	s := &Server{
		dispatcher: d,
		mcpServer:  server.NewMCPServer(name, strings.TrimSpace(version)),
		tools:      make(map[string]string),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Tools returns the registered tool names mapped to their command tokens.
func (s *Server) Tools() map[string]string {
	out := make(map[string]string, len(s.tools))
	for k, v := range s.tools {
		out[k] = v
	}
	return out
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	reg := s.dispatcher.Registry()
	for _, d := range reg.Descriptors() {
		if d.Control {
			continue
		}
		name := ToolName(d.Name)
		token := reg.Token(d)

		opts := []mcp.ToolOption{mcp.WithDescription(reg.Usage(d))}
		if d.Arity > 0 {
			opts = append(opts, mcp.WithString("args",
				mcp.Description(fmt.Sprintf("Space separated arguments %s; further commands may follow", d.Args))))
		} else {
			opts = append(opts, mcp.WithString("args",
				mcp.Description("Optional further commands to run on the same line")))
		}

		s.mcpServer.AddTool(mcp.NewTool(name, opts...), s.handleCommand(token))
		s.tools[name] = token
		s.catalog = append(s.catalog, CommandInfo{
			Tool:        name,
			Token:       token,
			Args:        d.Args,
			Description: d.Description,
			Arity:       d.Arity,
		})
	}
	sort.Slice(s.catalog, func(i, j int) bool { return s.catalog[i].Tool < s.catalog[j].Tool })
}

func (s *Server) handleCommand(token string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.run(ctx, token, request.GetString("args", "")), nil
	}
}

func (s *Server) run(ctx context.Context, token, args string) *mcp.CallToolResult {
	tokens := append([]string{token}, tokenizer.Tokenize(args)...)

	reg := s.dispatcher.Registry()
	for _, t := range tokens[1:] {
		if e, ok := reg.Lookup(t); ok && e.Descriptor.Control {
			return mcp.NewToolResultError(fmt.Sprintf("%s is not available to tools", t))
		}
	}

	var buf bytes.Buffer
	err := s.dispatcher.Dispatch(ctx, tokens, domain.Origin{Kind: domain.OriginMCP}, &buf)
	if err != nil {
		slog.Warn("MCP command rejected", "token", token, "error", err)
		if buf.Len() == 0 {
			return mcp.NewToolResultError(err.Error())
		}
		return mcp.NewToolResultError(buf.String())
	}
	return mcp.NewToolResultText(buf.String())
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CommandsURI, "Available Commands",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to encode commands: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CommandsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
