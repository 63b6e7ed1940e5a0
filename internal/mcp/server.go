package mcp

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentberlin/bluefin/internal/audit"
	"github.com/agentberlin/bluefin/internal/store"
)

const (
	ServerName    = "bluefin"
	ServerVersion = "1.0.0"
)

// MCPServer wraps the core BlueFin audit app and exposes it via MCP protocol
type MCPServer struct {
	server *mcp.Server
	app    *audit.App
	store  *store.Store
	ctx    context.Context
	logger *log.Logger
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(ctx context.Context) (*MCPServer, error) {
	logger := log.New(os.Stderr, "[BlueFin MCP] ", log.LstdFlags)

	// Initialize database store (uses default ~/.bluefin/bluefin.db)
	logger.Printf("Initializing database...")
	st, err := store.NewStore()
	if err != nil {
		return nil, err
	}

	// Create core app with NoOp emitter (MCP doesn't need event notifications yet)
	coreApp, err := audit.NewApp(st, &audit.NoOpEmitter{}, audit.DefaultOptions())
	if err != nil {
		return nil, err
	}
	coreApp.Startup(ctx)

	return NewMCPServerWithApp(ctx, coreApp, logger), nil
}

// NewMCPServerWithApp creates an MCP server around an existing app (used by
// the combined REST+MCP server and by tests)
func NewMCPServerWithApp(ctx context.Context, coreApp *audit.App, logger *log.Logger) *MCPServer {
	if logger == nil {
		logger = log.New(os.Stderr, "[BlueFin MCP] ", log.LstdFlags)
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)

	s := &MCPServer{
		server: mcpServer,
		app:    coreApp,
		store:  coreApp.Store(),
		ctx:    ctx,
		logger: logger,
	}
	s.registerTools()

	logger.Printf("MCP server initialized successfully")
	return s
}

// GetServer returns the internal MCP server instance
func (s *MCPServer) GetServer() *mcp.Server {
	return s.server
}

// RunHTTP starts the MCP server with HTTP transport using StreamableHTTPHandler
func (s *MCPServer) RunHTTP(addr string) (*http.Server, error) {
	s.logger.Printf("Starting MCP HTTP server on %s...", addr)

	handler := mcp.NewStreamableHTTPHandler(
		func(req *http.Request) *mcp.Server {
			return s.server
		},
		nil, // Use default StreamableHTTPOptions
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("HTTP server error: %v", err)
		}
	}()

	s.logger.Printf("MCP HTTP server started successfully on %s", addr)
	return httpServer, nil
}

// Close performs cleanup
func (s *MCPServer) Close() error {
	s.logger.Printf("Shutting down MCP server...")
	// Store doesn't have a Close method - GORM manages connections automatically
	return nil
}
