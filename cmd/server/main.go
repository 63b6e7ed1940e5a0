// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// BlueFin HTTP Server
//
// This is the production HTTP server for BlueFin, providing a REST API for
// running SEO audits and reading their reports. An MCP endpoint can be
// enabled on a second port for agent integrations.
//
// Usage:
//
//	bluefin-server [flags]
//
// Flags:
//
//	-host string       Host to bind the server to (default "0.0.0.0")
//	-port int          Port to run the REST API on (default 8080)
//	-mcp-port int      Port to run the MCP endpoint on (0 disables it)
//	-rules-dir string  Directory of custom JSON rule files
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentberlin/bluefin/internal/audit"
	"github.com/agentberlin/bluefin/internal/mcp"
	"github.com/agentberlin/bluefin/internal/server"
	"github.com/agentberlin/bluefin/internal/store"
	"github.com/agentberlin/bluefin/internal/version"
)

func main() {
	// Parse command-line flags
	port := flag.Int("port", 8080, "Port to run the HTTP server on")
	host := flag.String("host", "0.0.0.0", "Host to bind the HTTP server to")
	mcpPort := flag.Int("mcp-port", 0, "Port to run the MCP endpoint on (0 disables it)")
	rulesDir := flag.String("rules-dir", "", "Directory of custom JSON rule files")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("BlueFin Server %s\n", version.CurrentVersion)
		os.Exit(0)
	}

	// Initialize the database store
	st, err := store.NewStore()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Create core app with NoOpEmitter (HTTP clients use polling, not events)
	opts := audit.DefaultOptions()
	opts.RulesDir = *rulesDir
	coreApp, err := audit.NewApp(st, nil, opts)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	coreApp.Startup(context.Background())

	// Create HTTP server
	srv := server.NewServer(coreApp)

	// Configure HTTP server with production-ready settings
	addr := fmt.Sprintf("%s:%d", *host, *port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("BlueFin Server %s starting on %s", version.CurrentVersion, addr)
		log.Printf("API documentation: http://%s/api/v1/health", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Optionally run the MCP endpoint alongside the REST API, sharing the
	// same app so the one-audit-per-site guard holds across transports
	var mcpHTTPServer *http.Server
	if *mcpPort > 0 {
		mcpServer := mcp.NewMCPServerWithApp(context.Background(), coreApp, nil)
		mcpAddr := fmt.Sprintf("%s:%d", *host, *mcpPort)
		mcpHTTPServer, err = mcpServer.RunHTTP(mcpAddr)
		if err != nil {
			log.Fatalf("Failed to start MCP endpoint: %v", err)
		}
		log.Printf("MCP endpoint listening on %s", mcpAddr)
	}

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if mcpHTTPServer != nil {
		if err := mcpHTTPServer.Shutdown(ctx); err != nil {
			log.Printf("MCP endpoint forced to shutdown: %v", err)
		}
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
