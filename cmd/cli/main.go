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

// BlueFin CLI
//
// Command-line interface for the BlueFin SEO audit platform. Provides
// programmatic access to running audits, exporting reports, and managing
// audit history.
//
// Usage:
//
//	bluefin <command> [flags]
//
// Commands:
//
//	audit     Run a full SEO audit of a site
//	export    Export an audit report
//	list      List sites or audits
//	version   Show version information
package main

import (
	"fmt"
	"os"

	"github.com/agentberlin/bluefin/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "audit":
		if err := runAudit(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "export":
		if err := runExport(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "list":
		if err := runList(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "-v", "--version":
		fmt.Printf("BlueFin CLI %s\n", version.CurrentVersion)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`BlueFin CLI - SEO audit platform

Usage:
  bluefin <command> [flags]

Commands:
  audit     Run a full SEO audit of a site
  export    Export an audit report to JSON or CSV
  list      List sites or audits
  version   Show version information
  help      Show this help message

Examples:
  # Audit a website
  bluefin audit https://example.com

  # Audit with a page limit and JS rendering
  bluefin audit https://example.com --max-pages 500 -j

  # Audit with a traffic estimate for revenue projections
  bluefin audit https://example.com --monthly-traffic 50000

  # Export a completed audit
  bluefin export --audit-id 123 --format csv -o ./report

  # List all audited sites
  bluefin list sites

  # List audits for a site
  bluefin list audits --site-id 1

Use "bluefin <command> --help" for more information about a command.`)
}
