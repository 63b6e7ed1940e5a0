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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/audit"
	"github.com/agentberlin/bluefin/internal/store"
)

// runAudit starts an audit and blocks until it completes or is interrupted.
func runAudit(args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)

	maxPages := fs.Int("max-pages", 0, "Maximum number of pages to crawl (default 50000)")
	maxDepth := fs.Int("max-depth", 0, "Maximum crawl depth (default 10)")
	concurrency := fs.Int("concurrency", 0, "Number of concurrent fetch workers (default 20)")
	fs.IntVar(concurrency, "p", 0, "Number of concurrent fetch workers (shorthand)")
	jsRender := fs.Bool("js-rendering", false, "Render every page with a headless browser")
	fs.BoolVar(jsRender, "j", false, "Render every page with a headless browser (shorthand)")
	userAgent := fs.String("user-agent", "", "Custom User-Agent string")
	fs.StringVar(userAgent, "A", "", "Custom User-Agent string (shorthand)")
	rateLimit := fs.Float64("rate-limit", 0, "Maximum requests per second per host (default 5.0)")
	robotsMode := fs.String("robots-txt", "", "robots.txt handling: respect or ignore (default respect)")
	excludeSubdomains := fs.Bool("exclude-subdomains", false, "Restrict the crawl to the exact root host")
	monthlyTraffic := fs.Float64("monthly-traffic", 0, "Estimated monthly organic visits, used for revenue projections")
	rulesDir := fs.String("rules-dir", "", "Directory of custom JSON rule files")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	fs.BoolVar(quiet, "q", false, "Suppress progress output (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bluefin audit <url> [flags]

Run a full SEO audit: crawl the site, run the analysis engines, and store
the scored report. The audit ID printed at the end is used with the
export command.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("missing required argument: url")
	}
	rootURL := fs.Arg(0)

	var config *bluefin.CrawlConfig
	if *maxPages > 0 || *maxDepth > 0 || *concurrency > 0 || *jsRender ||
		*userAgent != "" || *rateLimit > 0 || *robotsMode != "" || *excludeSubdomains {
		config = &bluefin.CrawlConfig{
			MaxPages:          *maxPages,
			MaxDepth:          *maxDepth,
			Concurrency:       *concurrency,
			JSRender:          *jsRender,
			UserAgent:         *userAgent,
			RateLimitRPS:      *rateLimit,
			RobotsMode:        bluefin.RobotsMode(*robotsMode),
			ExcludeSubdomains: *excludeSubdomains,
		}
	}

	st, err := store.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	opts := audit.DefaultOptions()
	opts.RulesDir = *rulesDir
	app, err := audit.NewApp(st, nil, opts)
	if err != nil {
		return err
	}
	app.Startup(context.Background())

	started, err := app.StartAudit(rootURL, config, *monthlyTraffic)
	if err != nil {
		return err
	}
	if !*quiet {
		fmt.Printf("Started audit %d for %s\n", started.ID, rootURL)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	lastCrawled := -1
	for {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupt received, stopping audit...")
			if err := app.StopAudit(started.ID); err != nil {
				return err
			}
		case <-ticker.C:
		}

		current, err := st.GetAuditByID(started.ID)
		if err != nil {
			return err
		}
		switch current.Status {
		case store.AuditStatusComplete:
			printAuditSummary(current)
			return nil
		case store.AuditStatusFailed:
			return fmt.Errorf("audit %d failed: %s", current.ID, current.ErrorMessage)
		case store.AuditStatusCrawling:
			if !*quiet && current.PagesCrawled != lastCrawled {
				fmt.Printf("Crawled %d pages...\n", current.PagesCrawled)
				lastCrawled = current.PagesCrawled
			}
		case store.AuditStatusAnalyzing:
			if !*quiet && lastCrawled != -2 {
				fmt.Printf("Crawl done (%d pages). Analyzing...\n", current.PagesCrawled)
				lastCrawled = -2
			}
		}
	}
}

func printAuditSummary(a *store.Audit) {
	fmt.Printf("\nAudit %d complete\n", a.ID)
	fmt.Printf("  Overall score:  %.2f (%s)\n", a.OverallScore, a.OverallGrade)
	fmt.Printf("  Pages crawled:  %d\n", a.PagesCrawled)
	fmt.Printf("  Issues found:   %d (%d critical)\n", a.IssuesFound, a.CriticalIssues)
	fmt.Printf("  Confidence:     %.2f\n", a.ConfidenceScore)
	if a.EstimatedRevenueImpact > 0 {
		fmt.Printf("  Est. revenue:   $%.2f/month recoverable\n", a.EstimatedRevenueImpact)
	}
	fmt.Printf("\nExport the full report with: bluefin export --audit-id %d\n", a.ID)
}
