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

// Package audit orchestrates full site audits: crawl, engine analysis,
// scoring, and prioritization, with results persisted to the store.
package audit

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/agentberlin/bluefin/internal/engines"
	"github.com/agentberlin/bluefin/internal/rules"
	"github.com/agentberlin/bluefin/internal/store"
)

// Options tune an App's audit execution.
type Options struct {
	// CrawlTimeout bounds the crawl phase. The audit fails when it expires.
	CrawlTimeout time.Duration
	// EngineTimeout bounds each engine run. A timed-out engine records a
	// failed result; the audit continues with partial results.
	EngineTimeout time.Duration
	// EngineRetries is how many times a failed engine is retried.
	EngineRetries int
	// RulesDir, when set, loads custom JSON rules evaluated by the content
	// rules engine.
	RulesDir string
}

// DefaultOptions returns the standard audit execution limits.
func DefaultOptions() Options {
	return Options{
		CrawlTimeout:  30 * time.Minute,
		EngineTimeout: 5 * time.Minute,
		EngineRetries: 2,
	}
}

// App coordinates audits. One App serves all transports (REST, MCP, CLI).
type App struct {
	ctx     context.Context
	store   *store.Store
	emitter EventEmitter
	opts    Options
	logger  *log.Logger

	registry *rules.Registry

	activeMu     sync.RWMutex
	activeAudits map[uint]*activeAudit

	// retryDelay is the base backoff between engine retries; attempt N
	// waits N*retryDelay. Shortened in tests.
	retryDelay time.Duration
}

// NewApp creates an App with dependencies injected. A nil emitter gets the
// no-op implementation.
func NewApp(st *store.Store, emitter EventEmitter, opts Options) (*App, error) {
	if emitter == nil {
		emitter = &NoOpEmitter{}
	}
	if opts.CrawlTimeout == 0 {
		opts.CrawlTimeout = DefaultOptions().CrawlTimeout
	}
	if opts.EngineTimeout == 0 {
		opts.EngineTimeout = DefaultOptions().EngineTimeout
	}

	registry := rules.NewRegistry()
	if opts.RulesDir != "" {
		if err := registry.LoadDir(opts.RulesDir); err != nil {
			return nil, err
		}
	}

	return &App{
		store:        st,
		emitter:      emitter,
		opts:         opts,
		logger:       log.New(os.Stderr, "[BlueFin Audit] ", log.LstdFlags),
		registry:     registry,
		activeAudits: make(map[uint]*activeAudit),
		retryDelay:   30 * time.Second,
	}, nil
}

// Startup initializes the app with a context
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
}

// Store exposes the backing store to transports.
func (a *App) Store() *store.Store {
	return a.store
}

// Rules exposes the custom rule registry.
func (a *App) Rules() *rules.Registry {
	return a.registry
}

// engineRoster builds the engines run for every audit.
func (a *App) engineRoster() []engines.Engine {
	roster := []engines.Engine{
		engines.NewCrawlEngine(),
		engines.NewTechnicalEngine(),
		engines.NewOnPageEngine(),
	}
	if a.registry.Len() > 0 {
		roster = append(roster, engines.NewRulesEngine("content-rules", engines.CategoryContent, a.registry))
	}
	return roster
}
