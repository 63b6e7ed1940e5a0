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

// Package server exposes the audit application over a REST API.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/audit"
	"github.com/agentberlin/bluefin/internal/store"
	"github.com/agentberlin/bluefin/internal/version"
)

// Server represents the HTTP server
type Server struct {
	app *audit.App
	mux *http.ServeMux
}

// NewServer creates a new HTTP server
func NewServer(app *audit.App) *Server {
	s := &Server{
		app: app,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// CORS middleware
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	// Handle preflight
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Logging middleware
	log.Printf("%s %s", r.Method, r.URL.Path)

	s.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/api/v1/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/version", s.handleGetVersion)
	s.mux.HandleFunc("/api/v1/sites", s.handleSites)
	s.mux.HandleFunc("/api/v1/sites/", s.handleSitesWithID)
	s.mux.HandleFunc("/api/v1/audits/", s.handleAudits)
	s.mux.HandleFunc("/api/v1/audit", s.handleStartAudit)
	s.mux.HandleFunc("/api/v1/stop-audit/", s.handleStopAudit)
	s.mux.HandleFunc("/api/v1/active-audits", s.handleActiveAudits)
	s.mux.HandleFunc("/api/v1/config", s.handleConfig)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// handleGetVersion returns the application version
func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"version": version.CurrentVersion,
	})
}

// handleSites handles GET /api/v1/sites
func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sites, err := s.app.Store().GetAllSites()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sites)
}

// handleSitesWithID handles /api/v1/sites/{id}/*
func (s *Server) handleSitesWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/sites/")
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Site ID required", http.StatusBadRequest)
		return
	}
	siteID, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		http.Error(w, "Invalid site ID", http.StatusBadRequest)
		return
	}

	// DELETE /api/v1/sites/{id}
	if len(parts) == 1 && r.Method == "DELETE" {
		if err := s.app.Store().DeleteSite(uint(siteID)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// GET /api/v1/sites/{id}/audits
	if len(parts) == 2 && parts[1] == "audits" && r.Method == "GET" {
		audits, err := s.app.Store().GetSiteAudits(uint(siteID))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(audits)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}

// handleAudits handles /api/v1/audits/{id}/*
func (s *Server) handleAudits(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/audits/")
	parts := strings.Split(path, "/")

	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Audit ID required", http.StatusBadRequest)
		return
	}
	auditID, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		http.Error(w, "Invalid audit ID", http.StatusBadRequest)
		return
	}

	// GET /api/v1/audits/{id}
	if len(parts) == 1 && r.Method == "GET" {
		report, err := s.app.Store().GetAuditByID(uint(auditID))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
		return
	}

	// DELETE /api/v1/audits/{id}
	if len(parts) == 1 && r.Method == "DELETE" {
		if err := s.app.Store().DeleteAudit(uint(auditID)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// GET /api/v1/audits/{id}/pages?q=substring
	if len(parts) == 2 && parts[1] == "pages" && r.Method == "GET" {
		var pages []store.Page
		var err error
		if q := r.URL.Query().Get("q"); q != "" {
			pages, err = s.app.Store().SearchAuditPages(uint(auditID), q)
		} else {
			pages, err = s.app.Store().GetAuditPages(uint(auditID))
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pages)
		return
	}

	// GET /api/v1/audits/{id}/issues
	if len(parts) == 2 && parts[1] == "issues" && r.Method == "GET" {
		issues, err := s.app.Store().GetAuditIssues(uint(auditID))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(issues)
		return
	}

	// GET /api/v1/audits/{id}/recommendations
	if len(parts) == 2 && parts[1] == "recommendations" && r.Method == "GET" {
		recs, err := s.app.Store().GetAuditRecommendations(uint(auditID))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(recs)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}

// StartAuditRequest is the POST /api/v1/audit payload
type StartAuditRequest struct {
	URL            string  `json:"url"`
	MaxPages       int     `json:"max_pages,omitempty"`
	MaxDepth       int     `json:"max_depth,omitempty"`
	Concurrency    int     `json:"concurrency,omitempty"`
	JSRender       bool    `json:"js_render,omitempty"`
	MonthlyTraffic float64 `json:"monthly_traffic,omitempty"`
}

// handleStartAudit handles POST /api/v1/audit
func (s *Server) handleStartAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req StartAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}

	var config *bluefin.CrawlConfig
	if req.MaxPages > 0 || req.MaxDepth > 0 || req.Concurrency > 0 || req.JSRender {
		config = &bluefin.CrawlConfig{
			MaxPages:    req.MaxPages,
			MaxDepth:    req.MaxDepth,
			Concurrency: req.Concurrency,
			JSRender:    req.JSRender,
		}
	}

	auditRow, err := s.app.StartAudit(req.URL, config, req.MonthlyTraffic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(auditRow)
}

// handleStopAudit handles POST /api/v1/stop-audit/{id}
func (s *Server) handleStopAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/stop-audit/")
	auditID, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		http.Error(w, "Invalid audit ID", http.StatusBadRequest)
		return
	}
	if err := s.app.StopAudit(uint(auditID)); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "stopping"})
}

// handleActiveAudits handles GET /api/v1/active-audits
func (s *Server) handleActiveAudits(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.app.GetActiveAudits())
}

// handleConfig handles GET and PUT /api/v1/config?domain=example.com
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		http.Error(w, "domain query parameter required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "GET":
		config, err := s.app.Store().GetDomainConfig(domain)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if config == nil {
			http.Error(w, "No config for domain", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(config)

	case "PUT":
		var config store.DomainConfig
		if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		config.Domain = domain
		if err := s.app.Store().SaveDomainConfig(&config); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(config)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
