package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentberlin/bluefin"
	"github.com/agentberlin/bluefin/internal/store"
)

// registerTools registers all MCP tools with the server
func (s *MCPServer) registerTools() {
	s.logger.Printf("Registering MCP tools...")

	// Audit lifecycle tools
	s.registerAuditWebsiteTool()
	s.registerStopAuditTool()
	s.registerGetAuditStatusTool()

	// Report retrieval tools
	s.registerGetAuditReportTool()
	s.registerListAuditIssuesTool()
	s.registerGetRecommendationsTool()
	s.registerSearchAuditPagesTool()

	// Site management tools
	s.registerListSitesTool()
	s.registerListSiteAuditsTool()
	s.registerDeleteSiteTool()
	s.registerDeleteAuditTool()

	// Configuration tools
	s.registerGetDomainConfigTool()
	s.registerUpdateDomainConfigTool()

	s.logger.Printf("All MCP tools registered successfully")
}

// AuditWebsiteArgs defines the input schema for audit_website tool
type AuditWebsiteArgs struct {
	URL            string           `json:"url"`
	Config         *AuditConfigArgs `json:"config,omitempty"`
	MonthlyTraffic float64          `json:"monthlyTraffic,omitempty"`
}

// AuditConfigArgs defines the crawl configuration options
type AuditConfigArgs struct {
	MaxPages          *int    `json:"maxPages,omitempty"`
	MaxDepth          *int    `json:"maxDepth,omitempty"`
	Concurrency       *int    `json:"concurrency,omitempty"`
	JSRendering       *bool   `json:"jsRendering,omitempty"`
	IncludeSubdomains *bool   `json:"includeSubdomains,omitempty"`
	RobotsTxtMode     *string `json:"robotsTxtMode,omitempty"`
	UserAgent         *string `json:"userAgent,omitempty"`
}

// AuditWebsiteResult defines the output schema for audit_website tool
type AuditWebsiteResult struct {
	Success bool   `json:"success"`
	AuditID uint   `json:"auditId,omitempty"`
	SiteID  uint   `json:"siteId,omitempty"`
	Message string `json:"message"`
}

func (a *AuditConfigArgs) toCrawlConfig() *bluefin.CrawlConfig {
	if a == nil {
		return nil
	}
	cfg := &bluefin.CrawlConfig{}
	if a.MaxPages != nil {
		cfg.MaxPages = *a.MaxPages
	}
	if a.MaxDepth != nil {
		cfg.MaxDepth = *a.MaxDepth
	}
	if a.Concurrency != nil {
		cfg.Concurrency = *a.Concurrency
	}
	if a.JSRendering != nil {
		cfg.JSRender = *a.JSRendering
	}
	if a.IncludeSubdomains != nil {
		cfg.ExcludeSubdomains = !*a.IncludeSubdomains
	}
	if a.RobotsTxtMode != nil {
		cfg.RobotsMode = bluefin.RobotsMode(*a.RobotsTxtMode)
	}
	if a.UserAgent != nil {
		cfg.UserAgent = *a.UserAgent
	}
	return cfg
}

// registerAuditWebsiteTool registers the audit_website tool
func (s *MCPServer) registerAuditWebsiteTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "audit_website",
		Description: "Starts a full SEO audit of the specified URL: crawl, analysis, scoring, and prioritized recommendations",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AuditWebsiteArgs) (*mcp.CallToolResult, any, error) {
		s.logger.Printf("Tool called: audit_website for URL: %s", args.URL)

		auditRow, err := s.app.StartAudit(args.URL, args.Config.toCrawlConfig(), args.MonthlyTraffic)
		if err != nil {
			return nil, AuditWebsiteResult{
				Success: false,
				Message: fmt.Sprintf("Failed to start audit: %v", err),
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{
					Text: fmt.Sprintf("Audit started (Audit ID: %d, Site ID: %d). Poll get_audit_status for progress.", auditRow.ID, auditRow.SiteID),
				},
			},
		}, AuditWebsiteResult{
			Success: true,
			AuditID: auditRow.ID,
			SiteID:  auditRow.SiteID,
			Message: "Audit started successfully",
		}, nil
	})
}

// StopAuditArgs defines the input schema for stop_audit tool
type StopAuditArgs struct {
	AuditID uint `json:"auditId"`
}

// StopAuditResult defines the output schema for stop_audit tool
type StopAuditResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *MCPServer) registerStopAuditTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stop_audit",
		Description: "Stops a running audit",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args StopAuditArgs) (*mcp.CallToolResult, any, error) {
		s.logger.Printf("Tool called: stop_audit for audit %d", args.AuditID)

		if err := s.app.StopAudit(args.AuditID); err != nil {
			return nil, StopAuditResult{
				Success: false,
				Message: fmt.Sprintf("Failed to stop audit: %v", err),
			}, nil
		}
		return nil, StopAuditResult{
			Success: true,
			Message: "Audit stop requested",
		}, nil
	})
}

// GetAuditStatusArgs defines the input schema for get_audit_status tool
type GetAuditStatusArgs struct {
	AuditID uint `json:"auditId"`
}

// GetAuditStatusResult defines the output schema for get_audit_status tool
type GetAuditStatusResult struct {
	AuditID      uint    `json:"auditId"`
	Status       string  `json:"status"`
	PagesCrawled int     `json:"pagesCrawled"`
	OverallScore float64 `json:"overallScore,omitempty"`
	OverallGrade string  `json:"overallGrade,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

func (s *MCPServer) registerGetAuditStatusTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_audit_status",
		Description: "Returns the lifecycle status and progress of an audit",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetAuditStatusArgs) (*mcp.CallToolResult, any, error) {
		auditRow, err := s.store.GetAuditByID(args.AuditID)
		if err != nil {
			return nil, nil, err
		}
		return nil, GetAuditStatusResult{
			AuditID:      auditRow.ID,
			Status:       auditRow.Status,
			PagesCrawled: auditRow.PagesCrawled,
			OverallScore: auditRow.OverallScore,
			OverallGrade: auditRow.OverallGrade,
			ErrorMessage: auditRow.ErrorMessage,
		}, nil
	})
}

// GetAuditReportArgs defines the input schema for get_audit_report tool
type GetAuditReportArgs struct {
	AuditID uint `json:"auditId"`
}

// CategoryScoreSummary is one category line of the report
type CategoryScoreSummary struct {
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	Grade       string  `json:"grade"`
	IssuesCount int     `json:"issuesCount"`
}

// GetAuditReportResult defines the output schema for get_audit_report tool
type GetAuditReportResult struct {
	AuditID                uint                   `json:"auditId"`
	Status                 string                 `json:"status"`
	URL                    string                 `json:"url,omitempty"`
	OverallScore           float64                `json:"overallScore"`
	OverallGrade           string                 `json:"overallGrade"`
	ConfidenceScore        float64                `json:"confidenceScore"`
	EstimatedRevenueImpact float64                `json:"estimatedRevenueImpact"`
	PagesCrawled           int                    `json:"pagesCrawled"`
	IssuesFound            int                    `json:"issuesFound"`
	CriticalIssues         int                    `json:"criticalIssues"`
	CategoryScores         []CategoryScoreSummary `json:"categoryScores"`
}

func (s *MCPServer) registerGetAuditReportTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_audit_report",
		Description: "Returns the scorecard of a completed audit: overall score, grade, confidence, revenue impact, and per-category scores",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetAuditReportArgs) (*mcp.CallToolResult, any, error) {
		auditRow, err := s.store.GetAuditByID(args.AuditID)
		if err != nil {
			return nil, nil, err
		}
		result := GetAuditReportResult{
			AuditID:                auditRow.ID,
			Status:                 auditRow.Status,
			OverallScore:           auditRow.OverallScore,
			OverallGrade:           auditRow.OverallGrade,
			ConfidenceScore:        auditRow.ConfidenceScore,
			EstimatedRevenueImpact: auditRow.EstimatedRevenueImpact,
			PagesCrawled:           auditRow.PagesCrawled,
			IssuesFound:            auditRow.IssuesFound,
			CriticalIssues:         auditRow.CriticalIssues,
		}
		if auditRow.Site != nil {
			result.URL = auditRow.Site.URL
		}
		for _, cs := range auditRow.CategoryScores {
			result.CategoryScores = append(result.CategoryScores, CategoryScoreSummary{
				Category:    cs.Category,
				Score:       cs.Score,
				Grade:       cs.Grade,
				IssuesCount: cs.IssuesCount,
			})
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{
					Text: fmt.Sprintf("Audit %d: score %.2f (%s), %d issues (%d critical) across %d pages",
						auditRow.ID, auditRow.OverallScore, auditRow.OverallGrade,
						auditRow.IssuesFound, auditRow.CriticalIssues, auditRow.PagesCrawled),
				},
			},
		}, result, nil
	})
}

// ListAuditIssuesArgs defines the input schema for list_audit_issues tool
type ListAuditIssuesArgs struct {
	AuditID  uint   `json:"auditId"`
	Severity string `json:"severity,omitempty"`
	Category string `json:"category,omitempty"`
}

// IssueSummary is one issue line in the list_audit_issues output
type IssueSummary struct {
	IssueID       string   `json:"issueId"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Severity      string   `json:"severity"`
	AffectedCount int      `json:"affectedCount"`
	ImpactScore   float64  `json:"impactScore"`
	AffectedURLs  []string `json:"affectedUrls,omitempty"`
}

// ListAuditIssuesResult defines the output schema for list_audit_issues
type ListAuditIssuesResult struct {
	AuditID uint           `json:"auditId"`
	Total   int            `json:"total"`
	Issues  []IssueSummary `json:"issues"`
}

func (s *MCPServer) registerListAuditIssuesTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_audit_issues",
		Description: "Lists the issues detected by an audit, optionally filtered by severity or category",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListAuditIssuesArgs) (*mcp.CallToolResult, any, error) {
		issues, err := s.store.GetAuditIssues(args.AuditID)
		if err != nil {
			return nil, nil, err
		}
		result := ListAuditIssuesResult{AuditID: args.AuditID, Issues: []IssueSummary{}}
		for _, issue := range issues {
			if args.Severity != "" && !strings.EqualFold(issue.Severity, args.Severity) {
				continue
			}
			if args.Category != "" && !strings.EqualFold(issue.Category, args.Category) {
				continue
			}
			result.Issues = append(result.Issues, IssueSummary{
				IssueID:       issue.IssueID,
				Name:          issue.Name,
				Category:      issue.Category,
				Severity:      issue.Severity,
				AffectedCount: issue.AffectedCount,
				ImpactScore:   issue.ImpactScore,
				AffectedURLs:  issue.GetAffectedURLsArray(),
			})
		}
		result.Total = len(result.Issues)
		return nil, result, nil
	})
}

// GetRecommendationsArgs defines the input schema for get_recommendations
type GetRecommendationsArgs struct {
	AuditID uint `json:"auditId"`
	Limit   int  `json:"limit,omitempty"`
}

// RecommendationSummary is one action plan entry
type RecommendationSummary struct {
	PriorityRank           int      `json:"priorityRank"`
	IssueID                string   `json:"issueId"`
	Title                  string   `json:"title"`
	Description            string   `json:"description"`
	Effort                 string   `json:"effort"`
	Impact                 string   `json:"impact"`
	EstimatedTrafficGain   float64  `json:"estimatedTrafficGain"`
	EstimatedRevenueImpact float64  `json:"estimatedRevenueImpact"`
	ImplementationSteps    []string `json:"implementationSteps"`
}

// GetRecommendationsResult defines the output schema for get_recommendations
type GetRecommendationsResult struct {
	AuditID         uint                    `json:"auditId"`
	Recommendations []RecommendationSummary `json:"recommendations"`
}

func (s *MCPServer) registerGetRecommendationsTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_recommendations",
		Description: "Returns the prioritized action plan of an audit",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetRecommendationsArgs) (*mcp.CallToolResult, any, error) {
		recs, err := s.store.GetAuditRecommendations(args.AuditID)
		if err != nil {
			return nil, nil, err
		}
		result := GetRecommendationsResult{AuditID: args.AuditID, Recommendations: []RecommendationSummary{}}
		for _, rec := range recs {
			if args.Limit > 0 && len(result.Recommendations) >= args.Limit {
				break
			}
			result.Recommendations = append(result.Recommendations, RecommendationSummary{
				PriorityRank:           rec.PriorityRank,
				IssueID:                rec.IssueID,
				Title:                  rec.Title,
				Description:            rec.Description,
				Effort:                 rec.Effort,
				Impact:                 rec.Impact,
				EstimatedTrafficGain:   rec.EstimatedTrafficGain,
				EstimatedRevenueImpact: rec.EstimatedRevenueImpact,
				ImplementationSteps:    rec.GetImplementationStepsArray(),
			})
		}
		return nil, result, nil
	})
}

// SearchAuditPagesArgs defines the input schema for search_audit_pages
type SearchAuditPagesArgs struct {
	AuditID uint   `json:"auditId"`
	Query   string `json:"query"`
}

// PageSummary is one crawled page in search results
type PageSummary struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	StatusCode int    `json:"statusCode"`
	Depth      int    `json:"depth"`
	WordCount  int    `json:"wordCount"`
}

// SearchAuditPagesResult defines the output schema for search_audit_pages
type SearchAuditPagesResult struct {
	AuditID uint          `json:"auditId"`
	Total   int           `json:"total"`
	Pages   []PageSummary `json:"pages"`
}

func (s *MCPServer) registerSearchAuditPagesTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_audit_pages",
		Description: "Searches the crawled pages of an audit by URL or title substring",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchAuditPagesArgs) (*mcp.CallToolResult, any, error) {
		pages, err := s.store.SearchAuditPages(args.AuditID, args.Query)
		if err != nil {
			return nil, nil, err
		}
		result := SearchAuditPagesResult{AuditID: args.AuditID, Pages: []PageSummary{}}
		for _, page := range pages {
			result.Pages = append(result.Pages, PageSummary{
				URL:        page.URL,
				Title:      page.Title,
				StatusCode: page.StatusCode,
				Depth:      page.Depth,
				WordCount:  page.WordCount,
			})
		}
		result.Total = len(result.Pages)
		return nil, result, nil
	})
}

// ListSitesResult defines the output schema for list_sites tool
type ListSitesResult struct {
	Sites []SiteSummary `json:"sites"`
}

// SiteSummary is one audited site
type SiteSummary struct {
	SiteID      uint    `json:"siteId"`
	URL         string  `json:"url"`
	Domain      string  `json:"domain"`
	LatestScore float64 `json:"latestScore,omitempty"`
	LatestGrade string  `json:"latestGrade,omitempty"`
}

func (s *MCPServer) registerListSitesTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sites",
		Description: "Lists all audited sites with their latest score",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
		sites, err := s.store.GetAllSites()
		if err != nil {
			return nil, nil, err
		}
		result := ListSitesResult{Sites: []SiteSummary{}}
		for _, site := range sites {
			summary := SiteSummary{
				SiteID: site.ID,
				URL:    site.URL,
				Domain: site.Domain,
			}
			if len(site.Audits) > 0 {
				summary.LatestScore = site.Audits[0].OverallScore
				summary.LatestGrade = site.Audits[0].OverallGrade
			}
			result.Sites = append(result.Sites, summary)
		}
		return nil, result, nil
	})
}

// ListSiteAuditsArgs defines the input schema for list_site_audits tool
type ListSiteAuditsArgs struct {
	SiteID uint `json:"siteId"`
}

// AuditSummary is one audit run of a site
type AuditSummary struct {
	AuditID      uint    `json:"auditId"`
	Status       string  `json:"status"`
	OverallScore float64 `json:"overallScore"`
	OverallGrade string  `json:"overallGrade"`
	PagesCrawled int     `json:"pagesCrawled"`
	IssuesFound  int     `json:"issuesFound"`
	StartedAt    int64   `json:"startedAt"`
	CompletedAt  int64   `json:"completedAt,omitempty"`
}

// ListSiteAuditsResult defines the output schema for list_site_audits
type ListSiteAuditsResult struct {
	SiteID uint           `json:"siteId"`
	Audits []AuditSummary `json:"audits"`
}

func (s *MCPServer) registerListSiteAuditsTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_site_audits",
		Description: "Lists the audit history of a site, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListSiteAuditsArgs) (*mcp.CallToolResult, any, error) {
		audits, err := s.store.GetSiteAudits(args.SiteID)
		if err != nil {
			return nil, nil, err
		}
		result := ListSiteAuditsResult{SiteID: args.SiteID, Audits: []AuditSummary{}}
		for _, auditRow := range audits {
			result.Audits = append(result.Audits, AuditSummary{
				AuditID:      auditRow.ID,
				Status:       auditRow.Status,
				OverallScore: auditRow.OverallScore,
				OverallGrade: auditRow.OverallGrade,
				PagesCrawled: auditRow.PagesCrawled,
				IssuesFound:  auditRow.IssuesFound,
				StartedAt:    auditRow.StartedAt,
				CompletedAt:  auditRow.CompletedAt,
			})
		}
		return nil, result, nil
	})
}

// DeleteSiteArgs defines the input schema for delete_site tool
type DeleteSiteArgs struct {
	SiteID uint `json:"siteId"`
}

// DeleteAuditArgs defines the input schema for delete_audit tool
type DeleteAuditArgs struct {
	AuditID uint `json:"auditId"`
}

// DeleteResult is the shared output schema for delete tools
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *MCPServer) registerDeleteSiteTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_site",
		Description: "Deletes a site and all its audit history",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args DeleteSiteArgs) (*mcp.CallToolResult, any, error) {
		if err := s.store.DeleteSite(args.SiteID); err != nil {
			return nil, DeleteResult{Success: false, Message: err.Error()}, nil
		}
		return nil, DeleteResult{Success: true, Message: "Site deleted"}, nil
	})
}

func (s *MCPServer) registerDeleteAuditTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_audit",
		Description: "Deletes one audit and all its data",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args DeleteAuditArgs) (*mcp.CallToolResult, any, error) {
		if err := s.store.DeleteAudit(args.AuditID); err != nil {
			return nil, DeleteResult{Success: false, Message: err.Error()}, nil
		}
		return nil, DeleteResult{Success: true, Message: "Audit deleted"}, nil
	})
}

// GetDomainConfigArgs defines the input schema for get_domain_config tool
type GetDomainConfigArgs struct {
	Domain string `json:"domain"`
}

func (s *MCPServer) registerGetDomainConfigTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_domain_config",
		Description: "Returns the stored crawl configuration overrides for a domain",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetDomainConfigArgs) (*mcp.CallToolResult, any, error) {
		config, err := s.store.GetDomainConfig(args.Domain)
		if err != nil {
			return nil, nil, err
		}
		if config == nil {
			return nil, nil, fmt.Errorf("no config stored for domain %s", args.Domain)
		}
		return nil, config, nil
	})
}

// UpdateDomainConfigArgs defines the input schema for update_domain_config
type UpdateDomainConfigArgs struct {
	Domain string          `json:"domain"`
	Config AuditConfigArgs `json:"config"`
}

func (s *MCPServer) registerUpdateDomainConfigTool() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_domain_config",
		Description: "Updates the stored crawl configuration overrides for a domain",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args UpdateDomainConfigArgs) (*mcp.CallToolResult, any, error) {
		config, err := s.store.GetDomainConfig(args.Domain)
		if err != nil {
			return nil, nil, err
		}
		if config == nil {
			config = &store.DomainConfig{Domain: args.Domain}
		}
		if args.Config.MaxPages != nil {
			config.MaxPages = *args.Config.MaxPages
		}
		if args.Config.MaxDepth != nil {
			config.MaxDepth = *args.Config.MaxDepth
		}
		if args.Config.Concurrency != nil {
			config.Concurrency = *args.Config.Concurrency
		}
		if args.Config.JSRendering != nil {
			config.JSRender = *args.Config.JSRendering
		}
		if args.Config.IncludeSubdomains != nil {
			config.ExcludeSubdomains = !*args.Config.IncludeSubdomains
		}
		if args.Config.RobotsTxtMode != nil {
			config.RobotsMode = *args.Config.RobotsTxtMode
		}
		if args.Config.UserAgent != nil {
			config.UserAgent = *args.Config.UserAgent
		}
		if err := s.store.SaveDomainConfig(config); err != nil {
			return nil, nil, err
		}
		return nil, config, nil
	})
}
