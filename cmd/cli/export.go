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
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kennygrant/sanitize"

	"github.com/agentberlin/bluefin/internal/store"
)

// Exporter writes a completed audit's report to disk.
type Exporter struct {
	store     *store.Store
	outputDir string
	format    string
	prefix    string
}

// runExport exports pages, issues, recommendations and a summary for one
// audit.
func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)

	auditID := fs.Uint("audit-id", 0, "ID of the audit to export (required)")
	format := fs.String("format", "json", "Export format: json or csv")
	fs.StringVar(format, "f", "json", "Export format (shorthand)")
	outputDir := fs.String("output", ".", "Output directory")
	fs.StringVar(outputDir, "o", ".", "Output directory (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bluefin export --audit-id <id> [flags]

Export an audit report. Writes a summary plus per-page, per-issue and
per-recommendation files, named after the audited domain.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *auditID == 0 {
		fs.Usage()
		return fmt.Errorf("missing required flag: --audit-id")
	}
	if *format != "json" && *format != "csv" {
		return fmt.Errorf("unsupported format %q (want json or csv)", *format)
	}

	st, err := store.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	audit, err := st.GetAuditByID(uint(*auditID))
	if err != nil {
		return err
	}
	if audit.Status != store.AuditStatusComplete {
		return fmt.Errorf("audit %d is %s, only complete audits can be exported", audit.ID, audit.Status)
	}

	prefix := fmt.Sprintf("audit-%d", audit.ID)
	if audit.Site != nil {
		prefix = sanitize.BaseName(audit.Site.Domain) + "-" + strconv.FormatUint(uint64(audit.ID), 10)
	}

	e := &Exporter{store: st, outputDir: *outputDir, format: *format, prefix: prefix}
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := e.exportSummary(audit); err != nil {
		return err
	}
	if err := e.exportPages(audit); err != nil {
		return err
	}
	if err := e.exportIssues(audit); err != nil {
		return err
	}
	if err := e.exportRecommendations(audit); err != nil {
		return err
	}

	fmt.Printf("Exported audit %d to %s\n", audit.ID, e.outputDir)
	return nil
}

func (e *Exporter) path(name, ext string) string {
	return filepath.Join(e.outputDir, fmt.Sprintf("%s-%s.%s", e.prefix, name, ext))
}

// exportSummary is always JSON; a flat summary has no useful CSV shape.
func (e *Exporter) exportSummary(audit *store.Audit) error {
	type categoryScore struct {
		Category      string  `json:"category"`
		Score         float64 `json:"score"`
		Grade         string  `json:"grade"`
		IssuesCount   int     `json:"issues_count"`
		CriticalCount int     `json:"critical_count"`
		HighCount     int     `json:"high_count"`
		Weight        float64 `json:"weight"`
	}
	summary := struct {
		AuditID                uint            `json:"audit_id"`
		Domain                 string          `json:"domain"`
		Status                 string          `json:"status"`
		OverallScore           float64         `json:"overall_score"`
		OverallGrade           string          `json:"overall_grade"`
		ConfidenceScore        float64         `json:"confidence_score"`
		EstimatedRevenueImpact float64         `json:"estimated_revenue_impact"`
		PagesCrawled           int             `json:"pages_crawled"`
		IssuesFound            int             `json:"issues_found"`
		CriticalIssues         int             `json:"critical_issues"`
		StartedAt              int64           `json:"started_at"`
		CompletedAt            int64           `json:"completed_at"`
		CategoryScores         []categoryScore `json:"category_scores"`
	}{
		AuditID:                audit.ID,
		Status:                 audit.Status,
		OverallScore:           audit.OverallScore,
		OverallGrade:           audit.OverallGrade,
		ConfidenceScore:        audit.ConfidenceScore,
		EstimatedRevenueImpact: audit.EstimatedRevenueImpact,
		PagesCrawled:           audit.PagesCrawled,
		IssuesFound:            audit.IssuesFound,
		CriticalIssues:         audit.CriticalIssues,
		StartedAt:              audit.StartedAt,
		CompletedAt:            audit.CompletedAt,
	}
	if audit.Site != nil {
		summary.Domain = audit.Site.Domain
	}
	for _, cs := range audit.CategoryScores {
		summary.CategoryScores = append(summary.CategoryScores, categoryScore{
			Category:      cs.Category,
			Score:         cs.Score,
			Grade:         cs.Grade,
			IssuesCount:   cs.IssuesCount,
			CriticalCount: cs.CriticalCount,
			HighCount:     cs.HighCount,
			Weight:        cs.Weight,
		})
	}
	return e.writeJSON(e.path("summary", "json"), summary)
}

func (e *Exporter) exportPages(audit *store.Audit) error {
	pages, err := e.store.GetAuditPages(audit.ID)
	if err != nil {
		return err
	}
	if e.format == "json" {
		return e.writeJSON(e.path("pages", "json"), pages)
	}

	header := []string{"Address", "Status Code", "Content Type", "Title", "Canonical Link Element",
		"Word Count", "H1 Count", "Crawl Depth", "Discovered Via", "Response Time (ms)",
		"Size (bytes)", "Redirect Hops", "JS Rendered"}
	rows := make([][]string, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, []string{
			p.URL,
			strconv.Itoa(p.StatusCode),
			p.ContentType,
			p.Title,
			p.CanonicalURL,
			strconv.Itoa(p.WordCount),
			strconv.Itoa(p.H1Count),
			strconv.Itoa(p.Depth),
			p.DiscoveredVia,
			strconv.FormatFloat(p.LoadTimeMs, 'f', 1, 64),
			strconv.Itoa(p.PageSizeBytes),
			strconv.Itoa(p.RedirectHops),
			strconv.FormatBool(p.JSRendered),
		})
	}
	return e.writeCSV(e.path("pages", "csv"), header, rows)
}

func (e *Exporter) exportIssues(audit *store.Audit) error {
	issues, err := e.store.GetAuditIssues(audit.ID)
	if err != nil {
		return err
	}
	if e.format == "json" {
		type issueExport struct {
			store.AuditIssue
			AffectedURLsArray []string `json:"affected_urls_array"`
		}
		out := make([]issueExport, 0, len(issues))
		for _, i := range issues {
			out = append(out, issueExport{AuditIssue: i, AffectedURLsArray: i.GetAffectedURLsArray()})
		}
		return e.writeJSON(e.path("issues", "json"), out)
	}

	header := []string{"Issue ID", "Name", "Category", "Severity", "Affected Pages",
		"Impact Score", "Effort Score", "Recommendation"}
	rows := make([][]string, 0, len(issues))
	for _, i := range issues {
		rows = append(rows, []string{
			i.IssueID,
			i.Name,
			i.Category,
			i.Severity,
			strconv.Itoa(i.AffectedCount),
			strconv.FormatFloat(i.ImpactScore, 'f', 2, 64),
			strconv.Itoa(i.EffortScore),
			i.Recommendation,
		})
	}
	return e.writeCSV(e.path("issues", "csv"), header, rows)
}

func (e *Exporter) exportRecommendations(audit *store.Audit) error {
	recs, err := e.store.GetAuditRecommendations(audit.ID)
	if err != nil {
		return err
	}
	if e.format == "json" {
		type recExport struct {
			store.AuditRecommendation
			ImplementationStepsArray []string `json:"implementation_steps_array"`
		}
		out := make([]recExport, 0, len(recs))
		for _, r := range recs {
			out = append(out, recExport{AuditRecommendation: r, ImplementationStepsArray: r.GetImplementationStepsArray()})
		}
		return e.writeJSON(e.path("recommendations", "json"), out)
	}

	header := []string{"Rank", "Issue ID", "Title", "Effort", "Impact",
		"Est. Traffic Gain", "Est. Revenue Impact"}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			strconv.Itoa(r.PriorityRank),
			r.IssueID,
			r.Title,
			r.Effort,
			r.Impact,
			strconv.FormatFloat(r.EstimatedTrafficGain, 'f', 0, 64),
			strconv.FormatFloat(r.EstimatedRevenueImpact, 'f', 2, 64),
		})
	}
	return e.writeCSV(e.path("recommendations", "csv"), header, rows)
}

func (e *Exporter) writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
