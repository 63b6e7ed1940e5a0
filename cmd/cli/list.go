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
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/agentberlin/bluefin/internal/store"
)

// runList lists audited sites or the audit history of one site.
func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)

	siteID := fs.Uint("site-id", 0, "Site ID, required when listing audits")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: bluefin list <sites|audits> [flags]

List audited sites, or the audit history of one site.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("missing required argument: sites or audits")
	}

	st, err := store.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	switch fs.Arg(0) {
	case "sites":
		return listSites(st)
	case "audits":
		if *siteID == 0 {
			return fmt.Errorf("missing required flag: --site-id")
		}
		return listAudits(st, *siteID)
	default:
		return fmt.Errorf("unknown list target %q (want sites or audits)", fs.Arg(0))
	}
}

func listSites(st *store.Store) error {
	sites, err := st.GetAllSites()
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		fmt.Println("No sites audited yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDOMAIN\tURL\tTRAFFIC/MO\tLAST AUDIT")
	for _, s := range sites {
		lastAudit := "-"
		if len(s.Audits) > 0 {
			latest := s.Audits[0]
			if latest.Status == store.AuditStatusComplete {
				lastAudit = fmt.Sprintf("%.2f (%s)", latest.OverallScore, latest.OverallGrade)
			} else {
				lastAudit = latest.Status
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.0f\t%s\n", s.ID, s.Domain, s.URL, s.MonthlyTraffic, lastAudit)
	}
	return w.Flush()
}

func listAudits(st *store.Store, siteID uint) error {
	audits, err := st.GetSiteAudits(siteID)
	if err != nil {
		return err
	}
	if len(audits) == 0 {
		fmt.Printf("No audits for site %d.\n", siteID)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSCORE\tGRADE\tPAGES\tISSUES\tSTARTED")
	for _, a := range audits {
		started := ""
		if a.StartedAt > 0 {
			started = time.Unix(a.StartedAt, 0).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%d\t%d\t%s\n",
			a.ID, a.Status, a.OverallScore, a.OverallGrade, a.PagesCrawled, a.IssuesFound, started)
	}
	return w.Flush()
}
