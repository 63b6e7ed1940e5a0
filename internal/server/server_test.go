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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentberlin/bluefin/internal/audit"
	"github.com/agentberlin/bluefin/internal/store"
	"github.com/agentberlin/bluefin/testutil"
)

// newTestServer builds the REST server over a temporary database
func newTestServer(t *testing.T) (*httptest.Server, *audit.App, *store.Store) {
	t.Helper()
	st, err := store.NewStoreForTesting(t.TempDir() + "/test.db")
	require.NoError(t, err)
	app, err := audit.NewApp(st, nil, audit.Options{EngineRetries: 0})
	require.NoError(t, err)
	app.Startup(context.Background())

	ts := httptest.NewServer(NewServer(app))
	t.Cleanup(ts.Close)
	return ts, app, st
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthAndVersion(t *testing.T) {
	ts, _, _ := newTestServer(t)

	var health map[string]string
	resp := getJSON(t, ts.URL+"/api/v1/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])

	var ver map[string]string
	resp = getJSON(t, ts.URL+"/api/v1/version", &ver)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, ver["version"])
}

func TestCORSPreflightAndHeaders(t *testing.T) {
	ts, _, _ := newTestServer(t)

	req, err := http.NewRequest("OPTIONS", ts.URL+"/api/v1/sites", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSitesEndpoints(t *testing.T) {
	ts, _, st := newTestServer(t)

	var sites []store.Site
	resp := getJSON(t, ts.URL+"/api/v1/sites", &sites)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, sites)

	site, err := st.GetOrCreateSite("https://example.com", "example.com")
	require.NoError(t, err)
	_, err = st.CreateAudit(site.ID)
	require.NoError(t, err)

	resp = getJSON(t, ts.URL+"/api/v1/sites", &sites)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, sites, 1)
	assert.Equal(t, "example.com", sites[0].Domain)

	var audits []store.Audit
	resp = getJSON(t, fmt.Sprintf("%s/api/v1/sites/%d/audits", ts.URL, site.ID), &audits)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, audits, 1)

	// DELETE the site
	req, err := http.NewRequest("DELETE", fmt.Sprintf("%s/api/v1/sites/%d", ts.URL, site.ID), nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	gone, err := st.GetSiteByDomain("example.com")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSitesBadID(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := getJSON(t, ts.URL+"/api/v1/sites/not-a-number/audits", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditEndpoints(t *testing.T) {
	ts, _, st := newTestServer(t)

	site, err := st.GetOrCreateSite("https://example.com", "example.com")
	require.NoError(t, err)
	auditRow, err := st.CreateAudit(site.ID)
	require.NoError(t, err)

	var fetched store.Audit
	resp := getJSON(t, fmt.Sprintf("%s/api/v1/audits/%d", ts.URL, auditRow.ID), &fetched)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, auditRow.ID, fetched.ID)

	resp = getJSON(t, ts.URL+"/api/v1/audits/99999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var pages []store.Page
	resp = getJSON(t, fmt.Sprintf("%s/api/v1/audits/%d/pages", ts.URL, auditRow.ID), &pages)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var issues []store.AuditIssue
	resp = getJSON(t, fmt.Sprintf("%s/api/v1/audits/%d/issues", ts.URL, auditRow.ID), &issues)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var recs []store.AuditRecommendation
	resp = getJSON(t, fmt.Sprintf("%s/api/v1/audits/%d/recommendations", ts.URL, auditRow.ID), &recs)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// DELETE the audit
	req, err := http.NewRequest("DELETE", fmt.Sprintf("%s/api/v1/audits/%d", ts.URL, auditRow.ID), nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
}

func TestStartAuditEndpoint(t *testing.T) {
	fixture := testutil.NewTestServer()
	defer fixture.Close()

	ts, app, st := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"url":       fixture.URL,
		"max_pages": 20,
	})
	resp, err := http.Post(ts.URL+"/api/v1/audit", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var auditRow store.Audit
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auditRow))
	assert.NotZero(t, auditRow.ID)

	// Wait for the audit to finish so the test database is not torn down
	// under a running crawl
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		current, err := st.GetAuditByID(auditRow.ID)
		require.NoError(t, err)
		if current.Status == store.AuditStatusComplete || current.Status == store.AuditStatusFailed {
			assert.Equal(t, store.AuditStatusComplete, current.Status, "error: %s", current.ErrorMessage)
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert.Empty(t, app.GetActiveAudits())
}

func TestStartAuditValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/audit", "application/json", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/v1/audit", "application/json", bytes.NewReader([]byte("not json")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/v1/audit")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStopAuditEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/stop-audit/99999", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActiveAuditsEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	var active []audit.Progress
	resp := getJSON(t, ts.URL+"/api/v1/active-audits", &active)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, active)
}

func TestConfigEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	// Missing domain parameter
	resp := getJSON(t, ts.URL+"/api/v1/config", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown domain
	resp = getJSON(t, ts.URL+"/api/v1/config?domain=example.com", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// PUT then GET round trip
	body, _ := json.Marshal(map[string]any{
		"MaxPages":     200,
		"RobotsMode":   "respect",
		"RateLimitRPS": 2.5,
	})
	req, err := http.NewRequest("PUT", ts.URL+"/api/v1/config?domain=example.com", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	putResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	putResp.Body.Close()
	assert.Equal(t, http.StatusOK, putResp.StatusCode)

	var config store.DomainConfig
	resp = getJSON(t, ts.URL+"/api/v1/config?domain=example.com", &config)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "example.com", config.Domain)
	assert.Equal(t, 200, config.MaxPages)
}
